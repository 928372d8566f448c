package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/JohnPlummer/opportunity-scorer/ledger"
)

func storedIDs(doc []byte) []string {
	var ids []string
	Expect(json.Unmarshal(doc, &ids)).To(Succeed())
	return ids
}

// ledgerBehaviour runs the same contract against every Store implementation
func ledgerBehaviour(newStore func() ledger.Store) {
	var (
		ctx   context.Context
		store ledger.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newStore()
	})

	It("should open empty when nothing has been stored", func() {
		l, err := ledger.Open(ctx, store)
		Expect(err).ToNot(HaveOccurred())
		Expect(l.Len()).To(Equal(0))
		Expect(l.Contains("UC1")).To(BeFalse())
	})

	It("should make a commit visible immediately and across reopen", func() {
		l, err := ledger.Open(ctx, store)
		Expect(err).ToNot(HaveOccurred())

		Expect(l.Commit(ctx, "UC1")).To(Succeed())
		Expect(l.Contains("UC1")).To(BeTrue())

		reopened, err := ledger.Open(ctx, store)
		Expect(err).ToNot(HaveOccurred())
		Expect(reopened.Contains("UC1")).To(BeTrue())
	})

	It("should be idempotent for repeated commits", func() {
		l, err := ledger.Open(ctx, store)
		Expect(err).ToNot(HaveOccurred())

		Expect(l.Commit(ctx, "UC1")).To(Succeed())
		Expect(l.Commit(ctx, "UC1")).To(Succeed())

		doc, err := store.Load(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(storedIDs(doc)).To(Equal([]string{"UC1"}))
	})

	It("should rewrite the whole set as a sorted JSON array", func() {
		l, err := ledger.Open(ctx, store)
		Expect(err).ToNot(HaveOccurred())

		for _, id := range []string{"UC3", "UC1", "UC2"} {
			Expect(l.Commit(ctx, id)).To(Succeed())
		}

		doc, err := store.Load(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(storedIDs(doc)).To(Equal([]string{"UC1", "UC2", "UC3"}))
		Expect(l.IDs()).To(Equal([]string{"UC1", "UC2", "UC3"}))
	})

	It("should never drop ids committed through another handle", func() {
		first, err := ledger.Open(ctx, store)
		Expect(err).ToNot(HaveOccurred())
		second, err := ledger.Open(ctx, store)
		Expect(err).ToNot(HaveOccurred())

		Expect(first.Commit(ctx, "A")).To(Succeed())
		Expect(second.Commit(ctx, "B")).To(Succeed())

		doc, err := store.Load(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(storedIDs(doc)).To(ConsistOf("A", "B"))
		Expect(second.Contains("A")).To(BeTrue())
	})

	It("should reject empty ids", func() {
		l, err := ledger.Open(ctx, store)
		Expect(err).ToNot(HaveOccurred())
		Expect(l.Commit(ctx, "")).To(MatchError(ledger.ErrEmptyID))
	})

	It("should report a corrupt document but still return an empty ledger", func() {
		Expect(store.Save(ctx, []byte("{not json"))).To(Succeed())

		l, err := ledger.Open(ctx, store)
		Expect(err).To(MatchError(ledger.ErrCorrupt))
		Expect(l).ToNot(BeNil())
		Expect(l.Len()).To(Equal(0))

		// Committing after a corrupt load replaces the document with a valid one
		Expect(l.Commit(ctx, "UC9")).To(Succeed())
		doc, err := store.Load(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(storedIDs(doc)).To(Equal([]string{"UC9"}))
	})

	It("should treat a document holding an empty id as corrupt", func() {
		Expect(store.Save(ctx, []byte(`["UC1",""]`))).To(Succeed())
		_, err := ledger.Open(ctx, store)
		Expect(err).To(MatchError(ledger.ErrCorrupt))
	})
}

var _ = Describe("Ledger", func() {
	Describe("with MemoryStore", func() {
		ledgerBehaviour(func() ledger.Store { return ledger.NewMemoryStore(nil) })
	})

	Describe("with FileStore", func() {
		ledgerBehaviour(func() ledger.Store {
			return ledger.NewFileStore(filepath.Join(GinkgoT().TempDir(), "state", "processed_records.json"))
		})
	})

	Describe("with SQLiteStore", func() {
		ledgerBehaviour(func() ledger.Store {
			s, err := ledger.OpenSQLiteMemory()
			Expect(err).ToNot(HaveOccurred())
			DeferCleanup(s.Close)
			return s
		})
	})

	Describe("store failures", func() {
		var ctx context.Context

		BeforeEach(func() {
			ctx = context.Background()
		})

		It("should fail Open on a load error that is not corruption", func() {
			store := ledger.NewMemoryStore(nil)
			store.LoadErr = errors.New("disk on fire")

			l, err := ledger.Open(ctx, store)
			Expect(err).To(HaveOccurred())
			Expect(err).ToNot(MatchError(ledger.ErrCorrupt))
			Expect(l).To(BeNil())
		})

		It("should leave the id uncommitted when the save fails", func() {
			store := ledger.NewMemoryStore(nil)
			l, err := ledger.Open(ctx, store)
			Expect(err).ToNot(HaveOccurred())

			store.SaveErr = errors.New("read-only filesystem")
			Expect(l.Commit(ctx, "UC1")).ToNot(Succeed())
			Expect(l.Contains("UC1")).To(BeFalse())
			Expect(store.Saves()).To(Equal(0))
		})

		It("should keep previously committed ids when the document is seeded", func() {
			store := ledger.NewMemoryStore([]byte(`["id1","id2"]`))
			l, err := ledger.Open(ctx, store)
			Expect(err).ToNot(HaveOccurred())
			Expect(l.IDs()).To(Equal([]string{"id1", "id2"}))

			Expect(l.Commit(ctx, "test123")).To(Succeed())
			Expect(storedIDs(store.Document())).To(Equal([]string{"id1", "id2", "test123"}))
		})
	})

	Describe("FileStore", func() {
		It("should create the parent directory on first save", func() {
			path := filepath.Join(GinkgoT().TempDir(), "data", "nested", "ledger.json")
			store := ledger.NewFileStore(path)
			Expect(store.Save(context.Background(), []byte(`[]`))).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal("[]"))
		})

		It("should leave no temporary files behind", func() {
			dir := GinkgoT().TempDir()
			store := ledger.NewFileStore(filepath.Join(dir, "ledger.json"))
			Expect(store.Save(context.Background(), []byte(`["a"]`))).To(Succeed())
			Expect(store.Save(context.Background(), []byte(`["a","b"]`))).To(Succeed())

			entries, err := os.ReadDir(dir)
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})

		It("should default to processed_records.json", func() {
			Expect(ledger.NewFileStore("").Path()).To(Equal(ledger.DefaultFileName))
		})
	})

	Describe("SQLiteStore", func() {
		It("should persist across reopen of a database file", func() {
			ctx := context.Background()
			path := filepath.Join(GinkgoT().TempDir(), "db", "ledger.db")

			store, err := ledger.OpenSQLite(path)
			Expect(err).ToNot(HaveOccurred())
			l, err := ledger.Open(ctx, store)
			Expect(err).ToNot(HaveOccurred())
			Expect(l.Commit(ctx, "UC1")).To(Succeed())
			Expect(store.Close()).To(Succeed())

			store, err = ledger.OpenSQLite(path)
			Expect(err).ToNot(HaveOccurred())
			defer store.Close()
			l, err = ledger.Open(ctx, store)
			Expect(err).ToNot(HaveOccurred())
			Expect(l.Contains("UC1")).To(BeTrue())
		})

		It("should keep named documents apart", func() {
			ctx := context.Background()
			store, err := ledger.OpenSQLiteMemory()
			Expect(err).ToNot(HaveOccurred())
			defer store.Close()

			other := store.WithName("other_inventory")
			Expect(store.Save(ctx, []byte(`["a"]`))).To(Succeed())
			_, err = other.Load(ctx)
			Expect(err).To(MatchError(ledger.ErrNotFound))
		})
	})
})
