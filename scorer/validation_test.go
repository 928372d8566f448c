package scorer_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/JohnPlummer/opportunity-scorer/scorer"
)

var _ = Describe("Validation", func() {
	Describe("ValidateContent", func() {
		var opts scorer.ValidationOptions

		BeforeEach(func() {
			opts = scorer.DefaultValidationOptions()
		})

		It("should accept ordinary content", func() {
			result := scorer.ValidateContent("Modernize the claims intake system", opts)
			Expect(result.Valid).To(BeTrue())
			Expect(result.Issues).To(BeEmpty())
		})

		It("should reject empty content", func() {
			result := scorer.ValidateContent("", opts)
			Expect(result.Valid).To(BeFalse())
			Expect(result.Issues).To(ConsistOf("content is empty"))
		})

		It("should allow empty content when configured", func() {
			opts.AllowEmpty = true
			Expect(scorer.ValidateContent("", opts).Valid).To(BeTrue())
		})

		It("should reject whitespace-only content", func() {
			result := scorer.ValidateContent(" \n\t ", opts)
			Expect(result.Valid).To(BeFalse())
			Expect(result.Issues).To(ContainElement("content contains only whitespace"))
		})

		It("should reject content over the maximum length", func() {
			opts.MaxLength = 10
			result := scorer.ValidateContent(strings.Repeat("a", 11), opts)
			Expect(result.Valid).To(BeFalse())
			Expect(result.Issues[0]).To(ContainSubstring("content too long (11 chars, maximum 10)"))
		})

		It("should count characters, not bytes", func() {
			opts.MaxLength = 5
			Expect(scorer.ValidateContent("héllo", opts).Valid).To(BeTrue())
		})

		It("should not bound the length by default", func() {
			Expect(opts.MaxLength).To(BeZero())
			Expect(scorer.ValidateContent(strings.Repeat("a", 10001), opts).Valid).To(BeTrue())
		})

		It("should treat a zero maximum as unlimited", func() {
			opts.MaxLength = 0
			Expect(scorer.ValidateContent(strings.Repeat("a", 50000), opts).Valid).To(BeTrue())
		})

		It("should measure trimmed content", func() {
			opts.MinLength = 5
			Expect(scorer.ValidateContent("  abc  ", opts).Valid).To(BeFalse())

			opts.TrimWhitespace = false
			Expect(scorer.ValidateContent("  abc  ", opts).Valid).To(BeTrue())
		})
	})

	Describe("ValidateDescription", func() {
		opts := scorer.DefaultValidationOptions()

		It("should accept a normal description", func() {
			Expect(scorer.ValidateDescription("Data platform work", opts)).To(Succeed())
		})

		DescribeTable("rejections",
			func(description string, o scorer.ValidationOptions, want error) {
				err := scorer.ValidateDescription(description, o)
				Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
			},
			Entry("empty", "", opts, scorer.ErrEmptyInput),
			Entry("whitespace", "   ", opts, scorer.ErrContentWhitespace),
			Entry("too long", strings.Repeat("x", 11), scorer.ValidationOptions{MaxLength: 10, MinLength: 1, TrimWhitespace: true}, scorer.ErrContentTooLong),
			Entry("too short", "ab", scorer.ValidationOptions{MinLength: 3, TrimWhitespace: true}, scorer.ErrContentTooShort),
		)
	})
})
