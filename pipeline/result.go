package pipeline

import (
	"log/slog"
	"time"

	"github.com/JohnPlummer/opportunity-scorer/scorer"
)

// Outcome is the terminal state of one record
type Outcome int

const (
	OutcomeProcessed        Outcome = iota // Scored, persisted and committed
	OutcomeSkippedDuplicate                // Already in the ledger
	OutcomeSkippedInvalid                  // Missing id, fields or usable content
	OutcomeFailed                          // Abandoned after a scoring, write or commit failure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProcessed:
		return "processed"
	case OutcomeSkippedDuplicate:
		return "skipped_duplicate"
	case OutcomeSkippedInvalid:
		return "skipped_invalid"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stage names the step at which a record was abandoned
type Stage string

const (
	StageScore   Stage = "score"
	StagePersist Stage = "persist"
	StageCommit  Stage = "commit"
)

// RecordResult describes what happened to one row
type RecordResult struct {
	Line      int               // 1-based data row number
	ID        string            // Record id, empty when missing
	Outcome   Outcome           // Terminal state
	Stage     Stage             // Failing step, set only for OutcomeFailed
	Err       error             // Cause of a skip or failure
	Scorecard *scorer.Scorecard // Set once scoring succeeded
	Path      string            // Result file, set once persisted
	Duration  time.Duration     // Time spent in the scorer
}

// Summary counts record outcomes for one run
type Summary struct {
	Total            int
	Processed        int
	SkippedDuplicate int
	SkippedInvalid   int
	Failed           int
}

// Skipped is the number of records skipped for any reason
func (s Summary) Skipped() int {
	return s.SkippedDuplicate + s.SkippedInvalid
}

func (s *Summary) add(o Outcome) {
	s.Total++
	switch o {
	case OutcomeProcessed:
		s.Processed++
	case OutcomeSkippedDuplicate:
		s.SkippedDuplicate++
	case OutcomeSkippedInvalid:
		s.SkippedInvalid++
	case OutcomeFailed:
		s.Failed++
	}
}

// LogValue implements slog.LogValuer
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("total", s.Total),
		slog.Int("processed", s.Processed),
		slog.Int("skipped_duplicate", s.SkippedDuplicate),
		slog.Int("skipped_invalid", s.SkippedInvalid),
		slog.Int("failed", s.Failed),
	)
}
