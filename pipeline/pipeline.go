// Package pipeline drives one incremental scoring run over an inventory.
//
// Each row moves through parse, content validation, ledger check, scoring,
// result write and ledger commit, in that order. A failure at any step
// abandons that row only; the run continues with the next one. Only failures
// of the inventory source itself end the run early.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JohnPlummer/opportunity-scorer/inventory"
	"github.com/JohnPlummer/opportunity-scorer/scorer"
)

// Source yields inventory rows. *inventory.Reader satisfies it.
type Source interface {
	Open() (*inventory.Rows, error)
	Columns() inventory.Columns
}

// Ledger is the processed-id set. *ledger.Ledger satisfies it.
type Ledger interface {
	Contains(id string) bool
	Commit(ctx context.Context, id string) error
}

// ResultWriter persists one scorecard per record id. *results.Store
// satisfies it.
type ResultWriter interface {
	Write(id string, card *scorer.Scorecard) (string, error)
}

// Pipeline runs records from a Source through a Scorer into a ResultWriter,
// recording each success in a Ledger
type Pipeline struct {
	source     Source
	ledger     Ledger
	scorer     scorer.Scorer
	results    ResultWriter
	logger     *slog.Logger
	validation scorer.ValidationOptions
	observer   func(RecordResult)
	metrics    *Metrics
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger used for per-record and summary lines
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithValidation sets the description checks applied before scoring
func WithValidation(opts scorer.ValidationOptions) Option {
	return func(p *Pipeline) { p.validation = opts }
}

// WithObserver registers fn to receive every record outcome
func WithObserver(fn func(RecordResult)) Option {
	return func(p *Pipeline) { p.observer = fn }
}

// WithMetrics records outcomes on m
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a Pipeline
func New(source Source, ledger Ledger, s scorer.Scorer, results ResultWriter, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:     source,
		ledger:     ledger,
		scorer:     s,
		results:    results,
		logger:     slog.Default(),
		validation: scorer.DefaultValidationOptions(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes every row once. The returned Summary is valid even when
// Run fails part way. The error is non-nil only when the source could not be
// read or ctx was cancelled; per-record failures are reported through the
// Summary.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	start := time.Now()

	rows, err := p.source.Open()
	if err != nil {
		p.logger.Error("Cannot open inventory", "error", err)
		return sum, err
	}
	defer rows.Close()

	cols := p.source.Columns()
	p.logger.Info("Run started", "columns", len(rows.Header()))

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("Run cancelled", "summary", sum)
			return sum, err
		}

		res := p.process(ctx, rows.Row(), cols)
		sum.add(res.Outcome)
		p.metrics.recordOutcome(res)
		if p.observer != nil {
			p.observer(res)
		}
	}

	if err := rows.Err(); err != nil {
		err = fmt.Errorf("%w: %w", inventory.ErrSourceUnavailable, err)
		p.logger.Error("Inventory read failed", "error", err, "summary", sum)
		return sum, err
	}

	p.logger.Info("Run complete",
		"total", sum.Total,
		"processed", sum.Processed,
		"skipped_duplicate", sum.SkippedDuplicate,
		"skipped_invalid", sum.SkippedInvalid,
		"failed", sum.Failed,
		"duration", time.Since(start).Round(time.Millisecond))
	return sum, nil
}

// process moves one row through the state machine. It never returns an error;
// the outcome and cause are carried in the result.
func (p *Pipeline) process(ctx context.Context, row inventory.Row, cols inventory.Columns) RecordResult {
	res := RecordResult{Line: row.Line}

	rec, err := inventory.ParseRecord(row, cols)
	res.ID = rec.ID
	if err != nil {
		return p.skipInvalid(res, err)
	}

	description := rec.Description()
	if err := scorer.ValidateDescription(description, p.validation); err != nil {
		return p.skipInvalid(res, err)
	}

	if p.ledger.Contains(rec.ID) {
		p.logger.Debug("Already processed, skipping", "id", rec.ID, "line", row.Line)
		res.Outcome = OutcomeSkippedDuplicate
		return res
	}

	p.logger.Info("Scoring record", "id", rec.ID, "line", row.Line)
	started := time.Now()
	card, err := p.scorer.Evaluate(ctx, description)
	res.Duration = time.Since(started)
	if err != nil {
		attrs := []any{"id", rec.ID, "line", row.Line, "error", err}
		if raw := scorer.RawResponse(err); raw != "" {
			attrs = append(attrs, "raw_response", raw)
		}
		p.logger.Error("Scoring failed, abandoning record", attrs...)
		return p.abandon(res, StageScore, err)
	}
	res.Scorecard = card

	path, err := p.results.Write(rec.ID, card)
	if err != nil {
		p.logger.Error("Persisting result failed, abandoning record", "id", rec.ID, "error", err)
		return p.abandon(res, StagePersist, err)
	}
	res.Path = path

	if err := p.ledger.Commit(ctx, rec.ID); err != nil {
		// The result file stays; the record is scored again next run and
		// the file overwritten.
		p.logger.Error("Ledger commit failed", "id", rec.ID, "path", path, "error", err)
		return p.abandon(res, StageCommit, err)
	}

	p.logger.Info("Record processed",
		"id", rec.ID,
		"average_score", card.AverageScore(),
		"path", path,
		"total_tokens", card.Usage.TotalTokens)
	res.Outcome = OutcomeProcessed
	return res
}

func (p *Pipeline) skipInvalid(res RecordResult, err error) RecordResult {
	attrs := []any{"line", res.Line, "error", err}
	if res.ID != "" {
		attrs = append(attrs, "id", res.ID)
	}
	p.logger.Warn("Skipping invalid record", attrs...)
	res.Outcome = OutcomeSkippedInvalid
	res.Err = err
	return res
}

func (p *Pipeline) abandon(res RecordResult, stage Stage, err error) RecordResult {
	res.Outcome = OutcomeFailed
	res.Stage = stage
	res.Err = err
	return res
}

// IsFatal reports whether err from Run came from the source rather than from
// cancellation
func IsFatal(err error) bool {
	return errors.Is(err, inventory.ErrSourceUnavailable)
}
