package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	opportunityscorer "github.com/JohnPlummer/opportunity-scorer"
	"github.com/JohnPlummer/opportunity-scorer/inventory"
	"github.com/JohnPlummer/opportunity-scorer/ledger"
	"github.com/JohnPlummer/opportunity-scorer/pipeline"
	"github.com/JohnPlummer/opportunity-scorer/results"
	"github.com/JohnPlummer/opportunity-scorer/scorer"
)

var errAbandoned = errors.New("some records were abandoned")

// newScorer builds the scorer for a run; tests replace it with a fake
var newScorer = func(ctx context.Context, cfg scorer.Config) (scorer.Scorer, error) {
	return scorer.New(ctx, cfg)
}

func newRunCmd(c *cli) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Score every new record of the inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := getConfig(c.v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), c.logger, config)
		},
	}

	flags := runCmd.Flags()
	flags.StringP("input", "i", defaultInput, "inventory CSV file")
	flags.StringP("output-dir", "o", results.DefaultDir, "directory for per-record result documents")
	flags.String("on-corrupt-ledger", corruptReset, "when the ledger is unreadable: reset (start empty) or abort")
	flags.String("provider", string(scorer.ProviderOpenAI), "model provider: openai or gemini")
	flags.String("model", "", "model name (default depends on provider)")
	flags.String("base-url", "", "OpenAI-compatible endpoint")
	flags.Bool("circuit-breaker", false, "stop calling the provider after repeated failures")
	flags.String("metrics-file", "", "write Prometheus metrics to this file after the run")
	flags.Bool("fail-on-abandoned", false, "exit non-zero when any record was abandoned")

	for key, flag := range map[string]string{
		"input":              "input",
		"output-dir":         "output-dir",
		"ledger.on-corrupt":  "on-corrupt-ledger",
		"ai.provider":        "provider",
		"ai.model":           "model",
		"ai.base-url":        "base-url",
		"ai.circuit-breaker": "circuit-breaker",
		"metrics-file":       "metrics-file",
		"fail-on-abandoned":  "fail-on-abandoned",
	} {
		c.v.BindPFlag(key, flags.Lookup(flag))
	}

	return runCmd
}

// run executes one incremental pass over the inventory
func run(ctx context.Context, out io.Writer, logger *slog.Logger, config *Config) error {
	logger.Info("Starting", "name", app, "version", opportunityscorer.Version,
		"input", config.Input, "output_dir", config.OutputDir)
	logCSVFiles(logger, filepath.Dir(config.Input))

	store, closeStore, err := openLedgerStore(config)
	if err != nil {
		return err
	}
	defer closeStore()

	l, err := ledger.Open(ctx, store)
	if err != nil {
		if !errors.Is(err, ledger.ErrCorrupt) || config.Ledger.OnCorrupt == corruptAbort {
			return fmt.Errorf("open ledger: %w", err)
		}
		logger.Error("Ledger is corrupt, continuing with an empty ledger; every record will be scored again",
			"path", config.ledgerPath(), "error", err)
	}
	logger.Info("Ledger loaded", "backend", config.Ledger.Backend, "committed", l.Len())

	reg := prometheus.NewRegistry()
	pipeline.LedgerGauge(reg, l.Len)

	scorerConfig, err := buildScorerConfig(config, scorer.NewMetricsRecorder(reg))
	if err != nil {
		return err
	}
	s, err := newScorer(ctx, scorerConfig)
	if err != nil {
		return fmt.Errorf("create scorer: %w", err)
	}

	p := pipeline.New(
		inventory.NewReader(config.Input, config.columns()),
		l,
		s,
		results.New(config.OutputDir),
		pipeline.WithLogger(logger),
		pipeline.WithValidation(config.validation()),
		pipeline.WithMetrics(pipeline.NewMetrics(reg)),
	)

	summary, runErr := p.Run(ctx)

	if config.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(config.MetricsFile, reg); err != nil {
			logger.Error("Writing metrics failed", "path", config.MetricsFile, "error", err)
		}
	}

	fmt.Fprintf(out, "total=%d processed=%d skipped_duplicate=%d skipped_invalid=%d failed=%d\n",
		summary.Total, summary.Processed, summary.SkippedDuplicate, summary.SkippedInvalid, summary.Failed)

	if runErr != nil {
		return runErr
	}
	if config.FailOnAbandoned && summary.Failed > 0 {
		return fmt.Errorf("%w: %d", errAbandoned, summary.Failed)
	}
	return nil
}

func openLedgerStore(config *Config) (ledger.Store, func(), error) {
	path := config.ledgerPath()
	if config.Ledger.Backend == backendSQLite {
		store, err := ledger.OpenSQLite(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		return store, func() { store.Close() }, nil
	}
	return ledger.NewFileStore(path), func() {}, nil
}

func buildScorerConfig(config *Config, metrics *scorer.MetricsRecorder) (scorer.Config, error) {
	cfg := scorer.Config{
		Provider: scorer.Provider(config.AI.Provider),
		APIKey:   config.apiKey(),
		Model:    config.AI.Model,
		BaseURL:  config.AI.BaseURL,
		Timeout:  config.AI.Timeout,
		Metrics:  metrics,
	}
	if config.AI.CircuitBreaker {
		cfg = cfg.WithCircuitBreaker()
	}

	if config.AI.PromptFile != "" {
		prompt, err := os.ReadFile(config.AI.PromptFile)
		if err != nil {
			return cfg, fmt.Errorf("read prompt file: %w", err)
		}
		cfg = cfg.WithSystemPrompt(string(prompt))
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, scorer.ErrMissingAPIKey) {
			return cfg, fmt.Errorf("%w: set OPENAI_API_KEY or GEMINI_API_KEY for the chosen provider", err)
		}
		return cfg, err
	}
	return cfg, nil
}

func logCSVFiles(logger *slog.Logger, dir string) {
	files, err := inventory.ListCSVFiles(dir)
	if err != nil {
		logger.Warn("Listing CSV files failed", "dir", dir, "error", err)
		return
	}
	if len(files) == 0 {
		logger.Warn("No CSV files found", "dir", dir)
		return
	}
	logger.Info("CSV files found", "dir", dir, "files", files)
}
