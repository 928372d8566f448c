package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/JohnPlummer/opportunity-scorer/inventory"
	"github.com/JohnPlummer/opportunity-scorer/ledger"
	"github.com/JohnPlummer/opportunity-scorer/results"
	"github.com/JohnPlummer/opportunity-scorer/scorer"
)

const (
	defaultInput      = "use-case-inventory.csv"
	defaultSQLitePath = "processed_records.db"

	backendFile   = "file"
	backendSQLite = "sqlite"

	corruptReset = "reset"
	corruptAbort = "abort"
)

// Config is the run configuration assembled from the config file,
// environment and flags
type Config struct {
	Input           string        `mapstructure:"input"`
	OutputDir       string        `mapstructure:"output-dir"`
	MetricsFile     string        `mapstructure:"metrics-file"`
	FailOnAbandoned bool          `mapstructure:"fail-on-abandoned"`
	Columns         ColumnsConfig `mapstructure:"columns"`
	Ledger          LedgerConfig  `mapstructure:"ledger"`
	AI              AIConfig      `mapstructure:"ai"`
}

type ColumnsConfig struct {
	ID      string `mapstructure:"id"`
	Purpose string `mapstructure:"purpose"`
	Outputs string `mapstructure:"outputs"`
}

type LedgerConfig struct {
	Backend   string `mapstructure:"backend"`
	Path      string `mapstructure:"path"`
	OnCorrupt string `mapstructure:"on-corrupt"`
}

type AIConfig struct {
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	BaseURL          string        `mapstructure:"base-url"`
	PromptFile       string        `mapstructure:"prompt-file"`
	Timeout          time.Duration `mapstructure:"timeout"`
	CircuitBreaker   bool          `mapstructure:"circuit-breaker"`
	MaxContentLength int           `mapstructure:"max-content-length"`
	OpenAIAPIKey     string        `mapstructure:"openai-api-key"`
	GeminiAPIKey     string        `mapstructure:"gemini-api-key"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input", defaultInput)
	v.SetDefault("output-dir", results.DefaultDir)
	v.SetDefault("columns.id", inventory.DefaultIDColumn)
	v.SetDefault("columns.purpose", inventory.DefaultPurposeColumn)
	v.SetDefault("columns.outputs", inventory.DefaultOutputsColumn)
	v.SetDefault("ledger.backend", backendFile)
	v.SetDefault("ledger.on-corrupt", corruptReset)
	v.SetDefault("ai.provider", string(scorer.ProviderOpenAI))
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.max-content-length", 0)
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	switch c.Ledger.Backend {
	case backendFile, backendSQLite:
	default:
		return fmt.Errorf("unknown ledger backend %q (want %s or %s)", c.Ledger.Backend, backendFile, backendSQLite)
	}

	switch c.Ledger.OnCorrupt {
	case corruptReset, corruptAbort:
	default:
		return fmt.Errorf("unknown corrupt-ledger policy %q (want %s or %s)", c.Ledger.OnCorrupt, corruptReset, corruptAbort)
	}

	if c.Input == "" {
		return errors.New("input file is required")
	}
	if c.AI.MaxContentLength < 0 {
		return errors.New("max content length must not be negative")
	}
	return c.columns().Validate()
}

func (c *Config) columns() inventory.Columns {
	return inventory.Columns{ID: c.Columns.ID, Purpose: c.Columns.Purpose, Outputs: c.Columns.Outputs}
}

// ledgerPath returns the configured ledger location or the backend default
func (c *Config) ledgerPath() string {
	if c.Ledger.Path != "" {
		return c.Ledger.Path
	}
	if c.Ledger.Backend == backendSQLite {
		return defaultSQLitePath
	}
	return ledger.DefaultFileName
}

func (c *Config) apiKey() string {
	if scorer.Provider(c.AI.Provider) == scorer.ProviderGemini {
		return c.AI.GeminiAPIKey
	}
	return c.AI.OpenAIAPIKey
}

func (c *Config) validation() scorer.ValidationOptions {
	opts := scorer.DefaultValidationOptions()
	opts.MaxLength = c.AI.MaxContentLength
	return opts
}
