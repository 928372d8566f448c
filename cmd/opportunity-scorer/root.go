package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	opportunityscorer "github.com/JohnPlummer/opportunity-scorer"
	"github.com/JohnPlummer/opportunity-scorer/ledger"
)

const app = opportunityscorer.Name

// cli carries state shared by the subcommands of one invocation
type cli struct {
	v       *viper.Viper
	cfgFile string
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	setDefaults(c.v)

	rootCmd := &cobra.Command{
		Use:           app,
		Short:         "Score an AI use-case inventory against a five-dimension opportunity rubric",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "a config file (default is "+app+".yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("ledger", "", "ledger location (default "+ledger.DefaultFileName+", or "+defaultSQLitePath+" for sqlite)")
	rootCmd.PersistentFlags().String("ledger-backend", backendFile, "ledger backend: file or sqlite")

	c.v.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	c.v.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	c.v.BindPFlag("env-file", rootCmd.PersistentFlags().Lookup("env-file"))
	c.v.BindPFlag("ledger.path", rootCmd.PersistentFlags().Lookup("ledger"))
	c.v.BindPFlag("ledger.backend", rootCmd.PersistentFlags().Lookup("ledger-backend"))

	rootCmd.AddCommand(
		newRunCmd(c),
		newListCmd(c),
		newLedgerCmd(c),
		newVersionCmd(),
	)
	return rootCmd
}

// init loads .env, the config file and the logger. It runs before every
// subcommand.
func (c *cli) init(cmd *cobra.Command) error {
	c.logger = newLogger(cmd.ErrOrStderr(), c.v.GetBool("json"), c.v.GetBool("debug"))
	slog.SetDefault(c.logger)

	if envFile := c.v.GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := c.v.BindEnv("ai.openai-api-key", "OPENAI_API_KEY"); err != nil {
		return fmt.Errorf("binding OPENAI_API_KEY environment variable: %w", err)
	}
	if err := c.v.BindEnv("ai.gemini-api-key", "GEMINI_API_KEY"); err != nil {
		return fmt.Errorf("binding GEMINI_API_KEY environment variable: %w", err)
	}

	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		c.v.AddConfigPath(".")
		c.v.SetConfigName(app)
		c.v.SetConfigType("yaml")
	}

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Only an explicitly requested config file is mandatory
		if c.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	} else {
		c.logger.Debug("Config file loaded", "path", c.v.ConfigFileUsed())
	}

	return nil
}
