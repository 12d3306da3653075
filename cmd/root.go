package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hmans/shelf/internal/config"
	"github.com/hmans/shelf/internal/graph"
	"github.com/hmans/shelf/internal/logging"
	"github.com/hmans/shelf/internal/store"
)

var (
	cfg      *config.Config
	logger   zerolog.Logger
	st       store.Store
	resolver *graph.Resolver

	configPath    string
	envFile       string
	storageDriver string
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "A GraphQL catalog of books and authors",
	Long: `Shelf keeps a catalog of books and their authors and serves it over GraphQL.

Data lives in an in-memory, SQLite, PostgreSQL or MongoDB store, selected in
shelf.yml or with SHELF_STORAGE_DRIVER.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, err = logging.New(cfg.Log, os.Stderr)
		if err != nil {
			return err
		}
		cmd.SetContext(logger.WithContext(cmd.Context()))

		// init only writes the config file
		if cmd.Name() == "init" {
			return nil
		}

		st, err = openStore(cmd.Context(), cfg.Storage, logger)
		if err != nil {
			return fmt.Errorf("opening %s store: %w", cfg.Storage.Driver, err)
		}
		resolver = &graph.Resolver{Store: st}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if st == nil {
			return nil
		}
		return st.Close()
	},
}

// loadConfig applies, in increasing precedence, defaults, the config file,
// the environment and command-line flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	c, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("storage") {
		c.Storage.Driver = storageDriver
	}
	if cmd.Flags().Changed("log-level") {
		c.Log.Level = logLevel
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.ConfigFile, "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file with SHELF_* variables")
	rootCmd.PersistentFlags().StringVar(&storageDriver, "storage", "", "Storage driver (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
