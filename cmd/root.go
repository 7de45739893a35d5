// Package cmd implements the casegen command line interface.
package cmd

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qaforge/casegen/internal/config"
	"github.com/qaforge/casegen/internal/log"
	"github.com/qaforge/casegen/internal/store"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "casegen",
	Short: "casegen generates structured QA test cases from API documentation",
	Long: `casegen is a RAG pipeline for QA teams: it embeds your existing test
cases into a vector index, retrieves the most similar ones for a piece of
API documentation, and asks a generative model to produce new structured
test cases in the same style. Large documentation is decomposed into a
plan of focused generation calls first.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit JSON logs")
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// newLogger builds the CLI logger from config plus flags.
func newLogger(cfg *config.Config) log.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return log.New(log.Config{Level: level, JSON: cfg.LogJSON || jsonLogs})
}

// openStore opens the flat-file test-case store from config.
func openStore(cfg *config.Config, logger log.Logger) *store.Store {
	return store.New(cfg.DataFile, logger)
}
