// Package main provides the ww CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/modelshop/weightwatch/internal/config"
	"github.com/modelshop/weightwatch/internal/history"
	"github.com/modelshop/weightwatch/internal/queue"
	"github.com/modelshop/weightwatch/internal/track"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// Persistent flags shared by every command.
var (
	quiet       bool
	configPath  string
	historyPath string
	queuePath   string
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ww",
	Short: "Tracker for paper implementations with pretrained weights",
	Long: `ww tracks GitHub repositories that implement low-level vision papers,
detects whether pretrained weights have been published, and maintains
durable state across runs so only genuine changes are reported.

Core features:
  - Two-pass GitHub search (stars + recency) with rate-limit handling
  - Pattern-table-driven detection of weights, release promises,
    publication venues, and arXiv identifiers
  - Delta reconciliation: fresh releases and watchlist transitions
  - Reproduction-candidate queue with auto-enqueue

State lives in git-versionable JSONL files; README fetches are cached
in ephemeral SQLite.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yml")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history", "data/history.jsonl", "Path to the history file")
	rootCmd.PersistentFlags().StringVar(&queuePath, "queue", "", "Path to the queue file (default: <history dir>/queue.jsonl)")
	rootCmd.Version = Version
}

// resolveQueuePath derives the queue file path from the history file
// when --queue is not given.
func resolveQueuePath() string {
	if queuePath != "" {
		return queuePath
	}
	return filepath.Join(filepath.Dir(historyPath), "queue.jsonl")
}

// mustLoadConfig loads configuration, exits on error. A malformed
// pattern table aborts here, before any persisted state is touched.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustLoadHistory loads the history file, exits on error.
func mustLoadHistory() map[string]*track.Record {
	records, err := history.Load(historyPath)
	if err != nil {
		exitWithError(ExitDataError, "loading history: %v", err)
	}
	return records
}

// mustLoadQueue loads the queue file, exits on error.
func mustLoadQueue() *queue.Queue {
	q, err := queue.Load(resolveQueuePath())
	if err != nil {
		exitWithError(ExitDataError, "loading queue: %v", err)
	}
	return q
}

// exitWithError prints an error to stderr and exits with the given code.
func exitWithError(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(code)
}

func logf(format string, args ...any) {
	if quiet {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
