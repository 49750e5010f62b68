package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/modelshop/weightwatch/internal/cache"
	"github.com/modelshop/weightwatch/internal/export"
	"github.com/modelshop/weightwatch/internal/github"
	"github.com/modelshop/weightwatch/internal/history"
	"github.com/modelshop/weightwatch/internal/recon"
	"github.com/spf13/cobra"
)

var (
	runMinStars   int
	runMaxResults int
	runYear       string
	runWindowDays int
	runJSONOut    string
	runCSVOut     string
	runMDOut      string
	runArchive    bool
)

func init() {
	runCmd.Flags().IntVarP(&runMinStars, "min-stars", "s", 0, "Minimum stars filter (default: from config)")
	runCmd.Flags().IntVarP(&runMaxResults, "max-results", "n", 0, "Max results per query per pass (default: from config)")
	runCmd.Flags().StringVarP(&runYear, "year", "y", "", "Only repos created on or after this year (default: from config)")
	runCmd.Flags().IntVar(&runWindowDays, "window", 7, "Fresh-release window in days")
	runCmd.Flags().StringVarP(&runJSONOut, "output", "o", "", "Export results to a JSON file")
	runCmd.Flags().StringVar(&runCSVOut, "csv", "", "Export results to a CSV file")
	runCmd.Flags().StringVar(&runMDOut, "md", "", "Export results to a Markdown file")
	runCmd.Flags().BoolVar(&runArchive, "archive", false, "Create dated archive copies of export files")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search GitHub, reconcile against history, and persist the result",
	Long: `Run one tracking pass: search GitHub with every configured query (two
sort passes each), reconcile the merged candidate set against the
history file, auto-enqueue reproduction candidates, and write
everything back atomically.

An interrupt between repositories is safe: everything reconciled so
far is still committed.

Examples:
  ww run
  ww run -s 50 -y 2024 -o results/latest.json --md results/latest.md
  ww run --history data/history.jsonl --archive -o results/latest.json`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	if runMinStars > 0 {
		cfg.Search.MinStars = runMinStars
	}
	if runMaxResults > 0 {
		cfg.Search.MaxPerQuery = runMaxResults
	}
	if runYear != "" {
		cfg.Search.YearFilter = runYear
	}

	tables, err := cfg.Tables()
	if err != nil {
		exitWithError(ExitConfigError, "compiling pattern tables: %v", err)
	}

	records := mustLoadHistory()
	q := mustLoadQueue()

	client := github.NewClient(
		github.WithToken(cfg.GitHub.Token),
		github.WithRateLimit(cfg.Search.RequestsPerSecond),
		github.WithRateLimitBuffer(cfg.Search.RateLimitBuffer),
		github.WithRetry(cfg.Search.MaxRetries, time.Second),
	)

	// The cache is an optimization: if it cannot be opened the run
	// proceeds without one.
	cachePath := cfg.Cache.Path
	if cachePath == "" {
		cachePath = filepath.Join(filepath.Dir(historyPath), "readme_cache.db")
	}
	readmeCache, err := cache.Open(cachePath)
	if err != nil {
		logf("warning: readme cache unavailable: %v", err)
		readmeCache = nil
	}
	defer readmeCache.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	createdAfter := ""
	if cfg.Search.YearFilter != "" {
		createdAfter = cfg.Search.YearFilter + "-01-01"
	}

	logf("searching %d queries (min stars %d)...", len(cfg.Search.Queries), cfg.Search.MinStars)
	hits, degraded, err := client.SearchAll(ctx, github.SearchSpec{
		Queries:      cfg.Search.Queries,
		MinStars:     cfg.Search.MinStars,
		MaxPerQuery:  cfg.Search.MaxPerQuery,
		CreatedAfter: createdAfter,
	}, cfg.Filter())
	if err != nil {
		return fmt.Errorf("search aborted: %w", err)
	}
	for _, d := range degraded {
		logf("degraded query: %s", d)
	}
	logf("%d candidates after merge and relevance filter", len(hits))

	run := recon.NewRun(records, tables, client)
	run.Cache = readmeCache
	run.CacheTTL = time.Duration(cfg.Cache.TTLDays) * 24 * time.Hour
	run.Window = time.Duration(runWindowDays) * 24 * time.Hour
	run.Quiet = quiet

	res, runErr := run.Reconcile(ctx, hits)
	if runErr != nil {
		logf("run interrupted; committing %d records reconciled so far", len(res.Records))
	}
	for _, d := range res.Degraded {
		logf("skipped: %s", d)
	}

	// Commit: the successful subset persists even when parts of the run
	// degraded or an interrupt arrived.
	now := time.Now()
	if err := history.Save(historyPath, res.Records); err != nil {
		exitWithError(ExitDataError, "saving history: %v", err)
	}
	added := q.AutoEnqueue(res.Records, now)
	if err := q.Save(resolveQueuePath()); err != nil {
		exitWithError(ExitDataError, "saving queue: %v", err)
	}
	for _, name := range added {
		logf("queued for reproduction: %s", name)
	}

	printSummary(res)

	if runJSONOut != "" {
		if err := export.WriteJSON(runJSONOut, res, now); err != nil {
			return err
		}
		logf("exported %s", runJSONOut)
	}
	if runCSVOut != "" {
		if err := export.WriteCSV(runCSVOut, res); err != nil {
			return err
		}
		logf("exported %s", runCSVOut)
	}
	if runMDOut != "" {
		if err := export.WriteMarkdown(runMDOut, res, now); err != nil {
			return err
		}
		logf("exported %s", runMDOut)
	}
	if runArchive {
		archived, err := export.Archive([]string{runJSONOut, runCSVOut, runMDOut}, now)
		if err != nil {
			return err
		}
		for _, path := range archived {
			logf("archived %s", path)
		}
	}

	return nil
}

func printSummary(res *recon.Result) {
	s := res.Summary
	fmt.Printf("Total: %d repos tracked\n", s.Total)
	fmt.Printf("  - with weights:     %d\n", s.Available)
	fmt.Printf("  - promised:         %d\n", s.Promised)
	fmt.Printf("  - no signal:        %d\n", s.NoSignal)
	fmt.Printf("  - fresh releases:   %d\n", s.FreshReleases)
	fmt.Printf("  - new this run:     %d\n", s.NewThisRun)

	if len(res.FreshReleases) > 0 {
		fmt.Println("\nFresh releases:")
		for _, rec := range res.FreshReleases {
			fmt.Printf("  %-35s %6d stars  %s\n", rec.FullName, rec.Stars, rec.URL)
		}
	}
}
