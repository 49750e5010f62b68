package main

import (
	"fmt"
	"os"
	"time"

	"github.com/modelshop/weightwatch/internal/detect"
	"github.com/modelshop/weightwatch/internal/github"
	"github.com/spf13/cobra"
)

var detectFile string

func init() {
	detectCmd.Flags().StringVarP(&detectFile, "file", "f", "", "Run detection on a local README file instead of fetching")
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect [owner/repo]",
	Short: "Run the detectors once and print what matched",
	Long: `Run the weight, promise, venue, and preprint detectors over one
repository's README (or a local file) and print the outcome. Useful
for debugging pattern tables.

Examples:
  ww detect swz30/Restormer
  ww detect --file README.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	tables, err := cfg.Tables()
	if err != nil {
		exitWithError(ExitConfigError, "compiling pattern tables: %v", err)
	}

	var text string
	switch {
	case detectFile != "":
		data, err := os.ReadFile(detectFile)
		if err != nil {
			exitWithError(ExitError, "reading %s: %v", detectFile, err)
		}
		text = string(data)
	case len(args) == 1:
		owner, repo, err := github.ParseRepoURL(args[0])
		if err != nil {
			exitWithError(ExitDataError, "%v: %s", err, args[0])
		}
		client := github.NewClient(
			github.WithToken(cfg.GitHub.Token),
			github.WithRateLimit(cfg.Search.RequestsPerSecond),
			github.WithRetry(cfg.Search.MaxRetries, time.Second),
		)
		text, err = client.GetReadme(cmd.Context(), owner, repo)
		if err != nil {
			exitWithError(ExitError, "fetching readme: %v", err)
		}
	default:
		exitWithError(ExitError, "need a repository argument or --file")
	}

	if w, ok := detect.DetectWeights(text, tables); ok {
		fmt.Printf("weights:  %s\n", w.Source)
		for _, e := range w.Evidence {
			fmt.Printf("          %s\n", e)
		}
	} else {
		fmt.Println("weights:  none")
		if p, ok := detect.DetectPromise(text, tables.Promises); ok {
			fmt.Printf("promise:  %s (%q)\n", p.Label, p.Snippet)
		} else {
			fmt.Println("promise:  none")
		}
	}

	if v, ok := detect.DetectVenue("", text, tables.Venues); ok {
		if v.Year != "" {
			fmt.Printf("venue:    %s %s\n", v.Venue, v.Year)
		} else {
			fmt.Printf("venue:    %s\n", v.Venue)
		}
	} else {
		fmt.Println("venue:    none")
	}

	if id, ok := detect.DetectPreprint(text, tables.Preprint); ok {
		fmt.Printf("preprint: %s\n", id)
	} else {
		fmt.Println("preprint: none")
	}

	return nil
}
