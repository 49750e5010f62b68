package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/modelshop/weightwatch/internal/track"
	"github.com/spf13/cobra"
)

var (
	listStatus string
	listFresh  bool
	listJSON   bool
)

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (no_signal|promised|available)")
	listCmd.Flags().BoolVar(&listFresh, "fresh", false, "Show only fresh releases (last 7 days)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output JSON instead of a table")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked repositories from the history file",
	Long: `List tracked repositories, sorted by stars.

Examples:
  ww list
  ww list --status promised
  ww list --fresh --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	var filter track.Status
	if listStatus != "" {
		parsed, err := track.ParseStatus(listStatus)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		filter = parsed
	}

	records := mustLoadHistory()
	now := time.Now()

	var out []*track.Record
	for _, rec := range records {
		if filter != "" && rec.Status != filter {
			continue
		}
		if listFresh && !rec.FreshRelease(now, track.FreshReleaseWindow) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stars != out[j].Stars {
			return out[i].Stars > out[j].Stars
		}
		return out[i].FullName < out[j].FullName
	})

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("%-35s %6s  %-10s %-9s %-10s %s\n", "Repo", "Stars", "Status", "Weights", "Venue", "Checked")
	for _, rec := range out {
		venue := rec.Venue
		if venue == "" {
			venue = "-"
		}
		weights := string(rec.WeightSource)
		if weights == "" {
			weights = "-"
		}
		marker := ""
		if rec.FreshRelease(now, track.FreshReleaseWindow) {
			marker = " [NEW]"
		}
		fmt.Printf("%-35s %6d  %-10s %-9s %-10s %s%s\n",
			rec.FullName, rec.Stars, rec.Status, weights, venue,
			rec.LastChecked.Format("2006-01-02"), marker)
	}
	fmt.Printf("%d repos\n", len(out))
	return nil
}
