package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelshop/weightwatch/internal/recon"
	"github.com/modelshop/weightwatch/internal/track"
)

// watchlistLimit caps the watchlist table; beyond this the report stops
// being readable.
const watchlistLimit = 20

// WriteMarkdown exports the result as a Markdown report with the fresh
// releases highlighted first, then the watchlist, then every repository
// with published weights.
func WriteMarkdown(path string, res *recon.Result, now time.Time) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Weight Watch Results\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format("2006-01-02"))

	s := res.Summary
	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "- **Total repos tracked:** %d\n", s.Total)
	fmt.Fprintf(&b, "- **With weights:** %d\n", s.Available)
	fmt.Fprintf(&b, "- **Promised (watchlist):** %d\n", s.Promised)
	fmt.Fprintf(&b, "- **Fresh releases:** %d\n", s.FreshReleases)
	fmt.Fprintf(&b, "- **New this run:** %d\n\n", s.NewThisRun)

	if len(res.FreshReleases) > 0 {
		fmt.Fprintf(&b, "## Fresh Releases\n\n")
		fmt.Fprintf(&b, "Repos whose weights were just released:\n\n")
		fmt.Fprintf(&b, "| Repo | Stars | Previous | Venue | URL |\n")
		fmt.Fprintf(&b, "|------|-------|----------|-------|-----|\n")
		for _, rec := range res.FreshReleases {
			prev := "new"
			if p, ok := rec.PreviousStatus(); ok {
				prev = string(p)
			}
			fmt.Fprintf(&b, "| %s | %d | %s | %s | [Link](%s) |\n",
				rec.Name, rec.Stars, prev, venueLabel(rec), rec.URL)
		}
		b.WriteString("\n")
	}

	if len(res.Watchlist) > 0 {
		fmt.Fprintf(&b, "## Watchlist (Promised)\n\n")
		fmt.Fprintf(&b, "Repos that have promised weights but not yet released:\n\n")
		fmt.Fprintf(&b, "| Repo | Stars | Venue | Promise | URL |\n")
		fmt.Fprintf(&b, "|------|-------|-------|---------|-----|\n")
		watchlist := res.Watchlist
		if len(watchlist) > watchlistLimit {
			watchlist = watchlist[:watchlistLimit]
		}
		for _, rec := range watchlist {
			promise := rec.PromiseSnippet
			if promise == "" {
				promise = "-"
			}
			fmt.Fprintf(&b, "| %s | %d | %s | %s | [Link](%s) |\n",
				rec.Name, rec.Stars, venueLabel(rec), promise, rec.URL)
		}
		b.WriteString("\n")
	}

	available := availableRecords(res)
	if len(available) > 0 {
		fmt.Fprintf(&b, "## All Repos with Weights\n\n")
		fmt.Fprintf(&b, "| Repo | Stars | Source | Venue | arXiv | URL |\n")
		fmt.Fprintf(&b, "|------|-------|--------|-------|-------|-----|\n")
		for _, rec := range available {
			arxiv := "-"
			if rec.PreprintID != "" {
				arxiv = fmt.Sprintf("[%s](https://arxiv.org/abs/%s)", rec.PreprintID, rec.PreprintID)
			}
			marker := ""
			if rec.FreshRelease(now, track.FreshReleaseWindow) {
				marker = " **NEW**"
			}
			fmt.Fprintf(&b, "| %s%s | %d | %s | %s | %s | [Link](%s) |\n",
				rec.Name, marker, rec.Stars, rec.WeightSource, venueLabel(rec), arxiv, rec.URL)
		}
		b.WriteString("\n")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	return nil
}

// venueLabel formats a venue as CVPR'24 when the year is known.
func venueLabel(rec *track.Record) string {
	if rec.Venue == "" {
		return "-"
	}
	if len(rec.VenueYear) == 4 {
		return fmt.Sprintf("%s'%s", rec.Venue, rec.VenueYear[2:])
	}
	return rec.Venue
}

func availableRecords(res *recon.Result) []*track.Record {
	var out []*track.Record
	for _, rec := range sortedRecords(res.Records) {
		if rec.Status == track.StatusAvailable {
			out = append(out, rec)
		}
	}
	return out
}
