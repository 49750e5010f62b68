// Package export renders reconciliation output as JSON, CSV, and
// Markdown reports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/modelshop/weightwatch/internal/recon"
	"github.com/modelshop/weightwatch/internal/track"
)

// sortedRecords returns the record set sorted by stars descending with
// full name as tie-break.
func sortedRecords(records map[string]*track.Record) []*track.Record {
	out := make([]*track.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stars != out[j].Stars {
			return out[i].Stars > out[j].Stars
		}
		return out[i].FullName < out[j].FullName
	})
	return out
}

// jsonReport is the JSON export envelope.
type jsonReport struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Summary     recon.Summary   `json:"summary"`
	Repos       []*track.Record `json:"repos"`
}

// WriteJSON exports the full result as indented JSON.
func WriteJSON(path string, res *recon.Result, now time.Time) error {
	report := jsonReport{
		GeneratedAt: now,
		Summary:     res.Summary,
		Repos:       sortedRecords(res.Records),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// WriteCSV exports all records as CSV.
func WriteCSV(path string, res *recon.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"full_name", "stars", "status", "weight_source", "venue", "venue_year",
		"preprint_id", "first_seen", "last_checked", "status_changed_at", "url", "description",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, rec := range sortedRecords(res.Records) {
		row := []string{
			rec.FullName,
			fmt.Sprintf("%d", rec.Stars),
			string(rec.Status),
			string(rec.WeightSource),
			rec.Venue,
			rec.VenueYear,
			rec.PreprintID,
			rec.FirstSeen.Format("2006-01-02"),
			rec.LastChecked.Format("2006-01-02"),
			rec.StatusChangedAt.Format("2006-01-02"),
			rec.URL,
			rec.Description,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", rec.FullName, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// Archive copies the given output files to dated siblings
// (tracker_YYYYMMDD.ext). Missing sources are skipped. Returns the
// archive paths created.
func Archive(paths []string, now time.Time) ([]string, error) {
	suffix := now.Format("20060102")
	var archived []string

	for _, path := range paths {
		if path == "" {
			continue
		}
		src, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return archived, fmt.Errorf("opening %s: %w", path, err)
		}

		dstPath := filepath.Join(filepath.Dir(path), fmt.Sprintf("tracker_%s%s", suffix, filepath.Ext(path)))
		dst, err := os.Create(dstPath)
		if err != nil {
			src.Close()
			return archived, fmt.Errorf("creating %s: %w", dstPath, err)
		}

		_, err = io.Copy(dst, src)
		src.Close()
		if closeErr := dst.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return archived, fmt.Errorf("copying to %s: %w", dstPath, err)
		}
		archived = append(archived, dstPath)
	}

	return archived, nil
}
