// Package recon implements the per-run reconciliation state machine.
//
// For every candidate surfaced by the search client it decides which
// detectors to invoke based on the prior record, computes the new record
// and transition, and accumulates the run's outputs. Records are
// processed independently; a failure on one repository never aborts the
// batch.
package recon

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/modelshop/weightwatch/internal/cache"
	"github.com/modelshop/weightwatch/internal/detect"
	"github.com/modelshop/weightwatch/internal/github"
	"github.com/modelshop/weightwatch/internal/track"
)

// ReadmeFetcher fetches a repository's README text.
type ReadmeFetcher interface {
	GetReadme(ctx context.Context, owner, repo string) (string, error)
}

// Run carries everything one reconciliation pass needs. It is built
// once per run and passed explicitly; there are no package singletons.
type Run struct {
	Tables   *detect.Tables
	Fetcher  ReadmeFetcher
	Cache    *cache.Cache
	CacheTTL time.Duration
	Window   time.Duration
	Now      func() time.Time
	Quiet    bool

	records map[string]*track.Record
}

// NewRun prepares a reconciliation pass over the prior record set. The
// map is owned by the run until Reconcile returns; prior records absent
// from the candidate set carry over untouched.
func NewRun(prior map[string]*track.Record, tables *detect.Tables, fetcher ReadmeFetcher) *Run {
	if prior == nil {
		prior = make(map[string]*track.Record)
	}
	return &Run{
		Tables:  tables,
		Fetcher: fetcher,
		Window:  track.FreshReleaseWindow,
		Now:     time.Now,
		records: prior,
	}
}

// Result is the output of one reconciliation pass.
type Result struct {
	Records       map[string]*track.Record
	NewThisRun    []string
	FreshReleases []*track.Record
	Watchlist     []*track.Record
	Degraded      []string
	Summary       Summary
}

// Summary holds the run's aggregate counts.
type Summary struct {
	Total          int            `json:"total"`
	Available      int            `json:"available"`
	Promised       int            `json:"promised"`
	NoSignal       int            `json:"no_signal"`
	FreshReleases  int            `json:"fresh_releases"`
	NewThisRun     int            `json:"new_this_run"`
	ByWeightSource map[string]int `json:"by_weight_source,omitempty"`
	ByVenue        map[string]int `json:"by_venue,omitempty"`
}

// Reconcile processes the merged candidate set. A cancelled context
// stops between repositories; everything reconciled so far is still in
// the result and can be committed.
func (r *Run) Reconcile(ctx context.Context, hits []github.Hit) (*Result, error) {
	var (
		newThisRun []string
		degraded   []string
		runErr     error
	)

	for _, hit := range hits {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		isNew, err := r.reconcileOne(ctx, hit)
		if err != nil {
			if ctx.Err() != nil {
				runErr = ctx.Err()
				break
			}
			// Exhausted retries on this repository: skip it, leave its
			// record untouched, keep going.
			degraded = append(degraded, fmt.Sprintf("%s: %v", hit.FullName, err))
			continue
		}
		if isNew {
			newThisRun = append(newThisRun, hit.FullName)
		}
	}

	res := &Result{
		Records:    r.records,
		NewThisRun: newThisRun,
		Degraded:   degraded,
	}
	r.collect(res)
	return res, runErr
}

// reconcileOne applies the state machine to a single candidate.
func (r *Run) reconcileOne(ctx context.Context, hit github.Hit) (isNew bool, err error) {
	now := r.Now()
	existing := r.records[hit.FullName]

	if existing == nil {
		// New identity: full detection.
		text, err := r.readme(ctx, hit.FullName)
		if err != nil {
			return false, err
		}

		d := r.detectAll(text, hit.Description)
		rec := track.NewRecord(hit.FullName, d.status, now)
		refreshMetrics(rec, hit)
		d.apply(rec)
		r.records[hit.FullName] = rec
		r.logf("new: %s (%s)", hit.FullName, d.status)
		return true, nil
	}

	switch existing.Status {
	case track.StatusAvailable:
		// Prior availability is durable; only the venue can change.
		text, err := r.readme(ctx, hit.FullName)
		if err != nil {
			return false, err
		}
		refreshMetrics(existing, hit)
		if venue, ok := detect.DetectVenue(hit.Description, text, r.Tables.Venues); ok {
			existing.Venue = venue.Venue
			existing.VenueYear = venue.Year
		}
		existing.SetStatus(track.StatusAvailable, now)
		return false, nil

	default:
		// Promised or no-signal: re-check everything.
		text, err := r.readme(ctx, hit.FullName)
		if err != nil {
			return false, err
		}
		refreshMetrics(existing, hit)

		d := r.detectAll(text, hit.Description)
		d.apply(existing)

		switch {
		case d.status == track.StatusAvailable:
			existing.SetStatus(track.StatusAvailable, now)
			r.logf("fresh release: %s (%s)", hit.FullName, existing.WeightSource)
		case d.status == track.StatusPromised && existing.Status == track.StatusNoSignal:
			existing.SetStatus(track.StatusPromised, now)
			r.logf("now promised: %s", hit.FullName)
		default:
			existing.SetStatus(existing.Status, now)
		}
		return false, nil
	}
}

// detection is one full detector pass over a repository's text.
type detection struct {
	status         track.Status
	weightSource   track.WeightSource
	promiseSnippet string
	venue          detect.VenueResult
	venueFound     bool
	preprintID     string
}

// detectAll runs the detector suite. Promise detection is invoked only
// when weight detection found nothing.
func (r *Run) detectAll(text, description string) detection {
	var d detection

	if w, ok := detect.DetectWeights(text, r.Tables); ok {
		d.status = track.StatusAvailable
		d.weightSource = w.Source
	} else if p, ok := detect.DetectPromise(text, r.Tables.Promises); ok {
		d.status = track.StatusPromised
		d.promiseSnippet = p.Snippet
	} else {
		d.status = track.StatusNoSignal
	}

	d.venue, d.venueFound = detect.DetectVenue(description, text, r.Tables.Venues)
	d.preprintID, _ = detect.DetectPreprint(text, r.Tables.Preprint)

	return d
}

// apply copies detection outcomes onto a record. Fields update only on
// positive evidence so a thin README never erases prior knowledge.
func (d detection) apply(rec *track.Record) {
	if d.status == track.StatusAvailable {
		rec.WeightSource = d.weightSource
	}
	if d.promiseSnippet != "" {
		rec.PromiseSnippet = d.promiseSnippet
	}
	if d.venueFound {
		rec.Venue = d.venue.Venue
		rec.VenueYear = d.venue.Year
	}
	if d.preprintID != "" {
		rec.PreprintID = d.preprintID
	}
}

// refreshMetrics mirrors the upstream host's metadata every run.
func refreshMetrics(rec *track.Record, hit github.Hit) {
	rec.Name = hit.Name
	rec.URL = hit.URL
	rec.Stars = hit.Stars
	rec.UpdatedAt = hit.UpdatedAt
	if hit.Description != "" {
		rec.Description = hit.Description
	}
	if len(hit.Topics) > 0 {
		rec.Topics = hit.Topics
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = hit.CreatedAt
	}
}

// readme returns a repository's README text, consulting the cache first.
func (r *Run) readme(ctx context.Context, fullName string) (string, error) {
	now := r.Now()
	if text, ok := r.Cache.Get(fullName, now, r.CacheTTL); ok {
		return text, nil
	}

	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok {
		return "", fmt.Errorf("malformed repository identity %q", fullName)
	}

	text, err := r.Fetcher.GetReadme(ctx, owner, repo)
	if err != nil {
		return "", err
	}
	if text != "" {
		// A failed cache write costs a refetch next run, nothing more.
		_ = r.Cache.Put(fullName, text, now)
	}
	return text, nil
}

// collect fills the result's derived views and summary.
func (r *Run) collect(res *Result) {
	now := r.Now()
	s := Summary{
		Total:          len(r.records),
		NewThisRun:     len(res.NewThisRun),
		ByWeightSource: make(map[string]int),
		ByVenue:        make(map[string]int),
	}

	for _, rec := range r.records {
		switch rec.Status {
		case track.StatusAvailable:
			s.Available++
			if rec.WeightSource != "" {
				s.ByWeightSource[string(rec.WeightSource)]++
			}
		case track.StatusPromised:
			s.Promised++
			res.Watchlist = append(res.Watchlist, rec)
		case track.StatusNoSignal:
			s.NoSignal++
		}
		if rec.Venue != "" {
			s.ByVenue[rec.Venue]++
		}
		if rec.FreshRelease(now, r.Window) {
			res.FreshReleases = append(res.FreshReleases, rec)
		}
	}

	s.FreshReleases = len(res.FreshReleases)
	sortByStars(res.FreshReleases)
	sortByStars(res.Watchlist)
	res.Summary = s
}

func sortByStars(records []*track.Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Stars != records[j].Stars {
			return records[i].Stars > records[j].Stars
		}
		return records[i].FullName < records[j].FullName
	})
}

func (r *Run) logf(format string, args ...any) {
	if r.Quiet {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
