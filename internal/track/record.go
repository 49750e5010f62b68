package track

import (
	"fmt"
	"regexp"
	"time"
)

// StatusChange is one entry in a record's append-only status history.
type StatusChange struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
}

// Record is the tracked state of one repository, keyed by FullName.
type Record struct {
	FullName    string   `json:"full_name"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Stars       int      `json:"stars"`
	Description string   `json:"description,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`

	Status       Status       `json:"status"`
	WeightSource WeightSource `json:"weight_source,omitempty"`

	Venue     string `json:"venue,omitempty"`
	VenueYear string `json:"venue_year,omitempty"`
	// PreprintID is the arXiv identifier extracted from the README.
	PreprintID string `json:"preprint_id,omitempty"`
	// PromiseSnippet is the matched text when a release promise was detected.
	PromiseSnippet string `json:"promise_snippet,omitempty"`

	FirstSeen       time.Time      `json:"first_seen"`
	LastChecked     time.Time      `json:"last_checked"`
	StatusChangedAt time.Time      `json:"status_changed_at"`
	StatusHistory   []StatusChange `json:"status_history"`
}

// fullNameRe matches "owner/repo" identities.
var fullNameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+$`)

// ValidateFullName checks that an identity has the owner/repo shape.
func ValidateFullName(fullName string) error {
	if !fullNameRe.MatchString(fullName) {
		return fmt.Errorf("malformed repository identity %q (want owner/repo)", fullName)
	}
	return nil
}

// NewRecord creates a record for a newly observed repository with the
// given initial status. The initial status always opens the history.
func NewRecord(fullName string, status Status, now time.Time) *Record {
	return &Record{
		FullName:        fullName,
		Status:          status,
		FirstSeen:       now,
		LastChecked:     now,
		StatusChangedAt: now,
		StatusHistory:   []StatusChange{{Status: status, At: now}},
	}
}

// SetStatus applies a (possibly unchanged) status at the given time.
// StatusChangedAt advances and the history grows only when the status
// actually differs; a confirming re-check touches only LastChecked.
func (r *Record) SetStatus(status Status, now time.Time) {
	if r.Status != status {
		r.Status = status
		r.StatusChangedAt = now
		r.StatusHistory = append(r.StatusHistory, StatusChange{Status: status, At: now})
	}
	r.LastChecked = now
}

// PreviousStatus returns the status immediately before the current one,
// or false if the record has never transitioned.
func (r *Record) PreviousStatus() (Status, bool) {
	if len(r.StatusHistory) < 2 {
		return "", false
	}
	return r.StatusHistory[len(r.StatusHistory)-2].Status, true
}

// FreshReleaseWindow is the default trailing window for fresh releases.
const FreshReleaseWindow = 7 * 24 * time.Hour

// FreshRelease reports whether the record genuinely transitioned into
// availability within the trailing window. A repository first seen with
// weights already published is not a fresh release.
func (r *Record) FreshRelease(now time.Time, window time.Duration) bool {
	if r.Status != StatusAvailable {
		return false
	}
	prev, ok := r.PreviousStatus()
	if !ok || prev == StatusAvailable {
		return false
	}
	return now.Sub(r.StatusChangedAt) <= window
}
