// Package queue manages the reproduction-candidate queue: repositories
// with published weights and a paper identifier, awaiting downstream
// processing.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/modelshop/weightwatch/internal/track"
)

// Status is a candidate's lifecycle state.
type Status string

// Candidate lifecycle states. Skipped is reachable from any state.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
)

// Origin records how a candidate entered the queue.
type Origin string

// Candidate origins.
const (
	OriginAuto   Origin = "auto"
	OriginManual Origin = "manual"
)

// ErrNotFound indicates the named candidate is not in the queue.
var ErrNotFound = errors.New("candidate not found in queue")

// ParseStatus validates a raw lifecycle value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusSkipped:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid queue status %q (want pending|processing|completed|skipped)", s)
}

// UnmarshalJSON rejects unknown lifecycle values at load time.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Candidate is one queue entry, keyed by repository full name.
type Candidate struct {
	FullName   string    `json:"full_name"`
	URL        string    `json:"url"`
	PreprintID string    `json:"preprint_id,omitempty"`
	AddedAt    time.Time `json:"added_at"`
	Origin     Origin    `json:"origin"`
	Status     Status    `json:"status"`
}

// Queue is the in-memory queue state. Like the history store, it is
// loaded wholesale and written back wholesale at the end of a run.
type Queue struct {
	entries map[string]*Candidate
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{entries: make(map[string]*Candidate)}
}

// Len returns the number of candidates.
func (q *Queue) Len() int { return len(q.entries) }

// Get returns the candidate for a full name.
func (q *Queue) Get(fullName string) (*Candidate, bool) {
	c, ok := q.entries[fullName]
	return c, ok
}

// AutoEnqueue adds every record with published weights and a preprint id
// that is not already queued. It is strictly additive and idempotent:
// an identity is created at most once, regardless of its current
// lifecycle state. Returns the full names added this call.
func (q *Queue) AutoEnqueue(records map[string]*track.Record, now time.Time) []string {
	var added []string

	for fullName, rec := range records {
		if rec.Status != track.StatusAvailable || rec.PreprintID == "" {
			continue
		}
		if _, exists := q.entries[fullName]; exists {
			continue
		}
		q.entries[fullName] = &Candidate{
			FullName:   fullName,
			URL:        rec.URL,
			PreprintID: rec.PreprintID,
			AddedAt:    now,
			Origin:     OriginAuto,
			Status:     StatusPending,
		}
		added = append(added, fullName)
	}

	sort.Strings(added)
	return added
}

// Add manually queues a repository. Adding an existing identity is a
// no-op and returns false.
func (q *Queue) Add(fullName, url string, now time.Time) (bool, error) {
	if err := track.ValidateFullName(fullName); err != nil {
		return false, err
	}
	if _, exists := q.entries[fullName]; exists {
		return false, nil
	}
	q.entries[fullName] = &Candidate{
		FullName: fullName,
		URL:      url,
		AddedAt:  now,
		Origin:   OriginManual,
		Status:   StatusPending,
	}
	return true, nil
}

// Remove deletes a candidate. A missing identity returns false, which is
// reported, not an error.
func (q *Queue) Remove(fullName string) bool {
	if _, exists := q.entries[fullName]; !exists {
		return false
	}
	delete(q.entries, fullName)
	return true
}

// SetStatus updates a candidate's lifecycle state. An unknown value is a
// validation error and leaves the entry unchanged.
func (q *Queue) SetStatus(fullName, raw string) error {
	status, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	c, ok := q.entries[fullName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, fullName)
	}
	c.Status = status
	return nil
}

// List returns candidates sorted by enqueue time, oldest first, full
// name as tie-break. An empty filter returns everything.
func (q *Queue) List(filter Status) []Candidate {
	var out []Candidate
	for _, c := range q.entries {
		if filter != "" && c.Status != filter {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].FullName < out[j].FullName
	})
	return out
}
