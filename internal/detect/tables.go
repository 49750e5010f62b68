// Package detect holds the pure text classifiers that drive tracking.
//
// Every detector is a deterministic function of (text, pattern tables)
// with first-match-wins semantics. The tables are built by the config
// package; adding a pattern never requires a code change here.
package detect

import (
	"regexp"

	"github.com/modelshop/weightwatch/internal/track"
)

// WeightRule is one ordered category in the weight detection table.
// A rule with a nil Patterns slice is the extension rule and matches
// model file extensions that appear near a weight keyword.
type WeightRule struct {
	Source   track.WeightSource
	Patterns []*regexp.Regexp
}

// PromiseRule matches one phrasing of a weight release promise.
type PromiseRule struct {
	Pattern *regexp.Regexp
	Label   string
}

// VenueRule maps a pattern to a publication venue name.
type VenueRule struct {
	Pattern *regexp.Regexp
	Venue   string
}

// Tables is the full ordered pattern table set consumed by the detectors.
type Tables struct {
	Weights         []WeightRule
	ModelExtensions []string
	WeightKeywords  []string
	Promises        []PromiseRule
	Venues          []VenueRule
	Preprint        *regexp.Regexp
}
