package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/modelshop/weightwatch/internal/detect"
	"github.com/modelshop/weightwatch/internal/track"
)

// Tables compiles the configured pattern lists into the detector tables.
// Any malformed regexp fails the whole compilation with ErrInvalidPattern.
func (c *Config) Tables() (*detect.Tables, error) {
	tables := &detect.Tables{
		ModelExtensions: lowerAll(c.Weights.ModelExtensions),
		WeightKeywords:  lowerAll(c.Weights.WeightKeywords),
	}

	for _, category := range c.Weights.Priority {
		rule, err := c.weightRule(category)
		if err != nil {
			return nil, err
		}
		tables.Weights = append(tables.Weights, rule)
	}

	for _, p := range c.Promises {
		re, err := compile(p.Pattern, "promise")
		if err != nil {
			return nil, err
		}
		tables.Promises = append(tables.Promises, detect.PromiseRule{Pattern: re, Label: p.Label})
	}

	for _, v := range c.Venues.Patterns {
		for _, kw := range v.Keywords {
			// Keyword with an optional adjacent year, e.g. "CVPR 2024"
			// or "CVPR'24" styled mentions.
			expr := fmt.Sprintf(`\b%s(?:\s*['"]?\s*(\d{4}))?`, regexp.QuoteMeta(kw))
			re, err := compile(expr, "venue "+v.Venue)
			if err != nil {
				return nil, err
			}
			tables.Venues = append(tables.Venues, detect.VenueRule{Pattern: re, Venue: v.Venue})
		}
	}

	arxiv, err := compile(c.Venues.ArxivPattern, "arxiv")
	if err != nil {
		return nil, err
	}
	if arxiv.NumSubexp() < 1 {
		return nil, fmt.Errorf("%w: arxiv pattern needs a capture group for the identifier", ErrInvalidPattern)
	}
	tables.Preprint = arxiv

	return tables, nil
}

func (c *Config) weightRule(category string) (detect.WeightRule, error) {
	var (
		source   track.WeightSource
		patterns []string
	)

	switch category {
	case "hub":
		source, patterns = track.WeightHub, c.Weights.Hub
	case "release":
		source, patterns = track.WeightRelease, c.Weights.Release
	case "cloud":
		source, patterns = track.WeightCloud, c.Weights.Cloud
	case "extension":
		// The extension rule matches file extensions near weight
		// keywords and carries no regexp list.
		return detect.WeightRule{Source: track.WeightExtension}, nil
	default:
		return detect.WeightRule{}, fmt.Errorf("%w: unknown weight category %q", ErrInvalidPattern, category)
	}

	rule := detect.WeightRule{Source: source, Patterns: []*regexp.Regexp{}}
	for _, p := range patterns {
		re, err := compile(p, category)
		if err != nil {
			return detect.WeightRule{}, err
		}
		rule.Patterns = append(rule.Patterns, re)
	}
	return rule, nil
}

// Filter builds the relevance filter with lowercased keyword lists.
func (c *Config) Filter() *detect.RelevanceFilter {
	return &detect.RelevanceFilter{
		Strong:           lowerAll(c.Relevance.Strong),
		Weak:             lowerAll(c.Relevance.Weak),
		Exclude:          lowerAll(c.Relevance.Exclude),
		ExcludeNameTerms: lowerAll(c.Relevance.ExcludeNameTerms),
	}
}

func compile(expr, context string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`(?i)` + expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s pattern %q: %v", ErrInvalidPattern, context, expr, err)
	}
	return re, nil
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
