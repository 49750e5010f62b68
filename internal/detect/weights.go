package detect

import (
	"regexp"
	"strings"

	"github.com/modelshop/weightwatch/internal/track"
)

// WeightResult is the outcome of weight detection.
type WeightResult struct {
	Source   track.WeightSource
	Evidence []string
}

const (
	// maxEvidence caps the matched snippets kept per detection.
	maxEvidence = 3
	// evidenceLen truncates long matched snippets.
	evidenceLen = 60
	// extensionContext is the window around a model extension in which
	// a weight keyword must appear.
	extensionContext = 100
)

// DetectWeights scans text against the ordered weight rules and returns
// the first matching category. The second return is false when no rule
// matched.
func DetectWeights(text string, tables *Tables) (WeightResult, bool) {
	if text == "" {
		return WeightResult{}, false
	}

	for _, rule := range tables.Weights {
		var evidence []string
		if rule.Patterns == nil {
			evidence = matchExtensions(text, tables.ModelExtensions, tables.WeightKeywords)
		} else {
			evidence = matchPatterns(text, rule.Patterns)
		}
		if len(evidence) > 0 {
			return WeightResult{Source: rule.Source, Evidence: evidence}, true
		}
	}

	return WeightResult{}, false
}

func matchPatterns(text string, patterns []*regexp.Regexp) []string {
	var evidence []string
	for _, pattern := range patterns {
		for _, m := range pattern.FindAllString(text, maxEvidence) {
			evidence = append(evidence, truncate(m, evidenceLen))
			if len(evidence) >= maxEvidence {
				return evidence
			}
		}
	}
	return evidence
}

// matchExtensions finds model file extensions that have a weight keyword
// within a nearby context window. A bare ".pth" in a requirements list
// is not evidence; one next to "download the checkpoint" is.
func matchExtensions(text string, extensions, keywords []string) []string {
	lower := strings.ToLower(text)
	var evidence []string

	for _, ext := range extensions {
		for pos := 0; ; {
			i := strings.Index(lower[pos:], ext)
			if i < 0 {
				break
			}
			at := pos + i
			pos = at + len(ext)

			lo := max(0, at-extensionContext)
			hi := min(len(lower), at+extensionContext)
			context := lower[lo:hi]

			for _, kw := range keywords {
				if strings.Contains(context, kw) {
					start := max(0, at-40)
					evidence = append(evidence, truncate(strings.TrimSpace(text[start:pos]), evidenceLen))
					break
				}
			}
			if len(evidence) >= maxEvidence {
				return evidence
			}
		}
	}

	return evidence
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
