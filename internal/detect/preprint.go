package detect

import "regexp"

// DetectPreprint extracts the first arXiv identifier from text using the
// configured pattern. The pattern's first capture group is the canonical
// identifier (e.g. "2403.01234").
func DetectPreprint(text string, pattern *regexp.Regexp) (string, bool) {
	if text == "" || pattern == nil {
		return "", false
	}
	m := pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}
