package detect

// PromiseResult is the outcome of release promise detection.
type PromiseResult struct {
	Label   string
	Snippet string
}

// promiseScanLimit restricts promise detection to the leading section of
// a README, where status notes ("code coming soon") live. Promises buried
// deep in changelogs are stale more often than not.
const promiseScanLimit = 3000

// DetectPromise scans the leading section of text for weight release
// promises. The second return is false when nothing matched. Callers
// invoke this only when weight detection found nothing.
func DetectPromise(text string, rules []PromiseRule) (PromiseResult, bool) {
	if text == "" {
		return PromiseResult{}, false
	}
	if len(text) > promiseScanLimit {
		text = text[:promiseScanLimit]
	}

	for _, rule := range rules {
		if m := rule.Pattern.FindString(text); m != "" {
			return PromiseResult{Label: rule.Label, Snippet: truncate(m, 50)}, true
		}
	}

	return PromiseResult{}, false
}
