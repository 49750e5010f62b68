package detect

import "strings"

// RelevanceFilter decides whether a search hit belongs to the tracked
// niche at all. Keyword lists are matched case-insensitively.
type RelevanceFilter struct {
	Strong           []string
	Weak             []string
	Exclude          []string
	ExcludeNameTerms []string
}

// imageContexts gate weak keywords: "denoising" alone could be audio or
// tabular work, "image denoising" is ours.
var imageContexts = []string{"image", "photo", "picture", "visual"}

// Relevant reports whether a repository matches the keyword policy: no
// exclusion term, and at least one strong keyword or a weak keyword in
// image context.
func (f *RelevanceFilter) Relevant(name, description string, topics []string) bool {
	text := strings.ToLower(name + " " + description + " " + strings.Join(topics, " "))

	for _, kw := range f.Exclude {
		if strings.Contains(text, kw) {
			return false
		}
	}

	for _, kw := range f.Strong {
		if strings.Contains(text, kw) {
			return true
		}
	}

	hasContext := false
	for _, ctx := range imageContexts {
		if strings.Contains(text, ctx) {
			hasContext = true
			break
		}
	}
	if hasContext {
		for _, kw := range f.Weak {
			if strings.Contains(text, kw) {
				return true
			}
		}
	}

	return false
}

// Excluded reports whether a repository should be dropped outright:
// curated lists, surveys, and similar non-implementation repos.
func (f *RelevanceFilter) Excluded(name, description string) bool {
	name = strings.ToLower(name)
	description = strings.ToLower(description)

	head := description
	if len(head) > 50 {
		head = head[:50]
	}

	for _, term := range f.ExcludeNameTerms {
		if strings.Contains(name, term) {
			return true
		}
		if strings.HasPrefix(description, term) || strings.Contains(head, "a "+term) {
			return true
		}
	}

	return false
}
