package detect

import "regexp"

// VenueResult is the outcome of venue detection.
type VenueResult struct {
	Venue string
	Year  string
}

// nearbyYearRe finds a publication year near a venue mention.
var nearbyYearRe = regexp.MustCompile(`20[2-3]\d`)

// yearContext is the window around a venue match searched for a year.
const yearContext = 20

// DetectVenue applies the ordered venue rules to the repository
// description and README text. The first rule that matches wins and no
// later rule can overwrite it. The year comes from the pattern's capture
// group when present, otherwise from a 20xx year adjacent to the match.
func DetectVenue(description, text string, rules []VenueRule) (VenueResult, bool) {
	if description == "" && text == "" {
		return VenueResult{}, false
	}
	combined := description + "\n" + text

	for _, rule := range rules {
		loc := rule.Pattern.FindStringSubmatchIndex(combined)
		if loc == nil {
			continue
		}

		result := VenueResult{Venue: rule.Venue}

		// Capture group 1, when the pattern has one and it matched.
		if len(loc) >= 4 && loc[2] >= 0 {
			result.Year = combined[loc[2]:loc[3]]
			return result, true
		}

		lo := max(0, loc[0]-yearContext)
		hi := min(len(combined), loc[1]+yearContext)
		if year := nearbyYearRe.FindString(combined[lo:hi]); year != "" {
			result.Year = year
		}
		return result, true
	}

	return VenueResult{}, false
}
