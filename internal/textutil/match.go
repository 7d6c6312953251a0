package textutil

import (
	"strings"

	"github.com/agext/levenshtein"
)

// DefaultMatchThreshold is the minimum similarity ratio accepted by
// Closest when the caller does not configure one.
const DefaultMatchThreshold = 0.6

var matchParams = levenshtein.NewParams()

// Closest returns the candidate most similar to input, if its similarity
// ratio (0-1 over normalized forms) reaches threshold. Ties resolve to
// the earliest candidate, so catalog order decides between equally close
// options. The returned string is always one of candidates, verbatim.
func Closest(input string, candidates []string, threshold float64) (string, bool) {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	normalized := Normalize(input)
	if normalized == "" {
		return "", false
	}

	best := -1
	bestRatio := 0.0
	for i, candidate := range candidates {
		ratio := levenshtein.Similarity(normalized, Normalize(candidate), matchParams)
		if ratio > bestRatio {
			best = i
			bestRatio = ratio
		}
	}
	if best < 0 || bestRatio < threshold {
		return "", false
	}
	return candidates[best], true
}

// ContainsKeyword reports whether the normalized input contains any of
// the given keywords as a substring. Used for choice prompts where the
// user answers in a full sentence ("quiero cancelar la cita").
func ContainsKeyword(input string, keywords ...string) bool {
	normalized := Normalize(input)
	for _, kw := range keywords {
		if kw = Normalize(kw); kw != "" && strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// EqualsKeyword reports whether the normalized input exactly matches one
// of the keywords. Used for short confirmations ("yes", "si", "no")
// where substring matching would conflate "no" with "nope, cancel it".
func EqualsKeyword(input string, keywords ...string) bool {
	normalized := Normalize(input)
	for _, kw := range keywords {
		if normalized == Normalize(kw) {
			return true
		}
	}
	return false
}
