package extract

import (
	"strings"

	"github.com/zombor/idscan/internal/scanning"
)

// DefaultKeywordThreshold is the fraction of keywords that must appear in
// the recognized text for the document to count as the expected type.
const DefaultKeywordThreshold = 0.4

// Validator decides whether recognized text belongs to an expected document
// type by keyword containment.
type Validator struct {
	// Threshold overrides DefaultKeywordThreshold when positive.
	Threshold float64
}

// Validate reports whether enough of the keywords appear in the text,
// case-insensitively. The comparison is against the raw fraction of the
// keyword count, so with five keywords two matches is exactly enough at the
// default threshold. An empty keyword list accepts trivially; a nil or empty
// text matches nothing.
func (v Validator) Validate(text *scanning.Result, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	folded := strings.ToLower(documentText(text))
	matched := 0
	for _, keyword := range keywords {
		if strings.Contains(folded, strings.ToLower(keyword)) {
			matched++
		}
	}

	threshold := v.Threshold
	if threshold <= 0 {
		threshold = DefaultKeywordThreshold
	}
	return float64(matched) >= threshold*float64(len(keywords))
}
