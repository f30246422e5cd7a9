package extract

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/zombor/idscan/internal/scanning"
)

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Extractor turns recognized text into typed, confidence-scored field
// values.
type Extractor struct {
	vocabulary *Vocabulary
	timeSource TimeSource
}

// NewExtractor creates an Extractor with the given boilerplate vocabulary.
// A nil vocabulary falls back to the built-in set.
func NewExtractor(vocabulary *Vocabulary) *Extractor {
	return NewExtractorWithDeps(vocabulary, &defaultTimeSource{})
}

// NewExtractorWithDeps creates an Extractor with custom dependencies for
// testing.
func NewExtractorWithDeps(vocabulary *Vocabulary, timeSource TimeSource) *Extractor {
	if vocabulary == nil {
		vocabulary = DefaultVocabulary()
	}
	return &Extractor{
		vocabulary: vocabulary,
		timeSource: timeSource,
	}
}

// Extract produces one FieldResult per spec, in spec order. Date fields
// share a used-date set scoped to this call, so no two of them receive the
// same formatted value; everything else is independent per field. The input
// is never modified and repeated calls yield identical results.
func (e *Extractor) Extract(text *scanning.Result, specs []FieldSpec) []FieldResult {
	lines := textLines(text)
	fullText := documentText(text)
	used := make(map[string]struct{})

	results := make([]FieldResult, 0, len(specs))
	for _, spec := range specs {
		results = append(results, e.extractField(lines, fullText, spec, used))
	}
	return results
}

func (e *Extractor) extractField(lines []string, fullText string, spec FieldSpec, used map[string]struct{}) FieldResult {
	switch spec.Type {
	case FieldDate:
		return e.extractDate(lines, fullText, spec, used)
	case FieldNumber, FieldID:
		return e.extractNumber(lines, fullText, spec)
	default:
		return e.extractString(lines, spec)
	}
}

// textLines returns the recognized lines, falling back to splitting the full
// text when an engine reports none.
func textLines(text *scanning.Result) []string {
	if text == nil {
		return nil
	}
	if len(text.Lines) > 0 {
		lines := make([]string, 0, len(text.Lines))
		for _, line := range text.Lines {
			lines = append(lines, line.Text)
		}
		return lines
	}
	if text.Text == "" {
		return nil
	}
	return strings.Split(text.Text, "\n")
}

// documentText returns the full text, rebuilding it from the lines when an
// engine reports only those.
func documentText(text *scanning.Result) string {
	if text == nil {
		return ""
	}
	if text.Text != "" {
		return text.Text
	}
	lines := make([]string, 0, len(text.Lines))
	for _, line := range text.Lines {
		lines = append(lines, line.Text)
	}
	return strings.Join(lines, "\n")
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func digitRatio(s string) float64 {
	total := utf8.RuneCountInString(s)
	if total == 0 {
		return 0
	}
	return float64(digitCount(s)) / float64(total)
}

func isPurelyNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
