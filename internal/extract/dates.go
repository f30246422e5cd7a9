package extract

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
)

const (
	// DefaultDateFormat is the layout extracted dates are rendered in when
	// the field spec does not name one.
	DefaultDateFormat = "02/01/2006"

	minDateYear  = 1900
	maxYearAhead = 50

	dateProximityConfidence = 0.7
	dateEarliestConfidence  = 0.6
)

// Delimited numeric dates, day-first and year-first.
var numericDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{4}\b`),
	regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),
}

// Month-name dates ("12 Mar 1990", "12 March 1990").
var monthDatePattern = regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{4}\b`)

// dateFallbackLayouts are tried in order after the caller's hint.
var dateFallbackLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"2006-01-02",
	"2/1/2006",
	"02 Jan 2006",
	"02 January 2006",
	"Jan 02, 2006",
	"January 02, 2006",
}

// dateToken pulls the first delimited numeric date out of a candidate
// string. Month-name dates are deliberately excluded here; they are only
// picked up by the corpus-wide scan.
func dateToken(s string) (string, bool) {
	best := -1
	var value string
	for _, pattern := range numericDatePatterns {
		if loc := pattern.FindStringIndex(s); loc != nil && (best < 0 || loc[0] < best) {
			best = loc[0]
			value = s[loc[0]:loc[1]]
		}
	}
	return value, best >= 0
}

// extractDate resolves a date field. Label search is tried for every key
// first; when that fails, or only turns up dates another field already owns,
// the whole text is scanned and the candidate is chosen by label proximity
// or by the field name.
func (e *Extractor) extractDate(lines []string, fullText string, spec FieldSpec, used map[string]struct{}) FieldResult {
	outputFormat := spec.OutputDateFormat
	if outputFormat == "" {
		outputFormat = DefaultDateFormat
	}

	for _, key := range spec.searchKeys() {
		raw, confidence, ok := e.searchLabel(lines, key, dateToken)
		if !ok {
			continue
		}
		parsed, ok := e.parseDate(raw, spec.InputDateFormatHint)
		if !ok {
			continue
		}
		value := parsed.Format(outputFormat)
		if _, taken := used[value]; taken {
			continue
		}
		used[value] = struct{}{}
		return fieldFound(spec, value, confidence)
	}

	candidates := e.corpusDates(fullText, spec.InputDateFormatHint, outputFormat, used)
	if len(candidates) == 0 {
		return fieldNotFound(spec)
	}

	chosen, confidence := chooseDate(candidates, fullText, spec)
	used[chosen.value] = struct{}{}
	return fieldFound(spec, chosen.value, confidence)
}

type dateCandidate struct {
	offset int
	when   time.Time
	value  string
}

// corpusDates scans the full text for anything date-shaped, parses it,
// drops values outside the sane range or already assigned, and returns the
// survivors in text order.
func (e *Extractor) corpusDates(text, hint, outputFormat string, used map[string]struct{}) []dateCandidate {
	patterns := append([]*regexp.Regexp{}, numericDatePatterns...)
	patterns = append(patterns, monthDatePattern)

	var candidates []dateCandidate
	for _, pattern := range patterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			parsed, ok := e.parseDate(text[loc[0]:loc[1]], hint)
			if !ok {
				continue
			}
			value := parsed.Format(outputFormat)
			if _, taken := used[value]; taken {
				continue
			}
			candidates = append(candidates, dateCandidate{offset: loc[0], when: parsed, value: value})
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].offset < candidates[j].offset })
	return candidates
}

// chooseDate picks one candidate. A candidate sitting just after a label
// occurrence wins; with no label in the text the field name decides between
// the latest and the earliest remaining date.
func chooseDate(candidates []dateCandidate, fullText string, spec FieldSpec) (dateCandidate, float64) {
	folded := strings.ToLower(fullText)
	best := -1
	bestDistance := 0
	for _, key := range spec.searchKeys() {
		label := strings.ToLower(strings.TrimSpace(key))
		if label == "" {
			continue
		}
		from := 0
		for {
			idx := strings.Index(folded[from:], label)
			if idx < 0 {
				break
			}
			labelAt := from + idx
			for i, c := range candidates {
				if c.offset <= labelAt {
					continue
				}
				if distance := c.offset - labelAt; best < 0 || distance < bestDistance {
					best = i
					bestDistance = distance
				}
			}
			from = labelAt + len(label)
		}
	}
	if best >= 0 {
		return candidates[best], dateProximityConfidence
	}

	// No label occurrence anywhere: expiry-flavored fields take the latest
	// date, everything else (birth, issue, unknown) the earliest.
	key := strings.ToLower(spec.Key)
	latest := strings.Contains(key, "expiry") || strings.Contains(key, "expire") ||
		strings.Contains(key, "valid") || strings.Contains(key, "end")

	pick := 0
	for i := 1; i < len(candidates); i++ {
		if latest && candidates[i].when.After(candidates[pick].when) {
			pick = i
		} else if !latest && candidates[i].when.Before(candidates[pick].when) {
			pick = i
		}
	}
	if latest {
		return candidates[pick], dateProximityConfidence
	}
	return candidates[pick], dateEarliestConfidence
}

// parseDate normalizes a raw date string, trying the hint layout first. OCR
// text is frequently all caps and month abbreviations carry stray dots, so
// cleaned variants are tried too. Dates outside [1900, now+50 years] are
// rejected as misreads.
func (e *Extractor) parseDate(raw, hint string) (time.Time, bool) {
	layouts := dateFallbackLayouts
	if hint != "" {
		layouts = append([]string{hint}, layouts...)
	}

	for _, attempt := range dateParseAttempts(raw) {
		for _, layout := range layouts {
			parsed, err := time.Parse(layout, attempt)
			if err != nil {
				continue
			}
			if year := parsed.Year(); year < minDateYear || year > e.timeSource.Now().Year()+maxYearAhead {
				return time.Time{}, false
			}
			return parsed, true
		}
	}
	return time.Time{}, false
}

func dateParseAttempts(raw string) []string {
	raw = strings.TrimSpace(raw)
	attempts := []string{raw}
	if cleaned := strings.ReplaceAll(raw, ".", ""); cleaned != raw {
		attempts = append(attempts, cleaned)
	}
	if titled := titleCaseWords(attempts[len(attempts)-1]); titled != attempts[len(attempts)-1] {
		attempts = append(attempts, titled)
	}
	return attempts
}

// titleCaseWords rewrites alphabetic words as Xxxx so "12 MAR 1990" parses
// against the month-name layouts.
func titleCaseWords(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		alpha := true
		for _, r := range runes {
			if !unicode.IsLetter(r) {
				alpha = false
				break
			}
		}
		if !alpha || len(runes) == 0 {
			continue
		}
		word = strings.ToLower(word)
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
