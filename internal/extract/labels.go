package extract

import (
	"regexp"
	"strings"
)

const (
	sameLineConfidence = 0.8
	lookaheadPenalty   = 0.1
	lookaheadWindow    = 3
)

// Document labels come in spelling variants; both directions of a pair map
// to the same alternation. The alternatives keep their own word boundaries
// so "no." does not swallow the start of another word.
var labelSynonyms = map[string]string{
	"license": `licen[sc]e\b`,
	"licence": `licen[sc]e\b`,
	"number":  `(?:number\b|no\b\.?|num\b\.?|#)`,
	"no":      `(?:number\b|no\b\.?|num\b\.?|#)`,
	"no.":     `(?:number\b|no\b\.?|num\b\.?|#)`,
	"num":     `(?:number\b|no\b\.?|num\b\.?|#)`,
	"date":    `(?:date\b|dt\b)`,
	"dt":      `(?:date\b|dt\b)`,
}

// containsSynonyms mirrors labelSynonyms for the containment check, so a
// line reading "No." still counts as containing the key word "number".
var containsSynonyms = map[string]*regexp.Regexp{
	"license": regexp.MustCompile(`licen[sc]e`),
	"licence": regexp.MustCompile(`licen[sc]e`),
	"number":  regexp.MustCompile(`number|\bno\.?(\s|$)|\bnum\b|#`),
	"no":      regexp.MustCompile(`number|\bno\.?(\s|$)|\bnum\b|#`),
	"no.":     regexp.MustCompile(`number|\bno\.?(\s|$)|\bnum\b|#`),
	"num":     regexp.MustCompile(`number|\bno\.?(\s|$)|\bnum\b|#`),
	"date":    regexp.MustCompile(`date|\bdt\b`),
	"dt":      regexp.MustCompile(`date|\bdt\b`),
}

// lineContainsKey reports whether every word of the key, or one of its
// spelling variants, appears in the line, case-insensitively.
func lineContainsKey(line, key string) bool {
	folded := strings.ToLower(line)
	for _, word := range strings.Fields(strings.ToLower(key)) {
		if re, ok := containsSynonyms[word]; ok {
			if !re.MatchString(folded) {
				return false
			}
			continue
		}
		if !strings.Contains(folded, word) {
			return false
		}
	}
	return true
}

// labelValuePattern renders a key as a tolerant regular expression: synonym
// substitution per word, an optional colon or dash separator, and the
// remainder of the line captured as the candidate value.
func labelValuePattern(key string) *regexp.Regexp {
	words := strings.Fields(strings.ToLower(key))
	if len(words) == 0 {
		return nil
	}
	parts := make([]string, 0, len(words))
	for _, word := range words {
		if alt, ok := labelSynonyms[word]; ok {
			parts = append(parts, alt)
		} else {
			parts = append(parts, regexp.QuoteMeta(word)+`\b`)
		}
	}
	pattern := `(?i)\b` + strings.Join(parts, `\s+`) + `\s*[:\-]?\s*(.*)$`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}

// searchLabel scans the lines for the key. For each line containing the key
// it first tries the same-line pattern, then looks ahead a few lines for a
// type-appropriate value, skipping blank lines, label-bearing lines and bare
// boilerplate words. Confidence starts at 0.8 on the label's own line and
// drops by 0.1 per line of lookahead. The accept func extracts and approves
// a typed value from a raw candidate.
func (e *Extractor) searchLabel(lines []string, key string, accept func(string) (string, bool)) (string, float64, bool) {
	pattern := labelValuePattern(key)
	if pattern == nil {
		return "", 0, false
	}

	for i, line := range lines {
		if !lineContainsKey(line, key) {
			continue
		}

		if m := pattern.FindStringSubmatch(line); m != nil {
			if value, ok := accept(strings.TrimSpace(m[1])); ok {
				return value, sameLineConfidence, true
			}
		}

		for k := 1; k <= lookaheadWindow && i+k < len(lines); k++ {
			candidate := strings.TrimSpace(lines[i+k])
			if candidate == "" || strings.Contains(candidate, ":") || e.vocabulary.IsBoilerplate(candidate) {
				continue
			}
			if value, ok := accept(candidate); ok {
				return value, sameLineConfidence - lookaheadPenalty*float64(k), true
			}
		}
	}

	return "", 0, false
}
