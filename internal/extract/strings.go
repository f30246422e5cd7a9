package extract

import (
	"regexp"
	"slices"
	"strings"
)

const nameFallbackConfidence = 0.7

var (
	// ID-like prefixes (2-5 uppercase letters then a digit run) mark a value
	// as a document number, not prose.
	idPrefixShape    = regexp.MustCompile(`^[A-Z]{2,5}\d{6,}`)
	letterSpaceShape = regexp.MustCompile(`^[A-Za-z ]+$`)
)

// stringToken approves any candidate long enough to be prose.
func stringToken(s string) (string, bool) {
	value := strings.TrimSpace(s)
	if len(value) >= 2 && !isPurelyNumeric(value) {
		return value, true
	}
	return "", false
}

// extractString resolves a free-text field. Label search runs per key with
// the label echo stripped off the value; name fields additionally fall back
// to scanning every line for something that reads like a printed name.
func (e *Extractor) extractString(lines []string, spec FieldSpec) FieldResult {
	for _, key := range spec.searchKeys() {
		raw, confidence, ok := e.searchLabel(lines, key, stringToken)
		if !ok {
			continue
		}
		value := stripLabelEcho(raw, key)
		if e.acceptString(value, spec) {
			return fieldFound(spec, value, confidence)
		}
	}

	if strings.Contains(strings.ToLower(spec.Key), "name") {
		for _, line := range lines {
			candidate := strings.TrimSpace(line)
			if e.potentialName(candidate) {
				return fieldFound(spec, candidate, nameFallbackConfidence)
			}
		}
	}

	return fieldNotFound(spec)
}

// stripLabelEcho removes a leading repetition of the label from a candidate
// value. OCR regularly reads label and value as one run, with the original
// spacing, with none, or word by word.
func stripLabelEcho(value, key string) string {
	v := strings.TrimSpace(value)
	folded := strings.ToLower(v)
	keyFolded := strings.ToLower(strings.TrimSpace(key))

	if keyFolded != "" && strings.HasPrefix(folded, keyFolded) {
		v = strings.TrimSpace(v[len(keyFolded):])
	} else if compact := strings.ReplaceAll(keyFolded, " ", ""); compact != "" && strings.HasPrefix(folded, compact) {
		v = strings.TrimSpace(v[len(compact):])
	} else {
		words := strings.Fields(keyFolded)
		for {
			fields := strings.Fields(v)
			if len(fields) == 0 {
				break
			}
			first := strings.ToLower(strings.Trim(fields[0], ".:-"))
			if !slices.Contains(words, first) {
				break
			}
			v = strings.TrimSpace(v[len(fields[0]):])
		}
	}

	return strings.Join(strings.Fields(v), " ")
}

// acceptString rejects values that are too short, machine-readable-zone
// residue, id numbers, mostly digits, or bare boilerplate; nationality and
// name fields carry extra shape rules.
func (e *Extractor) acceptString(value string, spec FieldSpec) bool {
	if len(value) < 2 {
		return false
	}
	if strings.ContainsAny(value, "<>") {
		return false
	}
	if idPrefixShape.MatchString(value) {
		return false
	}
	if digitRatio(value) > 0.5 {
		return false
	}
	if e.vocabulary.IsBoilerplate(value) {
		return false
	}

	key := strings.ToLower(spec.Key)
	if strings.Contains(key, "nationality") {
		if len(strings.Fields(value)) > 3 || !letterSpaceShape.MatchString(value) {
			return false
		}
	}
	if strings.Contains(key, "name") {
		fields := strings.Fields(value)
		if len(fields) < 2 {
			return false
		}
		for _, field := range fields {
			if len([]rune(field)) < 2 {
				return false
			}
		}
	}
	return true
}

// potentialName recognizes a line that reads like a printed personal name:
// all caps, mostly letters, at least two real words, and free of document
// boilerplate.
func (e *Extractor) potentialName(line string) bool {
	if n := len(line); n < 5 || n > 50 {
		return false
	}
	if strings.ContainsAny(line, "<>") {
		return false
	}
	if digitRatio(line) > 0.3 {
		return false
	}
	if line != strings.ToUpper(line) {
		return false
	}

	words := 0
	for _, field := range strings.Fields(line) {
		if e.vocabulary.IsBoilerplate(strings.Trim(field, ".,:;")) {
			return false
		}
		if len([]rune(field)) >= 2 {
			words++
		}
	}
	return words >= 2
}
