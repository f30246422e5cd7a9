package extract

import (
	"regexp"
	"strings"
)

const (
	numberFallbackConfidence = 0.5
	minNumberLength          = 4
	numberDigitRatio         = 0.7
)

// A labeled number starts with a digit and may carry a trailing alphanumeric
// suffix ("12345678", "123456B2").
var numberShape = regexp.MustCompile(`^\d+[A-Za-z0-9]*$`)

// Fallback token shapes for the corpus-wide scan.
var (
	fallbackDigitsShape      = regexp.MustCompile(`^\d{6,}$`)
	fallbackLetterDigitShape = regexp.MustCompile(`^[A-Za-z]\d{6,}$`)
	fallbackAlnumShape       = regexp.MustCompile(`^[A-Za-z0-9]{5,}$`)
)

// numberToken approves a candidate that looks like an identification number.
func numberToken(s string) (string, bool) {
	token := strings.TrimSpace(s)
	if len(token) >= minNumberLength && numberShape.MatchString(token) {
		return token, true
	}
	return "", false
}

// extractNumber resolves a number or id field: label search first, then a
// corpus-wide token scan at reduced confidence.
func (e *Extractor) extractNumber(lines []string, fullText string, spec FieldSpec) FieldResult {
	for _, key := range spec.searchKeys() {
		value, confidence, ok := e.searchLabel(lines, key, numberToken)
		if !ok {
			continue
		}
		if e.acceptLabeledNumber(value, spec) {
			return fieldFound(spec, value, confidence)
		}
	}

	for _, token := range fallbackNumberTokens(fullText) {
		if !withinLength(token, spec) || e.vocabulary.IsBoilerplate(token) {
			continue
		}
		return fieldFound(spec, token, numberFallbackConfidence)
	}

	return fieldNotFound(spec)
}

// acceptLabeledNumber applies the strict validation reserved for label
// matches: length bounds, a 70% digit floor, and the boilerplate denylist.
func (e *Extractor) acceptLabeledNumber(value string, spec FieldSpec) bool {
	if !withinLength(value, spec) {
		return false
	}
	if digitRatio(value) < numberDigitRatio {
		return false
	}
	return !e.vocabulary.IsBoilerplate(value)
}

func withinLength(value string, spec FieldSpec) bool {
	if spec.MinLength > 0 && len(value) < spec.MinLength {
		return false
	}
	if spec.MaxLength > 0 && len(value) > spec.MaxLength {
		return false
	}
	return true
}

// fallbackNumberTokens returns the id-shaped tokens of the text in order:
// runs of 6+ digits, alphanumerics carrying 5+ digits, or a letter-prefixed
// digit run. Tokens containing date separators are excluded.
func fallbackNumberTokens(text string) []string {
	var tokens []string
	for _, field := range strings.Fields(text) {
		token := strings.Trim(field, ".,;:()[]")
		if token == "" || strings.ContainsAny(token, "/-") {
			continue
		}
		switch {
		case fallbackDigitsShape.MatchString(token),
			fallbackLetterDigitShape.MatchString(token):
			tokens = append(tokens, token)
		case fallbackAlnumShape.MatchString(token) && digitCount(token) >= 5:
			tokens = append(tokens, token)
		}
	}
	return tokens
}
