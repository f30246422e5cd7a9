package extract

import "strings"

// defaultBoilerplate lists the document-furniture words that never form a
// field value on their own. The list is data, not logic; document profiles
// extend it with their own vocabulary.
var defaultBoilerplate = []string{
	"passport",
	"licence",
	"license",
	"driving",
	"driver",
	"identity",
	"identification",
	"card",
	"document",
	"specimen",
	"national",
	"nationality",
	"republic",
	"federal",
	"state",
	"government",
	"authority",
	"country",
	"surname",
	"name",
	"names",
	"given",
	"middle",
	"date",
	"dob",
	"birth",
	"issue",
	"issued",
	"expiry",
	"expires",
	"valid",
	"until",
	"number",
	"sex",
	"gender",
	"height",
	"eyes",
	"address",
	"signature",
	"holder",
	"class",
	"category",
	"restrictions",
	"endorsements",
	"code",
	"type",
}

// Vocabulary is the boilerplate-word denylist shared by the extraction
// heuristics.
type Vocabulary struct {
	words map[string]struct{}
}

// NewVocabulary builds a vocabulary from the given words, case-folded.
func NewVocabulary(words []string) *Vocabulary {
	v := &Vocabulary{words: make(map[string]struct{}, len(words))}
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			v.words[word] = struct{}{}
		}
	}
	return v
}

// DefaultVocabulary returns the built-in boilerplate set.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(defaultBoilerplate)
}

// Extend returns a new vocabulary containing this one's words plus the given
// extras. The receiver is not modified.
func (v *Vocabulary) Extend(words []string) *Vocabulary {
	merged := make([]string, 0, len(v.words)+len(words))
	for word := range v.words {
		merged = append(merged, word)
	}
	merged = append(merged, words...)
	return NewVocabulary(merged)
}

// IsBoilerplate reports whether s, trimmed and case-folded, is a boilerplate
// word.
func (v *Vocabulary) IsBoilerplate(s string) bool {
	_, ok := v.words[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
