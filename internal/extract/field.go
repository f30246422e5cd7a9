package extract

import (
	"errors"
	"fmt"
	"strings"
)

// FieldType identifies how a field's value is located and validated.
type FieldType string

const (
	FieldDate   FieldType = "date"
	FieldNumber FieldType = "number"
	FieldID     FieldType = "id"
	FieldString FieldType = "string"
)

// FieldSpec describes one field to extract from a document.
type FieldSpec struct {
	// Key is the primary label searched for in the text.
	Key  string    `json:"key"`
	Type FieldType `json:"type"`
	// AlternativeKeys are synonyms tried in order after the primary key.
	AlternativeKeys []string `json:"alternative_keys,omitempty"`
	// MinLength and MaxLength bound number and id values. Zero means
	// unbounded.
	MinLength int `json:"min_length,omitempty"`
	MaxLength int `json:"max_length,omitempty"`
	// OutputDateFormat is the Go layout date values are rendered in.
	OutputDateFormat string `json:"output_date_format,omitempty"`
	// InputDateFormatHint is a Go layout tried before the standard ones
	// when parsing a candidate date.
	InputDateFormatHint string `json:"input_date_format_hint,omitempty"`
}

// Validate checks the field spec for internal consistency.
func (s FieldSpec) Validate() error {
	if strings.TrimSpace(s.Key) == "" {
		return errors.New("field key is required")
	}
	switch s.Type {
	case FieldDate, FieldNumber, FieldID, FieldString:
	default:
		return fmt.Errorf("unknown field type %q", s.Type)
	}
	if s.MinLength > 0 && s.MaxLength > 0 && s.MinLength > s.MaxLength {
		return fmt.Errorf("min length %d exceeds max length %d", s.MinLength, s.MaxLength)
	}
	return nil
}

// searchKeys returns the primary key followed by the alternatives.
func (s FieldSpec) searchKeys() []string {
	keys := make([]string, 0, 1+len(s.AlternativeKeys))
	keys = append(keys, s.Key)
	keys = append(keys, s.AlternativeKeys...)
	return keys
}

// FieldResult is the outcome of extracting one FieldSpec. Found is true
// exactly when Value is non-empty; Confidence reflects the extraction method,
// not a calibrated probability.
type FieldResult struct {
	Key        string    `json:"key"`
	Type       FieldType `json:"type"`
	Value      string    `json:"value,omitempty"`
	Found      bool      `json:"found"`
	Confidence float64   `json:"confidence"`
}

func fieldFound(spec FieldSpec, value string, confidence float64) FieldResult {
	return FieldResult{
		Key:        spec.Key,
		Type:       spec.Type,
		Value:      value,
		Found:      value != "",
		Confidence: confidence,
	}
}

func fieldNotFound(spec FieldSpec) FieldResult {
	return FieldResult{Key: spec.Key, Type: spec.Type}
}
