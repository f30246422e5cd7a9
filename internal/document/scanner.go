package document

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zombor/idscan/internal/extract"
	"github.com/zombor/idscan/internal/scanning"
)

// invalidTypeMessage is reported when the recognized text does not carry
// enough of the profile's keywords.
const invalidTypeMessage = "document does not match expected type"

// Scanner sequences one document scan: recognize the text, validate the
// document type, extract the fields.
type Scanner struct {
	engine scanning.Engine
}

// NewScanner creates a Scanner on top of the given recognition engine.
func NewScanner(engine scanning.Engine) *Scanner {
	return &Scanner{engine: engine}
}

// ScanDocument scans an image against an ad-hoc keyword list and field set
// using the default vocabulary and match threshold. It never returns an
// error: recognition failures and type mismatches surface inside the
// result.
func (s *Scanner) ScanDocument(ctx context.Context, imageData []byte, contentType string, keywords []string, specs []extract.FieldSpec) ScanResult {
	return s.scan(ctx, imageData, contentType, extract.Validator{}, extract.NewExtractor(nil), keywords, specs)
}

// ScanWithProfile scans an image using the profile's keywords, match
// threshold, noise words and field specs.
func (s *Scanner) ScanWithProfile(ctx context.Context, imageData []byte, contentType string, profile *Profile) ScanResult {
	validator := extract.Validator{Threshold: profile.MatchThreshold}
	extractor := extract.NewExtractor(extract.DefaultVocabulary().Extend(profile.NoiseWords))
	return s.scan(ctx, imageData, contentType, validator, extractor, profile.Keywords, profile.Fields)
}

func (s *Scanner) scan(ctx context.Context, imageData []byte, contentType string, validator extract.Validator, extractor *extract.Extractor, keywords []string, specs []extract.FieldSpec) (result ScanResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Scan panicked",
				"content_type", contentType,
				"panic", r,
			)
			result = invalidResult(fmt.Sprintf("scanning document: %v", r))
		}
	}()

	text, err := s.engine.Recognize(ctx, imageData, contentType)
	if err != nil {
		slog.Error("Failed to recognize document text",
			"content_type", contentType,
			"image_size", len(imageData),
			"error", err,
		)
		return invalidResult(fmt.Sprintf("recognizing document text: %v", err))
	}

	if !validator.Validate(text, keywords) {
		return invalidResult(invalidTypeMessage)
	}

	return ScanResult{IsValid: true, Fields: extractor.Extract(text, specs)}
}

func invalidResult(message string) ScanResult {
	return ScanResult{Fields: []extract.FieldResult{}, ErrorMessage: message}
}
