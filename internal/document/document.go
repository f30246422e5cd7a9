package document

import (
	"time"

	"github.com/zombor/idscan/internal/extract"
)

// ScanResult is the outcome of scanning one document image: whether the
// image matched the expected document type and, when it did, the extracted
// fields. Scan-level failures travel in ErrorMessage, never as Go errors.
type ScanResult struct {
	IsValid      bool                  `json:"is_valid"`
	Fields       []extract.FieldResult `json:"fields"`
	ErrorMessage string                `json:"error_message,omitempty"`
}

// ScanRecord is one stored scan: the profile it ran against, where the
// original image lives, and what came out.
type ScanRecord struct {
	ID          string     `json:"id"`
	Profile     string     `json:"profile"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type"`
	Result      ScanResult `json:"result"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
