package scanning

import "context"

// Box is a bounding rectangle in pixel coordinates. The zero value means the
// engine reported no geometry for the element.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether the box carries no geometry.
func (b Box) IsZero() bool {
	return b == Box{}
}

// Line is one recognized text line. Confidence is in [0, 1]; engines that do
// not report recognition confidence estimate one from the text itself.
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Block groups the lines of one visual region of the document.
type Block struct {
	Lines []Line `json:"lines"`
	Box   Box    `json:"box"`
}

// Result is the engine-neutral shape of a recognition pass: the full
// transcribed text plus its line and block structure.
type Result struct {
	Text   string  `json:"text"`
	Lines  []Line  `json:"lines"`
	Blocks []Block `json:"blocks"`
}

// Engine defines the interface for text recognition backends.
type Engine interface {
	// Recognize transcribes all visible text in an image or PDF.
	Recognize(ctx context.Context, imageData []byte, contentType string) (*Result, error)
	// Close releases the engine's resources.
	Close() error
}
