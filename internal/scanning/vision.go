package scanning

import (
	"context"
	"fmt"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// Vision implements the Engine interface using the Google Cloud Vision API.
// Unlike the LLM backends it reports real per-word confidence and geometry.
type Vision struct {
	client *vision.ImageAnnotatorClient
}

// NewVision creates a Cloud Vision backed engine. Credentials come from the
// given service account file, the GOOGLE_CREDENTIALS JSON environment
// variable, or application default credentials, in that order.
func NewVision(ctx context.Context, credentialsFile string) (*Vision, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	} else if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vision client: %w", err)
	}

	return &Vision{client: client}, nil
}

// Recognize runs document text detection on the image.
func (v *Vision) Recognize(ctx context.Context, imageData []byte, contentType string) (*Result, error) {
	finalImageData, _, _, err := prepareImageData(imageData, contentType)
	if err != nil {
		return nil, err
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: finalImageData},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("calling vision API: %w", err)
	}
	if len(resp.Responses) == 0 {
		return nil, fmt.Errorf("no response from vision API")
	}

	imgResp := resp.Responses[0]
	if imgResp.Error != nil {
		return nil, fmt.Errorf("vision API error: %s", imgResp.Error.Message)
	}

	annotation := imgResp.FullTextAnnotation
	if annotation == nil || strings.TrimSpace(annotation.Text) == "" {
		return &Result{}, nil
	}

	result := &Result{Text: strings.TrimRight(annotation.Text, "\n")}
	for _, page := range annotation.Pages {
		for _, block := range page.Blocks {
			b := Block{Box: boxFromPoly(block.BoundingBox)}
			for _, paragraph := range block.Paragraphs {
				lines := paragraphLines(paragraph)
				result.Lines = append(result.Lines, lines...)
				b.Lines = append(b.Lines, lines...)
			}
			if len(b.Lines) > 0 {
				result.Blocks = append(result.Blocks, b)
			}
		}
	}

	return result, nil
}

// paragraphLines splits a paragraph into its printed lines using the detected
// breaks. Vision paragraphs regularly span several printed lines, and the
// extraction layer depends on line granularity.
func paragraphLines(paragraph *visionpb.Paragraph) []Line {
	var lines []Line
	var text strings.Builder
	var confSum float64
	var words int
	var box Box

	flush := func() {
		lineText := strings.TrimSpace(text.String())
		if lineText != "" {
			var conf float64
			if words > 0 {
				conf = confSum / float64(words)
			}
			lines = append(lines, Line{Text: lineText, Confidence: conf, Box: box})
		}
		text.Reset()
		confSum = 0
		words = 0
		box = Box{}
	}

	for _, word := range paragraph.Words {
		box = unionBox(box, boxFromPoly(word.BoundingBox))
		confSum += float64(word.Confidence)
		words++
		for _, symbol := range word.Symbols {
			text.WriteString(symbol.Text)
			if symbol.Property == nil || symbol.Property.DetectedBreak == nil {
				continue
			}
			switch symbol.Property.DetectedBreak.Type {
			case visionpb.TextAnnotation_DetectedBreak_SPACE,
				visionpb.TextAnnotation_DetectedBreak_SURE_SPACE:
				text.WriteString(" ")
			case visionpb.TextAnnotation_DetectedBreak_HYPHEN:
				text.WriteString("-")
				flush()
			case visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE,
				visionpb.TextAnnotation_DetectedBreak_LINE_BREAK:
				flush()
			}
		}
	}
	flush()

	return lines
}

func boxFromPoly(poly *visionpb.BoundingPoly) Box {
	if poly == nil || len(poly.Vertices) == 0 {
		return Box{}
	}
	minX, minY := int(poly.Vertices[0].X), int(poly.Vertices[0].Y)
	maxX, maxY := minX, minY
	for _, v := range poly.Vertices[1:] {
		minX = min(minX, int(v.X))
		minY = min(minY, int(v.Y))
		maxX = max(maxX, int(v.X))
		maxY = max(maxY, int(v.Y))
	}
	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func unionBox(a, b Box) Box {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	minX := min(a.X, b.X)
	minY := min(a.Y, b.Y)
	maxX := max(a.X+a.Width, b.X+b.Width)
	maxY := max(a.Y+a.Height, b.Y+b.Height)
	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Close closes the underlying Vision client.
func (v *Vision) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
