package scanning

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Tesseract implements the Engine interface by shelling out to the tesseract
// CLI. A single TSV run yields the text, per-word confidence and geometry.
type Tesseract struct {
	runner Runner
	binary string
	lang   string
}

// NewTesseract creates a tesseract-backed engine using the binary on PATH.
// An empty lang defaults to eng.
func NewTesseract(lang string) *Tesseract {
	return NewTesseractWithRunner(execRunner{}, lang)
}

// NewTesseractWithRunner creates a Tesseract with an explicit command runner.
func NewTesseractWithRunner(runner Runner, lang string) *Tesseract {
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{
		runner: runner,
		binary: "tesseract",
		lang:   lang,
	}
}

// Recognize writes the image to a temporary file and runs one tesseract TSV
// pass over it.
func (t *Tesseract) Recognize(ctx context.Context, imageData []byte, contentType string) (*Result, error) {
	finalImageData, _, _, err := prepareImageData(imageData, contentType)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "idscan-*.png")
	if err != nil {
		return nil, fmt.Errorf("creating temp image: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(finalImageData); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing temp image: %w", err)
	}

	// tesseract <file> stdout -l <lang> tsv
	args := []string{tmp.Name(), "stdout", "-l", t.lang, "tsv"}
	out, errb, err := t.runner.Run(ctx, t.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w (stderr: %s)", err, truncate(string(errb), 8<<10))
	}

	return parseTSV(string(out)), nil
}

// Close is a no-op; tesseract holds no persistent resources.
func (t *Tesseract) Close() error {
	return nil
}

// parseTSV rebuilds text, lines and blocks from tesseract's word-level TSV
// rows. Column order: level, page_num, block_num, par_num, line_num,
// word_num, left, top, width, height, conf, text. Words with a negative
// confidence are kept in the text but excluded from the line average.
func parseTSV(out string) *Result {
	result := &Result{}

	var (
		lineKey   string
		blockKey  string
		line      Line
		confSum   float64
		confCount int
		block     Block
	)

	flushLine := func() {
		if line.Text == "" {
			return
		}
		if confCount > 0 {
			line.Confidence = confSum / float64(confCount) / 100.0
		}
		result.Lines = append(result.Lines, line)
		block.Lines = append(block.Lines, line)
		block.Box = unionBox(block.Box, line.Box)
		line = Line{}
		confSum = 0
		confCount = 0
	}
	flushBlock := func() {
		flushLine()
		if len(block.Lines) > 0 {
			result.Blocks = append(result.Blocks, block)
		}
		block = Block{}
	}

	for i, row := range strings.Split(out, "\n") {
		if i == 0 || strings.TrimSpace(row) == "" {
			continue // header
		}
		cols := strings.SplitN(row, "\t", 12)
		if len(cols) < 12 {
			continue // malformed row
		}
		if cols[0] != "5" {
			continue // only word rows carry text
		}
		word := strings.TrimSpace(cols[11])
		if word == "" {
			continue
		}

		bk := cols[1] + ":" + cols[2]
		lk := bk + ":" + cols[3] + ":" + cols[4]
		if bk != blockKey {
			flushBlock()
			blockKey = bk
			lineKey = lk
		} else if lk != lineKey {
			flushLine()
			lineKey = lk
		}

		if line.Text != "" {
			line.Text += " "
		}
		line.Text += word
		line.Box = unionBox(line.Box, wordBox(cols))
		if conf, err := strconv.ParseFloat(cols[10], 64); err == nil && conf >= 0 {
			confSum += conf
			confCount++
		}
	}
	flushBlock()

	var text strings.Builder
	for i, b := range result.Blocks {
		if i > 0 {
			text.WriteString("\n")
		}
		for _, l := range b.Lines {
			text.WriteString(l.Text)
			text.WriteString("\n")
		}
	}
	result.Text = strings.TrimRight(text.String(), "\n")

	return result
}

func wordBox(cols []string) Box {
	left, err1 := strconv.Atoi(cols[6])
	top, err2 := strconv.Atoi(cols[7])
	width, err3 := strconv.Atoi(cols[8])
	height, err4 := strconv.Atoi(cols[9])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return Box{}
	}
	return Box{X: left, Y: top, Width: width, Height: height}
}
