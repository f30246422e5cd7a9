package scanning

import (
	"strings"
	"unicode"
)

// parseTranscript turns the plain-text transcription returned by an LLM
// backend into a Result. Lines are split on newlines, blocks on blank lines.
// The backends carry no geometry, so every box stays zero and confidence is
// estimated from the text.
func parseTranscript(raw string) *Result {
	text := normalizeTranscript(raw)

	result := &Result{Text: text}
	if text == "" {
		return result
	}

	var block Block
	for _, rawLine := range strings.Split(text, "\n") {
		lineText := strings.TrimSpace(rawLine)
		if lineText == "" {
			if len(block.Lines) > 0 {
				result.Blocks = append(result.Blocks, block)
				block = Block{}
			}
			continue
		}
		line := Line{Text: lineText, Confidence: estimateConfidence(lineText)}
		result.Lines = append(result.Lines, line)
		block.Lines = append(block.Lines, line)
	}
	if len(block.Lines) > 0 {
		result.Blocks = append(result.Blocks, block)
	}

	return result
}

// normalizeTranscript strips the markdown fences some models wrap their
// output in and normalizes line endings.
func normalizeTranscript(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)

	// Remove opening markdown code blocks
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	return strings.TrimSpace(text)
}

// estimateConfidence gives a crude per-line confidence for backends that do
// not report one. Clean alphanumeric lines score high; lines dominated by
// stray symbols or replacement characters score low.
func estimateConfidence(line string) float64 {
	conf := 0.5

	var letters, digits, spaces, other int
	for _, r := range line {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		case unicode.IsSpace(r):
			spaces++
		default:
			other++
		}
	}
	total := letters + digits + spaces + other
	if total == 0 {
		return 0
	}

	clean := float64(letters+digits+spaces) / float64(total)
	if clean >= 0.8 {
		conf += 0.3
	} else if clean < 0.5 {
		conf -= 0.3
	}
	if total >= 4 {
		conf += 0.1
	}
	if strings.ContainsRune(line, '�') {
		conf -= 0.3
	}

	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}
