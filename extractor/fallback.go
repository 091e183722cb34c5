package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minFallbackChars is the minimum amount of printable text the generic
// fallback must recover before chunks are produced from it.
const minFallbackChars = 100

// extractPrintableText salvages readable text from bytes whose structure
// could not be parsed. Invalid UTF-8 and control characters are dropped,
// runs of whitespace collapse to a single space.
func extractPrintableText(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	space := true
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if r == utf8.RuneError && size == 1 {
			continue
		}
		if unicode.IsSpace(r) {
			if !space {
				sb.WriteByte(' ')
				space = true
			}
			continue
		}
		if !unicode.IsPrint(r) {
			continue
		}
		sb.WriteRune(r)
		space = false
	}
	return strings.TrimSpace(sb.String())
}

// cleanText strips NUL bytes and surrounding whitespace from extracted text.
func cleanText(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\x00", ""))
}

// fallbackChunks runs the generic salvage pass and chunks the result when
// enough printable text survives.
func fallbackChunks(chunker *Chunker, data []byte) []string {
	text := extractPrintableText(data)
	if utf8.RuneCountInString(text) <= minFallbackChars {
		return nil
	}
	return chunker.Split(text)
}
