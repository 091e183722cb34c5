package extractor

import (
	"strings"
	"unicode/utf8"
)

// Chunker splits text into segments of at most maxSize bytes, cutting on
// sentence boundaries where possible and carrying an overlap between
// consecutive segments so context survives the cut. Cuts are aligned to rune
// starts so multi-byte characters never split.
type Chunker struct {
	maxSize int
	overlap int
}

// NewChunker creates a Chunker. maxSize must exceed overlap; out-of-range
// values fall back to defaults.
func NewChunker(maxSize, overlap int) *Chunker {
	if maxSize <= 0 {
		maxSize = 1024
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = maxSize / 5
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}
}

// Split cuts text into segments. Every segment is a contiguous slice of the
// input; consecutive segments overlap by up to c.overlap bytes. Splitting is
// deterministic.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.maxSize {
		return []string{text}
	}
	boundaries := sentenceBoundaries(text)
	var segments []string
	start := 0
	for start < len(text) {
		if len(text)-start <= c.maxSize {
			segments = append(segments, text[start:])
			break
		}
		end := alignRuneStart(text, start+c.maxSize)
		if cut := lastBoundaryBefore(boundaries, start, end); cut > start {
			end = cut
		}
		segments = append(segments, text[start:end])
		next := alignRuneStart(text, end-c.overlap)
		if next <= start {
			next = end
		}
		start = next
	}
	return segments
}

// sentenceBoundaries returns offsets just past each sentence terminator
// followed by whitespace. Newlines count as boundaries too, so page markers
// and paragraph breaks stay intact.
func sentenceBoundaries(text string) []int {
	var offsets []int
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
				offsets = append(offsets, i+1)
			}
		case '\n':
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

func lastBoundaryBefore(boundaries []int, start, end int) int {
	cut := -1
	for _, b := range boundaries {
		if b <= start {
			continue
		}
		if b > end {
			break
		}
		cut = b
	}
	return cut
}

// alignRuneStart moves offset back to the nearest rune start so segments
// never split a multi-byte character.
func alignRuneStart(text string, offset int) int {
	if offset < 0 {
		return 0
	}
	if offset >= len(text) {
		return len(text)
	}
	for offset > 0 && !utf8.RuneStart(text[offset]) {
		offset--
	}
	return offset
}
