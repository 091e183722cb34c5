package extractor

import (
	"fmt"
	"strings"
	"testing"
)

func TestChunker_ShortTextSingleChunk(t *testing.T) {
	c := NewChunker(100, 20)
	got := c.Split("A short sentence.")
	if len(got) != 1 || got[0] != "A short sentence." {
		t.Fatalf("expected single chunk, got %v", got)
	}
}

func TestChunker_EmptyText(t *testing.T) {
	c := NewChunker(100, 20)
	if got := c.Split("   \n  "); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestChunker_NoGapsAndCoverage(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&sb, "Sentence number %d talks about the market. ", i)
	}
	text := strings.TrimSpace(sb.String())
	c := NewChunker(200, 50)
	segments := c.Split(text)
	if len(segments) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segments))
	}
	prevStart, prevEnd := -1, 0
	for i, seg := range segments {
		if len(seg) > 200 {
			t.Fatalf("segment %d exceeds max size: %d", i, len(seg))
		}
		from := prevStart + 1
		if from < 0 {
			from = 0
		}
		offset := strings.Index(text[from:], seg)
		if offset < 0 {
			t.Fatalf("segment %d is not a slice of the input", i)
		}
		start := from + offset
		if start > prevEnd {
			t.Fatalf("gap before segment %d: start %d, previous end %d", i, start, prevEnd)
		}
		prevStart, prevEnd = start, start+len(seg)
	}
	if prevEnd != len(text) {
		t.Fatalf("segments do not cover input: covered %d of %d", prevEnd, len(text))
	}
}

func TestChunker_PrefersSentenceBoundary(t *testing.T) {
	text := strings.Repeat("One short sentence here. ", 20)
	text = strings.TrimSpace(text)
	c := NewChunker(100, 10)
	segments := c.Split(text)
	for i, seg := range segments[:len(segments)-1] {
		trimmed := strings.TrimRight(seg, " ")
		if !strings.HasSuffix(trimmed, ".") {
			t.Fatalf("segment %d does not end on a sentence boundary: %q", i, seg)
		}
	}
}

func TestChunker_HardSplitsOversizedSentence(t *testing.T) {
	text := strings.Repeat("x", 500)
	c := NewChunker(120, 20)
	segments := c.Split(text)
	if len(segments) < 4 {
		t.Fatalf("expected hard splits, got %d segments", len(segments))
	}
	for i, seg := range segments {
		if len(seg) > 120 {
			t.Fatalf("segment %d exceeds max size", i)
		}
	}
}

func TestChunker_Deterministic(t *testing.T) {
	text := strings.Repeat("Prices rose sharply in March. Demand stayed flat. ", 40)
	c := NewChunker(180, 40)
	a := c.Split(text)
	b := c.Split(text)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic split: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("segment %d differs between runs", i)
		}
	}
}

func TestChunker_MultiByteSafe(t *testing.T) {
	text := strings.Repeat("Päivän hinta nousi selvästi ylös. ", 30)
	c := NewChunker(90, 15)
	for i, seg := range c.Split(text) {
		if !strings.Contains(text, seg) {
			t.Fatalf("segment %d split a multi-byte rune: %q", i, seg)
		}
	}
}
