package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitChunksShortTextIsSingleChunk(t *testing.T) {
	text := "Day 1\n\nMorning at the beach."

	got := SplitChunks(text, 100)
	if len(got) != 1 || got[0] != text {
		t.Errorf("SplitChunks = %v, want the input unchanged", got)
	}
}

func TestSplitChunksGreedyParagraphPacking(t *testing.T) {
	a := strings.Repeat("a", 30)
	b := strings.Repeat("b", 30)
	c := strings.Repeat("c", 30)
	text := a + "\n\n" + b + "\n\n" + c

	got := SplitChunks(text, 70)

	// a+b fit together (62 runes), c flushes to a second chunk.
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2: %v", len(got), got)
	}
	if got[0] != a+"\n\n"+b {
		t.Errorf("first chunk = %q", got[0])
	}
	if got[1] != c {
		t.Errorf("second chunk = %q", got[1])
	}
}

func TestSplitChunksRespectsLimit(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 12; i++ {
		paragraphs = append(paragraphs, strings.Repeat("x", 40+i))
	}
	text := strings.Join(paragraphs, "\n\n")

	for _, chunk := range SplitChunks(text, 90) {
		if n := utf8.RuneCountInString(chunk); n > 90 {
			t.Errorf("chunk has %d runes, limit is 90", n)
		}
	}
}

func TestSplitChunksHardWrapsOversizedParagraph(t *testing.T) {
	text := strings.Repeat("段落テキスト", 20) // 120 runes, no blank lines

	got := SplitChunks(text, 50)

	if len(got) != 3 {
		t.Fatalf("got %d chunks, want 3", len(got))
	}
	for i, chunk := range got {
		if n := utf8.RuneCountInString(chunk); n > 50 {
			t.Errorf("chunk %d has %d runes, limit is 50", i, n)
		}
	}
	if strings.Join(got, "") != text {
		t.Error("hard-wrapped pieces must concatenate back to the original")
	}
}

func TestSplitChunksLosesNoText(t *testing.T) {
	text := "Header\n\n" + strings.Repeat("long line ", 30) + "\n\nFooter"

	chunks := SplitChunks(text, 60)
	joined := strings.Join(chunks, "")

	// Only the paragraph separators between whole paragraphs are
	// consumed; every other rune must survive.
	stripped := strings.ReplaceAll(text, "\n\n", "")
	strippedJoined := strings.ReplaceAll(joined, "\n\n", "")
	if strippedJoined != stripped {
		t.Error("chunking dropped or altered text")
	}
}
