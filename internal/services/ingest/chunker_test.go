package ingest

import (
	"strings"
	"testing"

	"github.com/ternarybob/livewire/internal/common"
)

func testChunker() *chunker {
	return newChunker(&common.IngestConfig{
		MaxChunkChars: 1000,
		OverlapChars:  100,
		MinChunkChars: 15,
	})
}

func TestChunker_Split(t *testing.T) {
	t.Run("Paragraphs become separate units", func(t *testing.T) {
		c := testChunker()
		pages := []Page{{Number: 1, Text: "When the customer raises price concerns, acknowledge them first.\n\nThen pivot to the value the product delivers over its lifetime."}}

		units := c.split(pages)
		if len(units) != 2 {
			t.Fatalf("Expected 2 units, got %d", len(units))
		}
		if units[0].page != 1 || units[1].page != 1 {
			t.Errorf("Expected page 1 on both units, got %d and %d", units[0].page, units[1].page)
		}
	})

	t.Run("Section headings become metadata, not chunks", func(t *testing.T) {
		c := testChunker()
		pages := []Page{{Number: 2, Text: "OBJECTION HANDLING\n\nWhen price comes up, never discount immediately. Restate the value first."}}

		units := c.split(pages)
		if len(units) != 1 {
			t.Fatalf("Expected 1 unit, got %d", len(units))
		}
		if units[0].section != "OBJECTION HANDLING" {
			t.Errorf("Expected section metadata, got %q", units[0].section)
		}
		if strings.Contains(units[0].text, "OBJECTION HANDLING") {
			t.Error("Heading text should not appear in the chunk body")
		}
	})

	t.Run("Noise units are discarded", func(t *testing.T) {
		c := testChunker()
		pages := []Page{{Number: 1, Text: "ok\n\n---\n\nTitle: Sales Playbook\n\nA real paragraph with enough content to keep."}}

		units := c.split(pages)
		if len(units) != 1 {
			t.Fatalf("Expected only the real paragraph, got %d units", len(units))
		}
	})

	t.Run("Section resets at page boundaries", func(t *testing.T) {
		c := testChunker()
		pages := []Page{
			{Number: 1, Text: "PRICING\n\nLead with annual value framing before quoting monthly numbers."},
			{Number: 2, Text: "A paragraph on the next page without a heading of its own."},
		}

		units := c.split(pages)
		if len(units) != 2 {
			t.Fatalf("Expected 2 units, got %d", len(units))
		}
		if units[0].section != "PRICING" {
			t.Errorf("Expected PRICING section, got %q", units[0].section)
		}
		if units[1].section != "" {
			t.Errorf("Section should not leak across pages, got %q", units[1].section)
		}
	})
}

func TestChunker_SplitBlock(t *testing.T) {
	t.Run("Oversized block is re-split with overlap", func(t *testing.T) {
		c := newChunker(&common.IngestConfig{MaxChunkChars: 80, OverlapChars: 20, MinChunkChars: 5})

		lines := []string{
			"First line of the oversized paragraph with some detail.",
			"Second line continues the same thought with more detail.",
			"Third line closes out the paragraph entirely.",
		}
		block := strings.Join(lines, "\n")

		pieces := c.splitBlock(block)
		if len(pieces) < 2 {
			t.Fatalf("Expected multiple pieces, got %d", len(pieces))
		}

		for i, piece := range pieces {
			if len(piece) > 80+20+1 {
				t.Errorf("Piece %d exceeds cap plus overlap: %d chars", i, len(piece))
			}
		}

		// Each piece after the first starts with the tail of its predecessor.
		for i := 1; i < len(pieces); i++ {
			tail := pieces[i-1]
			if len(tail) > 20 {
				tail = tail[len(tail)-20:]
			}
			if !strings.HasPrefix(pieces[i], tail) {
				t.Errorf("Piece %d does not carry the overlap tail", i)
			}
		}
	})

	t.Run("Single over-cap line falls back to sentences", func(t *testing.T) {
		c := newChunker(&common.IngestConfig{MaxChunkChars: 60, OverlapChars: 10, MinChunkChars: 5})

		line := "The first sentence sets context. The second sentence adds detail. The third sentence concludes."
		pieces := c.splitBlock(line)
		if len(pieces) < 2 {
			t.Fatalf("Expected sentence-level split, got %d pieces", len(pieces))
		}
		if !strings.Contains(pieces[0], "The first sentence sets context.") {
			t.Errorf("First piece should keep its terminator: %q", pieces[0])
		}
	})

	t.Run("Block under the cap passes through unchanged", func(t *testing.T) {
		c := testChunker()
		block := "A short block well under the chunk cap."

		pieces := c.splitBlock(block)
		if len(pieces) != 1 || pieces[0] != block {
			t.Errorf("Expected pass-through, got %v", pieces)
		}
	})
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("Is it working? Yes it is. Great!")
	if len(sentences) != 3 {
		t.Fatalf("Expected 3 sentences, got %d: %v", len(sentences), sentences)
	}
	if sentences[0] != "Is it working?" {
		t.Errorf("Terminator should stay with its sentence: %q", sentences[0])
	}
}

func TestIsSectionHeading(t *testing.T) {
	cases := []struct {
		block string
		want  bool
	}{
		{"OBJECTION HANDLING", true},
		{"PRICING 101", true},
		{"Objection Handling", false},
		{"OBJECTION HANDLING:", false},
		{"LINE ONE\nLINE TWO", false},
		{strings.Repeat("A", 61), false},
		{"12345", false},
	}

	for _, tc := range cases {
		if got := isSectionHeading(tc.block); got != tc.want {
			t.Errorf("isSectionHeading(%q) = %v, want %v", tc.block, got, tc.want)
		}
	}
}
