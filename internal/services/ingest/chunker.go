package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ternarybob/livewire/internal/common"
)

var blankLineSplit = regexp.MustCompile(`\n\s*\n`)

// unit is an intermediate chunk candidate before IDs and metadata are
// attached.
type unit struct {
	text    string
	page    int
	section string
}

// chunker splits extracted page text into bounded units. Splitting is
// paragraph-first; oversized paragraphs are re-split greedily by line with
// a fixed tail overlap carried into the next unit, and a single over-cap
// line falls back to sentence boundaries.
type chunker struct {
	maxChars     int
	overlapChars int
	minChars     int
}

func newChunker(config *common.IngestConfig) *chunker {
	return &chunker{
		maxChars:     config.MaxChunkChars,
		overlapChars: config.OverlapChars,
		minChars:     config.MinChunkChars,
	}
}

func (c *chunker) split(pages []Page) []unit {
	var units []unit

	for _, page := range pages {
		section := ""

		for _, block := range blankLineSplit.Split(page.Text, -1) {
			block = strings.TrimSpace(block)
			if block == "" || strings.HasPrefix(block, "---") || strings.HasPrefix(block, "Title:") {
				continue
			}

			// Section headings become metadata for the chunks that follow
			// on this page, not chunks of their own.
			if isSectionHeading(block) {
				section = block
				continue
			}

			for _, text := range c.splitBlock(block) {
				text = strings.TrimSpace(text)
				if len(text) < c.minChars {
					continue // noise
				}
				units = append(units, unit{text: text, page: page.Number, section: section})
			}
		}
	}

	return units
}

// splitBlock re-splits an oversized paragraph greedily by line. Each
// emitted piece after the first starts with the tail of its predecessor so
// retrieval context survives the boundary.
func (c *chunker) splitBlock(block string) []string {
	if len(block) <= c.maxChars {
		return []string{block}
	}

	var pieces []string
	current := ""

	flush := func() {
		if strings.TrimSpace(current) != "" {
			pieces = append(pieces, current)
			current = c.overlapTail(current)
		}
	}

	for _, line := range strings.Split(block, "\n") {
		if len(line) > c.maxChars {
			// A single over-cap line: fall back to sentence boundaries.
			for _, sentence := range splitSentences(line) {
				if current != "" && len(current)+1+len(sentence) > c.maxChars {
					flush()
				}
				current = joinPiece(current, sentence, " ")
			}
			continue
		}

		if current != "" && len(current)+1+len(line) > c.maxChars {
			flush()
		}
		current = joinPiece(current, line, "\n")
	}

	if strings.TrimSpace(current) != "" {
		pieces = append(pieces, current)
	}
	return pieces
}

func (c *chunker) overlapTail(text string) string {
	if len(text) <= c.overlapChars {
		return text
	}
	return text[len(text)-c.overlapChars:]
}

func joinPiece(current, next, sep string) string {
	if current == "" {
		return next
	}
	return current + sep + next
}

var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// splitSentences splits a line after terminal punctuation. The terminator
// stays with its sentence.
func splitSentences(line string) []string {
	marked := sentenceEnd.ReplaceAllString(line, "$1\x00")
	var sentences []string
	for _, s := range strings.Split(marked, "\x00") {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, strings.TrimSpace(s))
		}
	}
	return sentences
}

// isSectionHeading reports whether a block is a short, all-uppercase,
// unpunctuated line such as "OBJECTION HANDLING".
func isSectionHeading(block string) bool {
	if strings.Contains(block, "\n") || len(block) > 60 {
		return false
	}
	if strings.ContainsAny(block, ".,:;!?") {
		return false
	}

	hasLetter := false
	for _, r := range block {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}
