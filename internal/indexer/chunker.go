package indexer

import (
	"strings"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
)

// charsPerToken approximates token counts from character counts.
const charsPerToken = 4

// CodeChunk is a line-aligned slice of a member's raw code.
type CodeChunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	extraction.Span
}

// CodeChunker splits raw code into chunks that fit a documentation prompt.
type CodeChunker struct {
	charLimit int // approximate characters per chunk
}

// NewCodeChunker creates a chunker for a model with tokenLimit tokens of
// context, tokenOverhead of which are reserved for the prompt template.
func NewCodeChunker(tokenLimit, tokenOverhead int) *CodeChunker {
	return &CodeChunker{
		charLimit: (tokenLimit - tokenOverhead) * charsPerToken,
	}
}

// CharLimit returns the approximate character budget of a chunk.
func (c *CodeChunker) CharLimit() int {
	return c.charLimit
}

// Chunk splits code into chunks of whole lines. A chunk is closed before the
// line that would push it past the character limit; each line counts its
// terminating newline. A single line longer than the limit forms its own chunk.
// firstLine is the source line number of the first line of code.
func (c *CodeChunker) Chunk(code string, firstLine extraction.Line) []CodeChunk {
	chunks := []CodeChunk{}
	if code == "" {
		return chunks
	}

	var (
		current []string
		size    int
		start   = firstLine
	)

	flush := func(end extraction.Line) {
		chunks = append(chunks, CodeChunk{
			Index: len(chunks),
			Text:  strings.Join(current, "\n"),
			Span:  extraction.Span{StartLine: start, EndLine: end},
		})
		current, size = current[:0], 0
	}

	for i, line := range strings.Split(code, "\n") {
		lineNo := firstLine + extraction.Line(i)
		lineLen := len(line) + 1

		if size+lineLen > c.charLimit && len(current) > 0 {
			flush(lineNo - 1)
			start = lineNo
		}
		current = append(current, line)
		size += lineLen
	}
	if len(current) > 0 {
		flush(start + extraction.Line(len(current)) - 1)
	}

	return chunks
}
