package indexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
)

// Test Plan for CodeChunker:
// - Character budget is (token limit - overhead) * 4
// - Code within the budget is a single chunk
// - Chunks split on line boundaries and each line counts its newline
// - A line longer than the budget forms its own chunk
// - Chunk line ranges are contiguous and offset by the first line
// - Empty code yields no chunks

func TestCodeChunker_CharLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 6000, NewCodeChunker(2000, 500).CharLimit())
	assert.Equal(t, 40, NewCodeChunker(20, 10).CharLimit())
}

func TestCodeChunker_SingleChunk(t *testing.T) {
	t.Parallel()

	code := "int code() {\n    return code;\n}"
	chunks := NewCodeChunker(2000, 500).Chunk(code, 39)

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, code, chunks[0].Text)
	assert.Equal(t, extraction.Span{StartLine: 39, EndLine: 41}, chunks[0].Span)
}

func TestCodeChunker_SplitsOnLines(t *testing.T) {
	t.Parallel()

	// Budget of 12 characters: each 5-character line costs 6
	chunker := NewCodeChunker(4, 1)
	code := "aaaaa\nbbbbb\nccccc\nddddd\neeeee"

	chunks := chunker.Chunk(code, 10)

	require.Len(t, chunks, 3)
	assert.Equal(t, "aaaaa\nbbbbb", chunks[0].Text)
	assert.Equal(t, "ccccc\nddddd", chunks[1].Text)
	assert.Equal(t, "eeeee", chunks[2].Text)

	assert.Equal(t, extraction.Span{StartLine: 10, EndLine: 11}, chunks[0].Span)
	assert.Equal(t, extraction.Span{StartLine: 12, EndLine: 13}, chunks[1].Span)
	assert.Equal(t, extraction.Span{StartLine: 14, EndLine: 14}, chunks[2].Span)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestCodeChunker_LongLine(t *testing.T) {
	t.Parallel()

	chunker := NewCodeChunker(4, 1)
	long := strings.Repeat("x", 30)

	chunks := chunker.Chunk("ab\n"+long+"\ncd", 1)

	require.Len(t, chunks, 3)
	assert.Equal(t, "ab", chunks[0].Text)
	assert.Equal(t, long, chunks[1].Text)
	assert.Equal(t, extraction.Span{StartLine: 2, EndLine: 2}, chunks[1].Span)
	assert.Equal(t, "cd", chunks[2].Text)
}

func TestCodeChunker_Empty(t *testing.T) {
	t.Parallel()

	chunks := NewCodeChunker(2000, 500).Chunk("", 1)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
}
