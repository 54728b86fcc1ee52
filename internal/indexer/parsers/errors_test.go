package parsers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test Plan for parse errors:
// - Lexical faults are detected with their offset: unterminated literals, comments and invalid characters
// - A byte order mark is not an invalid character
// - Byte offsets convert to 1-based line and column
// - Well-formed fragments are not lexical faults
// - ParseError formats category, message and position
// - ErrorRecordFor reports foreign errors as unclassified

func TestLexicalFault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		fault bool
		want  string
		at    int
	}{
		{"unterminated string", `String s = "open;`, true, "unterminated string literal", 11},
		{"string ends at newline", "\"open\n\";", true, "unterminated string literal", 0},
		{"unterminated char", `char c = 'x;`, true, "unterminated character literal", 9},
		{"unterminated text block", `String s = """` + "\nabc", true, "unterminated text block", 11},
		{"unterminated comment", "/* never closed", true, "unterminated comment", 0},
		{"invalid character", "int x = 1 # 2;", true, `invalid character '#'`, 10},
		{"backtick", "int `x` = 1;", true, "invalid character '`'", 4},
		{"escaped quote", `"a \" b"`, false, "", -1},
		{"closed comment", "/* ok */ int x;", false, "", -1},
		{"line comment", "// \"not a string\n}", false, "", -1},
		{"byte order mark", "\uFEFFclass A {}", false, "", -1},
		{"plain tokens", "void m() { return; }", false, "", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg, at, ok := lexicalFault(tt.text)
			assert.Equal(t, tt.fault, ok)
			assert.Equal(t, tt.want, msg)
			assert.Equal(t, tt.at, at)
		})
	}
}

func TestPositionOf(t *testing.T) {
	t.Parallel()

	source := []byte("class A {\n    String s = \"x;\n}")
	line, column := positionOf(source, 0)
	assert.Equal(t, []int{1, 1}, []int{line, column})
	line, column = positionOf(source, 25)
	assert.Equal(t, []int{2, 16}, []int{line, column})
}

func TestParseError_Format(t *testing.T) {
	t.Parallel()

	err := &ParseError{Category: CategoryGrammar, Message: `missing "}"`, Line: 5, Column: 1}
	assert.Equal(t, `grammar: missing "}" at line 5, column 1`, err.Error())
	assert.Equal(t, `grammar: missing "}" at line 5, column 1`, ErrorRecordFor(err).Error)
	assert.True(t, IsCategory(err, CategoryGrammar))
	assert.False(t, IsCategory(err, CategoryLexical))

	noPos := &ParseError{Category: CategoryUnclassified, Message: "parser produced no tree"}
	assert.Equal(t, "unclassified: parser produced no tree", noPos.Error())

	assert.Equal(t, "unclassified: boom", ErrorRecordFor(errors.New("boom")).Error)
	assert.False(t, IsCategory(errors.New("boom"), CategoryUnclassified))
}
