package parsers

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
)

// ErrorCategory classifies a failed parse.
type ErrorCategory string

const (
	// CategoryLexical covers unterminated literals or comments and invalid characters.
	CategoryLexical ErrorCategory = "lexical"
	// CategoryGrammar covers token streams that do not form valid declarations.
	CategoryGrammar ErrorCategory = "grammar"
	// CategoryUnclassified covers any other failure while tokenizing or parsing.
	CategoryUnclassified ErrorCategory = "unclassified"
)

// ParseError is returned in place of a SourceUnit when a parse fails.
// Line and Column are 1-based and zero when unknown.
type ParseError struct {
	Category ErrorCategory
	Message  string
	Line     int
	Column   int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s at line %d, column %d", e.Category, e.Message, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// ErrorRecordFor converts an error into the single-key failure record.
// Errors that are not ParseErrors are reported as unclassified.
func ErrorRecordFor(err error) extraction.ErrorRecord {
	var pe *ParseError
	if errors.As(err, &pe) {
		return extraction.ErrorRecord{Error: pe.Error()}
	}
	return extraction.ErrorRecord{Error: fmt.Sprintf("%s: %v", CategoryUnclassified, err)}
}

// IsCategory reports whether err is a ParseError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Category == category
	}
	return false
}

func newParseError(category ErrorCategory, node *sitter.Node, format string, args ...any) *ParseError {
	pe := &ParseError{Category: category, Message: fmt.Sprintf(format, args...)}
	if node != nil {
		pos := node.StartPosition()
		pe.Line = int(pos.Row) + 1
		pe.Column = int(pos.Column) + 1
	}
	return pe
}

// classifyFailure turns a tree that reported errors into a ParseError. Any
// fault that prevents tokenizing the source wins; otherwise the first ERROR
// or MISSING node names the grammar problem.
func classifyFailure(root *sitter.Node, source []byte) *ParseError {
	if msg, at, ok := lexicalFault(string(source)); ok {
		line, column := positionOf(source, at)
		return &ParseError{Category: CategoryLexical, Message: msg, Line: line, Column: column}
	}

	var culprit *sitter.Node
	walkTree(root, func(n *sitter.Node) bool {
		if culprit != nil {
			return false
		}
		if n.IsMissing() || n.IsError() {
			culprit = n
			return false
		}
		return n.HasError()
	})

	if culprit == nil {
		return newParseError(CategoryUnclassified, nil, "parser reported an error without an error node")
	}
	if culprit.IsMissing() {
		return newParseError(CategoryGrammar, culprit, "missing %q", culprit.Kind())
	}
	return newParseError(CategoryGrammar, culprit, "unexpected %q", excerpt(nodeText(culprit, source)))
}

// lexicalFault scans text for problems that prevent tokenization rather than
// parsing, returning the byte offset where the offending token starts.
func lexicalFault(text string) (string, int, bool) {
	for i := 0; i < len(text); {
		switch {
		case strings.HasPrefix(text[i:], `"""`):
			end := strings.Index(text[i+3:], `"""`)
			if end < 0 {
				return "unterminated text block", i, true
			}
			i += 3 + end + 3
		case text[i] == '"' || text[i] == '\'':
			end := closingQuote(text, i)
			if end < 0 {
				if text[i] == '"' {
					return "unterminated string literal", i, true
				}
				return "unterminated character literal", i, true
			}
			i = end + 1
		case strings.HasPrefix(text[i:], "/*"):
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				return "unterminated comment", i, true
			}
			i += 2 + end + 2
		case strings.HasPrefix(text[i:], "//"):
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				return "", -1, false
			}
			i += end + 1
		default:
			r, size := utf8.DecodeRuneInString(text[i:])
			if (r == utf8.RuneError && size == 1) || !isJavaRune(r) {
				return fmt.Sprintf("invalid character %q", r), i, true
			}
			i += size
		}
	}
	return "", -1, false
}

// positionOf converts a byte offset into a 1-based line and column.
func positionOf(source []byte, offset int) (int, int) {
	before := source[:offset]
	line := bytes.Count(before, []byte{'\n'}) + 1
	column := offset - bytes.LastIndexByte(before, '\n')
	return line, column
}

// closingQuote returns the byte index of the quote closing the literal opened
// at start, or -1 when the literal runs into a newline or the end of text.
func closingQuote(text string, start int) int {
	quote := text[start]
	for i := start + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '\n':
			return -1
		case quote:
			return i
		}
	}
	return -1
}

func isJavaRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '\uFEFF' {
		return true
	}
	return strings.ContainsRune("_$(){}[];,.@=><!~?:+-*/&|^%\\", r)
}

func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 40 {
		return text[:40] + "..."
	}
	return text
}
