package parsers

import "github.com/mvp-joe/javamodel/internal/indexer/extraction"

// SpanCategory selects the end-line rule used by Resolve.
type SpanCategory int

const (
	// BraceDelimited nodes end at the brace that closes their body.
	BraceDelimited SpanCategory = iota
	// StatementTerminated nodes end at their first top-level semicolon.
	StatementTerminated
	// ParameterSpan nodes run from their name token to the next comma or closing parenthesis.
	ParameterSpan
)

// Anchor is everything Resolve knows about a node: where it starts and
// where scanning for its end begins. Line zero means the start is unknown.
type Anchor struct {
	Category SpanCategory
	Line     int
	Offset   uint
	Name     string
}

// Resolve computes the line span of a node from its anchor and the unit's
// token stream. It never fails: when the end cannot be found the span
// collapses to the start line. Scans only move forward from the anchor.
func Resolve(a Anchor, tokens TokenStream) extraction.Span {
	if a.Line <= 0 {
		return extraction.Span{}
	}

	switch a.Category {
	case BraceDelimited:
		return spanOf(a.Line, scanBlock(tokens, a.Offset))
	case StatementTerminated:
		return spanOf(a.Line, scanStatement(tokens, tokens.indexAt(a.Offset)))
	case ParameterSpan:
		return resolveParameter(a, tokens)
	}
	return spanOf(a.Line, 0)
}

func spanOf(start, end int) extraction.Span {
	if end < start {
		end = start
	}
	return extraction.Span{StartLine: extraction.Line(start), EndLine: extraction.Line(end)}
}

// scanBlock returns the line of the brace that brings the depth back to zero.
// A semicolon reached before any opening brace ends the node as a statement.
func scanBlock(tokens TokenStream, offset uint) int {
	depth := 0
	opened := false
	for i := tokens.indexAt(offset); i < len(tokens); i++ {
		switch tokens[i].Text {
		case "{":
			depth++
			opened = true
		case "}":
			if !opened {
				return 0
			}
			depth--
			if depth == 0 {
				return tokens[i].Line
			}
		case ";":
			if !opened {
				return tokens[i].Line
			}
		}
	}
	return 0
}

// scanStatement returns the line of the first semicolon at brace depth zero.
func scanStatement(tokens TokenStream, from int) int {
	depth := 0
	for i := from; i < len(tokens); i++ {
		switch tokens[i].Text {
		case "{":
			depth++
		case "}":
			depth--
			if depth < 0 {
				return 0
			}
		case ";":
			if depth == 0 {
				return tokens[i].Line
			}
		}
	}
	return 0
}

func resolveParameter(a Anchor, tokens TokenStream) extraction.Span {
	name := -1
	for i := tokens.indexAt(a.Offset); i < len(tokens); i++ {
		if tokens[i].Text == a.Name {
			name = i
			break
		}
	}
	if name < 0 {
		return spanOf(a.Line, a.Line)
	}

	start := tokens[name].Line
	depth := 0
	for i := name + 1; i < len(tokens); i++ {
		switch tokens[i].Text {
		case "(":
			depth++
		case ")":
			if depth == 0 {
				return spanOf(start, tokens[i].Line)
			}
			depth--
		case ",":
			if depth == 0 {
				return spanOf(start, tokens[i].Line)
			}
		}
	}
	return spanOf(start, start)
}
