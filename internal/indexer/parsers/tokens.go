package parsers

import (
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Token is a leaf of the concrete syntax tree.
type Token struct {
	Kind   string
	Text   string
	Line   int
	Offset uint
}

// TokenStream is the ordered token sequence of one compilation unit, comments excluded.
type TokenStream []Token

// atomicKinds are subtrees emitted as a single token so that delimiters
// inside literals never reach the brace and delimiter scans.
var atomicKinds = map[string]bool{
	"string_literal":    true,
	"character_literal": true,
}

// newTokenStream flattens the leaves of root into a token stream.
func newTokenStream(root *sitter.Node, source []byte) TokenStream {
	var tokens TokenStream
	walkTree(root, func(n *sitter.Node) bool {
		if isComment(n) || n.IsMissing() {
			return false
		}
		if n.ChildCount() == 0 || atomicKinds[n.Kind()] {
			if n.EndByte() > n.StartByte() {
				tokens = append(tokens, Token{
					Kind:   n.Kind(),
					Text:   nodeText(n, source),
					Line:   startLine(n),
					Offset: n.StartByte(),
				})
			}
			return false
		}
		return true
	})
	return tokens
}

// indexAt returns the index of the first token starting at or after offset.
func (s TokenStream) indexAt(offset uint) int {
	return sort.Search(len(s), func(i int) bool {
		return s[i].Offset >= offset
	})
}
