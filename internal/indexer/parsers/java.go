package parsers

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
)

// JavaParser builds structural models of Java compilation units.
// It is safe for concurrent use; every call gets its own tree-sitter parser.
type JavaParser struct {
	language *sitter.Language
}

// NewJavaParser creates a new Java parser.
func NewJavaParser() *JavaParser {
	return &JavaParser{language: sitter.NewLanguage(java.Language())}
}

// Parse builds the SourceUnit for source. Parsing is all or nothing: any
// syntax error yields a *ParseError and no unit.
func (p *JavaParser) Parse(source []byte) (*extraction.SourceUnit, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, &ParseError{Category: CategoryUnclassified, Message: fmt.Sprintf("load grammar: %v", err)}
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, &ParseError{Category: CategoryUnclassified, Message: "parser produced no tree"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, classifyFailure(root, source)
	}

	tokens := newTokenStream(root, source)
	return newBuilder(source, tokens).build(root, string(source))
}

// ParseFile reads and parses a Java source file.
func (p *JavaParser) ParseFile(ctx context.Context, filePath string) (*extraction.SourceUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	return p.Parse(source)
}
