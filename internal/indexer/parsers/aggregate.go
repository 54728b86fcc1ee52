package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
)

// builder assembles normalized declarations into a SourceUnit. Each type is
// built from its own header and members and returned by value; no record is
// modified after it has been attached to its parent.
type builder struct {
	norm *normalizer
}

func newBuilder(source []byte, tokens TokenStream) *builder {
	return &builder{norm: &normalizer{source: source, tokens: tokens}}
}

// build walks the top level of a compilation unit.
func (b *builder) build(root *sitter.Node, raw string) (*extraction.SourceUnit, error) {
	unit := extraction.NewSourceUnit(raw)

	for _, child := range childrenOf(root) {
		if !child.IsNamed() || isComment(child) {
			continue
		}

		kind := classify(child)
		switch {
		case kind == NodePackage:
			if len(unit.Packages) > 0 {
				return nil, newParseError(CategoryGrammar, child, "duplicate package declaration")
			}
			unit.Packages = append(unit.Packages, b.norm.packageDecl(child))
		case kind == NodeImport:
			unit.Imports = append(unit.Imports, b.norm.importDecl(child))
		case kind.IsType():
			unit.Types = append(unit.Types, b.buildType(child, kind))
		case child.Kind() == "module_declaration":
			// module-info.java carries no types.
		default:
			return nil, newParseError(CategoryGrammar, child, "unexpected %s at top level", child.Kind())
		}
	}

	return unit, nil
}

// buildType returns the complete record for a type declaration, including
// its members and nested types.
func (b *builder) buildType(node *sitter.Node, kind NodeKind) extraction.TypeDecl {
	t := b.norm.typeHeader(node, kind)
	fields, methods, inner := b.members(node.ChildByFieldName("body"), t.Name)
	t.Fields = append(t.Fields, fields...)
	t.Methods = append(t.Methods, methods...)
	t.InnerTypes = append(t.InnerTypes, inner...)
	return t
}

// members collects the direct members of a type body in source order.
// Declaration groups, such as the member section after enum constants, are
// flattened into the body.
func (b *builder) members(body *sitter.Node, enclosing string) ([]extraction.FieldDecl, []extraction.MethodDecl, []extraction.TypeDecl) {
	var (
		fields  []extraction.FieldDecl
		methods []extraction.MethodDecl
		inner   []extraction.TypeDecl
	)

	for _, child := range namedChildren(body) {
		kind := classify(child)
		switch {
		case kind == NodeDeclarationGroup:
			f, m, i := b.members(child, enclosing)
			fields = append(fields, f...)
			methods = append(methods, m...)
			inner = append(inner, i...)
		case kind.IsType():
			inner = append(inner, b.buildType(child, kind))
		default:
			for _, decl := range b.norm.normalize(child, enclosing) {
				switch d := decl.(type) {
				case extraction.FieldDecl:
					fields = append(fields, d)
				case extraction.MethodDecl:
					methods = append(methods, d)
				}
			}
		}
	}

	return fields, methods, inner
}
