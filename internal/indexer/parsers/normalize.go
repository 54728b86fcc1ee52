package parsers

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
)

// NodeKind is the closed set of grammar categories the normalizer understands.
type NodeKind int

const (
	NodeUnknown NodeKind = iota
	NodePackage
	NodeImport
	NodeClass
	NodeInterface
	NodeEnum
	NodeAnnotationType
	NodeRecord
	NodeField
	NodeConstant
	NodeMethod
	NodeConstructor
	NodeCompactConstructor
	NodeAnnotationElement
	NodeParameter
	NodeSpreadParameter
	NodeDeclarationGroup
)

var nodeKinds = map[string]NodeKind{
	"package_declaration":                 NodePackage,
	"import_declaration":                  NodeImport,
	"class_declaration":                   NodeClass,
	"interface_declaration":               NodeInterface,
	"enum_declaration":                    NodeEnum,
	"annotation_type_declaration":         NodeAnnotationType,
	"record_declaration":                  NodeRecord,
	"field_declaration":                   NodeField,
	"constant_declaration":                NodeConstant,
	"method_declaration":                  NodeMethod,
	"constructor_declaration":             NodeConstructor,
	"compact_constructor_declaration":     NodeCompactConstructor,
	"annotation_type_element_declaration": NodeAnnotationElement,
	"formal_parameter":                    NodeParameter,
	"spread_parameter":                    NodeSpreadParameter,
	"enum_body_declarations":              NodeDeclarationGroup,
}

// classify maps a tree-sitter node onto its NodeKind.
func classify(node *sitter.Node) NodeKind {
	if node == nil {
		return NodeUnknown
	}
	return nodeKinds[node.Kind()]
}

// IsType reports whether the kind declares a type.
func (k NodeKind) IsType() bool {
	switch k {
	case NodeClass, NodeInterface, NodeEnum, NodeAnnotationType, NodeRecord:
		return true
	}
	return false
}

// typeKinds maps type-declaring node kinds onto the model's type kinds.
// Records are reported as classes.
var typeKinds = map[NodeKind]extraction.TypeKind{
	NodeClass:          extraction.KindClass,
	NodeRecord:         extraction.KindClass,
	NodeInterface:      extraction.KindInterface,
	NodeEnum:           extraction.KindEnum,
	NodeAnnotationType: extraction.KindAnnotation,
}

// normalizer turns individual declaration nodes into records. It holds the
// source and token stream of one unit and never mutates them.
type normalizer struct {
	source []byte
	tokens TokenStream
}

// normalize dispatches a node to the extractor for its kind. Field
// declarations expand to one record per declarator, type declarations yield
// a header without members, and unknown kinds yield nothing.
func (n *normalizer) normalize(node *sitter.Node, enclosing string) []extraction.Decl {
	switch kind := classify(node); kind {
	case NodePackage:
		return []extraction.Decl{n.packageDecl(node)}
	case NodeImport:
		return []extraction.Decl{n.importDecl(node)}
	case NodeClass, NodeInterface, NodeEnum, NodeAnnotationType, NodeRecord:
		return []extraction.Decl{n.typeHeader(node, kind)}
	case NodeField, NodeConstant:
		fields := n.fieldDecls(node)
		decls := make([]extraction.Decl, len(fields))
		for i, f := range fields {
			decls[i] = f
		}
		return decls
	case NodeMethod, NodeConstructor, NodeCompactConstructor, NodeAnnotationElement:
		return []extraction.Decl{n.methodDecl(node, kind, enclosing)}
	case NodeParameter, NodeSpreadParameter:
		if p, ok := n.parameterDecl(node, kind); ok {
			return []extraction.Decl{p}
		}
	}
	return nil
}

func (n *normalizer) packageDecl(node *sitter.Node) extraction.PackageDecl {
	return extraction.PackageDecl{
		Name: n.qualifiedName(node),
		Span: Resolve(Anchor{Category: StatementTerminated, Line: startLine(node), Offset: node.StartByte()}, n.tokens),
	}
}

func (n *normalizer) importDecl(node *sitter.Node) extraction.ImportDecl {
	name := n.qualifiedName(node)
	wildcard := findChildByType(node, "asterisk") != nil
	if wildcard && name != "" {
		name += ".*"
	}

	return extraction.ImportDecl{
		Name:       name,
		IsStatic:   findChildByType(node, "static") != nil,
		IsWildcard: wildcard,
		Span:       Resolve(Anchor{Category: StatementTerminated, Line: startLine(node), Offset: node.StartByte()}, n.tokens),
	}
}

// qualifiedName returns the dotted name of a package or import clause.
func (n *normalizer) qualifiedName(node *sitter.Node) string {
	nameNode := findChildByType(node, "scoped_identifier")
	if nameNode == nil {
		nameNode = findChildByType(node, "identifier")
	}
	return strings.Join(strings.Fields(nodeText(nameNode, n.source)), "")
}

// typeHeader extracts a type's own attributes. Members are attached by the aggregator.
func (n *normalizer) typeHeader(node *sitter.Node, kind NodeKind) extraction.TypeDecl {
	nameNode := node.ChildByFieldName("name")
	return extraction.TypeDecl{
		Name:       nodeText(nameNode, n.source),
		Kind:       typeKinds[kind],
		Modifiers:  n.modifiers(node),
		Fields:     []extraction.FieldDecl{},
		Methods:    []extraction.MethodDecl{},
		InnerTypes: []extraction.TypeDecl{},
		Span:       Resolve(n.blockAnchor(node, nameNode), n.tokens),
	}
}

// blockAnchor starts the brace scan at the declaration's body, so braces in
// annotation arguments anywhere in the header are never taken for it.
// Bodiless declarations scan from the end of their parameter list, or from
// their name when they have none.
func (n *normalizer) blockAnchor(node, nameNode *sitter.Node) Anchor {
	offset := node.StartByte()
	if body := node.ChildByFieldName("body"); body != nil {
		offset = body.StartByte()
	} else if params := node.ChildByFieldName("parameters"); params != nil {
		offset = params.EndByte()
	} else if nameNode != nil {
		offset = nameNode.StartByte()
	}
	return Anchor{Category: BraceDelimited, Line: startLine(node), Offset: offset}
}

func (n *normalizer) fieldDecls(node *sitter.Node) []extraction.FieldDecl {
	typeName := n.typeName(node.ChildByFieldName("type"))
	modifiers := n.modifiers(node)
	span := Resolve(Anchor{Category: StatementTerminated, Line: startLine(node), Offset: node.StartByte()}, n.tokens)

	var fields []extraction.FieldDecl
	for _, declarator := range findChildrenByType(node, "variable_declarator") {
		nameNode := declarator.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}

		declType := typeName
		if dims := declarator.ChildByFieldName("dimensions"); dims != nil {
			declType += compactText(dims, n.source)
		}

		fields = append(fields, extraction.FieldDecl{
			Name:        nodeText(nameNode, n.source),
			TypeName:    declType,
			Initializer: n.unwrapName(declarator.ChildByFieldName("value")),
			Modifiers:   modifiers,
			Span:        span,
		})
	}
	return fields
}

func (n *normalizer) methodDecl(node *sitter.Node, kind NodeKind, enclosing string) extraction.MethodDecl {
	nameNode := node.ChildByFieldName("name")
	name := nodeText(nameNode, n.source)

	var returnType *string
	switch kind {
	case NodeConstructor, NodeCompactConstructor:
		if enclosing != "" {
			name = enclosing
		}
	default:
		rt := n.typeName(node.ChildByFieldName("type"))
		returnType = &rt
	}

	params := []extraction.ParameterDecl{}
	for _, child := range namedChildren(node.ChildByFieldName("parameters")) {
		decls := n.normalize(child, enclosing)
		for _, d := range decls {
			if p, ok := d.(extraction.ParameterDecl); ok {
				params = append(params, p)
			}
		}
	}

	return extraction.MethodDecl{
		Name:       name,
		ReturnType: returnType,
		Modifiers:  n.modifiers(node),
		Parameters: params,
		Span:       Resolve(n.blockAnchor(node, nameNode), n.tokens),
	}
}

func (n *normalizer) parameterDecl(node *sitter.Node, kind NodeKind) (extraction.ParameterDecl, bool) {
	var nameNode, typeNode *sitter.Node
	suffix := ""

	if kind == NodeSpreadParameter {
		for _, child := range namedChildren(node) {
			switch child.Kind() {
			case "modifiers":
			case "variable_declarator":
				nameNode = child.ChildByFieldName("name")
			case "identifier":
				nameNode = child
			default:
				if typeNode == nil {
					typeNode = child
				}
			}
		}
		suffix = "..."
	} else {
		nameNode = node.ChildByFieldName("name")
		typeNode = node.ChildByFieldName("type")
	}

	if nameNode == nil {
		return extraction.ParameterDecl{}, false
	}

	name := nodeText(nameNode, n.source)
	return extraction.ParameterDecl{
		Name:     name,
		TypeName: n.typeName(typeNode) + suffix,
		Span: Resolve(Anchor{
			Category: ParameterSpan,
			Line:     startLine(node),
			Offset:   node.StartByte(),
			Name:     name,
		}, n.tokens),
	}, true
}

// modifiers returns the lowercased keyword modifiers of a declaration.
// Annotations are not modifiers.
func (n *normalizer) modifiers(node *sitter.Node) extraction.Modifiers {
	mods := extraction.Modifiers{}
	for _, child := range childrenOf(findChildByType(node, "modifiers")) {
		switch child.Kind() {
		case "annotation", "marker_annotation", "line_comment", "block_comment":
			continue
		}
		mod := strings.ToLower(nodeText(child, n.source))
		if mod != "" && !mods.Has(mod) {
			mods = append(mods, mod)
		}
	}
	return mods
}

// typeName renders a type node as compact source text. Type annotations are dropped.
func (n *normalizer) typeName(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	if node.Kind() == "annotated_type" {
		named := namedChildren(node)
		if len(named) > 0 {
			return n.typeName(named[len(named)-1])
		}
	}
	return compactText(node, n.source)
}

// unwrapName reduces an expression to the name or value that best describes
// it: identifiers and qualified names as written, literals by value with
// string quotes stripped, member accesses and invocations by their rightmost
// member, and instance creation by the created type. Anything else is nil.
func (n *normalizer) unwrapName(node *sitter.Node) *string {
	if node == nil {
		return nil
	}

	var value string
	switch node.Kind() {
	case "identifier", "type_identifier", "scoped_identifier",
		"decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal",
		"decimal_floating_point_literal", "hex_floating_point_literal",
		"character_literal", "true", "false", "null_literal", "this":
		value = compactText(node, n.source)
	case "string_literal":
		value = unquote(nodeText(node, n.source))
	case "field_access":
		return n.unwrapName(node.ChildByFieldName("field"))
	case "method_invocation":
		return n.unwrapName(node.ChildByFieldName("name"))
	case "object_creation_expression", "array_creation_expression", "cast_expression":
		return n.baseTypeName(node.ChildByFieldName("type"))
	case "parenthesized_expression":
		named := namedChildren(node)
		if len(named) != 1 {
			return nil
		}
		return n.unwrapName(named[0])
	case "unary_expression":
		operand := node.ChildByFieldName("operand")
		if operand == nil || n.unwrapName(operand) == nil {
			return nil
		}
		value = compactText(node, n.source)
	default:
		return nil
	}
	return &value
}

// baseTypeName returns the simple name of a possibly generic or qualified type.
func (n *normalizer) baseTypeName(node *sitter.Node) *string {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "generic_type":
		named := namedChildren(node)
		if len(named) == 0 {
			return nil
		}
		return n.baseTypeName(named[0])
	case "scoped_type_identifier":
		named := namedChildren(node)
		if len(named) == 0 {
			return nil
		}
		return n.baseTypeName(named[len(named)-1])
	}
	value := compactText(node, n.source)
	return &value
}

func unquote(literal string) string {
	switch {
	case strings.HasPrefix(literal, `"""`) && strings.HasSuffix(literal, `"""`) && len(literal) >= 6:
		return literal[3 : len(literal)-3]
	case strings.HasPrefix(literal, `"`) && strings.HasSuffix(literal, `"`) && len(literal) >= 2:
		return literal[1 : len(literal)-1]
	}
	return literal
}

func childrenOf(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	children := make([]*sitter.Node, 0, node.ChildCount())
	for i := 0; i < int(node.ChildCount()); i++ {
		children = append(children, node.Child(uint(i)))
	}
	return children
}
