package extraction

import (
	"slices"
	"strings"
)

// TypeKind is the declaration keyword of a Java type.
type TypeKind string

const (
	KindClass      TypeKind = "class"
	KindInterface  TypeKind = "interface"
	KindEnum       TypeKind = "enum"
	KindAnnotation TypeKind = "annotation"
)

// Decl is implemented by every normalized declaration record.
// The set of implementations is closed: PackageDecl, ImportDecl, TypeDecl,
// FieldDecl, MethodDecl and ParameterDecl.
type Decl interface {
	declKind() string
}

// SourceUnit is the structural model of one Java compilation unit.
// Packages, Imports and Types are never nil after a successful parse.
type SourceUnit struct {
	RawText  string        `json:"-"`
	Packages []PackageDecl `json:"packages"`
	Imports  []ImportDecl  `json:"imports"`
	Types    []TypeDecl    `json:"classes"`
}

// NewSourceUnit returns an empty unit owning the given source text.
func NewSourceUnit(raw string) *SourceUnit {
	return &SourceUnit{
		RawText:  raw,
		Packages: []PackageDecl{},
		Imports:  []ImportDecl{},
		Types:    []TypeDecl{},
	}
}

// Lines splits the raw text on newlines, preserving order. A carriage
// return ending a line is dropped.
func (u *SourceUnit) Lines() []string {
	lines := strings.Split(u.RawText, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Package returns the unit's package declaration, or nil for the default package.
func (u *SourceUnit) Package() *PackageDecl {
	if len(u.Packages) == 0 {
		return nil
	}
	return &u.Packages[0]
}

// Walk visits every type declaration in pre-order, including nested ones.
// The path holds the names of the enclosing types, outermost first.
// Returning false from fn skips the type's inner types.
func (u *SourceUnit) Walk(fn func(path []string, t *TypeDecl) bool) {
	for i := range u.Types {
		walkType(nil, &u.Types[i], fn)
	}
}

func walkType(path []string, t *TypeDecl, fn func([]string, *TypeDecl) bool) {
	if !fn(path, t) {
		return
	}
	inner := append(slices.Clip(path), t.Name)
	for i := range t.InnerTypes {
		walkType(inner, &t.InnerTypes[i], fn)
	}
}

// PackageDecl represents the package clause.
type PackageDecl struct {
	Name string `json:"name"`
	Span
}

// ImportDecl represents one import statement. Wildcard imports carry a ".*" suffix in Name.
type ImportDecl struct {
	Name       string `json:"name"`
	IsStatic   bool   `json:"static"`
	IsWildcard bool   `json:"wildcard"`
	Span
}

// TypeDecl represents a class, interface, enum or annotation type.
type TypeDecl struct {
	Name       string       `json:"class_name"`
	Kind       TypeKind     `json:"class_kind"`
	Modifiers  Modifiers    `json:"modifiers"`
	Fields     []FieldDecl  `json:"attributes"`
	Methods    []MethodDecl `json:"methods"`
	InnerTypes []TypeDecl   `json:"inner_classes"`
	Span
}

// FieldDecl represents a single declarator of a field declaration.
// Declarators of the same statement share the statement's span and modifiers.
type FieldDecl struct {
	Name        string    `json:"name"`
	TypeName    string    `json:"type"`
	Initializer *string   `json:"value"`
	Modifiers   Modifiers `json:"modifiers"`
	Span
}

// MethodDecl represents a method, constructor or annotation element.
// Constructors have a nil ReturnType and are named after the enclosing type.
type MethodDecl struct {
	Name       string          `json:"method_name"`
	ReturnType *string         `json:"return_type"`
	Modifiers  Modifiers       `json:"modifiers"`
	Parameters []ParameterDecl `json:"parameters"`
	Span
}

// IsConstructor reports whether the method is a constructor.
func (m MethodDecl) IsConstructor() bool {
	return m.ReturnType == nil
}

// ParameterDecl represents a formal parameter. Its span runs from the name
// token through the terminating comma or closing parenthesis.
type ParameterDecl struct {
	Name     string `json:"name"`
	TypeName string `json:"type"`
	Span
}

func (PackageDecl) declKind() string   { return "package" }
func (ImportDecl) declKind() string    { return "import" }
func (TypeDecl) declKind() string      { return "class" }
func (FieldDecl) declKind() string     { return "field" }
func (MethodDecl) declKind() string    { return "method" }
func (ParameterDecl) declKind() string { return "parameter" }

// Modifiers is a lowercase modifier set in source order.
type Modifiers []string

// Has reports whether the set contains mod.
func (m Modifiers) Has(mod string) bool {
	return slices.Contains(m, strings.ToLower(mod))
}

// ErrorRecord is the single-key result reported in place of a SourceUnit when parsing fails.
type ErrorRecord struct {
	Error string `json:"error"`
}
