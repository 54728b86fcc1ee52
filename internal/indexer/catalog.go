package indexer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
)

// ErrIndexOutOfRange is returned when a catalog lookup names a missing class or member.
var ErrIndexOutOfRange = errors.New("index out of range")

// MemberKind distinguishes catalog entries.
type MemberKind string

const (
	MemberMethod MemberKind = "method"
	MemberField  MemberKind = "field"
)

// CatalogClass is one type of a unit, in pre-order.
type CatalogClass struct {
	Index         int
	QualifiedName string
	Decl          *extraction.TypeDecl
}

// CatalogEntry is one method or field with the code it spans.
type CatalogEntry struct {
	Kind          MemberKind `json:"kind"`
	ClassIndex    int        `json:"class_index"`
	MemberIndex   int        `json:"member_index"`
	ClassName     string     `json:"class_name"`
	Name          string     `json:"name"`
	QualifiedName string     `json:"qualified_name"`
	RawCode       string     `json:"raw_code"`
	extraction.Span
}

// Catalog flattens the types of a unit, nested ones included, so that members
// can be addressed by (class index, member index).
type Catalog struct {
	lines   []string
	classes []CatalogClass
}

// BuildCatalog indexes every type of unit in pre-order.
func BuildCatalog(unit *extraction.SourceUnit) *Catalog {
	c := &Catalog{lines: unit.Lines()}
	unit.Walk(func(path []string, t *extraction.TypeDecl) bool {
		c.classes = append(c.classes, CatalogClass{
			Index:         len(c.classes),
			QualifiedName: qualify(path, t.Name),
			Decl:          t,
		})
		return true
	})
	return c
}

// Classes returns the flattened types.
func (c *Catalog) Classes() []CatalogClass {
	return c.classes
}

// Methods lists every method of every type.
func (c *Catalog) Methods() []CatalogEntry {
	entries := []CatalogEntry{}
	for _, cls := range c.classes {
		for i := range cls.Decl.Methods {
			entries = append(entries, c.methodEntry(cls, i))
		}
	}
	return entries
}

// Fields lists every field of every type.
func (c *Catalog) Fields() []CatalogEntry {
	entries := []CatalogEntry{}
	for _, cls := range c.classes {
		for i := range cls.Decl.Fields {
			entries = append(entries, c.fieldEntry(cls, i))
		}
	}
	return entries
}

// Method returns the methodIdx-th method of the classIdx-th type.
func (c *Catalog) Method(classIdx, methodIdx int) (CatalogEntry, error) {
	cls, err := c.class(classIdx)
	if err != nil {
		return CatalogEntry{}, err
	}
	if methodIdx < 0 || methodIdx >= len(cls.Decl.Methods) {
		return CatalogEntry{}, fmt.Errorf("method %d of %s: %w", methodIdx, cls.QualifiedName, ErrIndexOutOfRange)
	}
	return c.methodEntry(cls, methodIdx), nil
}

// Field returns the fieldIdx-th field of the classIdx-th type.
func (c *Catalog) Field(classIdx, fieldIdx int) (CatalogEntry, error) {
	cls, err := c.class(classIdx)
	if err != nil {
		return CatalogEntry{}, err
	}
	if fieldIdx < 0 || fieldIdx >= len(cls.Decl.Fields) {
		return CatalogEntry{}, fmt.Errorf("field %d of %s: %w", fieldIdx, cls.QualifiedName, ErrIndexOutOfRange)
	}
	return c.fieldEntry(cls, fieldIdx), nil
}

// Chunks splits an entry's raw code with chunker.
func (c *Catalog) Chunks(entry CatalogEntry, chunker *CodeChunker) []CodeChunk {
	return chunker.Chunk(entry.RawCode, entry.StartLine)
}

func (c *Catalog) class(idx int) (CatalogClass, error) {
	if idx < 0 || idx >= len(c.classes) {
		return CatalogClass{}, fmt.Errorf("class %d: %w", idx, ErrIndexOutOfRange)
	}
	return c.classes[idx], nil
}

func (c *Catalog) methodEntry(cls CatalogClass, idx int) CatalogEntry {
	m := cls.Decl.Methods[idx]
	return CatalogEntry{
		Kind:          MemberMethod,
		ClassIndex:    cls.Index,
		MemberIndex:   idx,
		ClassName:     cls.Decl.Name,
		Name:          m.Name,
		QualifiedName: cls.QualifiedName + "." + m.Name,
		RawCode:       RawCode(c.lines, m.Span),
		Span:          m.Span,
	}
}

func (c *Catalog) fieldEntry(cls CatalogClass, idx int) CatalogEntry {
	f := cls.Decl.Fields[idx]
	return CatalogEntry{
		Kind:          MemberField,
		ClassIndex:    cls.Index,
		MemberIndex:   idx,
		ClassName:     cls.Decl.Name,
		Name:          f.Name,
		QualifiedName: cls.QualifiedName + "." + f.Name,
		RawCode:       RawCode(c.lines, f.Span),
		Span:          f.Span,
	}
}

// RawCode joins the source lines covered by span. An unknown or empty span,
// or one entirely outside lines, yields "".
func RawCode(lines []string, span extraction.Span) string {
	if !span.StartLine.Known() || !span.EndLine.Known() {
		return ""
	}
	start := int(span.StartLine) - 1
	end := min(len(lines), int(span.EndLine))
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}

func qualify(path []string, name string) string {
	if len(path) == 0 {
		return name
	}
	return strings.Join(path, ".") + "." + name
}
