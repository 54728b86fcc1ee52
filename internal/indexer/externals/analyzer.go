// Package externals indexes references to types that a compilation unit uses
// in its signatures but does not declare.
package externals

import (
	"regexp"
	"strings"
	"sync"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
)

// DefaultMaxRawMatches bounds the raw matches kept per model.
const DefaultMaxRawMatches = 200

var (
	// candidatePattern pulls capitalized identifiers out of type strings,
	// including the arguments of generic types.
	candidatePattern = regexp.MustCompile(`\b[A-Z][A-Za-z0-9_]*\b`)

	primitives = []string{
		"int", "long", "double", "float", "boolean", "char", "byte", "short", "void",
		"Integer", "Long", "Double", "Float", "Boolean", "Character", "Byte", "Short", "Object",
	}
	builtins           = []string{"String"}
	collectionBuiltins = []string{"List", "Map", "Set", "Optional", "HashMap", "ArrayList"}
)

// Options configures an Analyzer.
type Options struct {
	// MaxRawMatches caps the raw matches recorded per model. Non-positive means the default.
	MaxRawMatches int
	// CollectionBuiltins treats common collection types as built-ins.
	CollectionBuiltins bool
	// ExtraBuiltins are additional type names that are never reported.
	ExtraBuiltins []string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{MaxRawMatches: DefaultMaxRawMatches, CollectionBuiltins: true}
}

// Analyzer builds external usage maps. It holds only read-only state after
// construction and is safe for concurrent use.
type Analyzer struct {
	maxRawMatches int
	excluded      map[string]struct{}
}

// NewAnalyzer creates an analyzer with the given options.
func NewAnalyzer(opts Options) *Analyzer {
	maxRaw := opts.MaxRawMatches
	if maxRaw <= 0 {
		maxRaw = DefaultMaxRawMatches
	}

	excluded := make(map[string]struct{})
	add := func(names []string) {
		for _, name := range names {
			excluded[name] = struct{}{}
		}
	}
	add(primitives)
	add(builtins)
	if opts.CollectionBuiltins {
		add(collectionBuiltins)
	}
	add(opts.ExtraBuiltins)

	return &Analyzer{maxRawMatches: maxRaw, excluded: excluded}
}

// Analyze indexes the unit against its own raw text.
func (a *Analyzer) Analyze(unit *extraction.SourceUnit) extraction.Usages {
	return a.AnalyzeSource(unit, unit.RawText)
}

// AnalyzeSource indexes the unit, scanning source for raw matches. The unit
// is not modified and the result shares no memory with it.
func (a *Analyzer) AnalyzeSource(unit *extraction.SourceUnit, source string) extraction.Usages {
	lines := acquireLines(source)
	defer releaseLines(lines)

	scan := &scan{
		analyzer: a,
		lines:    *lines,
		defined:  definedModels(unit),
		usages:   extraction.Usages{},
		matches:  make(map[string]int),
		recorded: make(map[rawKey]struct{}),
	}

	unit.Walk(func(path []string, t *extraction.TypeDecl) bool {
		scan.visitType(append(path, t.Name), t)
		return true
	})

	return scan.usages
}

// definedModels returns the names of every type declared in the unit, nested ones included.
func definedModels(unit *extraction.SourceUnit) map[string]struct{} {
	defined := make(map[string]struct{})
	unit.Walk(func(_ []string, t *extraction.TypeDecl) bool {
		if t.Name != "" {
			defined[t.Name] = struct{}{}
		}
		return true
	})
	return defined
}

// scan holds the state of one AnalyzeSource call.
type scan struct {
	analyzer *Analyzer
	lines    []string
	defined  map[string]struct{}
	usages   extraction.Usages
	matches  map[string]int
	recorded map[rawKey]struct{}
}

// rawKey identifies a source line already recorded for a model.
type rawKey struct {
	model string
	line  int
}

func (s *scan) visitType(path []string, t *extraction.TypeDecl) {
	owner := strings.Join(path, ".")

	for _, f := range t.Fields {
		s.record(f.TypeName, extraction.ContextField, owner+"."+f.Name, f.Span)
	}

	for _, m := range t.Methods {
		location := owner + "." + m.Name
		if m.ReturnType != nil {
			s.record(*m.ReturnType, extraction.ContextReturnType, location, m.Span)
		}
		// Parameters scan the whole method so in-body uses of the type are captured.
		for _, p := range m.Parameters {
			s.record(p.TypeName, extraction.ContextParameter, location+"."+p.Name, m.Span)
		}
	}
}

// record adds one usage for every external candidate in typeName.
func (s *scan) record(typeName string, ctx extraction.UsageContext, location string, span extraction.Span) {
	for _, model := range s.candidates(typeName) {
		s.usages[model] = append(s.usages[model], extraction.ExternalUsage{
			ModelName: model,
			Context:   ctx,
			Location:  location,
			RefType:   typeName,
			LineRange: span,
			Snippet:   s.snippet(span),
			RawCode:   s.rawMatches(model, span),
		})
	}
}

// candidates returns the distinct external type names in a type string, in order of appearance.
func (s *scan) candidates(typeName string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, name := range candidatePattern.FindAllString(typeName, -1) {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := s.defined[name]; ok {
			continue
		}
		if _, ok := s.analyzer.excluded[name]; ok {
			continue
		}
		names = append(names, name)
	}
	return names
}

// rawMatches returns the lines of span containing model until the model's
// cap is reached. A line is recorded once per model across the whole unit,
// so overlapping usages of one method do not repeat it. Matches beyond the
// cap are dropped.
func (s *scan) rawMatches(model string, span extraction.Span) []extraction.RawMatch {
	matches := []extraction.RawMatch{}
	start, end, ok := s.bounds(span)
	if !ok {
		return matches
	}

	for i := start; i <= end; i++ {
		if s.matches[model] >= s.analyzer.maxRawMatches {
			break
		}
		if !strings.Contains(s.lines[i-1], model) {
			continue
		}
		key := rawKey{model: model, line: i}
		if _, dup := s.recorded[key]; dup {
			continue
		}
		s.recorded[key] = struct{}{}
		line := extraction.Line(i)
		matches = append(matches, extraction.RawMatch{
			Text: strings.TrimSpace(s.lines[i-1]),
			Line: line,
			End:  line,
		})
		s.matches[model]++
	}
	return matches
}

func (s *scan) snippet(span extraction.Span) string {
	start, end, ok := s.bounds(span)
	if !ok {
		return ""
	}
	return strings.Join(s.lines[start-1:end], "\n")
}

// bounds clamps span to the available lines.
func (s *scan) bounds(span extraction.Span) (int, int, bool) {
	if !span.StartLine.Known() || !span.EndLine.Known() {
		return 0, 0, false
	}
	start, end := int(span.StartLine), min(int(span.EndLine), len(s.lines))
	if start > end {
		return 0, 0, false
	}
	return start, end, true
}

var linePool = sync.Pool{
	New: func() any {
		buf := make([]string, 0, 256)
		return &buf
	},
}

// acquireLines splits source into a pooled line buffer. Callers must pass
// the buffer to releaseLines when done.
func acquireLines(source string) *[]string {
	buf := linePool.Get().(*[]string)
	lines := (*buf)[:0]
	for line := range strings.Lines(source) {
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
	*buf = lines
	return buf
}

// releaseLines drops the buffer's references to the source and returns it to the pool.
func releaseLines(buf *[]string) {
	clear(*buf)
	*buf = (*buf)[:0]
	linePool.Put(buf)
}
