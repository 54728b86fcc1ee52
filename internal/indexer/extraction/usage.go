package extraction

import "sort"

// UsageContext identifies the signature position a reference was found in.
type UsageContext string

const (
	ContextField      UsageContext = "field"
	ContextReturnType UsageContext = "return_type"
	ContextParameter  UsageContext = "parameter"
)

// RawMatch is a source line in which an external model name textually occurs.
// It encodes as {"line": text, "start_line": n, "end_line": n}.
type RawMatch struct {
	Text string `json:"line"`
	Line Line   `json:"start_line"`
	End  Line   `json:"end_line"`
}

// ExternalUsage is one reference to a type not declared in the unit.
// Snippet holds the source lines of LineRange.
type ExternalUsage struct {
	ModelName string       `json:"model_name"`
	Context   UsageContext `json:"context"`
	Location  string       `json:"location"`
	RefType   string       `json:"ref_type"`
	LineRange Span         `json:"line_range"`
	Snippet   string       `json:"snippet"`
	RawCode   []RawMatch   `json:"raw_code"`
}

// Usages maps an external model name to its usages in declaration order.
type Usages map[string][]ExternalUsage

// Models returns the model names in sorted order.
func (u Usages) Models() []string {
	names := make([]string, 0, len(u))
	for name := range u {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MatchCount returns the total number of raw matches recorded for model.
func (u Usages) MatchCount(model string) int {
	n := 0
	for _, usage := range u[model] {
		n += len(usage.RawCode)
	}
	return n
}
