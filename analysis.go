package esindex

import (
	"fmt"
	"reflect"
)

// Analyzer describes a custom analysis chain: a tokenizer followed by an
// ordered list of token filters. Analyzers are registered on an Index and
// serialized under settings.analysis.analyzer.
type Analyzer struct {
	name      string
	tokenizer string
	filter    []string
}

// NewAnalyzer builds an analyzer definition. A single filter or a list of
// filters may be given; order is preserved.
func NewAnalyzer(name, tokenizer string, filter ...string) *Analyzer {
	return &Analyzer{
		name:      name,
		tokenizer: tokenizer,
		filter:    append([]string(nil), filter...),
	}
}

// Name returns the name the analyzer is registered under.
func (a *Analyzer) Name() string { return a.name }

// Definition returns the analyzer body as sent to the settings API.
func (a *Analyzer) Definition() map[string]any {
	def := map[string]any{
		"type":      "custom",
		"tokenizer": a.tokenizer,
	}
	if len(a.filter) > 0 {
		filters := make([]any, len(a.filter))
		for i, f := range a.filter {
			filters[i] = f
		}
		def["filter"] = filters
	}
	return def
}

// ConflictError reports a registration that clashes with configuration
// already accumulated on an Index: an analyzer name bound to a different
// definition, or a document field bound to a different type descriptor.
// Re-registering an identical definition never conflicts.
type ConflictError struct {
	Kind string // "analyzer" or "field"
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("esindex: conflicting %s definition for %q", e.Kind, e.Name)
}

// sameDefinition compares two serialized definitions structurally.
func sameDefinition(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
