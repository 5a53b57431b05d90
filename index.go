package esindex

import (
	"github.com/elastic/go-elasticsearch/v8"
)

// Index accumulates the configuration of a search index (mappings,
// settings, aliases and analyzers) and serializes it to a request-ready
// body. The name may be a concrete index name or a wildcard pattern (used
// when deriving templates).
//
// An Index is built up by cumulative mutation and serialized on demand;
// serialization never mutates state. Instances are not safe for concurrent
// mutation; each is expected to have a single logical owner.
type Index struct {
	name     string
	client   *elasticsearch.Client
	settings map[string]any
	aliases  map[string]any
	analysis map[string]map[string]any
	schemas  []*Schema
}

// New creates an empty index configuration with the given name.
func New(name string, opts ...Option) *Index {
	i := &Index{
		name:     name,
		settings: make(map[string]any),
		aliases:  make(map[string]any),
		analysis: make(map[string]map[string]any),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Name returns the index name or pattern.
func (i *Index) Name() string { return i.name }

// Document registers a schema whose fields are merged into the index
// mapping at serialization time. A field already contributed by another
// schema under a different descriptor is a *ConflictError; contributing an
// identical descriptor again is accepted.
func (i *Index) Document(s *Schema) error {
	for name, f := range s.fields {
		for _, prev := range i.schemas {
			existing, ok := prev.fields[name]
			if !ok {
				continue
			}
			if !sameDefinition(map[string]any(existing), map[string]any(f)) {
				return &ConflictError{Kind: "field", Name: name}
			}
		}
	}
	i.schemas = append(i.schemas, s)
	return nil
}

// Settings merges key/value pairs into the index settings. Later calls add
// or override individual keys; the accumulated map is never replaced
// wholesale.
func (i *Index) Settings(settings map[string]any) *Index {
	for k, v := range settings {
		i.settings[k] = v
	}
	return i
}

// Aliases merges alias entries. Each value is the alias options body,
// which may be empty.
func (i *Index) Aliases(aliases map[string]any) *Index {
	for k, v := range aliases {
		i.aliases[k] = v
	}
	return i
}

// Analyzer registers a custom analyzer under settings.analysis.analyzer.
// Registering a name already bound to a different definition is a
// *ConflictError; re-registering an identical definition is a no-op.
func (i *Index) Analyzer(a *Analyzer) error {
	def := a.Definition()
	analyzers := i.analysis["analyzer"]
	if existing, ok := analyzers[a.Name()]; ok {
		if !sameDefinition(existing, def) {
			return &ConflictError{Kind: "analyzer", Name: a.Name()}
		}
		return nil
	}
	if analyzers == nil {
		analyzers = make(map[string]any)
		i.analysis["analyzer"] = analyzers
	}
	analyzers[a.Name()] = def
	return nil
}

// Clone returns a copy of the configuration under a new name. The client
// handle is shared; settings, aliases and analysis are copied so that
// mutating the clone never affects the origin. The registered schemas are
// carried over.
func (i *Index) Clone(name string, opts ...Option) *Index {
	c := &Index{
		name:     name,
		client:   i.client,
		settings: copyMap(i.settings),
		aliases:  copyMap(i.aliases),
		analysis: make(map[string]map[string]any, len(i.analysis)),
		schemas:  append([]*Schema(nil), i.schemas...),
	}
	for section, defs := range i.analysis {
		c.analysis[section] = copyMap(defs)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ToMap serializes the accumulated configuration to the body expected by
// the index-creation and template APIs. Top-level keys whose underlying
// configuration is empty are omitted.
func (i *Index) ToMap() map[string]any {
	body := make(map[string]any)

	props := i.mapping()
	if len(props) > 0 {
		body["mappings"] = map[string]any{"properties": props}
	}

	settings := copyMap(i.settings)
	if len(i.analysis) > 0 {
		analysis := make(map[string]any, len(i.analysis))
		for section, defs := range i.analysis {
			analysis[section] = copyMap(defs)
		}
		settings["analysis"] = analysis
	}
	if len(settings) > 0 {
		body["settings"] = settings
	}

	if len(i.aliases) > 0 {
		body["aliases"] = copyMap(i.aliases)
	}

	return body
}

// mapping returns the union of all registered schema contributions.
func (i *Index) mapping() map[string]any {
	props := make(map[string]any)
	for _, s := range i.schemas {
		for name, f := range s.Properties() {
			props[name] = f
		}
	}
	return props
}

// Search returns a query builder scoped to exactly this index and, when
// schemas are registered, carrying them for result typing.
func (i *Index) Search() *Search {
	return &Search{
		client:  i.client,
		index:   []string{i.name},
		schemas: append([]*Schema(nil), i.schemas...),
	}
}

// copyMap deep-copies a string-keyed map, descending into nested maps and
// slices so the copy shares no mutable state with the original.
func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyAny(v)
	}
	return out
}

func copyAny(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return copyMap(v)
	case Field:
		return copyMap(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = copyAny(e)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}
