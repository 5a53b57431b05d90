package esindex

// Field is a mapping type descriptor for a single document field, e.g.
// {"type": "text", "analyzer": "english"}.
type Field map[string]any

func Text() Field    { return Field{"type": "text"} }
func Keyword() Field { return Field{"type": "keyword"} }
func Date() Field    { return Field{"type": "date"} }
func Long() Field    { return Field{"type": "long"} }
func Integer() Field { return Field{"type": "integer"} }
func Double() Field  { return Field{"type": "double"} }
func Boolean() Field { return Field{"type": "boolean"} }

// Object returns an object field with the given sub-properties.
func Object(properties map[string]Field) Field {
	return Field{"properties": fieldProperties(properties)}
}

// Nested returns a nested field with the given sub-properties.
func Nested(properties map[string]Field) Field {
	return Field{"type": "nested", "properties": fieldProperties(properties)}
}

// Analyzer sets the analyzer option on the field and returns it.
func (f Field) Analyzer(name string) Field {
	f["analyzer"] = name
	return f
}

// Format sets the format option (date formats and the like) and returns
// the field.
func (f Field) Format(format string) Field {
	f["format"] = format
	return f
}

func fieldProperties(properties map[string]Field) map[string]any {
	props := make(map[string]any, len(properties))
	for name, f := range properties {
		props[name] = map[string]any(f)
	}
	return props
}

// Schema describes the fields one document type contributes to an index
// mapping. Multiple schemas registered on the same Index are merged into a
// single properties map at serialization time.
type Schema struct {
	name   string
	fields map[string]Field
}

// NewSchema creates an empty schema for the named document type.
func NewSchema(name string) *Schema {
	return &Schema{
		name:   name,
		fields: make(map[string]Field),
	}
}

// Name returns the document type name.
func (s *Schema) Name() string { return s.name }

// Field registers a field descriptor, replacing any previous descriptor
// under the same name within this schema.
func (s *Schema) Field(name string, f Field) *Schema {
	s.fields[name] = f
	return s
}

// Properties returns the schema's mapping contribution as a copied
// field-name to type-descriptor map.
func (s *Schema) Properties() map[string]any {
	props := make(map[string]any, len(s.fields))
	for name, f := range s.fields {
		props[name] = copyAny(map[string]any(f))
	}
	return props
}
