package dashboard

// Field types understood by the aggregation helpers and the exporters.
const (
	FieldTypeString  = "string"
	FieldTypeNumber  = "number"
	FieldTypeDecimal = "decimal"
	FieldTypeBoolean = "boolean"
	FieldTypeDate    = "date"
)

// FieldSchema describes one attribute of a record shape
type FieldSchema struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Label string `json:"label" yaml:"label"`
}

// Schema lists the attributes a record shape actually has. Dashboard
// configurations are cross-checked against it when a store is built.
type Schema struct {
	Fields []FieldSchema `json:"fields" yaml:"fields"`
}

// NewSchema creates a schema from field descriptions
func NewSchema(fields ...FieldSchema) Schema {
	return Schema{Fields: fields}
}

// SchemaOf creates a schema of untyped string fields from their names.
func SchemaOf(names ...string) Schema {
	fields := make([]FieldSchema, len(names))
	for i, name := range names {
		fields[i] = FieldSchema{Name: name, Type: FieldTypeString, Label: name}
	}
	return Schema{Fields: fields}
}

// Has reports whether the schema declares the named field
func (s Schema) Has(name string) bool {
	_, ok := s.Field(name)
	return ok
}

// Field returns the named field description
func (s Schema) Field(name string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// Names returns the field names in declaration order
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Label returns the display label of a field, falling back to its name.
func (s Schema) Label(name string) string {
	if f, ok := s.Field(name); ok && f.Label != "" {
		return f.Label
	}
	return name
}
