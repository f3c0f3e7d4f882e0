package entity

// FieldKind classifies a variant field for editors and payload mapping.
type FieldKind string

const (
	FieldString    FieldKind = "string"
	FieldText      FieldKind = "text"
	FieldNumber    FieldKind = "number"
	FieldBoolean   FieldKind = "boolean"
	FieldChoice    FieldKind = "choice"
	FieldReference FieldKind = "reference"
	FieldJSON      FieldKind = "json"
	FieldFile      FieldKind = "file"
	FieldDate      FieldKind = "date"
)

// Choice pairs a stored value with its editor label.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field declares one variant field. The registry holds these descriptors;
// the schema introspector projects them for the generic editor.
type Field struct {
	Name         string    `json:"name"`
	Label        string    `json:"label,omitempty"`
	Kind         FieldKind `json:"type"`
	Required     bool      `json:"required"`
	Default      any       `json:"default_value,omitempty"`
	Choices      []Choice  `json:"choices,omitempty"`
	MaxLength    int       `json:"max_length,omitempty"`
	Unique       bool      `json:"unique,omitempty"`
	Translatable bool      `json:"is_translated,omitempty"`
}
