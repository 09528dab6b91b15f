package validate

// FieldKind classifies a node-type field for domain validation purposes.
type FieldKind string

const (
	FieldKindString   FieldKind = "string"
	FieldKindNumber   FieldKind = "number"
	FieldKindDatetime FieldKind = "datetime"
	FieldKindEnum     FieldKind = "enum"
	FieldKindBoolean  FieldKind = "boolean"
	FieldKindTagArray  FieldKind = "tag_array"
	FieldKindFileArray FieldKind = "file_array"
)

// FieldDef describes one declared field on a node type.
type FieldDef struct {
	Name       string
	Kind       FieldKind
	Required   bool
	Unique     bool
	EnumValues []string
}

// NodeTypeDef is a schema's declaration of one node type's shape.
// Statuses is empty when the type does not declare status-based states.
type NodeTypeDef struct {
	Name     string
	Fields   []FieldDef
	Statuses []string
}

// EdgeTypeDef is a schema's declaration of one edge type's allowed
// endpoints.
type EdgeTypeDef struct {
	Name     string
	FromType string
	ToType   string
}

// DomainSchema is the node/edge type universe domain validation checks
// seed data against.
type DomainSchema struct {
	NodeTypes map[string]NodeTypeDef
	EdgeTypes map[string]EdgeTypeDef
}

// Node is one node in the seed-data graph under validation.
type Node struct {
	TempID     string
	Type       string
	Properties map[string]any
	Status     *string
}

// Edge is one edge in the seed-data graph under validation.
type Edge struct {
	Type         string
	FromTempID   string
	ToTempID     string
}

// SeedData is the flat (nodes, edges) structure domain validation
// operates over (spec.md §9: "no recursive traversal is performed").
type SeedData struct {
	Nodes []Node
	Edges []Edge
}
