// Package schema defines the entity metamodel used by the criteria layer: the
// fields an entity stores, the relations it can be joined through, and the
// indexes that identify its rows.
package schema

import (
	"encoding/json"
	"fmt"
)

// LogicalOperator for combining conditions.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and" // All conditions must be true
	LogicalOr  LogicalOperator = "or"  // At least one condition must be true
	LogicalNot LogicalOperator = "not" // Negates a condition
)

// FieldType represents the basic field types supported by the schema system.
type FieldType string

const (
	FieldTypeString  FieldType = "string"  // Text data
	FieldTypeNumber  FieldType = "number"  // Numeric data
	FieldTypeInteger FieldType = "integer" // Numeric data
	FieldTypeDecimal FieldType = "decimal" // Numeric data
	FieldTypeBoolean FieldType = "boolean" // True/false values
	FieldTypeArray   FieldType = "array"   // Ordered list of items
	FieldTypeSet     FieldType = "set"     // Unordered list with unique items
	FieldTypeEnum    FieldType = "enum"    // One out of a set of pre-defined items
	FieldTypeObject  FieldType = "object"  // Structured data stored inline
	FieldTypeRecord  FieldType = "record"  // Unorganized key-value object, resolves to map[string]any
)

// IsCollection reports whether values of the type hold several items.
func (t FieldType) IsCollection() bool {
	return t == FieldTypeArray || t == FieldTypeSet
}

// IndexType represents index types for optimizing different query patterns.
type IndexType string

const (
	IndexTypeNormal  IndexType = "normal"  // General-purpose index
	IndexTypeUnique  IndexType = "unique"  // Unique index
	IndexTypePrimary IndexType = "primary" // Primary key index (implies unique)
)

// RelationKind tells how many target rows a relation reaches.
type RelationKind string

const (
	// RelationOne is a to-one relation: the owning row holds LocalKey, which
	// references TargetKey on the target schema.
	RelationOne RelationKind = "one"
	// RelationMany is a to-many relation: target rows hold TargetKey, which
	// references LocalKey on the owning row.
	RelationMany RelationKind = "many"
)

// Document represents a single record of data read from or written to a collection.
type Document map[string]any

// FieldDefinition defines a stored field within a schema.
type FieldDefinition struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	// Required indicates if the field is mandatory.
	Required *bool `json:"required,omitempty"`
	// Default provides a default value for the field.
	Default any `json:"default,omitempty"`
	// Values specifies the allowed values for an 'enum' type field.
	Values []any `json:"values,omitempty"`
	// ItemsType specifies the type of items in 'array' or 'set' fields.
	ItemsType *FieldType `json:"itemsType,omitempty"`
	// Description provides a brief explanation of the field.
	Description *string `json:"description,omitempty"`
	// Unique indicates if the field must have unique values.
	Unique *bool `json:"unique,omitempty"`
}

// RelationDefinition describes a navigable link from one schema to another.
// Relations are what paths traverse when they are resolved against a query root.
type RelationDefinition struct {
	Name string       `json:"name"`
	Kind RelationKind `json:"kind"`
	// Target is the name of the related schema in the registry.
	Target string `json:"target"`
	// LocalKey is the column on the owning schema taking part in the link.
	LocalKey string `json:"localKey"`
	// TargetKey is the column on the target schema taking part in the link.
	TargetKey   string  `json:"targetKey"`
	Description *string `json:"description,omitempty"`
}

// IsCollection reports whether the relation reaches several target rows.
func (r *RelationDefinition) IsCollection() bool {
	return r.Kind == RelationMany
}

// IndexDefinition defines an index for optimizing queries or enforcing uniqueness.
type IndexDefinition struct {
	Fields      []string  `json:"fields"`
	Type        IndexType `json:"type"`
	Unique      *bool     `json:"unique,omitempty"`
	Description *string   `json:"description,omitempty"`
	Order       *string   `json:"order,omitempty"` // "asc" | "desc"
	Name        string    `json:"name"`
}

// SchemaDefinition describes one entity: its table name, stored fields,
// relations and indexes.
type SchemaDefinition struct {
	Name        string                         `json:"name"`
	Version     string                         `json:"version"`
	Description *string                        `json:"description,omitempty"`
	Fields      map[string]*FieldDefinition    `json:"fields"`
	Relations   map[string]*RelationDefinition `json:"relations,omitempty"`
	Indexes     []IndexDefinition              `json:"indexes,omitempty"`
	Metadata    map[string]any                 `json:"metadata,omitempty"`
}

// ParseSchema decodes a JSON schema definition.
func ParseSchema(data []byte) (*SchemaDefinition, error) {
	var sc SchemaDefinition
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("error unmarshaling schema definition: %w", err)
	}
	return &sc, nil
}

// FindField returns the stored field with the given name, or nil.
func (s *SchemaDefinition) FindField(name string) *FieldDefinition {
	if field, ok := s.Fields[name]; ok {
		return field
	}
	return nil
}

// FindRelation returns the relation with the given name, or nil.
func (s *SchemaDefinition) FindRelation(name string) *RelationDefinition {
	if rel, ok := s.Relations[name]; ok {
		return rel
	}
	return nil
}

// PrimaryKey returns the first field of the primary index. Schemas without a
// primary index are keyed by "id".
func (s *SchemaDefinition) PrimaryKey() string {
	for _, index := range s.Indexes {
		if index.Type == IndexTypePrimary && len(index.Fields) > 0 {
			return index.Fields[0]
		}
	}
	return "id"
}
