// Package schema provides the Validator, which checks schema definitions for
// consistency with the registry they live in and checks documents against a
// single definition before they are written.
package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Issue represents a validation problem.
type Issue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// Validator validates schema definitions and documents. It accumulates issues
// across a run and is not safe for concurrent use.
type Validator struct {
	registry *Registry
	issues   []Issue
}

// NewValidator creates a Validator resolving relation targets through registry.
func NewValidator(registry *Registry) *Validator {
	return &Validator{
		registry: registry,
		issues:   make([]Issue, 0),
	}
}

// ValidateDefinition checks that a schema is internally consistent and that
// each relation points at a registered schema through existing key fields.
func (v *Validator) ValidateDefinition(sc *SchemaDefinition) (bool, []Issue) {
	v.issues = make([]Issue, 0)

	if sc.Name == "" {
		v.addIssue("SCHEMA_NAME_MISSING", "schema must define a name", "")
	}
	if len(sc.Fields) == 0 {
		v.addIssue("SCHEMA_FIELDS_MISSING", "schema must define at least one field", sc.Name)
	}

	for _, name := range sortedKeys(sc.Fields) {
		field := sc.Fields[name]
		if field.Name != "" && field.Name != name {
			v.addIssue("FIELD_NAME_MISMATCH", fmt.Sprintf("field key %q does not match name %q", name, field.Name), v.buildPath(sc.Name, name))
		}
		if !knownFieldType(field.Type) {
			v.addIssue("FIELD_TYPE_UNKNOWN", fmt.Sprintf("unknown field type %q", field.Type), v.buildPath(sc.Name, name))
		}
	}

	for _, index := range sc.Indexes {
		for _, field := range index.Fields {
			if sc.FindField(field) == nil {
				v.addIssue("INDEX_FIELD_UNKNOWN", fmt.Sprintf("index %q references unknown field %q", index.Name, field), sc.Name)
			}
		}
	}

	for _, name := range sortedKeys(sc.Relations) {
		v.validateRelation(sc, name, sc.Relations[name])
	}

	return len(v.issues) == 0, v.issues
}

func (v *Validator) validateRelation(sc *SchemaDefinition, name string, rel *RelationDefinition) {
	path := v.buildPath(sc.Name, name)
	if sc.FindField(name) != nil {
		v.addIssue("RELATION_SHADOWS_FIELD", fmt.Sprintf("relation %q has the same name as a field", name), path)
	}
	if rel.Kind != RelationOne && rel.Kind != RelationMany {
		v.addIssue("RELATION_KIND_UNKNOWN", fmt.Sprintf("unknown relation kind %q", rel.Kind), path)
	}
	if sc.FindField(rel.LocalKey) == nil {
		v.addIssue("RELATION_LOCAL_KEY_UNKNOWN", fmt.Sprintf("local key %q is not a field of %s", rel.LocalKey, sc.Name), path)
	}
	if v.registry == nil {
		return
	}
	target, err := v.registry.Get(rel.Target)
	if err != nil {
		v.addIssue("RELATION_TARGET_UNKNOWN", err.Error(), path)
		return
	}
	if target.FindField(rel.TargetKey) == nil {
		v.addIssue("RELATION_TARGET_KEY_UNKNOWN", fmt.Sprintf("target key %q is not a field of %s", rel.TargetKey, target.Name), path)
	}
}

// ValidateDocument checks a document against a schema. The loose flag skips
// required-field checks, which suits partial updates.
func (v *Validator) ValidateDocument(sc *SchemaDefinition, data map[string]any, loose bool) (bool, []Issue) {
	v.issues = make([]Issue, 0)

	for _, name := range sortedKeys(sc.Fields) {
		field := sc.Fields[name]
		value, present := data[name]
		if !present || value == nil {
			if !loose && field.Required != nil && *field.Required && field.Default == nil {
				v.addIssue("REQUIRED_FIELD_MISSING", fmt.Sprintf("required field %q is missing", name), name)
			}
			continue
		}
		v.validateFieldValue(value, field, name)
	}

	for name := range data {
		if sc.FindField(name) == nil {
			v.addIssue("UNKNOWN_FIELD", fmt.Sprintf("field %q is not part of schema %s", name, sc.Name), name)
		}
	}

	return len(v.issues) == 0, v.issues
}

func (v *Validator) validateFieldValue(value any, field *FieldDefinition, path string) {
	if !v.validateFieldType(value, field.Type) {
		v.addIssue("TYPE_MISMATCH", fmt.Sprintf("expected %s, got %T", field.Type, value), path)
		return
	}
	if field.Type == FieldTypeEnum && len(field.Values) > 0 {
		for _, allowed := range field.Values {
			if reflect.DeepEqual(allowed, value) {
				return
			}
		}
		v.addIssue("ENUM_VALUE_INVALID", fmt.Sprintf("value %v is not one of %v", value, field.Values), path)
	}
}

func (v *Validator) validateFieldType(value any, expected FieldType) bool {
	switch expected {
	case FieldTypeString:
		_, ok := value.(string)
		return ok
	case FieldTypeEnum:
		// Enum values may be strings or numbers; membership is checked separately.
		return true
	case FieldTypeNumber, FieldTypeDecimal:
		return v.isNumericType(value)
	case FieldTypeInteger:
		return v.isIntegerType(value)
	case FieldTypeBoolean:
		_, ok := value.(bool)
		return ok
	case FieldTypeArray, FieldTypeSet:
		kind := reflect.TypeOf(value).Kind()
		return kind == reflect.Slice || kind == reflect.Array
	case FieldTypeObject, FieldTypeRecord:
		return reflect.TypeOf(value).Kind() == reflect.Map || reflect.TypeOf(value).Kind() == reflect.Struct
	default:
		return false
	}
}

func (v *Validator) isNumericType(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func (v *Validator) isIntegerType(value any) bool {
	switch val := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return val == float64(int64(val))
	}
	return false
}

func (v *Validator) buildPath(basePath, fieldName string) string {
	if basePath == "" {
		return fieldName
	}
	return strings.Join([]string{basePath, fieldName}, ".")
}

func (v *Validator) addIssue(code, message, path string) {
	v.issues = append(v.issues, Issue{
		Code:     code,
		Message:  message,
		Path:     path,
		Severity: "error",
	})
}

func knownFieldType(t FieldType) bool {
	switch t {
	case FieldTypeString, FieldTypeNumber, FieldTypeInteger, FieldTypeDecimal, FieldTypeBoolean,
		FieldTypeArray, FieldTypeSet, FieldTypeEnum, FieldTypeObject, FieldTypeRecord:
		return true
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
