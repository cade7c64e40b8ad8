package utils

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/asaidimu/go-anansi-criteria/core/schema"
)

// StructToDocument converts a struct, or a pointer to one, into a document
// keyed by its json tags. Nested structs become nested documents.
//
// Example:
//
//	type User struct {
//		ID   int64  `json:"id"`
//		Name string `json:"name"`
//	}
//	doc, err := StructToDocument(User{ID: 1, Name: "Ann"})
//	// doc is schema.Document{"id": float64(1), "name": "Ann"}
func StructToDocument[T any](record T) (schema.Document, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("input record cannot be a nil pointer to a struct")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("StructToDocument: failed to marshal input record to JSON: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(jsonBytes, &doc); err != nil {
		return nil, fmt.Errorf("StructToDocument: failed to unmarshal JSON to document: %w", err)
	}
	return toDocuments(doc).(schema.Document), nil
}

// toDocuments turns the nested maps json produced into schema.Document values
// so fetched relations and converted structs look alike.
func toDocuments(v any) any {
	switch val := v.(type) {
	case map[string]any:
		doc := make(schema.Document, len(val))
		for k, item := range val {
			doc[k] = toDocuments(item)
		}
		return doc
	case []any:
		for n, item := range val {
			val[n] = toDocuments(item)
		}
		return val
	default:
		return v
	}
}

// DocumentsToStructs decodes query results into values of T. Fetched
// relations decode into the matching nested fields of T.
func DocumentsToStructs[T any](docs []schema.Document) ([]T, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("DocumentsToStructs: generic type T must be a struct type (or pointer to struct), got %s", typ.Kind())
	}

	jsonBytes, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("DocumentsToStructs: failed to marshal documents to JSON: %w", err)
	}
	result := make([]T, 0, len(docs))
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil, fmt.Errorf("DocumentsToStructs: failed to unmarshal JSON to target struct: %w", err)
	}
	return result, nil
}
