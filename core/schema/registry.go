package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrSchemaNotFound is returned when a schema name is not registered.
	ErrSchemaNotFound = errors.New("schema not found")
	// ErrUnknownAttribute is returned when a name is neither a field nor a relation of a schema.
	ErrUnknownAttribute = errors.New("unknown attribute")
	// ErrNotARelation is returned when a join is requested through a plain field.
	ErrNotARelation = errors.New("attribute is not a relation")
)

// Registry holds the schema definitions that relations may point at.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*SchemaDefinition
}

// NewRegistry creates a registry holding the given schemas.
func NewRegistry(schemas ...*SchemaDefinition) *Registry {
	r := &Registry{schemas: make(map[string]*SchemaDefinition, len(schemas))}
	for _, sc := range schemas {
		r.schemas[sc.Name] = sc
	}
	return r
}

// Register adds or replaces a schema definition.
func (r *Registry) Register(sc *SchemaDefinition) error {
	if sc == nil || sc.Name == "" {
		return fmt.Errorf("schema must define a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[sc.Name] = sc
	return nil
}

// Get returns the schema registered under name.
func (r *Registry) Get(name string) (*SchemaDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	return sc, nil
}

// Names returns the registered schema names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Target resolves the schema a relation of owner points at.
func (r *Registry) Target(owner *SchemaDefinition, relation string) (*RelationDefinition, *SchemaDefinition, error) {
	rel := owner.FindRelation(relation)
	if rel == nil {
		if owner.FindField(relation) != nil {
			return nil, nil, fmt.Errorf("%w: %s.%s", ErrNotARelation, owner.Name, relation)
		}
		return nil, nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, owner.Name, relation)
	}
	target, err := r.Get(rel.Target)
	if err != nil {
		return nil, nil, fmt.Errorf("relation %s.%s: %w", owner.Name, relation, err)
	}
	return rel, target, nil
}
