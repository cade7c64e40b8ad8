// Package spec provides a typed DSL for composing deferred filter predicates over
// entity field paths. Specifications are plain values: nothing touches a query
// until a compiled Filter is invoked by an executor with a concrete root, at
// which point paths are resolved into joins through a per-build Context.
package spec

import (
	"slices"
	"strings"

	"github.com/asaidimu/go-anansi-criteria/core/criteria"
)

// Path is an immutable, non-empty chain of field names rooted at entity T whose
// final value has type V. Every intermediate field names a relation.
type Path[T, V any] struct {
	fields []string
}

// Attr declares a field of T holding values of type V. It is the typed token a
// metamodel exposes for a property, and a single-segment Path in its own right.
//
//	var UserName = spec.Attr[User, string]("name")
func Attr[T, V any](name string) Path[T, V] {
	return Path[T, V]{fields: []string{name}}
}

// Then extends a path through a to-one relation with a field of the related entity.
func Then[T, M, V any](p Path[T, M], next Path[M, V]) Path[T, V] {
	return Path[T, V]{fields: concatFields(p.fields, next.fields)}
}

// ThenEach extends a path through a to-many relation with a field of its
// element type. Resolution is the same as Then; only the typing differs.
func ThenEach[T, E, V any](p Path[T, []E], next Path[E, V]) Path[T, V] {
	return Path[T, V]{fields: concatFields(p.fields, next.fields)}
}

// Append extends the path with one untyped field name.
func (p Path[T, V]) Append(name string) Path[T, any] {
	return Path[T, any]{fields: concatFields(p.fields, []string{name})}
}

// Fields returns a copy of the field names in traversal order.
func (p Path[T, V]) Fields() []string {
	return slices.Clone(p.fields)
}

// Equal reports whether both paths walk the same fields.
func (p Path[T, V]) Equal(other Path[T, V]) bool {
	return slices.Equal(p.fields, other.fields)
}

func (p Path[T, V]) String() string {
	return strings.Join(p.fields, ".")
}

// Resolve walks the path from the context's root and returns a reference to its
// last field. Intermediate fields become joins, shared through the context's
// cache; the last field is a plain attribute and is never cached.
func (p Path[T, V]) Resolve(ctx *Context) (criteria.Path, error) {
	return ctx.resolve(p.fields)
}

// ResolveForFetch walks the path making every field, the last included, a
// fetch join. Existing cached nodes are reused.
func (p Path[T, V]) ResolveForFetch(ctx *Context) (criteria.Join, error) {
	return ctx.resolveForFetch(p.fields)
}

func (p Path[T, V]) segments() []string { return p.fields }

func (p Path[T, V]) anchor(T) {}

// AnyPath is satisfied by every Path rooted at T, whatever its value type.
type AnyPath[T any] interface {
	segments() []string
	anchor(T)
}

func concatFields(head, tail []string) []string {
	out := make([]string, 0, len(head)+len(tail))
	out = append(out, head...)
	return append(out, tail...)
}
