// Package criteria defines the relational query abstraction that predicate
// specifications are built against. A backend supplies a Root for each query it
// compiles, a Builder that produces expressions, and a Query descriptor; the
// specification layer only ever talks to these interfaces.
package criteria

import (
	"reflect"

	"github.com/asaidimu/go-anansi-criteria/core/schema"
)

// Expression is a backend-built value. Every expression can render itself to a
// SQL fragment with positional arguments.
type Expression interface {
	ToSql() (string, []any, error)
}

// Predicate is a boolean-valued Expression suitable for a filter clause.
type Predicate interface {
	Expression
	// IsPredicate is a marker method distinguishing conditions from values.
	IsPredicate()
}

// Path is a reference to an attribute reachable from a From node.
type Path interface {
	Expression
	// Attribute is the name this path was obtained with.
	Attribute() string
	// Parent is the node the path hangs off, or nil for a root.
	Parent() From
}

// From is a node that attributes can be read from and joined through: either
// the query root or a join.
type From interface {
	Path
	// Schema is the entity definition rows of this node conform to.
	Schema() *schema.SchemaDefinition
	// Get returns a reference to a field or relation of this node.
	Get(attribute string) (Path, error)
	// Join creates a new navigational join through a relation. Every call
	// creates a new node.
	Join(attribute string) (Join, error)
	// Fetch creates a new fetch join through a relation. Every call creates a
	// new node.
	Fetch(attribute string) (Join, error)
	// Joins lists the joins and fetches created on this node so far, in
	// creation order.
	Joins() []Join
}

// Join is a From reached through a relation of its parent.
type Join interface {
	From
	// IsFetch reports whether the join also loads the related rows into the result.
	IsFetch() bool
}

// Root is the From a query is anchored to.
type Root interface {
	From
}

// Query describes the shape of the query being compiled.
type Query interface {
	// ResultType is the Go type each result row is materialized as.
	ResultType() reflect.Type
}

// Builder produces predicates and string expressions.
type Builder interface {
	Equal(x Expression, value any) Predicate
	IsNull(x Expression) Predicate
	In(x Expression, values ...any) Predicate
	LessThan(x Expression, value any) Predicate
	LessThanOrEqualTo(x Expression, value any) Predicate
	GreaterThan(x Expression, value any) Predicate
	GreaterThanOrEqualTo(x Expression, value any) Predicate
	Between(x Expression, lower, upper any) Predicate
	// Like matches x against a LIKE pattern expression, usually a Literal.
	Like(x Expression, pattern Expression) Predicate
	// IsEmpty tests that a collection-valued path holds no elements.
	IsEmpty(collection Expression) Predicate
	// IsMember tests that value is an element of a collection-valued path.
	IsMember(value any, collection Expression) Predicate

	And(left, right Predicate) Predicate
	Or(left, right Predicate) Predicate
	Not(p Predicate) Predicate

	Literal(text string) Expression
	Concat(left, right Expression) Expression
	Lower(x Expression) Expression
	Trim(x Expression) Expression
}

// Filter is the deferred condition handed to a query executor. The executor
// calls it once per query build with that build's root, descriptor and
// builder. A nil Predicate with a nil error means no filtering.
type Filter func(root Root, query Query, cb Builder) (Predicate, error)

var (
	// EntityResult is the result type of queries returning documents.
	EntityResult = reflect.TypeOf(schema.Document{})
	// CountResult is the result type of count queries.
	CountResult = reflect.TypeOf(int64(0))
)

// IsCount reports whether q is a count query.
func IsCount(q Query) bool {
	return q != nil && q.ResultType() == CountResult
}
