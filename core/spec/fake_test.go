package spec

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/asaidimu/go-anansi-criteria/core/criteria"
	"github.com/asaidimu/go-anansi-criteria/core/schema"
)

// The fake backend renders every expression as readable text and counts the
// join and fetch nodes it creates.

type (
	User    struct{}
	Address struct{}
	Geo     struct{}
	Order   struct{}
)

var (
	UserName      = Attr[User, string]("name")
	UserLastName  = Attr[User, string]("last_name")
	UserAge       = Attr[User, int]("age")
	UserTags      = Attr[User, []string]("tags")
	UserAddress   = Attr[User, Address]("address")
	UserOrders    = Attr[User, []Order]("orders")
	AddressCity   = Attr[Address, string]("city")
	AddressStreet = Attr[Address, string]("street")
	AddressGeo    = Attr[Address, Geo]("geo")
	GeoLat        = Attr[Geo, float64]("lat")
	GeoLng        = Attr[Geo, float64]("lng")
	OrderTotal    = Attr[Order, float64]("total")
)

var errUnknown = errors.New("no such attribute")

func ptr[V any](v V) *V { return &v }

type fakeExpr string

func (e fakeExpr) ToSql() (string, []any, error) { return string(e), nil, nil }

type fakePredicate string

func (p fakePredicate) ToSql() (string, []any, error) { return string(p), nil, nil }
func (fakePredicate) IsPredicate()                    {}

type fakeStats struct {
	joins   int
	fetches int
}

type fakeNode struct {
	name   string
	attr   string
	parent *fakeNode
	fetch  bool
	joins  []criteria.Join
	stats  *fakeStats
}

func newFakeRoot() *fakeNode {
	return &fakeNode{name: "u", stats: &fakeStats{}}
}

func (n *fakeNode) ToSql() (string, []any, error)    { return n.name, nil, nil }
func (n *fakeNode) Attribute() string                { return n.attr }
func (n *fakeNode) Schema() *schema.SchemaDefinition { return nil }
func (n *fakeNode) IsFetch() bool                    { return n.fetch }
func (n *fakeNode) Joins() []criteria.Join           { return n.joins }

func (n *fakeNode) Parent() criteria.From {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *fakeNode) Get(attribute string) (criteria.Path, error) {
	if attribute == "missing" {
		return nil, errUnknown
	}
	return &fakeRef{parent: n, attr: attribute}, nil
}

func (n *fakeNode) Join(attribute string) (criteria.Join, error) {
	return n.add(attribute, false)
}

func (n *fakeNode) Fetch(attribute string) (criteria.Join, error) {
	return n.add(attribute, true)
}

func (n *fakeNode) add(attribute string, fetch bool) (criteria.Join, error) {
	if attribute == "missing" {
		return nil, errUnknown
	}
	if fetch {
		n.stats.fetches++
	} else {
		n.stats.joins++
	}
	child := &fakeNode{name: n.name + "." + attribute, attr: attribute, parent: n, fetch: fetch, stats: n.stats}
	n.joins = append(n.joins, child)
	return child, nil
}

type fakeRef struct {
	parent *fakeNode
	attr   string
}

func (r *fakeRef) ToSql() (string, []any, error) { return r.parent.name + "." + r.attr, nil, nil }
func (r *fakeRef) Attribute() string             { return r.attr }
func (r *fakeRef) Parent() criteria.From         { return r.parent }

type fakeQuery struct{ result reflect.Type }

func (q fakeQuery) ResultType() reflect.Type { return q.result }

type fakeBuilder struct{}

func sqlOf(x criteria.Expression) string {
	s, _, _ := x.ToSql()
	return s
}

func (fakeBuilder) Equal(x criteria.Expression, v any) criteria.Predicate {
	return fakePredicate(fmt.Sprintf("%s = %v", sqlOf(x), v))
}

func (fakeBuilder) IsNull(x criteria.Expression) criteria.Predicate {
	return fakePredicate(sqlOf(x) + " IS NULL")
}

func (fakeBuilder) In(x criteria.Expression, values ...any) criteria.Predicate {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return fakePredicate(fmt.Sprintf("%s IN (%s)", sqlOf(x), strings.Join(parts, ",")))
}

func (fakeBuilder) LessThan(x criteria.Expression, v any) criteria.Predicate {
	return fakePredicate(fmt.Sprintf("%s < %v", sqlOf(x), v))
}

func (fakeBuilder) LessThanOrEqualTo(x criteria.Expression, v any) criteria.Predicate {
	return fakePredicate(fmt.Sprintf("%s <= %v", sqlOf(x), v))
}

func (fakeBuilder) GreaterThan(x criteria.Expression, v any) criteria.Predicate {
	return fakePredicate(fmt.Sprintf("%s > %v", sqlOf(x), v))
}

func (fakeBuilder) GreaterThanOrEqualTo(x criteria.Expression, v any) criteria.Predicate {
	return fakePredicate(fmt.Sprintf("%s >= %v", sqlOf(x), v))
}

func (fakeBuilder) Between(x criteria.Expression, lower, upper any) criteria.Predicate {
	return fakePredicate(fmt.Sprintf("%s BETWEEN %v AND %v", sqlOf(x), lower, upper))
}

func (fakeBuilder) Like(x criteria.Expression, pattern criteria.Expression) criteria.Predicate {
	return fakePredicate(sqlOf(x) + " LIKE " + sqlOf(pattern))
}

func (fakeBuilder) IsEmpty(x criteria.Expression) criteria.Predicate {
	return fakePredicate(sqlOf(x) + " IS EMPTY")
}

func (fakeBuilder) IsMember(v any, x criteria.Expression) criteria.Predicate {
	return fakePredicate(fmt.Sprintf("%v MEMBER OF %s", v, sqlOf(x)))
}

func (fakeBuilder) And(l, r criteria.Predicate) criteria.Predicate {
	return fakePredicate(fmt.Sprintf("(%s AND %s)", sqlOf(l), sqlOf(r)))
}

func (fakeBuilder) Or(l, r criteria.Predicate) criteria.Predicate {
	return fakePredicate(fmt.Sprintf("(%s OR %s)", sqlOf(l), sqlOf(r)))
}

func (fakeBuilder) Not(p criteria.Predicate) criteria.Predicate {
	return fakePredicate("NOT " + sqlOf(p))
}

func (fakeBuilder) Literal(text string) criteria.Expression {
	return fakeExpr("'" + text + "'")
}

func (fakeBuilder) Concat(l, r criteria.Expression) criteria.Expression {
	return fakeExpr(fmt.Sprintf("concat(%s, %s)", sqlOf(l), sqlOf(r)))
}

func (fakeBuilder) Lower(x criteria.Expression) criteria.Expression {
	return fakeExpr("lower(" + sqlOf(x) + ")")
}

func (fakeBuilder) Trim(x criteria.Expression) criteria.Expression {
	return fakeExpr("trim(" + sqlOf(x) + ")")
}

func newTestContext(result reflect.Type) (*Context, *fakeNode) {
	root := newFakeRoot()
	return NewContext(root, fakeQuery{result: result}, fakeBuilder{}, nil), root
}

// render builds s against a fresh entity query and returns its text, or "" when
// it imposes no constraint.
func render[T any](s Specification[T]) (string, *fakeNode, error) {
	ctx, root := newTestContext(criteria.EntityResult)
	p, err := s.Build(ctx)
	if err != nil || p == nil {
		return "", root, err
	}
	return sqlOf(p), root, nil
}
