package sqlite

import (
	"reflect"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/asaidimu/go-anansi-criteria/core/criteria"
	"github.com/asaidimu/go-anansi-criteria/core/schema"
	"github.com/asaidimu/go-anansi-criteria/utils"
)

// predicate marks a squirrel fragment as a boolean condition.
type predicate struct {
	squirrel.Sqlizer
}

func (predicate) IsPredicate() {}

func asPredicate(s squirrel.Sqlizer) criteria.Predicate {
	return predicate{s}
}

// Builder implements criteria.Builder on top of squirrel expressions. It is
// stateless and safe for concurrent use.
type Builder struct{}

var _ criteria.Builder = (*Builder)(nil)

// NewBuilder creates a SQLite expression builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func bind(value any) squirrel.Sqlizer {
	return squirrel.Expr("?", value)
}

func (b *Builder) compare(x criteria.Expression, op string, value any) criteria.Predicate {
	return asPredicate(squirrel.ConcatExpr(x, " "+op+" ", bind(value)))
}

// Equal renders x = value. A nil value renders IS NULL.
func (b *Builder) Equal(x criteria.Expression, value any) criteria.Predicate {
	if value == nil {
		return b.IsNull(x)
	}
	return b.compare(x, "=", value)
}

func (b *Builder) IsNull(x criteria.Expression) criteria.Predicate {
	return asPredicate(squirrel.ConcatExpr(x, " IS NULL"))
}

// In renders x IN (...). No values renders a condition that is never true.
func (b *Builder) In(x criteria.Expression, values ...any) criteria.Predicate {
	if len(values) == 0 {
		return asPredicate(squirrel.Expr("1=0"))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
	return asPredicate(squirrel.ConcatExpr(x, " IN (", squirrel.Expr(placeholders, values...), ")"))
}

func (b *Builder) LessThan(x criteria.Expression, value any) criteria.Predicate {
	return b.compare(x, "<", value)
}

func (b *Builder) LessThanOrEqualTo(x criteria.Expression, value any) criteria.Predicate {
	return b.compare(x, "<=", value)
}

func (b *Builder) GreaterThan(x criteria.Expression, value any) criteria.Predicate {
	return b.compare(x, ">", value)
}

func (b *Builder) GreaterThanOrEqualTo(x criteria.Expression, value any) criteria.Predicate {
	return b.compare(x, ">=", value)
}

func (b *Builder) Between(x criteria.Expression, lower, upper any) criteria.Predicate {
	return asPredicate(squirrel.ConcatExpr(x, " BETWEEN ", squirrel.Expr("? AND ?", lower, upper)))
}

// Like renders x LIKE pattern. Databases opened with Open compare case-sensitively.
func (b *Builder) Like(x criteria.Expression, pattern criteria.Expression) criteria.Predicate {
	return asPredicate(squirrel.ConcatExpr(x, " LIKE ", pattern))
}

// IsEmpty tests a to-many relation for related rows, or a JSON array column
// for elements. NULL arrays count as empty.
func (b *Builder) IsEmpty(collection criteria.Expression) criteria.Predicate {
	if col, ok := collection.(*Column); ok && col.relation != nil {
		if !col.relation.IsCollection() {
			return asPredicate(squirrel.Expr(col.source.column(col.relation.LocalKey) + " IS NULL"))
		}
		return asPredicate(squirrel.ConcatExpr("NOT EXISTS (", col.related(), ")"))
	}
	return asPredicate(squirrel.ConcatExpr("COALESCE(json_array_length(", collection, "), 0) = 0"))
}

// IsMember tests whether value is an element of a JSON array column, or the
// primary key of a row reachable through a to-many relation. Documents and
// entity structs are matched by their primary key.
func (b *Builder) IsMember(value any, collection criteria.Expression) criteria.Predicate {
	if col, ok := collection.(*Column); ok && col.relation != nil {
		pk := col.target.PrimaryKey()
		if doc, isDoc := asDocument(value); isDoc {
			value = doc[pk]
		}
		sub := squirrel.ConcatExpr(col.related(), " AND ", subqueryAlias+"."+quoteIdentifier(pk)+" = ", bind(value))
		return asPredicate(squirrel.ConcatExpr("EXISTS (", sub, ")"))
	}
	return asPredicate(squirrel.ConcatExpr("EXISTS (SELECT 1 FROM json_each(", collection, ") WHERE value = ", bind(value), ")"))
}

// asDocument reads value as a document. Entity structs, or pointers to them,
// are converted through their json tags.
func asDocument(value any) (schema.Document, bool) {
	switch v := value.(type) {
	case schema.Document:
		return v, true
	case map[string]any:
		return v, true
	}
	if reflect.Indirect(reflect.ValueOf(value)).Kind() != reflect.Struct {
		return nil, false
	}
	doc, err := utils.StructToDocument(value)
	if err != nil {
		return nil, false
	}
	return doc, true
}

func (b *Builder) And(left, right criteria.Predicate) criteria.Predicate {
	return asPredicate(squirrel.And{left, right})
}

func (b *Builder) Or(left, right criteria.Predicate) criteria.Predicate {
	return asPredicate(squirrel.Or{left, right})
}

func (b *Builder) Not(p criteria.Predicate) criteria.Predicate {
	return asPredicate(squirrel.ConcatExpr("NOT (", p, ")"))
}

// Literal binds text as a parameter.
func (b *Builder) Literal(text string) criteria.Expression {
	return bind(text)
}

func (b *Builder) Concat(left, right criteria.Expression) criteria.Expression {
	return squirrel.ConcatExpr("(", left, " || ", right, ")")
}

func (b *Builder) Lower(x criteria.Expression) criteria.Expression {
	return squirrel.ConcatExpr("LOWER(", x, ")")
}

func (b *Builder) Trim(x criteria.Expression) criteria.Expression {
	return squirrel.ConcatExpr("TRIM(", x, ")")
}
