package sqlite

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/asaidimu/go-anansi-criteria/core/criteria"
	"github.com/asaidimu/go-anansi-criteria/core/schema"
)

const subqueryAlias = "sub"

// quoteIdentifier properly quotes an identifier for SQLite.
func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Query is one SELECT or COUNT statement under construction. It hands out the
// root Source that criteria filters resolve paths against, records every join
// they create, and renders the final statement with squirrel.
type Query struct {
	registry *schema.Registry
	result   reflect.Type
	prefix   string
	root     *Source
	sources  []*Source
}

var _ criteria.Query = (*Query)(nil)

// NewQuery creates a query over sc. Relations are resolved through registry;
// result is criteria.EntityResult or criteria.CountResult.
func NewQuery(sc *schema.SchemaDefinition, registry *schema.Registry, result reflect.Type, prefix string) (*Query, error) {
	if sc == nil {
		return nil, fmt.Errorf("SchemaDefinition cannot be nil")
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("schema must define a table name")
	}
	if registry == nil {
		registry = schema.NewRegistry(sc)
	}
	q := &Query{registry: registry, result: result, prefix: prefix}
	q.root = q.newSource(sc, nil, "", nil, false)
	return q, nil
}

func (q *Query) ResultType() reflect.Type {
	return q.result
}

// Root returns the node paths are resolved from.
func (q *Query) Root() *Source {
	return q.root
}

// Joins returns every join and fetch created so far, in creation order.
func (q *Query) Joins() []*Source {
	return q.sources[1:]
}

func (q *Query) table(name string) string {
	return quoteIdentifier(q.prefix + name)
}

func (q *Query) newSource(sc *schema.SchemaDefinition, parent *Source, attr string, rel *schema.RelationDefinition, fetch bool) *Source {
	s := &Source{
		query:    q,
		schema:   sc,
		alias:    fmt.Sprintf("t%d", len(q.sources)),
		parent:   parent,
		attr:     attr,
		relation: rel,
		fetch:    fetch,
	}
	q.sources = append(q.sources, s)
	return s
}

// from renders the FROM clause with all joins. Fetches are LEFT joins so rows
// without related data survive.
func (q *Query) from(sb squirrel.SelectBuilder) squirrel.SelectBuilder {
	sb = sb.From(q.table(q.root.schema.Name) + " AS " + q.root.alias)
	for _, s := range q.Joins() {
		clause := fmt.Sprintf("%s AS %s ON %s = %s",
			q.table(s.schema.Name), s.alias,
			s.column(s.relation.TargetKey), s.parent.column(s.relation.LocalKey))
		if s.fetch {
			sb = sb.LeftJoin(clause)
		} else {
			sb = sb.Join(clause)
		}
	}
	return sb
}

// SelectSQL renders the SELECT statement for where, which may be nil. Root
// columns keep their names; fetched columns are labelled alias.column.
func (q *Query) SelectSQL(where criteria.Predicate) (string, []any, error) {
	columns := q.root.columns("")
	for _, s := range q.fetched() {
		columns = append(columns, s.columns(s.alias+".")...)
	}
	sb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question).Select(columns...)
	sb = q.from(sb)
	if where != nil {
		sb = sb.Where(where)
	}
	orderBy := []string{q.root.column(q.root.schema.PrimaryKey())}
	for _, s := range q.fetched() {
		orderBy = append(orderBy, s.column(s.schema.PrimaryKey()))
	}
	return sb.OrderBy(orderBy...).ToSql()
}

// CountSQL renders a COUNT statement for where. Joined queries count distinct
// root keys so to-many joins do not inflate the total.
func (q *Query) CountSQL(where criteria.Predicate) (string, []any, error) {
	count := "COUNT(*)"
	if len(q.Joins()) > 0 {
		count = fmt.Sprintf("COUNT(DISTINCT %s)", q.root.column(q.root.schema.PrimaryKey()))
	}
	sb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question).Select(count)
	sb = q.from(sb)
	if where != nil {
		sb = sb.Where(where)
	}
	return sb.ToSql()
}

// fetched lists the fetch joins whose whole chain up to the root is fetched,
// which are the ones that can be nested into result documents.
func (q *Query) fetched() []*Source {
	var out []*Source
	for _, s := range q.Joins() {
		if s.loaded() {
			out = append(out, s)
		}
	}
	return out
}

// Source is the root of a query or a join made from it. It implements
// criteria.Root and criteria.Join.
type Source struct {
	query    *Query
	schema   *schema.SchemaDefinition
	alias    string
	parent   *Source
	attr     string
	relation *schema.RelationDefinition
	fetch    bool
	joins    []criteria.Join
}

var (
	_ criteria.Root = (*Source)(nil)
	_ criteria.Join = (*Source)(nil)
)

// ToSql renders the primary key of the source's rows.
func (s *Source) ToSql() (string, []any, error) {
	return s.column(s.schema.PrimaryKey()), nil, nil
}

func (s *Source) Attribute() string {
	return s.attr
}

func (s *Source) Parent() criteria.From {
	if s.parent == nil {
		return nil
	}
	return s.parent
}

func (s *Source) Schema() *schema.SchemaDefinition {
	return s.schema
}

func (s *Source) IsFetch() bool {
	return s.fetch
}

// Alias is the table alias used for the source in SQL.
func (s *Source) Alias() string {
	return s.alias
}

func (s *Source) Joins() []criteria.Join {
	return s.joins
}

// Get returns a column or relation of the source.
func (s *Source) Get(attribute string) (criteria.Path, error) {
	if s.schema.FindField(attribute) != nil {
		return &Column{source: s, name: attribute}, nil
	}
	rel, target, err := s.query.registry.Target(s.schema, attribute)
	if err != nil {
		return nil, err
	}
	return &Column{source: s, name: attribute, relation: rel, target: target}, nil
}

func (s *Source) Join(attribute string) (criteria.Join, error) {
	return s.add(attribute, false)
}

func (s *Source) Fetch(attribute string) (criteria.Join, error) {
	return s.add(attribute, true)
}

func (s *Source) add(attribute string, fetch bool) (criteria.Join, error) {
	rel, target, err := s.query.registry.Target(s.schema, attribute)
	if err != nil {
		return nil, err
	}
	join := s.query.newSource(target, s, attribute, rel, fetch)
	s.joins = append(s.joins, join)
	return join, nil
}

func (s *Source) column(name string) string {
	return s.alias + "." + quoteIdentifier(name)
}

func (s *Source) columns(label string) []string {
	names := sortedFields(s.schema)
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = s.column(name) + " AS " + quoteIdentifier(label+name)
	}
	return out
}

func (s *Source) loaded() bool {
	for n := s; n.parent != nil; n = n.parent {
		if !n.fetch {
			return false
		}
	}
	return true
}

// Column is a reference to a field or relation of a Source.
type Column struct {
	source   *Source
	name     string
	relation *schema.RelationDefinition
	target   *schema.SchemaDefinition
}

var _ criteria.Path = (*Column)(nil)

// ToSql renders the column. A relation renders its local key.
func (c *Column) ToSql() (string, []any, error) {
	if c.relation != nil {
		return c.source.column(c.relation.LocalKey), nil, nil
	}
	return c.source.column(c.name), nil, nil
}

func (c *Column) Attribute() string {
	return c.name
}

func (c *Column) Parent() criteria.From {
	return c.source
}

// related selects the target rows of a relation column, aliased subqueryAlias.
func (c *Column) related() squirrel.Sqlizer {
	return squirrel.Expr(fmt.Sprintf("SELECT 1 FROM %s AS %s WHERE %s.%s = %s",
		c.source.query.table(c.target.Name), subqueryAlias,
		subqueryAlias, quoteIdentifier(c.relation.TargetKey),
		c.source.column(c.relation.LocalKey)))
}
