package spec

import (
	"errors"

	"github.com/asaidimu/go-anansi-criteria/core/criteria"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEmptyPath is returned when a zero Path is resolved.
var ErrEmptyPath = errors.New("path has no fields")

// segment identifies one traversal step: a relation name read off a node.
type segment struct {
	parent    criteria.From
	attribute string
}

// Context carries everything a single query build needs to turn specifications
// into predicates. It owns the join cache for that build, so joins are shared
// between every predicate and fetch resolved through it and are released with
// it. A Context is used by one goroutine at a time.
type Context struct {
	Root    criteria.Root
	Query   criteria.Query
	Builder criteria.Builder
	// ID identifies the build in log output.
	ID uuid.UUID

	logger *zap.Logger
	joins  map[segment]criteria.Join
}

// NewContext creates the context for one query build.
func NewContext(root criteria.Root, query criteria.Query, cb criteria.Builder, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New()
	return &Context{
		Root:    root,
		Query:   query,
		Builder: cb,
		ID:      id,
		logger:  logger.With(zap.String("build", id.String())),
		joins:   make(map[segment]criteria.Join),
	}
}

// CachedJoins returns how many traversal steps have been resolved to a join or
// fetch node during this build.
func (c *Context) CachedJoins() int {
	return len(c.joins)
}

// Logger returns the build-scoped logger.
func (c *Context) Logger() *zap.Logger {
	return c.logger
}

func (c *Context) resolve(fields []string) (criteria.Path, error) {
	if len(fields) == 0 {
		return nil, ErrEmptyPath
	}
	var from criteria.From = c.Root
	for _, name := range fields[:len(fields)-1] {
		join, err := c.step(from, name, false)
		if err != nil {
			return nil, err
		}
		from = join
	}
	return from.Get(fields[len(fields)-1])
}

func (c *Context) resolveForFetch(fields []string) (criteria.Join, error) {
	if len(fields) == 0 {
		return nil, ErrEmptyPath
	}
	var (
		from criteria.From = c.Root
		join criteria.Join
		err  error
	)
	for _, name := range fields {
		if join, err = c.step(from, name, true); err != nil {
			return nil, err
		}
		from = join
	}
	return join, nil
}

// step returns the node for attribute off parent. A cached node wins; otherwise
// a fetch already made on parent for the same attribute is adopted, and only
// then is a new join or fetch created.
func (c *Context) step(parent criteria.From, attribute string, fetch bool) (criteria.Join, error) {
	key := segment{parent: parent, attribute: attribute}
	if join, ok := c.joins[key]; ok {
		return join, nil
	}

	join := existingFetch(parent, attribute)
	if join == nil {
		var err error
		if fetch {
			join, err = parent.Fetch(attribute)
		} else {
			join, err = parent.Join(attribute)
		}
		if err != nil {
			return nil, err
		}
		c.logger.Debug("Created join",
			zap.String("attribute", attribute),
			zap.Bool("fetch", fetch),
			zap.Int("cached", len(c.joins)+1),
		)
	}
	c.joins[key] = join
	return join, nil
}

func existingFetch(parent criteria.From, attribute string) criteria.Join {
	for _, join := range parent.Joins() {
		if join.IsFetch() && join.Attribute() == attribute {
			return join
		}
	}
	return nil
}
