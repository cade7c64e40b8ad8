package spec

import (
	"github.com/asaidimu/go-anansi-criteria/core/criteria"
	"go.uber.org/zap"
)

// Specification is a deferred predicate over entities of type T. A nil
// predicate with a nil error means the specification imposes no constraint.
// The nil Specification is valid and behaves like Empty.
type Specification[T any] func(ctx *Context) (criteria.Predicate, error)

// Build evaluates the specification against a query build.
func (s Specification[T]) Build(ctx *Context) (criteria.Predicate, error) {
	if s == nil {
		return nil, nil
	}
	return s(ctx)
}

// And is shorthand for And(s, other).
func (s Specification[T]) And(other Specification[T]) Specification[T] {
	return And(s, other)
}

// Or is shorthand for Or(s, other).
func (s Specification[T]) Or(other Specification[T]) Specification[T] {
	return Or(s, other)
}

// Compile turns a specification into the filter an executor invokes once per
// query build. Every invocation gets a fresh Context, so joins never leak
// between builds.
func Compile[T any](s Specification[T], logger *zap.Logger) criteria.Filter {
	return func(root criteria.Root, query criteria.Query, cb criteria.Builder) (criteria.Predicate, error) {
		return s.Build(NewContext(root, query, cb, logger))
	}
}

// Empty matches everything.
func Empty[T any]() Specification[T] {
	return func(*Context) (criteria.Predicate, error) { return nil, nil }
}

// And conjoins specs. Specifications without a constraint are skipped, so And
// of nothing is itself unconstrained.
func And[T any](specs ...Specification[T]) Specification[T] {
	return fold(specs, func(cb criteria.Builder, left, right criteria.Predicate) criteria.Predicate {
		return cb.And(left, right)
	})
}

// Or disjoins specs. Specifications without a constraint are skipped rather
// than widening the result to everything.
func Or[T any](specs ...Specification[T]) Specification[T] {
	return fold(specs, func(cb criteria.Builder, left, right criteria.Predicate) criteria.Predicate {
		return cb.Or(left, right)
	})
}

func fold[T any](specs []Specification[T], combine func(cb criteria.Builder, left, right criteria.Predicate) criteria.Predicate) Specification[T] {
	return func(ctx *Context) (criteria.Predicate, error) {
		var acc criteria.Predicate
		for _, s := range specs {
			p, err := s.Build(ctx)
			if err != nil {
				return nil, err
			}
			switch {
			case p == nil:
			case acc == nil:
				acc = p
			default:
				acc = combine(ctx.Builder, acc, p)
			}
		}
		return acc, nil
	}
}

// Not negates s. Negating an unconstrained specification leaves it unconstrained.
func Not[T any](s Specification[T]) Specification[T] {
	return func(ctx *Context) (criteria.Predicate, error) {
		p, err := s.Build(ctx)
		if err != nil || p == nil {
			return nil, err
		}
		return ctx.Builder.Not(p), nil
	}
}

// Where builds a predicate by hand from the whole build context. When enabled
// is false fn is never called.
func Where[T any](enabled bool, fn func(ctx *Context) (criteria.Predicate, error)) Specification[T] {
	return func(ctx *Context) (criteria.Predicate, error) {
		if !enabled {
			return nil, nil
		}
		return fn(ctx)
	}
}

// Custom builds a predicate by hand from the resolved path. When enabled is
// false the path is not resolved and fn is never called.
func Custom[T, V any](p Path[T, V], enabled bool, fn func(cb criteria.Builder, x criteria.Expression) criteria.Predicate) Specification[T] {
	return func(ctx *Context) (criteria.Predicate, error) {
		if !enabled {
			return nil, nil
		}
		x, err := p.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		return fn(ctx.Builder, x), nil
	}
}
