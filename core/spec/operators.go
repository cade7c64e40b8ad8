package spec

import (
	"cmp"
	"time"

	"github.com/asaidimu/go-anansi-criteria/core/criteria"
)

// Ordered is the set of value types the ordering operators accept.
type Ordered interface {
	cmp.Ordered | time.Time
}

// IsNull matches rows where the field is NULL.
func IsNull[T, V any](p Path[T, V]) Specification[T] {
	return Custom(p, true, func(cb criteria.Builder, x criteria.Expression) criteria.Predicate {
		return cb.IsNull(x)
	})
}

// Equal matches rows where the field equals *value. A nil value disables the
// specification unless Nullable is given, in which case it matches NULL.
func Equal[T, V any](p Path[T, V], value *V, opts ...Option) Specification[T] {
	o := collect(opts)
	return Custom(p, value != nil || o.nullable, func(cb criteria.Builder, x criteria.Expression) criteria.Predicate {
		if value == nil {
			return cb.IsNull(x)
		}
		return cb.Equal(x, *value)
	})
}

// MemberOf matches rows where the field is one of values. An empty list
// disables the specification.
func MemberOf[T, V any](p Path[T, V], values []V) Specification[T] {
	return Custom(p, len(values) > 0, func(cb criteria.Builder, x criteria.Expression) criteria.Predicate {
		args := make([]any, len(values))
		for i, v := range values {
			args[i] = v
		}
		return cb.In(x, args...)
	})
}

// LessThan matches rows where the field is below *value. A nil value disables it.
func LessThan[T any, V Ordered](p Path[T, V], value *V) Specification[T] {
	return Custom(p, value != nil, func(cb criteria.Builder, x criteria.Expression) criteria.Predicate {
		return cb.LessThan(x, *value)
	})
}

// LessThanOrEqualTo matches rows where the field is at most *value.
func LessThanOrEqualTo[T any, V Ordered](p Path[T, V], value *V) Specification[T] {
	return Custom(p, value != nil, func(cb criteria.Builder, x criteria.Expression) criteria.Predicate {
		return cb.LessThanOrEqualTo(x, *value)
	})
}

// GreaterThan matches rows where the field is above *value. A nil value disables it.
func GreaterThan[T any, V Ordered](p Path[T, V], value *V) Specification[T] {
	return Custom(p, value != nil, func(cb criteria.Builder, x criteria.Expression) criteria.Predicate {
		return cb.GreaterThan(x, *value)
	})
}

// GreaterThanOrEqualTo matches rows where the field is at least *value.
func GreaterThanOrEqualTo[T any, V Ordered](p Path[T, V], value *V) Specification[T] {
	return Custom(p, value != nil, func(cb criteria.Builder, x criteria.Expression) criteria.Predicate {
		return cb.GreaterThanOrEqualTo(x, *value)
	})
}

// Between matches lower <= field <= upper. Both bounds are required.
func Between[T any, V Ordered](p Path[T, V], lower, upper *V) Specification[T] {
	return Custom(p, lower != nil && upper != nil, func(cb criteria.Builder, x criteria.Expression) criteria.Predicate {
		return cb.Between(x, *lower, *upper)
	})
}

// IsEmpty matches rows whose collection holds no elements.
func IsEmpty[T, E any](p Path[T, []E]) Specification[T] {
	return Custom(p, true, func(cb criteria.Builder, x criteria.Expression) criteria.Predicate {
		return cb.IsEmpty(x)
	})
}

// ContainsElement matches rows whose collection holds *value. For a relation
// the element is identified by its primary key.
func ContainsElement[T, E any](p Path[T, []E], value *E) Specification[T] {
	return Custom(p, value != nil, func(cb criteria.Builder, x criteria.Expression) criteria.Predicate {
		return cb.IsMember(*value, x)
	})
}
