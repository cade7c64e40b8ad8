package spec

import (
	"github.com/asaidimu/go-anansi-criteria/core/criteria"
	"go.uber.org/zap"
)

// Fetch asks the query to load the related rows along each path. It never
// constrains the result. Count queries ignore it entirely and create no joins.
//
//	spec.And(spec.Fetch[User](UserOrders), spec.Equal(UserName, &name))
func Fetch[T any](paths ...AnyPath[T]) Specification[T] {
	return func(ctx *Context) (criteria.Predicate, error) {
		if criteria.IsCount(ctx.Query) {
			ctx.logger.Debug("Skipping fetch for count query", zap.Int("paths", len(paths)))
			return nil, nil
		}
		for _, p := range paths {
			if _, err := ctx.resolveForFetch(p.segments()); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
}
