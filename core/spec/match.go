package spec

import (
	"regexp"
	"strings"

	"github.com/asaidimu/go-anansi-criteria/core/criteria"
)

// Wildcard matches any run of characters in a LIKE pattern.
const Wildcard = "%"

var whitespace = regexp.MustCompile(`\s+`)

// Option adjusts how an operator builds its predicate.
type Option func(*options)

type options struct {
	caseSensitive  bool
	wildcardSpaces bool
	nullable       bool
}

// CaseSensitive compares patterns as given. By default both the field and the
// pattern are lower-cased by the builder, so both sides fold the same way.
func CaseSensitive() Option {
	return func(o *options) { o.caseSensitive = true }
}

// WildcardSpaces turns every run of whitespace in a pattern into a wildcard,
// so "john  doe" also matches "john h. doe".
func WildcardSpaces() Option {
	return func(o *options) { o.wildcardSpaces = true }
}

// Nullable makes Equal with a nil value match NULL instead of being skipped.
func Nullable() Option {
	return func(o *options) { o.nullable = true }
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Pattern returns the LIKE pattern a string operator sends to the builder for
// value. Wildcard characters already in value are kept. Case folding is left
// to the builder.
func Pattern(value string, opts ...Option) string {
	o := collect(opts)
	return o.pattern(value)
}

func (o options) pattern(value string) string {
	if o.wildcardSpaces {
		value = whitespace.ReplaceAllString(value, Wildcard)
	}
	return value
}

func (o options) like(cb criteria.Builder, x criteria.Expression, value string) criteria.Predicate {
	pattern := cb.Literal(o.pattern(value))
	if o.caseSensitive {
		return cb.Like(x, pattern)
	}
	return cb.Like(cb.Lower(x), cb.Lower(pattern))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Like matches the field against a raw pattern. A blank pattern disables the
// specification.
func Like[T any](p Path[T, string], pattern string, opts ...Option) Specification[T] {
	o := collect(opts)
	return Custom(p, !blank(pattern), func(cb criteria.Builder, x criteria.Expression) criteria.Predicate {
		return o.like(cb, x, pattern)
	})
}

// StartsWith matches fields beginning with value.
func StartsWith[T any](p Path[T, string], value string, opts ...Option) Specification[T] {
	return withValue(value, value+Wildcard, func(pattern string) Specification[T] { return Like(p, pattern, opts...) })
}

// EndsWith matches fields ending with value.
func EndsWith[T any](p Path[T, string], value string, opts ...Option) Specification[T] {
	return withValue(value, Wildcard+value, func(pattern string) Specification[T] { return Like(p, pattern, opts...) })
}

// Contains matches fields containing value.
func Contains[T any](p Path[T, string], value string, opts ...Option) Specification[T] {
	return withValue(value, Wildcard+value+Wildcard, func(pattern string) Specification[T] { return Like(p, pattern, opts...) })
}

// LikeConcat matches a concatenation of fields against a raw pattern.
func LikeConcat[T any](c *FieldConcat[T], pattern string, opts ...Option) Specification[T] {
	o := collect(opts)
	return Where[T](!blank(pattern), func(ctx *Context) (criteria.Predicate, error) {
		x, err := c.Build(ctx)
		if err != nil || x == nil {
			return nil, err
		}
		return o.like(ctx.Builder, x, pattern), nil
	})
}

// StartsWithConcat matches concatenations beginning with value.
func StartsWithConcat[T any](c *FieldConcat[T], value string, opts ...Option) Specification[T] {
	return withValue(value, value+Wildcard, func(pattern string) Specification[T] { return LikeConcat(c, pattern, opts...) })
}

// EndsWithConcat matches concatenations ending with value.
func EndsWithConcat[T any](c *FieldConcat[T], value string, opts ...Option) Specification[T] {
	return withValue(value, Wildcard+value, func(pattern string) Specification[T] { return LikeConcat(c, pattern, opts...) })
}

// ContainsConcat matches concatenations containing value.
func ContainsConcat[T any](c *FieldConcat[T], value string, opts ...Option) Specification[T] {
	return withValue(value, Wildcard+value+Wildcard, func(pattern string) Specification[T] { return LikeConcat(c, pattern, opts...) })
}

// withValue gates on the caller's value, not the derived pattern, which is
// never blank once wildcards are added.
func withValue[T any](value, pattern string, build func(string) Specification[T]) Specification[T] {
	if blank(value) {
		return Empty[T]()
	}
	return build(pattern)
}
