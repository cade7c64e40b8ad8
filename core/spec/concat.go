package spec

import (
	"github.com/asaidimu/go-anansi-criteria/core/criteria"
)

// ExpressionFunc builds a raw expression for a FieldConcat item.
type ExpressionFunc func(ctx *Context) (criteria.Expression, error)

// concatItem is one of textItem, pathItem or exprItem.
type concatItem interface {
	expression(ctx *Context, trim bool) (criteria.Expression, error)
}

type textItem string

func (t textItem) expression(ctx *Context, _ bool) (criteria.Expression, error) {
	return ctx.Builder.Literal(string(t)), nil
}

type pathItem []string

func (p pathItem) expression(ctx *Context, trim bool) (criteria.Expression, error) {
	x, err := ctx.resolve(p)
	if err != nil {
		return nil, err
	}
	if trim {
		return ctx.Builder.Trim(x), nil
	}
	return x, nil
}

type exprItem ExpressionFunc

func (e exprItem) expression(ctx *Context, _ bool) (criteria.Expression, error) {
	return e(ctx)
}

// FieldConcat is an ordered list of text, fields and raw expressions that
// resolves to a single string expression. Fields are trimmed of surrounding
// whitespace when concatenated with anything else.
type FieldConcat[T any] struct {
	items []concatItem
}

// Concat starts an empty concatenation.
func Concat[T any]() *FieldConcat[T] {
	return &FieldConcat[T]{}
}

// ConcatText starts a concatenation with literal text.
func ConcatText[T any](text string) *FieldConcat[T] {
	return Concat[T]().Text(text)
}

// ConcatFields starts a concatenation with the given fields.
func ConcatFields[T any](paths ...Path[T, string]) *FieldConcat[T] {
	return Concat[T]().Field(paths...)
}

// Text appends literal text, used as is.
func (c *FieldConcat[T]) Text(text string) *FieldConcat[T] {
	c.items = append(c.items, textItem(text))
	return c
}

// Field appends one or more fields.
func (c *FieldConcat[T]) Field(paths ...Path[T, string]) *FieldConcat[T] {
	for _, p := range paths {
		c.items = append(c.items, pathItem(p.Fields()))
	}
	return c
}

// Expr appends a raw expression, used as is.
func (c *FieldConcat[T]) Expr(fn ExpressionFunc) *FieldConcat[T] {
	c.items = append(c.items, exprItem(fn))
	return c
}

// Len returns the number of items.
func (c *FieldConcat[T]) Len() int {
	return len(c.items)
}

// Build folds the items left to right into nested concatenations. No items
// yields a nil expression; a single item is returned without wrapping.
func (c *FieldConcat[T]) Build(ctx *Context) (criteria.Expression, error) {
	if c == nil {
		return nil, nil
	}
	switch len(c.items) {
	case 0:
		return nil, nil
	case 1:
		return c.items[0].expression(ctx, false)
	}

	var acc criteria.Expression
	for _, item := range c.items {
		x, err := item.expression(ctx, true)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = x
			continue
		}
		acc = ctx.Builder.Concat(acc, x)
	}
	return acc, nil
}
