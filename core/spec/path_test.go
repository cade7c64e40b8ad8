package spec

import (
	"testing"

	"github.com/asaidimu/go-anansi-criteria/core/criteria"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_Building(t *testing.T) {
	city := Then(UserAddress, AddressCity)
	assert.Equal(t, []string{"address", "city"}, city.Fields())
	assert.Equal(t, "address.city", city.String())

	total := ThenEach(UserOrders, OrderTotal)
	assert.Equal(t, "orders.total", total.String())

	lat := Then(Then(UserAddress, AddressGeo), GeoLat)
	assert.Equal(t, "address.geo.lat", lat.String())
	assert.Equal(t, "address.geo.lat.raw", lat.Append("raw").String())

	t.Run("appending does not alter the base", func(t *testing.T) {
		base := Then(UserAddress, AddressGeo)
		a := Then(base, GeoLat)
		b := Then(base, GeoLng)
		assert.Equal(t, "address.geo", base.String())
		assert.Equal(t, "address.geo.lat", a.String())
		assert.Equal(t, "address.geo.lng", b.String())
	})

	t.Run("Fields returns a copy", func(t *testing.T) {
		fields := city.Fields()
		fields[0] = "changed"
		assert.Equal(t, "address.city", city.String())
	})

	t.Run("equality is by field sequence", func(t *testing.T) {
		assert.True(t, city.Equal(Then(UserAddress, AddressCity)))
		assert.False(t, city.Equal(Then(UserAddress, AddressStreet)))
	})
}

func TestPath_Resolve(t *testing.T) {
	t.Run("single field creates no join", func(t *testing.T) {
		ctx, root := newTestContext(criteria.EntityResult)
		x, err := UserName.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "u.name", sqlOf(x))
		assert.Equal(t, 0, root.stats.joins)
		assert.Equal(t, 0, ctx.CachedJoins())
	})

	t.Run("resolving twice reuses the join", func(t *testing.T) {
		ctx, root := newTestContext(criteria.EntityResult)
		city := Then(UserAddress, AddressCity)

		first, err := city.Resolve(ctx)
		require.NoError(t, err)
		second, err := city.Resolve(ctx)
		require.NoError(t, err)

		assert.Equal(t, sqlOf(first), sqlOf(second))
		assert.Same(t, first.Parent(), second.Parent())
		assert.Equal(t, 1, root.stats.joins)
		assert.Equal(t, 1, ctx.CachedJoins())
	})

	t.Run("shared prefix is joined once", func(t *testing.T) {
		ctx, root := newTestContext(criteria.EntityResult)
		geo := Then(UserAddress, AddressGeo)

		lat, err := Then(geo, GeoLat).Resolve(ctx)
		require.NoError(t, err)
		lng, err := Then(geo, GeoLng).Resolve(ctx)
		require.NoError(t, err)

		assert.Same(t, lat.Parent(), lng.Parent())
		assert.Equal(t, 2, root.stats.joins)
		assert.Len(t, root.Joins(), 1)
	})

	t.Run("existing fetch is adopted", func(t *testing.T) {
		ctx, root := newTestContext(criteria.EntityResult)
		fetched, err := root.Fetch("address")
		require.NoError(t, err)

		x, err := Then(UserAddress, AddressCity).Resolve(ctx)
		require.NoError(t, err)
		assert.Same(t, fetched, x.Parent())
		assert.Equal(t, 0, root.stats.joins)
	})

	t.Run("errors pass through", func(t *testing.T) {
		ctx, _ := newTestContext(criteria.EntityResult)
		_, err := Attr[User, string]("missing").Resolve(ctx)
		assert.Same(t, errUnknown, err)

		_, err = Then(Attr[User, Address]("missing"), AddressCity).Resolve(ctx)
		assert.Same(t, errUnknown, err)
		assert.Equal(t, 0, ctx.CachedJoins())
	})

	t.Run("zero path", func(t *testing.T) {
		ctx, _ := newTestContext(criteria.EntityResult)
		_, err := Path[User, string]{}.Resolve(ctx)
		assert.ErrorIs(t, err, ErrEmptyPath)
	})
}

func TestPath_ResolveForFetch(t *testing.T) {
	t.Run("every field becomes a fetch", func(t *testing.T) {
		ctx, root := newTestContext(criteria.EntityResult)
		join, err := Then(UserAddress, AddressGeo).ResolveForFetch(ctx)
		require.NoError(t, err)
		assert.True(t, join.IsFetch())
		assert.Equal(t, "geo", join.Attribute())
		assert.Equal(t, 2, root.stats.fetches)
		assert.Equal(t, 0, root.stats.joins)
		assert.Equal(t, 2, ctx.CachedJoins())
	})

	t.Run("navigation reuses earlier fetches", func(t *testing.T) {
		ctx, root := newTestContext(criteria.EntityResult)
		fetched, err := UserAddress.ResolveForFetch(ctx)
		require.NoError(t, err)

		x, err := Then(UserAddress, AddressCity).Resolve(ctx)
		require.NoError(t, err)
		assert.Same(t, fetched, x.Parent())
		assert.Equal(t, 0, root.stats.joins)
		assert.Equal(t, 1, root.stats.fetches)
	})

	t.Run("cached join is not promoted", func(t *testing.T) {
		ctx, root := newTestContext(criteria.EntityResult)
		x, err := Then(UserAddress, AddressCity).Resolve(ctx)
		require.NoError(t, err)

		join, err := UserAddress.ResolveForFetch(ctx)
		require.NoError(t, err)
		assert.Same(t, x.Parent(), join)
		assert.False(t, join.IsFetch())
		assert.Equal(t, 0, root.stats.fetches)
	})
}
