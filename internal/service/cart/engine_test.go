package cart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront-client/internal/domain"
)

func product(id string, price int64) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, PriceCents: price}
}

func requireTotalsConsistent(t *testing.T, c domain.Cart) {
	t.Helper()
	var items int
	var cents int64
	for _, l := range c.Lines {
		require.GreaterOrEqual(t, l.Quantity, 1, "line %s has quantity below 1", l.ProductID)
		require.Equal(t, l.UnitPriceCents*int64(l.Quantity), l.TotalCents)
		items += l.Quantity
		cents += l.TotalCents
	}
	require.Equal(t, items, c.TotalItems)
	require.Equal(t, cents, c.TotalCents)
}

func TestEngine_AddItemMergesRepeatedProduct(t *testing.T) {
	e := New()
	var c domain.Cart
	for i := 0; i < 7; i++ {
		c = e.AddItem(product("p1", 300))
	}
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 7, c.Lines[0].Quantity)
	assert.Equal(t, 7, e.TotalItemCount())
	assert.Equal(t, int64(2100), e.TotalPrice())
}

func TestEngine_AddItemDistinctProducts(t *testing.T) {
	e := New()
	e.AddItem(product("p1", 100))
	c := e.AddItem(product("p2", 200))
	require.Len(t, c.Lines, 2)
	assert.Equal(t, "p1", c.Lines[0].ProductID)
	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.Equal(t, "p2", c.Lines[1].ProductID)
	assert.Equal(t, 1, c.Lines[1].Quantity)
}

func TestEngine_Scenario(t *testing.T) {
	e := New()
	e.AddItem(product("1", 10))
	e.AddItem(product("1", 10))
	c := e.AddItem(product("2", 5))

	require.Equal(t, []domain.CartLine{
		{ProductID: "1", Name: "Product 1", Quantity: 2, UnitPriceCents: 10, TotalCents: 20},
		{ProductID: "2", Name: "Product 2", Quantity: 1, UnitPriceCents: 5, TotalCents: 5},
	}, c.Lines)
	assert.Equal(t, 3, e.TotalItemCount())
	assert.Equal(t, int64(25), e.TotalPrice())

	c, err := e.DecrementQuantity("1")
	require.NoError(t, err)
	require.Len(t, c.Lines, 2)
	assert.Equal(t, 1, c.Lines[0].Quantity)

	c, err = e.DecrementQuantity("1")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "2", c.Lines[0].ProductID)
	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.Equal(t, int64(5), e.TotalPrice())
}

func TestEngine_SetQuantityFloorEvicts(t *testing.T) {
	for _, q := range []int{0, -1, -50} {
		e := New()
		e.AddItem(product("a", 1))
		e.AddItem(product("b", 2))
		viaSet, err := e.SetQuantity("a", q)
		require.NoError(t, err)

		ref := New()
		ref.AddItem(product("a", 1))
		ref.AddItem(product("b", 2))
		viaRemove := ref.RemoveItem("a")

		assert.Equal(t, viaRemove, viaSet, "quantity %d", q)
	}
}

func TestEngine_SetQuantityMissingLine(t *testing.T) {
	e := New()
	e.AddItem(product("a", 1))
	before := e.Snapshot()

	_, err := e.SetQuantity("missing", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.ID)
	assert.Equal(t, before, e.Snapshot())

	// A floor value on a missing line behaves like RemoveItem: no error.
	_, err = e.SetQuantity("missing", 0)
	assert.NoError(t, err)
}

func TestEngine_SetQuantityUpdatesLine(t *testing.T) {
	e := New()
	e.AddItem(product("a", 250))
	c, err := e.SetQuantity("a", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Lines[0].Quantity)
	assert.Equal(t, int64(1000), c.TotalCents)
}

func TestEngine_IncrementDecrementMissing(t *testing.T) {
	e := New()
	_, err := e.IncrementQuantity("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.DecrementQuantity("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_RemoveAbsentIsNoop(t *testing.T) {
	e := New()
	e.AddItem(product("a", 1))
	before := e.Snapshot()
	after := e.RemoveItem("zzz")
	assert.Equal(t, before, after)
}

func TestEngine_PriceFrozenAtAdd(t *testing.T) {
	e := New()
	e.AddItem(product("a", 100))
	c := e.AddItem(product("a", 999))
	require.Len(t, c.Lines, 1)
	assert.Equal(t, int64(100), c.Lines[0].UnitPriceCents)
	assert.Equal(t, int64(200), e.TotalPrice())
}

func TestEngine_NegativePriceCarriedThrough(t *testing.T) {
	e := New()
	e.AddItem(product("bad", -50))
	e.AddItem(product("ok", 100))
	assert.Equal(t, int64(50), e.TotalPrice())
}

func TestEngine_TotalsConsistentAfterEveryMutation(t *testing.T) {
	e := New()
	steps := []func() (domain.Cart, error){
		func() (domain.Cart, error) { return e.AddItem(product("a", 10)), nil },
		func() (domain.Cart, error) { return e.AddItem(product("b", 3)), nil },
		func() (domain.Cart, error) { return e.IncrementQuantity("a") },
		func() (domain.Cart, error) { return e.SetQuantity("b", 9) },
		func() (domain.Cart, error) { return e.AddItem(product("a", 10)), nil },
		func() (domain.Cart, error) { return e.DecrementQuantity("b") },
		func() (domain.Cart, error) { return e.RemoveItem("a"), nil },
		func() (domain.Cart, error) { return e.SetQuantity("b", -1) },
		func() (domain.Cart, error) { return e.AddItem(product("c", 7)), nil },
		func() (domain.Cart, error) { return e.Clear(), nil },
	}
	for i, step := range steps {
		c, err := step()
		require.NoError(t, err, "step %d", i)
		requireTotalsConsistent(t, c)
		assert.Equal(t, c.TotalItems, e.TotalItemCount(), "step %d", i)
		assert.Equal(t, c.TotalCents, e.TotalPrice(), "step %d", i)
	}
	assert.True(t, e.Snapshot().Empty())
}

func TestEngine_SnapshotIsolation(t *testing.T) {
	e := New()
	c := e.AddItem(product("a", 10))
	c.Lines[0].Quantity = 99
	assert.Equal(t, 1, e.Snapshot().Lines[0].Quantity)
}

func TestEngine_RestoreNormalizes(t *testing.T) {
	e := New()
	c := e.Restore(domain.Cart{Lines: []domain.CartLine{
		{ProductID: "a", Quantity: 2, UnitPriceCents: 10},
		{ProductID: "", Quantity: 1, UnitPriceCents: 10},
		{ProductID: "b", Quantity: 0, UnitPriceCents: 10},
		{ProductID: "a", Quantity: 1, UnitPriceCents: 10},
	}})
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	requireTotalsConsistent(t, c)
}

func TestEngine_LinesKeepInsertionOrder(t *testing.T) {
	e := New()
	e.AddItem(product("b", 1))
	e.AddItem(product("a", 1))
	e.AddItem(product("b", 1))

	lines := e.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "b", lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "a", lines[1].ProductID)
}

func TestEngine_DeductSubtractsCapturedQuantities(t *testing.T) {
	e := New()
	e.AddItem(product("a", 10))
	e.AddItem(product("a", 10))
	e.AddItem(product("b", 5))
	captured := e.Snapshot().Lines

	e.AddItem(product("a", 10))
	e.AddItem(product("c", 1))

	c := e.Deduct(append(captured, domain.CartLine{ProductID: "gone", Quantity: 3}))
	require.Len(t, c.Lines, 2)
	assert.Equal(t, "a", c.Lines[0].ProductID)
	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.Equal(t, "c", c.Lines[1].ProductID)
	requireTotalsConsistent(t, c)
	assert.Equal(t, int64(11), e.TotalPrice())
}
