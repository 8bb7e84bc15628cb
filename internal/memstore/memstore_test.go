package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ariefcatur/orial-storefront/internal/cart"
	"github.com/ariefcatur/orial-storefront/internal/catalog"
	"github.com/ariefcatur/orial-storefront/internal/discount"
	"github.com/ariefcatur/orial-storefront/internal/orders"
	"github.com/ariefcatur/orial-storefront/internal/pricing"
	"github.com/ariefcatur/orial-storefront/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_RollsBackOnError(t *testing.T) {
	db := New()
	p := db.AddProduct(catalog.Product{Name: "Ring", Price: money("10"), Stock: 5, IsActive: true})
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.Do(ctx, func(ctx context.Context, r store.Repos) error {
		require.NoError(t, r.Catalog.DecrementStock(ctx, p.ID, 3))
		require.NoError(t, r.Orders.Insert(ctx, &orders.Order{Number: "ORD-1", Owner: 1}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := db.Product(p.ID)
	assert.Equal(t, 5, got.Stock)
	list, err := db.Repos().Orders.ListByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDo_Commits(t *testing.T) {
	db := New()
	p := db.AddProduct(catalog.Product{Name: "Ring", Price: money("10"), Stock: 5, IsActive: true})
	ctx := context.Background()

	require.NoError(t, db.Do(ctx, func(ctx context.Context, r store.Repos) error {
		return r.Catalog.DecrementStock(ctx, p.ID, 9)
	}))
	got, _ := db.Product(p.ID)
	assert.Equal(t, 0, got.Stock, "floors at zero")
}

func TestCartRepo_ScopedByOwner(t *testing.T) {
	db := New()
	p := db.AddProduct(catalog.Product{Name: "Ring", Price: money("10"), Stock: 5, IsActive: true})
	ctx := context.Background()
	r := db.Repos().Cart

	l := &cart.Line{Owner: 1, ProductID: p.ID, Quantity: 2}
	require.NoError(t, r.Insert(ctx, l))

	_, err := r.Line(ctx, 2, l.ID)
	assert.ErrorIs(t, err, cart.ErrLineNotFound)
	assert.ErrorIs(t, r.SetQuantity(ctx, 2, l.ID, 1), cart.ErrLineNotFound)
	require.NoError(t, r.Delete(ctx, 2, l.ID))

	got, err := r.Line(ctx, 1, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ring", got.Product.Name)
	n, _ := r.Count(ctx, 1)
	assert.Equal(t, 1, n)
}

func TestDiscountRepo_IncrementUsageRespectsMax(t *testing.T) {
	db := New()
	d := db.AddDiscount(discount.Code{Code: "once", Type: discount.TypeFixed, Value: money("5"), MaxUses: intPtr(1), IsActive: true})
	ctx := context.Background()
	r := db.Repos().Discounts

	require.NoError(t, r.IncrementUsage(ctx, d.ID))
	assert.ErrorIs(t, r.IncrementUsage(ctx, d.ID), discount.ErrUsageExceeded)

	got, err := r.ByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsedCount)
}

func TestOrdersRepo_TransitionStatus(t *testing.T) {
	db := New()
	ctx := context.Background()
	r := db.Repos().Orders
	require.NoError(t, r.Insert(ctx, &orders.Order{Number: "ORD-X", Owner: 4, Status: orders.StatusShipped}))

	ok, err := r.TransitionStatus(ctx, 4, "ORD-X", orders.Cancellable(), orders.StatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.ByNumber(ctx, 5, "ORD-X")
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestDB_ConcurrentAccess(t *testing.T) {
	db := New()
	p := db.AddProduct(catalog.Product{Name: "Ring", Price: money("10"), Stock: 1000, IsActive: true})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = db.Do(ctx, func(ctx context.Context, r store.Repos) error {
				return r.Catalog.DecrementStock(ctx, p.ID, 1)
			})
			_, _ = db.Repos().Catalog.GetProduct(ctx, p.ID)
		}()
	}
	wg.Wait()
	got, _ := db.Product(p.ID)
	assert.Equal(t, 950, got.Stock)
}

func TestSeed(t *testing.T) {
	db := New()
	db.Seed()
	ctx := context.Background()

	d, err := db.Repos().Discounts.ByCode(ctx, "welcome10")
	require.NoError(t, err)
	assert.Equal(t, discount.TypePercent, d.Type)

	v, ok, err := db.Repos().Settings.Get(ctx, "shipping_cost")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "9.95", v)

	ps, err := db.Repos().Catalog.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, ps, 5)
}

func TestOrdersRepo_SelectionRedeemed(t *testing.T) {
	db := New()
	ctx := context.Background()
	r := db.Repos().Orders

	used, err := r.SelectionRedeemed(ctx, "sel-1")
	require.NoError(t, err)
	assert.False(t, used)

	require.NoError(t, r.Insert(ctx, &orders.Order{Number: "ORD-SEL0000001", Owner: 1, SelectionID: "sel-1"}))
	used, err = r.SelectionRedeemed(ctx, "sel-1")
	require.NoError(t, err)
	assert.True(t, used)
	used, err = r.SelectionRedeemed(ctx, "sel-2")
	require.NoError(t, err)
	assert.False(t, used)
}

func TestSettings_EditAppliesToNextPolicy(t *testing.T) {
	db := New()
	db.Seed()
	ctx := context.Background()
	settings := db.Repos().Settings
	src := &pricing.SettingsSource{Settings: settings}

	before, err := src.Policy(ctx)
	require.NoError(t, err)
	assert.True(t, before.Price(money("150"), money("0")).Shipping.Equal(money("9.95")))

	require.NoError(t, settings.Set(ctx, pricing.KeyFreeShippingThreshold, "100"))
	require.NoError(t, settings.Set(ctx, pricing.KeyShippingCost, "4.50"))

	after, err := src.Policy(ctx)
	require.NoError(t, err)
	assert.True(t, after.FreeShippingThreshold.Equal(money("100")))
	assert.True(t, after.Price(money("150"), money("0")).Shipping.IsZero())
	assert.True(t, after.Price(money("50"), money("0")).Total.Equal(money("54.50")))
}
