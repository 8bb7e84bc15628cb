package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ariefcatur/orial-storefront/internal/cart"
	"github.com/ariefcatur/orial-storefront/internal/catalog"
	"github.com/ariefcatur/orial-storefront/internal/discount"
	"github.com/ariefcatur/orial-storefront/internal/memstore"
	"github.com/ariefcatur/orial-storefront/internal/orders"
	"github.com/ariefcatur/orial-storefront/internal/pricing"
	"github.com/ariefcatur/orial-storefront/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner int64 = 42

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type recorder struct {
	mu     sync.Mutex
	events []orders.Envelope
}

func (r *recorder) Publish(_ context.Context, env orders.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, env)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

type fixture struct {
	db     *memstore.DB
	sels   *memstore.Selections
	cart   *cart.Service
	svc    *Service
	events *recorder
}

func newFixture() *fixture {
	db := memstore.New()
	sels := memstore.NewSelections()
	r := db.Repos()
	policy := pricing.Static(pricing.DefaultPolicy())
	cs := &cart.Service{Lines: r.Cart, Catalog: r.Catalog, Discounts: r.Discounts, Selections: sels, Pricing: policy}
	ev := &recorder{}
	return &fixture{
		db:     db,
		sels:   sels,
		cart:   cs,
		events: ev,
		svc: &Service{
			UoW:        db,
			Orders:     r.Orders,
			Cart:       cs,
			Selections: sels,
			Pricing:    policy,
			Events:     ev,
			Producer:   "storefront-test",
		},
	}
}

func (f *fixture) add(t *testing.T, price string, stock, qty int) catalog.Product {
	t.Helper()
	p := f.db.AddProduct(catalog.Product{Name: "Item " + price, Price: dec(price), Stock: stock, IsActive: true})
	_, err := f.cart.AddItem(context.Background(), owner, p.ID, qty)
	require.NoError(t, err)
	return p
}

func address() orders.ShippingAddress {
	return orders.ShippingAddress{
		FullName: "Asha Patel",
		Email:    "asha@example.com",
		Address1: "12 Hatton Garden",
		City:     "London",
		Postcode: "EC1N 8AN",
	}
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.add(t, "75.00", 5, 2)

	preview, err := f.svc.Preview(ctx, owner)
	require.NoError(t, err)

	o, err := f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address(), TraceID: "trace-1"})
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-[0-9A-F]{10}$`, o.Number)
	assert.Equal(t, orders.StatusConfirmed, o.Status)
	assert.Equal(t, orders.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, orders.DefaultPaymentMethod, o.PaymentMethod)
	assert.Equal(t, orders.DefaultCountry, o.Shipping.Country)
	assert.True(t, preview.Quote.Total.Equal(o.Total), "preview %s, order %s", preview.Quote.Total, o.Total)
	assert.True(t, dec("159.95").Equal(o.Total))
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, dec("150.00").Equal(o.Items[0].Subtotal))

	got, _ := f.db.Product(p.ID)
	assert.Equal(t, 3, got.Stock)

	n, err := f.cart.Count(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, n, "cart emptied")

	stored, err := f.svc.Order(ctx, owner, o.Number)
	require.NoError(t, err)
	assert.True(t, o.Total.Equal(stored.Total))
	require.Len(t, stored.Items, 1)

	assert.Equal(t, []string{orders.EventOrderPlaced}, f.events.types())
	env := f.events.events[0]
	assert.Equal(t, o.Number, env.CorrelationID)
	assert.Equal(t, "trace-1", env.TraceID)
	var payload orders.OrderPlacedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "asha@example.com", payload.Email)
	assert.Len(t, payload.Items, 1)
}

func TestPlaceOrder_FreezesUnitPrice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.add(t, "40.00", 5, 1)

	o, err := f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address()})
	require.NoError(t, err)

	p.Price = dec("99.00")
	f.db.UpdateProduct(p)

	stored, err := f.svc.Order(ctx, owner, o.Number)
	require.NoError(t, err)
	assert.True(t, dec("40.00").Equal(stored.Items[0].UnitPrice))
}

func TestPlaceOrder_WithDiscount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := f.db.AddDiscount(discount.Code{Code: "WELCOME10", Type: discount.TypePercent, Value: dec("10"), MinOrderAmount: dec("100"), IsActive: true})
	f.add(t, "150.00", 5, 1)
	_, err := f.cart.ApplyCoupon(ctx, owner, "WELCOME10")
	require.NoError(t, err)

	o, err := f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address()})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", o.DiscountCode)
	assert.True(t, dec("15.00").Equal(o.DiscountAmount))
	assert.True(t, dec("144.95").Equal(o.Total))

	stored, _ := f.db.Discount(d.ID)
	assert.Equal(t, 1, stored.UsedCount)

	sel, err := f.sels.Get(ctx, owner)
	require.NoError(t, err)
	assert.True(t, sel.Empty(), "selection cleared after checkout")
}

func TestPlaceOrder_DiscountNoLongerValid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := f.db.AddDiscount(discount.Code{Code: "GONE", Type: discount.TypeFixed, Value: dec("20"), IsActive: true})
	p := f.add(t, "150.00", 5, 1)
	_, err := f.cart.ApplyCoupon(ctx, owner, "GONE")
	require.NoError(t, err)

	// withdrawn between selection and checkout
	f.db.DeleteDiscount(d.ID)

	_, err = f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address()})
	assert.ErrorIs(t, err, ErrDiscountInvalid)

	got, _ := f.db.Product(p.ID)
	assert.Equal(t, 5, got.Stock, "nothing committed")
	n, _ := f.cart.Count(ctx, owner)
	assert.Equal(t, 1, n)
	sel, _ := f.sels.Get(ctx, owner)
	assert.True(t, sel.Empty())
	assert.Empty(t, f.events.types())
}

func TestPlaceOrder_UsageLimitReached(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.db.AddDiscount(discount.Code{Code: "ONCE", Type: discount.TypeFixed, Value: dec("20"), MaxUses: ptr(1), IsActive: true})

	f.add(t, "150.00", 5, 1)
	_, err := f.cart.ApplyCoupon(ctx, owner, "ONCE")
	require.NoError(t, err)

	// a second shopper selects the same code before the first checks out
	other := owner + 1
	p2 := f.db.AddProduct(catalog.Product{Name: "Chain", Price: dec("150.00"), Stock: 5, IsActive: true})
	_, err = f.cart.AddItem(ctx, other, p2.ID, 1)
	require.NoError(t, err)
	_, err = f.cart.ApplyCoupon(ctx, other, "ONCE")
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address()})
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, Request{Owner: other, Shipping: address()})
	assert.ErrorIs(t, err, ErrDiscountInvalid)
	var inv *discount.InvalidError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, discount.ReasonUsageLimit, inv.Reason)

	got, _ := f.db.Product(p2.ID)
	assert.Equal(t, 5, got.Stock)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Preview(ctx, owner)
	assert.ErrorIs(t, err, ErrEmptyCart)
	_, err = f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address()})
	assert.ErrorIs(t, err, ErrEmptyCart)

	list, err := f.svc.ListOrders(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPlaceOrder_SecondCheckoutSeesEmptyCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.add(t, "20.00", 5, 2)

	_, err := f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address()})
	require.NoError(t, err)
	_, err = f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address()})
	assert.ErrorIs(t, err, ErrEmptyCart)

	got, _ := f.db.Product(p.ID)
	assert.Equal(t, 3, got.Stock)
}

func TestPlaceOrder_AddressValidation(t *testing.T) {
	f := newFixture()
	f.add(t, "20.00", 5, 1)

	tests := []struct {
		name string
		edit func(a *orders.ShippingAddress)
		msg  string
	}{
		{"missing name", func(a *orders.ShippingAddress) { a.FullName = "  " }, "full_name is required"},
		{"missing email", func(a *orders.ShippingAddress) { a.Email = "" }, "email is required"},
		{"bad email", func(a *orders.ShippingAddress) { a.Email = "asha.example.com" }, "email is not valid"},
		{"bare at sign", func(a *orders.ShippingAddress) { a.Email = "@" }, "email is not valid"},
		{"missing address", func(a *orders.ShippingAddress) { a.Address1 = "" }, "address1 is required"},
		{"missing city", func(a *orders.ShippingAddress) { a.City = "" }, "city is required"},
		{"missing postcode", func(a *orders.ShippingAddress) { a.Postcode = "" }, "postcode is required"},
		{"long postcode", func(a *orders.ShippingAddress) { a.Postcode = strings.Repeat("9", 21) }, "postcode must be at most 20 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := address()
			tt.edit(&a)
			_, err := f.svc.PlaceOrder(context.Background(), Request{Owner: owner, Shipping: a})
			assert.ErrorIs(t, err, ErrInvalidAddress)
			assert.ErrorContains(t, err, tt.msg)
		})
	}

	list, err := f.svc.ListOrders(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// stickySelections loses every Clear, as a Redis outage after commit would.
type stickySelections struct{ *memstore.Selections }

func (stickySelections) Clear(context.Context, int64) error { return errors.New("redis down") }

func TestPlaceOrder_SelectionRedeemedOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := f.db.AddDiscount(discount.Code{Code: "WELCOME10", Type: discount.TypePercent, Value: dec("10"), MinOrderAmount: dec("100"), IsActive: true})
	f.add(t, "150.00", 5, 1)
	_, err := f.cart.ApplyCoupon(ctx, owner, "WELCOME10")
	require.NoError(t, err)

	f.svc.Selections = stickySelections{f.sels}
	first, err := f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address()})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", first.DiscountCode)

	sel, err := f.sels.Get(ctx, owner)
	require.NoError(t, err)
	require.False(t, sel.Empty(), "clear was lost")

	// a new cart without re-applying the code
	p := f.add(t, "160.00", 5, 1)
	_, err = f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address()})
	assert.ErrorIs(t, err, ErrDiscountInvalid)

	got, _ := f.db.Discount(d.ID)
	assert.Equal(t, 1, got.UsedCount)
	stock, _ := f.db.Product(p.ID)
	assert.Equal(t, 5, stock.Stock, "nothing committed")

	// once the clear goes through the shopper checks out at full price
	f.svc.Selections = f.sels
	_, err = f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address()})
	assert.ErrorIs(t, err, ErrDiscountInvalid)
	second, err := f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address()})
	require.NoError(t, err)
	assert.Empty(t, second.DiscountCode)
	assert.True(t, second.DiscountAmount.IsZero())
	assert.True(t, dec("169.95").Equal(second.Total))

	got, _ = f.db.Discount(d.ID)
	assert.Equal(t, 1, got.UsedCount)
}

type failingCart struct {
	cart.Store
	err error
}

func (c failingCart) Delete(context.Context, int64, int64) error { return c.err }

type faultyUoW struct {
	db   *memstore.DB
	wrap func(store.Repos) store.Repos
}

func (u faultyUoW) Do(ctx context.Context, fn func(context.Context, store.Repos) error) error {
	return u.db.Do(ctx, func(ctx context.Context, r store.Repos) error { return fn(ctx, u.wrap(r)) })
}

func TestPlaceOrder_RollsBackOnFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := f.db.AddDiscount(discount.Code{Code: "WELCOME10", Type: discount.TypePercent, Value: dec("10"), MinOrderAmount: dec("100"), IsActive: true})
	p := f.add(t, "150.00", 5, 2)
	_, err := f.cart.ApplyCoupon(ctx, owner, "WELCOME10")
	require.NoError(t, err)

	boom := errors.New("disk full")
	f.svc.UoW = faultyUoW{db: f.db, wrap: func(r store.Repos) store.Repos {
		r.Cart = failingCart{Store: r.Cart, err: boom}
		return r
	}}

	_, err = f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address()})
	assert.ErrorIs(t, err, boom)

	got, _ := f.db.Product(p.ID)
	assert.Equal(t, 5, got.Stock)
	code, _ := f.db.Discount(d.ID)
	assert.Zero(t, code.UsedCount)
	n, _ := f.cart.Count(ctx, owner)
	assert.Equal(t, 1, n)
	list, err := f.svc.ListOrders(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
	sel, _ := f.sels.Get(ctx, owner)
	assert.False(t, sel.Empty(), "selection survives an unrelated failure")
	assert.Empty(t, f.events.types())
}

func TestPlaceOrder_StockFloorsAtZero(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.add(t, "20.00", 3, 3)

	p.Stock = 1
	f.db.UpdateProduct(p)

	_, err := f.svc.PlaceOrder(ctx, Request{Owner: owner, Shipping: address()})
	require.NoError(t, err)
	got, _ := f.db.Product(p.ID)
	assert.Equal(t, 0, got.Stock)
}

func ptr(i int) *int { return &i }
