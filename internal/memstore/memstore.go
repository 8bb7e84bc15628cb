// Package memstore keeps the whole storefront in process memory. It backs the
// tests and the STORE_DRIVER=memory mode of the API.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/ariefcatur/orial-storefront/internal/cart"
	"github.com/ariefcatur/orial-storefront/internal/catalog"
	"github.com/ariefcatur/orial-storefront/internal/discount"
	"github.com/ariefcatur/orial-storefront/internal/orders"
	"github.com/ariefcatur/orial-storefront/internal/store"
)

type state struct {
	seq       int64
	products  map[int64]catalog.Product
	lines     map[int64]cart.Line
	discounts map[int64]discount.Code
	orders    map[int64]orders.Order
	items     map[int64]orders.Item
	settings  map[string]string
}

func newState() *state {
	return &state{
		products:  map[int64]catalog.Product{},
		lines:     map[int64]cart.Line{},
		discounts: map[int64]discount.Code{},
		orders:    map[int64]orders.Order{},
		items:     map[int64]orders.Item{},
		settings:  map[string]string{},
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = v
	}
	for k, v := range s.discounts {
		if v.MaxUses != nil {
			n := *v.MaxUses
			v.MaxUses = &n
		}
		c.discounts[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.settings {
		c.settings[k] = v
	}
	return c
}

// DB is safe for concurrent use. Do holds the lock for the whole transaction
// and works on a copy, so readers never see a half-applied checkout.
type DB struct {
	mu  sync.Mutex
	st  *state
	Now func() time.Time
}

func New() *DB {
	return &DB{st: newState(), Now: func() time.Time { return time.Now().UTC() }}
}

type access interface {
	with(fn func(st *state) error) error
	now() time.Time
}

type shared struct{ db *DB }

func (a shared) with(fn func(*state) error) error {
	a.db.mu.Lock()
	defer a.db.mu.Unlock()
	return fn(a.db.st)
}

func (a shared) now() time.Time { return a.db.Now() }

type inTx struct {
	st  *state
	clk func() time.Time
}

func (a inTx) with(fn func(*state) error) error { return fn(a.st) }
func (a inTx) now() time.Time                  { return a.clk() }

func reposFor(a access) store.Repos {
	return store.Repos{
		Catalog:   catalogRepo{a},
		Cart:      cartRepo{a},
		Discounts: discountRepo{a},
		Orders:    ordersRepo{a},
		Settings:  settingsRepo{a},
	}
}

// Repos returns repositories that each lock and commit per call.
func (d *DB) Repos() store.Repos { return reposFor(shared{d}) }

func (d *DB) Do(ctx context.Context, fn func(ctx context.Context, r store.Repos) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	work := d.st.clone()
	if err := fn(ctx, reposFor(inTx{st: work, clk: d.Now})); err != nil {
		return err
	}
	d.st = work
	return nil
}

var _ store.UnitOfWork = (*DB)(nil)
