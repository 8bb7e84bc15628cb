package memstore

import (
	"context"
	"slices"
	"sort"

	"github.com/ariefcatur/orial-storefront/internal/cart"
	"github.com/ariefcatur/orial-storefront/internal/catalog"
	"github.com/ariefcatur/orial-storefront/internal/discount"
	"github.com/ariefcatur/orial-storefront/internal/orders"
)

type catalogRepo struct{ a access }

func (r catalogRepo) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	var out *catalog.Product
	err := r.a.with(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return catalog.ErrProductNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r catalogRepo) ListActive(context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	err := r.a.with(func(st *state) error {
		for _, p := range st.products {
			if p.IsActive {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r catalogRepo) DecrementStock(_ context.Context, id int64, qty int) error {
	return r.a.with(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return catalog.ErrProductNotFound
		}
		p.Stock = catalog.RemainingStock(p.Stock, qty)
		p.UpdatedAt = r.a.now()
		st.products[id] = p
		return nil
	})
}

type cartRepo struct{ a access }

func joined(st *state, l cart.Line) cart.Line {
	l.Product = st.products[l.ProductID]
	return l
}

func (r cartRepo) Lines(_ context.Context, owner int64) ([]cart.Line, error) {
	var out []cart.Line
	err := r.a.with(func(st *state) error {
		for _, l := range st.lines {
			if l.Owner == owner {
				out = append(out, joined(st, l))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r cartRepo) LinesForUpdate(ctx context.Context, owner int64) ([]cart.Line, error) {
	return r.Lines(ctx, owner)
}

func (r cartRepo) find(owner int64, match func(cart.Line) bool) (*cart.Line, error) {
	var out *cart.Line
	err := r.a.with(func(st *state) error {
		for _, l := range st.lines {
			if l.Owner == owner && match(l) {
				j := joined(st, l)
				out = &j
				return nil
			}
		}
		return cart.ErrLineNotFound
	})
	return out, err
}

func (r cartRepo) Line(_ context.Context, owner, lineID int64) (*cart.Line, error) {
	return r.find(owner, func(l cart.Line) bool { return l.ID == lineID })
}

func (r cartRepo) ByProduct(_ context.Context, owner, productID int64) (*cart.Line, error) {
	return r.find(owner, func(l cart.Line) bool { return l.ProductID == productID })
}

func (r cartRepo) Insert(_ context.Context, l *cart.Line) error {
	return r.a.with(func(st *state) error {
		if _, ok := st.products[l.ProductID]; !ok {
			return catalog.ErrProductNotFound
		}
		l.ID = st.nextID()
		l.AddedAt = r.a.now()
		stored := *l
		stored.Product = catalog.Product{}
		st.lines[l.ID] = stored
		return nil
	})
}

func (r cartRepo) SetQuantity(_ context.Context, owner, lineID int64, qty int) error {
	return r.a.with(func(st *state) error {
		l, ok := st.lines[lineID]
		if !ok || l.Owner != owner {
			return cart.ErrLineNotFound
		}
		l.Quantity = qty
		st.lines[lineID] = l
		return nil
	})
}

func (r cartRepo) Delete(_ context.Context, owner, lineID int64) error {
	return r.a.with(func(st *state) error {
		if l, ok := st.lines[lineID]; ok && l.Owner == owner {
			delete(st.lines, lineID)
		}
		return nil
	})
}

func (r cartRepo) Count(_ context.Context, owner int64) (int, error) {
	n := 0
	err := r.a.with(func(st *state) error {
		for _, l := range st.lines {
			if l.Owner == owner {
				n++
			}
		}
		return nil
	})
	return n, err
}

type discountRepo struct{ a access }

func (r discountRepo) ByCode(_ context.Context, code string) (*discount.Code, error) {
	code = discount.Normalize(code)
	var out *discount.Code
	err := r.a.with(func(st *state) error {
		for _, d := range st.discounts {
			if d.Code == code {
				out = &d
				return nil
			}
		}
		return discount.ErrCodeNotFound
	})
	return out, err
}

func (r discountRepo) ByID(_ context.Context, id int64) (*discount.Code, error) {
	var out *discount.Code
	err := r.a.with(func(st *state) error {
		d, ok := st.discounts[id]
		if !ok {
			return discount.ErrCodeNotFound
		}
		out = &d
		return nil
	})
	return out, err
}

func (r discountRepo) ByIDForUpdate(ctx context.Context, id int64) (*discount.Code, error) {
	return r.ByID(ctx, id)
}

func (r discountRepo) IncrementUsage(_ context.Context, id int64) error {
	return r.a.with(func(st *state) error {
		d, ok := st.discounts[id]
		if !ok {
			return discount.ErrCodeNotFound
		}
		if d.MaxUses != nil && d.UsedCount >= *d.MaxUses {
			return discount.ErrUsageExceeded
		}
		d.UsedCount++
		st.discounts[id] = d
		return nil
	})
}

type ordersRepo struct{ a access }

func (r ordersRepo) Insert(_ context.Context, o *orders.Order) error {
	return r.a.with(func(st *state) error {
		o.ID = st.nextID()
		o.CreatedAt = r.a.now()
		o.UpdatedAt = o.CreatedAt
		stored := *o
		stored.Items = nil
		st.orders[o.ID] = stored
		return nil
	})
}

func (r ordersRepo) InsertItem(_ context.Context, it *orders.Item) error {
	return r.a.with(func(st *state) error {
		if _, ok := st.orders[it.OrderID]; !ok {
			return orders.ErrOrderNotFound
		}
		it.ID = st.nextID()
		st.items[it.ID] = *it
		return nil
	})
}

func withItems(st *state, o orders.Order) orders.Order {
	o.Items = nil
	for _, it := range st.items {
		if it.OrderID == o.ID {
			o.Items = append(o.Items, it)
		}
	}
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].ID < o.Items[j].ID })
	return o
}

func (r ordersRepo) ByNumber(_ context.Context, owner int64, number string) (*orders.Order, error) {
	var out *orders.Order
	err := r.a.with(func(st *state) error {
		for _, o := range st.orders {
			if o.Number == number && o.Owner == owner {
				full := withItems(st, o)
				out = &full
				return nil
			}
		}
		return orders.ErrOrderNotFound
	})
	return out, err
}

func (r ordersRepo) ListByOwner(_ context.Context, owner int64) ([]orders.Order, error) {
	var out []orders.Order
	err := r.a.with(func(st *state) error {
		for _, o := range st.orders {
			if o.Owner == owner {
				out = append(out, o)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (r ordersRepo) SelectionRedeemed(_ context.Context, selectionID string) (bool, error) {
	found := false
	err := r.a.with(func(st *state) error {
		for _, o := range st.orders {
			if o.SelectionID == selectionID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r ordersRepo) TransitionStatus(_ context.Context, owner int64, number string, from []orders.Status, to orders.Status) (bool, error) {
	changed := false
	err := r.a.with(func(st *state) error {
		for id, o := range st.orders {
			if o.Number != number || o.Owner != owner {
				continue
			}
			if slices.Contains(from, o.Status) {
				o.Status = to
				o.UpdatedAt = r.a.now()
				st.orders[id] = o
				changed = true
			}
			return nil
		}
		return nil
	})
	return changed, err
}

type settingsRepo struct{ a access }

func (r settingsRepo) Get(_ context.Context, key string) (string, bool, error) {
	var v string
	var ok bool
	err := r.a.with(func(st *state) error {
		v, ok = st.settings[key]
		return nil
	})
	return v, ok, err
}

func (r settingsRepo) Set(_ context.Context, key, value string) error {
	return r.a.with(func(st *state) error {
		st.settings[key] = value
		return nil
	})
}
