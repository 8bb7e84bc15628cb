package memstore

import (
	"github.com/ariefcatur/orial-storefront/internal/catalog"
	"github.com/ariefcatur/orial-storefront/internal/discount"
	"github.com/ariefcatur/orial-storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

// AddProduct stores p under a fresh id and returns the stored copy.
func (d *DB) AddProduct(p catalog.Product) catalog.Product {
	d.mu.Lock()
	defer d.mu.Unlock()
	p.ID = d.st.nextID()
	p.CreatedAt = d.Now()
	p.UpdatedAt = p.CreatedAt
	d.st.products[p.ID] = p
	return p
}

// UpdateProduct replaces a stored product, as an admin price or stock edit would.
func (d *DB) UpdateProduct(p catalog.Product) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.st.products[p.ID] = p
}

func (d *DB) Product(id int64) (catalog.Product, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.st.products[id]
	return p, ok
}

func (d *DB) AddDiscount(c discount.Code) discount.Code {
	d.mu.Lock()
	defer d.mu.Unlock()
	c.ID = d.st.nextID()
	c.Code = discount.Normalize(c.Code)
	c.CreatedAt = d.Now()
	d.st.discounts[c.ID] = c
	return c
}

func (d *DB) Discount(id int64) (discount.Code, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.st.discounts[id]
	return c, ok
}

func (d *DB) DeleteDiscount(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.st.discounts, id)
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(i int) *int { return &i }

// Seed loads the reference jewellery catalog, coupon codes and shipping settings.
func (d *DB) Seed() {
	for _, p := range []catalog.Product{
		{Name: "Rose Gold Pink Diamond Ring", Slug: "rose-gold-pink-diamond-ring", SKU: "RNG-001", Price: money("1250.00"), Stock: 5, IsActive: true},
		{Name: "Sterling Silver Pearl Drop Earrings", Slug: "silver-pearl-drop-earrings", SKU: "EAR-014", Price: money("89.00"), Stock: 20, IsActive: true},
		{Name: "18K Gold Herringbone Chain", Slug: "gold-herringbone-chain", SKU: "NCK-007", Price: money("420.00"), Stock: 8, IsActive: true},
		{Name: "Sapphire Tennis Bracelet", Slug: "sapphire-tennis-bracelet", SKU: "BRC-003", Price: money("2100.00"), Stock: 2, IsActive: true},
		{Name: "Birthstone Stacking Ring", Slug: "birthstone-stacking-ring", SKU: "RNG-022", Price: money("45.00"), Stock: 50, IsActive: true},
	} {
		d.AddProduct(p)
	}
	d.AddDiscount(discount.Code{Code: "WELCOME10", Type: discount.TypePercent, Value: money("10"), MinOrderAmount: money("100"), IsActive: true})
	d.AddDiscount(discount.Code{Code: "ORIAL20", Type: discount.TypePercent, Value: money("20"), MinOrderAmount: money("500"), MaxUses: intPtr(50), IsActive: true})
	d.AddDiscount(discount.Code{Code: "FREE50", Type: discount.TypeFixed, Value: money("50"), MinOrderAmount: money("300"), IsActive: true})

	d.mu.Lock()
	d.st.settings[pricing.KeyFreeShippingThreshold] = "200"
	d.st.settings[pricing.KeyShippingCost] = "9.95"
	d.mu.Unlock()
}
