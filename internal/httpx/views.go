package httpx

import (
	"time"

	"github.com/ariefcatur/orial-storefront/internal/cart"
	"github.com/ariefcatur/orial-storefront/internal/catalog"
	"github.com/ariefcatur/orial-storefront/internal/orders"
)

type lineView struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
	Stock     int     `json:"stock"`
}

type cartView struct {
	Items          []lineView `json:"items"`
	Subtotal       float64    `json:"subtotal"`
	Shipping       float64    `json:"shipping"`
	DiscountAmount float64    `json:"discount_amount"`
	DiscountCode   string     `json:"discount_code"`
	Total          float64    `json:"total"`
	Threshold      float64    `json:"threshold"`
	CartCount      int        `json:"cart_count"`
}

func toCartView(s *cart.Summary) cartView {
	items := make([]lineView, 0, len(s.Lines))
	for _, l := range s.Lines {
		items = append(items, lineView{
			ID:        l.ID,
			ProductID: l.ProductID,
			Name:      l.Product.Name,
			Slug:      l.Product.Slug,
			UnitPrice: money(l.Product.Price),
			Quantity:  l.Quantity,
			Subtotal:  money(l.Subtotal()),
			Stock:     l.Product.Stock,
		})
	}
	return cartView{
		Items:          items,
		Subtotal:       money(s.Quote.Subtotal),
		Shipping:       money(s.Quote.Shipping),
		DiscountAmount: money(s.Quote.Discount),
		DiscountCode:   s.DiscountCode,
		Total:          money(s.Quote.Total),
		Threshold:      money(s.Quote.Threshold),
		CartCount:      s.Count,
	}
}

type productView struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Slug  string  `json:"slug"`
	SKU   string  `json:"sku"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

func toProductView(p catalog.Product) productView {
	return productView{ID: p.ID, Name: p.Name, Slug: p.Slug, SKU: p.SKU, Price: money(p.Price), Stock: p.Stock}
}

type orderItemView struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

type orderView struct {
	OrderNumber    string                 `json:"order_number"`
	Status         orders.Status          `json:"status"`
	PaymentStatus  orders.PaymentStatus   `json:"payment_status"`
	PaymentMethod  string                 `json:"payment_method"`
	Subtotal       float64                `json:"subtotal"`
	ShippingCost   float64                `json:"shipping_cost"`
	DiscountAmount float64                `json:"discount_amount"`
	DiscountCode   string                 `json:"discount_code"`
	Total          float64                `json:"total"`
	Shipping       orders.ShippingAddress `json:"shipping"`
	Notes          string                 `json:"notes"`
	Items          []orderItemView        `json:"items,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

func toOrderView(o *orders.Order) orderView {
	v := orderView{
		OrderNumber:    o.Number,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		PaymentMethod:  o.PaymentMethod,
		Subtotal:       money(o.Subtotal),
		ShippingCost:   money(o.ShippingCost),
		DiscountAmount: money(o.DiscountAmount),
		DiscountCode:   o.DiscountCode,
		Total:          money(o.Total),
		Shipping:       o.Shipping,
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt,
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, orderItemView{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: money(it.UnitPrice),
			Subtotal:  money(it.Subtotal),
		})
	}
	return v
}
