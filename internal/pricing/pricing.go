// Package pricing is the one place cart totals are computed. Cart views, cart
// mutations, coupon application and checkout all go through Price so that the
// total shown to a shopper and the total committed on the order are identical.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	DefaultFreeShippingThreshold = decimal.RequireFromString("200.00")
	DefaultShippingCost          = decimal.RequireFromString("9.95")
)

type Policy struct {
	FreeShippingThreshold decimal.Decimal
	ShippingCost          decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{FreeShippingThreshold: DefaultFreeShippingThreshold, ShippingCost: DefaultShippingCost}
}

type Quote struct {
	Subtotal  decimal.Decimal
	Shipping  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
	Threshold decimal.Decimal
}

// Price charges shipping only below the threshold and floors the total at zero.
func Price(subtotal, threshold, shippingCost, discount decimal.Decimal) Quote {
	shipping := shippingCost
	if subtotal.GreaterThanOrEqual(threshold) {
		shipping = decimal.Zero
	}
	total := subtotal.Add(shipping).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Quote{
		Subtotal:  subtotal,
		Shipping:  shipping,
		Discount:  discount,
		Total:     total,
		Threshold: threshold,
	}
}

func (p Policy) Price(subtotal, discount decimal.Decimal) Quote {
	return Price(subtotal, p.FreeShippingThreshold, p.ShippingCost, discount)
}
