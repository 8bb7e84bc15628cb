// Package catalog is the read side of the product catalog plus the single
// write checkout needs: stock decrement.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Store interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListActive(ctx context.Context) ([]Product, error)
	// DecrementStock subtracts qty and floors the result at zero. Asking for more
	// than is on hand is not an error.
	DecrementStock(ctx context.Context, id int64, qty int) error
}

// RemainingStock is the floor-at-zero rule shared by every Store implementation.
func RemainingStock(stock, qty int) int {
	if qty >= stock {
		return 0
	}
	return stock - qty
}
