// Package cart holds each owner's mutable basket and produces the priced
// summary every cart endpoint returns.
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/orial-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

var (
	ErrLineNotFound      = errors.New("cart line not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
)

// Line is one product in an owner's cart. Product is read live from the
// catalog whenever the line is loaded, so price edits show up until checkout.
type Line struct {
	ID        int64
	Owner     int64
	ProductID int64
	Quantity  int
	AddedAt   time.Time
	Product   catalog.Product
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums line subtotals. It is recomputed on every call.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// Store is scoped by owner on every call; a line id belonging to another
// owner is reported as ErrLineNotFound.
type Store interface {
	Lines(ctx context.Context, owner int64) ([]Line, error)
	// LinesForUpdate locks the owner's lines and their products for the rest
	// of the transaction.
	LinesForUpdate(ctx context.Context, owner int64) ([]Line, error)
	Line(ctx context.Context, owner, lineID int64) (*Line, error)
	ByProduct(ctx context.Context, owner, productID int64) (*Line, error)
	Insert(ctx context.Context, l *Line) error
	SetQuantity(ctx context.Context, owner, lineID int64, qty int) error
	Delete(ctx context.Context, owner, lineID int64) error
	Count(ctx context.Context, owner int64) (int, error)
}
