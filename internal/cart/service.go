package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/orial-storefront/internal/catalog"
	"github.com/ariefcatur/orial-storefront/internal/discount"
	"github.com/ariefcatur/orial-storefront/internal/pricing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service struct {
	Lines      Store
	Catalog    catalog.Store
	Discounts  discount.Store
	Selections discount.SelectionStore
	Pricing    pricing.Source
	Log        *zap.Logger
	Now        func() time.Time
}

// Summary is the priced state of a cart after the latest change.
type Summary struct {
	Lines        []Line
	Quote        pricing.Quote
	DiscountCode string
	Count        int
}

type AddResult struct {
	Summary
	Product catalog.Product
	Line    Line
}

type UpdateResult struct {
	Summary
	ItemSubtotal      decimal.Decimal
	ActualQuantity    int
	StockLimitReached bool
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Summary prices the cart and re-validates the owner's coupon against the
// current subtotal, dropping it once it no longer applies.
func (s *Service) Summary(ctx context.Context, owner int64) (*Summary, error) {
	lines, err := s.Lines.Lines(ctx, owner)
	if err != nil {
		return nil, err
	}
	subtotal := Total(lines)

	sel, err := s.Selections.Get(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}
	fresh, ok, err := discount.Revalidate(ctx, s.Discounts, sel, subtotal, s.now())
	if err != nil {
		return nil, err
	}
	switch {
	case !sel.Empty() && !ok:
		if err := s.Selections.Clear(ctx, owner); err != nil {
			return nil, fmt.Errorf("clear selection: %w", err)
		}
		if s.Log != nil {
			s.Log.Info("discount selection dropped", zap.Int64("owner", owner), zap.String("code", sel.Code))
		}
	case ok && !fresh.Amount.Equal(sel.Amount):
		if err := s.Selections.Save(ctx, owner, fresh); err != nil {
			return nil, fmt.Errorf("save selection: %w", err)
		}
	}

	policy, err := s.Pricing.Policy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pricing policy: %w", err)
	}
	return &Summary{
		Lines:        lines,
		Quote:        policy.Price(subtotal, fresh.Amount),
		DiscountCode: fresh.Code,
		Count:        len(lines),
	}, nil
}

// AddItem grows an existing line up to the available stock, but refuses to
// start a new line for more than is on hand.
func (s *Service) AddItem(ctx context.Context, owner, productID int64, qty int) (*AddResult, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	p, err := s.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, catalog.ErrProductNotFound
	}

	line, err := s.Lines.ByProduct(ctx, owner, productID)
	switch {
	case err == nil:
		if p.Stock <= 0 {
			return nil, ErrInsufficientStock
		}
		line.Quantity = min(line.Quantity+qty, p.Stock)
		if err := s.Lines.SetQuantity(ctx, owner, line.ID, line.Quantity); err != nil {
			return nil, err
		}
	case errors.Is(err, ErrLineNotFound):
		if p.Stock < qty {
			return nil, ErrInsufficientStock
		}
		line = &Line{Owner: owner, ProductID: productID, Quantity: qty}
		if err := s.Lines.Insert(ctx, line); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	line.Product = *p

	sum, err := s.Summary(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &AddResult{Summary: *sum, Product: *p, Line: *line}, nil
}

// UpdateQuantity sets a line's quantity, clamped to stock. qty <= 0 removes
// the line, as does a clamp that leaves nothing.
func (s *Service) UpdateQuantity(ctx context.Context, owner, lineID int64, qty int) (*UpdateResult, error) {
	line, err := s.Lines.Line(ctx, owner, lineID)
	if err != nil {
		return nil, err
	}

	res := &UpdateResult{ItemSubtotal: decimal.Zero}
	if qty > 0 {
		res.StockLimitReached = qty > line.Product.Stock
		res.ActualQuantity = min(qty, line.Product.Stock)
	}
	if res.ActualQuantity > 0 {
		if err := s.Lines.SetQuantity(ctx, owner, lineID, res.ActualQuantity); err != nil {
			return nil, err
		}
		line.Quantity = res.ActualQuantity
		res.ItemSubtotal = line.Subtotal()
	} else if err := s.Lines.Delete(ctx, owner, lineID); err != nil {
		return nil, err
	}

	sum, err := s.Summary(ctx, owner)
	if err != nil {
		return nil, err
	}
	res.Summary = *sum
	return res, nil
}

func (s *Service) RemoveItem(ctx context.Context, owner, lineID int64) (*Summary, error) {
	if _, err := s.Lines.Line(ctx, owner, lineID); err != nil {
		return nil, err
	}
	if err := s.Lines.Delete(ctx, owner, lineID); err != nil {
		return nil, err
	}
	return s.Summary(ctx, owner)
}

func (s *Service) Count(ctx context.Context, owner int64) (int, error) {
	return s.Lines.Count(ctx, owner)
}
