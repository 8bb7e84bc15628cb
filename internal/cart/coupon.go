package cart

import (
	"context"
	"fmt"

	"github.com/ariefcatur/orial-storefront/internal/discount"
	"github.com/google/uuid"
)

// ApplyCoupon validates code against the current subtotal and stores it as the
// owner's selection. Validation failures come back as *discount.InvalidError
// and leave any previous selection untouched.
func (s *Service) ApplyCoupon(ctx context.Context, owner int64, code string) (*Summary, error) {
	lines, err := s.Lines.Lines(ctx, owner)
	if err != nil {
		return nil, err
	}
	subtotal := Total(lines)

	d, err := discount.Lookup(ctx, s.Discounts, code)
	if err != nil {
		return nil, err
	}
	if err := discount.Validate(d, subtotal, s.now()); err != nil {
		return nil, err
	}
	sel := discount.Selection{ID: uuid.NewString(), DiscountID: d.ID, Code: d.Code, Amount: discount.ComputeAmount(d, subtotal)}
	if err := s.Selections.Save(ctx, owner, sel); err != nil {
		return nil, fmt.Errorf("save selection: %w", err)
	}
	return s.Summary(ctx, owner)
}

// RemoveCoupon is idempotent.
func (s *Service) RemoveCoupon(ctx context.Context, owner int64) error {
	return s.Selections.Clear(ctx, owner)
}
