package discount

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Selection is the coupon an owner has applied to their in-progress checkout.
// The zero value means no selection. ID is minted on every apply and recorded
// on the order that redeems it, so one application pays for one order only.
type Selection struct {
	ID         string          `json:"id"`
	DiscountID int64           `json:"discount_id"`
	Code       string          `json:"code"`
	Amount     decimal.Decimal `json:"amount"`
}

func (s Selection) Empty() bool { return s.DiscountID == 0 }

// SelectionStore keeps one Selection per owner. Get returns the zero value
// when nothing is stored. Clear is idempotent.
type SelectionStore interface {
	Get(ctx context.Context, owner int64) (Selection, error)
	Save(ctx context.Context, owner int64, s Selection) error
	Clear(ctx context.Context, owner int64) error
}

// Revalidate re-checks a selection against a new subtotal. It returns the
// refreshed selection and whether it is still applicable; an inapplicable
// selection comes back as the zero value. Only storage failures are errors.
func Revalidate(ctx context.Context, s Store, sel Selection, subtotal decimal.Decimal, now time.Time) (Selection, bool, error) {
	if sel.Empty() {
		return Selection{}, false, nil
	}
	d, err := s.ByID(ctx, sel.DiscountID)
	if errors.Is(err, ErrCodeNotFound) {
		return Selection{}, false, nil
	}
	if err != nil {
		return Selection{}, false, err
	}
	if Validate(d, subtotal, now) != nil {
		return Selection{}, false, nil
	}
	return Selection{ID: sel.ID, DiscountID: d.ID, Code: d.Code, Amount: ComputeAmount(d, subtotal)}, true, nil
}
