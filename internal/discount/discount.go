// Package discount validates coupon codes against an order subtotal, computes
// the discount amount and tracks how often a code has been redeemed.
package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypePercent Type = "percent"
	TypeFixed   Type = "fixed"
)

var (
	ErrCodeNotFound  = errors.New("discount code not found")
	ErrUsageExceeded = errors.New("discount usage limit reached")
)

type Code struct {
	ID             int64
	Code           string
	Description    string
	Type           Type
	Value          decimal.Decimal
	MinOrderAmount decimal.Decimal
	MaxUses        *int // nil = unlimited
	UsedCount      int
	IsActive       bool
	ExpiresAt      *time.Time
	CreatedAt      time.Time
}

type Store interface {
	ByCode(ctx context.Context, code string) (*Code, error)
	ByID(ctx context.Context, id int64) (*Code, error)
	// ByIDForUpdate locks the row until the surrounding transaction ends.
	ByIDForUpdate(ctx context.Context, id int64) (*Code, error)
	// IncrementUsage bumps used_count, refusing with ErrUsageExceeded once
	// max_uses has been reached.
	IncrementUsage(ctx context.Context, id int64) error
}

// Normalize upper-cases and trims a user supplied code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type Reason string

const (
	ReasonInvalidCode  Reason = "invalid code"
	ReasonInactive     Reason = "inactive"
	ReasonExpired      Reason = "expired"
	ReasonUsageLimit   Reason = "usage limit reached"
	ReasonMinimumOrder Reason = "minimum order not met"
)

// InvalidError explains why a code cannot be applied. Error() is the message
// shown to the shopper.
type InvalidError struct {
	Reason   Reason
	MinOrder decimal.Decimal
}

func (e *InvalidError) Error() string {
	switch e.Reason {
	case ReasonInvalidCode:
		return "Invalid discount code."
	case ReasonInactive:
		return "This discount code is inactive."
	case ReasonExpired:
		return "This discount code has expired."
	case ReasonUsageLimit:
		return "This discount code has reached its usage limit."
	case ReasonMinimumOrder:
		return fmt.Sprintf("Minimum order of Rs%s required.", e.MinOrder.StringFixed(0))
	}
	return string(e.Reason)
}

// Validate runs the checks in priority order and reports only the first failure.
// A nil code means the lookup found nothing.
func Validate(d *Code, subtotal decimal.Decimal, now time.Time) error {
	switch {
	case d == nil:
		return &InvalidError{Reason: ReasonInvalidCode}
	case !d.IsActive:
		return &InvalidError{Reason: ReasonInactive}
	case d.ExpiresAt != nil && now.After(*d.ExpiresAt):
		return &InvalidError{Reason: ReasonExpired}
	case d.MaxUses != nil && d.UsedCount >= *d.MaxUses:
		return &InvalidError{Reason: ReasonUsageLimit}
	case subtotal.LessThan(d.MinOrderAmount):
		return &InvalidError{Reason: ReasonMinimumOrder, MinOrder: d.MinOrderAmount}
	}
	return nil
}

// ComputeAmount never returns more than subtotal for fixed codes; percent
// codes are rounded half-up to cents.
func ComputeAmount(d *Code, subtotal decimal.Decimal) decimal.Decimal {
	if d.Type == TypePercent {
		return subtotal.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2)
	}
	return decimal.Min(d.Value, subtotal)
}

// Lookup resolves a code string, mapping a missing row to an InvalidError.
func Lookup(ctx context.Context, s Store, code string) (*Code, error) {
	d, err := s.ByCode(ctx, Normalize(code))
	if errors.Is(err, ErrCodeNotFound) {
		return nil, &InvalidError{Reason: ReasonInvalidCode}
	}
	return d, err
}

// RecordUsage must be called exactly once per completed order, inside the
// transaction that creates the order.
func RecordUsage(ctx context.Context, s Store, d *Code) error {
	if err := s.IncrementUsage(ctx, d.ID); err != nil {
		return fmt.Errorf("record usage of %s: %w", d.Code, err)
	}
	d.UsedCount++
	return nil
}
