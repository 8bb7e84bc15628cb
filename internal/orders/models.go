package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrNotCancellable = errors.New("order cannot be cancelled")
)

const (
	DefaultCountry       = "United Kingdom"
	DefaultPaymentMethod = "card"
	orderNumberPrefix    = "ORD-"
)

// ShippingAddress is copied onto the order at checkout and never re-read from
// the customer's profile.
type ShippingAddress struct {
	FullName string `json:"full_name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"max=50"`
	Address1 string `json:"address1" validate:"required,max=255"`
	Address2 string `json:"address2" validate:"max=255"`
	City     string `json:"city" validate:"required,max=100"`
	Postcode string `json:"postcode" validate:"required,max=20"`
	Country  string `json:"country" validate:"required,max=100"`
}

// Order is immutable after creation apart from Status and PaymentStatus.
type Order struct {
	ID             int64
	Number         string
	Owner          int64
	Status         Status
	PaymentStatus  PaymentStatus
	PaymentMethod  string
	Subtotal       decimal.Decimal
	ShippingCost   decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	DiscountCode   string // denormalized, survives deletion of the code
	SelectionID    string // discount selection redeemed by this order, if any
	Shipping       ShippingAddress
	Notes          string
	Items          []Item
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Item freezes the unit price at the moment the order was placed.
type Item struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// NewNumber returns "ORD-" followed by 40 random bits as upper-case hex.
func NewNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return orderNumberPrefix + strings.ToUpper(hex[:10])
}

// StatusError rejects a cancellation because the order has moved past the
// cancellable statuses. It matches ErrNotCancellable with errors.Is.
type StatusError struct {
	Number string
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Order %s cannot be cancelled as it is already %s.", e.Number, e.Status)
}

func (e *StatusError) Is(target error) bool { return target == ErrNotCancellable }
