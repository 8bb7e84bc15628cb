// Package checkout turns an owner's priced cart into an order in a single
// transaction and handles post-checkout cancellation.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ariefcatur/orial-storefront/internal/cart"
	"github.com/ariefcatur/orial-storefront/internal/discount"
	"github.com/ariefcatur/orial-storefront/internal/logging"
	"github.com/ariefcatur/orial-storefront/internal/orders"
	"github.com/ariefcatur/orial-storefront/internal/pricing"
	"github.com/ariefcatur/orial-storefront/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrDiscountInvalid = errors.New("discount code is no longer valid")
	ErrInvalidAddress  = errors.New("invalid shipping details")
)

// Publisher receives lifecycle events after the transaction has committed.
type Publisher interface {
	Publish(ctx context.Context, env orders.Envelope) error
}

// Summarizer prices a cart; cart.Service implements it.
type Summarizer interface {
	Summary(ctx context.Context, owner int64) (*cart.Summary, error)
}

type Service struct {
	UoW        store.UnitOfWork
	Orders     orders.Store // reads and cancellation outside the checkout tx
	Cart       Summarizer
	Selections discount.SelectionStore
	Pricing    pricing.Source
	Events     Publisher
	Producer   string
	Log        *zap.Logger
	Now        func() time.Time
	NewNumber  func() string
}

type Request struct {
	Owner         int64
	Shipping      orders.ShippingAddress
	PaymentMethod string
	Notes         string
	TraceID       string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) log() *zap.Logger { return logging.OrNop(s.Log) }

// Preview returns the priced cart shown on the confirmation page.
func (s *Service) Preview(ctx context.Context, owner int64) (*cart.Summary, error) {
	sum, err := s.Cart.Summary(ctx, owner)
	if err != nil {
		return nil, err
	}
	if sum.Count == 0 {
		return nil, ErrEmptyCart
	}
	return sum, nil
}

var validate = newValidator()

// newValidator names fields by their json tags.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func normalize(req *Request) error {
	a := &req.Shipping
	for _, f := range []*string{&a.FullName, &a.Email, &a.Phone, &a.Address1, &a.Address2, &a.City, &a.Postcode, &a.Country, &req.PaymentMethod, &req.Notes} {
		*f = strings.TrimSpace(*f)
	}
	if a.Country == "" {
		a.Country = orders.DefaultCountry
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = orders.DefaultPaymentMethod
	}
	return addressError(validate.Struct(a))
}

func addressError(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	fe := fields[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrInvalidAddress, fe.Field())
	case "max":
		return fmt.Errorf("%w: %s must be at most %s characters", ErrInvalidAddress, fe.Field(), fe.Param())
	}
	return fmt.Errorf("%w: %s is not valid", ErrInvalidAddress, fe.Field())
}

// PlaceOrder prices the cart afresh and, in one transaction, writes the order
// and its items, decrements stock, empties the cart and records discount
// usage. Payment is simulated: the order is confirmed and paid on creation.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (*orders.Order, error) {
	if err := normalize(&req); err != nil {
		return nil, err
	}
	policy, err := s.Pricing.Policy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pricing policy: %w", err)
	}
	sel, err := s.Selections.Get(ctx, req.Owner)
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}

	newNumber := s.NewNumber
	if newNumber == nil {
		newNumber = orders.NewNumber
	}
	now := s.now()

	var placed *orders.Order
	err = s.UoW.Do(ctx, func(ctx context.Context, r store.Repos) error {
		lines, err := r.Cart.LinesForUpdate(ctx, req.Owner)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		subtotal := cart.Total(lines)

		var code *discount.Code
		amount := decimal.Zero
		if !sel.Empty() {
			code, err = r.Discounts.ByIDForUpdate(ctx, sel.DiscountID)
			if errors.Is(err, discount.ErrCodeNotFound) {
				return ErrDiscountInvalid
			}
			if err != nil {
				return err
			}
			if err := discount.Validate(code, subtotal, now); err != nil {
				return fmt.Errorf("%w: %w", ErrDiscountInvalid, err)
			}
			// the discount row lock serializes checkouts redeeming this selection
			redeemed, err := r.Orders.SelectionRedeemed(ctx, sel.ID)
			if err != nil {
				return err
			}
			if redeemed {
				return fmt.Errorf("%w: selection %s already redeemed", ErrDiscountInvalid, sel.ID)
			}
			amount = discount.ComputeAmount(code, subtotal)
		}
		quote := policy.Price(subtotal, amount)

		o := &orders.Order{
			Number:         newNumber(),
			Owner:          req.Owner,
			Status:         orders.StatusConfirmed,
			PaymentStatus:  orders.PaymentPaid,
			PaymentMethod:  req.PaymentMethod,
			Subtotal:       quote.Subtotal,
			ShippingCost:   quote.Shipping,
			DiscountAmount: quote.Discount,
			Total:          quote.Total,
			Shipping:       req.Shipping,
			Notes:          req.Notes,
		}
		if code != nil {
			o.DiscountCode = code.Code
			o.SelectionID = sel.ID
		}
		if err := r.Orders.Insert(ctx, o); err != nil {
			return err
		}

		for _, l := range lines {
			it := orders.Item{
				OrderID:   o.ID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitPrice: l.Product.Price,
				Subtotal:  l.Subtotal(),
			}
			if err := r.Orders.InsertItem(ctx, &it); err != nil {
				return err
			}
			o.Items = append(o.Items, it)
			if err := r.Catalog.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				return err
			}
			if err := r.Cart.Delete(ctx, req.Owner, l.ID); err != nil {
				return err
			}
		}

		if code != nil {
			if err := discount.RecordUsage(ctx, r.Discounts, code); err != nil {
				if errors.Is(err, discount.ErrUsageExceeded) {
					return fmt.Errorf("%w: %w", ErrDiscountInvalid, err)
				}
				return err
			}
		}
		placed = o
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrDiscountInvalid) {
			s.clearSelection(ctx, req.Owner)
		}
		return nil, err
	}

	s.clearSelection(ctx, req.Owner)
	s.log().Info("order placed",
		zap.String("order_number", placed.Number),
		zap.Int64("owner", placed.Owner),
		zap.String("total", placed.Total.StringFixed(2)),
		zap.String("discount_code", placed.DiscountCode),
		zap.Int("items", len(placed.Items)))
	s.publish(ctx, orders.EventOrderPlaced, placed.Number, req.TraceID, orders.PlacedPayload(placed))
	return placed, nil
}

func (s *Service) clearSelection(ctx context.Context, owner int64) {
	if err := s.Selections.Clear(ctx, owner); err != nil {
		s.log().Warn("clear discount selection", zap.Int64("owner", owner), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, eventType, number, traceID string, payload any) {
	if s.Events == nil {
		return
	}
	env, err := orders.NewEnvelope(eventType, s.Producer, number, traceID, payload, s.now())
	if err == nil {
		err = s.Events.Publish(ctx, env)
	}
	if err != nil {
		s.log().Warn("publish order event", zap.String("event_type", eventType), zap.String("order_number", number), zap.Error(err))
	}
}
