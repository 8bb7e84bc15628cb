package checkout

import (
	"context"

	"github.com/ariefcatur/orial-storefront/internal/orders"
	"go.uber.org/zap"
)

func (s *Service) Order(ctx context.Context, owner int64, number string) (*orders.Order, error) {
	return s.Orders.ByNumber(ctx, owner, number)
}

func (s *Service) ListOrders(ctx context.Context, owner int64) ([]orders.Order, error) {
	return s.Orders.ListByOwner(ctx, owner)
}

// Cancel moves a pending or confirmed order to cancelled. Any other status is
// rejected with an *orders.StatusError. Stock and discount usage are left as
// they are.
func (s *Service) Cancel(ctx context.Context, owner int64, number, traceID string) (*orders.Order, error) {
	o, err := s.Orders.ByNumber(ctx, owner, number)
	if err != nil {
		return nil, err
	}
	if !orders.CanTransition(o.Status, orders.StatusCancelled) {
		return o, &orders.StatusError{Number: o.Number, Status: o.Status}
	}

	changed, err := s.Orders.TransitionStatus(ctx, owner, number, orders.Cancellable(), orders.StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !changed {
		// status moved between the read and the update
		if o, err = s.Orders.ByNumber(ctx, owner, number); err != nil {
			return nil, err
		}
		return o, &orders.StatusError{Number: o.Number, Status: o.Status}
	}

	previous := o.Status
	o.Status = orders.StatusCancelled
	s.log().Info("order cancelled", zap.String("order_number", o.Number), zap.Int64("owner", owner), zap.String("previous_status", string(previous)))
	s.publish(ctx, orders.EventOrderCancelled, o.Number, traceID, orders.OrderCancelledPayload{
		OrderNumber:    o.Number,
		Owner:          o.Owner,
		Email:          o.Shipping.Email,
		PreviousStatus: previous,
	})
	return o, nil
}
