// Package notify consumes order lifecycle events and turns them into customer
// notifications.
package notify

import (
	"context"
	"fmt"

	kafkax "github.com/ariefcatur/orial-storefront/internal/kafka"
	"github.com/ariefcatur/orial-storefront/internal/logging"
	"github.com/ariefcatur/orial-storefront/internal/orders"
	"github.com/ariefcatur/orial-storefront/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Notification struct {
	OrderNumber string
	To          string
	Subject     string
	Body        string
}

// Sender delivers a notification. Returning an error leaves the event
// unmarked so a redelivery can try again.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the log instead of a mail gateway.
type LogSender struct{ Log *zap.Logger }

func (s LogSender) Send(_ context.Context, n Notification) error {
	s.Log.Info("customer notification",
		zap.String("order_number", n.OrderNumber),
		zap.String("to", n.To),
		zap.String("subject", n.Subject),
		zap.String("body", n.Body))
	return nil
}

type Service struct {
	Redis       redis.Cmdable
	Sender      Sender
	Log         *zap.Logger
	ServiceName string
}

// HandleMessage is installed as the consumer handler.
func (s *Service) HandleMessage(ctx context.Context, m kafkago.Message) error {
	log := logging.OrNop(s.Log)
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		log.Warn("dropping undecodable message", zap.String("topic", m.Topic), zap.Error(err))
		return nil
	}

	var n Notification
	switch env.EventType {
	case orders.EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
		if err != nil {
			log.Warn("dropping bad OrderPlaced payload", zap.String("event_id", env.EventID), zap.Error(err))
			return nil
		}
		n = placedNotification(p)
	case orders.EventOrderCancelled:
		p, err := kafkax.UnwrapPayload[orders.OrderCancelledPayload](env.Payload)
		if err != nil {
			log.Warn("dropping bad OrderCancelled payload", zap.String("event_id", env.EventID), zap.Error(err))
			return nil
		}
		n = cancelledNotification(p)
	default:
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	first, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !first {
		log.Debug("duplicate event skipped", zap.String("event_id", env.EventID))
		return nil
	}

	if err := s.Sender.Send(ctx, n); err != nil {
		_ = s.Redis.Del(ctx, dkey).Err()
		return fmt.Errorf("send notification for %s: %w", n.OrderNumber, err)
	}
	return nil
}

func placedNotification(p orders.OrderPlacedPayload) Notification {
	units := 0
	for _, it := range p.Items {
		units += it.Quantity
	}
	body := fmt.Sprintf("Thank you for your order. %d item(s), total Rs%s.", units, p.Total.StringFixed(2))
	if p.DiscountCode != "" {
		body += fmt.Sprintf(" Code %s saved you Rs%s.", p.DiscountCode, p.DiscountAmount.StringFixed(2))
	}
	return Notification{
		OrderNumber: p.OrderNumber,
		To:          p.Email,
		Subject:     fmt.Sprintf("Order %s confirmed", p.OrderNumber),
		Body:        body,
	}
}

func cancelledNotification(p orders.OrderCancelledPayload) Notification {
	return Notification{
		OrderNumber: p.OrderNumber,
		To:          p.Email,
		Subject:     fmt.Sprintf("Order %s cancelled", p.OrderNumber),
		Body:        fmt.Sprintf("Your order %s has been cancelled.", p.OrderNumber),
	}
}
