package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	kafkax "github.com/ariefcatur/orial-storefront/internal/kafka"
	"github.com/ariefcatur/orial-storefront/internal/orders"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureSender struct {
	sent []Notification
	err  error
}

func (c *captureSender) Send(_ context.Context, n Notification) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, n)
	return nil
}

func newService(t *testing.T) (*Service, *captureSender, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sender := &captureSender{}
	return &Service{Redis: rdb, Sender: sender, Log: zap.NewNop(), ServiceName: "notifier"}, sender, mr
}

func message(t *testing.T, eventType string, payload any) (kafkago.Message, orders.Envelope) {
	t.Helper()
	env, err := orders.NewEnvelope(eventType, "storefront-api", "ORD-0123456789", "", payload, time.Now())
	require.NoError(t, err)
	m, err := kafkax.EnvelopeMessage(env)
	require.NoError(t, err)
	return m, env
}

func placed() orders.OrderPlacedPayload {
	return orders.OrderPlacedPayload{
		OrderNumber:    "ORD-0123456789",
		Owner:          3,
		Email:          "asha@example.com",
		Total:          decimal.RequireFromString("144.95"),
		DiscountCode:   "WELCOME10",
		DiscountAmount: decimal.RequireFromString("15"),
		Items:          []orders.ItemLine{{ProductID: 1, Quantity: 2}, {ProductID: 4, Quantity: 1}},
	}
}

func TestHandleMessage_OrderPlaced(t *testing.T) {
	svc, sender, mr := newService(t)
	m, env := message(t, orders.EventOrderPlaced, placed())

	require.NoError(t, svc.HandleMessage(context.Background(), m))
	require.Len(t, sender.sent, 1)
	n := sender.sent[0]
	assert.Equal(t, "asha@example.com", n.To)
	assert.Equal(t, "Order ORD-0123456789 confirmed", n.Subject)
	assert.Equal(t, "Thank you for your order. 3 item(s), total Rs144.95. Code WELCOME10 saved you Rs15.00.", n.Body)
	assert.True(t, mr.Exists("dedup:notifier:"+env.EventID))
}

func TestHandleMessage_Duplicate(t *testing.T) {
	svc, sender, _ := newService(t)
	m, _ := message(t, orders.EventOrderCancelled, orders.OrderCancelledPayload{OrderNumber: "ORD-0123456789", Email: "a@b.c", PreviousStatus: orders.StatusConfirmed})

	require.NoError(t, svc.HandleMessage(context.Background(), m))
	require.NoError(t, svc.HandleMessage(context.Background(), m))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Order ORD-0123456789 cancelled", sender.sent[0].Subject)
}

func TestHandleMessage_SendFailureAllowsRetry(t *testing.T) {
	svc, sender, mr := newService(t)
	m, env := message(t, orders.EventOrderPlaced, placed())
	sender.err = errors.New("smtp down")

	assert.ErrorContains(t, svc.HandleMessage(context.Background(), m), "smtp down")
	assert.False(t, mr.Exists("dedup:notifier:"+env.EventID))

	sender.err = nil
	require.NoError(t, svc.HandleMessage(context.Background(), m))
	assert.Len(t, sender.sent, 1)
}

func TestHandleMessage_Ignores(t *testing.T) {
	svc, sender, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleMessage(ctx, kafkago.Message{Value: []byte("not json")}))
	m, _ := message(t, "SomethingElse", map[string]string{})
	require.NoError(t, svc.HandleMessage(ctx, m))
	assert.Empty(t, sender.sent)
}

func TestHandleMessage_RedisDown(t *testing.T) {
	svc, sender, mr := newService(t)
	m, _ := message(t, orders.EventOrderPlaced, placed())
	mr.Close()

	assert.Error(t, svc.HandleMessage(context.Background(), m))
	assert.Empty(t, sender.sent)
}
