package kafka

import (
	"context"

	"github.com/ariefcatur/orial-storefront/internal/orders"
)

// Publisher sends order lifecycle envelopes through a Producer.
type Publisher struct {
	Producer *Producer
}

func (p *Publisher) Publish(ctx context.Context, env orders.Envelope) error {
	m, err := EnvelopeMessage(env)
	if err != nil {
		return err
	}
	return p.Producer.Publish(ctx, m)
}
