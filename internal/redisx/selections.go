package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/orial-storefront/internal/discount"
	"github.com/redis/go-redis/v9"
)

// Selections keeps each owner's discount selection as a JSON string that
// expires after TTL of inactivity.
type Selections struct {
	Redis redis.Cmdable
	TTL   time.Duration
}

func (s *Selections) key(owner int64) string { return fmt.Sprintf(KeySelection, owner) }

func (s *Selections) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return TTLSelection
}

func (s *Selections) Get(ctx context.Context, owner int64) (discount.Selection, error) {
	raw, err := s.Redis.Get(ctx, s.key(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return discount.Selection{}, nil
	}
	if err != nil {
		return discount.Selection{}, err
	}
	var sel discount.Selection
	if err := json.Unmarshal(raw, &sel); err != nil || sel.ID == "" {
		// unreadable entries are treated as no selection
		_ = s.Redis.Del(ctx, s.key(owner)).Err()
		return discount.Selection{}, nil
	}
	return sel, nil
}

func (s *Selections) Save(ctx context.Context, owner int64, sel discount.Selection) error {
	b, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, s.key(owner), b, s.ttl()).Err()
}

func (s *Selections) Clear(ctx context.Context, owner int64) error {
	return s.Redis.Del(ctx, s.key(owner)).Err()
}

var _ discount.SelectionStore = (*Selections)(nil)
