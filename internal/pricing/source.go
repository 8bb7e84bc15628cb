package pricing

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	KeyFreeShippingThreshold = "free_shipping_threshold"
	KeyShippingCost          = "shipping_cost"
)

// Source yields the shipping policy currently in force.
type Source interface {
	Policy(ctx context.Context) (Policy, error)
}

// SettingsReader is the subset of the settings store pricing needs.
type SettingsReader interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}

// SettingsSource reads the policy from site settings on every call, so an
// admin edit applies to the next request. Missing or unparsable values fall
// back to the defaults.
type SettingsSource struct {
	Settings SettingsReader
	Log      *zap.Logger
}

func (s *SettingsSource) Policy(ctx context.Context) (Policy, error) {
	threshold, err := s.amount(ctx, KeyFreeShippingThreshold, DefaultFreeShippingThreshold)
	if err != nil {
		return Policy{}, err
	}
	cost, err := s.amount(ctx, KeyShippingCost, DefaultShippingCost)
	if err != nil {
		return Policy{}, err
	}
	return Policy{FreeShippingThreshold: threshold, ShippingCost: cost}, nil
}

func (s *SettingsSource) amount(ctx context.Context, key string, def decimal.Decimal) (decimal.Decimal, error) {
	raw, ok, err := s.Settings.Get(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return def, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		if s.Log != nil {
			s.Log.Warn("ignoring bad pricing setting", zap.String("key", key), zap.String("value", raw))
		}
		return def, nil
	}
	return v, nil
}

// Static is a fixed policy.
type Static Policy

func (s Static) Policy(context.Context) (Policy, error) { return Policy(s), nil }
