package pricing

import (
	"context"
	"errors"
	"time"
)

// FixedPriceProvider returns one electricity price for every property.
type FixedPriceProvider struct {
	price int64
}

// NewFixedPriceProvider constructs the provider.
func NewFixedPriceProvider(pricePer100WhCents int64) (*FixedPriceProvider, error) {
	if pricePer100WhCents < 0 {
		return nil, errors.New("price provider: negative price")
	}
	return &FixedPriceProvider{price: pricePer100WhCents}, nil
}

// PricePer100Wh returns the configured price in cents.
func (p *FixedPriceProvider) PricePer100Wh(ctx context.Context, propertyID string, at time.Time) (int64, error) {
	_ = ctx
	_ = propertyID
	_ = at
	return p.price, nil
}
