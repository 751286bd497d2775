package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	property "hostledger/internal/property/domain"
)

// PropertyPriceProvider reads the electricity price stored on the property and
// falls back to a default when the property has none.
type PropertyPriceProvider struct {
	properties property.Repository
	fallback   int64
}

// NewPropertyPriceProvider constructs the provider.
func NewPropertyPriceProvider(properties property.Repository, fallbackPer100WhCents int64) (*PropertyPriceProvider, error) {
	if properties == nil {
		return nil, errors.New("property price provider: nil repository")
	}
	if fallbackPer100WhCents < 0 {
		return nil, errors.New("property price provider: negative fallback price")
	}
	return &PropertyPriceProvider{properties: properties, fallback: fallbackPer100WhCents}, nil
}

// PricePer100Wh returns the price in cents per 100 Wh for a property.
func (p *PropertyPriceProvider) PricePer100Wh(ctx context.Context, propertyID string, at time.Time) (int64, error) {
	_ = at
	if propertyID == "" {
		return 0, errors.New("property price provider: empty property id")
	}
	prop, err := p.properties.Get(ctx, propertyID)
	if err != nil {
		return 0, fmt.Errorf("property price provider: load property: %w", err)
	}
	if prop == nil || prop.PricePer100WhCents == 0 {
		return p.fallback, nil
	}
	return prop.PricePer100WhCents, nil
}
