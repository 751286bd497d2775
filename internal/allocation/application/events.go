package application

import (
	"context"
	"time"
)

// AllocationCalculated is emitted after an allocation is stored.
type AllocationCalculated struct {
	PropertyID    string    `json:"propertyId"`
	BookingID     string    `json:"bookingId"`
	ProfitCents   int64     `json:"profitCents"`
	MarginPercent float64   `json:"marginPercent"`
	AllocatedAt   time.Time `json:"allocatedAt"`
}

// AllocationPublisher emits allocation events.
type AllocationPublisher interface {
	PublishAllocationCalculated(ctx context.Context, event AllocationCalculated) error
}

// MultiPublisher fans an event out to several publishers and returns the first error.
type MultiPublisher []AllocationPublisher

// PublishAllocationCalculated publishes to every non-nil publisher.
func (m MultiPublisher) PublishAllocationCalculated(ctx context.Context, event AllocationCalculated) error {
	var firstErr error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.PublishAllocationCalculated(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
