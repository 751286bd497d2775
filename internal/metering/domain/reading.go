package metering

import (
	"context"
	"sort"
	"time"
)

// Reading is a cumulative counter sample, e.g. a smart-meter Wh total.
// Readings are never mutated once recorded.
type Reading struct {
	ID         string
	PropertyID string
	RecordedAt time.Time
	ValueWh    int64
}

// Validate checks reading invariants.
func (r Reading) Validate() error {
	if r.PropertyID == "" {
		return ErrEmptyPropertyID
	}
	if r.RecordedAt.IsZero() {
		return ErrInvalidTimestamp
	}
	if r.ValueWh < 0 {
		return ErrNegativeReading
	}
	return nil
}

// SortReadings orders readings by RecordedAt ascending, in place.
func SortReadings(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].RecordedAt.Before(readings[j].RecordedAt)
	})
}

// ReadingRepository persists meter readings.
type ReadingRepository interface {
	// ListWindow returns readings in [from, to] plus the closest reading before
	// from and the closest after to, ordered by RecordedAt.
	ListWindow(ctx context.Context, propertyID string, from, to time.Time) ([]Reading, error)
	Insert(ctx context.Context, readings ...Reading) error
}
