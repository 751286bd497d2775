package memory

import (
	"context"
	"sync"
	"time"

	metering "hostledger/internal/metering/domain"
)

// ReadingRepository is an in-memory repository for meter readings.
type ReadingRepository struct {
	mu   sync.RWMutex
	data map[string][]metering.Reading
}

// NewReadingRepository constructs a repository.
func NewReadingRepository() *ReadingRepository {
	return &ReadingRepository{data: make(map[string][]metering.Reading)}
}

// Insert appends readings; order of insertion does not matter.
func (r *ReadingRepository) Insert(ctx context.Context, readings ...metering.Reading) error {
	_ = ctx
	for _, reading := range readings {
		if err := reading.Validate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reading := range readings {
		reading.RecordedAt = reading.RecordedAt.UTC()
		list := append(r.data[reading.PropertyID], reading)
		metering.SortReadings(list)
		r.data[reading.PropertyID] = list
	}
	return nil
}

// ListWindow returns readings in [from, to] plus the nearest neighbour on each side.
func (r *ReadingRepository) ListWindow(ctx context.Context, propertyID string, from, to time.Time) ([]metering.Reading, error) {
	_ = ctx
	if propertyID == "" {
		return nil, metering.ErrEmptyPropertyID
	}
	if to.Before(from) {
		return nil, metering.ErrInvalidWindow
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.data[propertyID]
	var result []metering.Reading
	var before *metering.Reading
	var after *metering.Reading
	for i := range all {
		reading := all[i]
		switch {
		case reading.RecordedAt.Before(from):
			before = &all[i]
		case reading.RecordedAt.After(to):
			if after == nil {
				after = &all[i]
			}
		default:
			result = append(result, reading)
		}
	}
	if before != nil {
		result = append([]metering.Reading{*before}, result...)
	}
	if after != nil {
		result = append(result, *after)
	}
	return result, nil
}
