package costs

import (
	"context"
	"time"
)

// CleaningStatus is the lifecycle of a cleaning job.
type CleaningStatus string

const (
	CleaningScheduled CleaningStatus = "SCHEDULED"
	CleaningDone      CleaningStatus = "DONE"
	CleaningCancelled CleaningStatus = "CANCELLED"
)

// CleaningEvent is the turnover cleaning attached to exactly one booking.
type CleaningEvent struct {
	ID          string
	PropertyID  string
	BookingID   string
	ScheduledAt time.Time
	CostCents   int64
	Status      CleaningStatus
	CreatedAt   time.Time
}

// Validate checks cleaning event invariants.
func (c CleaningEvent) Validate() error {
	if c.PropertyID == "" {
		return ErrEmptyPropertyID
	}
	if c.BookingID == "" {
		return ErrEmptyBookingID
	}
	if c.CostCents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// CleaningRepository provides cleaning event persistence.
// FindByBooking returns nil, nil when the booking has no cleaning.
type CleaningRepository interface {
	FindByBooking(ctx context.Context, bookingID string) (*CleaningEvent, error)
	Save(ctx context.Context, event *CleaningEvent) error
}
