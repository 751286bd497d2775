package booking

import (
	"context"
	"time"
)

// Source identifies where a booking came from.
type Source string

const (
	SourceAirbnb  Source = "airbnb"
	SourceBooking Source = "booking"
	SourceVrbo    Source = "vrbo"
	SourceExpedia Source = "expedia"
	SourceDirect  Source = "direct"
	SourceManual  Source = "manual"
)

// Booking is a guest stay at a property.
// Identity: ID; feed-imported bookings are also keyed by (PropertyID, ExternalID).
type Booking struct {
	ID               string
	PropertyID       string
	ExternalID       string
	GuestName        string
	StartAt          time.Time
	EndAt            time.Time
	Nights           int
	PayoutCents      int64
	PlatformFeeCents int64
	Source           Source
	Status           Status
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks booking invariants.
func (b Booking) Validate() error {
	if b.PropertyID == "" {
		return ErrEmptyPropertyID
	}
	if b.Nights <= 0 || !b.EndAt.After(b.StartAt) {
		return ErrInvalidPeriod
	}
	if b.PayoutCents < 0 || b.PlatformFeeCents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Reschedule moves the stay and recomputes nights and status. The status
// always comes from DeriveStatus, so a CANCELLED stay that is moved becomes
// live again.
func (b *Booking) Reschedule(startAt, endAt, now time.Time) {
	b.StartAt = startAt.UTC()
	b.EndAt = endAt.UTC()
	b.Nights = NightsBetween(b.StartAt, b.EndAt)
	b.Status = DeriveStatus(now, b.StartAt, b.EndAt)
}

// Repository persists bookings.
type Repository interface {
	Get(ctx context.Context, id string) (*Booking, error)
	FindByExternalID(ctx context.Context, propertyID, externalID string) (*Booking, error)
	Create(ctx context.Context, b *Booking) error
	Update(ctx context.Context, b *Booking) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	ListOverlapping(ctx context.Context, propertyID string, from, to time.Time, statuses ...Status) ([]Booking, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]Booking, error)
	ListCompletedWithoutAllocation(ctx context.Context, limit int) ([]Booking, error)
}
