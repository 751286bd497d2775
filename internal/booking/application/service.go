package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	booking "hostledger/internal/booking/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ManualBooking is a host-entered stay without a feed identity.
type ManualBooking struct {
	PropertyID       string
	GuestName        string
	StartAt          time.Time
	EndAt            time.Time
	PayoutCents      int64
	PlatformFeeCents int64
}

// Service handles booking entry use cases.
type Service struct {
	repo  booking.Repository
	clock Clock
}

// NewService constructs the service.
func NewService(repo booking.Repository, clock Clock) (*Service, error) {
	if repo == nil {
		return nil, errors.New("booking service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{repo: repo, clock: clock}, nil
}

// CreateManual stores a manually entered booking.
func (s *Service) CreateManual(ctx context.Context, req ManualBooking) (*booking.Booking, error) {
	if req.PropertyID == "" {
		return nil, booking.ErrEmptyPropertyID
	}
	if !req.EndAt.After(req.StartAt) {
		return nil, booking.ErrInvalidPeriod
	}
	now := s.clock.Now()
	b := &booking.Booking{
		ID:               uuid.NewString(),
		PropertyID:       req.PropertyID,
		GuestName:        strings.TrimSpace(req.GuestName),
		PayoutCents:      req.PayoutCents,
		PlatformFeeCents: req.PlatformFeeCents,
		Source:           booking.SourceManual,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	b.Reschedule(req.StartAt, req.EndAt, now)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Get returns a booking or booking.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*booking.Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, booking.ErrNotFound
	}
	return b, nil
}
