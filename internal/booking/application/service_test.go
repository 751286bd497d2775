package application

import (
	"context"
	"errors"
	"testing"
	"time"

	booking "hostledger/internal/booking/domain"
	"hostledger/internal/booking/infrastructure/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func TestCreateManual(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewBookingRepository()
	start := time.Date(2026, time.May, 1, 15, 0, 0, 0, time.UTC)
	svc, err := NewService(repo, fixedClock{now: start.Add(-48 * time.Hour)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	b, err := svc.CreateManual(ctx, ManualBooking{
		PropertyID:  "prop-1",
		GuestName:   "  Ada Lovelace ",
		StartAt:     start,
		EndAt:       start.Add(70 * time.Hour),
		PayoutCents: 42000,
	})
	if err != nil {
		t.Fatalf("create manual: %v", err)
	}
	if b.Nights != 3 {
		t.Fatalf("expected 3 nights, got %d", b.Nights)
	}
	if b.Status != booking.StatusUpcoming {
		t.Fatalf("expected upcoming, got %s", b.Status)
	}
	if b.GuestName != "Ada Lovelace" || b.Source != booking.SourceManual || b.ExternalID != "" {
		t.Fatalf("unexpected booking fields: %+v", b)
	}

	stored, err := svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.PayoutCents != 42000 {
		t.Fatalf("payout mismatch: %d", stored.PayoutCents)
	}
}

func TestCreateManual_InvalidPeriod(t *testing.T) {
	svc, err := NewService(memory.NewBookingRepository(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	start := time.Date(2026, time.May, 1, 15, 0, 0, 0, time.UTC)
	_, err = svc.CreateManual(context.Background(), ManualBooking{PropertyID: "prop-1", StartAt: start, EndAt: start})
	if !errors.Is(err, booking.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, err := NewService(memory.NewBookingRepository(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
