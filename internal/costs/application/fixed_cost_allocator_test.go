package application

import (
	"context"
	"testing"
	"time"

	booking "hostledger/internal/booking/domain"
	bookingmemory "hostledger/internal/booking/infrastructure/memory"
	costs "hostledger/internal/costs/domain"
	"hostledger/internal/costs/infrastructure/memory"
)

func TestFixedCostAllocator_ReadsStore(t *testing.T) {
	ctx := context.Background()
	expenses := memory.NewExpenseRepository()
	bookings := bookingmemory.NewBookingRepository()

	for _, e := range []costs.Expense{
		{ID: "exp-1", PropertyID: "prop-1", Name: "Internet", AmountCents: 6000, Frequency: costs.FrequencyMonthly, Active: true},
		{ID: "exp-2", PropertyID: "prop-1", Name: "Insurance", AmountCents: 36000, Frequency: costs.FrequencyYearly, Active: true},
		{ID: "exp-3", PropertyID: "prop-2", Name: "Other property", AmountCents: 50000, Frequency: costs.FrequencyMonthly, Active: true},
	} {
		e := e
		if err := expenses.Save(ctx, &e); err != nil {
			t.Fatalf("save expense: %v", err)
		}
	}

	start := time.Date(2026, time.May, 4, 14, 0, 0, 0, time.UTC)
	b := &booking.Booking{ID: "bk-1", PropertyID: "prop-1", StartAt: start, Status: booking.StatusCompleted}
	b.EndAt = start.Add(3*24*time.Hour - 3*time.Hour)
	b.Nights = booking.NightsBetween(b.StartAt, b.EndAt)
	if err := bookings.Create(ctx, b); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	allocator, err := NewFixedCostAllocator(expenses, bookings)
	if err != nil {
		t.Fatalf("new allocator: %v", err)
	}
	got, err := allocator.AllocateMonthlyFixedCosts(ctx, 2026, time.May, "prop-1")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got.TotalCents != 9000 || got.OccupiedNights != 3 || got.PerNightCents != 3000 {
		t.Fatalf("unexpected result: %+v", got)
	}

	// A new expense is visible on the next call.
	extra := costs.Expense{ID: "exp-4", PropertyID: "prop-1", AmountCents: 3000, Frequency: costs.FrequencyMonthly, Active: true}
	if err := expenses.Save(ctx, &extra); err != nil {
		t.Fatalf("save expense: %v", err)
	}
	got, err = allocator.AllocateMonthlyFixedCosts(ctx, 2026, time.May, "prop-1")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got.PerNightCents != 4000 {
		t.Fatalf("expected 4000 per night after new expense, got %d", got.PerNightCents)
	}
}

func TestFixedCostAllocator_EmptyMonth(t *testing.T) {
	expenses := memory.NewExpenseRepository()
	allocator, err := NewFixedCostAllocator(expenses, bookingmemory.NewBookingRepository())
	if err != nil {
		t.Fatalf("new allocator: %v", err)
	}
	got, err := allocator.AllocateMonthlyFixedCosts(context.Background(), 2026, time.June, "prop-1")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got.PerNightCents != 0 || got.OccupiedNights != 0 {
		t.Fatalf("expected empty month, got %+v", got)
	}
}
