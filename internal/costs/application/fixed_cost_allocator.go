package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	booking "hostledger/internal/booking/domain"
	costs "hostledger/internal/costs/domain"
)

// BookingReader lists bookings overlapping a window.
type BookingReader interface {
	ListOverlapping(ctx context.Context, propertyID string, from, to time.Time, statuses ...booking.Status) ([]booking.Booking, error)
}

// FixedCostAllocator computes per-night fixed costs from stored expenses and bookings.
type FixedCostAllocator struct {
	expenses costs.ExpenseRepository
	bookings BookingReader
}

// NewFixedCostAllocator constructs the allocator.
func NewFixedCostAllocator(expenses costs.ExpenseRepository, bookings BookingReader) (*FixedCostAllocator, error) {
	if expenses == nil {
		return nil, errors.New("fixed cost allocator: nil expense repository")
	}
	if bookings == nil {
		return nil, errors.New("fixed cost allocator: nil booking reader")
	}
	return &FixedCostAllocator{expenses: expenses, bookings: bookings}, nil
}

// AllocateMonthlyFixedCosts re-reads expenses and occupied bookings of the month on every call.
func (a *FixedCostAllocator) AllocateMonthlyFixedCosts(ctx context.Context, year int, month time.Month, propertyID string) (costs.MonthlyFixedCosts, error) {
	if propertyID == "" {
		return costs.MonthlyFixedCosts{}, costs.ErrEmptyPropertyID
	}
	from, to, err := costs.MonthBounds(year, month)
	if err != nil {
		return costs.MonthlyFixedCosts{}, err
	}

	expenses, err := a.expenses.ListActive(ctx, propertyID)
	if err != nil {
		return costs.MonthlyFixedCosts{}, fmt.Errorf("fixed cost allocator: list expenses: %w", err)
	}
	bookings, err := a.bookings.ListOverlapping(ctx, propertyID, from, to, booking.StatusActive, booking.StatusCompleted)
	if err != nil {
		return costs.MonthlyFixedCosts{}, fmt.Errorf("fixed cost allocator: list bookings: %w", err)
	}
	return costs.AllocateMonthlyFixedCosts(year, month, expenses, bookings)
}
