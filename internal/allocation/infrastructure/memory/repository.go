package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	allocation "hostledger/internal/allocation/domain"
)

// AllocationRepository is an in-memory repository keyed by booking id.
type AllocationRepository struct {
	mu   sync.RWMutex
	data map[string]allocation.CostAllocation
}

// NewAllocationRepository constructs a repository.
func NewAllocationRepository() *AllocationRepository {
	return &AllocationRepository{data: make(map[string]allocation.CostAllocation)}
}

// Upsert creates or overwrites the allocation of a booking, keeping its id.
func (r *AllocationRepository) Upsert(ctx context.Context, a *allocation.CostAllocation) error {
	_ = ctx
	if a == nil {
		return allocation.ErrNilAllocation
	}
	if a.BookingID == "" {
		return allocation.ErrEmptyBookingID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.data[a.BookingID]; ok {
		a.ID = existing.ID
	}
	r.data[a.BookingID] = *a
	return nil
}

// FindByBooking returns the allocation of a booking, or nil.
func (r *AllocationRepository) FindByBooking(ctx context.Context, bookingID string) (*allocation.CostAllocation, error) {
	_ = ctx
	r.mu.RLock()
	a, ok := r.data[bookingID]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// ListByPropertyCheckoutMonth returns allocations whose booking checked out in the UTC month.
func (r *AllocationRepository) ListByPropertyCheckoutMonth(ctx context.Context, propertyID string, year int, month time.Month) ([]allocation.CostAllocation, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []allocation.CostAllocation
	for _, a := range r.data {
		checkout := a.CheckoutAt.UTC()
		if a.PropertyID != propertyID || checkout.Year() != year || checkout.Month() != month {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CheckoutAt.Equal(result[j].CheckoutAt) {
			return result[i].BookingID < result[j].BookingID
		}
		return result[i].CheckoutAt.Before(result[j].CheckoutAt)
	})
	return result, nil
}

// HasAllocation reports whether the booking has been allocated.
func (r *AllocationRepository) HasAllocation(bookingID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.data[bookingID]
	return ok
}
