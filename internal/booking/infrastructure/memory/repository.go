package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	booking "hostledger/internal/booking/domain"
)

// AllocationIndex reports whether a booking already has a cost allocation.
type AllocationIndex interface {
	HasAllocation(bookingID string) bool
}

// BookingRepository is an in-memory repository for bookings.
type BookingRepository struct {
	mu          sync.RWMutex
	data        map[string]booking.Booking
	allocations AllocationIndex
}

// Option configures the repository.
type Option func(*BookingRepository)

// WithAllocationIndex lets ListCompletedWithoutAllocation see stored allocations.
func WithAllocationIndex(index AllocationIndex) Option {
	return func(r *BookingRepository) {
		r.allocations = index
	}
}

// NewBookingRepository constructs a repository.
func NewBookingRepository(opts ...Option) *BookingRepository {
	repo := &BookingRepository{data: make(map[string]booking.Booking)}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Get loads a booking by id.
func (r *BookingRepository) Get(ctx context.Context, id string) (*booking.Booking, error) {
	_ = ctx
	r.mu.RLock()
	b, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// FindByExternalID loads a booking by its feed identity.
func (r *BookingRepository) FindByExternalID(ctx context.Context, propertyID, externalID string) (*booking.Booking, error) {
	_ = ctx
	if externalID == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.data {
		if b.PropertyID == propertyID && b.ExternalID == externalID {
			found := b
			return &found, nil
		}
	}
	return nil, nil
}

// Create inserts a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	_ = ctx
	if b == nil {
		return booking.ErrNilBooking
	}
	if err := b.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ExternalID != "" {
		for _, existing := range r.data {
			if existing.PropertyID == b.PropertyID && existing.ExternalID == b.ExternalID {
				return booking.ErrDuplicateExternalID
			}
		}
	}
	r.data[b.ID] = *b
	return nil
}

// Update overwrites an existing booking.
func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	_ = ctx
	if b == nil {
		return booking.ErrNilBooking
	}
	if err := b.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[b.ID]; !ok {
		return booking.ErrNotFound
	}
	r.data[b.ID] = *b
	return nil
}

// UpdateStatus sets the booking status.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status booking.Status) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[id]
	if !ok {
		return booking.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	r.data[id] = b
	return nil
}

// ListOverlapping returns bookings of a property whose stay touches [from, to].
func (r *BookingRepository) ListOverlapping(ctx context.Context, propertyID string, from, to time.Time, statuses ...booking.Status) ([]booking.Booking, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []booking.Booking
	for _, b := range r.data {
		if b.PropertyID != propertyID || !hasStatus(b.Status, statuses) {
			continue
		}
		if b.StartAt.After(to) || b.EndAt.Before(from) {
			continue
		}
		result = append(result, b)
	}
	sortByStart(result)
	return result, nil
}

// ListByStatus returns all bookings in one of the statuses.
func (r *BookingRepository) ListByStatus(ctx context.Context, statuses ...booking.Status) ([]booking.Booking, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []booking.Booking
	for _, b := range r.data {
		if hasStatus(b.Status, statuses) {
			result = append(result, b)
		}
	}
	sortByStart(result)
	return result, nil
}

// ListCompletedWithoutAllocation returns up to limit completed bookings lacking an allocation.
func (r *BookingRepository) ListCompletedWithoutAllocation(ctx context.Context, limit int) ([]booking.Booking, error) {
	_ = ctx
	r.mu.RLock()
	var result []booking.Booking
	for _, b := range r.data {
		if b.Status != booking.StatusCompleted {
			continue
		}
		if r.allocations != nil && r.allocations.HasAllocation(b.ID) {
			continue
		}
		result = append(result, b)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].EndAt.Equal(result[j].EndAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].EndAt.Before(result[j].EndAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// All returns every stored booking, for assertions.
func (r *BookingRepository) All() []booking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]booking.Booking, 0, len(r.data))
	for _, b := range r.data {
		result = append(result, b)
	}
	sortByStart(result)
	return result
}

func hasStatus(status booking.Status, statuses []booking.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func sortByStart(list []booking.Booking) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].StartAt.Equal(list[j].StartAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].StartAt.Before(list[j].StartAt)
	})
}
