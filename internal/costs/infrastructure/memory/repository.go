package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	costs "hostledger/internal/costs/domain"
)

// ExpenseRepository is an in-memory repository for expenses.
type ExpenseRepository struct {
	mu   sync.RWMutex
	data map[string]costs.Expense
}

// NewExpenseRepository constructs a repository.
func NewExpenseRepository() *ExpenseRepository {
	return &ExpenseRepository{data: make(map[string]costs.Expense)}
}

// ListActive returns active expenses of a property ordered by id.
func (r *ExpenseRepository) ListActive(ctx context.Context, propertyID string) ([]costs.Expense, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []costs.Expense
	for _, e := range r.data {
		if e.PropertyID == propertyID && e.Active {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Save upserts an expense.
func (r *ExpenseRepository) Save(ctx context.Context, expense *costs.Expense) error {
	_ = ctx
	if err := expense.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = now
	r.data[expense.ID] = *expense
	return nil
}

// CleaningRepository is an in-memory repository for cleaning events.
type CleaningRepository struct {
	mu   sync.RWMutex
	data map[string]costs.CleaningEvent
}

// NewCleaningRepository constructs a repository.
func NewCleaningRepository() *CleaningRepository {
	return &CleaningRepository{data: make(map[string]costs.CleaningEvent)}
}

// FindByBooking returns the cleaning of a booking, or nil.
func (r *CleaningRepository) FindByBooking(ctx context.Context, bookingID string) (*costs.CleaningEvent, error) {
	_ = ctx
	r.mu.RLock()
	event, ok := r.data[bookingID]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &event, nil
}

// Save upserts the cleaning keyed by booking.
func (r *CleaningRepository) Save(ctx context.Context, event *costs.CleaningEvent) error {
	_ = ctx
	if err := event.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	r.data[event.BookingID] = *event
	return nil
}
