package memory

import (
	"context"
	"sync"
	"time"

	property "hostledger/internal/property/domain"
)

// PropertyRepository is an in-memory repository for properties.
type PropertyRepository struct {
	mu   sync.RWMutex
	data map[string]property.Property
}

// NewPropertyRepository constructs a repository.
func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{data: make(map[string]property.Property)}
}

// Get loads a property by id.
func (r *PropertyRepository) Get(ctx context.Context, id string) (*property.Property, error) {
	_ = ctx
	r.mu.RLock()
	p, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Save upserts a property.
func (r *PropertyRepository) Save(ctx context.Context, p *property.Property) error {
	_ = ctx
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.data[p.ID] = *p
	return nil
}
