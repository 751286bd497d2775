package auth

import (
	"context"
	"errors"

	property "hostledger/internal/property/domain"
)

var (
	// ErrOwnerMismatch indicates the property belongs to another host.
	ErrOwnerMismatch = errors.New("auth: owner mismatch")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("auth: resource not found")
)

// PropertyOwnerChecker validates property ownership.
type PropertyOwnerChecker interface {
	EnsurePropertyOwner(ctx context.Context, ownerID, propertyID string) error
}

// PropertyChecker checks property ownership against the property store.
type PropertyChecker struct {
	repo property.Repository
}

// NewPropertyChecker constructs a PropertyChecker.
func NewPropertyChecker(repo property.Repository) *PropertyChecker {
	if repo == nil {
		return nil
	}
	return &PropertyChecker{repo: repo}
}

// EnsurePropertyOwner verifies the property belongs to the owner. An empty
// owner (admin token) passes.
func (c *PropertyChecker) EnsurePropertyOwner(ctx context.Context, ownerID, propertyID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if ownerID == "" || propertyID == "" {
		return nil
	}
	p, err := c.repo.Get(ctx, propertyID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	if p.OwnerID != "" && p.OwnerID != ownerID {
		return ErrOwnerMismatch
	}
	return nil
}
