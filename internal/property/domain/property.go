package property

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a property does not exist.
	ErrNotFound = errors.New("property: not found")
)

// Property is a rental unit owned by a host.
type Property struct {
	ID       string
	OwnerID  string
	Name     string
	Timezone string
	// PricePer100WhCents is the electricity price; zero means use the service default.
	PricePer100WhCents int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate checks property invariants.
func (p Property) Validate() error {
	if p.ID == "" {
		return errors.New("property: empty id")
	}
	if p.Name == "" {
		return errors.New("property: empty name")
	}
	if p.PricePer100WhCents < 0 {
		return errors.New("property: negative price")
	}
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return errors.New("property: unknown timezone")
		}
	}
	return nil
}

// Location resolves the property timezone, falling back to UTC.
func (p Property) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Repository manages property persistence. Get returns nil, nil when absent.
type Repository interface {
	Get(ctx context.Context, id string) (*Property, error)
	Save(ctx context.Context, property *Property) error
}
