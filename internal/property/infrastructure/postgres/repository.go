package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	property "hostledger/internal/property/domain"
)

const defaultPropertiesTable = "properties"

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PropertyRepository is a Postgres implementation for properties.
type PropertyRepository struct {
	db    DBTX
	table string
}

// NewPropertyRepository constructs a repository.
func NewPropertyRepository(db DBTX, opts ...PropertyOption) *PropertyRepository {
	repo := &PropertyRepository{db: db, table: defaultPropertiesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// PropertyOption configures the repository.
type PropertyOption func(*PropertyRepository)

// WithPropertyTable overrides the default table name.
func WithPropertyTable(table string) PropertyOption {
	return func(repo *PropertyRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a property by id.
func (r *PropertyRepository) Get(ctx context.Context, id string) (*property.Property, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("property repo: nil db")
	}
	if id == "" {
		return nil, errors.New("property repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, owner_id, name, timezone, price_per_100wh_cents, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var p property.Property
	var ownerID, timezone sql.NullString
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&ownerID,
		&p.Name,
		&timezone,
		&p.PricePer100WhCents,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.OwnerID = ownerID.String
	p.Timezone = timezone.String
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// Save upserts a property.
func (r *PropertyRepository) Save(ctx context.Context, p *property.Property) error {
	if r == nil || r.db == nil {
		return errors.New("property repo: nil db")
	}
	if p == nil {
		return errors.New("property repo: nil property")
	}
	if err := p.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	owner_id,
	name,
	timezone,
	price_per_100wh_cents
) VALUES (
	$1, $2, $3, $4, $5
)
ON CONFLICT (id)
DO UPDATE SET
	owner_id = EXCLUDED.owner_id,
	name = EXCLUDED.name,
	timezone = EXCLUDED.timezone,
	price_per_100wh_cents = EXCLUDED.price_per_100wh_cents,
	updated_at = NOW()`, r.table)

	if _, err := r.db.ExecContext(ctx, query, p.ID, p.OwnerID, p.Name, p.Timezone, p.PricePer100WhCents); err != nil {
		return err
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return nil
}
