package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	allocation "hostledger/internal/allocation/domain"
)

const defaultAllocationsTable = "cost_allocations"

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AllocationRepository is a Postgres implementation for cost allocations.
type AllocationRepository struct {
	db    DBTX
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*AllocationRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *AllocationRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewAllocationRepository constructs a repository with defaults.
func NewAllocationRepository(db DBTX, opts ...RepositoryOption) *AllocationRepository {
	repo := &AllocationRepository{db: db, table: defaultAllocationsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const allocationColumns = `id, property_id, booking_id, checkout_at, electricity_wh, electricity_cost_cents,
	cleaning_cost_cents, fixed_cost_cents, total_cost_cents, profit_cents, margin_percent, allocated_at`

// Upsert creates or overwrites the allocation of a booking.
func (r *AllocationRepository) Upsert(ctx context.Context, a *allocation.CostAllocation) error {
	if r == nil || r.db == nil {
		return errors.New("allocation repo: nil db")
	}
	if a == nil {
		return allocation.ErrNilAllocation
	}
	if a.BookingID == "" {
		return allocation.ErrEmptyBookingID
	}

	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (booking_id)
DO UPDATE SET
	property_id = EXCLUDED.property_id,
	checkout_at = EXCLUDED.checkout_at,
	electricity_wh = EXCLUDED.electricity_wh,
	electricity_cost_cents = EXCLUDED.electricity_cost_cents,
	cleaning_cost_cents = EXCLUDED.cleaning_cost_cents,
	fixed_cost_cents = EXCLUDED.fixed_cost_cents,
	total_cost_cents = EXCLUDED.total_cost_cents,
	profit_cents = EXCLUDED.profit_cents,
	margin_percent = EXCLUDED.margin_percent,
	allocated_at = EXCLUDED.allocated_at
RETURNING id`, r.table, allocationColumns)

	return r.db.QueryRowContext(
		ctx,
		query,
		a.ID,
		a.PropertyID,
		a.BookingID,
		a.CheckoutAt.UTC(),
		a.ElectricityWh,
		a.ElectricityCostCents,
		a.CleaningCostCents,
		a.FixedCostCents,
		a.TotalCostCents,
		a.ProfitCents,
		a.MarginPercent,
		a.AllocatedAt.UTC(),
	).Scan(&a.ID)
}

// FindByBooking loads the allocation of a booking.
func (r *AllocationRepository) FindByBooking(ctx context.Context, bookingID string) (*allocation.CostAllocation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("allocation repo: nil db")
	}
	if bookingID == "" {
		return nil, allocation.ErrEmptyBookingID
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE booking_id = $1
LIMIT 1`, allocationColumns, r.table)

	a, err := scanAllocation(r.db.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// ListByPropertyCheckoutMonth returns allocations whose booking checked out in the UTC month.
func (r *AllocationRepository) ListByPropertyCheckoutMonth(ctx context.Context, propertyID string, year int, month time.Month) ([]allocation.CostAllocation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("allocation repo: nil db")
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE property_id = $1 AND checkout_at >= $2 AND checkout_at < $3
ORDER BY checkout_at ASC, booking_id ASC`, allocationColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query, propertyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []allocation.CostAllocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAllocation(row scanner) (*allocation.CostAllocation, error) {
	var a allocation.CostAllocation
	if err := row.Scan(
		&a.ID,
		&a.PropertyID,
		&a.BookingID,
		&a.CheckoutAt,
		&a.ElectricityWh,
		&a.ElectricityCostCents,
		&a.CleaningCostCents,
		&a.FixedCostCents,
		&a.TotalCostCents,
		&a.ProfitCents,
		&a.MarginPercent,
		&a.AllocatedAt,
	); err != nil {
		return nil, err
	}
	a.CheckoutAt = a.CheckoutAt.UTC()
	a.AllocatedAt = a.AllocatedAt.UTC()
	return &a, nil
}
