package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	costs "hostledger/internal/costs/domain"
)

const (
	defaultExpensesTable = "expenses"
	defaultCleaningTable = "cleaning_events"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ExpenseRepository is a Postgres implementation for expenses.
type ExpenseRepository struct {
	db    DBTX
	table string
}

// ExpenseOption configures the repository.
type ExpenseOption func(*ExpenseRepository)

// WithExpensesTable overrides the default table name.
func WithExpensesTable(table string) ExpenseOption {
	return func(repo *ExpenseRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewExpenseRepository constructs a repository.
func NewExpenseRepository(db DBTX, opts ...ExpenseOption) *ExpenseRepository {
	repo := &ExpenseRepository{db: db, table: defaultExpensesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ListActive returns active expenses of a property.
func (r *ExpenseRepository) ListActive(ctx context.Context, propertyID string) ([]costs.Expense, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("expense repo: nil db")
	}
	if propertyID == "" {
		return nil, costs.ErrEmptyPropertyID
	}

	query := fmt.Sprintf(`
SELECT id, property_id, name, amount_cents, frequency, category, active, created_at, updated_at
FROM %s
WHERE property_id = $1 AND active = TRUE
ORDER BY id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []costs.Expense
	for rows.Next() {
		var e costs.Expense
		var frequency string
		var category sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.PropertyID,
			&e.Name,
			&e.AmountCents,
			&frequency,
			&category,
			&e.Active,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		e.Frequency = costs.Frequency(frequency)
		e.Category = category.String
		e.CreatedAt = e.CreatedAt.UTC()
		e.UpdatedAt = e.UpdatedAt.UTC()
		result = append(result, e)
	}
	return result, rows.Err()
}

// Save upserts an expense.
func (r *ExpenseRepository) Save(ctx context.Context, expense *costs.Expense) error {
	if r == nil || r.db == nil {
		return errors.New("expense repo: nil db")
	}
	if expense == nil {
		return errors.New("expense repo: nil expense")
	}
	if err := expense.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	property_id,
	name,
	amount_cents,
	frequency,
	category,
	active
) VALUES (
	$1, $2, $3, $4, $5, $6, $7
)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	amount_cents = EXCLUDED.amount_cents,
	frequency = EXCLUDED.frequency,
	category = EXCLUDED.category,
	active = EXCLUDED.active,
	updated_at = NOW()`, r.table)

	if _, err := r.db.ExecContext(
		ctx,
		query,
		expense.ID,
		expense.PropertyID,
		expense.Name,
		expense.AmountCents,
		string(expense.Frequency),
		expense.Category,
		expense.Active,
	); err != nil {
		return err
	}
	now := time.Now().UTC()
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = now
	return nil
}

// CleaningRepository is a Postgres implementation for cleaning events.
type CleaningRepository struct {
	db    DBTX
	table string
}

// CleaningOption configures the repository.
type CleaningOption func(*CleaningRepository)

// WithCleaningTable overrides the default table name.
func WithCleaningTable(table string) CleaningOption {
	return func(repo *CleaningRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewCleaningRepository constructs a repository.
func NewCleaningRepository(db DBTX, opts ...CleaningOption) *CleaningRepository {
	repo := &CleaningRepository{db: db, table: defaultCleaningTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// FindByBooking loads the cleaning event of a booking.
func (r *CleaningRepository) FindByBooking(ctx context.Context, bookingID string) (*costs.CleaningEvent, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("cleaning repo: nil db")
	}
	if bookingID == "" {
		return nil, costs.ErrEmptyBookingID
	}

	query := fmt.Sprintf(`
SELECT id, property_id, booking_id, scheduled_at, cost_cents, status, created_at
FROM %s
WHERE booking_id = $1
LIMIT 1`, r.table)

	var event costs.CleaningEvent
	var status string
	if err := r.db.QueryRowContext(ctx, query, bookingID).Scan(
		&event.ID,
		&event.PropertyID,
		&event.BookingID,
		&event.ScheduledAt,
		&event.CostCents,
		&status,
		&event.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	event.Status = costs.CleaningStatus(status)
	event.ScheduledAt = event.ScheduledAt.UTC()
	event.CreatedAt = event.CreatedAt.UTC()
	return &event, nil
}

// Save upserts the cleaning event keyed by booking.
func (r *CleaningRepository) Save(ctx context.Context, event *costs.CleaningEvent) error {
	if r == nil || r.db == nil {
		return errors.New("cleaning repo: nil db")
	}
	if event == nil {
		return errors.New("cleaning repo: nil event")
	}
	if err := event.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	property_id,
	booking_id,
	scheduled_at,
	cost_cents,
	status
) VALUES (
	$1, $2, $3, $4, $5, $6
)
ON CONFLICT (booking_id)
DO UPDATE SET
	scheduled_at = EXCLUDED.scheduled_at,
	cost_cents = EXCLUDED.cost_cents,
	status = EXCLUDED.status`, r.table)

	if _, err := r.db.ExecContext(
		ctx,
		query,
		event.ID,
		event.PropertyID,
		event.BookingID,
		event.ScheduledAt.UTC(),
		event.CostCents,
		string(event.Status),
	); err != nil {
		return err
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return nil
}
