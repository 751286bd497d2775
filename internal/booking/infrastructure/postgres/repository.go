package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	booking "hostledger/internal/booking/domain"
)

const (
	defaultBookingsTable    = "bookings"
	defaultAllocationsTable = "cost_allocations"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BookingRepository is a Postgres implementation for bookings.
type BookingRepository struct {
	db               DBTX
	table            string
	allocationsTable string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*BookingRepository)

// WithTable overrides the bookings table.
func WithTable(table string) RepositoryOption {
	return func(repo *BookingRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithAllocationsTable overrides the table joined to find unallocated bookings.
func WithAllocationsTable(table string) RepositoryOption {
	return func(repo *BookingRepository) {
		if table != "" {
			repo.allocationsTable = table
		}
	}
}

// NewBookingRepository constructs a repository with defaults.
func NewBookingRepository(db DBTX, opts ...RepositoryOption) *BookingRepository {
	repo := &BookingRepository{db: db, table: defaultBookingsTable, allocationsTable: defaultAllocationsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const bookingColumns = `id, property_id, external_id, guest_name, start_at, end_at, nights,
	payout_cents, platform_fee_cents, source, status, created_at, updated_at`

// Get loads a booking by id.
func (r *BookingRepository) Get(ctx context.Context, id string) (*booking.Booking, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("booking repo: nil db")
	}
	if id == "" {
		return nil, errors.New("booking repo: empty id")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, bookingColumns, r.table)
	return scanBooking(r.db.QueryRowContext(ctx, query, id))
}

// FindByExternalID loads a booking by (property, external id).
func (r *BookingRepository) FindByExternalID(ctx context.Context, propertyID, externalID string) (*booking.Booking, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("booking repo: nil db")
	}
	if propertyID == "" {
		return nil, booking.ErrEmptyPropertyID
	}
	if externalID == "" {
		return nil, nil
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE property_id = $1 AND external_id = $2
LIMIT 1`, bookingColumns, r.table)
	return scanBooking(r.db.QueryRowContext(ctx, query, propertyID, externalID))
}

// Create inserts a booking.
func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	if r == nil || r.db == nil {
		return errors.New("booking repo: nil db")
	}
	if b == nil {
		return booking.ErrNilBooking
	}
	if err := b.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	query := fmt.Sprintf(`
INSERT INTO %s (
	id, property_id, external_id, guest_name, start_at, end_at, nights,
	payout_cents, platform_fee_cents, source, status, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
)
ON CONFLICT (property_id, external_id) DO NOTHING`, r.table)
	res, err := r.db.ExecContext(ctx, query,
		b.ID, b.PropertyID, nullString(b.ExternalID), nullString(b.GuestName),
		b.StartAt.UTC(), b.EndAt.UTC(), b.Nights,
		b.PayoutCents, b.PlatformFeeCents, string(b.Source), string(b.Status),
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return booking.ErrDuplicateExternalID
	}
	return nil
}

// Update overwrites the mutable booking fields.
func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	if r == nil || r.db == nil {
		return errors.New("booking repo: nil db")
	}
	if b == nil {
		return booking.ErrNilBooking
	}
	if err := b.Validate(); err != nil {
		return err
	}
	b.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`
UPDATE %s
SET guest_name = $1, start_at = $2, end_at = $3, nights = $4,
	payout_cents = $5, platform_fee_cents = $6, status = $7, updated_at = $8
WHERE id = $9`, r.table)
	res, err := r.db.ExecContext(ctx, query,
		nullString(b.GuestName), b.StartAt.UTC(), b.EndAt.UTC(), b.Nights,
		b.PayoutCents, b.PlatformFeeCents, string(b.Status), b.UpdatedAt, b.ID,
	)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return booking.ErrNotFound
	}
	return nil
}

// UpdateStatus sets the status of one booking.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status booking.Status) error {
	if r == nil || r.db == nil {
		return errors.New("booking repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET status = $1, updated_at = NOW()
WHERE id = $2`, r.table)
	res, err := r.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return booking.ErrNotFound
	}
	return nil
}

// ListOverlapping returns bookings whose stay touches [from, to], filtered by status.
func (r *BookingRepository) ListOverlapping(ctx context.Context, propertyID string, from, to time.Time, statuses ...booking.Status) ([]booking.Booking, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("booking repo: nil db")
	}
	if propertyID == "" {
		return nil, booking.ErrEmptyPropertyID
	}
	args := []any{propertyID, to.UTC(), from.UTC()}
	filter, args := statusFilter(statuses, args)
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE property_id = $1 AND start_at <= $2 AND end_at >= $3%s
ORDER BY start_at ASC, id ASC`, bookingColumns, r.table, filter)
	return r.queryBookings(ctx, query, args...)
}

// ListByStatus returns bookings in any of the statuses.
func (r *BookingRepository) ListByStatus(ctx context.Context, statuses ...booking.Status) ([]booking.Booking, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("booking repo: nil db")
	}
	filter, args := statusFilter(statuses, nil)
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE TRUE%s
ORDER BY start_at ASC, id ASC`, bookingColumns, r.table, filter)
	return r.queryBookings(ctx, query, args...)
}

// ListCompletedWithoutAllocation returns completed bookings that have no cost allocation row.
func (r *BookingRepository) ListCompletedWithoutAllocation(ctx context.Context, limit int) ([]booking.Booking, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("booking repo: nil db")
	}
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s b
WHERE b.status = $1
	AND NOT EXISTS (SELECT 1 FROM %s a WHERE a.booking_id = b.id)
ORDER BY b.end_at ASC, b.id ASC
LIMIT $2`, prefixed("b", bookingColumns), r.table, r.allocationsTable)
	return r.queryBookings(ctx, query, string(booking.StatusCompleted), limit)
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]booking.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		if b != nil {
			result = append(result, *b)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*booking.Booking, error) {
	var b booking.Booking
	var externalID sql.NullString
	var guestName sql.NullString
	var source string
	var status string
	err := row.Scan(
		&b.ID,
		&b.PropertyID,
		&externalID,
		&guestName,
		&b.StartAt,
		&b.EndAt,
		&b.Nights,
		&b.PayoutCents,
		&b.PlatformFeeCents,
		&source,
		&status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if externalID.Valid {
		b.ExternalID = externalID.String
	}
	if guestName.Valid {
		b.GuestName = guestName.String
	}
	parsed, ok := booking.ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("booking repo: unknown status %q", status)
	}
	b.Status = parsed
	b.Source = booking.Source(source)
	b.StartAt = b.StartAt.UTC()
	b.EndAt = b.EndAt.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

func statusFilter(statuses []booking.Status, args []any) (string, []any) {
	if len(statuses) == 0 {
		return "", args
	}
	placeholders := make([]string, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	return " AND status IN (" + strings.Join(placeholders, ",") + ")", args
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
