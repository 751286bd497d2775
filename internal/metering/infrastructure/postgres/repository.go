package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	metering "hostledger/internal/metering/domain"
)

const defaultReadingsTable = "meter_readings"

// ReadingRepository is a Postgres implementation for meter readings.
type ReadingRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*ReadingRepository)

// WithTable overrides the readings table.
func WithTable(table string) RepositoryOption {
	return func(repo *ReadingRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewReadingRepository constructs a repository.
func NewReadingRepository(db *sql.DB, opts ...RepositoryOption) *ReadingRepository {
	repo := &ReadingRepository{db: db, table: defaultReadingsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ListWindow returns readings in [from, to] plus the nearest reading on each side.
func (r *ReadingRepository) ListWindow(ctx context.Context, propertyID string, from, to time.Time) ([]metering.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	if propertyID == "" {
		return nil, metering.ErrEmptyPropertyID
	}
	if to.Before(from) {
		return nil, metering.ErrInvalidWindow
	}

	query := fmt.Sprintf(`
(SELECT id, property_id, recorded_at, value_wh FROM %[1]s
	WHERE property_id = $1 AND recorded_at < $2
	ORDER BY recorded_at DESC LIMIT 1)
UNION ALL
(SELECT id, property_id, recorded_at, value_wh FROM %[1]s
	WHERE property_id = $1 AND recorded_at >= $2 AND recorded_at <= $3)
UNION ALL
(SELECT id, property_id, recorded_at, value_wh FROM %[1]s
	WHERE property_id = $1 AND recorded_at > $3
	ORDER BY recorded_at ASC LIMIT 1)
ORDER BY recorded_at ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, propertyID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []metering.Reading
	for rows.Next() {
		var reading metering.Reading
		if err := rows.Scan(&reading.ID, &reading.PropertyID, &reading.RecordedAt, &reading.ValueWh); err != nil {
			return nil, err
		}
		reading.RecordedAt = reading.RecordedAt.UTC()
		result = append(result, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Insert stores readings in one transaction.
func (r *ReadingRepository) Insert(ctx context.Context, readings ...metering.Reading) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	if len(readings) == 0 {
		return nil
	}
	for _, reading := range readings {
		if err := reading.Validate(); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, property_id, recorded_at, value_wh)
VALUES ($1, $2, $3, $4)`, r.table)
	for _, reading := range readings {
		id := reading.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, query, id, reading.PropertyID, reading.RecordedAt.UTC(), reading.ValueWh); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
