package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	booking "hostledger/internal/booking/domain"
	"hostledger/internal/observability/metrics"
)

const defaultBatchSize = 100

// BatchResult summarizes one allocation batch run.
type BatchResult struct {
	ProcessedCount int       `json:"processedCount"`
	Errors         []string  `json:"errors"`
	Timestamp      time.Time `json:"timestamp"`
}

// BookingStore is the booking access the batch needs.
type BookingStore interface {
	ListByStatus(ctx context.Context, statuses ...booking.Status) ([]booking.Booking, error)
	UpdateStatus(ctx context.Context, id string, status booking.Status) error
	ListCompletedWithoutAllocation(ctx context.Context, limit int) ([]booking.Booking, error)
}

// BatchRunner advances booking statuses and allocates completed bookings.
type BatchRunner struct {
	bookings   BookingStore
	calculator *ProfitCalculator
	clock      Clock
	batchSize  int
	logger     *log.Logger
}

// BatchOption configures the runner.
type BatchOption func(*BatchRunner)

// WithBatchSize caps how many bookings are allocated per run.
func WithBatchSize(size int) BatchOption {
	return func(r *BatchRunner) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

// WithBatchClock overrides the clock used for status transitions.
func WithBatchClock(clock Clock) BatchOption {
	return func(r *BatchRunner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewBatchRunner constructs a runner.
func NewBatchRunner(bookings BookingStore, calculator *ProfitCalculator, logger *log.Logger, opts ...BatchOption) (*BatchRunner, error) {
	if bookings == nil {
		return nil, errors.New("allocation batch: nil booking store")
	}
	if calculator == nil {
		return nil, errors.New("allocation batch: nil profit calculator")
	}
	if logger == nil {
		logger = log.Default()
	}
	r := &BatchRunner{
		bookings:   bookings,
		calculator: calculator,
		clock:      SystemClock{},
		batchSize:  defaultBatchSize,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RunAllocationBatch moves bookings through their lifecycle, then allocates up
// to the batch size of completed bookings that have no allocation yet. A
// failing booking is recorded and the run continues.
func (r *BatchRunner) RunAllocationBatch(ctx context.Context) BatchResult {
	start := time.Now()
	now := r.clock.Now().UTC()
	result := BatchResult{Errors: []string{}, Timestamp: now}

	r.advanceStatuses(ctx, now, &result)

	pending, err := r.bookings.ListCompletedWithoutAllocation(ctx, r.batchSize)
	if err != nil {
		r.logger.Printf("allocation batch: list pending err=%v", err)
		result.Errors = append(result.Errors, fmt.Sprintf("list pending: %v", err))
		metrics.ObserveBatchRun(metrics.ResultError, time.Since(start), 0)
		return result
	}

	for _, b := range pending {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("batch interrupted: %v", err))
			break
		}
		if _, err := r.calculator.ProcessBookingAllocation(ctx, b.ID); err != nil {
			r.logger.Printf("allocation batch: booking=%s err=%v", b.ID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("booking %s: %v", b.ID, err))
			continue
		}
		result.ProcessedCount++
	}

	outcome := metrics.ResultSuccess
	if len(result.Errors) > 0 {
		outcome = metrics.ResultError
	}
	metrics.ObserveBatchRun(outcome, time.Since(start), result.ProcessedCount)
	r.logger.Printf("allocation batch: processed=%d errors=%d", result.ProcessedCount, len(result.Errors))
	return result
}

func (r *BatchRunner) advanceStatuses(ctx context.Context, now time.Time, result *BatchResult) {
	open, err := r.bookings.ListByStatus(ctx, booking.StatusUpcoming, booking.StatusActive)
	if err != nil {
		r.logger.Printf("allocation batch: list open bookings err=%v", err)
		result.Errors = append(result.Errors, fmt.Sprintf("list open bookings: %v", err))
		return
	}
	for _, b := range open {
		next := booking.DeriveStatus(now, b.StartAt, b.EndAt)
		// forward only: a stay never returns to UPCOMING here
		if next == b.Status || next == booking.StatusUpcoming {
			continue
		}
		if err := r.bookings.UpdateStatus(ctx, b.ID, next); err != nil {
			r.logger.Printf("allocation batch: status booking=%s err=%v", b.ID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("status %s: %v", b.ID, err))
		}
	}
}
