package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	allocation "hostledger/internal/allocation/domain"
	booking "hostledger/internal/booking/domain"
	costs "hostledger/internal/costs/domain"
	meteringapp "hostledger/internal/metering/application"
	metering "hostledger/internal/metering/domain"
	"hostledger/internal/observability/metrics"
)

// BookingReader loads a booking by id; nil, nil when absent.
type BookingReader interface {
	Get(ctx context.Context, id string) (*booking.Booking, error)
}

// EnergyReader derives stay consumption from meter readings.
type EnergyReader interface {
	BookingEnergy(ctx context.Context, propertyID string, startAt, endAt time.Time) (meteringapp.BookingEnergy, error)
}

// FixedCostReader computes the fixed-cost rate of a property-month.
type FixedCostReader interface {
	AllocateMonthlyFixedCosts(ctx context.Context, year int, month time.Month, propertyID string) (costs.MonthlyFixedCosts, error)
}

// CleaningReader finds the cleaning of a booking; nil, nil when there is none.
type CleaningReader interface {
	FindByBooking(ctx context.Context, bookingID string) (*costs.CleaningEvent, error)
}

// PriceProvider returns the electricity price in cents per 100 Wh.
type PriceProvider interface {
	PricePer100Wh(ctx context.Context, propertyID string, at time.Time) (int64, error)
}

// BookingProfitResult is the full profit picture of one booking.
type BookingProfitResult struct {
	allocation.Breakdown
	Booking            booking.Booking
	EnergyWh           int64
	StartReading       *metering.Interpolation
	EndReading         *metering.Interpolation
	PricePer100WhCents int64
	FixedPerNightCents int64
}

// ProfitCalculator combines consumption, cleaning and fixed costs into booking profit.
type ProfitCalculator struct {
	repo      allocation.Repository
	bookings  BookingReader
	energy    EnergyReader
	fixed     FixedCostReader
	cleaning  CleaningReader
	pricing   PriceProvider
	publisher AllocationPublisher
	clock     Clock
	logger    *log.Logger
}

// NewProfitCalculator constructs the calculator. publisher may be nil.
func NewProfitCalculator(
	repo allocation.Repository,
	bookings BookingReader,
	energy EnergyReader,
	fixed FixedCostReader,
	cleaning CleaningReader,
	pricing PriceProvider,
	publisher AllocationPublisher,
	clock Clock,
	logger *log.Logger,
) (*ProfitCalculator, error) {
	if repo == nil {
		return nil, errors.New("profit calculator: nil allocation repository")
	}
	if bookings == nil {
		return nil, errors.New("profit calculator: nil booking reader")
	}
	if energy == nil {
		return nil, errors.New("profit calculator: nil energy reader")
	}
	if fixed == nil {
		return nil, errors.New("profit calculator: nil fixed cost reader")
	}
	if cleaning == nil {
		return nil, errors.New("profit calculator: nil cleaning reader")
	}
	if pricing == nil {
		return nil, errors.New("profit calculator: nil price provider")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ProfitCalculator{
		repo:      repo,
		bookings:  bookings,
		energy:    energy,
		fixed:     fixed,
		cleaning:  cleaning,
		pricing:   pricing,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}, nil
}

// ComputeProfit computes the breakdown of a booking without storing it.
func (c *ProfitCalculator) ComputeProfit(ctx context.Context, b booking.Booking) (BookingProfitResult, error) {
	energy, err := c.energy.BookingEnergy(ctx, b.PropertyID, b.StartAt, b.EndAt)
	if err != nil {
		return BookingProfitResult{}, fmt.Errorf("profit calculator: energy: %w", err)
	}

	price, err := c.pricing.PricePer100Wh(ctx, b.PropertyID, b.EndAt)
	if err != nil {
		return BookingProfitResult{}, fmt.Errorf("profit calculator: price: %w", err)
	}

	var cleaningCents int64
	cleaning, err := c.cleaning.FindByBooking(ctx, b.ID)
	if err != nil {
		return BookingProfitResult{}, fmt.Errorf("profit calculator: cleaning: %w", err)
	}
	if cleaning != nil {
		cleaningCents = cleaning.CostCents
	}

	checkout := b.EndAt.UTC()
	fixed, err := c.fixed.AllocateMonthlyFixedCosts(ctx, checkout.Year(), checkout.Month(), b.PropertyID)
	if err != nil {
		return BookingProfitResult{}, fmt.Errorf("profit calculator: fixed costs: %w", err)
	}

	breakdown := allocation.Compute(allocation.Inputs{
		PayoutCents:        b.PayoutCents,
		PlatformFeeCents:   b.PlatformFeeCents,
		Nights:             b.Nights,
		EnergyWh:           energy.EnergyWh,
		PricePer100WhCents: price,
		CleaningCostCents:  cleaningCents,
		FixedPerNightCents: fixed.PerNightCents,
	})

	return BookingProfitResult{
		Breakdown:          breakdown,
		Booking:            b,
		EnergyWh:           energy.EnergyWh,
		StartReading:       energy.StartReading,
		EndReading:         energy.EndReading,
		PricePer100WhCents: price,
		FixedPerNightCents: fixed.PerNightCents,
	}, nil
}

// ProcessBookingAllocation computes and stores the allocation of a booking.
// Repeated calls overwrite the stored figures and refresh AllocatedAt.
func (c *ProfitCalculator) ProcessBookingAllocation(ctx context.Context, bookingID string) (allocation.CostAllocation, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveAllocation(result, time.Since(start))
	}()

	out, err := c.processBookingAllocation(ctx, bookingID)
	if err != nil {
		result = metrics.ResultError
	}
	return out, err
}

func (c *ProfitCalculator) processBookingAllocation(ctx context.Context, bookingID string) (allocation.CostAllocation, error) {
	if bookingID == "" {
		return allocation.CostAllocation{}, allocation.ErrEmptyBookingID
	}
	b, err := c.bookings.Get(ctx, bookingID)
	if err != nil {
		return allocation.CostAllocation{}, fmt.Errorf("profit calculator: load booking: %w", err)
	}
	if b == nil {
		return allocation.CostAllocation{}, fmt.Errorf("%w: %s", allocation.ErrBookingNotFound, bookingID)
	}

	profit, err := c.ComputeProfit(ctx, *b)
	if err != nil {
		return allocation.CostAllocation{}, err
	}

	record := allocation.CostAllocation{
		ID:            uuid.NewString(),
		PropertyID:    b.PropertyID,
		BookingID:     b.ID,
		CheckoutAt:    b.EndAt.UTC(),
		ElectricityWh: profit.EnergyWh,
		AllocatedAt:   c.clock.Now().UTC(),
	}
	record.Apply(profit.Breakdown)
	if err := c.repo.Upsert(ctx, &record); err != nil {
		return allocation.CostAllocation{}, fmt.Errorf("profit calculator: upsert allocation: %w", err)
	}

	if c.publisher != nil {
		event := AllocationCalculated{
			PropertyID:    record.PropertyID,
			BookingID:     record.BookingID,
			ProfitCents:   record.ProfitCents,
			MarginPercent: record.MarginPercent,
			AllocatedAt:   record.AllocatedAt,
		}
		if err := c.publisher.PublishAllocationCalculated(ctx, event); err != nil {
			c.logger.Printf("profit calculator: publish booking=%s err=%v", record.BookingID, err)
		}
	}
	return record, nil
}

// BookingProperty returns the property a booking belongs to.
func (c *ProfitCalculator) BookingProperty(ctx context.Context, bookingID string) (string, error) {
	if bookingID == "" {
		return "", allocation.ErrEmptyBookingID
	}
	b, err := c.bookings.Get(ctx, bookingID)
	if err != nil {
		return "", fmt.Errorf("profit calculator: load booking: %w", err)
	}
	if b == nil {
		return "", fmt.Errorf("%w: %s", allocation.ErrBookingNotFound, bookingID)
	}
	return b.PropertyID, nil
}

// Get returns the stored allocation of a booking.
func (c *ProfitCalculator) Get(ctx context.Context, bookingID string) (*allocation.CostAllocation, error) {
	if bookingID == "" {
		return nil, allocation.ErrEmptyBookingID
	}
	a, err := c.repo.FindByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, allocation.ErrNotFound
	}
	return a, nil
}

// ListMonth returns stored allocations of bookings that checked out in the month.
func (c *ProfitCalculator) ListMonth(ctx context.Context, propertyID string, year int, month time.Month) ([]allocation.CostAllocation, error) {
	if propertyID == "" {
		return nil, errors.New("profit calculator: empty property id")
	}
	return c.repo.ListByPropertyCheckoutMonth(ctx, propertyID, year, month)
}
