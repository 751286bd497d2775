package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	metering "hostledger/internal/metering/domain"
)

// BookingEnergy is the consumption attributed to one stay.
// StartReading and EndReading are nil when the property has no readings.
type BookingEnergy struct {
	EnergyWh     int64
	StartReading *metering.Interpolation
	EndReading   *metering.Interpolation
}

// ConsumptionService derives stay consumption from sparse meter readings.
type ConsumptionService struct {
	readings metering.ReadingRepository
}

// NewConsumptionService constructs the service.
func NewConsumptionService(readings metering.ReadingRepository) (*ConsumptionService, error) {
	if readings == nil {
		return nil, errors.New("consumption service: nil reading repository")
	}
	return &ConsumptionService{readings: readings}, nil
}

// BookingEnergy interpolates the counter at check-in and check-out. Missing
// data yields zero energy rather than an error.
func (s *ConsumptionService) BookingEnergy(ctx context.Context, propertyID string, startAt, endAt time.Time) (BookingEnergy, error) {
	if propertyID == "" {
		return BookingEnergy{}, metering.ErrEmptyPropertyID
	}
	if endAt.Before(startAt) {
		return BookingEnergy{}, metering.ErrInvalidWindow
	}

	readings, err := s.readings.ListWindow(ctx, propertyID, startAt, endAt)
	if err != nil {
		return BookingEnergy{}, fmt.Errorf("consumption service: list readings: %w", err)
	}
	metering.SortReadings(readings)

	start, okStart := metering.InterpolateAt(readings, startAt)
	end, okEnd := metering.InterpolateAt(readings, endAt)
	if !okStart || !okEnd {
		return BookingEnergy{}, nil
	}
	return BookingEnergy{
		EnergyWh:     metering.EnergyDelta(start.ValueWh, end.ValueWh),
		StartReading: &start,
		EndReading:   &end,
	}, nil
}
