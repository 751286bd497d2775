package application

import (
	"context"
	"testing"
	"time"

	metering "hostledger/internal/metering/domain"
	"hostledger/internal/metering/infrastructure/memory"
)

func TestBookingEnergy_HalfDay(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReadingRepository()
	if err := repo.Insert(ctx,
		metering.Reading{PropertyID: "prop-1", RecordedAt: time.UnixMilli(86_400_000), ValueWh: 50_010_000},
		metering.Reading{PropertyID: "prop-1", RecordedAt: time.UnixMilli(0), ValueWh: 50_000_000},
	); err != nil {
		t.Fatalf("insert readings: %v", err)
	}
	svc, err := NewConsumptionService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.BookingEnergy(ctx, "prop-1", time.UnixMilli(0), time.UnixMilli(43_200_000))
	if err != nil {
		t.Fatalf("booking energy: %v", err)
	}
	if got.EnergyWh != 5_000 {
		t.Fatalf("expected 5000 Wh, got %d", got.EnergyWh)
	}
	if got.EndReading == nil || got.EndReading.ValueWh != 50_005_000 {
		t.Fatalf("unexpected end reading: %+v", got.EndReading)
	}
	if got.StartReading == nil || !got.StartReading.IsExact {
		t.Fatalf("expected exact start reading: %+v", got.StartReading)
	}
}

func TestBookingEnergy_NoReadings(t *testing.T) {
	svc, err := NewConsumptionService(memory.NewReadingRepository())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	start := time.Date(2026, time.February, 1, 14, 0, 0, 0, time.UTC)
	got, err := svc.BookingEnergy(context.Background(), "prop-empty", start, start.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.EnergyWh != 0 || got.StartReading != nil || got.EndReading != nil {
		t.Fatalf("expected unknown consumption, got %+v", got)
	}
}

func TestBookingEnergy_UsesNeighboursOutsideWindow(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReadingRepository()
	base := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.Insert(ctx,
		metering.Reading{PropertyID: "prop-1", RecordedAt: base, ValueWh: 1_000},
		metering.Reading{PropertyID: "prop-1", RecordedAt: base.Add(10 * 24 * time.Hour), ValueWh: 11_000},
		metering.Reading{PropertyID: "prop-2", RecordedAt: base.Add(5 * 24 * time.Hour), ValueWh: 999_999},
	); err != nil {
		t.Fatalf("insert readings: %v", err)
	}
	svc, _ := NewConsumptionService(repo)

	got, err := svc.BookingEnergy(ctx, "prop-1", base.Add(2*24*time.Hour), base.Add(5*24*time.Hour))
	if err != nil {
		t.Fatalf("booking energy: %v", err)
	}
	if got.EnergyWh != 3_000 {
		t.Fatalf("expected 3000 Wh, got %d", got.EnergyWh)
	}
	if got.StartReading.IsExact || got.EndReading.IsExact {
		t.Fatalf("interpolated readings must not be exact")
	}
}

func TestBookingEnergy_ClampsDecreasingCounter(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReadingRepository()
	base := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	_ = repo.Insert(ctx,
		metering.Reading{PropertyID: "prop-1", RecordedAt: base, ValueWh: 9_000},
		metering.Reading{PropertyID: "prop-1", RecordedAt: base.Add(48 * time.Hour), ValueWh: 100},
	)
	svc, _ := NewConsumptionService(repo)
	got, err := svc.BookingEnergy(ctx, "prop-1", base, base.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("booking energy: %v", err)
	}
	if got.EnergyWh != 0 {
		t.Fatalf("expected clamped zero, got %d", got.EnergyWh)
	}
}
