package integration_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"hostledger/internal/allocation/application"
	allocationmemory "hostledger/internal/allocation/infrastructure/memory"
	"hostledger/internal/allocation/infrastructure/pricing"
	"hostledger/internal/allocation/interfaces"
	"hostledger/internal/audit"
	booking "hostledger/internal/booking/domain"
	bookingmemory "hostledger/internal/booking/infrastructure/memory"
	costsapp "hostledger/internal/costs/application"
	costs "hostledger/internal/costs/domain"
	costsmemory "hostledger/internal/costs/infrastructure/memory"
	meteringapp "hostledger/internal/metering/application"
	metering "hostledger/internal/metering/domain"
	meteringmemory "hostledger/internal/metering/infrastructure/memory"
	property "hostledger/internal/property/domain"
	propertymemory "hostledger/internal/property/infrastructure/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestAllocationFlow_BatchThenQueryAndExport(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 20, 3, 0, 0, 0, time.UTC)
	logger := log.New(io.Discard, "", 0)

	allocations := allocationmemory.NewAllocationRepository()
	bookings := bookingmemory.NewBookingRepository(bookingmemory.WithAllocationIndex(allocations))
	readings := meteringmemory.NewReadingRepository()
	expenses := costsmemory.NewExpenseRepository()
	cleaning := costsmemory.NewCleaningRepository()
	properties := propertymemory.NewPropertyRepository()
	auditLog := audit.NewMemoryLogger()

	if err := properties.Save(ctx, &property.Property{ID: "prop-1", OwnerID: "owner-a", Name: "Seaside Loft", PricePer100WhCents: 10}); err != nil {
		t.Fatalf("save property: %v", err)
	}

	start := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 15, 11, 0, 0, 0, time.UTC)
	b := booking.Booking{
		ID:               "bk-1",
		PropertyID:       "prop-1",
		ExternalID:       "uid-1@airbnb.com",
		GuestName:        "Ana",
		StartAt:          start,
		EndAt:            end,
		Nights:           booking.NightsBetween(start, end),
		PayoutCents:      48000,
		PlatformFeeCents: 4800,
		Source:           booking.SourceAirbnb,
		Status:           booking.StatusActive,
	}
	if err := bookings.Create(ctx, &b); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	// Readings bracket the stay; check-in and check-out are interpolated.
	if err := readings.Insert(ctx,
		metering.Reading{PropertyID: "prop-1", RecordedAt: start.Add(-2 * time.Hour), ValueWh: 998_000},
		metering.Reading{PropertyID: "prop-1", RecordedAt: start.Add(2 * time.Hour), ValueWh: 1_002_000},
		metering.Reading{PropertyID: "prop-1", RecordedAt: end.Add(-1 * time.Hour), ValueWh: 1_021_000},
		metering.Reading{PropertyID: "prop-1", RecordedAt: end.Add(1 * time.Hour), ValueWh: 1_023_000},
	); err != nil {
		t.Fatalf("insert readings: %v", err)
	}
	if err := cleaning.Save(ctx, &costs.CleaningEvent{ID: "cl-1", PropertyID: "prop-1", BookingID: "bk-1", CostCents: 4500, Status: costs.CleaningDone}); err != nil {
		t.Fatalf("save cleaning: %v", err)
	}
	if err := expenses.Save(ctx, &costs.Expense{ID: "exp-1", PropertyID: "prop-1", Name: "Internet", AmountCents: 2500, Frequency: costs.FrequencyMonthly, Active: true}); err != nil {
		t.Fatalf("save expense: %v", err)
	}

	energy, _ := meteringapp.NewConsumptionService(readings)
	fixed, _ := costsapp.NewFixedCostAllocator(expenses, bookings)
	price, _ := pricing.NewPropertyPriceProvider(properties, 3)
	calculator, err := application.NewProfitCalculator(allocations, bookings, energy, fixed, cleaning, price, interfaces.NewLoggingPublisher(logger), fixedClock{now: now}, logger)
	if err != nil {
		t.Fatalf("profit calculator: %v", err)
	}
	runner, err := application.NewBatchRunner(bookings, calculator, logger, application.WithBatchClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("batch runner: %v", err)
	}
	handler, err := interfaces.NewHandler(calculator, runner, nil, auditLog, logger)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	router := chi.NewRouter()
	router.Route("/api/v1", handler.Register)
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/allocations/run", "application/json", nil)
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	var result application.BatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode batch result: %v", err)
	}
	resp.Body.Close()
	if result.ProcessedCount != 1 || len(result.Errors) != 0 {
		t.Fatalf("unexpected batch result: %+v", result)
	}

	resp, err = http.Get(server.URL + "/api/v1/allocations/bk-1")
	if err != nil {
		t.Fatalf("get allocation: %v", err)
	}
	var got struct {
		ElectricityWh        int64   `json:"electricityWh"`
		ElectricityCostCents int64   `json:"electricityCostCents"`
		TotalCostCents       int64   `json:"totalCostCents"`
		ProfitCents          int64   `json:"profitCents"`
		MarginPercent        float64 `json:"marginPercent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode allocation: %v", err)
	}
	resp.Body.Close()
	if got.ElectricityWh != 22000 || got.ElectricityCostCents != 2200 {
		t.Fatalf("unexpected electricity: %+v", got)
	}
	if got.TotalCostCents != 9200 || got.ProfitCents != 34000 || got.MarginPercent != 70.8 {
		t.Fatalf("unexpected profit: %+v", got)
	}

	resp, err = http.Get(server.URL + "/api/v1/properties/prop-1/reports/2026-03.csv")
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	rows, err := csv.NewReader(resp.Body).ReadAll()
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "bk-1" || rows[1][8] != "340.00" {
		t.Fatalf("unexpected csv rows: %v", rows)
	}

	for _, format := range []string{"pdf", "xlsx"} {
		resp, err = http.Get(server.URL + "/api/v1/properties/prop-1/reports/2026-03." + format)
		if err != nil {
			t.Fatalf("export %s: %v", format, err)
		}
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || len(data) == 0 {
			t.Fatalf("export %s: status %d size %d", format, resp.StatusCode, len(data))
		}
	}

	resp, err = http.Get(server.URL + "/api/v1/properties/prop-1/reports/2026-03.docx")
	if err != nil {
		t.Fatalf("bad export: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/v1/allocations/unknown")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var actions []string
	for _, e := range auditLog.Entries() {
		actions = append(actions, e.Action)
	}
	if joined := strings.Join(actions, ","); !strings.Contains(joined, "allocation.batch_run") || !strings.Contains(joined, "report.export") {
		t.Fatalf("missing audit entries: %v", actions)
	}
}
