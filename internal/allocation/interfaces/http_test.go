package interfaces

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"hostledger/internal/allocation/application"
	allocationmemory "hostledger/internal/allocation/infrastructure/memory"
	"hostledger/internal/allocation/infrastructure/pricing"
	"hostledger/internal/auth"
	booking "hostledger/internal/booking/domain"
	bookingmemory "hostledger/internal/booking/infrastructure/memory"
	costsapp "hostledger/internal/costs/application"
	costsmemory "hostledger/internal/costs/infrastructure/memory"
	meteringapp "hostledger/internal/metering/application"
	meteringmemory "hostledger/internal/metering/infrastructure/memory"
	property "hostledger/internal/property/domain"
	propertymemory "hostledger/internal/property/infrastructure/memory"
)

func newOwnedRouter(t *testing.T) (http.Handler, *allocationmemory.AllocationRepository) {
	t.Helper()
	ctx := context.Background()
	logger := log.New(io.Discard, "", 0)

	allocations := allocationmemory.NewAllocationRepository()
	bookings := bookingmemory.NewBookingRepository(bookingmemory.WithAllocationIndex(allocations))
	properties := propertymemory.NewPropertyRepository()
	if err := properties.Save(ctx, &property.Property{ID: "prop-1", OwnerID: "owner-a", Name: "Loft"}); err != nil {
		t.Fatalf("save property: %v", err)
	}
	start := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 15, 11, 0, 0, 0, time.UTC)
	if err := bookings.Create(ctx, &booking.Booking{
		ID:          "bk-1",
		PropertyID:  "prop-1",
		StartAt:     start,
		EndAt:       end,
		Nights:      booking.NightsBetween(start, end),
		PayoutCents: 50000,
		Source:      booking.SourceManual,
		Status:      booking.StatusCompleted,
	}); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	energy, _ := meteringapp.NewConsumptionService(meteringmemory.NewReadingRepository())
	fixed, _ := costsapp.NewFixedCostAllocator(costsmemory.NewExpenseRepository(), bookings)
	price, _ := pricing.NewFixedPriceProvider(10)
	calculator, err := application.NewProfitCalculator(allocations, bookings, energy, fixed, costsmemory.NewCleaningRepository(), price, NewLoggingPublisher(logger), application.SystemClock{}, logger)
	if err != nil {
		t.Fatalf("profit calculator: %v", err)
	}
	runner, err := application.NewBatchRunner(bookings, calculator, logger)
	if err != nil {
		t.Fatalf("batch runner: %v", err)
	}
	handler, err := NewHandler(calculator, runner, auth.NewPropertyChecker(properties), nil, logger)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	router := chi.NewRouter()
	router.Route("/api/v1", handler.Register)
	return router, allocations
}

func asOwner(req *http.Request, ownerID string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), ownerID, auth.RoleOperator, "user-"+ownerID))
}

func TestRecomputeRejectsOtherOwner(t *testing.T) {
	router, allocations := newOwnedRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, asOwner(httptest.NewRequest(http.MethodPost, "/api/v1/allocations/bk-1/recompute", nil), "owner-b"))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign owner, got %d", resp.Code)
	}
	if a, _ := allocations.FindByBooking(context.Background(), "bk-1"); a != nil {
		t.Fatalf("foreign recompute must not write an allocation: %+v", a)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, asOwner(httptest.NewRequest(http.MethodPost, "/api/v1/allocations/bk-1/recompute", nil), "owner-a"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", resp.Code)
	}
	if a, _ := allocations.FindByBooking(context.Background(), "bk-1"); a == nil || a.ProfitCents != 50000 {
		t.Fatalf("expected stored allocation with profit 50000, got %+v", a)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, asOwner(httptest.NewRequest(http.MethodGet, "/api/v1/allocations/bk-1", nil), "owner-b"))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on read for foreign owner, got %d", resp.Code)
	}
}

func TestRecomputeUnknownBooking(t *testing.T) {
	router, _ := newOwnedRouter(t)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, asOwner(httptest.NewRequest(http.MethodPost, "/api/v1/allocations/missing/recompute", nil), "owner-a"))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
