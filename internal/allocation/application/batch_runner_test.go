package application

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	booking "hostledger/internal/booking/domain"
)

func addBooking(t *testing.T, f *fixture, id string, start, end time.Time, status booking.Status) {
	t.Helper()
	b := booking.Booking{
		ID:          id,
		PropertyID:  "prop-1",
		StartAt:     start,
		EndAt:       end,
		Nights:      booking.NightsBetween(start, end),
		PayoutCents: 10000,
		Status:      status,
	}
	if err := f.bookings.Create(context.Background(), &b); err != nil {
		t.Fatalf("create booking %s: %v", id, err)
	}
}

func statusOf(t *testing.T, f *fixture, id string) booking.Status {
	t.Helper()
	b, err := f.bookings.Get(context.Background(), id)
	if err != nil || b == nil {
		t.Fatalf("get booking %s: %v", id, err)
	}
	return b.Status
}

func TestRunAllocationBatch_TransitionsAndAllocates(t *testing.T) {
	now := time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	day := 24 * time.Hour

	addBooking(t, f, "past-upcoming", now.Add(-5*day), now.Add(-2*day), booking.StatusUpcoming)
	addBooking(t, f, "past-active", now.Add(-3*day), now.Add(-1*day), booking.StatusActive)
	addBooking(t, f, "running", now.Add(-1*day), now.Add(2*day), booking.StatusUpcoming)
	addBooking(t, f, "future", now.Add(3*day), now.Add(5*day), booking.StatusUpcoming)
	addBooking(t, f, "cancelled", now.Add(-9*day), now.Add(-7*day), booking.StatusCancelled)

	runner, err := NewBatchRunner(f.bookings, f.calculator, log.New(io.Discard, "", 0), WithBatchClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	result := runner.RunAllocationBatch(context.Background())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.ProcessedCount != 2 {
		t.Fatalf("expected 2 allocations, got %d", result.ProcessedCount)
	}
	if !result.Timestamp.Equal(now) {
		t.Fatalf("unexpected timestamp %v", result.Timestamp)
	}

	expected := map[string]booking.Status{
		"past-upcoming": booking.StatusCompleted,
		"past-active":   booking.StatusCompleted,
		"running":       booking.StatusActive,
		"future":        booking.StatusUpcoming,
		"cancelled":     booking.StatusCancelled,
	}
	for id, want := range expected {
		if got := statusOf(t, f, id); got != want {
			t.Fatalf("%s: expected %s, got %s", id, want, got)
		}
	}
	if f.allocations.HasAllocation("cancelled") || f.allocations.HasAllocation("running") {
		t.Fatalf("only completed bookings may be allocated")
	}

	again := runner.RunAllocationBatch(context.Background())
	if again.ProcessedCount != 0 {
		t.Fatalf("second run should find nothing, got %d", again.ProcessedCount)
	}
}

func TestRunAllocationBatch_RespectsBatchSize(t *testing.T) {
	now := time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	for i, id := range []string{"a", "b", "c"} {
		start := now.Add(-time.Duration(10-i) * 24 * time.Hour)
		addBooking(t, f, id, start, start.Add(48*time.Hour), booking.StatusCompleted)
	}
	runner, err := NewBatchRunner(f.bookings, f.calculator, log.New(io.Discard, "", 0), WithBatchSize(2), WithBatchClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if got := runner.RunAllocationBatch(context.Background()).ProcessedCount; got != 2 {
		t.Fatalf("expected 2 processed, got %d", got)
	}
	if got := runner.RunAllocationBatch(context.Background()).ProcessedCount; got != 1 {
		t.Fatalf("expected 1 processed, got %d", got)
	}
}

type failingStore struct {
	BookingStore
	failID string
}

func (s failingStore) ListCompletedWithoutAllocation(ctx context.Context, limit int) ([]booking.Booking, error) {
	list, err := s.BookingStore.ListCompletedWithoutAllocation(ctx, limit)
	if err != nil {
		return nil, err
	}
	return append(list, booking.Booking{ID: s.failID}), nil
}

func TestRunAllocationBatch_IsolatesFailures(t *testing.T) {
	now := time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	addBooking(t, f, "ok", now.Add(-4*24*time.Hour), now.Add(-2*24*time.Hour), booking.StatusCompleted)

	runner, err := NewBatchRunner(failingStore{BookingStore: f.bookings, failID: "ghost"}, f.calculator, log.New(io.Discard, "", 0), WithBatchClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	result := runner.RunAllocationBatch(context.Background())
	if result.ProcessedCount != 1 {
		t.Fatalf("expected 1 processed, got %d", result.ProcessedCount)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "ghost") {
		t.Fatalf("expected one error naming the booking, got %v", result.Errors)
	}
}

func TestRunAllocationBatch_NeverMovesActiveBackToUpcoming(t *testing.T) {
	now := time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	day := 24 * time.Hour

	addBooking(t, f, "moved-active", now.Add(2*day), now.Add(4*day), booking.StatusActive)
	addBooking(t, f, "ended-active", now.Add(-4*day), now.Add(-2*day), booking.StatusActive)

	runner, err := NewBatchRunner(f.bookings, f.calculator, log.New(io.Discard, "", 0), WithBatchClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	result := runner.RunAllocationBatch(context.Background())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if got := statusOf(t, f, "moved-active"); got != booking.StatusActive {
		t.Fatalf("expected ACTIVE to be kept, got %s", got)
	}
	if got := statusOf(t, f, "ended-active"); got != booking.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", got)
	}
}
