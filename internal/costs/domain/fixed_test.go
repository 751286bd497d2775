package costs

import (
	"testing"
	"time"

	booking "hostledger/internal/booking/domain"
)

func stay(status booking.Status, start, end time.Time) booking.Booking {
	return booking.Booking{PropertyID: "prop-1", StartAt: start, EndAt: end, Status: status}
}

func day(month time.Month, d, hour int) time.Time {
	return time.Date(2026, month, d, hour, 0, 0, 0, time.UTC)
}

func TestMonthBounds(t *testing.T) {
	start, end, err := MonthBounds(2024, time.February)
	if err != nil {
		t.Fatalf("month bounds: %v", err)
	}
	if !start.Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", start)
	}
	if !end.Equal(time.Date(2024, time.February, 29, 23, 59, 59, 999_000_000, time.UTC)) {
		t.Fatalf("unexpected end %v", end)
	}
	if _, _, err := MonthBounds(2024, 13); err != ErrInvalidMonth {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestMonthlyEquivalent(t *testing.T) {
	cases := []struct {
		name string
		e    Expense
		want int64
	}{
		{name: "monthly", e: Expense{AmountCents: 4500, Frequency: FrequencyMonthly}, want: 4500},
		{name: "yearly exact", e: Expense{AmountCents: 120000, Frequency: FrequencyYearly}, want: 10000},
		{name: "yearly rounds up", e: Expense{AmountCents: 100, Frequency: FrequencyYearly}, want: 8},
		{name: "yearly rounds down", e: Expense{AmountCents: 14, Frequency: FrequencyYearly}, want: 1},
	}
	for _, tc := range cases {
		if got := tc.e.MonthlyEquivalentCents(); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestAllocateMonthlyFixedCosts(t *testing.T) {
	expenses := []Expense{
		{PropertyID: "prop-1", AmountCents: 30000, Frequency: FrequencyMonthly, Active: true},
		{PropertyID: "prop-1", AmountCents: 120000, Frequency: FrequencyYearly, Active: true},
		{PropertyID: "prop-1", AmountCents: 99999, Frequency: FrequencyMonthly, Active: false},
	}
	bookings := []booking.Booking{
		stay(booking.StatusCompleted, day(time.March, 2, 14), day(time.March, 5, 11)),
		stay(booking.StatusActive, day(time.March, 10, 14), day(time.March, 17, 11)),
		stay(booking.StatusUpcoming, day(time.March, 20, 14), day(time.March, 22, 11)),
		stay(booking.StatusCancelled, day(time.March, 24, 14), day(time.March, 26, 11)),
	}

	got, err := AllocateMonthlyFixedCosts(2026, time.March, expenses, bookings)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got.TotalCents != 40000 {
		t.Fatalf("expected total 40000, got %d", got.TotalCents)
	}
	if got.OccupiedNights != 10 {
		t.Fatalf("expected 10 occupied nights, got %d", got.OccupiedNights)
	}
	if got.PerNightCents != 4000 {
		t.Fatalf("expected 4000 per night, got %d", got.PerNightCents)
	}
}

func TestAllocateMonthlyFixedCosts_ClipsToMonth(t *testing.T) {
	expenses := []Expense{{PropertyID: "prop-1", AmountCents: 1000, Frequency: FrequencyMonthly, Active: true}}
	bookings := []booking.Booking{
		stay(booking.StatusCompleted, day(time.January, 29, 14), day(time.February, 3, 11)),
		stay(booking.StatusCompleted, day(time.February, 27, 14), day(time.March, 2, 11)),
		stay(booking.StatusCompleted, day(time.March, 3, 14), day(time.March, 5, 11)),
	}
	got, err := AllocateMonthlyFixedCosts(2026, time.February, expenses, bookings)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	// Feb 1 00:00 -> Feb 3 11:00 is 3 nights, Feb 27 14:00 -> month end is 2 nights.
	if got.OccupiedNights != 5 {
		t.Fatalf("expected 5 occupied nights, got %d", got.OccupiedNights)
	}
	if got.PerNightCents != 200 {
		t.Fatalf("expected 200 per night, got %d", got.PerNightCents)
	}
}

func TestAllocateMonthlyFixedCosts_ZeroOccupancy(t *testing.T) {
	expenses := []Expense{{PropertyID: "prop-1", AmountCents: 50000, Frequency: FrequencyMonthly, Active: true}}
	got, err := AllocateMonthlyFixedCosts(2026, time.April, expenses, nil)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got.TotalCents != 50000 || got.OccupiedNights != 0 || got.PerNightCents != 0 {
		t.Fatalf("unexpected zero-occupancy result: %+v", got)
	}
}
