package costs

import (
	"time"

	booking "hostledger/internal/booking/domain"
	"hostledger/internal/money"
)

// MonthlyFixedCosts is the fixed-cost picture of one property-month.
type MonthlyFixedCosts struct {
	TotalCents     int64
	OccupiedNights int
	PerNightCents  int64
}

// MonthBounds returns the first instant and the last millisecond of a UTC month.
func MonthBounds(year int, month time.Month) (time.Time, time.Time, error) {
	if month < time.January || month > time.December {
		return time.Time{}, time.Time{}, ErrInvalidMonth
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end, nil
}

// OccupiedNights counts nights of ACTIVE or COMPLETED bookings inside the
// window, clipping each stay to it.
func OccupiedNights(from, to time.Time, bookings []booking.Booking) int {
	total := 0
	for _, b := range bookings {
		if b.Status != booking.StatusActive && b.Status != booking.StatusCompleted {
			continue
		}
		if b.StartAt.After(to) || b.EndAt.Before(from) {
			continue
		}
		start := b.StartAt
		if start.Before(from) {
			start = from
		}
		end := b.EndAt
		if end.After(to) {
			end = to
		}
		total += booking.NightsBetween(start, end)
	}
	return total
}

// AllocateMonthlyFixedCosts spreads active expenses of a month evenly over
// its occupied nights. An empty month yields a zero per-night rate.
func AllocateMonthlyFixedCosts(year int, month time.Month, expenses []Expense, bookings []booking.Booking) (MonthlyFixedCosts, error) {
	from, to, err := MonthBounds(year, month)
	if err != nil {
		return MonthlyFixedCosts{}, err
	}

	var total int64
	for _, e := range expenses {
		if !e.Active {
			continue
		}
		total += e.MonthlyEquivalentCents()
	}

	occupied := OccupiedNights(from, to, bookings)
	result := MonthlyFixedCosts{TotalCents: total, OccupiedNights: occupied}
	if occupied > 0 {
		result.PerNightCents = money.RoundDiv(total, int64(occupied))
	}
	return result, nil
}
