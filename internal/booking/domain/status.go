package booking

import "time"

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusUpcoming  Status = "UPCOMING"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Day is the length of one night.
const Day = 24 * time.Hour

// DeriveStatus places now relative to the stay [startAt, endAt).
// CANCELLED is never derived; it is only set by explicit user action.
func DeriveStatus(now, startAt, endAt time.Time) Status {
	switch {
	case now.Before(startAt):
		return StatusUpcoming
	case !now.Before(endAt):
		return StatusCompleted
	default:
		return StatusActive
	}
}

// NightsBetween returns ceil((end-start)/24h), or 0 when end is not after start.
func NightsBetween(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	nights := int(d / Day)
	if d%Day != 0 {
		nights++
	}
	return nights
}

// ParseStatus validates a stored status value.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusUpcoming, StatusActive, StatusCompleted, StatusCancelled:
		return Status(value), true
	default:
		return "", false
	}
}
