package allocation

import "errors"

var (
	// ErrBookingNotFound is returned when the booking to allocate does not exist.
	ErrBookingNotFound = errors.New("allocation: booking not found")
	// ErrEmptyBookingID is returned when booking id is empty.
	ErrEmptyBookingID = errors.New("allocation: empty booking id")
	// ErrNotFound is returned when no allocation exists for a booking.
	ErrNotFound = errors.New("allocation: not found")
	// ErrNilAllocation is returned when saving a nil allocation.
	ErrNilAllocation = errors.New("allocation: nil allocation")
)
