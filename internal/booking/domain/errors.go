package booking

import "errors"

var (
	// ErrEmptyPropertyID is returned when property id is empty.
	ErrEmptyPropertyID = errors.New("booking: empty property id")
	// ErrInvalidPeriod is returned when a stay does not cover at least one night.
	ErrInvalidPeriod = errors.New("booking: invalid period")
	// ErrNegativeAmount is returned when payout or fee is negative.
	ErrNegativeAmount = errors.New("booking: negative amount")
	// ErrNilBooking is returned when saving a nil booking.
	ErrNilBooking = errors.New("booking: nil booking")
	// ErrDuplicateExternalID is returned when (property, external id) already exists.
	ErrDuplicateExternalID = errors.New("booking: duplicate external id")
	// ErrNotFound is returned when a booking is not found.
	ErrNotFound = errors.New("booking: not found")
)
