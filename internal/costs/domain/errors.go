package costs

import "errors"

var (
	// ErrEmptyPropertyID is returned when property id is empty.
	ErrEmptyPropertyID = errors.New("costs: empty property id")
	// ErrEmptyBookingID is returned when booking id is empty.
	ErrEmptyBookingID = errors.New("costs: empty booking id")
	// ErrNegativeAmount is returned when an amount is negative.
	ErrNegativeAmount = errors.New("costs: negative amount")
	// ErrInvalidFrequency is returned for unknown expense frequencies.
	ErrInvalidFrequency = errors.New("costs: invalid frequency")
	// ErrInvalidMonth is returned when month is outside 1..12.
	ErrInvalidMonth = errors.New("costs: invalid month")
)
