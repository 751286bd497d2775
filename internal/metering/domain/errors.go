package metering

import "errors"

var (
	// ErrEmptyPropertyID is returned when property id is empty.
	ErrEmptyPropertyID = errors.New("metering: empty property id")
	// ErrNegativeReading is returned when a reading value is negative.
	ErrNegativeReading = errors.New("metering: negative reading")
	// ErrInvalidTimestamp is returned when a reading has no timestamp.
	ErrInvalidTimestamp = errors.New("metering: invalid timestamp")
	// ErrInvalidWindow is returned when a window ends before it starts.
	ErrInvalidWindow = errors.New("metering: invalid window")
)
