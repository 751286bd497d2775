package metering

import (
	"sort"
	"time"

	"hostledger/internal/money"
)

// Interpolation is an estimated counter value at a point in time.
type Interpolation struct {
	ValueWh int64
	IsExact bool
	Before  *Reading
	After   *Reading
}

// InterpolateAt estimates the counter value at target from readings sorted by
// RecordedAt. It reports false when there are no readings at all.
//
// Targets outside the data are clamped to the nearest known value; there is no
// extrapolation from a single side.
func InterpolateAt(readings []Reading, target time.Time) (Interpolation, bool) {
	if len(readings) == 0 {
		return Interpolation{}, false
	}
	idx := sort.Search(len(readings), func(i int) bool {
		return readings[i].RecordedAt.After(target)
	})

	var before, after *Reading
	if idx > 0 {
		r := readings[idx-1]
		before = &r
	}
	if idx < len(readings) {
		r := readings[idx]
		after = &r
	}

	switch {
	case before == nil:
		return Interpolation{ValueWh: after.ValueWh, IsExact: false, After: after}, true
	case after == nil:
		return Interpolation{ValueWh: before.ValueWh, IsExact: before.RecordedAt.Equal(target), Before: before}, true
	case before.RecordedAt.Equal(target):
		return Interpolation{ValueWh: before.ValueWh, IsExact: true, Before: before, After: after}, true
	}

	value := Interpolate(before.RecordedAt, before.ValueWh, after.RecordedAt, after.ValueWh, target)
	return Interpolation{ValueWh: value, Before: before, After: after}, true
}

// Interpolate linearly estimates the value at target between two samples,
// rounded to the nearest Wh. Targets at or beyond either sample are clamped.
func Interpolate(beforeTime time.Time, beforeValue int64, afterTime time.Time, afterValue int64, target time.Time) int64 {
	if !target.After(beforeTime) {
		return beforeValue
	}
	if !target.Before(afterTime) {
		return afterValue
	}
	return money.LerpRound(beforeValue, afterValue, int64(target.Sub(beforeTime)), int64(afterTime.Sub(beforeTime)))
}

// EnergyDelta returns end-start, floored at zero. Counter decreases (resets,
// bad data) are absorbed rather than reported.
func EnergyDelta(startWh, endWh int64) int64 {
	if endWh < startWh {
		return 0
	}
	return endWh - startWh
}
