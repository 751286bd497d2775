package calendarfeed

import "errors"

var (
	// ErrEmptyFeed is returned when the feed body is blank.
	ErrEmptyFeed = errors.New("calendarfeed: empty feed")
	// ErrNoEvents is returned when a feed parses to zero events.
	ErrNoEvents = errors.New("calendarfeed: no events in feed")
	// ErrFeedUnavailable is returned when a remote feed cannot be fetched.
	ErrFeedUnavailable = errors.New("calendarfeed: feed unavailable")
	// ErrEmptyPropertyID is returned when an import has no target property.
	ErrEmptyPropertyID = errors.New("calendarfeed: empty property id")
)
