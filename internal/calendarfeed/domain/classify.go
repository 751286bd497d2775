package calendarfeed

import (
	"regexp"
	"strings"
	"time"

	booking "hostledger/internal/booking/domain"
)

var blockedKeywords = []string{"blocked", "not available", "closed"}

// reservedKeywords mark summaries that are placeholders rather than guest names.
var reservedKeywords = []string{"blocked", "not available", "closed", "reserved", "reservation", "unavailable"}

var guestPattern = regexp.MustCompile(`(?i)guest:\s*([^\n]+)`)

// SkipReason explains why an event is not reconciled.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipBlocked     SkipReason = "blocked"
	SkipEmptyPeriod SkipReason = "empty_period"
)

// Classification is the booking view of one feed event.
type Classification struct {
	GuestName string
	Blocked   bool
	Nights    int
	Status    booking.Status
	Skip      SkipReason
}

// IsBlocked reports whether a summary marks an owner block.
func IsBlocked(summary string) bool {
	return containsAny(summary, blockedKeywords)
}

// GuestName extracts a guest name from the summary or description, or "".
func GuestName(summary, description string) string {
	if first, _, found := strings.Cut(summary, " - "); found {
		first = strings.TrimSpace(first)
		if first != "" && !containsAny(first, reservedKeywords) {
			return first
		}
	}
	if m := guestPattern.FindStringSubmatch(description); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	summary = strings.TrimSpace(summary)
	if summary != "" && !containsAny(summary, reservedKeywords) {
		return summary
	}
	return ""
}

// DetectSource maps a feed URL onto a booking channel.
func DetectSource(feedURL string) booking.Source {
	u := strings.ToLower(feedURL)
	switch {
	case strings.Contains(u, "airbnb"):
		return booking.SourceAirbnb
	case strings.Contains(u, "booking"):
		return booking.SourceBooking
	case strings.Contains(u, "vrbo"), strings.Contains(u, "homeaway"):
		return booking.SourceVrbo
	case strings.Contains(u, "expedia"):
		return booking.SourceExpedia
	default:
		return booking.SourceDirect
	}
}

// Classify decides whether an event becomes a booking and with which attributes.
func Classify(e Event, now time.Time) Classification {
	c := Classification{
		GuestName: GuestName(e.Summary, e.Description),
		Blocked:   IsBlocked(e.Summary),
		Nights:    booking.NightsBetween(e.Start, e.End),
	}
	switch {
	case c.Blocked && c.GuestName == "":
		c.Skip = SkipBlocked
	case c.Nights <= 0:
		c.Skip = SkipEmptyPeriod
	default:
		c.Status = booking.DeriveStatus(now, e.Start, e.End)
	}
	return c
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
