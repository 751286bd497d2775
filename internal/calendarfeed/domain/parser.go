package calendarfeed

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// DefaultSummary is used for events without a SUMMARY line.
const DefaultSummary = "Booking"

// CheckInHour is the UTC hour assigned to all-day dates.
const CheckInHour = 14

// Event is one VEVENT normalized from a feed.
type Event struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

type parserState int

const (
	stateOutside parserState = iota
	stateInEvent
)

// Parser reads iCalendar text into events.
type Parser struct {
	loc    *time.Location
	logger *log.Logger
}

// NewParser builds a parser; naive local times resolve in loc (UTC when nil).
func NewParser(loc *time.Location, logger *log.Logger) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{loc: loc, logger: logger}
}

type pending struct {
	event    Event
	summary  bool
	hasStart bool
	hasEnd   bool
}

// Parse returns every complete VEVENT in feed order.
// Events missing UID, DTSTART or DTEND are dropped.
func (p *Parser) Parse(text string) []Event {
	var (
		events []Event
		state  = stateOutside
		cur    pending
		nested int
	)
	for _, line := range UnfoldLines(text) {
		name, params, value, ok := splitProperty(line)
		if !ok {
			continue
		}
		switch name {
		case "BEGIN":
			if strings.EqualFold(value, "VEVENT") {
				state = stateInEvent
				cur = pending{}
				nested = 0
				continue
			}
			if state == stateInEvent {
				nested++
			}
			continue
		case "END":
			if state != stateInEvent {
				continue
			}
			if !strings.EqualFold(value, "VEVENT") {
				if nested > 0 {
					nested--
				}
				continue
			}
			if cur.event.UID != "" && cur.hasStart && cur.hasEnd {
				if !cur.summary {
					cur.event.Summary = DefaultSummary
				}
				events = append(events, cur.event)
			}
			state = stateOutside
			continue
		}
		if state != stateInEvent || nested > 0 {
			continue
		}
		switch name {
		case "UID":
			cur.event.UID = strings.TrimSpace(value)
		case "SUMMARY":
			cur.event.Summary = unescapeText(value)
			cur.summary = true
		case "DESCRIPTION":
			cur.event.Description = unescapeText(value)
		case "DTSTART":
			if ts, err := p.parseDate(value, params); err == nil {
				cur.event.Start = ts
				cur.hasStart = true
			} else {
				p.logf("calendarfeed: bad DTSTART uid=%s value=%q err=%v", cur.event.UID, value, err)
			}
		case "DTEND":
			if ts, err := p.parseDate(value, params); err == nil {
				cur.event.End = ts
				cur.hasEnd = true
			} else {
				p.logf("calendarfeed: bad DTEND uid=%s value=%q err=%v", cur.event.UID, value, err)
			}
		}
	}
	return events
}

// ParseDate converts an iCal date or date-time value using loc for naive local times.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return NewParser(loc, nil).parseDate(value, nil)
}

func (p *Parser) parseDate(value string, params map[string]string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) == 8 && isDigits(value) {
		day, err := time.ParseInLocation("20060102", value, time.UTC)
		if err != nil {
			return time.Time{}, err
		}
		return day.Add(CheckInHour * time.Hour), nil
	}
	if !strings.Contains(value, "T") {
		return time.Time{}, fmt.Errorf("unrecognized date %q", value)
	}
	if strings.HasSuffix(value, "Z") {
		return time.Parse("20060102T150405Z", value)
	}
	loc := p.loc
	if tzid := params["TZID"]; tzid != "" {
		if l, err := time.LoadLocation(tzid); err == nil {
			loc = l
		} else {
			p.logf("calendarfeed: unknown TZID %q, using %s", tzid, p.loc)
		}
	}
	ts, err := time.ParseInLocation("20060102T150405", value, loc)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

func (p *Parser) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}

// UnfoldLines normalizes line endings and joins continuation lines.
// A continuation line starts with one space or tab, which is dropped.
func UnfoldLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if raw == "" {
			continue
		}
		if (raw[0] == ' ' || raw[0] == '\t') && len(lines) > 0 {
			lines[len(lines)-1] += raw[1:]
			continue
		}
		lines = append(lines, raw)
	}
	return lines
}

// splitProperty breaks "NAME;PARAM=x:value" into its parts.
func splitProperty(line string) (string, map[string]string, string, bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", nil, "", false
	}
	head := strings.Split(line[:idx], ";")
	name := strings.ToUpper(strings.TrimSpace(head[0]))
	var params map[string]string
	for _, raw := range head[1:] {
		key, val, found := strings.Cut(raw, "=")
		if !found {
			continue
		}
		if params == nil {
			params = make(map[string]string)
		}
		params[strings.ToUpper(strings.TrimSpace(key))] = strings.Trim(val, `"`)
	}
	return name, params, strings.TrimRight(line[idx+1:], " \t"), true
}

var textUnescaper = strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)

func unescapeText(value string) string {
	return textUnescaper.Replace(value)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
