package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	booking "hostledger/internal/booking/domain"
	calendarfeed "hostledger/internal/calendarfeed/domain"
	"hostledger/internal/observability/metrics"
	property "hostledger/internal/property/domain"
)

// BookingStore is the booking persistence the importer reconciles against.
type BookingStore interface {
	FindByExternalID(ctx context.Context, propertyID, externalID string) (*booking.Booking, error)
	Create(ctx context.Context, b *booking.Booking) error
	Update(ctx context.Context, b *booking.Booking) error
}

// PropertyReader resolves a property's default feed timezone.
type PropertyReader interface {
	Get(ctx context.Context, id string) (*property.Property, error)
}

// Fetcher downloads the raw text of a remote feed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// ImportResult counts the outcome of one feed import.
type ImportResult struct {
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// Option configures the importer.
type Option func(*Importer)

// WithLocation sets the zone used for naive local feed times.
func WithLocation(loc *time.Location) Option {
	return func(i *Importer) {
		if loc != nil {
			i.loc = loc
		}
	}
}

// WithPropertyTimezones resolves naive local times in each property's timezone.
func WithPropertyTimezones(properties PropertyReader) Option {
	return func(i *Importer) {
		i.properties = properties
	}
}

// WithFetcher enables SyncFeed.
func WithFetcher(fetcher Fetcher) Option {
	return func(i *Importer) {
		i.fetcher = fetcher
	}
}

// WithClock overrides the time source used for status derivation.
func WithClock(clock Clock) Option {
	return func(i *Importer) {
		if clock != nil {
			i.clock = clock
		}
	}
}

// Importer reconciles calendar feeds into bookings.
type Importer struct {
	bookings   BookingStore
	properties PropertyReader
	fetcher    Fetcher
	clock      Clock
	loc        *time.Location
	logger     *log.Logger
}

// NewImporter constructs the importer.
func NewImporter(bookings BookingStore, logger *log.Logger, opts ...Option) (*Importer, error) {
	if bookings == nil {
		return nil, errors.New("calendar importer: nil booking store")
	}
	if logger == nil {
		logger = log.Default()
	}
	i := &Importer{
		bookings: bookings,
		clock:    systemClock{},
		loc:      time.UTC,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// SyncFeed fetches url and imports it for propertyID.
func (i *Importer) SyncFeed(ctx context.Context, propertyID, url string) (ImportResult, error) {
	if i.fetcher == nil {
		return ImportResult{}, errors.New("calendar importer: no fetcher configured")
	}
	text, err := i.fetcher.Fetch(ctx, url)
	if err != nil {
		metrics.ObserveFeedImport(metrics.ResultError, 0, 0, 0, 0)
		return ImportResult{}, err
	}
	return i.ImportFeed(ctx, propertyID, text, url)
}

// ImportFeed parses feedText and creates or updates one booking per event UID.
// Events that vanished from the feed are left untouched.
func (i *Importer) ImportFeed(ctx context.Context, propertyID, feedText, feedURL string) (ImportResult, error) {
	start := time.Now()
	result, err := i.importFeed(ctx, propertyID, feedText, feedURL)
	outcome := metrics.ResultSuccess
	if err != nil {
		outcome = metrics.ResultError
	}
	metrics.ObserveFeedImport(outcome, time.Since(start), result.Imported, result.Updated, result.Skipped)
	return result, err
}

func (i *Importer) importFeed(ctx context.Context, propertyID, feedText, feedURL string) (ImportResult, error) {
	if propertyID == "" {
		return ImportResult{}, calendarfeed.ErrEmptyPropertyID
	}
	if strings.TrimSpace(feedText) == "" {
		return ImportResult{}, calendarfeed.ErrEmptyFeed
	}
	parser := calendarfeed.NewParser(i.location(ctx, propertyID), i.logger)
	events := parser.Parse(feedText)
	if len(events) == 0 {
		return ImportResult{}, calendarfeed.ErrNoEvents
	}

	source := calendarfeed.DetectSource(feedURL)
	now := i.clock.Now()
	result := ImportResult{Total: len(events)}
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		c := calendarfeed.Classify(event, now)
		if c.Skip != calendarfeed.SkipNone {
			result.Skipped++
			continue
		}
		created, err := i.reconcile(ctx, propertyID, source, event, c, now)
		if err != nil {
			i.logger.Printf("calendar importer: property=%s uid=%s err=%v", propertyID, event.UID, err)
			result.Skipped++
			continue
		}
		if created {
			result.Imported++
		} else {
			result.Updated++
		}
	}
	i.logger.Printf("calendar importer: property=%s source=%s imported=%d updated=%d skipped=%d",
		propertyID, source, result.Imported, result.Updated, result.Skipped)
	return result, nil
}

func (i *Importer) reconcile(ctx context.Context, propertyID string, source booking.Source, event calendarfeed.Event, c calendarfeed.Classification, now time.Time) (bool, error) {
	existing, err := i.bookings.FindByExternalID(ctx, propertyID, event.UID)
	if err != nil {
		return false, fmt.Errorf("lookup: %w", err)
	}
	if existing != nil {
		// feeds carry no cancellation, so a CANCELLED booking still listed is live again
		existing.Reschedule(event.Start, event.End, now)
		if c.GuestName != "" {
			existing.GuestName = c.GuestName
		}
		existing.UpdatedAt = now
		if err := i.bookings.Update(ctx, existing); err != nil {
			return false, fmt.Errorf("update: %w", err)
		}
		return false, nil
	}
	b := &booking.Booking{
		ID:         uuid.NewString(),
		PropertyID: propertyID,
		ExternalID: event.UID,
		GuestName:  c.GuestName,
		StartAt:    event.Start.UTC(),
		EndAt:      event.End.UTC(),
		Nights:     c.Nights,
		Source:     source,
		Status:     c.Status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := i.bookings.Create(ctx, b); err != nil {
		return false, fmt.Errorf("create: %w", err)
	}
	return true, nil
}

func (i *Importer) location(ctx context.Context, propertyID string) *time.Location {
	if i.properties == nil {
		return i.loc
	}
	p, err := i.properties.Get(ctx, propertyID)
	if err != nil {
		i.logger.Printf("calendar importer: property lookup id=%s err=%v", propertyID, err)
		return i.loc
	}
	if p == nil || p.Timezone == "" {
		return i.loc
	}
	return p.Location()
}
