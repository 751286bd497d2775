package interfaces

import (
	"context"
	"errors"
	"log"

	"hostledger/internal/allocation/application"
	"hostledger/internal/observability/metrics"
)

// LoggingPublisher logs allocation calculated events.
type LoggingPublisher struct {
	logger *log.Logger
}

// NewLoggingPublisher constructs a logging publisher.
func NewLoggingPublisher(logger *log.Logger) *LoggingPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingPublisher{logger: logger}
}

// PublishAllocationCalculated logs the event.
func (p *LoggingPublisher) PublishAllocationCalculated(ctx context.Context, event application.AllocationCalculated) error {
	_ = ctx
	if p == nil {
		return errors.New("allocation publisher: nil publisher")
	}
	p.logger.Printf("allocation calculated: property=%s booking=%s profit=%d margin=%.1f", event.PropertyID, event.BookingID, event.ProfitCents, event.MarginPercent)
	metrics.IncEventPublish("log", metrics.ResultSuccess)
	return nil
}
