package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/segmentio/kafka-go"

	"hostledger/internal/allocation/application"
	"hostledger/internal/observability/metrics"
)

// EventTypeAllocationCalculated is carried in the message header.
const EventTypeAllocationCalculated = "allocation.calculated"

type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes allocation events to a Kafka topic, keyed by booking id.
type KafkaPublisher struct {
	writer kafkaMessageWriter
}

// NewKafkaPublisher constructs a publisher for the brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("kafka publisher: empty topic")
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka publisher: no brokers")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisherWithWriter(writer)
}

func newKafkaPublisherWithWriter(writer kafkaMessageWriter) (*KafkaPublisher, error) {
	if writer == nil {
		return nil, errors.New("kafka publisher: nil writer")
	}
	return &KafkaPublisher{writer: writer}, nil
}

// PublishAllocationCalculated writes the event synchronously.
func (p *KafkaPublisher) PublishAllocationCalculated(ctx context.Context, event application.AllocationCalculated) error {
	if p == nil || p.writer == nil {
		return errors.New("kafka publisher: nil writer")
	}
	value, err := json.Marshal(event)
	if err != nil {
		metrics.IncEventPublish("kafka", metrics.ResultError)
		return err
	}
	msg := kafka.Message{
		Key:   []byte(event.BookingID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeAllocationCalculated)},
		},
		Time: event.AllocatedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.IncEventPublish("kafka", metrics.ResultError)
		return err
	}
	metrics.IncEventPublish("kafka", metrics.ResultSuccess)
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
