package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/craftedcrochet/storefront/internal/events"
	"github.com/craftedcrochet/storefront/pkg/logger"
)

// Publisher wraps a Kafka sync producer for order events.
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewPublisher creates a producer requiring full-ISR acks.
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return &Publisher{producer: producer, brokers: brokers}, nil
}

// OrderPlaced publishes the event; register it on the events hub.
// Publish failures are logged and dropped: order persistence never
// rolls back because a notification transport was down.
func (p *Publisher) OrderPlaced(ev events.OrderPlaced) {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(context.Background(), "kafka.publish.order_placed",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", TopicOrderPlaced),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", EventTypeOrderPlaced),
			attribute.String("order.id", ev.OrderID),
			attribute.Float64("order.total", ev.Total),
		),
	)
	defer span.End()

	items := make([]OrderEventItem, 0, len(ev.Items))
	for _, it := range ev.Items {
		items = append(items, OrderEventItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	event := OrderPlacedEvent{
		EventID:       uuid.NewString(),
		EventType:     EventTypeOrderPlaced,
		OrderID:       ev.OrderID,
		CustomerName:  ev.CustomerName,
		CustomerEmail: ev.CustomerEmail,
		Total:         ev.Total,
		Items:         items,
		Timestamp:     time.Now(),
	}
	span.SetAttributes(attribute.String("event.id", event.EventID))

	payload, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		logger.Logger.Error().Err(err).Str("order_id", ev.OrderID).Msg("failed to encode order event")
		return
	}

	// Trace context rides the message headers to downstream consumers.
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(EventTypeOrderPlaced)},
		{Key: []byte("event_id"), Value: []byte(event.EventID)},
	}
	for key, value := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(key),
			Value: []byte(value),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   TopicOrderPlaced,
		Key:     sarama.StringEncoder(ev.OrderID),
		Value:   sarama.ByteEncoder(payload),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Logger.Error().Err(err).Str("order_id", ev.OrderID).Msg("failed to publish order event")
		return
	}

	span.SetAttributes(
		attribute.Int64("messaging.kafka.partition", int64(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	logger.Logger.Info().
		Str("order_id", ev.OrderID).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("order event published")
}

// Close shuts the underlying producer down.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
