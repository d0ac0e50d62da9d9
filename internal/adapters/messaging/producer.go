package messaging

import (
	"context"
	"time"

	"marketplace/internal/core/domain/model/outbox"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Header keys set on every published notification.
const (
	HeaderEventType = "event-type"
	HeaderMessageID = "message-id"
)

var producerTracer = otel.Tracer("marketplace/messaging/producer")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes outbox messages to one topic. Messages are keyed by
// order id, so the events of one order stay in one partition and in order.
type Producer struct {
	writer messageWriter
	topic  string
}

func NewProducer(brokers []string, topic string, writeTimeout time.Duration) *Producer {
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           writeTimeout,
		},
	}
}

// Publish writes one message synchronously. It satisfies ports.EventPublisher.
func (p *Producer) Publish(ctx context.Context, message *outbox.Message) error {
	if err := message.Validate(); err != nil {
		return err
	}

	key := message.OrderID().String()
	msg := kafka.Message{
		Key:   []byte(key),
		Value: message.Payload(),
		Time:  message.OccurredAt(),
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(message.EventType())},
			{Key: HeaderMessageID, Value: []byte(message.ID().String())},
		},
	}

	ctx, span := producerTracer.Start(ctx, "send "+p.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingKafkaMessageKey(key),
			semconv.MessagingMessageID(message.ID().String()),
			attribute.String("marketplace.event_type", message.EventType()),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, NewMessageCarrier(&msg))

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
