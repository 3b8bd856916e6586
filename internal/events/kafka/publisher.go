package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"finledger/internal/events"
	"finledger/internal/log"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes transaction events to a topic keyed by owner, so one
// user's events stay ordered within a partition.
type Publisher struct {
	writer messageWriter
	logger *log.Logger
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(brokers []string, topic string, logger *log.Logger) *Publisher {
	return newPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}, logger)
}

func newPublisher(w messageWriter, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.Nop()
	}
	return &Publisher{writer: w, logger: logger.WithComponent(log.ComponentKafka)}
}

func (p *Publisher) Publish(ctx context.Context, ev events.TransactionEvent) error {
	data, err := ev.Encode()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Key()),
		Value: data,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(ev.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	p.logger.DebugContext(ctx, "Published transaction event",
		log.FieldEventKind, ev.Kind,
		log.FieldTransactionID, ev.TransactionID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
