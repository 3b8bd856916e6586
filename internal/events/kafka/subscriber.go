package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"finledger/internal/events"
	"finledger/internal/log"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Subscriber reads transaction events as a member of a consumer group.
type Subscriber struct {
	reader messageReader
	logger *log.Logger
}

var _ events.Subscriber = (*Subscriber)(nil)

func NewSubscriber(brokers []string, topic, groupID string, logger *log.Logger) *Subscriber {
	return newSubscriber(kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	}), logger)
}

func newSubscriber(r messageReader, logger *log.Logger) *Subscriber {
	if logger == nil {
		logger = log.Nop()
	}
	return &Subscriber{reader: r, logger: logger.WithComponent(log.ComponentKafka)}
}

// Subscribe commits a message once handler accepts it or it cannot be
// decoded. A handler error stops consumption so the message is redelivered.
func (s *Subscriber) Subscribe(ctx context.Context, handler func(events.TransactionEvent) error) error {
	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return fmt.Errorf("fetch kafka message: %w", err)
		}

		ev, err := events.Decode(msg.Value)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to decode event",
				log.FieldError, err,
				"offset", msg.Offset)
		} else if err := handler(ev); err != nil {
			return fmt.Errorf("handle event %s: %w", ev.TransactionID, err)
		}

		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit kafka message: %w", err)
		}
	}
}

func (s *Subscriber) Close() error {
	return s.reader.Close()
}
