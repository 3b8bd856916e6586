// Package events describes the change notifications emitted after a
// transaction write succeeds.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type Kind string

const (
	Created Kind = "created"
	Updated Kind = "updated"
	Deleted Kind = "deleted"
)

func (k Kind) IsValid() bool {
	switch k {
	case Created, Updated, Deleted:
		return true
	}
	return false
}

// RoutingKey is the topic-style key used on message brokers.
func (k Kind) RoutingKey() string { return "transaction." + string(k) }

// TransactionEvent is published once per successful write. UserID is empty
// for deletes, which only carry the record id.
type TransactionEvent struct {
	Kind          Kind      `json:"kind"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Key partitions events by owner, falling back to the record id.
func (e TransactionEvent) Key() string {
	if e.UserID != "" {
		return e.UserID
	}
	return e.TransactionID
}

func (e TransactionEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func Decode(body []byte) (TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return TransactionEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if !ev.Kind.IsValid() {
		return TransactionEvent{}, fmt.Errorf("decode event: unknown kind %q", ev.Kind)
	}
	return ev, nil
}

type Publisher interface {
	Publish(ctx context.Context, ev TransactionEvent) error
	Close() error
}

// Subscriber delivers events to handler until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(TransactionEvent) error) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, TransactionEvent) error { return nil }
func (Nop) Close() error                                    { return nil }
