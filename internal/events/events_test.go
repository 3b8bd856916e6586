package events

import (
	"testing"
	"time"
)

func TestDecodeRoundTrip(t *testing.T) {
	ev := TransactionEvent{
		Kind:          Updated,
		TransactionID: "tx-1",
		UserID:        "alice",
		OccurredAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	body, err := ev.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != ev {
		t.Fatalf("got %+v, want %+v", got, ev)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"kind":`},
		{"unknown kind", `{"kind":"renamed","transaction_id":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestKeyAndRoutingKey(t *testing.T) {
	if got := (TransactionEvent{TransactionID: "tx", UserID: "u"}).Key(); got != "u" {
		t.Fatalf("Key() = %q", got)
	}
	if got := (TransactionEvent{TransactionID: "tx"}).Key(); got != "tx" {
		t.Fatalf("Key() = %q", got)
	}
	if got := Deleted.RoutingKey(); got != "transaction.deleted" {
		t.Fatalf("RoutingKey() = %q", got)
	}
}
