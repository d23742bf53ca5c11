// Package events holds the order lifecycle messages exchanged over NATS by
// the gateway and maestro.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/taldoflemis/cassa/pacchetto/telemetry"
)

type Kind string

const (
	KindSubmitted Kind = "submitted"
	KindPlaced    Kind = "placed"
	KindFailed    Kind = "failed"
)

// OrderEvent is published as <subject>.<kind>.<order name>.
type OrderEvent struct {
	EventID  string    `json:"event_id"`
	Kind     Kind      `json:"kind"`
	Order    string    `json:"order"`
	Person   string    `json:"person"`
	OrderID  string    `json:"order_id,omitempty"`
	Total    string    `json:"total,omitempty"`
	WaitTime string    `json:"wait_time,omitempty"`
	Message  string    `json:"message,omitempty"`
	At       time.Time `json:"at"`
}

func New(kind Kind, order, person string) OrderEvent {
	return OrderEvent{
		EventID: uuid.NewString(),
		Kind:    kind,
		Order:   order,
		Person:  person,
		At:      time.Now().UTC(),
	}
}

// Subject builds the subject an event of kind for order is published on.
func Subject(base string, kind Kind, order string) string {
	return fmt.Sprintf("%s.%s.%s", base, kind, order)
}

// Filter matches every event of kind.
func Filter(base string, kind Kind) string {
	return fmt.Sprintf("%s.%s.*", base, kind)
}

// EnsureStream creates or updates the stream that captures every event under
// base.
func EnsureStream(ctx context.Context, js jetstream.JetStream, stream, base string) (jetstream.Stream, error) {
	s, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      stream,
		Subjects:  []string{base + ".>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create stream", slog.String("stream", stream), slog.Any("err", err))
		return nil, err
	}
	return s, nil
}

// Publish sends ev to JetStream, carrying the trace context of ctx in the
// message headers. The event id doubles as the deduplication id.
func Publish(ctx context.Context, js jetstream.JetStream, base string, ev OrderEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := &nats.Msg{
		Subject: Subject(base, ev.Kind, ev.Order),
		Header:  nats.Header{},
		Data:    data,
	}
	msg.Header.Set(nats.MsgIdHdr, ev.EventID)
	telemetry.InjectContextToNatsMsg(ctx, msg)

	if _, err := js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

func Decode(data []byte) (OrderEvent, error) {
	var ev OrderEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return OrderEvent{}, fmt.Errorf("decode order event: %w", err)
	}
	return ev, nil
}
