package main

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel/codes"

	"github.com/taldoflemis/cassa/events"
	"github.com/taldoflemis/cassa/pacchetto/telemetry"
)

// NATSOrderPubSubber publishes order events to JetStream and follows the
// live feed with plain NATS subscriptions on the same subjects.
type NATSOrderPubSubber struct {
	nc          *nats.Conn
	js          jetstream.JetStream
	subject     string
	channelSize int
}

var _ OrderPubSubber = (*NATSOrderPubSubber)(nil)

func NewNATSOrderPubSubber(ctx context.Context, nc *nats.Conn, subject, stream string) (*NATSOrderPubSubber, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create jetstream context", slog.Any("err", err))
		return nil, err
	}
	if _, err := events.EnsureStream(ctx, js, stream, subject); err != nil {
		return nil, err
	}
	return &NATSOrderPubSubber{
		nc:          nc,
		js:          js,
		subject:     subject,
		channelSize: 64,
	}, nil
}

func (n *NATSOrderPubSubber) JetStream() jetstream.JetStream { return n.js }

func (n *NATSOrderPubSubber) PubOrderEvent(ctx context.Context, ev events.OrderEvent) error {
	ctx, span := tracer.Start(ctx, "NATSOrderPubSubber.PubOrderEvent")
	defer span.End()

	if err := events.Publish(ctx, n.js, n.subject, ev); err != nil {
		slog.ErrorContext(ctx, "failed to publish order event", slog.String("order", ev.Order), slog.Any("err", err))
		span.SetStatus(codes.Error, "failed to publish order event")
		span.RecordError(err)
		return err
	}
	return nil
}

// SubLiveOrders implements OrderPubSubber. Events are dropped for a
// subscriber that does not keep up.
func (n *NATSOrderPubSubber) SubLiveOrders(ctx context.Context) (<-chan events.OrderEvent, func(), error) {
	ctx, span := tracer.Start(ctx, "NATSOrderPubSubber.SubLiveOrders")
	defer span.End()

	orderCh := make(chan events.OrderEvent, n.channelSize)
	sub, err := n.nc.Subscribe(n.subject+".>", func(msg *nats.Msg) {
		msgCtx := telemetry.GetContextFromNatsMsg(context.Background(), msg)
		ev, err := events.Decode(msg.Data)
		if err != nil {
			slog.ErrorContext(msgCtx, "failed to unmarshal order event from NATS message", slog.Any("err", err))
			return
		}
		select {
		case orderCh <- ev:
		default:
			slog.WarnContext(msgCtx, "live feed subscriber is behind, dropping event", slog.String("event-id", ev.EventID))
		}
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to subscribe to NATS subject", slog.String("subject", n.subject), slog.Any("err", err))
		span.SetStatus(codes.Error, "failed to subscribe to NATS subject")
		span.RecordError(err)
		return nil, nil, err
	}

	unsub := func() {
		if err := sub.Unsubscribe(); err != nil {
			slog.WarnContext(ctx, "failed to unsubscribe from live orders", slog.Any("err", err))
		}
	}
	return orderCh, unsub, nil
}
