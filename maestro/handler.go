package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/taldoflemis/cassa/cart"
	"github.com/taldoflemis/cassa/codec"
	"github.com/taldoflemis/cassa/domain"
	"github.com/taldoflemis/cassa/events"
	"github.com/taldoflemis/cassa/pacchetto/telemetry"
	"github.com/taldoflemis/cassa/repository"
)

var (
	tracer = otel.Tracer("maestro")
	meter  = otel.Meter("maestro")
)

// maestroHandler turns submitted orders into placed ones. Each submission
// gets a fresh cart session that runs every pizza through validation, then
// prices and places the order.
type maestroHandler struct {
	settings MaestroSettings
	api      cart.OrderingAPI
	repo     *repository.Repository
	consumer jetstream.Consumer
	publish  func(ctx context.Context, ev events.OrderEvent) error
	status   atomic.Value

	placedCounter     metric.Int64Counter
	failedCounter     metric.Int64Counter
	durationHistogram metric.Float64Histogram
}

func newMaestroHandler(
	settings MaestroSettings,
	api cart.OrderingAPI,
	repo *repository.Repository,
	publish func(ctx context.Context, ev events.OrderEvent) error,
) (*maestroHandler, error) {
	ctx := context.Background()

	placedCounter, err := meter.Int64Counter(
		"maestro.orders.placed",
		metric.WithDescription("Number of submitted orders the store accepted"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create placed counter", slog.Any("err", err))
		return nil, err
	}

	failedCounter, err := meter.Int64Counter(
		"maestro.orders.failed",
		metric.WithDescription("Number of submitted orders that could not be placed"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create failed counter", slog.Any("err", err))
		return nil, err
	}

	durationHistogram, err := meter.Float64Histogram(
		"maestro.order.duration",
		metric.WithDescription("Time spent driving one submitted order through the store"),
		metric.WithUnit("s"),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create duration histogram", slog.Any("err", err))
		return nil, err
	}

	m := &maestroHandler{
		settings:          settings,
		api:               api,
		repo:              repo,
		publish:           publish,
		placedCounter:     placedCounter,
		failedCounter:     failedCounter,
		durationHistogram: durationHistogram,
	}
	m.status.Store("idle")
	return m, nil
}

// attachConsumer binds the handler to the durable consumer of submitted
// orders on stream.
func (m *maestroHandler) attachConsumer(ctx context.Context, stream jetstream.Stream, subject string) error {
	c, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       "maestro_submitted_orders_v1",
		FilterSubject: events.Filter(subject, events.KindSubmitted),
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       2 * time.Duration(m.settings.OrderTimeoutInSeconds) * time.Second,
		MaxDeliver:    m.settings.MaxDeliveries,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", slog.Any("err", err))
		return err
	}
	m.consumer = c
	return nil
}

func (m *maestroHandler) Status() string {
	return m.status.Load().(string)
}

// startTurn fetches batches until ctx is done.
func (m *maestroHandler) startTurn(ctx context.Context) {
	slog.InfoContext(ctx, "Maestro is starting his turn")

	for ctx.Err() == nil {
		slog.DebugContext(ctx, "Starting internal loop")

		orders, err := m.getNewBatchMessages(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		for order := range orders {
			if err := order.InProgress(); err != nil {
				slog.ErrorContext(ctx, "failed to set message in progress", slog.Any("err", err))
				continue
			}
			m.handleMessage(ctx, order)
		}
	}
	slog.InfoContext(ctx, "Maestro finished his turn")
}

func (m *maestroHandler) getNewBatchMessages(ctx context.Context) (<-chan jetstream.Msg, error) {
	ctx, span := tracer.Start(ctx, "maestroHandler.getNewBatchMessages")
	defer span.End()

	slog.DebugContext(ctx, "Fetching new batch of messages")
	msgs, err := m.consumer.Fetch(m.settings.OrderBatchSize,
		jetstream.FetchMaxWait(time.Duration(m.settings.FetchMaxWaitInSeconds)*time.Second),
	)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to consume messages", slog.Any("err", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return msgs.Messages(), nil
}

// handleMessage settles one submission. Transport problems are handed back
// to JetStream for redelivery until the delivery budget is spent; every other
// outcome is published and acknowledged. Once the store accepted the order
// the submission is always acked, since a redelivery would place it again.
func (m *maestroHandler) handleMessage(ctx context.Context, msg jetstream.Msg) {
	ctx = telemetry.GetContextFromJetstreamMsg(ctx, msg)
	ctx, span := tracer.Start(ctx, "maestroHandler.handleMessage")
	defer span.End()

	submitted, err := events.Decode(msg.Data())
	if err != nil {
		slog.ErrorContext(ctx, "failed to unmarshal order event from NATS message", slog.Any("err", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if err := msg.Term(); err != nil {
			slog.ErrorContext(ctx, "failed to terminate message", slog.Any("err", err))
		}
		return
	}
	span.SetAttributes(
		attribute.String("cassa.order", submitted.Order),
		attribute.String("cassa.event_id", submitted.EventID),
	)

	m.status.Store(fmt.Sprintf("processing order %s", submitted.Order))
	defer m.status.Store("idle")

	orderCtx, cancel := context.WithTimeout(ctx, time.Duration(m.settings.OrderTimeoutInSeconds)*time.Second)
	start := time.Now()
	outcome, err := m.processOrder(orderCtx, submitted)
	cancel()
	m.durationHistogram.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("cassa.outcome", string(outcome.Kind))))

	if err != nil && retryable(err) && !lastDelivery(msg, m.settings.MaxDeliveries) {
		slog.WarnContext(ctx, "order hit a transport failure, retrying later", slog.String("order", submitted.Order), slog.Any("err", err))
		span.RecordError(err)
		if err := msg.NakWithDelay(time.Duration(m.settings.RetryDelayInSeconds) * time.Second); err != nil {
			slog.ErrorContext(ctx, "failed to nak message", slog.Any("err", err))
		}
		return
	}

	if outcome.Kind == events.KindPlaced {
		if err := m.publishPlaced(ctx, outcome); err != nil {
			slog.ErrorContext(ctx, "placed order could not be announced",
				slog.String("order", submitted.Order),
				slog.String("order-id", outcome.OrderID),
				slog.Any("err", err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to publish placed order")
		}
	} else if err := m.publish(ctx, outcome); err != nil {
		slog.ErrorContext(ctx, "failed to publish order outcome", slog.String("order", submitted.Order), slog.Any("err", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to publish order outcome")
		if err := msg.Nak(); err != nil {
			slog.ErrorContext(ctx, "failed to nak message", slog.Any("err", err))
		}
		return
	}

	switch outcome.Kind {
	case events.KindPlaced:
		m.placedCounter.Add(ctx, 1)
	default:
		m.failedCounter.Add(ctx, 1)
	}

	if err := msg.Ack(); err != nil {
		slog.ErrorContext(ctx, "Failed to acknowledge message", slog.Any("err", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// publishPlaced retries the placed event with exponential backoff. The event
// id stays the same across attempts, so JetStream drops duplicates.
func (m *maestroHandler) publishPlaced(ctx context.Context, outcome events.OrderEvent) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(m.settings.PublishBackoffBaseInMilliseconds) * time.Millisecond

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := m.publish(ctx, outcome)
		if err != nil {
			slog.WarnContext(ctx, "failed to publish placed order, retrying",
				slog.String("order", outcome.Order),
				slog.Int("attempt", attempt),
				slog.Any("err", err),
			)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(m.settings.PublishRetries)+1),
	)
	return err
}

// processOrder runs one submission against the store. It always returns the
// outcome event to publish; err is the reason a failed outcome failed.
func (m *maestroHandler) processOrder(ctx context.Context, submitted events.OrderEvent) (events.OrderEvent, error) {
	ctx, span := tracer.Start(ctx, "maestroHandler.processOrder", trace.WithAttributes(
		attribute.String("cassa.order", submitted.Order),
		attribute.String("cassa.person", submitted.Person),
	))
	defer span.End()

	outcome := events.New(events.KindFailed, submitted.Order, submitted.Person)
	fail := func(err error) (events.OrderEvent, error) {
		outcome.Message = failureMessage(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome.Message)
		slog.WarnContext(ctx, "order could not be placed", slog.String("order", submitted.Order), slog.Any("err", err))
		return outcome, err
	}

	order, err := m.repo.ResolveOrder(ctx, submitted.Order)
	if err != nil {
		return fail(err)
	}
	person, err := m.repo.People.Load(ctx, submitted.Person)
	if err != nil {
		return fail(err)
	}

	session := cart.NewSession(m.api, order.OrderInfo)
	for _, c := range order.Coupons {
		session.AddCoupon(c)
	}
	for _, p := range order.Pizzas {
		if _, err := session.AddPizza(ctx, p); err != nil {
			return fail(err)
		}
	}
	summary, err := session.GetSummary(ctx)
	if err != nil {
		return fail(err)
	}
	msg, err := session.PlaceOrder(ctx, person, order.Payment)
	if err != nil {
		return fail(err)
	}

	outcome.Kind = events.KindPlaced
	outcome.OrderID = summary.OrderID
	outcome.Total = summary.Total.StringFixed(2)
	outcome.WaitTime = summary.WaitTime
	outcome.Message = msg
	slog.InfoContext(ctx, "Order placed", slog.String("order", submitted.Order), slog.String("order-id", summary.OrderID), slog.String("total", outcome.Total))
	return outcome, nil
}

// retryable reports whether another attempt could succeed. Protocol
// failures and bad saved data will not change on redelivery.
func retryable(err error) bool {
	var verr *domain.ValidationError
	var derr *codec.DecodeError
	switch {
	case cart.IsFailure(err),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrInvalidName),
		errors.Is(err, domain.ErrMalformedInput),
		errors.As(err, &verr),
		errors.As(err, &derr):
		return false
	}
	return true
}

// failureMessage is what subscribers of the live feed get to see. Transport
// details stay in the logs.
func failureMessage(err error) string {
	var f *cart.Failure
	switch {
	case errors.As(err, &f):
		return f.Message
	case !retryable(err):
		return err.Error()
	default:
		return "store unavailable"
	}
}

func lastDelivery(msg jetstream.Msg, maxDeliveries int) bool {
	meta, err := msg.Metadata()
	if err != nil {
		return true
	}
	return meta.NumDelivered >= uint64(maxDeliveries)
}
