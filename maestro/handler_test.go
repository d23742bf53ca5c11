package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taldoflemis/cassa/cart"
	"github.com/taldoflemis/cassa/codec"
	"github.com/taldoflemis/cassa/domain"
	"github.com/taldoflemis/cassa/events"
	"github.com/taldoflemis/cassa/repository"
	"github.com/taldoflemis/cassa/wire"
)

type fakeStore struct {
	transport   error
	placeStatus []wire.StatusItem
	places      int
}

func (f *fakeStore) ValidateOrder(_ context.Context, o wire.Order) (wire.Response, error) {
	if f.transport != nil {
		return wire.Response{}, f.transport
	}
	o.OrderID = "order-1"
	return wire.Response{Order: o, Status: 1}, nil
}

func (f *fakeStore) PriceOrder(_ context.Context, o wire.Order) (wire.Response, error) {
	o.Amounts = &wire.Amounts{Payment: wire.NewMoney(decimal.RequireFromString("16.50"))}
	o.EstimatedWaitMinutes = "10-15"
	return wire.Response{Order: o, Status: 1}, nil
}

func (f *fakeStore) PlaceOrder(_ context.Context, o wire.Order) (wire.Response, error) {
	f.places++
	if len(f.placeStatus) > 0 {
		return wire.Response{Order: o, Status: wire.StatusFailure, StatusItems: f.placeStatus}, nil
	}
	return wire.Response{Order: o, Status: 1}, nil
}

// fakeMsg records how a message was settled.
type fakeMsg struct {
	jetstream.Msg
	data      []byte
	delivered uint64
	settled   string
}

func (m *fakeMsg) Data() []byte         { return m.data }
func (m *fakeMsg) Headers() nats.Header { return nats.Header{} }
func (m *fakeMsg) Ack() error           { m.settled = "ack"; return nil }
func (m *fakeMsg) Nak() error           { m.settled = "nak"; return nil }
func (m *fakeMsg) Term() error          { m.settled = "term"; return nil }
func (m *fakeMsg) InProgress() error    { return nil }

func (m *fakeMsg) NakWithDelay(time.Duration) error {
	m.settled = "nak-delay"
	return nil
}

func (m *fakeMsg) Metadata() (*jetstream.MsgMetadata, error) {
	return &jetstream.MsgMetadata{NumDelivered: m.delivered}, nil
}

// published collects outcome events. Its first failures attempts return err.
type published struct {
	mu       sync.Mutex
	events   []events.OrderEvent
	attempts int
	failures int
	err      error
}

func (p *published) publish(_ context.Context, ev events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	if p.attempts <= p.failures {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

var testSettings = MaestroSettings{
	OrderBatchSize:                   4,
	FetchMaxWaitInSeconds:            1,
	MaxDeliveries:                    3,
	RetryDelayInSeconds:              1,
	OrderTimeoutInSeconds:            5,
	PublishRetries:                   2,
	PublishBackoffBaseInMilliseconds: 1,
}

func seededRepo(t *testing.T) *repository.Repository {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewMemory()

	pizza, err := codec.UnmarshalPizza([]byte(`{"Size":"Large","Crust":"HandTossed","Cheese":"=","Sauce":"=Tomato","Toppings":["A=Pepperoni"],"Bake":"Normal","Cut":"Pie","Oregano":false,"GarlicCrust":false,"Quantity":1}`))
	require.NoError(t, err)
	require.NoError(t, repo.Pizzas.Save(ctx, "pepperoni", pizza))

	order, err := codec.UnmarshalSavedOrder([]byte(`{"Pizzas":["pepperoni","pepperoni"],"Coupons":["1234"],"OrderInfo":{"StoreID":"7890","ServiceMethod":{"Type":"Carryout","PickupLocation":"InStore"},"Timing":{"Type":"Now"}},"Payment":{"Type":"PayAtStore"}}`))
	require.NoError(t, err)
	require.NoError(t, repo.Orders.Save(ctx, "friday", order))

	person, err := codec.UnmarshalPersonalInfo([]byte(`{"FirstName":"Jane","LastName":"Doe","Email":"jane@example.com","Phone":"555-867-5309"}`))
	require.NoError(t, err)
	require.NoError(t, repo.People.Save(ctx, "jane", person))
	return repo
}

func newTestMaestro(t *testing.T, store *fakeStore) (*maestroHandler, *published) {
	t.Helper()
	return newTestMaestroPublishing(t, store, &published{})
}

func newTestMaestroPublishing(t *testing.T, store *fakeStore, out *published) (*maestroHandler, *published) {
	t.Helper()
	m, err := newMaestroHandler(testSettings, store, seededRepo(t), out.publish)
	require.NoError(t, err)
	return m, out
}

func submission(t *testing.T, order, person string) []byte {
	t.Helper()
	data, err := json.Marshal(events.New(events.KindSubmitted, order, person))
	require.NoError(t, err)
	return data
}

func TestProcessOrderPlacesSavedOrder(t *testing.T) {
	// Arrange
	m, _ := newTestMaestro(t, &fakeStore{})

	// Act
	outcome, err := m.processOrder(context.Background(), events.New(events.KindSubmitted, "friday", "jane"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, events.KindPlaced, outcome.Kind)
	assert.Equal(t, "order-1", outcome.OrderID)
	assert.Equal(t, "16.50", outcome.Total)
	assert.Equal(t, "10-15 minutes", outcome.WaitTime)
	assert.Equal(t, cart.MsgOrderPlaced, outcome.Message)
	assert.Equal(t, "friday", outcome.Order)
}

func TestProcessOrderFailures(t *testing.T) {
	tests := []struct {
		name        string
		store       *fakeStore
		order       string
		person      string
		wantMessage string
		wantRetry   bool
	}{
		{
			name:        "unknown order",
			store:       &fakeStore{},
			order:       "saturday",
			person:      "jane",
			wantMessage: "orders/saturday: not found",
		},
		{
			name:        "unknown person",
			store:       &fakeStore{},
			order:       "friday",
			person:      "john",
			wantMessage: "people/john: not found",
		},
		{
			name:        "store refuses",
			store:       &fakeStore{placeStatus: []wire.StatusItem{{Code: "StoreBusy", Message: "Store is too busy to take the order"}}},
			order:       "friday",
			person:      "jane",
			wantMessage: "Store is too busy to take the order",
		},
		{
			name:        "store unreachable",
			store:       &fakeStore{transport: errors.New("dial tcp: connection refused")},
			order:       "friday",
			person:      "jane",
			wantMessage: "store unavailable",
			wantRetry:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			m, _ := newTestMaestro(t, tt.store)

			// Act
			outcome, err := m.processOrder(context.Background(), events.New(events.KindSubmitted, tt.order, tt.person))

			// Assert
			require.Error(t, err)
			assert.Equal(t, events.KindFailed, outcome.Kind)
			assert.Equal(t, tt.wantMessage, outcome.Message)
			assert.Equal(t, tt.wantRetry, retryable(err))
		})
	}
}

func TestHandleMessagePublishesAndAcks(t *testing.T) {
	// Arrange
	m, out := newTestMaestro(t, &fakeStore{})
	msg := &fakeMsg{data: submission(t, "friday", "jane"), delivered: 1}

	// Act
	m.handleMessage(context.Background(), msg)

	// Assert
	assert.Equal(t, "ack", msg.settled)
	require.Len(t, out.events, 1)
	assert.Equal(t, events.KindPlaced, out.events[0].Kind)
	assert.Equal(t, "idle", m.Status())
}

func TestHandleMessageRetriesTransportFailures(t *testing.T) {
	for delivered := uint64(1); delivered <= uint64(testSettings.MaxDeliveries); delivered++ {
		t.Run(fmt.Sprintf("delivery %d", delivered), func(t *testing.T) {
			// Arrange
			m, out := newTestMaestro(t, &fakeStore{transport: errors.New("i/o timeout")})
			msg := &fakeMsg{data: submission(t, "friday", "jane"), delivered: delivered}

			// Act
			m.handleMessage(context.Background(), msg)

			// Assert
			if delivered < uint64(testSettings.MaxDeliveries) {
				assert.Equal(t, "nak-delay", msg.settled)
				assert.Empty(t, out.events)
				return
			}
			assert.Equal(t, "ack", msg.settled)
			require.Len(t, out.events, 1)
			assert.Equal(t, events.KindFailed, out.events[0].Kind)
			assert.Equal(t, "store unavailable", out.events[0].Message)
		})
	}
}

func TestHandleMessageAcksPermanentFailures(t *testing.T) {
	// Arrange
	m, out := newTestMaestro(t, &fakeStore{})
	msg := &fakeMsg{data: submission(t, "nothing", "jane"), delivered: 1}

	// Act
	m.handleMessage(context.Background(), msg)

	// Assert
	assert.Equal(t, "ack", msg.settled)
	require.Len(t, out.events, 1)
	assert.Equal(t, events.KindFailed, out.events[0].Kind)
}

func TestHandleMessageAcksPlacedOrderWhenPublishKeepsFailing(t *testing.T) {
	// Arrange
	store := &fakeStore{}
	out := &published{failures: 100, err: errors.New("nats down")}
	m, _ := newTestMaestroPublishing(t, store, out)
	msg := &fakeMsg{data: submission(t, "friday", "jane"), delivered: 1}

	// Act
	m.handleMessage(context.Background(), msg)

	// Assert
	assert.Equal(t, "ack", msg.settled)
	assert.Equal(t, 1, store.places)
	assert.Equal(t, testSettings.PublishRetries+1, out.attempts)
	assert.Empty(t, out.events)
}

func TestHandleMessageRetriesPlacedPublish(t *testing.T) {
	// Arrange
	store := &fakeStore{}
	out := &published{failures: 1, err: errors.New("nats down")}
	m, _ := newTestMaestroPublishing(t, store, out)
	msg := &fakeMsg{data: submission(t, "friday", "jane"), delivered: 1}

	// Act
	m.handleMessage(context.Background(), msg)

	// Assert
	assert.Equal(t, "ack", msg.settled)
	assert.Equal(t, 1, store.places)
	assert.Equal(t, 2, out.attempts)
	require.Len(t, out.events, 1)
	assert.Equal(t, events.KindPlaced, out.events[0].Kind)
}

func TestHandleMessageNaksFailedOutcomeWhenPublishFails(t *testing.T) {
	// Arrange
	store := &fakeStore{}
	out := &published{failures: 1, err: errors.New("nats down")}
	m, _ := newTestMaestroPublishing(t, store, out)
	msg := &fakeMsg{data: submission(t, "nothing", "jane"), delivered: 1}

	// Act
	m.handleMessage(context.Background(), msg)

	// Assert
	assert.Equal(t, "nak", msg.settled)
	assert.Equal(t, 0, store.places)
	assert.Equal(t, 1, out.attempts)
	assert.Empty(t, out.events)
}

func TestHandleMessageTerminatesGarbage(t *testing.T) {
	m, out := newTestMaestro(t, &fakeStore{})
	msg := &fakeMsg{data: []byte("not an event"), delivered: 1}

	m.handleMessage(context.Background(), msg)

	assert.Equal(t, "term", msg.settled)
	assert.Empty(t, out.events)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"failure", &cart.Failure{Message: cart.MsgProductMismatch}, false},
		{"not found", fmt.Errorf("orders/x: %w", repository.ErrNotFound), false},
		{"invalid name", repository.ErrInvalidName, false},
		{"validation", &domain.ValidationError{Errors: []domain.FieldError{{Path: "Quantity"}}}, false},
		{"decode", fmt.Errorf("decode pizzas/x: %w", &codec.DecodeError{Err: errors.New("bad")}), false},
		{"deadline", context.DeadlineExceeded, true},
		{"network", errors.New("connection reset by peer"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}
