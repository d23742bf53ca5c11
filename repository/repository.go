// Package repository stores named pizzas, orders, order infos, payments and
// people as codec documents in NATS JetStream KeyValue buckets.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/taldoflemis/cassa/codec"
	"github.com/taldoflemis/cassa/domain"
)

var tracer = otel.Tracer("repository")

const (
	BucketPizzas     = "pizzas"
	BucketOrders     = "orders"
	BucketOrderInfos = "orderinfos"
	BucketPayments   = "payments"
	BucketPeople     = "people"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidName = errors.New("invalid name")
)

var nameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// KeyValue is the part of jetstream.KeyValue the buckets use.
type KeyValue interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	ListKeys(ctx context.Context, opts ...jetstream.WatchOpt) (jetstream.KeyLister, error)
}

// Bucket holds one kind of entity under user chosen names.
type Bucket[T any] struct {
	name      string
	kv        KeyValue
	marshal   func(T) ([]byte, error)
	unmarshal func([]byte) (T, error)
}

func newBucket[T any](name string, kv KeyValue, marshal func(T) ([]byte, error), unmarshal func([]byte) (T, error)) *Bucket[T] {
	return &Bucket[T]{name: name, kv: kv, marshal: marshal, unmarshal: unmarshal}
}

func checkName(name string) error {
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func (b *Bucket[T]) startSpan(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Bucket."+op, trace.WithAttributes(
		attribute.String("repository.bucket", b.name),
		attribute.String("repository.key", key),
	))
}

// Marshal and Unmarshal expose the document codec the bucket stores with.
func (b *Bucket[T]) Marshal(v T) ([]byte, error)      { return b.marshal(v) }
func (b *Bucket[T]) Unmarshal(data []byte) (T, error) { return b.unmarshal(data) }
func (b *Bucket[T]) Name() string                     { return b.name }

// Save stores v under name, replacing any previous value.
func (b *Bucket[T]) Save(ctx context.Context, name string, v T) error {
	ctx, span := b.startSpan(ctx, "Save", name)
	defer span.End()

	if err := checkName(name); err != nil {
		return err
	}
	data, err := b.marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", b.name, name, err)
	}
	if _, err := b.kv.Put(ctx, name, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("put %s/%s: %w", b.name, name, err)
	}
	slog.DebugContext(ctx, "saved entity", slog.String("bucket", b.name), slog.String("name", name))
	return nil
}

// Load decodes the value stored under name. A stored document that no longer
// validates is reported as a decode error, not silently dropped.
func (b *Bucket[T]) Load(ctx context.Context, name string) (T, error) {
	ctx, span := b.startSpan(ctx, "Load", name)
	defer span.End()

	var zero T
	if err := checkName(name); err != nil {
		return zero, err
	}
	entry, err := b.kv.Get(ctx, name)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return zero, fmt.Errorf("%s/%s: %w", b.name, name, ErrNotFound)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return zero, fmt.Errorf("get %s/%s: %w", b.name, name, err)
	}
	v, err := b.unmarshal(entry.Value())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode")
		return zero, fmt.Errorf("decode %s/%s: %w", b.name, name, err)
	}
	return v, nil
}

// List returns the stored names in sorted order.
func (b *Bucket[T]) List(ctx context.Context) ([]string, error) {
	ctx, span := b.startSpan(ctx, "List", "")
	defer span.End()

	lister, err := b.kv.ListKeys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return []string{}, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list %s: %w", b.name, err)
	}
	defer lister.Stop()

	names := []string{}
	for key := range lister.Keys() {
		names = append(names, key)
	}
	slices.Sort(names)
	return names, nil
}

func (b *Bucket[T]) Delete(ctx context.Context, name string) error {
	ctx, span := b.startSpan(ctx, "Delete", name)
	defer span.End()

	if err := checkName(name); err != nil {
		return err
	}
	if _, err := b.kv.Get(ctx, name); errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("%s/%s: %w", b.name, name, ErrNotFound)
	}
	if err := b.kv.Delete(ctx, name); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete %s/%s: %w", b.name, name, err)
	}
	return nil
}

type Repository struct {
	Pizzas     *Bucket[domain.Pizza]
	Orders     *Bucket[domain.SavedOrder]
	OrderInfos *Bucket[domain.OrderInfo]
	Payments   *Bucket[domain.PaymentInfo]
	People     *Bucket[domain.PersonalInfo]
}

// New opens the buckets, creating any that are missing.
func New(ctx context.Context, js jetstream.JetStream) (*Repository, error) {
	open := func(bucket string) (jetstream.KeyValue, error) {
		kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "cassa " + bucket,
			History:     5,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to open key value bucket", slog.String("bucket", bucket), slog.Any("err", err))
			return nil, err
		}
		return kv, nil
	}

	pizzas, err := open(BucketPizzas)
	if err != nil {
		return nil, err
	}
	orders, err := open(BucketOrders)
	if err != nil {
		return nil, err
	}
	infos, err := open(BucketOrderInfos)
	if err != nil {
		return nil, err
	}
	payments, err := open(BucketPayments)
	if err != nil {
		return nil, err
	}
	people, err := open(BucketPeople)
	if err != nil {
		return nil, err
	}
	return newRepository(pizzas, orders, infos, payments, people), nil
}

func newRepository(pizzas, orders, infos, payments, people KeyValue) *Repository {
	return &Repository{
		Pizzas:     newBucket(BucketPizzas, pizzas, codec.MarshalPizza, codec.UnmarshalPizza),
		Orders:     newBucket(BucketOrders, orders, codec.MarshalSavedOrder, codec.UnmarshalSavedOrder),
		OrderInfos: newBucket(BucketOrderInfos, infos, codec.MarshalOrderInfo, codec.UnmarshalOrderInfo),
		Payments:   newBucket(BucketPayments, payments, codec.MarshalPaymentInfo, codec.UnmarshalPaymentInfo),
		People:     newBucket(BucketPeople, people, codec.MarshalPersonalInfo, codec.UnmarshalPersonalInfo),
	}
}

// ResolveOrder loads a saved order and the pizzas it names.
func (r *Repository) ResolveOrder(ctx context.Context, name string) (domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Repository.ResolveOrder", trace.WithAttributes(
		attribute.String("repository.key", name),
	))
	defer span.End()

	saved, err := r.Orders.Load(ctx, name)
	if err != nil {
		return domain.Order{}, err
	}
	pizzas := make([]domain.Pizza, 0, len(saved.Pizzas))
	for _, pizzaName := range saved.Pizzas {
		p, err := r.Pizzas.Load(ctx, pizzaName)
		if err != nil {
			return domain.Order{}, fmt.Errorf("order %s: %w", name, err)
		}
		pizzas = append(pizzas, p)
	}
	return domain.Order{
		Pizzas:    pizzas,
		Coupons:   saved.Coupons,
		OrderInfo: saved.OrderInfo,
		Payment:   saved.Payment,
	}, nil
}
