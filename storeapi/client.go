// Package storeapi is the HTTP client for the remote ordering API.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/taldoflemis/cassa/cart"
	"github.com/taldoflemis/cassa/pacchetto"
	"github.com/taldoflemis/cassa/wire"
)

var tracer = otel.Tracer("storeapi")

const (
	PathValidate = "/power/validate-order"
	PathPrice    = "/power/price-order"
	PathPlace    = "/power/place-order"

	maxResponseBytes = 1 << 20
)

// StatusError is a non-2xx answer. The body is not kept.
type StatusError struct {
	Operation  string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: remote answered %d %s", e.Operation, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type Client struct {
	baseURL     string
	http        *http.Client
	maxTries    uint
	backoffBase time.Duration
}

var _ cart.OrderingAPI = (*Client)(nil)

func New(cfg pacchetto.StoreAPISettings) *Client {
	return NewWithHTTPClient(cfg, &http.Client{
		Timeout: time.Duration(cfg.TimeoutInSeconds) * time.Second,
	})
}

func NewWithHTTPClient(cfg pacchetto.StoreAPISettings, hc *http.Client) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        hc,
		maxTries:    uint(cfg.Retries) + 1,
		backoffBase: time.Duration(cfg.ExponentialBackoffBaseInMilliseconds) * time.Millisecond,
	}
}

// ValidateOrder and PriceOrder are idempotent and retried on network errors
// and 5xx/429 answers.
func (c *Client) ValidateOrder(ctx context.Context, order wire.Order) (wire.Response, error) {
	return c.retry(ctx, "validate", PathValidate, order)
}

func (c *Client) PriceOrder(ctx context.Context, order wire.Order) (wire.Response, error) {
	return c.retry(ctx, "price", PathPrice, order)
}

// PlaceOrder is sent once. A retried place could charge twice.
func (c *Client) PlaceOrder(ctx context.Context, order wire.Order) (wire.Response, error) {
	return c.do(ctx, "place", PathPlace, order)
}

func (c *Client) retry(ctx context.Context, op, path string, order wire.Order) (wire.Response, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.backoffBase

	attempt := 0
	return backoff.Retry(ctx, func() (wire.Response, error) {
		attempt++
		resp, err := c.do(ctx, op, path, order)
		if err == nil {
			return resp, nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.retryable() {
			return wire.Response{}, backoff.Permanent(err)
		}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || errors.Is(err, context.Canceled) {
			return wire.Response{}, backoff.Permanent(err)
		}

		slog.WarnContext(ctx, "store call failed, retrying",
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.Any("err", err),
		)
		return wire.Response{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
	)
}

func (c *Client) do(ctx context.Context, op, path string, order wire.Order) (wire.Response, error) {
	ctx, span := tracer.Start(ctx, "storeapi."+op, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(
		attribute.String("cassa.order_id", order.OrderID),
		attribute.String("cassa.store_id", order.StoreID),
		attribute.Int("cassa.products", len(order.Products)),
	))
	defer span.End()

	body, err := json.Marshal(wire.Request{Order: order})
	if err != nil {
		return wire.Response{}, fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return wire.Response{}, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	res, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return wire.Response{}, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))
	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(res.Body, maxResponseBytes))
		err := &StatusError{Operation: op, StatusCode: res.StatusCode}
		span.SetStatus(codes.Error, err.Error())
		return wire.Response{}, err
	}

	var out wire.Response
	if err := json.NewDecoder(io.LimitReader(res.Body, maxResponseBytes)).Decode(&out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode response")
		return wire.Response{}, fmt.Errorf("%s: decode response: %w", op, err)
	}

	slog.DebugContext(ctx, "store call done",
		slog.String("operation", op),
		slog.String("order-id", out.Order.OrderID),
		slog.Int("status", out.Status),
	)
	return out, nil
}
