// Package cart drives an order through the remote store's validate, price
// and place calls, keeping the local product list in sync with the server.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/taldoflemis/cassa/domain"
	"github.com/taldoflemis/cassa/wire"
)

var tracer = otel.Tracer("cart")

const (
	MsgCartEmpty        = "Cart is empty"
	MsgOrderIDMismatch  = "Order ID mismatch."
	MsgProductCount     = "Product count mismatch."
	MsgProductMismatch  = "Product mismatch."
	MsgCouponPrefix     = "Coupon not fulfilled: "
	MsgNotPriced        = "Order was not priced."
	MsgAlreadyPlaced    = "Order was already placed."
	MsgOrderPlaced      = "Order was placed."
	waitTimeUnitsSuffix = " minutes"
)

// OrderingAPI is the remote store. A transport failure is returned as an
// error; a rejected call comes back as a Response with Status -1.
type OrderingAPI interface {
	ValidateOrder(ctx context.Context, order wire.Order) (wire.Response, error)
	PriceOrder(ctx context.Context, order wire.Order) (wire.Response, error)
	PlaceOrder(ctx context.Context, order wire.Order) (wire.Response, error)
}

// Failure is a recoverable protocol result. The session stays usable and the
// caller may retry from the current state.
type Failure struct {
	Message string
}

func (f *Failure) Error() string { return f.Message }

func fail(msg string) error { return &Failure{Message: msg} }

// IsFailure reports whether err is a protocol Failure rather than a
// transport error.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

type State int

const (
	StateEmpty State = iota
	StateBuilding
	StatePriced
	StatePlaced
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateBuilding:
		return "Building"
	case StatePriced:
		return "Priced"
	case StatePlaced:
		return "Placed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type AddResult struct {
	ProductCount int
	OrderID      string
}

type Summary struct {
	OrderID  string
	Products []wire.Product
	Total    decimal.Decimal
	WaitTime string
}

// Session is one order in progress. Every call holds the session lock for
// its whole duration, so concurrent callers are serialized.
type Session struct {
	mu       sync.Mutex
	api      OrderingAPI
	info     domain.OrderInfo
	products []wire.Product
	coupons  []domain.Coupon
	orderID  string
	price    decimal.Decimal
	waitTime string
	state    State
}

func NewSession(api OrderingAPI, info domain.OrderInfo) *Session {
	return &Session{api: api, info: info}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) OrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderID
}

func (s *Session) Products() []wire.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.products)
}

func (s *Session) Coupons() []domain.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.coupons)
}

// AddCoupon and RemoveCoupon make no remote call. A change to the coupon set
// drops the cached price so the order must be summarized again.
func (s *Session) AddCoupon(c domain.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := domain.AddCoupon(s.coupons, c)
	if len(next) != len(s.coupons) {
		s.coupons = next
		s.invalidatePrice()
	}
}

func (s *Session) RemoveCoupon(c domain.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := domain.RemoveCoupon(s.coupons, c)
	if len(next) != len(s.coupons) {
		s.coupons = next
		s.invalidatePrice()
	}
}

func (s *Session) invalidatePrice() {
	s.price = decimal.Zero
	s.waitTime = ""
	if s.state == StatePriced {
		s.state = StateBuilding
	}
}

// AddPizza validates the cart with p appended. On success the server's
// order id and product list replace the local ones.
func (s *Session) AddPizza(ctx context.Context, p domain.Pizza) (AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "Session.AddPizza", trace.WithAttributes(
		attribute.String("cart.order_id", s.orderID),
		attribute.Int("cart.products", len(s.products)),
	))
	defer span.End()

	if s.state == StatePlaced {
		return AddResult{}, fail(MsgAlreadyPlaced)
	}

	products := append(slices.Clone(s.products), wire.FromPizza(p, len(s.products)+1))
	order := s.order(products)

	resp, err := s.api.ValidateOrder(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AddResult{}, fmt.Errorf("validate order: %w", err)
	}
	if resp.Status == wire.StatusFailure {
		slog.WarnContext(ctx, "store rejected order", slog.String("status-items", resp.StatusMessages()))
		span.SetStatus(codes.Error, resp.StatusMessages())
		return AddResult{}, fail(resp.StatusMessages())
	}

	s.orderID = resp.Order.OrderID
	s.products = wire.NormalizeProducts(resp.Order.Products)
	s.price = decimal.Zero
	s.waitTime = ""
	s.state = StateBuilding

	slog.DebugContext(ctx, "pizza added", slog.String("order-id", s.orderID), slog.Int("products", len(s.products)))
	return AddResult{ProductCount: len(s.products), OrderID: s.orderID}, nil
}

// GetSummary prices the cart and checks that the priced order is the one
// the session holds.
func (s *Session) GetSummary(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "Session.GetSummary", trace.WithAttributes(
		attribute.String("cart.order_id", s.orderID),
		attribute.Int("cart.products", len(s.products)),
	))
	defer span.End()

	if s.state == StatePlaced {
		return Summary{}, fail(MsgAlreadyPlaced)
	}
	if s.orderID == "" || len(s.products) == 0 {
		return Summary{}, fail(MsgCartEmpty)
	}

	s.invalidatePrice()

	order := s.order(s.products)
	order.Coupons = wire.CouponsFrom(s.coupons)

	resp, err := s.api.PriceOrder(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Summary{}, fmt.Errorf("price order: %w", err)
	}
	if err := s.checkPriced(resp); err != nil {
		slog.WarnContext(ctx, "priced order does not match cart", slog.Any("err", err))
		span.SetStatus(codes.Error, err.Error())
		return Summary{}, err
	}

	s.price = resp.Order.Amounts.Payment.Decimal
	s.waitTime = resp.Order.EstimatedWaitMinutes + waitTimeUnitsSuffix
	s.state = StatePriced

	span.SetAttributes(attribute.String("cart.total", s.price.StringFixed(2)))
	return Summary{
		OrderID:  s.orderID,
		Products: slices.Clone(s.products),
		Total:    s.price,
		WaitTime: s.waitTime,
	}, nil
}

func (s *Session) checkPriced(resp wire.Response) error {
	if resp.Status == wire.StatusFailure {
		return fail(resp.StatusMessages())
	}
	priced := resp.Order
	if priced.OrderID != s.orderID {
		return fail(MsgOrderIDMismatch)
	}
	if len(priced.Products) != len(s.products) {
		return fail(MsgProductCount)
	}
	if !wire.ProductsEqual(priced.Products, s.products) {
		return fail(MsgProductMismatch)
	}
	for _, c := range priced.Coupons {
		if c.Status != 0 {
			return fail(MsgCouponPrefix + c.Code)
		}
	}
	// A zero total is treated as unpriced, even one reached through
	// coupons, because PlaceOrder reads a zero cached price as not priced.
	if priced.Amounts == nil || !priced.Amounts.Payment.IsPositive() {
		return fail(MsgNotPriced)
	}
	return nil
}

// PlaceOrder places the priced cart and pays the cached total. It refuses
// to run unless GetSummary succeeded since the cart last changed.
func (s *Session) PlaceOrder(ctx context.Context, person domain.PersonalInfo, payment domain.PaymentInfo) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "Session.PlaceOrder", trace.WithAttributes(
		attribute.String("cart.order_id", s.orderID),
		attribute.String("cart.total", s.price.StringFixed(2)),
	))
	defer span.End()

	if s.state == StatePlaced {
		return "", fail(MsgAlreadyPlaced)
	}
	if len(s.products) == 0 || s.orderID == "" || s.price.IsZero() {
		return "", fail(MsgCartEmpty)
	}

	order := s.order(s.products)
	order.Coupons = wire.CouponsFrom(s.coupons)
	order.FirstName = person.FirstName()
	order.LastName = person.LastName()
	order.Email = person.Email()
	order.Phone = person.Phone()
	order.Payments = []wire.Payment{wire.PaymentFrom(payment, s.price)}

	resp, err := s.api.PlaceOrder(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("place order: %w", err)
	}
	if resp.Status == wire.StatusFailure {
		msg := resp.StatusMessages()
		slog.WarnContext(ctx, "store refused to place order", slog.String("order-id", s.orderID), slog.String("status-items", msg))
		span.SetStatus(codes.Error, msg)
		return "", fail(msg)
	}

	s.state = StatePlaced
	slog.InfoContext(ctx, "order placed", slog.String("order-id", s.orderID), slog.String("total", s.price.StringFixed(2)))
	return MsgOrderPlaced, nil
}

// order builds the request fields shared by every call.
func (s *Session) order(products []wire.Product) wire.Order {
	o := wire.NewOrder()
	o.OrderID = s.orderID
	o.StoreID = s.info.StoreID()
	o.Products = products

	method := s.info.ServiceMethod()
	o.ServiceMethod = wire.ServiceMethodName(method)
	if d, ok := method.(domain.Delivery); ok {
		addr := wire.AddressFrom(d.Address)
		o.Address = &addr
	}
	if later, ok := s.info.Timing().(domain.Later); ok {
		o.FutureOrderTime = NextQuarterHour(later.Time).Format(wire.FutureOrderTimeLayout)
	}
	return o
}

// NextQuarterHour moves t forward to the next quarter hour, dropping
// seconds. A time already on a quarter hour moves a full fifteen minutes.
func NextQuarterHour(t time.Time) time.Time {
	add := 15 - t.Minute()%15
	base := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
	return base.Add(time.Duration(add) * time.Minute)
}
