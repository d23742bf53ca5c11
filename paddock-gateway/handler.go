package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
	healthgo "github.com/hellofresh/health-go/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/taldoflemis/cassa/domain"
	"github.com/taldoflemis/cassa/events"
	"github.com/taldoflemis/cassa/repository"
)

var tracer = otel.Tracer("paddock-gateway")

type OrderPubSubber interface {
	PubOrderEvent(ctx context.Context, ev events.OrderEvent) error
	// SubLiveOrders returns a feed of every order event and a function that
	// ends the subscription.
	SubLiveOrders(ctx context.Context) (<-chan events.OrderEvent, func(), error)
}

// GoChannelOrderPubSubber fans events out to in-process subscribers. It is
// used when the gateway runs without NATS.
type GoChannelOrderPubSubber struct {
	liveEventSubscribers map[chan events.OrderEvent]struct{}
	mu                   sync.Mutex
}

func NewGoChannelOrderPubSubber() *GoChannelOrderPubSubber {
	return &GoChannelOrderPubSubber{
		liveEventSubscribers: make(map[chan events.OrderEvent]struct{}),
	}
}

var _ OrderPubSubber = (*GoChannelOrderPubSubber)(nil)

// PubOrderEvent implements OrderPubSubber.
func (g *GoChannelOrderPubSubber) PubOrderEvent(ctx context.Context, ev events.OrderEvent) error {
	ctx, span := tracer.Start(ctx, "GoChannelOrderPubSubber.PubOrderEvent")
	defer span.End()

	slog.InfoContext(ctx, "publishing order event", slog.String("order", ev.Order), slog.String("kind", string(ev.Kind)))

	g.mu.Lock()
	defer g.mu.Unlock()

	for subChan := range g.liveEventSubscribers {
		select {
		case subChan <- ev:
		default:
			slog.WarnContext(ctx, "live feed subscriber is behind, dropping event", slog.String("event-id", ev.EventID))
		}
	}

	return nil
}

// SubLiveOrders implements OrderPubSubber.
func (g *GoChannelOrderPubSubber) SubLiveOrders(ctx context.Context) (<-chan events.OrderEvent, func(), error) {
	_, span := tracer.Start(ctx, "GoChannelOrderPubSubber.SubLiveOrders")
	defer span.End()

	ch := make(chan events.OrderEvent, 16)
	g.mu.Lock()
	g.liveEventSubscribers[ch] = struct{}{}
	g.mu.Unlock()

	unsub := func() {
		g.mu.Lock()
		delete(g.liveEventSubscribers, ch)
		g.mu.Unlock()
	}
	return ch, unsub, nil
}

type MainHandler struct {
	sessions       *SessionRegistry
	repo           *repository.Repository
	orderPubSubber OrderPubSubber
	health         *healthgo.Health
	upgrader       websocket.Upgrader
}

func NewMainHandler(
	e *echo.Echo,
	settings *Settings,
	sessions *SessionRegistry,
	repo *repository.Repository,
	orderPubSubber OrderPubSubber,
	health *healthgo.Health,
) *MainHandler {
	logger := slog.Default()
	e.HideBanner = true
	e.Validator = newRequestValidator()
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: settings.HTTP.CORS.Origins,
		AllowMethods: settings.HTTP.CORS.Methods,
		AllowHeaders: settings.HTTP.CORS.Headers,
	}))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(otelecho.Middleware(settings.App.Name,
		otelecho.WithMetricAttributeFn(func(r *http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("client.ip", r.RemoteAddr),
				attribute.String("user.agent", r.UserAgent()),
			}
		}),
		otelecho.WithEchoMetricAttributeFn(func(c echo.Context) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("handler.path", c.Path()),
				attribute.String("handler.method", c.Request().Method),
			}
		}),
	))

	origins := settings.HTTP.CORS.Origins
	handler := &MainHandler{
		sessions:       sessions,
		repo:           repo,
		orderPubSubber: orderPubSubber,
		health:         health,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(origins, origin)
			},
		},
	}

	e.GET("/healthz", handler.HealthCheck)
	v1 := e.Group(settings.HTTP.Prefix)

	v1.POST("/carts", handler.CreateCart)
	v1.GET("/carts/:id", handler.GetCart)
	v1.DELETE("/carts/:id", handler.DeleteCart)
	v1.POST("/carts/:id/pizzas", handler.AddPizza)
	v1.POST("/carts/:id/coupons", handler.AddCoupon)
	v1.DELETE("/carts/:id/coupons/:code", handler.RemoveCoupon)
	v1.GET("/carts/:id/summary", handler.GetSummary)
	v1.POST("/carts/:id/place", handler.PlaceOrder)

	v1.GET("/orders/sse", handler.GetLiveOrdersSSE)
	v1.GET("/orders/ws", handler.GetLiveOrdersWS)
	v1.POST("/orders/:name/submit", handler.SubmitOrder)

	registerDocuments(v1, "/pizzas", repo.Pizzas)
	registerDocuments(v1, "/orders", repo.Orders)
	registerDocuments(v1, "/orderinfos", repo.OrderInfos)
	registerDocuments(v1, "/payments", repo.Payments)
	registerDocuments(v1, "/people", repo.People)

	return handler
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		slog.ErrorContext(c.Request().Context(), "failed to bind request", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	return c.Validate(req)
}

// resolve decodes an inline document or loads the one saved under name.
func resolve[T any](ctx context.Context, bucket *repository.Bucket[T], inline json.RawMessage, name string) (T, error) {
	if name != "" {
		return bucket.Load(ctx, name)
	}
	return bucket.Unmarshal(inline)
}

// CreateCart godoc
//
// @Summary Open a cart for an order info
// @Tags cart
// @Accept json
// @Produce json
// @Param cart body CreateCartRequest true "Inline or saved order info"
// @Success 201 {object} CartResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ValidationErrorResponse
// @Router /v1/carts [post]
func (h *MainHandler) CreateCart(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	info, err := resolve(ctx, h.repo.OrderInfos, req.OrderInfo, req.SavedOrderInfo)
	if err != nil {
		return respondError(c, err)
	}

	id, s := h.sessions.Create(info)
	slog.InfoContext(ctx, "opened cart", slog.String("cart-id", id), slog.String("store-id", info.StoreID()))
	return c.JSON(http.StatusCreated, newCartResponse(id, s))
}

// GetCart godoc
//
// @Summary Show a cart
// @Tags cart
// @Produce json
// @Param id path string true "Cart ID"
// @Success 200 {object} CartResponse
// @Failure 404 {object} ErrorResponse
// @Router /v1/carts/{id} [get]
func (h *MainHandler) GetCart(c echo.Context) error {
	id := c.Param("id")
	s, ok := h.sessions.Get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "cart not found"})
	}
	return c.JSON(http.StatusOK, newCartResponse(id, s))
}

// DeleteCart godoc
//
// @Summary Drop a cart
// @Tags cart
// @Param id path string true "Cart ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /v1/carts/{id} [delete]
func (h *MainHandler) DeleteCart(c echo.Context) error {
	if !h.sessions.Delete(c.Param("id")) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "cart not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

// AddPizza godoc
//
// @Summary Add a pizza to a cart
// @Description The store validates the whole cart with the new pizza appended.
// @Tags cart
// @Accept json
// @Produce json
// @Param id path string true "Cart ID"
// @Param pizza body AddPizzaRequest true "Inline or saved pizza"
// @Success 200 {object} AddPizzaResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ValidationErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /v1/carts/{id}/pizzas [post]
func (h *MainHandler) AddPizza(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	s, ok := h.sessions.Get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "cart not found"})
	}

	var req AddPizzaRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	pizza, err := resolve(ctx, h.repo.Pizzas, req.Pizza, req.SavedPizza)
	if err != nil {
		return respondError(c, err)
	}

	res, err := s.AddPizza(ctx, pizza)
	if err != nil {
		return respondError(c, storeCall(err))
	}
	return c.JSON(http.StatusOK, AddPizzaResponse{ProductCount: res.ProductCount, OrderID: res.OrderID})
}

// AddCoupon godoc
//
// @Summary Add a coupon to a cart
// @Tags cart
// @Accept json
// @Produce json
// @Param id path string true "Cart ID"
// @Param coupon body CouponRequest true "Coupon"
// @Success 200 {object} CartResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ValidationErrorResponse
// @Router /v1/carts/{id}/coupons [post]
func (h *MainHandler) AddCoupon(c echo.Context) error {
	id := c.Param("id")
	s, ok := h.sessions.Get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "cart not found"})
	}

	var req CouponRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	s.AddCoupon(domain.Coupon{Code: req.Code})
	return c.JSON(http.StatusOK, newCartResponse(id, s))
}

// RemoveCoupon godoc
//
// @Summary Remove a coupon from a cart
// @Tags cart
// @Produce json
// @Param id path string true "Cart ID"
// @Param code path string true "Coupon code"
// @Success 200 {object} CartResponse
// @Failure 404 {object} ErrorResponse
// @Router /v1/carts/{id}/coupons/{code} [delete]
func (h *MainHandler) RemoveCoupon(c echo.Context) error {
	id := c.Param("id")
	s, ok := h.sessions.Get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "cart not found"})
	}
	s.RemoveCoupon(domain.Coupon{Code: c.Param("code")})
	return c.JSON(http.StatusOK, newCartResponse(id, s))
}

// GetSummary godoc
//
// @Summary Price a cart
// @Tags cart
// @Produce json
// @Param id path string true "Cart ID"
// @Success 200 {object} SummaryResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /v1/carts/{id}/summary [get]
func (h *MainHandler) GetSummary(c echo.Context) error {
	s, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "cart not found"})
	}
	summary, err := s.GetSummary(c.Request().Context())
	if err != nil {
		return respondError(c, storeCall(err))
	}
	return c.JSON(http.StatusOK, newSummaryResponse(summary))
}

// PlaceOrder godoc
//
// @Summary Place a priced cart
// @Tags cart
// @Accept json
// @Produce json
// @Param id path string true "Cart ID"
// @Param order body PlaceRequest true "Customer and payment"
// @Success 200 {object} PlaceResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ValidationErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /v1/carts/{id}/place [post]
func (h *MainHandler) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	s, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "cart not found"})
	}

	var req PlaceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	person, err := resolve(ctx, h.repo.People, req.Personal, req.SavedPerson)
	if err != nil {
		return respondError(c, err)
	}
	payment, err := resolve(ctx, h.repo.Payments, req.Payment, req.SavedPayment)
	if err != nil {
		return respondError(c, err)
	}

	msg, err := s.PlaceOrder(ctx, person, payment)
	if err != nil {
		return respondError(c, storeCall(err))
	}
	return c.JSON(http.StatusOK, PlaceResponse{Message: msg})
}

// SubmitOrder godoc
//
// @Summary Hand a saved order to maestro
// @Description The order and person must already be saved. Progress is reported on the live feeds.
// @Tags order
// @Accept json
// @Produce json
// @Param name path string true "Saved order name"
// @Param submit body SubmitOrderRequest true "Saved person name"
// @Success 202 {object} SubmitOrderResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ValidationErrorResponse
// @Router /v1/orders/{name}/submit [post]
func (h *MainHandler) SubmitOrder(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("name")

	var req SubmitOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	if _, err := h.repo.ResolveOrder(ctx, name); err != nil {
		return respondError(c, err)
	}
	if _, err := h.repo.People.Load(ctx, req.Person); err != nil {
		return respondError(c, err)
	}

	ev := events.New(events.KindSubmitted, name, req.Person)
	if err := h.orderPubSubber.PubOrderEvent(ctx, ev); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, SubmitOrderResponse{
		EventID:     ev.EventID,
		Order:       ev.Order,
		SubmittedAt: ev.At,
	})
}

// GetLiveOrdersSSE godoc
//
// @Summary Get live order events via Server-Sent Events (SSE)
// @Tags order
// @Produce  text/event-stream
// @Success 200 {object} events.OrderEvent
// @Router /v1/orders/sse [get]
func (h *MainHandler) GetLiveOrdersSSE(c echo.Context) error {
	ctx := c.Request().Context()
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		slog.ErrorContext(ctx, "streaming unsupported by response writer")
		return echo.NewHTTPError(http.StatusInternalServerError, "Streaming unsupported")
	}

	ch, unsub, err := h.orderPubSubber.SubLiveOrders(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to subscribe to live orders", slog.Any("err", err))
		return err
	}
	defer unsub()

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "client closed connection")
			return nil
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				slog.ErrorContext(ctx, "marshal order event for SSE", slog.Any("err", err))
				continue
			}
			if _, err := c.Response().Write([]byte("event: " + string(ev.Kind) + "\ndata: " + string(data) + "\n\n")); err != nil {
				slog.ErrorContext(ctx, "write SSE", slog.Any("err", err))
				return err
			}
			flusher.Flush()
		}
	}
}

// GetLiveOrdersWS godoc
//
// @Summary Get live order events over a websocket
// @Tags order
// @Success 101 {object} events.OrderEvent
// @Router /v1/orders/ws [get]
func (h *MainHandler) GetLiveOrdersWS(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.ErrorContext(c.Request().Context(), "failed to upgrade websocket", slog.Any("err", err))
		return nil
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	ch, unsub, err := h.orderPubSubber.SubLiveOrders(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to subscribe to live orders", slog.Any("err", err))
		return nil
	}
	defer unsub()

	// The read loop only notices the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "websocket client went away")
			return nil
		case ev := <-ch:
			if err := ws.WriteJSON(ev); err != nil {
				slog.ErrorContext(ctx, "write websocket", slog.Any("err", err))
				return nil
			}
		}
	}
}

// HealthCheck godoc
//
// @Summary Check the health of the service
// @Tags health
// @Produce json
// @Success 200 {object} healthgo.Check
// @Failure 503 {object} healthgo.Check
// @Router /healthz [get]
func (h *MainHandler) HealthCheck(c echo.Context) error {
	check := h.health.Measure(c.Request().Context())

	statusCode := http.StatusOK
	if check.Status != healthgo.StatusOK {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, check)
}
