package main

import (
	"hash/fnv"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/taldoflemis/cassa/domain"
	"github.com/taldoflemis/cassa/pacchetto"
	"github.com/taldoflemis/cassa/wire"
)

var tracer = otel.Tracer("panettiere")

type storedOrder struct {
	storeID string
	placed  bool
}

// storeHandler emulates the remote ordering API. It keeps the quirks clients
// have to cope with: default cheese and sauce are left out of product
// options and removed cheese comes back as a zero amount.
type storeHandler struct {
	settings     StoreSettings
	productSizes map[string]string
	sizePrices   map[string]decimal.Decimal
	surcharge    decimal.Decimal
	coupons      map[string]decimal.Decimal

	mu     sync.Mutex
	orders map[string]*storedOrder
}

func newStoreHandler(settings StoreSettings) (*storeHandler, error) {
	h := &storeHandler{
		settings:     settings,
		productSizes: map[string]string{},
		sizePrices:   map[string]decimal.Decimal{},
		coupons:      map[string]decimal.Decimal{},
		orders:       map[string]*storedOrder{},
	}

	for size := domain.Size(0); size.IsValid(); size++ {
		for _, crust := range domain.CrustsForSize(size) {
			code := wire.ProductCode(size, crust)
			h.productSizes[code] = code[:2]
		}
	}

	var err error
	for size, price := range settings.SizePrices {
		if h.sizePrices[size], err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
	}
	if h.surcharge, err = decimal.NewFromString(settings.ToppingSurcharge); err != nil {
		return nil, err
	}
	for code, discount := range settings.Coupons {
		if h.coupons[code], err = decimal.NewFromString(discount); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *storeHandler) register(g *echo.Group) {
	g.POST("/validate-order", h.ValidateOrder)
	g.POST("/price-order", h.PriceOrder)
	g.POST("/place-order", h.PlaceOrder)
}

func rejected(order wire.Order, items ...wire.StatusItem) wire.Response {
	return wire.Response{Order: order, Status: wire.StatusFailure, StatusItems: items}
}

func accepted(order wire.Order) wire.Response {
	return wire.Response{Order: order, Status: 1, StatusItems: []wire.StatusItem{}}
}

func (h *storeHandler) bind(c echo.Context) (wire.Order, error) {
	var req wire.Request
	if err := c.Bind(&req); err != nil {
		slog.ErrorContext(c.Request().Context(), "failed to bind request", slog.Any("err", err))
		return wire.Order{}, echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	return req.Order, nil
}

// checkProducts returns a status item for the first product the store does
// not sell.
func (h *storeHandler) checkProducts(products []wire.Product) (wire.StatusItem, bool) {
	for _, p := range products {
		if _, ok := h.productSizes[p.Code]; !ok || p.Qty < 1 {
			return wire.StatusItem{Code: "InvalidProduct", Message: "Unknown product " + p.Code}, false
		}
	}
	return wire.StatusItem{}, true
}

// storeView rewrites products the way the store echoes them back.
func storeView(products []wire.Product) []wire.Product {
	out := make([]wire.Product, 0, len(products))
	for _, p := range products {
		p.Options = p.Options.Clone()
		if p.Options == nil {
			p.Options = wire.Options{}
		}
		for _, code := range []string{wire.CheeseCode, wire.SauceCode} {
			v, ok := p.Options[code]
			switch {
			case ok && v == wire.WholeAmount("1"):
				delete(p.Options, code)
			case ok && v.Removed && code == wire.CheeseCode:
				p.Options[code] = wire.OptionValue{Whole: "0"}
			}
		}
		out = append(out, p)
	}
	return out
}

// ValidateOrder assigns an order id on first contact.
func (h *storeHandler) ValidateOrder(c echo.Context) error {
	order, err := h.bind(c)
	if err != nil {
		return err
	}
	ctx, span := tracer.Start(c.Request().Context(), "storeHandler.ValidateOrder", trace.WithAttributes(
		attribute.String("cassa.order_id", order.OrderID),
		attribute.Int("cassa.products", len(order.Products)),
	))
	defer span.End()

	if order.StoreID == "" {
		return c.JSON(http.StatusOK, rejected(order, wire.StatusItem{Code: "StoreNotFound", Message: "Store ID is required"}))
	}
	if item, ok := h.checkProducts(order.Products); !ok {
		return c.JSON(http.StatusOK, rejected(order, item))
	}

	h.mu.Lock()
	stored, known := h.orders[order.OrderID]
	if !known {
		order.OrderID = uuid.NewString()
		stored = &storedOrder{storeID: order.StoreID}
		h.orders[order.OrderID] = stored
	}
	placed := stored.placed
	h.mu.Unlock()

	if placed {
		return c.JSON(http.StatusOK, rejected(order, wire.StatusItem{Code: "OrderAlreadyPlaced"}))
	}

	slog.InfoContext(ctx, "validated order", slog.String("order-id", order.OrderID), slog.Int("products", len(order.Products)))
	order.Products = storeView(order.Products)
	return c.JSON(http.StatusOK, accepted(order))
}

func (h *storeHandler) known(orderID string) (*storedOrder, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, ok := h.orders[orderID]
	return o, ok
}

func (h *storeHandler) price(products []wire.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		each := h.sizePrices[h.productSizes[p.Code]]
		for code, v := range p.Options {
			if code == wire.CheeseCode || code == wire.SauceCode || v.Removed {
				continue
			}
			switch {
			case v.Whole != "":
				each = each.Add(h.surcharge)
			case v.Left != "" || v.Right != "":
				each = each.Add(h.surcharge.Div(decimal.NewFromInt(2)))
			}
		}
		total = total.Add(each.Mul(decimal.NewFromInt(int64(p.Qty))))
	}
	return total
}

func (h *storeHandler) PriceOrder(c echo.Context) error {
	order, err := h.bind(c)
	if err != nil {
		return err
	}
	ctx, span := tracer.Start(c.Request().Context(), "storeHandler.PriceOrder", trace.WithAttributes(
		attribute.String("cassa.order_id", order.OrderID),
	))
	defer span.End()

	stored, ok := h.known(order.OrderID)
	if !ok {
		return c.JSON(http.StatusOK, rejected(order, wire.StatusItem{Code: "OrderNotFound", Message: "Unknown order " + order.OrderID}))
	}
	if stored.storeID != order.StoreID {
		return c.JSON(http.StatusOK, rejected(order, wire.StatusItem{Code: "StoreMismatch", Message: "Order belongs to another store"}))
	}
	if item, ok := h.checkProducts(order.Products); !ok {
		return c.JSON(http.StatusOK, rejected(order, item))
	}

	total := h.price(order.Products)
	for i, coupon := range order.Coupons {
		discount, ok := h.coupons[coupon.Code]
		if !ok {
			order.Coupons[i].Status = 1
			continue
		}
		order.Coupons[i].Status = 0
		total = total.Add(discount)
	}
	if total.IsNegative() {
		total = decimal.Zero
	}

	order.Products = storeView(order.Products)
	order.Amounts = &wire.Amounts{Payment: wire.NewMoney(total.Round(2))}
	order.EstimatedWaitMinutes = h.settings.EstimatedWaitMinutes

	slog.InfoContext(ctx, "priced order", slog.String("order-id", order.OrderID), slog.String("total", total.StringFixed(2)))
	return c.JSON(http.StatusOK, accepted(order))
}

func (h *storeHandler) PlaceOrder(c echo.Context) error {
	order, err := h.bind(c)
	if err != nil {
		return err
	}
	ctx, span := tracer.Start(c.Request().Context(), "storeHandler.PlaceOrder", trace.WithAttributes(
		attribute.String("cassa.order_id", order.OrderID),
	))
	defer span.End()

	stored, ok := h.known(order.OrderID)
	if !ok {
		return c.JSON(http.StatusOK, rejected(order, wire.StatusItem{Code: "OrderNotFound", Message: "Unknown order " + order.OrderID}))
	}

	var items []wire.StatusItem
	if len(order.Payments) == 0 {
		items = append(items, wire.StatusItem{Code: "PaymentRequired", Message: "A payment is required"})
	}
	if strings.TrimSpace(order.Email) == "" || strings.TrimSpace(order.Phone) == "" {
		items = append(items, wire.StatusItem{Code: "CustomerIncomplete", Message: "Email and phone are required"})
	}
	if pacchetto.Chance(seedOf(order.OrderID), h.settings.PlaceFailureProbability) {
		items = append(items, wire.StatusItem{Code: "StoreBusy", Message: "Store is too busy to take the order"})
	}
	if len(items) > 0 {
		slog.WarnContext(ctx, "rejected order", slog.String("order-id", order.OrderID), slog.Any("items", items))
		return c.JSON(http.StatusOK, rejected(order, items...))
	}

	h.mu.Lock()
	already := stored.placed
	stored.placed = true
	h.mu.Unlock()
	if already {
		return c.JSON(http.StatusOK, rejected(order, wire.StatusItem{Code: "OrderAlreadyPlaced", Message: "Order was already placed"}))
	}

	slog.InfoContext(ctx, "placed order", slog.String("order-id", order.OrderID))
	return c.JSON(http.StatusOK, accepted(order))
}

func seedOf(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
