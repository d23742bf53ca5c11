package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	healthgo "github.com/hellofresh/health-go/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taldoflemis/cassa/events"
	"github.com/taldoflemis/cassa/pacchetto"
	"github.com/taldoflemis/cassa/repository"
	"github.com/taldoflemis/cassa/wire"
)

const (
	pepperoniDoc = `{
  "Size": "Large",
  "Crust": "HandTossed",
  "Cheese": "=",
  "Sauce": "=Tomato",
  "Toppings": [
    "A=Pepperoni",
    "L^Mushrooms"
  ],
  "Bake": "Normal",
  "Cut": "Pie",
  "Oregano": false,
  "GarlicCrust": true,
  "Quantity": 2
}`
	carryoutDoc = `{"StoreID":"7890","ServiceMethod":{"Type":"Carryout","PickupLocation":"InStore"},"Timing":{"Type":"Now"}}`
	janeDoc     = `{"FirstName":"Jane","LastName":"Doe","Email":"jane@example.com","Phone":"555-867-5309"}`
	cashDoc     = `{"Type":"PayAtStore"}`
)

// fakeStore answers like a cooperative store: it echoes products back and
// prices every order at 16.50.
type fakeStore struct {
	mu          sync.Mutex
	transport   error
	placeStatus []wire.StatusItem
	placed      int
}

func (f *fakeStore) ValidateOrder(_ context.Context, o wire.Order) (wire.Response, error) {
	if f.transport != nil {
		return wire.Response{}, f.transport
	}
	if o.OrderID == "" {
		o.OrderID = "order-1"
	}
	return wire.Response{Order: o, Status: 1}, nil
}

func (f *fakeStore) PriceOrder(_ context.Context, o wire.Order) (wire.Response, error) {
	if f.transport != nil {
		return wire.Response{}, f.transport
	}
	o.Amounts = &wire.Amounts{Payment: wire.NewMoney(decimal.RequireFromString("16.50"))}
	o.EstimatedWaitMinutes = "10-15"
	return wire.Response{Order: o, Status: 1}, nil
}

func (f *fakeStore) PlaceOrder(_ context.Context, o wire.Order) (wire.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.placeStatus) > 0 {
		return wire.Response{Order: o, Status: wire.StatusFailure, StatusItems: f.placeStatus}, nil
	}
	f.placed++
	return wire.Response{Order: o, Status: 1}, nil
}

type gateway struct {
	e      *echo.Echo
	store  *fakeStore
	repo   *repository.Repository
	pubsub *GoChannelOrderPubSubber
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	settings := &Settings{
		App: pacchetto.AppSettings{Name: "paddock-gateway", Version: "test"},
		HTTP: pacchetto.HTTPSettings{
			Prefix: "/v1",
			CORS: pacchetto.CORSSettings{
				Origins: []string{"http://localhost:3000"},
				Methods: []string{"GET", "POST", "PUT", "DELETE"},
				Headers: []string{"Content-Type"},
			},
		},
	}
	health, err := healthgo.New(healthgo.WithComponent(healthgo.Component{Name: "paddock-gateway"}))
	require.NoError(t, err)

	g := &gateway{
		e:      echo.New(),
		store:  &fakeStore{},
		repo:   repository.NewMemory(),
		pubsub: NewGoChannelOrderPubSubber(),
	}
	sessions := NewSessionRegistry(g.store, time.Hour)
	NewMainHandler(g.e, settings, sessions, g.repo, g.pubsub, health)
	return g
}

func (g *gateway) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	g.e.ServeHTTP(rec, req)
	return rec
}

func (g *gateway) openCart(t *testing.T) string {
	t.Helper()
	rec := g.do(t, http.MethodPost, "/v1/carts", `{"order_info":`+carryoutDoc+`}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.CartID
}

func TestCartFlow(t *testing.T) {
	// Arrange
	g := newGateway(t)
	id := g.openCart(t)

	// Act
	add := g.do(t, http.MethodPost, "/v1/carts/"+id+"/pizzas", `{"pizza":`+pepperoniDoc+`}`)
	coupon := g.do(t, http.MethodPost, "/v1/carts/"+id+"/coupons", `{"code":"1234"}`)
	summary := g.do(t, http.MethodGet, "/v1/carts/"+id+"/summary", "")
	place := g.do(t, http.MethodPost, "/v1/carts/"+id+"/place", `{"personal":`+janeDoc+`,"payment":`+cashDoc+`}`)

	// Assert
	require.Equal(t, http.StatusOK, add.Code, add.Body.String())
	assert.JSONEq(t, `{"product_count":1,"order_id":"order-1"}`, add.Body.String())

	require.Equal(t, http.StatusOK, coupon.Code)
	var cart CartResponse
	require.NoError(t, json.Unmarshal(coupon.Body.Bytes(), &cart))
	assert.Equal(t, []string{"1234"}, cart.Coupons)
	assert.Equal(t, "Building", cart.State)

	require.Equal(t, http.StatusOK, summary.Code, summary.Body.String())
	var sum SummaryResponse
	require.NoError(t, json.Unmarshal(summary.Body.Bytes(), &sum))
	assert.Equal(t, "16.50", sum.Total)
	assert.Equal(t, "10-15 minutes", sum.WaitTime)
	assert.Len(t, sum.Products, 1)

	require.Equal(t, http.StatusOK, place.Code, place.Body.String())
	assert.JSONEq(t, `{"message":"Order was placed."}`, place.Body.String())
	assert.Equal(t, 1, g.store.placed)
}

func TestCartUsesSavedDocuments(t *testing.T) {
	// Arrange
	g := newGateway(t)
	for path, doc := range map[string]string{
		"/v1/pizzas/pepperoni":  pepperoniDoc,
		"/v1/orderinfos/pickup": carryoutDoc,
		"/v1/people/jane":       janeDoc,
		"/v1/payments/cash":     cashDoc,
	} {
		rec := g.do(t, http.MethodPut, path, doc)
		require.Equal(t, http.StatusNoContent, rec.Code, path+": "+rec.Body.String())
	}

	// Act
	open := g.do(t, http.MethodPost, "/v1/carts", `{"saved_order_info":"pickup"}`)
	require.Equal(t, http.StatusCreated, open.Code, open.Body.String())
	var cart CartResponse
	require.NoError(t, json.Unmarshal(open.Body.Bytes(), &cart))
	add := g.do(t, http.MethodPost, "/v1/carts/"+cart.CartID+"/pizzas", `{"saved_pizza":"pepperoni"}`)
	g.do(t, http.MethodGet, "/v1/carts/"+cart.CartID+"/summary", "")
	place := g.do(t, http.MethodPost, "/v1/carts/"+cart.CartID+"/place", `{"saved_person":"jane","saved_payment":"cash"}`)

	// Assert
	assert.Equal(t, http.StatusOK, add.Code, add.Body.String())
	assert.Equal(t, http.StatusOK, place.Code, place.Body.String())
}

func TestPlaceBeforeSummaryIsConflict(t *testing.T) {
	// Arrange
	g := newGateway(t)
	id := g.openCart(t)
	g.do(t, http.MethodPost, "/v1/carts/"+id+"/pizzas", `{"pizza":`+pepperoniDoc+`}`)

	// Act
	rec := g.do(t, http.MethodPost, "/v1/carts/"+id+"/place", `{"personal":`+janeDoc+`,"payment":`+cashDoc+`}`)

	// Assert
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"message":"Cart is empty"}`, rec.Body.String())
}

func TestStoreRefusalIsConflict(t *testing.T) {
	// Arrange
	g := newGateway(t)
	g.store.placeStatus = []wire.StatusItem{{Code: "StoreClosed", Message: "Store is closed"}}
	id := g.openCart(t)
	g.do(t, http.MethodPost, "/v1/carts/"+id+"/pizzas", `{"pizza":`+pepperoniDoc+`}`)
	g.do(t, http.MethodGet, "/v1/carts/"+id+"/summary", "")

	// Act
	rec := g.do(t, http.MethodPost, "/v1/carts/"+id+"/place", `{"personal":`+janeDoc+`,"payment":`+cashDoc+`}`)

	// Assert
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"message":"Store is closed"}`, rec.Body.String())
}

func TestTransportErrorIsBadGateway(t *testing.T) {
	// Arrange
	g := newGateway(t)
	g.store.transport = errors.New("dial tcp: connection refused")
	id := g.openCart(t)

	// Act
	rec := g.do(t, http.MethodPost, "/v1/carts/"+id+"/pizzas", `{"pizza":`+pepperoniDoc+`}`)

	// Assert
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestInvalidDocuments(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantPath string
	}{
		{
			name:     "pizza rule violation",
			method:   http.MethodPut,
			path:     "/v1/pizzas/broken",
			body:     strings.Replace(pepperoniDoc, `"Quantity": 2`, `"Quantity": 0`, 1),
			wantCode: http.StatusUnprocessableEntity,
			wantPath: "Quantity",
		},
		{
			name:     "not json",
			method:   http.MethodPut,
			path:     "/v1/pizzas/broken",
			body:     `{"Size":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad name",
			method:   http.MethodPut,
			path:     "/v1/pizzas/has.dot",
			body:     pepperoniDoc,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "cart without order info",
			method:   http.MethodPost,
			path:     "/v1/carts",
			body:     `{}`,
			wantCode: http.StatusUnprocessableEntity,
			wantPath: "OrderInfo",
		},
		{
			name:     "cart with both order infos",
			method:   http.MethodPost,
			path:     "/v1/carts",
			body:     `{"order_info":` + carryoutDoc + `,"saved_order_info":"pickup"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantPath: "OrderInfo",
		},
		{
			name:     "unknown saved order info",
			method:   http.MethodPost,
			path:     "/v1/carts",
			body:     `{"saved_order_info":"nowhere"}`,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			g := newGateway(t)

			// Act
			rec := g.do(t, tt.method, tt.path, tt.body)

			// Assert
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantPath != "" {
				var errs ValidationErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errs))
				require.NotEmpty(t, errs)
				assert.Equal(t, tt.wantPath, errs[0].Path)
			}
		})
	}
}

func TestDocumentLifecycle(t *testing.T) {
	// Arrange
	g := newGateway(t)

	// Act
	put := g.do(t, http.MethodPut, "/v1/pizzas/pepperoni", pepperoniDoc)
	get := g.do(t, http.MethodGet, "/v1/pizzas/pepperoni", "")
	list := g.do(t, http.MethodGet, "/v1/pizzas", "")
	del := g.do(t, http.MethodDelete, "/v1/pizzas/pepperoni", "")
	again := g.do(t, http.MethodGet, "/v1/pizzas/pepperoni", "")

	// Assert
	assert.Equal(t, http.StatusNoContent, put.Code)
	assert.Equal(t, http.StatusOK, get.Code)
	assert.JSONEq(t, pepperoniDoc, get.Body.String())
	assert.JSONEq(t, `{"names":["pepperoni"]}`, list.Body.String())
	assert.Equal(t, http.StatusNoContent, del.Code)
	assert.Equal(t, http.StatusNotFound, again.Code)
}

func TestSubmitOrderPublishesEvent(t *testing.T) {
	// Arrange
	g := newGateway(t)
	g.do(t, http.MethodPut, "/v1/pizzas/pepperoni", pepperoniDoc)
	g.do(t, http.MethodPut, "/v1/people/jane", janeDoc)
	order := `{"Pizzas":["pepperoni"],"Coupons":[],"OrderInfo":` + carryoutDoc + `,"Payment":` + cashDoc + `}`
	require.Equal(t, http.StatusNoContent, g.do(t, http.MethodPut, "/v1/orders/friday", order).Code)
	feed, unsub, err := g.pubsub.SubLiveOrders(context.Background())
	require.NoError(t, err)
	defer unsub()

	// Act
	rec := g.do(t, http.MethodPost, "/v1/orders/friday/submit", `{"person":"jane"}`)

	// Assert
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	select {
	case ev := <-feed:
		assert.Equal(t, events.KindSubmitted, ev.Kind)
		assert.Equal(t, "friday", ev.Order)
		assert.Equal(t, "jane", ev.Person)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestSubmitUnknownPersonIsNotFound(t *testing.T) {
	// Arrange
	g := newGateway(t)
	g.do(t, http.MethodPut, "/v1/pizzas/pepperoni", pepperoniDoc)
	order := `{"Pizzas":["pepperoni"],"Coupons":[],"OrderInfo":` + carryoutDoc + `,"Payment":` + cashDoc + `}`
	g.do(t, http.MethodPut, "/v1/orders/friday", order)

	// Act
	rec := g.do(t, http.MethodPost, "/v1/orders/friday/submit", `{"person":"nobody"}`)

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownCart(t *testing.T) {
	g := newGateway(t)

	for _, path := range []string{"/v1/carts/nope", "/v1/carts/nope/summary"} {
		rec := g.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestHealthCheck(t *testing.T) {
	g := newGateway(t)

	rec := g.do(t, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"OK"`)
}
