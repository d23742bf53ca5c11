package storeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taldoflemis/cassa/pacchetto"
	"github.com/taldoflemis/cassa/wire"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewWithHTTPClient(pacchetto.StoreAPISettings{
		BaseURL:                              srv.URL + "/",
		TimeoutInSeconds:                     5,
		Retries:                              2,
		ExponentialBackoffBaseInMilliseconds: 1,
	}, srv.Client())
	return c, &calls
}

func TestPriceOrderDecodesResponse(t *testing.T) {
	// Arrange
	var gotPath string
	var gotReq wire.Request
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"Order": {
				"OrderID": "O1",
				"Products": [{"ID":1,"Code":"14SCREEN","Qty":1,"Options":{"C":{"1/1":"0"},"P":{"1/1":1}}}],
				"Coupons": [{"Code":"1234","Qty":1,"ID":1,"Status":0}],
				"Amounts": {"Payment": 16.50},
				"EstimatedWaitMinutes": "10-15"
			},
			"Status": 1,
			"StatusItems": []
		}`))
	})
	order := wire.NewOrder()
	order.OrderID = "O1"
	order.StoreID = "7940"

	// Act
	resp, err := c.PriceOrder(context.Background(), order)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, PathPrice, gotPath)
	assert.Equal(t, "7940", gotReq.Order.StoreID)
	assert.Equal(t, "O1", resp.Order.OrderID)
	require.NotNil(t, resp.Order.Amounts)
	assert.True(t, resp.Order.Amounts.Payment.Equal(decimal.RequireFromString("16.5")))
	assert.Equal(t, "10-15", resp.Order.EstimatedWaitMinutes)
	require.Len(t, resp.Order.Products, 1)
	assert.Equal(t, wire.Options{"C": {Whole: "0"}, "P": {Whole: "1"}}, resp.Order.Products[0].Options)
}

func TestPaymentAmountIsANumber(t *testing.T) {
	var raw map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Write([]byte(`{"Order":{},"Status":1}`))
	})
	order := wire.NewOrder()
	order.Payments = []wire.Payment{{Type: "Cash", Amount: wire.NewMoney(decimal.RequireFromString("16.50"))}}

	_, err := c.PlaceOrder(context.Background(), order)

	require.NoError(t, err)
	payments := raw["Order"].(map[string]any)["Payments"].([]any)
	assert.Equal(t, 16.5, payments[0].(map[string]any)["Amount"])
}

func TestValidateOrderRetriesServerErrors(t *testing.T) {
	// Arrange
	var failures atomic.Int32
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if failures.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"Order":{"OrderID":"O7"},"Status":0}`))
	})

	// Act
	resp, err := c.ValidateOrder(context.Background(), wire.NewOrder())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "O7", resp.Order.OrderID)
	assert.EqualValues(t, 3, calls.Load())
}

func TestValidateOrderGivesUpAfterRetries(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.ValidateOrder(context.Background(), wire.NewOrder())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "validate", statusErr.Operation)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"secret":"do not leak"}`))
	})

	_, err := c.PriceOrder(context.Background(), wire.NewOrder())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.EqualValues(t, 1, calls.Load())
	assert.NotContains(t, err.Error(), "do not leak")
	assert.Contains(t, err.Error(), "price")
}

func TestPlaceOrderIsNotRetried(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.PlaceOrder(context.Background(), wire.NewOrder())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "place", statusErr.Operation)
	assert.EqualValues(t, 1, calls.Load())
}

func TestRejectedCallIsNotATransportError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Order":{},"Status":-1,"StatusItems":[{"Code":"StoreClosed","Message":"Store is closed"}]}`))
	})

	resp, err := c.PlaceOrder(context.Background(), wire.NewOrder())

	require.NoError(t, err)
	assert.Equal(t, wire.StatusFailure, resp.Status)
	assert.Equal(t, "Store is closed", resp.StatusMessages())
}
