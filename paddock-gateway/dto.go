package main

import (
	"encoding/json"
	"time"

	"github.com/taldoflemis/cassa/cart"
	"github.com/taldoflemis/cassa/domain"
	"github.com/taldoflemis/cassa/wire"
)

// Documents embedded in requests use the same JSON grammar as the saved
// entities. Each part can be given inline or by the name it was saved under.

type CreateCartRequest struct {
	OrderInfo      json.RawMessage `json:"order_info" swaggertype:"object" validate:"required_without=SavedOrderInfo,excluded_with=SavedOrderInfo"`
	SavedOrderInfo string          `json:"saved_order_info" validate:"omitempty,max=128"`
}

type AddPizzaRequest struct {
	Pizza      json.RawMessage `json:"pizza" swaggertype:"object" validate:"required_without=SavedPizza,excluded_with=SavedPizza"`
	SavedPizza string          `json:"saved_pizza" validate:"omitempty,max=128"`
}

type AddPizzaResponse struct {
	ProductCount int    `json:"product_count"`
	OrderID      string `json:"order_id"`
}

type CouponRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

type PlaceRequest struct {
	Personal     json.RawMessage `json:"personal" swaggertype:"object" validate:"required_without=SavedPerson,excluded_with=SavedPerson"`
	SavedPerson  string          `json:"saved_person" validate:"omitempty,max=128"`
	Payment      json.RawMessage `json:"payment" swaggertype:"object" validate:"required_without=SavedPayment,excluded_with=SavedPayment"`
	SavedPayment string          `json:"saved_payment" validate:"omitempty,max=128"`
}

type PlaceResponse struct {
	Message string `json:"message"`
}

type CartResponse struct {
	CartID   string         `json:"cart_id"`
	State    string         `json:"state"`
	OrderID  string         `json:"order_id,omitempty"`
	Products []wire.Product `json:"products"`
	Coupons  []string       `json:"coupons"`
}

func newCartResponse(id string, s *cart.Session) CartResponse {
	coupons := s.Coupons()
	codes := make([]string, 0, len(coupons))
	for _, c := range coupons {
		codes = append(codes, c.Code)
	}
	products := s.Products()
	if products == nil {
		products = []wire.Product{}
	}
	return CartResponse{
		CartID:   id,
		State:    s.State().String(),
		OrderID:  s.OrderID(),
		Products: products,
		Coupons:  codes,
	}
}

type SummaryResponse struct {
	OrderID  string         `json:"order_id"`
	Products []wire.Product `json:"products"`
	Total    string         `json:"total"`
	WaitTime string         `json:"wait_time"`
}

func newSummaryResponse(s cart.Summary) SummaryResponse {
	return SummaryResponse{
		OrderID:  s.OrderID,
		Products: s.Products,
		Total:    s.Total.StringFixed(2),
		WaitTime: s.WaitTime,
	}
}

type SubmitOrderRequest struct {
	Person string `json:"person" validate:"required,max=128"`
}

type SubmitOrderResponse struct {
	EventID     string    `json:"event_id"`
	Order       string    `json:"order"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ListResponse struct {
	Names []string `json:"names"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// ValidationErrorResponse is the body of every 422 answer.
type ValidationErrorResponse []domain.FieldError
