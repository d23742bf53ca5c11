package wire

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/taldoflemis/cassa/domain"
)

// StatusFailure is the Status value the remote API uses for a rejected call.
const StatusFailure = -1

const (
	ServiceDelivery        = "Delivery"
	ServiceCarryout        = "Carryout"
	ServiceDriveUpCarryout = "DriveUpCarryout"
	ServiceCarside         = "Carside"

	// FutureOrderTimeLayout is the remote API's local timestamp format.
	FutureOrderTimeLayout = "2006-01-02 15:04:05"
)

// Money is a decimal that travels as a bare JSON number.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money { return Money{Decimal: d} }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

type Address struct {
	Street     string `json:"Street"`
	City       string `json:"City"`
	Region     string `json:"Region"`
	PostalCode string `json:"PostalCode"`
	Type       string `json:"Type"`
	UnitNumber string `json:"UnitNumber,omitempty"`
}

type Coupon struct {
	Code string `json:"Code"`
	Qty  int    `json:"Qty"`
	ID   int    `json:"ID"`
	// Status is filled in by the price call; zero means the coupon applies.
	Status int `json:"Status,omitempty"`
}

type Payment struct {
	Type         string `json:"Type"`
	Amount       Money  `json:"Amount"`
	Number       string `json:"Number,omitempty"`
	CardType     string `json:"CardType,omitempty"`
	Expiration   string `json:"Expiration,omitempty"`
	SecurityCode string `json:"SecurityCode,omitempty"`
	PostalCode   string `json:"PostalCode,omitempty"`
}

type Amounts struct {
	Payment Money `json:"Payment"`
}

// Order is the order object exchanged with every remote call. Amounts and
// EstimatedWaitMinutes are only set on responses to the price call.
type Order struct {
	Address               *Address  `json:"Address,omitempty"`
	Coupons               []Coupon  `json:"Coupons"`
	Email                 string    `json:"Email"`
	FirstName             string    `json:"FirstName"`
	LastName              string    `json:"LastName"`
	Phone                 string    `json:"Phone"`
	LanguageCode          string    `json:"LanguageCode"`
	OrderChannel          string    `json:"OrderChannel"`
	OrderID               string    `json:"OrderID"`
	OrderMethod           string    `json:"OrderMethod"`
	Payments              []Payment `json:"Payments"`
	Products              []Product `json:"Products"`
	ServiceMethod         string    `json:"ServiceMethod"`
	SourceOrganizationURI string    `json:"SourceOrganizationURI"`
	StoreID               string    `json:"StoreID"`
	FutureOrderTime       string    `json:"FutureOrderTime,omitempty"`
	Version               string    `json:"Version"`
	Amounts               *Amounts  `json:"Amounts,omitempty"`
	EstimatedWaitMinutes  string    `json:"EstimatedWaitMinutes,omitempty"`
}

// NewOrder fills in the constant fields every request carries.
func NewOrder() Order {
	return Order{
		Coupons:               []Coupon{},
		LanguageCode:          "en",
		OrderChannel:          "OLO",
		OrderMethod:           "Web",
		Payments:              []Payment{},
		Products:              []Product{},
		SourceOrganizationURI: "order.dominos.com",
		Version:               "1.0",
	}
}

type Request struct {
	Order Order `json:"Order"`
}

type StatusItem struct {
	Code    string `json:"Code"`
	Message string `json:"Message,omitempty"`
}

type Response struct {
	Order       Order        `json:"Order"`
	Status      int          `json:"Status"`
	StatusItems []StatusItem `json:"StatusItems"`
}

// StatusMessages joins the status item messages, falling back to codes.
func (r Response) StatusMessages() string {
	msgs := make([]string, 0, len(r.StatusItems))
	for _, item := range r.StatusItems {
		if item.Message != "" {
			msgs = append(msgs, item.Message)
		} else {
			msgs = append(msgs, item.Code)
		}
	}
	return strings.Join(msgs, ", ")
}

func AddressFrom(a domain.Address) Address {
	out := Address{
		Street:     a.StreetAddress,
		City:       a.City,
		Region:     a.State,
		PostalCode: a.ZipCode,
		Type:       a.AddressType.String(),
	}
	if a.Apt != nil {
		out.UnitNumber = strconv.Itoa(*a.Apt)
	}
	return out
}

// ServiceMethodName maps a service method to the remote API's name.
func ServiceMethodName(m domain.ServiceMethod) string {
	switch m := m.(type) {
	case domain.Delivery:
		return ServiceDelivery
	case domain.Carryout:
		switch m.PickupLocation {
		case domain.PickupInStore:
			return ServiceCarryout
		case domain.PickupDriveThru:
			return ServiceDriveUpCarryout
		case domain.PickupCarside:
			return ServiceCarside
		}
	}
	panic("unreachable: unknown service method")
}

// PaymentFrom builds the wire payment for amount.
func PaymentFrom(p domain.PaymentInfo, amount decimal.Decimal) Payment {
	switch m := p.Method().(type) {
	case domain.PayAtStore:
		return Payment{Type: "Cash", Amount: NewMoney(amount)}
	case domain.PayWithCard:
		return Payment{
			Type:         "CreditCard",
			Amount:       NewMoney(amount),
			Number:       m.CardNumber,
			CardType:     m.CardType(),
			Expiration:   strings.ReplaceAll(m.Expiration, "/", ""),
			SecurityCode: m.SecurityCode,
			PostalCode:   m.BillingZip,
		}
	default:
		panic("unreachable: unknown payment variant")
	}
}

func CouponsFrom(coupons []domain.Coupon) []Coupon {
	out := make([]Coupon, 0, len(coupons))
	for i, c := range coupons {
		out = append(out, Coupon{Code: c.Code, Qty: 1, ID: i + 1})
	}
	return out
}
