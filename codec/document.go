package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/taldoflemis/cassa/domain"
)

// Documents are indented JSON objects whose leaf values use the compact
// grammar. Marshal output is canonical: unmarshalling a canonical document
// and marshalling it again reproduces the input byte for byte.

const (
	serviceDelivery = "Delivery"
	serviceCarryout = "Carryout"
	timingNow       = "Now"
	timingLater     = "Later"
	paymentAtStore  = "PayAtStore"
	paymentWithCard = "PayWithCard"
)

var errUnknownVariant = errors.New("unknown variant")

type pizzaDoc struct {
	Size        string   `json:"Size"`
	Crust       string   `json:"Crust"`
	Cheese      string   `json:"Cheese"`
	Sauce       *string  `json:"Sauce"`
	Toppings    []string `json:"Toppings"`
	Bake        string   `json:"Bake"`
	Cut         string   `json:"Cut"`
	Oregano     bool     `json:"Oregano"`
	GarlicCrust bool     `json:"GarlicCrust"`
	Quantity    int      `json:"Quantity"`
}

type addressDoc struct {
	StreetAddress string `json:"StreetAddress"`
	City          string `json:"City"`
	State         string `json:"State"`
	ZipCode       string `json:"ZipCode"`
	AddressType   string `json:"AddressType"`
	Apt           *int   `json:"Apt,omitempty"`
}

type serviceMethodDoc struct {
	Type           string      `json:"Type"`
	Address        *addressDoc `json:"Address,omitempty"`
	PickupLocation string      `json:"PickupLocation,omitempty"`
}

type timingDoc struct {
	Type string `json:"Type"`
	Time string `json:"Time,omitempty"`
}

type orderInfoDoc struct {
	StoreID       string           `json:"StoreID"`
	ServiceMethod serviceMethodDoc `json:"ServiceMethod"`
	Timing        timingDoc        `json:"Timing"`
}

type paymentDoc struct {
	Type         string `json:"Type"`
	CardNumber   string `json:"CardNumber,omitempty"`
	Expiration   string `json:"Expiration,omitempty"`
	SecurityCode string `json:"SecurityCode,omitempty"`
	BillingZip   string `json:"BillingZip,omitempty"`
}

type personalDoc struct {
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Email     string `json:"Email"`
	Phone     string `json:"Phone"`
}

type savedOrderDoc struct {
	Pizzas    []string     `json:"Pizzas"`
	Coupons   []string     `json:"Coupons"`
	OrderInfo orderInfoDoc `json:"OrderInfo"`
	Payment   paymentDoc   `json:"Payment"`
}

func marshalDoc(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func unmarshalDoc(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &DecodeError{Input: summarize(data), Err: err}
	}
	if dec.More() {
		return &DecodeError{Input: summarize(data), Err: errors.New("trailing data after document")}
	}
	return nil
}

func summarize(data []byte) string {
	const limit = 40
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

// MarshalPizza encodes a validated pizza.
func MarshalPizza(p domain.Pizza) ([]byte, error) {
	return marshalDoc(pizzaToDoc(p.Unvalidated()))
}

// MarshalUnvalidatedPizza encodes a pizza that has not been validated yet.
// Undefined enum values cannot be written and are reported as errors.
func MarshalUnvalidatedPizza(u domain.UnvalidatedPizza) ([]byte, error) {
	if err := checkPizzaEnums(u); err != nil {
		return nil, err
	}
	return marshalDoc(pizzaToDoc(u))
}

// UnmarshalPizza decodes and validates a pizza. Rule violations come back as
// *domain.ValidationError, grammar violations as *DecodeError.
func UnmarshalPizza(data []byte) (domain.Pizza, error) {
	u, err := UnmarshalUnvalidatedPizza(data)
	if err != nil {
		return domain.Pizza{}, err
	}
	return domain.ValidatePizza(u)
}

func UnmarshalUnvalidatedPizza(data []byte) (domain.UnvalidatedPizza, error) {
	var doc pizzaDoc
	if err := unmarshalDoc(data, &doc); err != nil {
		return domain.UnvalidatedPizza{}, err
	}
	return pizzaFromDoc(doc)
}

func pizzaToDoc(u domain.UnvalidatedPizza) pizzaDoc {
	doc := pizzaDoc{
		Size:        u.Size.String(),
		Crust:       u.Crust.String(),
		Cheese:      EncodeCheese(u.Cheese),
		Toppings:    make([]string, 0, len(u.Toppings)),
		Bake:        u.Bake.String(),
		Cut:         u.Cut.String(),
		Oregano:     u.Oregano,
		GarlicCrust: u.GarlicCrust,
		Quantity:    u.Quantity,
	}
	if u.Sauce != nil {
		s := EncodeSauce(*u.Sauce)
		doc.Sauce = &s
	}
	for _, t := range u.Toppings {
		doc.Toppings = append(doc.Toppings, EncodeTopping(t))
	}
	return doc
}

func pizzaFromDoc(doc pizzaDoc) (domain.UnvalidatedPizza, error) {
	var (
		u   domain.UnvalidatedPizza
		err error
	)
	if u.Size, err = domain.ParseSize(doc.Size); err != nil {
		return u, &DecodeError{Path: "Size", Input: doc.Size, Err: err}
	}
	if u.Crust, err = domain.ParseCrust(doc.Crust); err != nil {
		return u, &DecodeError{Path: "Crust", Input: doc.Crust, Err: err}
	}
	if u.Cheese, err = DecodeCheese(doc.Cheese); err != nil {
		return u, atPath("Cheese", err)
	}
	if doc.Sauce != nil {
		s, err := DecodeSauce(*doc.Sauce)
		if err != nil {
			return u, atPath("Sauce", err)
		}
		u.Sauce = &s
	}
	u.Toppings = make([]domain.Topping, 0, len(doc.Toppings))
	for i, text := range doc.Toppings {
		t, err := DecodeTopping(text)
		if err != nil {
			return u, atPath(fmt.Sprintf("Toppings[%d]", i), err)
		}
		u.Toppings = append(u.Toppings, t)
	}
	if u.Bake, err = domain.ParseBake(doc.Bake); err != nil {
		return u, &DecodeError{Path: "Bake", Input: doc.Bake, Err: err}
	}
	if u.Cut, err = domain.ParseCut(doc.Cut); err != nil {
		return u, &DecodeError{Path: "Cut", Input: doc.Cut, Err: err}
	}
	u.Oregano = doc.Oregano
	u.GarlicCrust = doc.GarlicCrust
	u.Quantity = doc.Quantity
	return u, nil
}

func checkPizzaEnums(u domain.UnvalidatedPizza) error {
	undefined := func(path string, v interface{ IsValid() bool }) error {
		if v.IsValid() {
			return nil
		}
		return fmt.Errorf("cannot encode %s: undefined value %v", path, v)
	}
	errs := []error{
		undefined("Size", u.Size),
		undefined("Crust", u.Crust),
		undefined("Bake", u.Bake),
		undefined("Cut", u.Cut),
	}
	switch c := u.Cheese.(type) {
	case domain.FullCheese:
		errs = append(errs, undefined("Cheese.Amount", c.Amount))
	case domain.SideCheese:
		if c.Left != nil {
			errs = append(errs, undefined("Cheese.Left", *c.Left))
		}
		if c.Right != nil {
			errs = append(errs, undefined("Cheese.Right", *c.Right))
		}
	case domain.NoCheese:
	default:
		errs = append(errs, fmt.Errorf("cannot encode Cheese: %w", domain.ErrMalformedInput))
	}
	if u.Sauce != nil {
		errs = append(errs, undefined("Sauce.SauceType", u.Sauce.Type), undefined("Sauce.Amount", u.Sauce.Amount))
	}
	for i, t := range u.Toppings {
		errs = append(errs,
			undefined(fmt.Sprintf("Toppings[%d].ToppingType", i), t.Type),
			undefined(fmt.Sprintf("Toppings[%d].Location", i), t.Location),
			undefined(fmt.Sprintf("Toppings[%d].Amount", i), t.Amount),
		)
	}
	return errors.Join(errs...)
}

func MarshalOrderInfo(o domain.OrderInfo) ([]byte, error) {
	return marshalDoc(orderInfoToDoc(o))
}

func UnmarshalOrderInfo(data []byte) (domain.OrderInfo, error) {
	var doc orderInfoDoc
	if err := unmarshalDoc(data, &doc); err != nil {
		return domain.OrderInfo{}, err
	}
	return orderInfoFromDoc(doc)
}

func orderInfoToDoc(o domain.OrderInfo) orderInfoDoc {
	doc := orderInfoDoc{StoreID: o.StoreID()}
	switch m := o.ServiceMethod().(type) {
	case domain.Delivery:
		a := m.Address
		doc.ServiceMethod = serviceMethodDoc{
			Type: serviceDelivery,
			Address: &addressDoc{
				StreetAddress: a.StreetAddress,
				City:          a.City,
				State:         a.State,
				ZipCode:       a.ZipCode,
				AddressType:   a.AddressType.String(),
				Apt:           a.Apt,
			},
		}
	case domain.Carryout:
		doc.ServiceMethod = serviceMethodDoc{Type: serviceCarryout, PickupLocation: m.PickupLocation.String()}
	default:
		panic("unreachable: unknown service method")
	}
	switch t := o.Timing().(type) {
	case domain.Now:
		doc.Timing = timingDoc{Type: timingNow}
	case domain.Later:
		doc.Timing = timingDoc{Type: timingLater, Time: t.Time.Format(time.RFC3339Nano)}
	default:
		panic("unreachable: unknown timing")
	}
	return doc
}

func orderInfoFromDoc(doc orderInfoDoc) (domain.OrderInfo, error) {
	u := domain.UnvalidatedOrderInfo{StoreID: doc.StoreID}

	switch doc.ServiceMethod.Type {
	case serviceDelivery:
		if doc.ServiceMethod.Address == nil {
			return domain.OrderInfo{}, &DecodeError{Path: "ServiceMethod.Address", Err: errors.New("address is required for delivery")}
		}
		a := doc.ServiceMethod.Address
		addrType, err := domain.ParseAddressType(a.AddressType)
		if err != nil {
			return domain.OrderInfo{}, &DecodeError{Path: "ServiceMethod.Address.AddressType", Input: a.AddressType, Err: err}
		}
		u.ServiceMethod = domain.Delivery{Address: domain.Address{
			StreetAddress: a.StreetAddress,
			City:          a.City,
			State:         a.State,
			ZipCode:       a.ZipCode,
			AddressType:   addrType,
			Apt:           a.Apt,
		}}
	case serviceCarryout:
		loc, err := domain.ParsePickupLocation(doc.ServiceMethod.PickupLocation)
		if err != nil {
			return domain.OrderInfo{}, &DecodeError{Path: "ServiceMethod.PickupLocation", Input: doc.ServiceMethod.PickupLocation, Err: err}
		}
		u.ServiceMethod = domain.Carryout{PickupLocation: loc}
	default:
		return domain.OrderInfo{}, &DecodeError{Path: "ServiceMethod.Type", Input: doc.ServiceMethod.Type, Err: errUnknownVariant}
	}

	switch doc.Timing.Type {
	case timingNow:
		u.Timing = domain.Now{}
	case timingLater:
		t, err := time.Parse(time.RFC3339, doc.Timing.Time)
		if err != nil {
			return domain.OrderInfo{}, &DecodeError{Path: "Timing.Time", Input: doc.Timing.Time, Err: err}
		}
		u.Timing = domain.Later{Time: t}
	default:
		return domain.OrderInfo{}, &DecodeError{Path: "Timing.Type", Input: doc.Timing.Type, Err: errUnknownVariant}
	}

	return domain.ValidateOrderInfo(u)
}

func MarshalPaymentInfo(p domain.PaymentInfo) ([]byte, error) {
	return marshalDoc(paymentToDoc(p))
}

func UnmarshalPaymentInfo(data []byte) (domain.PaymentInfo, error) {
	var doc paymentDoc
	if err := unmarshalDoc(data, &doc); err != nil {
		return domain.PaymentInfo{}, err
	}
	return paymentFromDoc(doc)
}

func paymentToDoc(p domain.PaymentInfo) paymentDoc {
	switch m := p.Method().(type) {
	case domain.PayAtStore:
		return paymentDoc{Type: paymentAtStore}
	case domain.PayWithCard:
		return paymentDoc{
			Type:         paymentWithCard,
			CardNumber:   m.CardNumber,
			Expiration:   m.Expiration,
			SecurityCode: m.SecurityCode,
			BillingZip:   m.BillingZip,
		}
	default:
		panic("unreachable: unknown payment variant")
	}
}

func paymentFromDoc(doc paymentDoc) (domain.PaymentInfo, error) {
	switch doc.Type {
	case paymentAtStore:
		return domain.ValidatePaymentInfo(domain.PayAtStore{})
	case paymentWithCard:
		return domain.ValidatePaymentInfo(domain.PayWithCard{
			CardNumber:   doc.CardNumber,
			Expiration:   doc.Expiration,
			SecurityCode: doc.SecurityCode,
			BillingZip:   doc.BillingZip,
		})
	default:
		return domain.PaymentInfo{}, &DecodeError{Path: "Type", Input: doc.Type, Err: errUnknownVariant}
	}
}

func MarshalPersonalInfo(p domain.PersonalInfo) ([]byte, error) {
	return marshalDoc(personalDoc{
		FirstName: p.FirstName(),
		LastName:  p.LastName(),
		Email:     p.Email(),
		Phone:     p.Phone(),
	})
}

func UnmarshalPersonalInfo(data []byte) (domain.PersonalInfo, error) {
	var doc personalDoc
	if err := unmarshalDoc(data, &doc); err != nil {
		return domain.PersonalInfo{}, err
	}
	return domain.ValidatePersonalInfo(domain.UnvalidatedPersonalInfo{
		FirstName: doc.FirstName,
		LastName:  doc.LastName,
		Email:     doc.Email,
		Phone:     doc.Phone,
	})
}

func MarshalSavedOrder(o domain.SavedOrder) ([]byte, error) {
	doc := savedOrderDoc{
		Pizzas:    append(make([]string, 0, len(o.Pizzas)), o.Pizzas...),
		Coupons:   make([]string, 0, len(o.Coupons)),
		OrderInfo: orderInfoToDoc(o.OrderInfo),
		Payment:   paymentToDoc(o.Payment),
	}
	for _, c := range o.Coupons {
		doc.Coupons = append(doc.Coupons, c.Code)
	}
	return marshalDoc(doc)
}

func UnmarshalSavedOrder(data []byte) (domain.SavedOrder, error) {
	var doc savedOrderDoc
	if err := unmarshalDoc(data, &doc); err != nil {
		return domain.SavedOrder{}, err
	}
	info, err := orderInfoFromDoc(doc.OrderInfo)
	if err != nil {
		return domain.SavedOrder{}, prefixPath("OrderInfo", err)
	}
	payment, err := paymentFromDoc(doc.Payment)
	if err != nil {
		return domain.SavedOrder{}, prefixPath("Payment", err)
	}
	o := domain.SavedOrder{
		Pizzas:    append(make([]string, 0, len(doc.Pizzas)), doc.Pizzas...),
		Coupons:   make([]domain.Coupon, 0, len(doc.Coupons)),
		OrderInfo: info,
		Payment:   payment,
	}
	for _, code := range doc.Coupons {
		o.Coupons = domain.AddCoupon(o.Coupons, domain.Coupon{Code: code})
	}
	return o, nil
}

// prefixPath nests the paths of a decode or validation failure under field.
func prefixPath(field string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return &DecodeError{Path: field + "." + de.Path, Input: de.Input, Err: de.Err}
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		nested := make([]domain.FieldError, 0, len(ve.Errors))
		for _, fe := range ve.Errors {
			nested = append(nested, domain.FieldError{Path: field + "." + fe.Path, Message: fe.Message})
		}
		return &domain.ValidationError{Errors: nested}
	}
	return err
}
