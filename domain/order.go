package domain

import "slices"

type Coupon struct {
	Code string
}

// Order is everything needed to place an order, with every part validated.
type Order struct {
	Pizzas    []Pizza
	Coupons   []Coupon
	OrderInfo OrderInfo
	Payment   PaymentInfo
}

// SavedOrder is the persisted form of an Order. Pizzas are referenced by the
// name they were saved under instead of being stored inline.
type SavedOrder struct {
	Pizzas    []string
	Coupons   []Coupon
	OrderInfo OrderInfo
	Payment   PaymentInfo
}

// AddCoupon adds c unless a coupon with the same code is already present.
func AddCoupon(coupons []Coupon, c Coupon) []Coupon {
	if slices.Contains(coupons, c) {
		return coupons
	}
	return append(coupons, c)
}

func RemoveCoupon(coupons []Coupon, c Coupon) []Coupon {
	return slices.DeleteFunc(slices.Clone(coupons), func(x Coupon) bool { return x == c })
}

func (o SavedOrder) Equal(other SavedOrder) bool {
	return slices.Equal(o.Pizzas, other.Pizzas) &&
		slices.Equal(o.Coupons, other.Coupons) &&
		o.OrderInfo.Equal(other.OrderInfo) &&
		o.Payment.Equal(other.Payment)
}
