package domain

import "strings"

// UnvalidatedPaymentInfo is either PayAtStore or PayWithCard.
type UnvalidatedPaymentInfo interface {
	isPayment()
}

type PayAtStore struct{}

type PayWithCard struct {
	CardNumber string
	// Expiration is formatted MM/YY.
	Expiration   string
	SecurityCode string
	BillingZip   string
}

func (PayAtStore) isPayment()  {}
func (PayWithCard) isPayment() {}

// PaymentInfo is a payment method that passed validation.
type PaymentInfo struct {
	p UnvalidatedPaymentInfo
}

// Method returns the underlying PayAtStore or PayWithCard value.
func (p PaymentInfo) Method() UnvalidatedPaymentInfo { return p.p }

func (p PaymentInfo) Equal(other PaymentInfo) bool { return p.p == other.p }

// CardType is empty when paying at the store.
func (p PaymentInfo) CardType() string {
	if c, ok := p.p.(PayWithCard); ok {
		return c.CardType()
	}
	return ""
}

// CardType derives the card network from the number prefix.
func (c PayWithCard) CardType() string {
	return CardType(c.CardNumber)
}

func CardType(number string) string {
	n := strings.ReplaceAll(number, " ", "")
	switch {
	case strings.HasPrefix(n, "4"):
		return "VISA"
	case hasPrefixInRange(n, 2, 51, 55), hasPrefixInRange(n, 4, 2221, 2720):
		return "MASTERCARD"
	case strings.HasPrefix(n, "34"), strings.HasPrefix(n, "37"):
		return "AMEX"
	case strings.HasPrefix(n, "6011"), strings.HasPrefix(n, "65"), hasPrefixInRange(n, 3, 644, 649):
		return "DISCOVER"
	case strings.HasPrefix(n, "36"), strings.HasPrefix(n, "38"), hasPrefixInRange(n, 3, 300, 305):
		return "DINERS"
	case strings.HasPrefix(n, "35"):
		return "JCB"
	default:
		return ""
	}
}

func hasPrefixInRange(n string, digits, lo, hi int) bool {
	if len(n) < digits {
		return false
	}
	v := 0
	for _, r := range n[:digits] {
		if r < '0' || r > '9' {
			return false
		}
		v = v*10 + int(r-'0')
	}
	return v >= lo && v <= hi
}
