package domain

import "fmt"

func ValidateOrderInfo(u UnvalidatedOrderInfo) (OrderInfo, error) {
	if u.ServiceMethod == nil {
		return OrderInfo{}, fmt.Errorf("%w: service method is nil", ErrMalformedInput)
	}
	if u.Timing == nil {
		return OrderInfo{}, fmt.Errorf("%w: timing is nil", ErrMalformedInput)
	}

	var c collector
	c.check("StoreID", u.StoreID, "required,number", "StoreID must be a non-negative integer")

	switch m := u.ServiceMethod.(type) {
	case Carryout:
		c.enum("ServiceMethod.PickupLocation", m.PickupLocation)
	case Delivery:
		validateAddress(&c, "ServiceMethod.Address.", m.Address)
	default:
		panic("unreachable: unknown service method")
	}

	switch u.Timing.(type) {
	case Now, Later:
	default:
		panic("unreachable: unknown timing")
	}

	if err := c.err(); err != nil {
		return OrderInfo{}, err
	}
	o := u
	o.ServiceMethod = cloneServiceMethod(u.ServiceMethod)
	return OrderInfo{o: o}, nil
}

func validateAddress(c *collector, prefix string, a Address) {
	c.check(prefix+"StreetAddress", a.StreetAddress, "streetnumber",
		"StreetAddress must start with a house number followed by a space")
	c.enum(prefix+"AddressType", a.AddressType)
	if a.Apt != nil {
		c.check(prefix+"Apt", *a.Apt, "min=0", "Apt must not be negative")
	}
	c.check(prefix+"State", a.State, "state", "State must be a two letter uppercase code")
	c.check(prefix+"ZipCode", a.ZipCode, "zipcode", "ZipCode must be 5 digits")
}

func ValidatePaymentInfo(u UnvalidatedPaymentInfo) (PaymentInfo, error) {
	var c collector
	switch p := u.(type) {
	case PayAtStore:
	case PayWithCard:
		c.check("CardNumber", p.CardNumber, "credit_card", "CardNumber is not a valid card number")
		c.check("Expiration", p.Expiration, "expiration", "Expiration must be MM/YY")
		c.check("SecurityCode", p.SecurityCode, "cvv", "SecurityCode must be 3 digits")
		c.check("BillingZip", p.BillingZip, "zipcode", "BillingZip must be 5 digits")
	case nil:
		return PaymentInfo{}, fmt.Errorf("%w: payment is nil", ErrMalformedInput)
	default:
		panic("unreachable: unknown payment variant")
	}

	if err := c.err(); err != nil {
		return PaymentInfo{}, err
	}
	return PaymentInfo{p: u}, nil
}

func ValidatePersonalInfo(u UnvalidatedPersonalInfo) (PersonalInfo, error) {
	var c collector
	c.check("Email", u.Email, "email", "Email is not a valid address")
	c.check("Phone", u.Phone, "phone", "Phone must look like 555-555-5555")

	if err := c.err(); err != nil {
		return PersonalInfo{}, err
	}
	return PersonalInfo{p: u}, nil
}
