package domain

import "time"

type Address struct {
	StreetAddress string
	City          string
	State         string
	ZipCode       string
	AddressType   AddressType
	// Apt is the apartment or unit number, nil when there is none.
	Apt *int
}

// ServiceMethod is either Delivery or Carryout.
type ServiceMethod interface {
	isServiceMethod()
}

type Delivery struct {
	Address Address
}

type Carryout struct {
	PickupLocation PickupLocation
}

func (Delivery) isServiceMethod() {}
func (Carryout) isServiceMethod() {}

// Timing is either Now or Later.
type Timing interface {
	isTiming()
}

type Now struct{}

type Later struct {
	Time time.Time
}

func (Now) isTiming()   {}
func (Later) isTiming() {}

type UnvalidatedOrderInfo struct {
	StoreID       string
	ServiceMethod ServiceMethod
	Timing        Timing
}

type OrderInfo struct {
	o UnvalidatedOrderInfo
}

func (o OrderInfo) StoreID() string              { return o.o.StoreID }
func (o OrderInfo) ServiceMethod() ServiceMethod { return cloneServiceMethod(o.o.ServiceMethod) }
func (o OrderInfo) Timing() Timing               { return o.o.Timing }

func (o OrderInfo) Unvalidated() UnvalidatedOrderInfo {
	c := o.o
	c.ServiceMethod = cloneServiceMethod(o.o.ServiceMethod)
	return c
}

func (o OrderInfo) Equal(other OrderInfo) bool {
	return o.o.Equal(other.o)
}

func (u UnvalidatedOrderInfo) Equal(other UnvalidatedOrderInfo) bool {
	return u.StoreID == other.StoreID &&
		serviceMethodEqual(u.ServiceMethod, other.ServiceMethod) &&
		timingEqual(u.Timing, other.Timing)
}

func (a Address) Equal(other Address) bool {
	if a.Apt == nil || other.Apt == nil {
		if a.Apt != other.Apt {
			return false
		}
	} else if *a.Apt != *other.Apt {
		return false
	}
	return a.StreetAddress == other.StreetAddress && a.City == other.City &&
		a.State == other.State && a.ZipCode == other.ZipCode &&
		a.AddressType == other.AddressType
}

func serviceMethodEqual(a, b ServiceMethod) bool {
	switch a := a.(type) {
	case Delivery:
		b, ok := b.(Delivery)
		return ok && a.Address.Equal(b.Address)
	case Carryout:
		b, ok := b.(Carryout)
		return ok && a == b
	case nil:
		return b == nil
	default:
		panic("unreachable: unknown service method")
	}
}

func timingEqual(a, b Timing) bool {
	switch a := a.(type) {
	case Now:
		_, ok := b.(Now)
		return ok
	case Later:
		b, ok := b.(Later)
		return ok && a.Time.Equal(b.Time)
	case nil:
		return b == nil
	default:
		panic("unreachable: unknown timing")
	}
}

func cloneServiceMethod(m ServiceMethod) ServiceMethod {
	d, ok := m.(Delivery)
	if !ok || d.Address.Apt == nil {
		return m
	}
	apt := *d.Address.Apt
	d.Address.Apt = &apt
	return d
}
