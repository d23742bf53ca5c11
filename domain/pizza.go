package domain

import "slices"

// Cheese is a closed sum type: FullCheese, SideCheese or NoCheese.
type Cheese interface {
	isCheese()
}

type FullCheese struct {
	Amount Amount
}

// SideCheese sets each half independently. A nil side carries no cheese.
type SideCheese struct {
	Left  *Amount
	Right *Amount
}

type NoCheese struct{}

func (FullCheese) isCheese() {}
func (SideCheese) isCheese() {}
func (NoCheese) isCheese()   {}

type Sauce struct {
	Type   SauceType
	Amount Amount
}

type Topping struct {
	Type     ToppingType
	Location Location
	Amount   Amount
}

// UnvalidatedPizza is a pizza as somebody typed it. It may break any rule;
// ValidatePizza is the only way to turn it into a Pizza.
type UnvalidatedPizza struct {
	Size        Size
	Crust       Crust
	Cheese      Cheese
	Sauce       *Sauce
	Toppings    []Topping
	Bake        Bake
	Cut         Cut
	Oregano     bool
	GarlicCrust bool
	Quantity    int
}

// Pizza is a pizza that satisfied every business rule when it was built.
// The zero Pizza is not valid; obtain one from ValidatePizza.
type Pizza struct {
	p UnvalidatedPizza
}

func (p Pizza) Size() Size          { return p.p.Size }
func (p Pizza) Crust() Crust        { return p.p.Crust }
func (p Pizza) Cheese() Cheese      { return cloneCheese(p.p.Cheese) }
func (p Pizza) Bake() Bake          { return p.p.Bake }
func (p Pizza) Cut() Cut            { return p.p.Cut }
func (p Pizza) Oregano() bool       { return p.p.Oregano }
func (p Pizza) GarlicCrust() bool   { return p.p.GarlicCrust }
func (p Pizza) Quantity() int       { return p.p.Quantity }
func (p Pizza) Toppings() []Topping { return slices.Clone(p.p.Toppings) }

// Sauce returns the sauce and whether the pizza has one.
func (p Pizza) Sauce() (Sauce, bool) {
	if p.p.Sauce == nil {
		return Sauce{}, false
	}
	return *p.p.Sauce, true
}

// Unvalidated returns an editable copy of the pizza.
func (p Pizza) Unvalidated() UnvalidatedPizza {
	return p.p.clone()
}

func (p Pizza) Equal(other Pizza) bool {
	return p.p.Equal(other.p)
}

// Equal reports structural equality. Nil and empty topping lists are equal.
func (u UnvalidatedPizza) Equal(other UnvalidatedPizza) bool {
	if u.Size != other.Size || u.Crust != other.Crust || u.Bake != other.Bake ||
		u.Cut != other.Cut || u.Oregano != other.Oregano ||
		u.GarlicCrust != other.GarlicCrust || u.Quantity != other.Quantity {
		return false
	}
	if (u.Sauce == nil) != (other.Sauce == nil) {
		return false
	}
	if u.Sauce != nil && *u.Sauce != *other.Sauce {
		return false
	}
	return CheeseEqual(u.Cheese, other.Cheese) && slices.Equal(u.Toppings, other.Toppings)
}

func (u UnvalidatedPizza) clone() UnvalidatedPizza {
	c := u
	c.Cheese = cloneCheese(u.Cheese)
	if u.Sauce != nil {
		s := *u.Sauce
		c.Sauce = &s
	}
	c.Toppings = slices.Clone(u.Toppings)
	return c
}

func CheeseEqual(a, b Cheese) bool {
	switch a := a.(type) {
	case FullCheese:
		b, ok := b.(FullCheese)
		return ok && a == b
	case SideCheese:
		b, ok := b.(SideCheese)
		return ok && amountPtrEqual(a.Left, b.Left) && amountPtrEqual(a.Right, b.Right)
	case NoCheese:
		_, ok := b.(NoCheese)
		return ok
	case nil:
		return b == nil
	default:
		panic("unreachable: unknown cheese variant")
	}
}

func amountPtrEqual(a, b *Amount) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneCheese(c Cheese) Cheese {
	sc, ok := c.(SideCheese)
	if !ok {
		return c
	}
	return SideCheese{Left: cloneAmount(sc.Left), Right: cloneAmount(sc.Right)}
}

func cloneAmount(a *Amount) *Amount {
	if a == nil {
		return nil
	}
	v := *a
	return &v
}

// AmountPtr is a convenience for building SideCheese values.
func AmountPtr(a Amount) *Amount {
	return &a
}
