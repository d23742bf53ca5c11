package domain

import "fmt"

const maxToppingWeightPerHalf = 10

var crustsBySize = map[Size][]Crust{
	SizeSmall:  {CrustHandTossed, CrustThin, CrustGlutenFree},
	SizeMedium: {CrustHandTossed, CrustThin, CrustHandmadePan},
	SizeLarge:  {CrustHandTossed, CrustThin, CrustBrooklyn},
	SizeXL:     {CrustBrooklyn},
}

// CrustsForSize lists the crusts a size can be ordered with.
func CrustsForSize(s Size) []Crust {
	return append([]Crust(nil), crustsBySize[s]...)
}

// ValidatePizza checks every pizza rule and returns either a Pizza or a
// *ValidationError listing all violations.
func ValidatePizza(u UnvalidatedPizza) (Pizza, error) {
	if u.Cheese == nil {
		return Pizza{}, fmt.Errorf("%w: pizza cheese is nil", ErrMalformedInput)
	}

	var c collector
	sizeOK := c.enum("Size", u.Size)
	crustOK := c.enum("Crust", u.Crust)
	c.enum("Bake", u.Bake)
	c.enum("Cut", u.Cut)
	validateCheeseAmounts(&c, u.Cheese)
	if u.Sauce != nil {
		c.enum("Sauce.SauceType", u.Sauce.Type)
		c.enum("Sauce.Amount", u.Sauce.Amount)
	}
	for i, t := range u.Toppings {
		c.enum(fmt.Sprintf("Toppings[%d].ToppingType", i), t.Type)
		c.enum(fmt.Sprintf("Toppings[%d].Location", i), t.Location)
		c.enum(fmt.Sprintf("Toppings[%d].Amount", i), t.Amount)
	}

	if sizeOK && crustOK && !crustAllowed(u.Size, u.Crust) {
		c.addf("Crust", "%s crust is not available for %s pizzas", u.Crust, u.Size)
	}
	validateCrustRules(&c, u)
	validateToppings(&c, u.Toppings)
	c.check("Quantity", u.Quantity, "min=1,max=25", "Quantity must be between 1 and 25")

	if err := c.err(); err != nil {
		return Pizza{}, err
	}
	return Pizza{p: u.clone()}, nil
}

func crustAllowed(s Size, cr Crust) bool {
	for _, allowed := range crustsBySize[s] {
		if allowed == cr {
			return true
		}
	}
	return false
}

func validateCheeseAmounts(c *collector, cheese Cheese) {
	switch ch := cheese.(type) {
	case FullCheese:
		c.enum("Cheese.Amount", ch.Amount)
	case SideCheese:
		if ch.Left != nil {
			c.enum("Cheese.Left", *ch.Left)
		}
		if ch.Right != nil {
			c.enum("Cheese.Right", *ch.Right)
		}
	case NoCheese:
	default:
		panic("unreachable: unknown cheese variant")
	}
}

func validateCrustRules(c *collector, u UnvalidatedPizza) {
	switch u.Crust {
	case CrustHandTossed:
		if u.Oregano {
			c.add("Oregano", "Hand tossed crust cannot have oregano")
		}
	case CrustThin:
		if u.GarlicCrust {
			c.add("GarlicCrust", "Thin crust cannot have garlic crust")
		}
		if u.Bake != BakeNormal {
			c.add("Bake", "Thin crust must have a normal bake")
		}
	case CrustHandmadePan, CrustBrooklyn, CrustGlutenFree:
		if u.GarlicCrust {
			c.addf("GarlicCrust", "%s crust cannot have garlic crust", u.Crust)
		}
		if u.Oregano {
			c.addf("Oregano", "%s crust cannot have oregano", u.Crust)
		}
	}

	if u.Crust == CrustHandmadePan || u.Crust == CrustBrooklyn {
		switch ch := u.Cheese.(type) {
		case NoCheese:
			c.addf("Cheese", "%s crust must have cheese", u.Crust)
		case SideCheese:
			if ch.Left == nil {
				c.addf("Cheese.Left", "%s crust must have cheese on the left half", u.Crust)
			}
			if ch.Right == nil {
				c.addf("Cheese.Right", "%s crust must have cheese on the right half", u.Crust)
			}
		}
	}

	if u.Crust == CrustHandmadePan && u.Sauce != nil && u.Sauce.Type == SauceMarinara {
		c.add("Sauce.SauceType", "HandmadePan crust cannot have marinara sauce")
	}
}

func validateToppings(c *collector, toppings []Topping) {
	left, right := 0, 0
	seen := make(map[ToppingType]bool, len(toppings))
	for i, t := range toppings {
		weight := 1
		if t.Amount == AmountExtra {
			weight = 2
		}
		if t.Location == LocationAll || t.Location == LocationLeft {
			left += weight
		}
		if t.Location == LocationAll || t.Location == LocationRight {
			right += weight
		}
		if seen[t.Type] {
			c.addf(fmt.Sprintf("Toppings[%d].ToppingType", i), "%s appears more than once", t.Type)
		}
		seen[t.Type] = true
	}
	if left > maxToppingWeightPerHalf {
		c.addf("Toppings", "left half has %d topping portions, at most %d allowed", left, maxToppingWeightPerHalf)
	}
	if right > maxToppingWeightPerHalf {
		c.addf("Toppings", "right half has %d topping portions, at most %d allowed", right, maxToppingWeightPerHalf)
	}
}
