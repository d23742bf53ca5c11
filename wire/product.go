// Package wire holds the remote ordering API schema, the conversion of
// validated pizzas into API products, and the normalization that makes
// product lists comparable across round trips.
package wire

import (
	"fmt"
	"strings"

	"github.com/taldoflemis/cassa/domain"
)

const (
	CheeseCode = "C"
	// SauceCode is the base tomato sauce. Other sauces remove it.
	SauceCode = "X"
)

// Product is one pizza as the remote API sees it.
type Product struct {
	ID           int     `json:"ID"`
	Code         string  `json:"Code"`
	Qty          int     `json:"Qty"`
	Options      Options `json:"Options"`
	Instructions string  `json:"Instructions,omitempty"`
}

func (p Product) Equal(other Product) bool {
	return p.ID == other.ID && p.Code == other.Code && p.Qty == other.Qty &&
		p.Instructions == other.Instructions && p.Options.Equal(other.Options)
}

var sizeCodes = map[domain.Size]string{
	domain.SizeSmall:  "10",
	domain.SizeMedium: "12",
	domain.SizeLarge:  "14",
	domain.SizeXL:     "16",
}

var crustCodes = map[domain.Crust]string{
	domain.CrustBrooklyn:    "IBKZA",
	domain.CrustHandTossed:  "SCREEN",
	domain.CrustThin:        "THIN",
	domain.CrustHandmadePan: "IPAZA",
	domain.CrustGlutenFree:  "IGFZA",
}

var sauceCodes = map[domain.SauceType]string{
	domain.SauceTomato:         SauceCode,
	domain.SauceMarinara:       "Xm",
	domain.SauceHoneyBBQ:       "Bq",
	domain.SauceGarlicParmesan: "Xf",
	domain.SauceAlfredo:        "Xw",
	domain.SauceRanch:          "Rd",
}

var toppingCodes = map[domain.ToppingType]string{
	domain.ToppingPepperoni:              "P",
	domain.ToppingItalianSausage:         "S",
	domain.ToppingBeef:                   "B",
	domain.ToppingHam:                    "H",
	domain.ToppingBacon:                  "K",
	domain.ToppingChicken:                "Du",
	domain.ToppingPhillySteak:            "Pm",
	domain.ToppingSalami:                 "Sa",
	domain.ToppingMushrooms:              "M",
	domain.ToppingOnions:                 "O",
	domain.ToppingGreenPeppers:           "G",
	domain.ToppingBlackOlives:            "R",
	domain.ToppingPineapple:              "N",
	domain.ToppingJalapenoPeppers:        "J",
	domain.ToppingBananaPeppers:          "Z",
	domain.ToppingSpinach:                "Si",
	domain.ToppingRoastedRedPeppers:      "Rr",
	domain.ToppingDicedTomatoes:          "Td",
	domain.ToppingHotBuffaloSauce:        "Ht",
	domain.ToppingShreddedProvolone:      "Cp",
	domain.ToppingCheddarCheese:          "E",
	domain.ToppingFetaCheese:             "Fe",
	domain.ToppingShreddedParmesanAsiago: "Cs",
}

var amountValues = map[domain.Amount]string{
	domain.AmountLight:  "0.5",
	domain.AmountNormal: "1",
	domain.AmountExtra:  "1.5",
}

// lookup panics on a missing key: every table covers its whole enum, so a
// miss means an unvalidated value reached the encoder.
func lookup[K comparable](table map[K]string, k K, what string) string {
	v, ok := table[k]
	if !ok {
		panic(fmt.Sprintf("unreachable: no %s code for %v", what, k))
	}
	return v
}

func ProductCode(s domain.Size, c domain.Crust) string {
	return lookup(sizeCodes, s, "size") + lookup(crustCodes, c, "crust")
}

func ToppingCode(t domain.ToppingType) string { return lookup(toppingCodes, t, "topping") }

func SauceTypeCode(s domain.SauceType) string { return lookup(sauceCodes, s, "sauce") }

func AmountValue(a domain.Amount) string { return lookup(amountValues, a, "amount") }

// Instructions builds the dash-joined cooking instruction tokens.
func Instructions(p domain.Pizza) string {
	var tokens []string
	if p.Bake() == domain.BakeWellDone {
		tokens = append(tokens, "WD")
	}
	if p.Crust() == domain.CrustHandTossed && !p.GarlicCrust() {
		tokens = append(tokens, "NGO")
	}
	if p.Crust() == domain.CrustThin {
		if !p.Oregano() {
			tokens = append(tokens, "NOOR")
		}
		if p.Cut() == domain.CutPie {
			tokens = append(tokens, "PIECT")
		}
	} else if p.Cut() == domain.CutSquare {
		tokens = append(tokens, "SQCT")
	}
	if p.Cut() == domain.CutUncut {
		tokens = append(tokens, "UNCT")
	}
	return strings.Join(tokens, "-")
}

// FromPizza converts a pizza into the product at 1-based cart position id.
func FromPizza(p domain.Pizza, id int) Product {
	return Product{
		ID:           id,
		Code:         ProductCode(p.Size(), p.Crust()),
		Qty:          p.Quantity(),
		Options:      pizzaOptions(p),
		Instructions: Instructions(p),
	}
}

func pizzaOptions(p domain.Pizza) Options {
	opts := Options{}

	switch c := p.Cheese().(type) {
	case domain.FullCheese:
		opts[CheeseCode] = OptionValue{Whole: AmountValue(c.Amount)}
	case domain.SideCheese:
		v := OptionValue{}
		if c.Left != nil {
			v.Left = AmountValue(*c.Left)
		}
		if c.Right != nil {
			v.Right = AmountValue(*c.Right)
		}
		if v.IsZero() {
			v = Removed
		}
		opts[CheeseCode] = v
	case domain.NoCheese:
		opts[CheeseCode] = Removed
	default:
		panic("unreachable: unknown cheese variant")
	}

	if sauce, ok := p.Sauce(); ok {
		opts[SauceTypeCode(sauce.Type)] = OptionValue{Whole: AmountValue(sauce.Amount)}
		if sauce.Type != domain.SauceTomato {
			opts[SauceCode] = Removed
		}
	} else {
		opts[SauceCode] = Removed
	}

	for _, t := range p.Toppings() {
		v := OptionValue{}
		amount := AmountValue(t.Amount)
		switch t.Location {
		case domain.LocationAll:
			v.Whole = amount
		case domain.LocationLeft:
			v.Left = amount
		case domain.LocationRight:
			v.Right = amount
		default:
			panic(fmt.Sprintf("unreachable: location %v", t.Location))
		}
		opts[ToppingCode(t.Type)] = v
	}

	return opts
}
