package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taldoflemis/cassa/domain"
)

func mustPizza(t *testing.T, u domain.UnvalidatedPizza) domain.Pizza {
	t.Helper()
	p, err := domain.ValidatePizza(u)
	require.NoError(t, err)
	return p
}

func TestInstructions(t *testing.T) {
	cheese := domain.FullCheese{Amount: domain.AmountNormal}
	tests := []struct {
		name  string
		pizza domain.UnvalidatedPizza
		want  string
	}{
		{
			name:  "thin pie cut without oregano",
			pizza: domain.UnvalidatedPizza{Size: domain.SizeLarge, Crust: domain.CrustThin, Cheese: cheese, Cut: domain.CutPie, Quantity: 1},
			want:  "NOOR-PIECT",
		},
		{
			name:  "thin with oregano square cut",
			pizza: domain.UnvalidatedPizza{Size: domain.SizeLarge, Crust: domain.CrustThin, Cheese: cheese, Cut: domain.CutSquare, Oregano: true, Quantity: 1},
			want:  "",
		},
		{
			name:  "hand tossed without garlic",
			pizza: domain.UnvalidatedPizza{Size: domain.SizeMedium, Crust: domain.CrustHandTossed, Cheese: cheese, Quantity: 1},
			want:  "NGO",
		},
		{
			name:  "hand tossed with garlic square cut",
			pizza: domain.UnvalidatedPizza{Size: domain.SizeMedium, Crust: domain.CrustHandTossed, Cheese: cheese, GarlicCrust: true, Cut: domain.CutSquare, Quantity: 1},
			want:  "SQCT",
		},
		{
			name:  "well done handmade pan uncut",
			pizza: domain.UnvalidatedPizza{Size: domain.SizeMedium, Crust: domain.CrustHandmadePan, Cheese: cheese, Bake: domain.BakeWellDone, Cut: domain.CutUncut, Quantity: 1},
			want:  "WD-UNCT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			p := mustPizza(t, tt.pizza)

			// Act
			got := Instructions(p)

			// Assert
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromPizza(t *testing.T) {
	// Arrange
	p := mustPizza(t, domain.UnvalidatedPizza{
		Size:   domain.SizeLarge,
		Crust:  domain.CrustHandTossed,
		Cheese: domain.SideCheese{Left: domain.AmountPtr(domain.AmountExtra)},
		Sauce:  &domain.Sauce{Type: domain.SauceAlfredo, Amount: domain.AmountLight},
		Toppings: []domain.Topping{
			{Type: domain.ToppingPepperoni, Location: domain.LocationAll, Amount: domain.AmountNormal},
			{Type: domain.ToppingMushrooms, Location: domain.LocationRight, Amount: domain.AmountExtra},
		},
		GarlicCrust: true,
		Quantity:    3,
	})

	// Act
	got := FromPizza(p, 2)

	// Assert
	assert.Equal(t, 2, got.ID)
	assert.Equal(t, "14SCREEN", got.Code)
	assert.Equal(t, 3, got.Qty)
	assert.Empty(t, got.Instructions)
	assert.Equal(t, Options{
		"C":  {Left: "1.5"},
		"Xw": {Whole: "0.5"},
		"X":  Removed,
		"P":  {Whole: "1"},
		"M":  {Right: "1.5"},
	}, got.Options)
}

func TestFromPizzaWithoutCheeseOrSauce(t *testing.T) {
	p := mustPizza(t, domain.UnvalidatedPizza{
		Size: domain.SizeSmall, Crust: domain.CrustGlutenFree, Cheese: domain.NoCheese{}, Quantity: 1,
	})

	got := FromPizza(p, 1)

	assert.Equal(t, "10IGFZA", got.Code)
	assert.Equal(t, Options{"C": Removed, "X": Removed}, got.Options)
}

func TestFromPizzaTomatoSauceKeepsBaseCode(t *testing.T) {
	p := mustPizza(t, domain.UnvalidatedPizza{
		Size: domain.SizeXL, Crust: domain.CrustBrooklyn,
		Cheese:   domain.FullCheese{Amount: domain.AmountLight},
		Sauce:    &domain.Sauce{Type: domain.SauceTomato, Amount: domain.AmountExtra},
		Quantity: 1,
	})

	got := FromPizza(p, 1)

	assert.Equal(t, "16IBKZA", got.Code)
	assert.Equal(t, Options{"C": {Whole: "0.5"}, "X": {Whole: "1.5"}}, got.Options)
}

func TestCodeTablesCoverEveryEnum(t *testing.T) {
	for tt := domain.ToppingType(0); tt.IsValid(); tt++ {
		assert.NotPanics(t, func() { ToppingCode(tt) }, tt.String())
	}
	for s := domain.SauceType(0); s.IsValid(); s++ {
		assert.NotPanics(t, func() { SauceTypeCode(s) }, s.String())
	}
	for size := domain.Size(0); size.IsValid(); size++ {
		for _, c := range domain.CrustsForSize(size) {
			assert.NotPanics(t, func() { ProductCode(size, c) })
		}
	}
}

func TestUnknownCodePanics(t *testing.T) {
	assert.Panics(t, func() { ToppingCode(domain.ToppingType(99)) })
}
