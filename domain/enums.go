package domain

import "fmt"

// Enumerations are closed sets of ints. Values decoded from untrusted input
// may fall outside the declared range, which is why every enum exposes
// IsValid and the validator checks it.

type Size int

const (
	SizeSmall Size = iota
	SizeMedium
	SizeLarge
	SizeXL
)

var sizeNames = []string{"Small", "Medium", "Large", "XL"}

type Crust int

const (
	CrustBrooklyn Crust = iota
	CrustHandTossed
	CrustThin
	CrustHandmadePan
	CrustGlutenFree
)

var crustNames = []string{"Brooklyn", "HandTossed", "Thin", "HandmadePan", "GlutenFree"}

type Amount int

const (
	AmountLight Amount = iota
	AmountNormal
	AmountExtra
)

var amountNames = []string{"Light", "Normal", "Extra"}

// Location is the part of the pizza a topping covers.
type Location int

const (
	LocationAll Location = iota
	LocationLeft
	LocationRight
)

var locationNames = []string{"All", "Left", "Right"}

type SauceType int

const (
	SauceTomato SauceType = iota
	SauceMarinara
	SauceHoneyBBQ
	SauceGarlicParmesan
	SauceAlfredo
	SauceRanch
)

var sauceTypeNames = []string{"Tomato", "Marinara", "HoneyBBQ", "GarlicParmesan", "Alfredo", "Ranch"}

type ToppingType int

const (
	ToppingPepperoni ToppingType = iota
	ToppingItalianSausage
	ToppingBeef
	ToppingHam
	ToppingBacon
	ToppingChicken
	ToppingPhillySteak
	ToppingSalami
	ToppingMushrooms
	ToppingOnions
	ToppingGreenPeppers
	ToppingBlackOlives
	ToppingPineapple
	ToppingJalapenoPeppers
	ToppingBananaPeppers
	ToppingSpinach
	ToppingRoastedRedPeppers
	ToppingDicedTomatoes
	ToppingHotBuffaloSauce
	ToppingShreddedProvolone
	ToppingCheddarCheese
	ToppingFetaCheese
	ToppingShreddedParmesanAsiago
)

var toppingTypeNames = []string{
	"Pepperoni", "ItalianSausage", "Beef", "Ham", "Bacon", "Chicken",
	"PhillySteak", "Salami", "Mushrooms", "Onions", "GreenPeppers",
	"BlackOlives", "Pineapple", "JalapenoPeppers", "BananaPeppers", "Spinach",
	"RoastedRedPeppers", "DicedTomatoes", "HotBuffaloSauce",
	"ShreddedProvolone", "CheddarCheese", "FetaCheese",
	"ShreddedParmesanAsiago",
}

type Bake int

const (
	BakeNormal Bake = iota
	BakeWellDone
)

var bakeNames = []string{"Normal", "WellDone"}

type Cut int

const (
	CutPie Cut = iota
	CutSquare
	CutUncut
)

var cutNames = []string{"Pie", "Square", "Uncut"}

type AddressType int

const (
	AddressHouse AddressType = iota
	AddressApartment
	AddressBusiness
	AddressCampus
	AddressHotel
	AddressOther
)

var addressTypeNames = []string{"House", "Apartment", "Business", "Campus", "Hotel", "Other"}

// PickupLocation is where a carryout order is handed over.
type PickupLocation int

const (
	PickupInStore PickupLocation = iota
	PickupDriveThru
	PickupCarside
)

var pickupLocationNames = []string{"InStore", "DriveThru", "Carside"}

func enumName[E ~int](names []string, v E) string {
	if v < 0 || int(v) >= len(names) {
		return fmt.Sprintf("%d", int(v))
	}
	return names[v]
}

func parseEnum[E ~int](kind string, names []string, s string) (E, error) {
	for i, name := range names {
		if name == s {
			return E(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

func validEnum[E ~int](names []string, v E) bool {
	return v >= 0 && int(v) < len(names)
}

func (s Size) String() string { return enumName(sizeNames, s) }
func (s Size) IsValid() bool  { return validEnum(sizeNames, s) }

func ParseSize(s string) (Size, error) { return parseEnum[Size]("size", sizeNames, s) }

func (c Crust) String() string { return enumName(crustNames, c) }
func (c Crust) IsValid() bool  { return validEnum(crustNames, c) }

func ParseCrust(s string) (Crust, error) { return parseEnum[Crust]("crust", crustNames, s) }

func (a Amount) String() string { return enumName(amountNames, a) }
func (a Amount) IsValid() bool  { return validEnum(amountNames, a) }

func ParseAmount(s string) (Amount, error) { return parseEnum[Amount]("amount", amountNames, s) }

func (l Location) String() string { return enumName(locationNames, l) }
func (l Location) IsValid() bool  { return validEnum(locationNames, l) }

func ParseLocation(s string) (Location, error) {
	return parseEnum[Location]("location", locationNames, s)
}

func (s SauceType) String() string { return enumName(sauceTypeNames, s) }
func (s SauceType) IsValid() bool  { return validEnum(sauceTypeNames, s) }

func ParseSauceType(s string) (SauceType, error) {
	return parseEnum[SauceType]("sauce", sauceTypeNames, s)
}

func (t ToppingType) String() string { return enumName(toppingTypeNames, t) }
func (t ToppingType) IsValid() bool  { return validEnum(toppingTypeNames, t) }

func ParseToppingType(s string) (ToppingType, error) {
	return parseEnum[ToppingType]("topping", toppingTypeNames, s)
}

func (b Bake) String() string { return enumName(bakeNames, b) }
func (b Bake) IsValid() bool  { return validEnum(bakeNames, b) }

func ParseBake(s string) (Bake, error) { return parseEnum[Bake]("bake", bakeNames, s) }

func (c Cut) String() string { return enumName(cutNames, c) }
func (c Cut) IsValid() bool  { return validEnum(cutNames, c) }

func ParseCut(s string) (Cut, error) { return parseEnum[Cut]("cut", cutNames, s) }

func (a AddressType) String() string { return enumName(addressTypeNames, a) }
func (a AddressType) IsValid() bool  { return validEnum(addressTypeNames, a) }

func ParseAddressType(s string) (AddressType, error) {
	return parseEnum[AddressType]("address type", addressTypeNames, s)
}

func (p PickupLocation) String() string { return enumName(pickupLocationNames, p) }
func (p PickupLocation) IsValid() bool  { return validEnum(pickupLocationNames, p) }

func ParsePickupLocation(s string) (PickupLocation, error) {
	return parseEnum[PickupLocation]("pickup location", pickupLocationNames, s)
}
