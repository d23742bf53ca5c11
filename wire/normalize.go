package wire

// defaultOption is what the server assumes for cheese and base sauce when it
// leaves the key out.
var defaultOption = OptionValue{Whole: "1"}

// NormalizeProduct canonicalizes the cheese and base sauce options. A missing
// key becomes the whole-pizza default and an all-zero value becomes Removed.
// Zero portions of any other option are dropped. The input is not modified.
func NormalizeProduct(p Product) Product {
	opts := make(Options, len(p.Options)+2)
	for code, v := range p.Options {
		opts[code] = dropZeroPortions(v)
	}
	for _, code := range []string{CheeseCode, SauceCode} {
		v, ok := opts[code]
		switch {
		case !ok:
			opts[code] = defaultOption
		case !v.Removed && v.IsZero():
			opts[code] = Removed
		}
	}
	p.Options = opts
	return p
}

func NormalizeProducts(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, NormalizeProduct(p))
	}
	return out
}

// ProductsEqual compares two product lists after normalizing both.
func ProductsEqual(a, b []Product) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !NormalizeProduct(a[i]).Equal(NormalizeProduct(b[i])) {
			return false
		}
	}
	return true
}

func dropZeroPortions(v OptionValue) OptionValue {
	if v.Removed {
		return v
	}
	if v.Whole == "0" {
		v.Whole = ""
	}
	if v.Left == "0" {
		v.Left = ""
	}
	if v.Right == "0" {
		v.Right = ""
	}
	return v
}
