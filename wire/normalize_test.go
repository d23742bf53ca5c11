package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProduct(t *testing.T) {
	tests := []struct {
		name string
		in   Options
		want Options
	}{
		{
			name: "missing cheese and sauce get the default",
			in:   Options{"P": {Whole: "1"}},
			want: Options{"C": {Whole: "1"}, "X": {Whole: "1"}, "P": {Whole: "1"}},
		},
		{
			name: "zero cheese becomes removed",
			in:   Options{"C": {Whole: "0"}, "X": {Whole: "1"}},
			want: Options{"C": Removed, "X": {Whole: "1"}},
		},
		{
			name: "zero sauce on both sides becomes removed",
			in:   Options{"C": {Whole: "1"}, "X": {Left: "0", Right: "0"}},
			want: Options{"C": {Whole: "1"}, "X": Removed},
		},
		{
			name: "removed stays removed",
			in:   Options{"C": Removed, "X": Removed, "Xw": {Whole: "0.5"}},
			want: Options{"C": Removed, "X": Removed, "Xw": {Whole: "0.5"}},
		},
		{
			name: "zero portion next to a real one is dropped",
			in:   Options{"C": {Left: "1.5", Right: "0"}, "X": {Whole: "1"}},
			want: Options{"C": {Left: "1.5"}, "X": {Whole: "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			in := Product{ID: 1, Code: "14SCREEN", Qty: 1, Options: tt.in}
			before := tt.in.Clone()

			// Act
			got := NormalizeProduct(in)

			// Assert
			assert.Equal(t, tt.want, got.Options)
			assert.Equal(t, before, tt.in, "input must not be modified")
		})
	}
}

func TestProductsEqual(t *testing.T) {
	local := []Product{
		{ID: 1, Code: "14SCREEN", Qty: 1, Options: Options{"C": {Whole: "1"}, "X": {Whole: "1"}, "P": {Whole: "1"}}, Instructions: "NGO"},
		{ID: 2, Code: "10THIN", Qty: 2, Options: Options{"C": Removed, "X": Removed, "Rd": {Whole: "0.5"}}},
	}
	server := []Product{
		{ID: 1, Code: "14SCREEN", Qty: 1, Options: Options{"P": {Whole: "1"}}, Instructions: "NGO"},
		{ID: 2, Code: "10THIN", Qty: 2, Options: Options{"C": {Whole: "0"}, "X": Removed, "Rd": {Whole: "0.5"}}},
	}

	assert.True(t, ProductsEqual(local, server))
	assert.False(t, ProductsEqual(local, server[:1]))

	server[1].Qty = 3
	assert.False(t, ProductsEqual(local, server))
}
