package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/shopspring/decimal"
)

// Portion keys used by the remote API.
const (
	PortionWhole = "1/1"
	PortionLeft  = "1/2"
	PortionRight = "2/2"
)

// OptionValue is either Removed (sent as JSON null) or a set of per-portion
// amounts. Amounts are canonical decimal strings such as "0.5", "1", "1.5";
// an empty string means the portion is not present.
type OptionValue struct {
	Removed bool
	Whole   string
	Left    string
	Right   string
}

// Removed marks an option that is explicitly taken off the product.
var Removed = OptionValue{Removed: true}

func WholeAmount(amount string) OptionValue {
	return OptionValue{Whole: canonicalAmount(amount)}
}

// Options maps an option code (topping, sauce or cheese) to its value.
type Options map[string]OptionValue

func (o Options) Clone() Options {
	return maps.Clone(o)
}

func (o Options) Equal(other Options) bool {
	return maps.Equal(o, other)
}

func (v OptionValue) IsZero() bool {
	return v.Whole == "" && v.Left == "" && v.Right == ""
}

func (v OptionValue) MarshalJSON() ([]byte, error) {
	if v.Removed {
		return []byte("null"), nil
	}
	portions := make(map[string]string, 3)
	if v.Whole != "" {
		portions[PortionWhole] = v.Whole
	}
	if v.Left != "" {
		portions[PortionLeft] = v.Left
	}
	if v.Right != "" {
		portions[PortionRight] = v.Right
	}
	return json.Marshal(portions)
}

// UnmarshalJSON accepts null, a portion object whose amounts are strings or
// numbers, or a bare amount meaning the whole pizza.
func (v *OptionValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Removed
		return nil
	}

	if len(data) > 0 && data[0] == '{' {
		var portions map[string]json.RawMessage
		if err := json.Unmarshal(data, &portions); err != nil {
			return err
		}
		var out OptionValue
		for key, raw := range portions {
			amount, err := decodeAmount(raw)
			if err != nil {
				return fmt.Errorf("portion %s: %w", key, err)
			}
			switch key {
			case PortionWhole:
				out.Whole = amount
			case PortionLeft:
				out.Left = amount
			case PortionRight:
				out.Right = amount
			default:
				return fmt.Errorf("unknown portion %q", key)
			}
		}
		*v = out
		return nil
	}

	amount, err := decodeAmount(data)
	if err != nil {
		return err
	}
	*v = OptionValue{Whole: amount}
	return nil
}

func decodeAmount(raw json.RawMessage) (string, error) {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return "", fmt.Errorf("invalid amount %s: %w", string(raw), err)
	}
	return d.String(), nil
}

// canonicalAmount normalizes "1.0" and "1" to the same string.
func canonicalAmount(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.String()
}
