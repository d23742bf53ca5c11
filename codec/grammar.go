// Package codec converts domain values to and from the compact text grammar
// used for saved entities and for pizza exchange with the authoring tool.
//
//	Amount    Light '-', Normal '=', Extra '^', absent '_'
//	Location  'A', 'L', 'R'
//	Cheese    "_" none, one amount char whole, two amount chars left+right
//	Sauce     amount char + sauce name, e.g. "=Tomato"
//	Topping   location char + amount char + topping name, e.g. "A=Pepperoni"
package codec

import (
	"errors"
	"fmt"

	"github.com/taldoflemis/cassa/domain"
)

const absentChar = '_'

// DecodeError reports text that does not follow the grammar.
type DecodeError struct {
	Path  string
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decode %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("decode %s %q: %v", e.Path, e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FieldError converts the failure into a validation-style field error.
func (e *DecodeError) FieldError() domain.FieldError {
	return domain.FieldError{Path: e.Path, Message: e.Err.Error()}
}

var (
	errEmpty         = errors.New("empty input")
	errUnknownChar   = errors.New("unknown character")
	errBadLength     = errors.New("unexpected length")
	errMissingAmount = errors.New("amount is required here")
)

func decodeErr(input string, err error) error {
	return &DecodeError{Input: input, Err: err}
}

// atPath stamps a property path onto a DecodeError produced deeper down.
func atPath(path string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Path == "" {
		return &DecodeError{Path: path, Input: de.Input, Err: de.Err}
	}
	return err
}

func EncodeAmount(a domain.Amount) byte {
	switch a {
	case domain.AmountLight:
		return '-'
	case domain.AmountNormal:
		return '='
	case domain.AmountExtra:
		return '^'
	default:
		panic(fmt.Sprintf("unreachable: amount %d", int(a)))
	}
}

// EncodeOptionalAmount writes '_' for a nil amount.
func EncodeOptionalAmount(a *domain.Amount) byte {
	if a == nil {
		return absentChar
	}
	return EncodeAmount(*a)
}

func DecodeAmount(c byte) (domain.Amount, error) {
	switch c {
	case '-':
		return domain.AmountLight, nil
	case '=':
		return domain.AmountNormal, nil
	case '^':
		return domain.AmountExtra, nil
	case absentChar:
		return 0, decodeErr(string(c), errMissingAmount)
	default:
		return 0, decodeErr(string(c), errUnknownChar)
	}
}

func DecodeOptionalAmount(c byte) (*domain.Amount, error) {
	if c == absentChar {
		return nil, nil
	}
	a, err := DecodeAmount(c)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func EncodeLocation(l domain.Location) byte {
	if !l.IsValid() {
		panic(fmt.Sprintf("unreachable: location %d", int(l)))
	}
	return l.String()[0]
}

func DecodeLocation(c byte) (domain.Location, error) {
	switch c {
	case 'A':
		return domain.LocationAll, nil
	case 'L':
		return domain.LocationLeft, nil
	case 'R':
		return domain.LocationRight, nil
	default:
		return 0, decodeErr(string(c), errUnknownChar)
	}
}

func EncodeCheese(c domain.Cheese) string {
	switch c := c.(type) {
	case domain.NoCheese:
		return string(absentChar)
	case domain.FullCheese:
		return string(EncodeAmount(c.Amount))
	case domain.SideCheese:
		return string([]byte{EncodeOptionalAmount(c.Left), EncodeOptionalAmount(c.Right)})
	default:
		panic("unreachable: unknown cheese variant")
	}
}

func DecodeCheese(s string) (domain.Cheese, error) {
	switch len(s) {
	case 1:
		if s[0] == absentChar {
			return domain.NoCheese{}, nil
		}
		a, err := DecodeAmount(s[0])
		if err != nil {
			return nil, decodeErr(s, errors.Unwrap(err))
		}
		return domain.FullCheese{Amount: a}, nil
	case 2:
		left, err := DecodeOptionalAmount(s[0])
		if err != nil {
			return nil, decodeErr(s, errors.Unwrap(err))
		}
		right, err := DecodeOptionalAmount(s[1])
		if err != nil {
			return nil, decodeErr(s, errors.Unwrap(err))
		}
		return domain.SideCheese{Left: left, Right: right}, nil
	case 0:
		return nil, decodeErr(s, errEmpty)
	default:
		return nil, decodeErr(s, errBadLength)
	}
}

func EncodeSauce(s domain.Sauce) string {
	if !s.Type.IsValid() {
		panic(fmt.Sprintf("unreachable: sauce %d", int(s.Type)))
	}
	return string(EncodeAmount(s.Amount)) + s.Type.String()
}

func DecodeSauce(s string) (domain.Sauce, error) {
	if len(s) < 2 {
		return domain.Sauce{}, decodeErr(s, errBadLength)
	}
	a, err := DecodeAmount(s[0])
	if err != nil {
		return domain.Sauce{}, decodeErr(s, errors.Unwrap(err))
	}
	t, err := domain.ParseSauceType(s[1:])
	if err != nil {
		return domain.Sauce{}, decodeErr(s, err)
	}
	return domain.Sauce{Type: t, Amount: a}, nil
}

func EncodeTopping(t domain.Topping) string {
	if !t.Type.IsValid() {
		panic(fmt.Sprintf("unreachable: topping %d", int(t.Type)))
	}
	return string([]byte{EncodeLocation(t.Location), EncodeAmount(t.Amount)}) + t.Type.String()
}

func DecodeTopping(s string) (domain.Topping, error) {
	if len(s) < 3 {
		return domain.Topping{}, decodeErr(s, errBadLength)
	}
	l, err := DecodeLocation(s[0])
	if err != nil {
		return domain.Topping{}, decodeErr(s, errors.Unwrap(err))
	}
	a, err := DecodeAmount(s[1])
	if err != nil {
		return domain.Topping{}, decodeErr(s, errors.Unwrap(err))
	}
	tt, err := domain.ParseToppingType(s[2:])
	if err != nil {
		return domain.Topping{}, decodeErr(s, err)
	}
	return domain.Topping{Type: tt, Location: l, Amount: a}, nil
}
