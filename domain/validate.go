package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedInput is returned when a caller hands the validator a value
// that cannot even be inspected, such as a nil variant.
var ErrMalformedInput = errors.New("malformed input")

// FieldError is one violated rule. Path is a dotted property path such as
// "Toppings[0].Amount" or "ServiceMethod.Address.ZipCode".
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Path + ": " + e.Message
}

// ValidationError holds every rule a value violated. Errors is never empty.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Paths lists the property paths of all failures, in report order.
func (e *ValidationError) Paths() []string {
	paths := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		paths = append(paths, fe.Path)
	}
	return paths
}

var (
	streetNumberRegex = regexp.MustCompile(`^\d+ `)
	stateRegex        = regexp.MustCompile(`^[A-Z]{2}$`)
	zipCodeRegex      = regexp.MustCompile(`^\d{5}$`)
	cvvRegex          = regexp.MustCompile(`^\d{3}$`)
	phoneRegex        = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)
	expirationRegex   = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
)

type definedEnum interface {
	IsValid() bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	regexRule := func(re *regexp.Regexp) validator.Func {
		return func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		}
	}
	rules := map[string]validator.Func{
		"streetnumber": regexRule(streetNumberRegex),
		"state":        regexRule(stateRegex),
		"zipcode":      regexRule(zipCodeRegex),
		"cvv":          regexRule(cvvRegex),
		"phone":        regexRule(phoneRegex),
		"expiration": func(fl validator.FieldLevel) bool {
			m := expirationRegex.FindStringSubmatch(fl.Field().String())
			if m == nil {
				return false
			}
			month, err := strconv.Atoi(m[1])
			return err == nil && month >= 1 && month <= 12
		},
		"enum": func(fl validator.FieldLevel) bool {
			e, ok := fl.Field().Interface().(definedEnum)
			return ok && e.IsValid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	return v
}

// collector accumulates failures across every rule group.
type collector struct {
	errs []FieldError
}

func (c *collector) add(path, message string) {
	c.errs = append(c.errs, FieldError{Path: path, Message: message})
}

func (c *collector) addf(path, format string, args ...any) {
	c.add(path, fmt.Sprintf(format, args...))
}

// check runs a validator tag against value and records message on failure.
func (c *collector) check(path string, value any, tag, message string) bool {
	if err := validate.Var(value, tag); err != nil {
		c.add(path, message)
		return false
	}
	return true
}

func (c *collector) enum(path string, value definedEnum) bool {
	return c.check(path, value, "enum", fmt.Sprintf("%v is not a defined value", value))
}

func (c *collector) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: c.errs}
}
