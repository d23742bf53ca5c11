package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/taldoflemis/cassa/cart"
	"github.com/taldoflemis/cassa/codec"
	"github.com/taldoflemis/cassa/domain"
	"github.com/taldoflemis/cassa/repository"
)

// requestValidator plugs go-playground/validator into echo's c.Validate.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{validate: validator.New()}
}

func (v *requestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		out := &domain.ValidationError{}
		for _, fe := range verrs {
			out.Errors = append(out.Errors, domain.FieldError{
				Path:    fe.Field(),
				Message: fmt.Sprintf("failed on the %q rule", fe.Tag()),
			})
		}
		return out
	}
	return nil
}

// respondError turns err into the matching status code and body.
// Errors that reach the store API and are not protocol failures are
// reported as a bad gateway without their details.
func respondError(c echo.Context, err error) error {
	ctx := c.Request().Context()

	var verr *domain.ValidationError
	var derr *codec.DecodeError
	var failure *cart.Failure
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse(verr.Errors))
	case errors.As(err, &derr):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: derr.Error(), Path: derr.Path})
	case errors.Is(err, domain.ErrMalformedInput), errors.Is(err, repository.ErrInvalidName):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	case errors.As(err, &failure):
		return c.JSON(http.StatusConflict, ErrorResponse{Message: failure.Message})
	case errors.Is(err, errStoreUnavailable):
		slog.ErrorContext(ctx, "store api call failed", slog.Any("err", err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{Message: "store unavailable"})
	}

	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		return err
	}
	slog.ErrorContext(ctx, "request failed", slog.Any("err", err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
}

var errStoreUnavailable = errors.New("store unavailable")

// storeCall marks a non-failure error of a cart operation as a transport
// problem.
func storeCall(err error) error {
	if err == nil || cart.IsFailure(err) {
		return err
	}
	return errors.Join(errStoreUnavailable, err)
}
