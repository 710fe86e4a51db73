package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/ibadah/tracker/internal/api/middleware"
	"github.com/ibadah/tracker/internal/core/domain"
)

// currentPrincipal returns the principal resolved by the auth middleware. A
// missing principal means the route was mounted without the guard; treat it
// as unauthenticated rather than trusting the request.
func currentPrincipal(c echo.Context) (*domain.Principal, error) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		return nil, domain.ErrAuthRequired
	}
	return p, nil
}

// bind decodes the request body and runs struct validation when a validator
// is installed.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return domain.ErrInvalidPayload
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(dst); err != nil {
		return domain.ErrInvalidPayload.WithMessage(err.Error())
	}
	return nil
}

type userResponse struct {
	User domain.Principal `json:"user"`
}
