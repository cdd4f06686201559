package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/earnings-tracker/ledger-api/internal/api/middleware"
	"github.com/earnings-tracker/ledger-api/internal/core/domain"
)

// principal returns the caller resolved by the Auth middleware. Presence
// proves the middleware ran; a route mounted without it fails closed.
func principal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}
