package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

const principalKey = "principal"

// Auth resolves the request credential to a Principal and stores it on the
// context. The bearer header wins over the session cookie. Verification is
// stateless: signature and expiry only.
func Auth(tokens ports.TokenIssuer, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := credential(c, cookieName)
			if err != nil {
				return err
			}

			p, err := tokens.Verify(token)
			if err != nil {
				return fmt.Errorf("invalid session: %w", domain.ErrUnauthenticated)
			}

			SetPrincipal(c, p)
			return next(c)
		}
	}
}

func credential(c echo.Context, cookieName string) (string, error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", fmt.Errorf("invalid authorization header: %w", domain.ErrUnauthenticated)
		}
		return strings.TrimSpace(parts[1]), nil
	}

	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", fmt.Errorf("missing credentials: %w", domain.ErrUnauthenticated)
}

// SetPrincipal stores p on the request context.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal stored by Auth.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok && p.UserID > 0
}
