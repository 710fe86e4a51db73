package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ibadah/tracker/internal/api/metrics"
	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
)

const principalKey = "principal"

// TwoFactorChecker is the part of the 2FA store the admin gate consults.
type TwoFactorChecker interface {
	IsEnabled(ctx context.Context, username string) (bool, error)
}

// Guard resolves the request principal from its session token and enforces
// role and 2FA requirements.
type Guard struct {
	sessions   ports.SessionService
	cookie     *SessionCookie
	twoFactor  TwoFactorChecker
	enforce2FA bool
}

func NewGuard(sessions ports.SessionService, cookie *SessionCookie, twoFactor TwoFactorChecker, enforce2FA bool) *Guard {
	return &Guard{sessions: sessions, cookie: cookie, twoFactor: twoFactor, enforce2FA: enforce2FA}
}

// Resolve authenticates the token carried by r. Used directly by the
// websocket upgrade, which runs outside the usual middleware chain.
func (g *Guard) Resolve(ctx context.Context, r *http.Request) (*domain.Principal, error) {
	token := g.cookie.Extract(r)
	if token == "" {
		return nil, domain.ErrAuthRequired
	}
	p, err := g.sessions.Authenticate(ctx, token)
	if err != nil {
		code := domain.ErrInternal.Code
		var de *domain.Error
		if errors.As(err, &de) {
			code = de.Code
		}
		metrics.SessionRejectionsTotal.WithLabelValues(code).Inc()
		return nil, err
	}
	return p, nil
}

// Authenticate rejects the request unless it carries a valid session.
func (g *Guard) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := g.Resolve(c.Request().Context(), c.Request())
			if err != nil {
				return err
			}
			SetPrincipal(c, p)
			return next(c)
		}
	}
}

// OptionalAuthenticate resolves the principal when it can and otherwise
// continues with none.
func (g *Guard) OptionalAuthenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p, err := g.Resolve(c.Request().Context(), c.Request()); err == nil {
				SetPrincipal(c, p)
			}
			return next(c)
		}
	}
}

// SetPrincipal attaches p to the request context.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal set by Authenticate, or nil.
func PrincipalFrom(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalKey).(*domain.Principal)
	return p
}
