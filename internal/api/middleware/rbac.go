package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/ibadah/tracker/internal/core/domain"
)

// AdminRoles is the role set of the admin console.
var AdminRoles = []domain.Role{domain.RoleAdmin, domain.RolePrimaryAdmin}

// RequireRoles enforces role-based access control. When global admin 2FA
// enforcement is on, admin-class principals must also have 2FA enabled and a
// session issued after the second factor was verified.
func (g *Guard) RequireRoles(roles ...domain.Role) echo.MiddlewareFunc {
	return g.requireRoles(g.enforce2FA, roles)
}

// RequireRolesUngated is RequireRoles without the 2FA gate. The 2FA
// management routes use it so admins can complete the setup they are
// required to perform.
func (g *Guard) RequireRolesUngated(roles ...domain.Role) echo.MiddlewareFunc {
	return g.requireRoles(false, roles)
}

// AuthorizeAdmin applies the same checks as RequireRoles(AdminRoles...) to an
// already resolved principal.
func (g *Guard) AuthorizeAdmin(ctx context.Context, p *domain.Principal) error {
	return g.authorize(ctx, p, g.enforce2FA, roleSet(AdminRoles))
}

func (g *Guard) requireRoles(gate bool, roles []domain.Role) echo.MiddlewareFunc {
	allowed := roleSet(roles)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := g.authorize(c.Request().Context(), PrincipalFrom(c), gate, allowed); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func (g *Guard) authorize(ctx context.Context, p *domain.Principal, gate bool, allowed map[domain.Role]struct{}) error {
	if p == nil {
		return domain.ErrAuthRequired
	}
	if _, ok := allowed[p.Role]; !ok {
		return domain.ErrForbidden
	}
	if !gate || !p.Role.IsAdminClass() {
		return nil
	}

	enabled, err := g.twoFactor.IsEnabled(ctx, p.Username)
	if err != nil {
		return err
	}
	if !enabled {
		return domain.ErrAdmin2FASetupRequired
	}
	if !p.MFAVerified {
		return domain.ErrMFARequired
	}
	return nil
}

func roleSet(roles []domain.Role) map[domain.Role]struct{} {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return allowed
}
