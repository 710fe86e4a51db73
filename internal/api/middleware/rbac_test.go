package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ibadah/tracker/internal/core/domain"
)

func runGuarded(t *testing.T, mw echo.MiddlewareFunc, p *domain.Principal) (bool, error) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if p != nil {
		c.Set(principalKey, p)
	}
	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return called, err
}

func TestRequireRoles_Allows(t *testing.T) {
	g := newGuard(false, nil)
	called, err := runGuarded(t, g.RequireRoles(AdminRoles...), &domain.Principal{Username: "alice", Role: domain.RoleAdmin})
	if err != nil || !called {
		t.Fatalf("expected pass, got called=%v err=%v", called, err)
	}
}

func TestRequireRoles_Forbids(t *testing.T) {
	g := newGuard(false, nil)
	called, err := runGuarded(t, g.RequireRoles(AdminRoles...), &domain.Principal{Username: "bob", Role: domain.RoleUser})
	if called || !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected FORBIDDEN, got called=%v err=%v", called, err)
	}

	called, err = runGuarded(t, g.RequireRoles(AdminRoles...), nil)
	if called || !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected AUTH_REQUIRED, got called=%v err=%v", called, err)
	}
}

func TestRequireRoles_Admin2FAGate(t *testing.T) {
	tf := &stubTwoFactor{enabled: map[string]bool{}}
	g := newGuard(true, tf)
	admin := &domain.Principal{Username: "alice", Role: domain.RoleAdmin}

	_, err := runGuarded(t, g.RequireRoles(AdminRoles...), admin)
	if !errors.Is(err, domain.ErrAdmin2FASetupRequired) {
		t.Fatalf("expected ADMIN_2FA_SETUP_REQUIRED, got %v", err)
	}

	tf.enabled["alice"] = true
	_, err = runGuarded(t, g.RequireRoles(AdminRoles...), admin)
	if !errors.Is(err, domain.ErrMFARequired) {
		t.Fatalf("expected MFA_REQUIRED for pre-2FA session, got %v", err)
	}

	verified := &domain.Principal{Username: "alice", Role: domain.RoleAdmin, MFAVerified: true}
	called, err := runGuarded(t, g.RequireRoles(AdminRoles...), verified)
	if err != nil || !called {
		t.Fatalf("expected pass, got called=%v err=%v", called, err)
	}

	// Regular users are never gated.
	called, err = runGuarded(t, g.RequireRoles(domain.RoleUser), &domain.Principal{Username: "bob", Role: domain.RoleUser})
	if err != nil || !called {
		t.Fatalf("expected pass for user, got %v", err)
	}
}

func TestRequireRolesUngated_SkipsGate(t *testing.T) {
	g := newGuard(true, &stubTwoFactor{})
	called, err := runGuarded(t, g.RequireRolesUngated(AdminRoles...), &domain.Principal{Username: "alice", Role: domain.RoleAdmin})
	if err != nil || !called {
		t.Fatalf("expected pass, got called=%v err=%v", called, err)
	}
}

func TestRequireRoles_GateLookupFailure(t *testing.T) {
	g := newGuard(true, &stubTwoFactor{err: domain.ErrInternal})
	_, err := runGuarded(t, g.RequireRoles(AdminRoles...), &domain.Principal{Username: "alice", Role: domain.RoleAdmin, MFAVerified: true})
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
