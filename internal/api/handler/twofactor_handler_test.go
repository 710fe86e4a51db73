package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/ibadah/tracker/internal/core/domain"
)

func newTwoFactorHandler(tf *stubTwoFactor, accounts *stubAccounts) (*TwoFactorHandler, *stubSessions, *stubAudit) {
	sessions := &stubSessions{}
	audit := &stubAudit{}
	if accounts == nil {
		accounts = &stubAccounts{}
	}
	return NewTwoFactorHandler(tf, accounts, sessions, audit, testCookie()), sessions, audit
}

func TestTwoFactorHandler_Verify_ReissuesVerifiedSession(t *testing.T) {
	tf := &stubTwoFactor{confirmFn: func(username, otp string) error {
		if username != "alice" || otp != "123456" {
			t.Fatalf("unexpected args %s %s", username, otp)
		}
		return nil
	}}
	h, sessions, audit := newTwoFactorHandler(tf, nil)

	c, rec := newJSONContext(http.MethodPost, "/admin/2fa/verify", `{"otp":"123456"}`, adminPrincipal)
	if err := h.Verify(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(sessions.issued) != 1 || sessions.issued[0] != "alice:mfa" {
		t.Fatalf("expected MFA session reissue, got %v", sessions.issued)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "alice:mfa" {
		t.Fatalf("cookie not reissued: %+v", cookies)
	}
	if audit.actions[0] != "alice|admin_2fa_enable" {
		t.Fatalf("unexpected audit: %v", audit.actions)
	}
}

func TestTwoFactorHandler_Verify_WrongCode(t *testing.T) {
	tf := &stubTwoFactor{confirmFn: func(string, string) error { return domain.ErrTOTPInvalid }}
	h, sessions, _ := newTwoFactorHandler(tf, nil)

	c, rec := newJSONContext(http.MethodPost, "/admin/2fa/verify", `{"otp":"000000"}`, adminPrincipal)
	if err := h.Verify(c); !errors.Is(err, domain.ErrTOTPInvalid) {
		t.Fatalf("expected TOTP_INVALID, got %v", err)
	}
	if len(sessions.issued) != 0 || len(rec.Result().Cookies()) != 0 {
		t.Fatalf("session must not be reissued")
	}
}

func TestTwoFactorHandler_Disable_RequiresPassword(t *testing.T) {
	disabled := false
	tf := &stubTwoFactor{disableFn: func(string, string) error {
		disabled = true
		return nil
	}}
	accounts := &stubAccounts{authFn: func(username, password string) (*domain.Account, error) {
		if password != "right-password" {
			return nil, domain.ErrInvalidCredentials
		}
		return &domain.Account{Username: username, Role: domain.RoleAdmin, Active: true}, nil
	}}
	h, sessions, _ := newTwoFactorHandler(tf, accounts)

	c, _ := newJSONContext(http.MethodPost, "/admin/2fa/disable", `{"password":"wrong","otp":"123456"}`, adminPrincipal)
	if err := h.Disable(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
	if disabled {
		t.Fatalf("2FA disabled without password")
	}

	c, rec := newJSONContext(http.MethodPost, "/admin/2fa/disable", `{"password":"right-password","otp":"123456"}`, adminPrincipal)
	if err := h.Disable(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || !disabled {
		t.Fatalf("expected disable, got %d", rec.Code)
	}
	if sessions.issued[0] != "alice:nomfa" {
		t.Fatalf("expected non-MFA session reissue, got %v", sessions.issued)
	}
}

func TestTwoFactorHandler_Reset_PrimaryOnly(t *testing.T) {
	tf := &stubTwoFactor{}
	accounts := &stubAccounts{getFn: func(username string) (*domain.Account, error) {
		if username != "alice" {
			return nil, domain.ErrUserNotFound
		}
		return &domain.Account{Username: "alice", Role: domain.RoleAdmin, Active: true}, nil
	}}
	h, _, audit := newTwoFactorHandler(tf, accounts)

	c, _ := newJSONContext(http.MethodPost, "/admin/2fa/reset", `{"username":"alice"}`, adminPrincipal)
	if err := h.Reset(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	c, _ = newJSONContext(http.MethodPost, "/admin/2fa/reset", `{"username":"nobody"}`, primaryPrincipal)
	if err := h.Reset(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected USER_NOT_FOUND, got %v", err)
	}

	c, rec := newJSONContext(http.MethodPost, "/admin/2fa/reset", `{"username":"alice"}`, primaryPrincipal)
	if err := h.Reset(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || len(tf.reset) != 1 || tf.reset[0] != "alice" {
		t.Fatalf("reset not applied: %d %v", rec.Code, tf.reset)
	}
	if audit.actions[0] != "root|admin_2fa_reset:alice" {
		t.Fatalf("unexpected audit: %v", audit.actions)
	}
}

func TestTwoFactorHandler_Cancel_Audited(t *testing.T) {
	tf := &stubTwoFactor{cancelFn: func(username string) error {
		if username != "alice" {
			t.Fatalf("unexpected username %s", username)
		}
		return nil
	}}
	h, _, audit := newTwoFactorHandler(tf, nil)

	c, rec := newJSONContext(http.MethodPost, "/admin/2fa/cancel", "", adminPrincipal)
	if err := h.Cancel(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(audit.actions) != 1 || audit.actions[0] != "alice|admin_2fa_cancel" {
		t.Fatalf("unexpected audit: %v", audit.actions)
	}
}

func TestTwoFactorHandler_Cancel_StoreFailure(t *testing.T) {
	tf := &stubTwoFactor{cancelFn: func(string) error { return domain.ErrInternal }}
	h, _, audit := newTwoFactorHandler(tf, nil)

	c, _ := newJSONContext(http.MethodPost, "/admin/2fa/cancel", "", adminPrincipal)
	if err := h.Cancel(c); !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(audit.actions) != 0 {
		t.Fatalf("failed cancel must not be audited: %v", audit.actions)
	}
}
