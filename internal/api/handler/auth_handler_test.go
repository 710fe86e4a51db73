package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
)

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
			if in.Username != "alice" || in.Password != "secret-password" || in.OTP != "123456" {
				t.Fatalf("unexpected args: %+v", in)
			}
			return &ports.LoginResult{
				Token:     "token123",
				Principal: domain.Principal{Username: "alice", Role: domain.RoleAdmin, MFAVerified: true},
			}, nil
		},
	}
	handler := NewAuthHandler(stub, testCookie())

	c, rec := newJSONContext(http.MethodPost, "/auth/login", `{"username":"alice","password":"secret-password","otp":"123456"}`, nil)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["user"]["username"] != "alice" || resp["user"]["role"] != "admin" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sess" || cookies[0].Value != "token123" || !cookies[0].HttpOnly {
		t.Fatalf("session cookie not set: %+v", cookies)
	}
}

func TestAuthHandler_Login_Failure(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
			return nil, domain.ErrTOTPRequired
		},
	}
	handler := NewAuthHandler(stub, testCookie())

	c, rec := newJSONContext(http.MethodPost, "/auth/login", `{"username":"alice","password":"x"}`, nil)
	err := handler.Login(c)
	if !errors.Is(err, domain.ErrTOTPRequired) {
		t.Fatalf("expected TOTP_REQUIRED, got %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("cookie must not be set on failure")
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, testCookie())

	c, _ := newJSONContext(http.MethodPost, "/auth/login", "not-json", nil)
	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected INVALID_PAYLOAD, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	stub := &stubAuthService{}
	handler := NewAuthHandler(stub, testCookie())

	// No principal: logout still succeeds and clears the cookie.
	c, rec := newJSONContext(http.MethodPost, "/auth/logout", "", nil)
	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", cookies)
	}
	if len(stub.loggedOut) != 1 || stub.loggedOut[0] != nil {
		t.Fatalf("expected one logout with nil principal, got %+v", stub.loggedOut)
	}

	c, _ = newJSONContext(http.MethodPost, "/auth/logout", "", adminPrincipal)
	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.loggedOut[1] == nil || stub.loggedOut[1].Username != "alice" {
		t.Fatalf("principal not passed to logout")
	}
}

func TestAuthHandler_Me(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, testCookie())

	c, _ := newJSONContext(http.MethodGet, "/auth/me", "", nil)
	if err := handler.Me(c); !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected AUTH_REQUIRED, got %v", err)
	}

	c, rec := newJSONContext(http.MethodGet, "/auth/me", "", adminPrincipal)
	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.User.Username != "alice" || !resp.User.MFAVerified {
		t.Fatalf("unexpected user: %+v", resp.User)
	}
}
