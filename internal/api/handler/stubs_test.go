package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ibadah/tracker/internal/api/middleware"
	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
)

type stubAuthService struct {
	loginFn   func(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error)
	loggedOut []*domain.Principal
}

func (s *stubAuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubAuthService) Logout(_ context.Context, p *domain.Principal, _ string) {
	s.loggedOut = append(s.loggedOut, p)
}

type stubAccounts struct {
	ports.AccountService
	createFn  func(in ports.CreateAccountInput) (*domain.Account, error)
	updateFn  func(in ports.UpdateAccountInput) (*domain.Account, error)
	deleteFn  func(username string) error
	promoteFn func(username string) (*domain.Account, error)
	authFn    func(username, password string) (*domain.Account, error)
	getFn     func(username string) (*domain.Account, error)
}

func (s *stubAccounts) CreateAccount(_ context.Context, in ports.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(in)
}

func (s *stubAccounts) UpdateAccount(_ context.Context, in ports.UpdateAccountInput) (*domain.Account, error) {
	return s.updateFn(in)
}

func (s *stubAccounts) DeleteAccount(_ context.Context, username string) error {
	return s.deleteFn(username)
}

func (s *stubAccounts) PromoteToAdmin(_ context.Context, username string) (*domain.Account, error) {
	return s.promoteFn(username)
}

func (s *stubAccounts) Authenticate(_ context.Context, username, password string) (*domain.Account, error) {
	return s.authFn(username, password)
}

func (s *stubAccounts) GetAccount(_ context.Context, username string) (*domain.Account, error) {
	return s.getFn(username)
}

type stubAudit struct {
	actions []string
	queryFn func(q domain.AuditQuery) (*domain.AuditQueryResult, error)
}

func (s *stubAudit) Record(_ context.Context, username, action, _ string) error {
	s.actions = append(s.actions, username+"|"+action)
	return nil
}

func (s *stubAudit) Query(_ context.Context, q domain.AuditQuery) (*domain.AuditQueryResult, error) {
	return s.queryFn(q)
}

type stubNotifications struct {
	forAdminFn func(admin string, since time.Time, limit int) ([]domain.Notification, error)
}

func (s *stubNotifications) FanOut(context.Context, domain.ActivityEntry) ([]domain.Notification, error) {
	return nil, nil
}

func (s *stubNotifications) ForAdmin(_ context.Context, admin string, since time.Time, limit int) ([]domain.Notification, error) {
	return s.forAdminFn(admin, since, limit)
}

type stubTwoFactor struct {
	ports.TwoFactorService
	confirmFn func(username, otp string) error
	disableFn func(username, otp string) error
	cancelFn  func(username string) error
	reset     []string
}

func (s *stubTwoFactor) CancelPendingSetup(_ context.Context, username string) error {
	return s.cancelFn(username)
}

func (s *stubTwoFactor) ConfirmEnable(_ context.Context, username, otp string) error {
	return s.confirmFn(username, otp)
}

func (s *stubTwoFactor) Disable(_ context.Context, username, otp string) error {
	return s.disableFn(username, otp)
}

func (s *stubTwoFactor) Status(context.Context, string) (*domain.TwoFactorStatus, error) {
	return &domain.TwoFactorStatus{Status: domain.TwoFactorEnabled}, nil
}

func (s *stubTwoFactor) ResetForUser(_ context.Context, username string) error {
	s.reset = append(s.reset, username)
	return nil
}

type stubSessions struct {
	issued []string
}

func (s *stubSessions) CreateToken(username string, mfa bool) (string, error) {
	tok := username + ":nomfa"
	if mfa {
		tok = username + ":mfa"
	}
	s.issued = append(s.issued, tok)
	return tok, nil
}

func (s *stubSessions) Authenticate(context.Context, string) (*domain.Principal, error) {
	return nil, domain.ErrInvalidToken
}

func testCookie() *middleware.SessionCookie {
	return middleware.NewSessionCookie(middleware.CookieConfig{Name: "sess", MaxAge: time.Hour})
}

// newJSONContext builds a context with a validator installed and, when p is
// non-nil, an authenticated principal.
func newJSONContext(method, target, body string, p *domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		middleware.SetPrincipal(c, p)
	}
	return c, rec
}

var (
	adminPrincipal   = &domain.Principal{Username: "alice", Role: domain.RoleAdmin, MFAVerified: true}
	primaryPrincipal = &domain.Principal{Username: "root", Role: domain.RolePrimaryAdmin, MFAVerified: true}
)
