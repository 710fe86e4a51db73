package ports

import (
	"context"

	"github.com/ibadah/tracker/internal/core/domain"
)

// SessionService issues and verifies session tokens.
type SessionService interface {
	CreateToken(username string, mfaVerified bool) (string, error)
	// Authenticate verifies token and re-derives the principal from the
	// credential store.
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

// LoginInput is what the login endpoint collects from the request.
type LoginInput struct {
	Username  string
	Password  string
	OTP       string
	IPAddress string
	UserAgent string
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string
	Principal domain.Principal
}

type AuthService interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, principal *domain.Principal, ipAddress string)
}

// TwoFactorService manages TOTP enrolment for admin-class accounts.
type TwoFactorService interface {
	Status(ctx context.Context, username string) (*domain.TwoFactorStatus, error)
	IsEnabled(ctx context.Context, username string) (bool, error)
	BeginSetup(ctx context.Context, username string) (*domain.TwoFactorSetup, error)
	ConfirmEnable(ctx context.Context, username, otp string) error
	VerifyForLogin(ctx context.Context, username, otp string) error
	Disable(ctx context.Context, username, otp string) error
	CancelPendingSetup(ctx context.Context, username string) error
	ResetForUser(ctx context.Context, username string) error
}
