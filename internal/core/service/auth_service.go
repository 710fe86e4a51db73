package service

import (
	"context"
	"errors"
	"strings"

	"github.com/mileusna/useragent"
	"github.com/rs/zerolog"

	"github.com/ibadah/tracker/internal/api/metrics"
	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
)

// AuthService implements login and logout on top of the credential store,
// the 2FA store and the session service.
type AuthService struct {
	accounts  ports.AccountService
	twoFactor ports.TwoFactorService
	sessions  ports.SessionService
	audit     ports.AuditService
	log       zerolog.Logger
}

func NewAuthService(
	accounts ports.AccountService,
	twoFactor ports.TwoFactorService,
	sessions ports.SessionService,
	audit ports.AuditService,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{accounts: accounts, twoFactor: twoFactor, sessions: sessions, audit: audit, log: log}
}

func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	res, err := s.login(ctx, in)
	if err != nil {
		code := domain.ErrInternal.Code
		var de *domain.Error
		if errors.As(err, &de) {
			code = de.Code
		}
		metrics.AuthAttemptsTotal.WithLabelValues(code).Inc()
		if de != nil && de.Kind != domain.KindInternal {
			s.logFailure(in, code)
		}
		return nil, err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	return res, nil
}

func (s *AuthService) login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, domain.ErrMissingCredentials
	}

	acc, err := s.accounts.Authenticate(ctx, username, in.Password)
	if err != nil {
		return nil, err
	}

	mfa := false
	if acc.Role.IsAdminClass() {
		enabled, err := s.twoFactor.IsEnabled(ctx, acc.Username)
		if err != nil {
			return nil, err
		}
		if enabled {
			code := strings.TrimSpace(in.OTP)
			if code == "" {
				return nil, domain.ErrTOTPRequired
			}
			if err := s.twoFactor.VerifyForLogin(ctx, acc.Username, code); err != nil {
				return nil, err
			}
			mfa = true
		}
	}

	token, err := s.sessions.CreateToken(acc.Username, mfa)
	if err != nil {
		return nil, err
	}

	_ = s.audit.Record(ctx, acc.Username, "login", in.IPAddress)
	s.log.Info().Str("username", acc.Username).Str("role", string(acc.Role)).Bool("mfa", mfa).Msg("login")

	return &ports.LoginResult{
		Token:     token,
		Principal: domain.Principal{Username: acc.Username, Role: acc.Role, MFAVerified: mfa},
	}, nil
}

// Logout records the event when the caller could still be identified.
func (s *AuthService) Logout(ctx context.Context, principal *domain.Principal, ipAddress string) {
	if principal == nil {
		return
	}
	_ = s.audit.Record(ctx, principal.Username, "logout", ipAddress)
}

func (s *AuthService) logFailure(in ports.LoginInput, code string) {
	ua := useragent.Parse(in.UserAgent)
	s.log.Warn().
		Str("username", domain.NormalizeUsername(in.Username)).
		Str("ip", in.IPAddress).
		Str("code", code).
		Str("browser", ua.Name).
		Str("os", ua.OS).
		Bool("bot", ua.Bot).
		Msg("login failed")
}
