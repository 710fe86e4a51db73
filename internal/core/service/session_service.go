package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ibadah/tracker/internal/core/domain"
)

const (
	tokenIssuer = "ibadah-tracker"
	tokenType   = "session"
)

// AccountLookup is the slice of the credential store a session needs.
type AccountLookup interface {
	GetAccount(ctx context.Context, username string) (*domain.Account, error)
}

type sessionClaims struct {
	Type string `json:"typ"`
	MFA  bool   `json:"mfa"`
	jwt.RegisteredClaims
}

// SessionService signs HS256 session tokens. The token only names the
// subject; role and active status are looked up again on every request.
type SessionService struct {
	accounts AccountLookup
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionService(accounts AccountLookup, secret string, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionService{accounts: accounts, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *SessionService) CreateToken(username string, mfaVerified bool) (string, error) {
	now := s.now()
	claims := sessionClaims{
		Type: tokenType,
		MFA:  mfaVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   domain.NormalizeUsername(username),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", domain.ErrInternal.Wrap(err)
	}
	return signed, nil
}

func (s *SessionService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrAuthRequired
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, domain.ErrInvalidToken.Wrap(err)
	}
	if claims.Type != tokenType || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	acc, err := s.accounts.GetAccount(ctx, claims.Subject)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUserNotAvailable
	}
	if err != nil {
		return nil, err
	}
	if !acc.Active {
		return nil, domain.ErrUserNotAvailable
	}

	return &domain.Principal{Username: acc.Username, Role: acc.Role, MFAVerified: claims.MFA}, nil
}
