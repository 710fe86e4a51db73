package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ibadah/tracker/internal/core/domain"
)

type stubAccountLookup struct {
	accounts map[string]domain.Account
}

func (s *stubAccountLookup) GetAccount(_ context.Context, username string) (*domain.Account, error) {
	acc, ok := s.accounts[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &acc, nil
}

func newSessionFixture() (*SessionService, *stubAccountLookup) {
	lookup := &stubAccountLookup{accounts: map[string]domain.Account{
		"alice": {Username: "alice", Role: domain.RoleAdmin, Active: true},
	}}
	return NewSessionService(lookup, testSecret, time.Hour), lookup
}

func TestSessionService_RoundTrip(t *testing.T) {
	svc, _ := newSessionFixture()

	token, err := svc.CreateToken("Alice", true)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	p, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.Username != "alice" || p.Role != domain.RoleAdmin || !p.MFAVerified {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestSessionService_RoleIsReDerivedEveryTime(t *testing.T) {
	svc, lookup := newSessionFixture()
	token, _ := svc.CreateToken("alice", false)

	// Demotion shows up on the next verification without a new token.
	lookup.accounts["alice"] = domain.Account{Username: "alice", Role: domain.RoleUser, Active: true}
	p, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.Role != domain.RoleUser {
		t.Fatalf("expected role user after demotion, got %s", p.Role)
	}

	lookup.accounts["alice"] = domain.Account{Username: "alice", Role: domain.RoleAdmin, Active: false}
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrUserNotAvailable) {
		t.Fatalf("expected ErrUserNotAvailable for deactivated account, got %v", err)
	}

	delete(lookup.accounts, "alice")
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrUserNotAvailable) {
		t.Fatalf("expected ErrUserNotAvailable for deleted account, got %v", err)
	}
}

func TestSessionService_RejectsBadTokens(t *testing.T) {
	svc, _ := newSessionFixture()

	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "not-a-token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	other := NewSessionService(&stubAccountLookup{}, "another-secret-another-secret-xx", time.Hour)
	forged, _ := other.CreateToken("alice", true)
	if _, err := svc.Authenticate(context.Background(), forged); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong signature, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "alice", "typ": "session", "iss": tokenIssuer})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := svc.Authenticate(context.Background(), unsigned); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg none, got %v", err)
	}

	wrongType := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice", "typ": "refresh", "iss": tokenIssuer, "exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := wrongType.SignedString([]byte(testSecret))
	if _, err := svc.Authenticate(context.Background(), signed); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong type, got %v", err)
	}
}

func TestSessionService_Expiry(t *testing.T) {
	svc, _ := newSessionFixture()
	issued := time.Now()
	svc.now = func() time.Time { return issued }
	token, _ := svc.CreateToken("alice", false)

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
