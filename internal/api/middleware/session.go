package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	// Secure is on in production.
	Secure bool
}

// SessionCookie writes, clears and reads the session token.
type SessionCookie struct {
	cfg CookieConfig
}

func NewSessionCookie(cfg CookieConfig) *SessionCookie {
	if cfg.Name == "" {
		cfg.Name = "ibadah_session"
	}
	return &SessionCookie{cfg: cfg}
}

func (s *SessionCookie) Name() string { return s.cfg.Name }

func (s *SessionCookie) Set(c echo.Context, token string) {
	c.SetCookie(s.cookie(token, int(s.cfg.MaxAge/time.Second)))
}

// Clear expires the cookie on the client.
func (s *SessionCookie) Clear(c echo.Context) {
	ck := s.cookie("", -1)
	ck.Expires = time.Unix(0, 0)
	c.SetCookie(ck)
}

func (s *SessionCookie) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Extract returns the session token from the cookie, falling back to a
// bearer Authorization header. It returns "" when neither is present.
func (s *SessionCookie) Extract(r *http.Request) string {
	if ck, err := r.Cookie(s.cfg.Name); err == nil && ck.Value != "" {
		return ck.Value
	}

	parts := strings.SplitN(r.Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
