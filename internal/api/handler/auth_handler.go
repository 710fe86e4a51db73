package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ibadah/tracker/internal/api/middleware"
	"github.com/ibadah/tracker/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookie      *middleware.SessionCookie
}

func NewAuthHandler(authService ports.AuthService, cookie *middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	OTP      string `json:"otp,omitempty"`
}

// Login authenticates a user and sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		OTP:       req.OTP,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return err
	}

	h.cookie.Set(c, res.Token)
	return c.JSON(http.StatusOK, userResponse{User: res.Principal})
}

// Logout clears the session cookie. It succeeds even with a stale session.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.authService.Logout(c.Request().Context(), middleware.PrincipalFrom(c), c.RealIP())
	h.cookie.Clear(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's current identity.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]any
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: *p})
}
