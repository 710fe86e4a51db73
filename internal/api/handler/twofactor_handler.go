package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ibadah/tracker/internal/api/middleware"
	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
)

// TwoFactorHandler manages TOTP enrolment for the calling admin.
type TwoFactorHandler struct {
	twoFactor ports.TwoFactorService
	accounts  ports.AccountService
	sessions  ports.SessionService
	audit     ports.AuditService
	cookie    *middleware.SessionCookie
}

func NewTwoFactorHandler(
	twoFactor ports.TwoFactorService,
	accounts ports.AccountService,
	sessions ports.SessionService,
	audit ports.AuditService,
	cookie *middleware.SessionCookie,
) *TwoFactorHandler {
	return &TwoFactorHandler{twoFactor: twoFactor, accounts: accounts, sessions: sessions, audit: audit, cookie: cookie}
}

type otpRequest struct {
	OTP string `json:"otp"`
}

type disableRequest struct {
	Password string `json:"password" validate:"required"`
	OTP      string `json:"otp" validate:"required"`
}

type resetRequest struct {
	Username string `json:"username" validate:"required"`
}

// Status reports whether the caller has 2FA disabled, pending or enabled.
//
// @Summary      2FA status
// @Tags         2fa
// @Produce      json
// @Success      200  {object}  domain.TwoFactorStatus
// @Router       /admin/2fa/status [get]
func (h *TwoFactorHandler) Status(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	st, err := h.twoFactor.Status(c.Request().Context(), p.Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// Setup generates a new pending secret and returns it with its otpauth URL.
//
// @Summary      Begin 2FA setup
// @Tags         2fa
// @Produce      json
// @Success      200  {object}  domain.TwoFactorSetup
// @Failure      409  {object}  map[string]any
// @Router       /admin/2fa/setup [post]
func (h *TwoFactorHandler) Setup(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	setup, err := h.twoFactor.BeginSetup(c.Request().Context(), p.Username)
	if err != nil {
		return err
	}
	h.record(c, p, "admin_2fa_setup")
	return c.JSON(http.StatusOK, setup)
}

// Verify confirms the pending secret and upgrades the session to MFA-verified.
//
// @Summary      Confirm 2FA setup
// @Tags         2fa
// @Accept       json
// @Produce      json
// @Param        body  body      otpRequest  true  "Current one-time code"
// @Success      200   {object}  domain.TwoFactorStatus
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /admin/2fa/verify [post]
func (h *TwoFactorHandler) Verify(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req otpRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.twoFactor.ConfirmEnable(ctx, p.Username, req.OTP); err != nil {
		return err
	}
	if err := h.reissue(c, p.Username, true); err != nil {
		return err
	}
	h.record(c, p, "admin_2fa_enable")

	st, err := h.twoFactor.Status(ctx, p.Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// Cancel discards an unconfirmed setup.
//
// @Summary      Cancel 2FA setup
// @Tags         2fa
// @Success      204
// @Router       /admin/2fa/cancel [post]
func (h *TwoFactorHandler) Cancel(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.twoFactor.CancelPendingSetup(c.Request().Context(), p.Username); err != nil {
		return err
	}
	h.record(c, p, "admin_2fa_cancel")
	return c.NoContent(http.StatusNoContent)
}

// Disable turns 2FA off after re-checking both the password and a code.
//
// @Summary      Disable 2FA
// @Tags         2fa
// @Accept       json
// @Param        body  body  disableRequest  true  "Password and current one-time code"
// @Success      204
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /admin/2fa/disable [post]
func (h *TwoFactorHandler) Disable(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req disableRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.accounts.Authenticate(ctx, p.Username, req.Password); err != nil {
		return err
	}
	if err := h.twoFactor.Disable(ctx, p.Username, req.OTP); err != nil {
		return err
	}
	if err := h.reissue(c, p.Username, false); err != nil {
		return err
	}
	h.record(c, p, "admin_2fa_disable")
	return c.NoContent(http.StatusNoContent)
}

// Reset removes another account's 2FA record. Primary admin only.
//
// @Summary      Reset 2FA for a user
// @Tags         2fa
// @Accept       json
// @Param        body  body  resetRequest  true  "Target username"
// @Success      204
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /admin/2fa/reset [post]
func (h *TwoFactorHandler) Reset(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if p.Role != domain.RolePrimaryAdmin {
		return domain.ErrForbidden
	}
	var req resetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	target, err := h.accounts.GetAccount(ctx, req.Username)
	if err != nil {
		return err
	}
	if err := h.twoFactor.ResetForUser(ctx, target.Username); err != nil {
		return err
	}
	h.record(c, p, "admin_2fa_reset:"+target.Username)
	return c.NoContent(http.StatusNoContent)
}

func (h *TwoFactorHandler) reissue(c echo.Context, username string, mfaVerified bool) error {
	token, err := h.sessions.CreateToken(username, mfaVerified)
	if err != nil {
		return err
	}
	h.cookie.Set(c, token)
	return nil
}

func (h *TwoFactorHandler) record(c echo.Context, actor *domain.Principal, action string) {
	_ = h.audit.Record(c.Request().Context(), actor.Username, action, c.RealIP())
}
