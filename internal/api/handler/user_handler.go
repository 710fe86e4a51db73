package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
)

// UserHandler serves account management for the admin console. Every state
// change is recorded through the audit service.
type UserHandler struct {
	accounts ports.AccountService
	audit    ports.AuditService
}

func NewUserHandler(accounts ports.AccountService, audit ports.AuditService) *UserHandler {
	return &UserHandler{accounts: accounts, audit: audit}
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role,omitempty"`
}

type updateUserRequest struct {
	Password *string `json:"password,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

type accountResponse struct {
	User domain.Account `json:"user"`
}

type accountListResponse struct {
	Users []domain.Account `json:"users"`
}

// List returns every account, primary admin first.
//
// @Summary      List accounts
// @Tags         admin
// @Produce      json
// @Success      200  {object}  accountListResponse
// @Failure      401  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Router       /admin/users [get]
func (h *UserHandler) List(c echo.Context) error {
	accounts, err := h.accounts.ListAccounts(c.Request().Context())
	if err != nil {
		return err
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return c.JSON(http.StatusOK, accountListResponse{Users: accounts})
}

// Create adds a user or admin account.
//
// @Summary      Create account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New account"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /admin/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req createUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role := domain.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if role == "" {
		role = domain.RoleUser
	}

	acc, err := h.accounts.CreateAccount(c.Request().Context(), ports.CreateAccountInput{
		Username: req.Username,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		return err
	}

	h.record(c, actor, "admin_create_user:"+acc.Username+":"+string(acc.Role))
	return c.JSON(http.StatusCreated, accountResponse{User: *acc})
}

// Update changes a password and/or the active flag.
//
// @Summary      Update account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        username  path      string             true  "Username"
// @Param        body      body      updateUserRequest  true  "Fields to change"
// @Success      200       {object}  accountResponse
// @Failure      400       {object}  map[string]any
// @Failure      403       {object}  map[string]any
// @Failure      404       {object}  map[string]any
// @Router       /admin/users/{username} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	target := domain.NormalizeUsername(c.Param("username"))
	if req.IsActive != nil && !*req.IsActive && target == domain.NormalizeUsername(actor.Username) {
		return domain.ErrForbidden.WithMessage("You cannot deactivate your own account")
	}

	acc, err := h.accounts.UpdateAccount(c.Request().Context(), ports.UpdateAccountInput{
		Username: target,
		Password: req.Password,
		Active:   req.IsActive,
		Actor:    actor.Username,
	})
	if err != nil {
		return err
	}

	action := "admin_update_user:" + acc.Username
	if req.Password != nil {
		action += ":password"
	}
	if req.IsActive != nil {
		if *req.IsActive {
			action += ":activate"
		} else {
			action += ":deactivate"
		}
	}
	h.record(c, actor, action)
	return c.JSON(http.StatusOK, accountResponse{User: *acc})
}

// Delete removes an account.
//
// @Summary      Delete account
// @Tags         admin
// @Param        username  path  string  true  "Username"
// @Success      204
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /admin/users/{username} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	target := domain.NormalizeUsername(c.Param("username"))
	if target == domain.NormalizeUsername(actor.Username) {
		return domain.ErrForbidden.WithMessage("You cannot delete your own account")
	}

	if err := h.accounts.DeleteAccount(c.Request().Context(), target); err != nil {
		return err
	}

	h.record(c, actor, "admin_delete_user:"+target)
	return c.NoContent(http.StatusNoContent)
}

// Promote moves a regular user into the admin set.
//
// @Summary      Promote to admin
// @Tags         admin
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  accountResponse
// @Failure      404       {object}  map[string]any
// @Failure      409       {object}  map[string]any
// @Router       /admin/users/{username}/promote [post]
func (h *UserHandler) Promote(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	acc, err := h.accounts.PromoteToAdmin(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}

	h.record(c, actor, "admin_promote_user:"+acc.Username)
	return c.JSON(http.StatusOK, accountResponse{User: *acc})
}

// record audits a completed change. The change already happened, so an audit
// failure is logged by the audit service and not surfaced to the caller.
func (h *UserHandler) record(c echo.Context, actor *domain.Principal, action string) {
	_ = h.audit.Record(c.Request().Context(), actor.Username, action, c.RealIP())
}
