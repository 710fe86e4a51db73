package ports

import (
	"context"

	"github.com/ibadah/tracker/internal/core/domain"
)

// CreateAccountInput carries a new account request from the transport layer.
type CreateAccountInput struct {
	Username string
	Password string
	Role     domain.Role
}

// UpdateAccountInput carries a partial update. At least one of Password or
// Active must be set.
type UpdateAccountInput struct {
	Username string
	Password *string
	Active   *bool
	Actor    string
}

// AccountService is the credential store contract used by every other
// component.
type AccountService interface {
	GetAccount(ctx context.Context, username string) (*domain.Account, error)
	// Authenticate returns domain.ErrInvalidCredentials for every failure that
	// is the caller's fault, without revealing which part was wrong.
	Authenticate(ctx context.Context, username, password string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	CreateAccount(ctx context.Context, in CreateAccountInput) (*domain.Account, error)
	UpdateAccount(ctx context.Context, in UpdateAccountInput) (*domain.Account, error)
	DeleteAccount(ctx context.Context, username string) error
	PromoteToAdmin(ctx context.Context, username string) (*domain.Account, error)
	ListAdminUsernames(ctx context.Context) ([]string, error)
	EnsurePrimaryAdmin(ctx context.Context) (bool, error)
}
