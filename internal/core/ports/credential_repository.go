package ports

import (
	"context"

	"github.com/ibadah/tracker/internal/core/domain"
)

// CredentialRepository persists accounts as set memberships. Every mutating
// call is applied as one serialized read-modify-write.
type CredentialRepository interface {
	// Get returns domain.ErrUserNotFound when the username has no hash in
	// either credential set.
	Get(ctx context.Context, username string) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Create(ctx context.Context, acc domain.NewAccount) error
	Update(ctx context.Context, upd domain.AccountUpdate) error
	Delete(ctx context.Context, username string) error
	// Promote moves a regular user into the admin set, keeping its hash.
	Promote(ctx context.Context, username string) error
	// EnsurePrimaryAdmin creates username with hash when it is missing from the
	// admin set, then marks it primary. It reports whether an entry was created.
	EnsurePrimaryAdmin(ctx context.Context, username, hash string) (bool, error)
	// AdminUsernames is (admins ∪ primary) minus deactivated.
	AdminUsernames(ctx context.Context) ([]string, error)
}
