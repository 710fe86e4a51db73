package ports

import (
	"context"

	"github.com/ibadah/tracker/internal/core/domain"
)

// TwoFactorMutation receives the current record (nil when absent) and returns
// the record to store. Returning nil removes the record.
type TwoFactorMutation func(current *domain.TwoFactorRecord) (*domain.TwoFactorRecord, error)

// TwoFactorRepository stores one TOTP record per username.
type TwoFactorRepository interface {
	// Get returns nil, nil when no record exists.
	Get(ctx context.Context, username string) (*domain.TwoFactorRecord, error)
	// Mutate applies fn atomically with respect to other writers. An error from
	// fn aborts the write and is returned unchanged.
	Mutate(ctx context.Context, username string, fn TwoFactorMutation) error
}
