package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
)

// TwoFactorRepository keeps every record in one JSON object keyed by
// username.
type TwoFactorRepository struct {
	store *Store
}

func NewTwoFactorRepository(store *Store) *TwoFactorRepository {
	return &TwoFactorRepository{store: store}
}

func (r *TwoFactorRepository) Get(_ context.Context, username string) (*domain.TwoFactorRecord, error) {
	records, err := r.load()
	if err != nil {
		return nil, err
	}
	rec, ok := records[domain.NormalizeUsername(username)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *TwoFactorRepository) Mutate(ctx context.Context, username string, fn ports.TwoFactorMutation) error {
	username = domain.NormalizeUsername(username)
	return r.store.write(ctx, func() error {
		records, err := r.load()
		if err != nil {
			return err
		}

		var current *domain.TwoFactorRecord
		if rec, ok := records[username]; ok {
			current = &rec
		}
		next, err := fn(current)
		if err != nil {
			return err
		}

		switch {
		case next != nil:
			records[username] = *next
		case current != nil:
			delete(records, username)
		default:
			return nil
		}
		return r.save(records)
	})
}

func (r *TwoFactorRepository) load() (map[string]domain.TwoFactorRecord, error) {
	data, err := os.ReadFile(r.store.path(TwoFactorFile))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]domain.TwoFactorRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("two-factor: read: %w", err)
	}

	records := map[string]domain.TwoFactorRecord{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("two-factor: decode: %w", err)
	}
	return records, nil
}

func (r *TwoFactorRepository) save(records map[string]domain.TwoFactorRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("two-factor: encode: %w", err)
	}
	if err := writeFileAtomic(r.store.path(TwoFactorFile), append(data, '\n')); err != nil {
		return fmt.Errorf("two-factor: write: %w", err)
	}
	return nil
}
