package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
)

// AccountConfig carries the credential settings read from the environment.
type AccountConfig struct {
	BcryptCost           int
	PrimaryAdminUsername string
	PrimaryAdminPassword string
}

// AccountService implements the credential store contract on top of a
// CredentialRepository.
type AccountService struct {
	repo ports.CredentialRepository
	cfg  AccountConfig
	log  zerolog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAccountService(repo ports.CredentialRepository, cfg AccountConfig, log zerolog.Logger) *AccountService {
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AccountService{repo: repo, cfg: cfg, log: log}
}

func (s *AccountService) GetAccount(ctx context.Context, username string) (*domain.Account, error) {
	username = domain.NormalizeUsername(username)
	if username == "" {
		return nil, domain.ErrUserNotFound
	}
	return s.repo.Get(ctx, username)
}

func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*domain.Account, error) {
	username = domain.NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	acc, err := s.repo.Get(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		// Burn the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !acc.Active {
		return nil, domain.ErrInvalidCredentials
	}
	return acc, nil
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.repo.List(ctx)
}

func (s *AccountService) CreateAccount(ctx context.Context, in ports.CreateAccountInput) (*domain.Account, error) {
	username := domain.NormalizeUsername(in.Username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Role != domain.RoleUser && in.Role != domain.RoleAdmin {
		return nil, domain.ErrInvalidRole
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, domain.NewAccount{Username: username, PasswordHash: hash, Role: in.Role}); err != nil {
		return nil, err
	}

	s.log.Info().Str("username", username).Str("role", string(in.Role)).Msg("account created")
	return &domain.Account{Username: username, Role: in.Role, Active: true}, nil
}

func (s *AccountService) UpdateAccount(ctx context.Context, in ports.UpdateAccountInput) (*domain.Account, error) {
	if in.Password == nil && in.Active == nil {
		return nil, domain.ErrNoUpdateFields
	}
	username := domain.NormalizeUsername(in.Username)

	upd := domain.AccountUpdate{Username: username, Active: in.Active, Actor: in.Actor}
	if in.Password != nil {
		if err := domain.ValidatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	if err := s.repo.Update(ctx, upd); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, username)
}

func (s *AccountService) DeleteAccount(ctx context.Context, username string) error {
	return s.repo.Delete(ctx, domain.NormalizeUsername(username))
}

func (s *AccountService) PromoteToAdmin(ctx context.Context, username string) (*domain.Account, error) {
	username = domain.NormalizeUsername(username)
	if err := s.repo.Promote(ctx, username); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, username)
}

func (s *AccountService) ListAdminUsernames(ctx context.Context) ([]string, error) {
	return s.repo.AdminUsernames(ctx)
}

// EnsurePrimaryAdmin bootstraps the configured primary admin. It is safe to
// call on every start.
func (s *AccountService) EnsurePrimaryAdmin(ctx context.Context) (bool, error) {
	username := domain.NormalizeUsername(s.cfg.PrimaryAdminUsername)
	if err := domain.ValidateUsername(username); err != nil {
		return false, fmt.Errorf("primary admin username: %w", err)
	}

	acc, err := s.repo.Get(ctx, username)
	if err == nil && acc.Role == domain.RolePrimaryAdmin && acc.Active {
		return false, nil
	}
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return false, err
	}

	if err := domain.ValidatePassword(s.cfg.PrimaryAdminPassword); err != nil {
		return false, fmt.Errorf("primary admin password: %w", err)
	}
	hash, err := s.hash(s.cfg.PrimaryAdminPassword)
	if err != nil {
		return false, err
	}

	created, err := s.repo.EnsurePrimaryAdmin(ctx, username, hash)
	if err != nil {
		return false, err
	}
	if created {
		s.log.Info().Str("username", username).Msg("primary admin created")
	}
	return created, nil
}

func (s *AccountService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", domain.ErrInternal.Wrap(fmt.Errorf("hash password: %w", err))
	}
	return string(h), nil
}

func (s *AccountService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equaliser-password"), s.cfg.BcryptCost)
	})
	return s.dummyHash
}
