package filestore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ibadah/tracker/internal/core/domain"
)

type hashFile map[string]string

type nameSet map[string]struct{}

func (s nameSet) has(u string) bool {
	_, ok := s[u]
	return ok
}

// credentialSnapshot is one consistent-enough read of the four backing files.
// Within the write queue it is exact, since nothing else mutates the files.
type credentialSnapshot struct {
	users       hashFile
	admins      hashFile
	primary     nameSet
	deactivated nameSet
}

// CredentialRepository implements ports.CredentialRepository on top of
// users.txt, admins.txt, primary_admins.txt and deactivated_users.txt.
type CredentialRepository struct {
	store *Store
}

func NewCredentialRepository(store *Store) *CredentialRepository {
	return &CredentialRepository{store: store}
}

func (r *CredentialRepository) Get(_ context.Context, username string) (*domain.Account, error) {
	snap, err := r.load()
	if err != nil {
		return nil, err
	}
	acc, ok := snap.account(domain.NormalizeUsername(username))
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return acc, nil
}

func (r *CredentialRepository) List(_ context.Context) ([]domain.Account, error) {
	snap, err := r.load()
	if err != nil {
		return nil, err
	}

	seen := make(nameSet, len(snap.users)+len(snap.admins))
	out := make([]domain.Account, 0, len(snap.users)+len(snap.admins))
	for _, file := range []hashFile{snap.admins, snap.users} {
		for u := range file {
			if seen.has(u) {
				continue
			}
			seen[u] = struct{}{}
			if acc, ok := snap.account(u); ok {
				out = append(out, *acc)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return domain.LessForListing(out[i], out[j]) })
	return out, nil
}

func (r *CredentialRepository) Create(ctx context.Context, acc domain.NewAccount) error {
	username := domain.NormalizeUsername(acc.Username)
	return r.store.write(ctx, func() error {
		snap, err := r.load()
		if err != nil {
			return err
		}
		if _, ok := snap.users[username]; ok {
			return domain.ErrUserExists
		}
		if _, ok := snap.admins[username]; ok {
			return domain.ErrUserExists
		}

		target, name := snap.users, UsersFile
		if acc.Role.IsAdminClass() {
			target, name = snap.admins, AdminsFile
		}
		target[username] = acc.PasswordHash
		if err := r.writeHashes(name, target); err != nil {
			return err
		}
		if snap.deactivated.has(username) {
			delete(snap.deactivated, username)
			return r.writeSet(DeactivatedFile, snap.deactivated)
		}
		return nil
	})
}

func (r *CredentialRepository) Update(ctx context.Context, upd domain.AccountUpdate) error {
	username := domain.NormalizeUsername(upd.Username)
	return r.store.write(ctx, func() error {
		snap, err := r.load()
		if err != nil {
			return err
		}
		acc, ok := snap.account(username)
		if !ok {
			return domain.ErrUserNotFound
		}
		if acc.Role == domain.RolePrimaryAdmin {
			if upd.Active != nil && !*upd.Active {
				return domain.ErrPrimaryAdminProtected
			}
			if domain.NormalizeUsername(upd.Actor) != username {
				return domain.ErrPrimaryAdminProtected
			}
		}

		if upd.PasswordHash != nil {
			file, name := snap.users, UsersFile
			if acc.Role.IsAdminClass() {
				file, name = snap.admins, AdminsFile
			}
			file[username] = *upd.PasswordHash
			if err := r.writeHashes(name, file); err != nil {
				return err
			}
		}

		if upd.Active != nil && *upd.Active == snap.deactivated.has(username) {
			if *upd.Active {
				delete(snap.deactivated, username)
			} else {
				snap.deactivated[username] = struct{}{}
			}
			return r.writeSet(DeactivatedFile, snap.deactivated)
		}
		return nil
	})
}

func (r *CredentialRepository) Delete(ctx context.Context, username string) error {
	username = domain.NormalizeUsername(username)
	return r.store.write(ctx, func() error {
		snap, err := r.load()
		if err != nil {
			return err
		}
		acc, ok := snap.account(username)
		if !ok {
			return domain.ErrUserNotFound
		}
		if acc.Role == domain.RolePrimaryAdmin {
			return domain.ErrPrimaryAdminProtected
		}

		if _, ok := snap.admins[username]; ok {
			delete(snap.admins, username)
			if err := r.writeHashes(AdminsFile, snap.admins); err != nil {
				return err
			}
		}
		if _, ok := snap.users[username]; ok {
			delete(snap.users, username)
			if err := r.writeHashes(UsersFile, snap.users); err != nil {
				return err
			}
		}
		if snap.deactivated.has(username) {
			delete(snap.deactivated, username)
			return r.writeSet(DeactivatedFile, snap.deactivated)
		}
		return nil
	})
}

func (r *CredentialRepository) Promote(ctx context.Context, username string) error {
	username = domain.NormalizeUsername(username)
	return r.store.write(ctx, func() error {
		snap, err := r.load()
		if err != nil {
			return err
		}
		if _, ok := snap.admins[username]; ok {
			return domain.ErrAlreadyAdmin
		}
		hash, ok := snap.users[username]
		if !ok {
			return domain.ErrUserNotFound
		}

		// Admin membership takes precedence on read, so writing admins first
		// never exposes a window where the account is missing.
		snap.admins[username] = hash
		if err := r.writeHashes(AdminsFile, snap.admins); err != nil {
			return err
		}
		delete(snap.users, username)
		return r.writeHashes(UsersFile, snap.users)
	})
}

func (r *CredentialRepository) EnsurePrimaryAdmin(ctx context.Context, username, hash string) (bool, error) {
	username = domain.NormalizeUsername(username)
	created := false
	err := r.store.write(ctx, func() error {
		snap, err := r.load()
		if err != nil {
			return err
		}

		if _, ok := snap.admins[username]; !ok {
			snap.admins[username] = hash
			if err := r.writeHashes(AdminsFile, snap.admins); err != nil {
				return err
			}
			created = true
		}
		if _, ok := snap.users[username]; ok {
			delete(snap.users, username)
			if err := r.writeHashes(UsersFile, snap.users); err != nil {
				return err
			}
		}
		if !snap.primary.has(username) {
			snap.primary[username] = struct{}{}
			if err := r.writeSet(PrimaryAdminsFile, snap.primary); err != nil {
				return err
			}
		}
		if snap.deactivated.has(username) {
			delete(snap.deactivated, username)
			return r.writeSet(DeactivatedFile, snap.deactivated)
		}
		return nil
	})
	return created, err
}

func (r *CredentialRepository) AdminUsernames(_ context.Context) ([]string, error) {
	snap, err := r.load()
	if err != nil {
		return nil, err
	}

	names := make(nameSet, len(snap.admins)+len(snap.primary))
	for u := range snap.admins {
		names[u] = struct{}{}
	}
	for u := range snap.primary {
		names[u] = struct{}{}
	}

	out := make([]string, 0, len(names))
	for u := range names {
		acc, ok := snap.account(u)
		if !ok || !acc.Active || !acc.Role.IsAdminClass() {
			continue
		}
		out = append(out, u)
	}
	sort.Strings(out)
	return out, nil
}

// account derives the role of username from set membership.
func (s *credentialSnapshot) account(username string) (*domain.Account, bool) {
	acc := &domain.Account{Username: username, Active: !s.deactivated.has(username)}
	if hash, ok := s.admins[username]; ok {
		acc.PasswordHash = hash
		acc.Role = domain.RoleAdmin
		if s.primary.has(username) {
			acc.Role = domain.RolePrimaryAdmin
		}
		return acc, true
	}
	if hash, ok := s.users[username]; ok {
		acc.PasswordHash = hash
		acc.Role = domain.RoleUser
		return acc, true
	}
	return nil, false
}

func (r *CredentialRepository) load() (*credentialSnapshot, error) {
	users, err := r.readHashes(UsersFile)
	if err != nil {
		return nil, err
	}
	admins, err := r.readHashes(AdminsFile)
	if err != nil {
		return nil, err
	}
	primary, err := r.readSet(PrimaryAdminsFile)
	if err != nil {
		return nil, err
	}
	deactivated, err := r.readSet(DeactivatedFile)
	if err != nil {
		return nil, err
	}
	return &credentialSnapshot{users: users, admins: admins, primary: primary, deactivated: deactivated}, nil
}

// readHashes parses "username:hash" lines. bcrypt hashes never contain ':', so
// the first colon is the separator.
func (r *CredentialRepository) readHashes(name string) (hashFile, error) {
	lines, err := readLines(r.store.path(name))
	if err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}
	out := make(hashFile, len(lines))
	for _, line := range lines {
		user, hash, ok := strings.Cut(line, ":")
		user = domain.NormalizeUsername(user)
		if !ok || user == "" || hash == "" {
			continue
		}
		out[user] = hash
	}
	return out, nil
}

func (r *CredentialRepository) readSet(name string) (nameSet, error) {
	lines, err := readLines(r.store.path(name))
	if err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}
	out := make(nameSet, len(lines))
	for _, line := range lines {
		out[domain.NormalizeUsername(line)] = struct{}{}
	}
	return out, nil
}

func (r *CredentialRepository) writeHashes(name string, file hashFile) error {
	users := make([]string, 0, len(file))
	for u := range file {
		users = append(users, u)
	}
	sort.Strings(users)

	var b strings.Builder
	for _, u := range users {
		b.WriteString(u)
		b.WriteByte(':')
		b.WriteString(file[u])
		b.WriteByte('\n')
	}
	if err := writeFileAtomic(r.store.path(name), []byte(b.String())); err != nil {
		return fmt.Errorf("credentials: write %s: %w", name, err)
	}
	return nil
}

func (r *CredentialRepository) writeSet(name string, set nameSet) error {
	users := make([]string, 0, len(set))
	for u := range set {
		users = append(users, u)
	}
	sort.Strings(users)

	var b strings.Builder
	for _, u := range users {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	if err := writeFileAtomic(r.store.path(name), []byte(b.String())); err != nil {
		return fmt.Errorf("credentials: write %s: %w", name, err)
	}
	return nil
}
