package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
	"github.com/ibadah/tracker/internal/infrastructure/filestore"
	"github.com/ibadah/tracker/internal/infrastructure/queue"
	"github.com/ibadah/tracker/internal/pkg/secretbox"
)

const (
	testPrimary  = "root"
	testPassword = "RootPassword1"
	testSecret   = "0123456789abcdef0123456789abcdef"
)

// testStack wires the services over a real data directory.
type testStack struct {
	store     *filestore.Store
	accounts  *AccountService
	twoFactor *TwoFactorService
	sessions  *SessionService
	logs      *filestore.AuditLogRepository
	publisher *recordingPublisher
	notifier  ports.NotificationService
	audit     ports.AuditService
	auth      *AuthService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	q := queue.NewSerialQueue(0, zerolog.Nop())
	t.Cleanup(q.Close)
	store, err := filestore.Open(t.TempDir(), q)
	require.NoError(t, err)

	box, err := secretbox.New(testSecret)
	require.NoError(t, err)

	st := &testStack{store: store, publisher: &recordingPublisher{}}
	st.accounts = NewAccountService(filestore.NewCredentialRepository(store), AccountConfig{
		BcryptCost:           bcrypt.MinCost,
		PrimaryAdminUsername: testPrimary,
		PrimaryAdminPassword: testPassword,
	}, zerolog.Nop())
	st.twoFactor = NewTwoFactorService(filestore.NewTwoFactorRepository(store), box, "Test", zerolog.Nop())
	st.sessions = NewSessionService(st.accounts, testSecret, 0)
	st.logs = filestore.NewAuditLogRepository(store, 0)
	st.notifier = NewNotificationService(st.accounts, st.logs, st.publisher, zerolog.Nop())
	st.audit = NewAuditService(st.logs, st.notifier, zerolog.Nop())
	st.auth = NewAuthService(st.accounts, st.twoFactor, st.sessions, st.audit, zerolog.Nop())

	_, err = st.accounts.EnsurePrimaryAdmin(context.Background())
	require.NoError(t, err)
	return st
}

func (st *testStack) mustCreate(t *testing.T, username string, role domain.Role) {
	t.Helper()
	_, err := st.accounts.CreateAccount(context.Background(), ports.CreateAccountInput{
		Username: username,
		Password: username + "-Password1",
		Role:     role,
	})
	require.NoError(t, err)
}

type recordingPublisher struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n domain.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, n)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.notes)
}
