// Package app wires the tracker's components together and owns their
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ibadah/tracker/internal/api"
	"github.com/ibadah/tracker/internal/api/handler"
	"github.com/ibadah/tracker/internal/api/middleware"
	"github.com/ibadah/tracker/internal/core/ports"
	"github.com/ibadah/tracker/internal/core/service"
	"github.com/ibadah/tracker/internal/infrastructure/config"
	redisbridge "github.com/ibadah/tracker/internal/infrastructure/db/redis"
	"github.com/ibadah/tracker/internal/infrastructure/filestore"
	"github.com/ibadah/tracker/internal/infrastructure/queue"
	"github.com/ibadah/tracker/internal/infrastructure/realtime"
	"github.com/ibadah/tracker/internal/pkg/secretbox"
)

const (
	writeQueueBuffer = 64
	shutdownTimeout  = 10 * time.Second
)

// App holds every long-lived component. Build it with New for the HTTP server
// or NewOffline for maintenance commands.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	queue *queue.SerialQueue
	store *filestore.Store

	Accounts      *service.AccountService
	TwoFactor     *service.TwoFactorService
	Sessions      *service.SessionService
	Audit         ports.AuditService
	Notifications ports.NotificationService
	Auth          *service.AuthService

	registry *realtime.Registry
	redis    *goredis.Client
	broker   *redisbridge.Broker
	live     *handler.LiveHandler
	echo     *echo.Echo
}

// New builds the full server. When REDIS_ADDR is set, live pushes go through
// the Redis bridge; otherwise they are delivered in-process only, which
// assumes a single server process.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, registry: realtime.NewRegistry(log.With().Str("component", "realtime").Logger())}

	var publisher ports.NotificationPublisher = a.registry
	if cfg.Redis.Addr != "" {
		client, err := redisbridge.Connect(ctx, redisbridge.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.redis = client
		a.broker = redisbridge.NewBroker(client, cfg.Redis.Channel, log)
		publisher = a.broker
		log.Info().Str("addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Msg("notification bridge enabled")
	}

	if err := a.buildCore(publisher); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.store.CheckWritable(); err != nil {
		a.Close()
		return nil, err
	}
	if _, err := a.Accounts.EnsurePrimaryAdmin(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("bootstrap primary admin: %w", err)
	}

	a.buildTransport()
	return a, nil
}

// NewOffline builds the store and services without any transport. Live
// pushes are skipped; durable records are still written.
func NewOffline(cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}
	if err := a.buildCore(nil); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) buildCore(publisher ports.NotificationPublisher) error {
	cfg := a.cfg
	a.queue = queue.NewSerialQueue(writeQueueBuffer, a.log.With().Str("component", "write_queue").Logger())

	store, err := filestore.Open(cfg.DataDir, a.queue)
	if err != nil {
		return err
	}
	a.store = store

	box, err := secretbox.New(cfg.TwoFactor.EncryptionKey)
	if err != nil {
		return err
	}

	credentials := filestore.NewCredentialRepository(store)
	logs := filestore.NewAuditLogRepository(store, cfg.Audit.MaxScanBytes)

	a.Accounts = service.NewAccountService(credentials, service.AccountConfig{
		BcryptCost:           cfg.Accounts.BcryptCost,
		PrimaryAdminUsername: cfg.Accounts.PrimaryAdminUsername,
		PrimaryAdminPassword: cfg.Accounts.PrimaryAdminPassword,
	}, a.log.With().Str("component", "accounts").Logger())
	a.TwoFactor = service.NewTwoFactorService(filestore.NewTwoFactorRepository(store), box, cfg.TwoFactor.Issuer,
		a.log.With().Str("component", "two_factor").Logger())
	a.Sessions = service.NewSessionService(a.Accounts, cfg.Session.JWTSecret, cfg.Session.TTL)

	a.Notifications = service.NewNotificationService(a.Accounts, logs, publisher, a.log.With().Str("component", "notifications").Logger())
	a.Audit = service.NewAuditService(logs, a.Notifications, a.log.With().Str("component", "audit").Logger())
	a.Auth = service.NewAuthService(a.Accounts, a.TwoFactor, a.Sessions, a.Audit, a.log.With().Str("component", "auth").Logger())
	return nil
}

func (a *App) buildTransport() {
	cookie := middleware.NewSessionCookie(middleware.CookieConfig{
		Name:   a.cfg.Session.CookieName,
		MaxAge: a.cfg.Session.MaxAge,
		Secure: a.cfg.IsProduction(),
	})
	guard := middleware.NewGuard(a.Sessions, cookie, a.TwoFactor, a.cfg.TwoFactor.EnforceAdmin)
	a.live = handler.NewLiveHandler(guard, a.registry, a.log.With().Str("component", "live").Logger())

	a.echo = api.NewRouter(api.Handlers{
		Guard:     guard,
		Auth:      handler.NewAuthHandler(a.Auth, cookie),
		Users:     handler.NewUserHandler(a.Accounts, a.Audit),
		TwoFactor: handler.NewTwoFactorHandler(a.TwoFactor, a.Accounts, a.Sessions, a.Audit, cookie),
		Audit:     handler.NewAuditHandler(a.Audit, a.Notifications),
		Live:      a.live,
		Health:    handler.NewHealthHandler(),
		Ready:     handler.NewHealthDependenciesHandler(a.store, a.redis),
	}, a.log)
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler { return a.echo }

// Run serves HTTP (and the Redis bridge when enabled) until ctx is cancelled,
// then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a.echo == nil {
		return errors.New("app: Run called on an offline app")
	}
	addr := net.JoinHostPort("", a.cfg.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info().Str("addr", addr).Msg("http server listening")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if a.broker != nil {
		g.Go(func() error { return a.broker.Run(gctx, a.registry) })
	}
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info().Msg("shutting down")
		a.live.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.echo.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close drains the write queue and releases external connections.
func (a *App) Close() {
	if a.queue != nil {
		a.queue.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close redis")
		}
	}
}

// cliActor is the audit username for maintenance commands.
const cliActor = "cli"

// Bootstrap creates the data directory contents needed to log in. It reports
// whether the primary admin had to be created.
func (a *App) Bootstrap(ctx context.Context) (bool, error) {
	if err := a.store.CheckWritable(); err != nil {
		return false, err
	}
	return a.Accounts.EnsurePrimaryAdmin(ctx)
}

// ResetTwoFactor removes username's 2FA record for device-loss recovery. The
// server must not be running: the write queue only serializes this process.
func (a *App) ResetTwoFactor(ctx context.Context, username string) error {
	acc, err := a.Accounts.GetAccount(ctx, username)
	if err != nil {
		return err
	}
	if err := a.TwoFactor.ResetForUser(ctx, acc.Username); err != nil {
		return err
	}
	if err := a.Audit.Record(ctx, cliActor, "admin_2fa_reset:"+acc.Username, "local"); err != nil {
		a.log.Warn().Err(err).Msg("audit 2FA reset")
	}
	return nil
}
