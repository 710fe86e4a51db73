package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

const (
	minSecretLength   = 32
	minPasswordLength = 10
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`
	DataDir   string `env:"DATA_DIR,   default=./data"`

	Session   SessionConfig
	Accounts  AccountsConfig
	TwoFactor TwoFactorConfig
	Audit     AuditConfig
	Redis     RedisConfig
}

type SessionConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	TTL        time.Duration `env:"JWT_TTL,             default=12h"`
	CookieName string        `env:"SESSION_COOKIE_NAME, default=ibadah_session"`
	MaxAge     time.Duration `env:"SESSION_MAX_AGE,     default=12h"`
}

type AccountsConfig struct {
	BcryptCost           int    `env:"BCRYPT_COST,            default=12"`
	PrimaryAdminUsername string `env:"PRIMARY_ADMIN_USERNAME, default=admin"`
	PrimaryAdminPassword string `env:"PRIMARY_ADMIN_PASSWORD"`
}

type TwoFactorConfig struct {
	Issuer        string `env:"TOTP_ISSUER,         default=Ibadah Tracker"`
	EncryptionKey string `env:"TOTP_ENCRYPTION_KEY"`
	EnforceAdmin  bool   `env:"ENFORCE_ADMIN_2FA,   default=false"`
}

type AuditConfig struct {
	MaxScanBytes int64 `env:"AUDIT_MAX_SCAN_BYTES, default=16777216"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,      default=0"`
	Channel  string `env:"REDIS_CHANNEL, default=ibadah:notifications"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.TwoFactor.EncryptionKey == "" {
		cfg.TwoFactor.EncryptionKey = cfg.Session.JWTSecret
	}
	return &cfg, nil
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate rejects settings the server must not start with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Session.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Session.MaxAge <= 0 {
		errs = append(errs, errors.New("SESSION_MAX_AGE must be positive"))
	}
	if c.Accounts.BcryptCost < bcrypt.MinCost || c.Accounts.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if strings.TrimSpace(c.Accounts.PrimaryAdminUsername) == "" {
		errs = append(errs, errors.New("PRIMARY_ADMIN_USERNAME is required"))
	}
	if len(c.Accounts.PrimaryAdminPassword) < minPasswordLength {
		errs = append(errs, fmt.Errorf("PRIMARY_ADMIN_PASSWORD must be at least %d characters", minPasswordLength))
	}
	if c.TwoFactor.EncryptionKey == "" {
		errs = append(errs, errors.New("TOTP_ENCRYPTION_KEY or JWT_SECRET is required"))
	}
	if c.Audit.MaxScanBytes <= 0 {
		errs = append(errs, errors.New("AUDIT_MAX_SCAN_BYTES must be positive"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	return errors.Join(errs...)
}
