package service

import (
	"context"
	"regexp"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"

	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
)

const totpPeriod = 30

var otpFormat = regexp.MustCompile(`^\d{6}$`)

// SecretBox seals TOTP secrets at rest. *secretbox.Box satisfies it.
type SecretBox interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// TwoFactorService manages TOTP enrolment. Records hold sealed secrets only;
// a secret that cannot be opened counts as unusable.
type TwoFactorService struct {
	repo   ports.TwoFactorRepository
	box    SecretBox
	issuer string
	now    func() time.Time
	log    zerolog.Logger
}

func NewTwoFactorService(repo ports.TwoFactorRepository, box SecretBox, issuer string, log zerolog.Logger) *TwoFactorService {
	return &TwoFactorService{repo: repo, box: box, issuer: issuer, now: time.Now, log: log}
}

func (s *TwoFactorService) Status(ctx context.Context, username string) (*domain.TwoFactorStatus, error) {
	rec, err := s.repo.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	st := &domain.TwoFactorStatus{Status: rec.State()}
	if rec != nil && rec.Enabled {
		st.EnabledAt = rec.EnabledAt
	}
	return st, nil
}

func (s *TwoFactorService) IsEnabled(ctx context.Context, username string) (bool, error) {
	rec, err := s.repo.Get(ctx, username)
	if err != nil {
		return false, err
	}
	return rec != nil && rec.Enabled, nil
}

// BeginSetup replaces any pending record with a fresh secret. An enabled
// record is only replaced when its secret is no longer readable.
func (s *TwoFactorService) BeginSetup(ctx context.Context, username string) (*domain.TwoFactorSetup, error) {
	username = domain.NormalizeUsername(username)
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: username,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, domain.ErrInternal.Wrap(err)
	}
	sealed, err := s.box.Seal(key.Secret())
	if err != nil {
		return nil, domain.ErrInternal.Wrap(err)
	}

	err = s.repo.Mutate(ctx, username, func(cur *domain.TwoFactorRecord) (*domain.TwoFactorRecord, error) {
		if cur != nil && cur.Enabled {
			if _, openErr := s.box.Open(cur.Secret); openErr == nil {
				return nil, domain.Err2FAAlreadyEnabled
			}
			s.log.Warn().Str("username", username).Msg("replacing enabled 2FA record with unreadable secret")
		}
		return &domain.TwoFactorRecord{Secret: sealed, CreatedAt: s.now().UTC()}, nil
	})
	if err != nil {
		return nil, err
	}

	return &domain.TwoFactorSetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

func (s *TwoFactorService) ConfirmEnable(ctx context.Context, username, code string) error {
	if !otpFormat.MatchString(code) {
		return domain.ErrInvalidOTPFormat
	}
	return s.repo.Mutate(ctx, username, func(cur *domain.TwoFactorRecord) (*domain.TwoFactorRecord, error) {
		if cur == nil {
			return nil, domain.ErrNoPending2FA
		}
		if cur.Enabled {
			return nil, domain.Err2FAAlreadyEnabled
		}
		if err := s.check(cur, code); err != nil {
			return nil, err
		}
		enabledAt := s.now().UTC()
		next := *cur
		next.Enabled = true
		next.EnabledAt = &enabledAt
		return &next, nil
	})
}

func (s *TwoFactorService) VerifyForLogin(ctx context.Context, username, code string) error {
	rec, err := s.repo.Get(ctx, username)
	if err != nil {
		return err
	}
	if rec == nil || !rec.Enabled {
		return domain.Err2FANotEnabled
	}
	if !otpFormat.MatchString(code) {
		return domain.ErrTOTPInvalid
	}
	return s.check(rec, code)
}

func (s *TwoFactorService) Disable(ctx context.Context, username, code string) error {
	if !otpFormat.MatchString(code) {
		return domain.ErrInvalidOTPFormat
	}
	return s.repo.Mutate(ctx, username, func(cur *domain.TwoFactorRecord) (*domain.TwoFactorRecord, error) {
		if cur == nil || !cur.Enabled {
			return nil, domain.Err2FANotEnabled
		}
		if err := s.check(cur, code); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// CancelPendingSetup leaves enabled records alone.
func (s *TwoFactorService) CancelPendingSetup(ctx context.Context, username string) error {
	return s.repo.Mutate(ctx, username, func(cur *domain.TwoFactorRecord) (*domain.TwoFactorRecord, error) {
		if cur != nil && cur.Enabled {
			return cur, nil
		}
		return nil, nil
	})
}

func (s *TwoFactorService) ResetForUser(ctx context.Context, username string) error {
	err := s.repo.Mutate(ctx, username, func(*domain.TwoFactorRecord) (*domain.TwoFactorRecord, error) {
		return nil, nil
	})
	if err == nil {
		s.log.Info().Str("username", domain.NormalizeUsername(username)).Msg("2FA reset")
	}
	return err
}

// check validates code against the record's secret with one period of skew.
func (s *TwoFactorService) check(rec *domain.TwoFactorRecord, code string) error {
	secret, err := s.box.Open(rec.Secret)
	if err != nil {
		return domain.ErrTOTPSecretUnusable.Wrap(err)
	}
	ok, err := totp.ValidateCustom(code, secret, s.now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !ok {
		return domain.ErrTOTPInvalid
	}
	return nil
}
