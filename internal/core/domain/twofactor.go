package domain

import "time"

// TwoFactorState is the externally visible 2FA status of an account.
type TwoFactorState string

const (
	TwoFactorDisabled TwoFactorState = "disabled"
	TwoFactorPending  TwoFactorState = "pending"
	TwoFactorEnabled  TwoFactorState = "enabled"
)

// TwoFactorRecord is the persisted TOTP enrolment of one admin. Secret holds
// the encrypted shared secret, never the plaintext.
type TwoFactorRecord struct {
	Secret    string     `json:"secret"`
	Enabled   bool       `json:"enabled"`
	CreatedAt time.Time  `json:"createdAt"`
	EnabledAt *time.Time `json:"enabledAt"`
}

// State reports pending or enabled for an existing record.
func (r *TwoFactorRecord) State() TwoFactorState {
	if r == nil {
		return TwoFactorDisabled
	}
	if r.Enabled {
		return TwoFactorEnabled
	}
	return TwoFactorPending
}

// TwoFactorStatus is returned by the status operation.
type TwoFactorStatus struct {
	Status    TwoFactorState `json:"status"`
	EnabledAt *time.Time     `json:"enabledAt"`
}

// TwoFactorSetup is returned when a new pending enrolment is created.
type TwoFactorSetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}
