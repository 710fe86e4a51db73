package domain

import (
	"regexp"
	"strings"
)

// Role is derived from credential-set membership on every lookup; it is never
// stored alongside the account.
type Role string

const (
	RoleUser         Role = "user"
	RoleAdmin        Role = "admin"
	RolePrimaryAdmin Role = "primary_admin"
)

const MinPasswordLength = 10

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.@-]{3,80}$`)

// IsAdminClass reports whether r grants access to the admin console.
func (r Role) IsAdminClass() bool {
	return r == RoleAdmin || r == RolePrimaryAdmin
}

// rank orders roles for listings: primary admin first, regular users last.
func (r Role) rank() int {
	switch r {
	case RolePrimaryAdmin:
		return 0
	case RoleAdmin:
		return 1
	default:
		return 2
	}
}

// Account models one credential entry with its derived role.
type Account struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	Active       bool   `json:"isActive"`
}

// LessForListing sorts primary admin → admin → user, then alphabetically.
func LessForListing(a, b Account) bool {
	if a.Role.rank() != b.Role.rank() {
		return a.Role.rank() < b.Role.rank()
	}
	return a.Username < b.Username
}

// Principal is the identity resolved for a single request.
type Principal struct {
	Username    string `json:"username"`
	Role        Role   `json:"role"`
	MFAVerified bool   `json:"mfaVerified"`
}

// NewAccount is the input to the credential repository's create operation.
type NewAccount struct {
	Username     string
	PasswordHash string
	Role         Role
}

// AccountUpdate carries the optional fields of an account update.
type AccountUpdate struct {
	Username     string
	PasswordHash *string
	Active       *bool
	// Actor is the account performing the change. Only the primary admin
	// may change the primary admin account.
	Actor string
}

// NormalizeUsername lower-cases and trims a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername checks the allowed username pattern.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
