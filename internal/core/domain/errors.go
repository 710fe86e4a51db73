package domain

import "fmt"

// ErrorKind classifies a failure. The transport layer maps kinds to status
// codes; nothing below it does.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a failure carrying a stable machine-readable code. Two errors are
// considered equal by errors.Is when their codes match, so sentinels can be
// re-messaged or wrapped without losing identity.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of e with a different client-facing message.
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// Wrap returns a copy of e that records cause for server-side logging.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Input validation.
var (
	ErrMissingCredentials = newError(KindValidation, "MISSING_CREDENTIALS", "Username and password are required")
	ErrInvalidUsername    = newError(KindValidation, "INVALID_USERNAME", "Username must be 3-80 characters of letters, digits, _ . @ -")
	ErrWeakPassword       = newError(KindValidation, "WEAK_PASSWORD", "Password must be at least 10 characters")
	ErrInvalidRole        = newError(KindValidation, "INVALID_ROLE", "Role must be user or admin")
	ErrNoUpdateFields     = newError(KindValidation, "NO_UPDATE_FIELDS", "Nothing to update")
	ErrInvalidOTPFormat   = newError(KindValidation, "INVALID_OTP_FORMAT", "One-time code must be exactly 6 digits")
	ErrNoPending2FA       = newError(KindValidation, "NO_PENDING_2FA", "No pending two-factor setup")
	Err2FANotEnabled      = newError(KindValidation, "TWO_FACTOR_NOT_ENABLED", "Two-factor authentication is not enabled")
	ErrInvalidPayload     = newError(KindValidation, "INVALID_PAYLOAD", "Invalid request payload")
	ErrInvalidQuery       = newError(KindValidation, "INVALID_QUERY", "Invalid query parameters")
)

// Authentication.
var (
	ErrInvalidCredentials = newError(KindUnauthenticated, "INVALID_CREDENTIALS", "Invalid username or password")
	ErrTOTPRequired       = newError(KindUnauthenticated, "TOTP_REQUIRED", "A one-time code is required")
	ErrTOTPInvalid        = newError(KindUnauthenticated, "TOTP_INVALID", "Invalid one-time code")
	ErrAuthRequired       = newError(KindUnauthenticated, "AUTH_REQUIRED", "Authentication required")
	ErrInvalidToken       = newError(KindUnauthenticated, "INVALID_TOKEN", "Session is invalid or expired")
	ErrMFARequired        = newError(KindUnauthenticated, "MFA_REQUIRED", "Sign in again with your one-time code")
)

// Authorization.
var (
	ErrUserNotAvailable      = newError(KindForbidden, "USER_NOT_AVAILABLE", "Account is not available")
	ErrForbidden             = newError(KindForbidden, "FORBIDDEN", "Access forbidden")
	ErrAdmin2FASetupRequired = newError(KindForbidden, "ADMIN_2FA_SETUP_REQUIRED", "Two-factor setup is required for admin accounts")
	ErrPrimaryAdminProtected = newError(KindForbidden, "PRIMARY_ADMIN_PROTECTED", "The primary admin account cannot be modified this way")
)

// Conflict and lookup.
var (
	ErrUserExists         = newError(KindConflict, "USER_EXISTS", "User already exists")
	ErrAlreadyAdmin       = newError(KindConflict, "ALREADY_ADMIN", "User is already an admin")
	Err2FAAlreadyEnabled  = newError(KindConflict, "TWO_FACTOR_ALREADY_ENABLED", "Two-factor authentication is already enabled")
	ErrUserNotFound       = newError(KindNotFound, "USER_NOT_FOUND", "User not found")
	ErrRouteNotFound      = newError(KindNotFound, "NOT_FOUND", "Not found")
	ErrTOTPSecretUnusable = newError(KindInternal, "TOTP_SECRET_UNAVAILABLE", "Internal server error")
	ErrInternal           = newError(KindInternal, "INTERNAL_ERROR", "Internal server error")
)
