package autherr

import "net/http"

// Kind identifies one member of the closed authentication error taxonomy.
// The set is fixed: new kinds require a code, a status and a default message
// in the tables below, and the mapping is part of the public contract.
type Kind int

const (
	KindUnknown Kind = iota

	// Validation (400)
	KindEmailRequired
	KindEmailInvalid
	KindPasswordRequired
	KindPasswordTooShort
	KindPasswordTooWeak
	KindPasswordMismatch
	KindNameRequired
	KindPhoneInvalid
	KindDOBInvalid
	KindRoleInvalid

	// Authentication
	KindInvalidCredentials
	KindAccountDisabled
	KindAccountLocked
	KindAccountNotVerified
	KindEmailAlreadyExists

	// Token
	KindTokenMissing
	KindTokenInvalid
	KindTokenExpired
	KindTokenRevoked
	KindRefreshTokenInvalid
	KindRefreshTokenExpired

	// Session
	KindSessionNotFound
	KindSessionExpired
	KindSessionInvalid
	KindTooManySessions

	// MFA
	KindMFARequired
	KindMFACodeInvalid
	KindMFACodeExpired
	KindMFANotEnabled
	KindMFAAlreadyEnabled

	// OAuth
	KindOAuthProviderError
	KindOAuthEmailNotProvided
	KindOAuthAccountLinked
	KindOAuthAccountNotLinked

	// Password reset
	KindResetTokenInvalid
	KindResetTokenExpired
	KindResetTooManyAttempts

	// Rate limiting
	KindRateLimitLogin
	KindRateLimitRegister
	KindRateLimitPasswordReset
	KindRateLimitVerification
	KindRateLimitMFA

	// Server
	KindServerError
	KindDatabaseError
	KindEmailServiceError
	KindOAuthServiceError
)

type kindInfo struct {
	code    string
	status  int
	message string
}

// Codes are stable wire identifiers; clients branch on them. Never renumber.
var kinds = map[Kind]kindInfo{
	KindEmailRequired:    {"AUTH_VAL_001", http.StatusBadRequest, "Email address is required"},
	KindEmailInvalid:     {"AUTH_VAL_002", http.StatusBadRequest, "Please enter a valid email address"},
	KindPasswordRequired: {"AUTH_VAL_003", http.StatusBadRequest, "Password is required"},
	KindPasswordTooShort: {"AUTH_VAL_004", http.StatusBadRequest, "Password must be at least 8 characters"},
	KindPasswordTooWeak:  {"AUTH_VAL_005", http.StatusBadRequest, "Password must contain uppercase, lowercase, number, and special character"},
	KindPasswordMismatch: {"AUTH_VAL_006", http.StatusBadRequest, "Passwords do not match"},
	KindNameRequired:     {"AUTH_VAL_007", http.StatusBadRequest, "Name is required"},
	KindPhoneInvalid:     {"AUTH_VAL_008", http.StatusBadRequest, "Please enter a valid phone number"},
	KindDOBInvalid:       {"AUTH_VAL_009", http.StatusBadRequest, "Please enter a valid date of birth"},
	KindRoleInvalid:      {"AUTH_VAL_010", http.StatusBadRequest, "Please select a valid role"},

	KindInvalidCredentials: {"AUTH_001", http.StatusUnauthorized, "Invalid email or password"},
	KindAccountDisabled:    {"AUTH_004", http.StatusUnauthorized, "This account has been disabled. Please contact support."},
	KindAccountLocked:      {"AUTH_005", http.StatusUnauthorized, "Account temporarily locked due to too many failed attempts. Try again later."},
	KindAccountNotVerified: {"AUTH_006", http.StatusUnauthorized, "Please verify your email address before signing in"},
	KindEmailAlreadyExists: {"AUTH_007", http.StatusConflict, "An account with this email already exists"},

	KindTokenMissing:        {"AUTH_TOKEN_001", http.StatusUnauthorized, "Authentication token is required"},
	KindTokenInvalid:        {"AUTH_TOKEN_002", http.StatusUnauthorized, "Invalid authentication token"},
	KindTokenExpired:        {"AUTH_TOKEN_003", http.StatusUnauthorized, "Your session has expired. Please sign in again."},
	KindTokenRevoked:        {"AUTH_TOKEN_004", http.StatusUnauthorized, "This token has been revoked"},
	KindRefreshTokenInvalid: {"AUTH_TOKEN_005", http.StatusUnauthorized, "Invalid refresh token"},
	KindRefreshTokenExpired: {"AUTH_TOKEN_006", http.StatusUnauthorized, "Refresh token has expired. Please sign in again."},

	KindSessionNotFound: {"AUTH_SESSION_001", http.StatusUnauthorized, "Session not found"},
	KindSessionExpired:  {"AUTH_SESSION_002", http.StatusUnauthorized, "Your session has expired. Please sign in again."},
	KindSessionInvalid:  {"AUTH_SESSION_003", http.StatusUnauthorized, "Invalid session"},
	KindTooManySessions: {"AUTH_SESSION_004", http.StatusUnauthorized, "Maximum number of active sessions reached"},

	KindMFARequired:       {"AUTH_MFA_001", http.StatusUnauthorized, "Two-factor authentication is required"},
	KindMFACodeInvalid:    {"AUTH_MFA_002", http.StatusUnauthorized, "Invalid verification code"},
	KindMFACodeExpired:    {"AUTH_MFA_003", http.StatusUnauthorized, "Verification code has expired. Please request a new one."},
	KindMFANotEnabled:     {"AUTH_MFA_004", http.StatusUnauthorized, "Two-factor authentication is not enabled"},
	KindMFAAlreadyEnabled: {"AUTH_MFA_005", http.StatusUnauthorized, "Two-factor authentication is already enabled"},

	KindOAuthProviderError:    {"AUTH_OAUTH_001", http.StatusBadRequest, "Authentication provider error. Please try again."},
	KindOAuthEmailNotProvided: {"AUTH_OAUTH_002", http.StatusBadRequest, "Email address not provided by authentication provider"},
	KindOAuthAccountLinked:    {"AUTH_OAUTH_003", http.StatusBadRequest, "This account is already linked to another user"},
	KindOAuthAccountNotLinked: {"AUTH_OAUTH_004", http.StatusBadRequest, "No linked account found for this provider"},

	KindResetTokenInvalid:    {"AUTH_RESET_001", http.StatusBadRequest, "Invalid or expired reset link. Please request a new one."},
	KindResetTokenExpired:    {"AUTH_RESET_002", http.StatusBadRequest, "Reset link has expired. Please request a new one."},
	KindResetTooManyAttempts: {"AUTH_RESET_003", http.StatusTooManyRequests, "Too many password reset attempts. Please try again later."},

	KindRateLimitLogin:         {"AUTH_RATE_001", http.StatusTooManyRequests, "Too many login attempts. Please wait before trying again."},
	KindRateLimitRegister:      {"AUTH_RATE_002", http.StatusTooManyRequests, "Too many registration attempts. Please wait before trying again."},
	KindRateLimitPasswordReset: {"AUTH_RATE_003", http.StatusTooManyRequests, "Too many password reset requests. Please wait before trying again."},
	KindRateLimitVerification:  {"AUTH_RATE_004", http.StatusTooManyRequests, "Too many verification attempts. Please wait before trying again."},
	KindRateLimitMFA:           {"AUTH_RATE_005", http.StatusTooManyRequests, "Too many verification code attempts. Please wait before trying again."},

	KindServerError:       {"AUTH_SERVER_001", http.StatusInternalServerError, "An unexpected error occurred. Please try again."},
	KindDatabaseError:     {"AUTH_SERVER_002", http.StatusInternalServerError, "A database error occurred. Please try again."},
	KindEmailServiceError: {"AUTH_SERVER_003", http.StatusInternalServerError, "Failed to send email. Please try again later."},
	KindOAuthServiceError: {"AUTH_SERVER_004", http.StatusInternalServerError, "Authentication service unavailable. Please try again later."},
}

// AllKinds returns every member of the taxonomy, in declaration order.
// Used by exhaustive table-driven tests of the code/status mapping.
func AllKinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := KindEmailRequired; k <= KindOAuthServiceError; k++ {
		out = append(out, k)
	}
	return out
}

// Code returns the stable machine code for a kind.
func (k Kind) Code() string {
	if info, ok := kinds[k]; ok {
		return info.code
	}
	return kinds[KindServerError].code
}

// Status returns the HTTP status a kind maps to.
func (k Kind) Status() int {
	if info, ok := kinds[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Message returns the default human-readable message for a kind.
func (k Kind) Message() string {
	if info, ok := kinds[k]; ok {
		return info.message
	}
	return kinds[KindServerError].message
}

// IsRateLimit reports whether a kind carries rate-limit retry metadata.
func (k Kind) IsRateLimit() bool {
	switch k {
	case KindRateLimitLogin, KindRateLimitRegister, KindRateLimitPasswordReset,
		KindRateLimitVerification, KindRateLimitMFA, KindResetTooManyAttempts:
		return true
	default:
		return false
	}
}
