package autherr

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Detail carries field-level context for validation failures.
type Detail struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error is an authentication failure with a stable code and HTTP mapping.
// Values are immutable once constructed and safe to serialize directly.
type Error struct {
	Kind      Kind
	Message   string
	Details   []Detail
	Timestamp time.Time

	// Rate-limit metadata (only set for rate-limit kinds).
	RetryAfter time.Duration
	Limit      int
	Remaining  int

	// MFAToken is the opaque continuation token for KindMFARequired.
	MFAToken string

	// UnlockAt is set for KindAccountLocked when the unlock time is known.
	UnlockAt time.Time

	// reason distinguishes collapsed credential errors in logs only.
	// It must never appear in any response projection.
	reason string

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is makes errors.Is match on kind, so callers can compare against
// New(kind) sentinels without caring about message or timestamp.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// LogAttrs returns structured attributes for internal logging, including
// context that is deliberately withheld from responses.
func (e *Error) LogAttrs() []any {
	attrs := []any{"auth_code", e.Kind.Code(), "status", e.Kind.Status()}
	if e.reason != "" {
		attrs = append(attrs, "reason", e.reason)
	}
	if e.cause != nil {
		attrs = append(attrs, "cause", e.cause.Error())
	}
	return attrs
}

// Log writes the error at warn level with its internal context attached.
func (e *Error) Log(l *slog.Logger, msg string) {
	l.Warn(msg, e.LogAttrs()...)
}

// New constructs an Error of the given kind with its default message.
func New(kind Kind) *Error {
	return &Error{Kind: kind, Message: kind.Message(), Timestamp: time.Now().UTC()}
}

// NewMsg constructs an Error with an overridden message.
func NewMsg(kind Kind, message string) *Error {
	e := New(kind)
	e.Message = message
	return e
}

// Wrap constructs an Error of the given kind carrying an underlying cause.
// The cause is logged, never serialized.
func Wrap(kind Kind, cause error) *Error {
	e := New(kind)
	e.cause = cause
	return e
}

// NewValidation constructs a field-level validation error.
func NewValidation(kind Kind, field, value string) *Error {
	e := New(kind)
	e.Details = []Detail{{Field: field, Value: value, Message: kind.Message(), Code: kind.Code()}}
	return e
}

// NewMultiValidation aggregates several field failures into one 400 response.
func NewMultiValidation(details []Detail) *Error {
	e := NewMsg(KindEmailRequired, "Validation failed")
	e.Details = details
	return e
}

// NewEmailNotFound records a login against a nonexistent account.
// Externally it is indistinguishable from NewWrongPassword: both project the
// generic invalid-credentials code and message so responses leak no signal
// about which emails have accounts. The distinction survives only in logs.
func NewEmailNotFound(email string) *Error {
	e := New(KindInvalidCredentials)
	e.reason = "email_not_found"
	if email != "" {
		e.cause = fmt.Errorf("no account for %s", email)
	}
	return e
}

// NewWrongPassword records a failed password check. See NewEmailNotFound.
func NewWrongPassword() *Error {
	e := New(KindInvalidCredentials)
	e.reason = "wrong_password"
	return e
}

// NewAccountLocked constructs a locked-account error. A zero unlockAt keeps
// the default message; otherwise the remaining lockout is spelled out, since
// legitimate-but-blocked accounts get operational transparency that
// nonexistent accounts do not.
func NewAccountLocked(unlockAt time.Time, now time.Time) *Error {
	e := New(KindAccountLocked)
	if !unlockAt.IsZero() && unlockAt.After(now) {
		e.UnlockAt = unlockAt
		mins := int((unlockAt.Sub(now) + time.Minute - 1) / time.Minute)
		plural := "s"
		if mins == 1 {
			plural = ""
		}
		e.Message = fmt.Sprintf("Account temporarily locked. Try again in %d minute%s.", mins, plural)
	}
	return e
}

// NewAccountDisabled constructs a disabled-account error, optionally with a
// disclosed reason.
func NewAccountDisabled(reason string) *Error {
	e := New(KindAccountDisabled)
	if reason != "" {
		e.Message = fmt.Sprintf("This account has been disabled: %s", reason)
	}
	return e
}

// NewMFARequired constructs an MFA challenge carrying the opaque
// continuation token the client must present with the code.
func NewMFARequired(mfaToken string) *Error {
	e := New(KindMFARequired)
	e.MFAToken = mfaToken
	return e
}

// NewRateLimit constructs a rate-limit error with retry metadata.
// retryAfter is rounded up to whole seconds in the projection.
func NewRateLimit(kind Kind, retryAfter time.Duration, limit, remaining int) *Error {
	e := New(kind)
	e.RetryAfter = retryAfter
	e.Limit = limit
	e.Remaining = remaining
	mins := int((retryAfter + time.Minute - 1) / time.Minute)
	if mins < 1 {
		mins = 1
	}
	plural := "s"
	if mins == 1 {
		plural = ""
	}
	e.Message = fmt.Sprintf("Too many attempts. Please wait %d minute%s before trying again.", mins, plural)
	return e
}

// Normalize converts an arbitrary error from a port boundary into a taxonomy
// member. Errors that are already *Error pass through unchanged; anything
// else becomes the generic server kind with the original as cause.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Wrap(KindServerError, err)
}
