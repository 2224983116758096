package autherr

import (
	"fmt"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// PasswordPolicy controls which character classes ValidatePassword requires.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// DefaultPasswordPolicy mirrors the registration policy: 8+ characters with
// upper, lower and digit; special characters optional.
var DefaultPasswordPolicy = PasswordPolicy{
	MinLength:        8,
	RequireUppercase: true,
	RequireLowercase: true,
	RequireNumber:    true,
}

// ValidateEmail checks email shape and returns field-level details on failure.
func ValidateEmail(email string) []Detail {
	email = strings.TrimSpace(email)
	if email == "" {
		return []Detail{{Field: "email", Code: KindEmailRequired.Code(), Message: KindEmailRequired.Message()}}
	}
	if !emailPattern.MatchString(email) {
		return []Detail{{Field: "email", Value: email, Code: KindEmailInvalid.Code(), Message: KindEmailInvalid.Message()}}
	}
	return nil
}

// ValidatePassword checks password strength against a policy.
func ValidatePassword(password string, policy PasswordPolicy) []Detail {
	if password == "" {
		return []Detail{{Field: "password", Code: KindPasswordRequired.Code(), Message: KindPasswordRequired.Message()}}
	}

	var details []Detail
	if policy.MinLength > 0 && len(password) < policy.MinLength {
		details = append(details, Detail{
			Field:   "password",
			Code:    KindPasswordTooShort.Code(),
			Message: fmt.Sprintf("Password must be at least %d characters", policy.MinLength),
		})
	}

	var missing []string
	if policy.RequireUppercase && !strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		missing = append(missing, "uppercase letter")
	}
	if policy.RequireLowercase && !strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz") {
		missing = append(missing, "lowercase letter")
	}
	if policy.RequireNumber && !strings.ContainsAny(password, "0123456789") {
		missing = append(missing, "number")
	}
	if policy.RequireSpecial && !strings.ContainsAny(password, `!@#$%^&*(),.?":{}|<>`) {
		missing = append(missing, "special character")
	}
	if len(missing) > 0 {
		details = append(details, Detail{
			Field:   "password",
			Code:    KindPasswordTooWeak.Code(),
			Message: "Password must contain: " + strings.Join(missing, ", "),
		})
	}
	return details
}

// ValidateLogin checks login credentials for shape only. Login passwords are
// not held to the registration strength policy; an account created under an
// older policy must still be able to sign in.
func ValidateLogin(email, password string) *Error {
	details := ValidateEmail(email)
	details = append(details, ValidatePassword(password, PasswordPolicy{})...)
	if len(details) == 0 {
		return nil
	}
	return NewMultiValidation(details)
}
