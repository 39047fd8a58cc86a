package validation

import (
	"regexp"

	"github.com/pkg/errors"
)

var (
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong   = errors.New("password must be at most 72 characters")
	ErrPasswordNoSpecial = errors.New("password must contain a special character")

	specialChars = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>_\-+=\[\]~;']`)
)

// HasSpecialChar checks if a string contains at least one special character
func HasSpecialChar(s string) bool {
	return specialChars.MatchString(s)
}

// ValidatePassword enforces the password policy. The upper bound is bcrypt's
// input limit.
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	case !HasSpecialChar(password):
		return ErrPasswordNoSpecial
	}
	return nil
}
