package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode"

	"github.com/ferrianes/foodmarket-backend/internal/krypto"
	"github.com/ferrianes/foodmarket-backend/internal/validate"
)

const (
	minPasswordLen = 8

	// We put a generous upper cap on password length, so people can use
	// passphrases but we don't allow MBs of data as a password.
	maxPasswordBytes = 512

	// SecretMarker replaces secrets in logs and other output.
	SecretMarker = krypto.SecretMarker
)

var (
	ErrInvalidPassword = errors.New("invalid password")

	ErrPasswordNoUpper  = errors.New("must contain at least one uppercase letter")
	ErrPasswordNoLower  = errors.New("must contain at least one lowercase letter")
	ErrPasswordNoDigit  = errors.New("must contain at least one number")
	ErrPasswordNoSymbol = errors.New("must contain at least one symbol")
)

// Password is a plaintext password.
//
// It should never be persisted, logged or exposed in any other way. To
// protect ourselves from accidentally doing so, the type implements
// several common interfaces that would allow it to be used inappropriately.
//
// There are only two operations allowed on a Password:
// - Converting it to a hash.
// - Comparing it with an existing hash to see if they match.
type Password struct {
	plain []byte
}

// ParsePassword creates a new Password from a plaintext string.
// It errors if the password is empty or too long to hash. Strength is
// checked separately by the rules of PasswordPolicy.
func ParsePassword(pwd string) (Password, error) {
	if len(pwd) == 0 || len(pwd) > maxPasswordBytes {
		return Password{}, ErrInvalidPassword
	}

	return Password{
		plain: []byte(pwd),
	}, nil
}

// Match checks if the plaintext password matches the given hash.
func (p Password) Match(h krypto.Argon2Hash) bool {
	return h.MatchBytes(p.plain)
}

// Hash hashes the plaintext password using the argon2id algorithm.
func (p Password) Hash() (krypto.Argon2Hash, error) {
	return krypto.HashArgon2(p.plain)
}

func (p Password) Format(f fmt.State, verb rune) {
	f.Write([]byte(SecretMarker))
}

func (p Password) MarshalText() ([]byte, error) {
	return []byte(SecretMarker), nil
}

// LogValue implements the slog.LogValuer interface.
func (p Password) LogValue() slog.Value {
	return slog.StringValue(SecretMarker)
}

// PasswordPolicy returns the rules a new password has to satisfy.
func PasswordPolicy(field, raw string) []validate.Rule {
	return []validate.Rule{
		validate.Required(field, raw),
		validate.MinLen(field, raw, minPasswordLen),
		{
			Field: field,
			Check: func() bool { return len(raw) <= maxPasswordBytes },
			Err:   validate.ErrTooLong,
		},
		validate.ContainsFunc(field, raw, unicode.IsUpper, ErrPasswordNoUpper),
		validate.ContainsFunc(field, raw, unicode.IsLower, ErrPasswordNoLower),
		validate.ContainsFunc(field, raw, unicode.IsDigit, ErrPasswordNoDigit),
		validate.ContainsFunc(field, raw, validate.IsSymbol, ErrPasswordNoSymbol),
	}
}
