// Package email holds the email address type used as login name.
package email

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// ErrInvalidEmail is shown to clients as a validation message.
var ErrInvalidEmail = errors.New("must be a valid email address")

// Address is a bare email address: no display name, no comments and no
// surrounding whitespace. It keeps the case it was entered with, lookups
// in storage ignore case.
type Address string

// ParseAddress trims raw and checks that what remains is shaped like an
// email address. It does not check that the address exists.
func ParseAddress(raw string) (Address, error) {
	s := strings.TrimSpace(raw)

	parsed, err := mail.ParseAddress(s)
	// "Alice <alice@example.com>(comment)" parses fine, only the
	// address itself is accepted.
	if err != nil || parsed.Address != s {
		return "", ErrInvalidEmail
	}

	return Address(s), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}

	*a = parsed
	return nil
}

// Scan implements sql.Scanner, stored addresses are validated again.
func (a *Address) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	default:
		return fmt.Errorf("can't scan %T into email address", src)
	}
}

// Value implements driver.Valuer.
func (a Address) Value() (driver.Value, error) {
	return string(a), nil
}
