package krypto

import (
	"fmt"
	"log/slog"
)

// Secret holds a credential, such as an API key, that is passed around
// but never printed. The zero value is an empty secret.
type Secret struct {
	value []byte
}

// NewSecret creates a new secret.
func NewSecret(raw string) Secret {
	return Secret{value: []byte(raw)}
}

// IsZero reports whether the secret is empty.
func (s Secret) IsZero() bool {
	return len(s.value) == 0
}

func (s *Secret) UnmarshalText(text []byte) error {
	s.value = append([]byte(nil), text...)
	return nil
}

func (s Secret) Format(f fmt.State, _ rune) { redact(f) }

func (s Secret) LogValue() slog.Value { return slog.StringValue(SecretMarker) }

func (s Secret) MarshalText() ([]byte, error) { return []byte(SecretMarker), nil }

// SecretValue returns the raw secret as bytes.
func (s Secret) SecretValue() []byte {
	return s.value
}
