package krypto

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	keyLen = 32

	base64KeyPrefix = "base64:"

	// SecretMarker replaces keys and secrets wherever they are printed,
	// logged or marshalled. Finding it in output is safe, finding the raw
	// value is a leak.
	SecretMarker = "<!SECRET_REDACTED!>"
)

// ErrInvalidKey is returned for keys that are not exactly 32 bytes.
var ErrInvalidKey = errors.New("invalid key")

// Key is a 256 bit encryption key.
type Key struct {
	value []byte
}

// ParseKey parses a 32 byte key. Two encodings are accepted:
//   - 64 hex characters.
//   - "base64:" followed by standard base64, the format of generated app keys.
func ParseKey(raw string) (Key, error) {
	var (
		k   []byte
		err error
	)

	if enc, ok := strings.CutPrefix(raw, base64KeyPrefix); ok {
		k, err = base64.StdEncoding.DecodeString(enc)
	} else {
		k, err = hex.DecodeString(raw)
	}

	if err != nil {
		return Key{}, errors.Join(ErrInvalidKey, err)
	}

	if len(k) != keyLen {
		return Key{}, fmt.Errorf("want %d bytes, got %d: %w", keyLen, len(k), ErrInvalidKey)
	}

	return Key{value: k}, nil
}

// UnmarshalText parses text using ParseKey.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}

	*k = parsed
	return nil
}

func (k Key) Format(f fmt.State, _ rune) { redact(f) }

func (k Key) LogValue() slog.Value { return slog.StringValue(SecretMarker) }

func (k Key) MarshalText() ([]byte, error) { return []byte(SecretMarker), nil }

// SecretValue returns the raw key, for libraries that need it.
func (k Key) SecretValue() []byte {
	return k.value
}

func redact(f fmt.State) {
	_, _ = f.Write([]byte(SecretMarker))
}
