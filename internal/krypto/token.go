package krypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const tokenLen = 32

// ErrInvalidToken is returned for tokens that are not 64 hex characters.
var ErrInvalidToken = errors.New("invalid token")

// Token is a random secret handed to a client exactly once. Only its
// Digest is stored, the token itself is never logged or persisted.
type Token [tokenLen]byte

// GenerateToken creates a new random token.
func GenerateToken() (Token, error) {
	var t Token
	if _, err := rand.Read(t[:]); err != nil {
		return Token{}, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return t, nil
}

// ParseToken parses the hex form returned by String. Upper case hex is
// rejected so every token has a single text form.
func ParseToken(raw string) (Token, error) {
	var t Token
	if len(raw) != hex.EncodedLen(tokenLen) || strings.ToLower(raw) != raw {
		return Token{}, ErrInvalidToken
	}

	if _, err := hex.Decode(t[:], []byte(raw)); err != nil {
		return Token{}, ErrInvalidToken
	}

	return t, nil
}

// String returns the hex representation of the token.
func (t Token) String() string {
	return hex.EncodeToString(t[:])
}

// Digest returns the BLAKE2b-256 digest of the token.
//
// Tokens carry 256 bits of entropy, so unlike passwords they don't need
// a slow, salted hash.
func (t Token) Digest() []byte {
	d := blake2b.Sum256(t[:])
	return d[:]
}

// MatchDigest reports in constant time whether d is the digest of the token.
func (t Token) MatchDigest(d []byte) bool {
	return subtle.ConstantTimeCompare(t.Digest(), d) == 1
}

// LogValue implements the slog.Valuer interface.
func (t Token) LogValue() slog.Value {
	return slog.StringValue(SecretMarker)
}
