package krypto_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ferrianes/foodmarket-backend/internal/krypto"
)

func Test_Token_GenerateAndParse(t *testing.T) {
	tok, err := krypto.GenerateToken()
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	other, err := krypto.GenerateToken()
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if tok == other {
		t.Fatalf("expected two generated tokens to differ")
	}

	got, err := krypto.ParseToken(tok.String())
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}

	if got != tok {
		t.Errorf("got %x, want %x", got[:], tok[:])
	}

	failCases := map[string]string{
		"empty":     "",
		"too short": strings.Repeat("a", 63),
		"too long":  strings.Repeat("a", 65),
		"non-hex":   strings.Repeat("z", 64),
		"uppercase": strings.Repeat("A", 64),
	}

	for name, raw := range failCases {
		t.Run(name, func(t *testing.T) {
			_, err := krypto.ParseToken(raw)
			if !errors.Is(err, krypto.ErrInvalidToken) {
				t.Fatalf("got %v, want %v (via errors.Is)", err, krypto.ErrInvalidToken)
			}
		})
	}
}

func Test_Token_Digest(t *testing.T) {
	tok := must(krypto.ParseToken("0102030405060708091011121314151617181920212223242526272829303132"))
	other := must(krypto.ParseToken("3132303132303132303132303132303132303132303132303132303132303132"))

	if !bytes.Equal(tok.Digest(), tok.Digest()) {
		t.Fatalf("expected digest to be deterministic")
	}

	if len(tok.Digest()) != 32 {
		t.Fatalf("got digest of %d bytes, want 32", len(tok.Digest()))
	}

	if !tok.MatchDigest(tok.Digest()) {
		t.Errorf("expected token to match own digest")
	}

	if tok.MatchDigest(other.Digest()) {
		t.Errorf("expected token not to match digest of other token")
	}

	if tok.MatchDigest(nil) {
		t.Errorf("expected token not to match empty digest")
	}
}

func Test_Token_LogValue(t *testing.T) {
	tok := must(krypto.GenerateToken())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("attempting to log a token", "token", tok)

	s := buf.String()
	if !strings.Contains(s, krypto.SecretMarker) {
		t.Errorf("log output\n%s\ndoes not contain secret marker", s)
	}

	if strings.Contains(s, tok.String()) {
		t.Errorf("log output\n%s\ncontains raw token", s)
	}
}
