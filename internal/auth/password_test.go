package auth_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/ferrianes/foodmarket-backend/internal/auth"
	"github.com/ferrianes/foodmarket-backend/internal/errorz"
	"github.com/ferrianes/foodmarket-backend/internal/krypto"
	"github.com/ferrianes/foodmarket-backend/internal/validate"
)

func Test_Password_ParseHashMatch(t *testing.T) {
	t.Run("ok, password matches own hash", func(t *testing.T) {
		pwd := must(auth.ParsePassword("reallyStrongPassword1!"))

		hash, err := pwd.Hash()
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}

		// We can't compare the resulting hash to a known value, because of the random salt,
		// so we check if the password matches its own hash instead.
		if !pwd.Match(hash) {
			t.Errorf("password does not match own hash\n%+v", hash)
		}
	})

	t.Run("ok, password does not match hash", func(t *testing.T) {
		hash := must(must(auth.ParsePassword("reallyStrongPassword1!")).Hash())

		other := must(auth.ParsePassword("reallyStrongPassword2!"))
		if other.Match(hash) {
			t.Errorf("password\n%s\nshould not match hash\n%+v", other, hash)
		}
	})

	t.Run("ok, password matches hash with different settings", func(t *testing.T) {
		// Settings taken from the tests in the argon2 package.
		hash := must(krypto.ParseArgon2Hash("$argon2id$v=19$m=64,t=1,p=1$c29tZXNhbHQ$ZVrRXqxlLcWfcXCnMyv0m4Rpvh/bnCi7"))

		pwd := must(auth.ParsePassword("password"))
		if !pwd.Match(hash) {
			t.Errorf("password\n%s\ndoes not match hash\n%+v", pwd, hash)
		}
	})

	t.Run("ok, zero hash never matches", func(t *testing.T) {
		pwd := must(auth.ParsePassword("password"))
		if pwd.Match(krypto.Argon2Hash{}) {
			t.Errorf("password should not match zero hash")
		}
	})

	failParsing := map[string]string{
		"empty":    "",
		"too long": strings.Repeat("a", 513),
	}

	for name, raw := range failParsing {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ParsePassword(raw)
			if !errors.Is(err, auth.ErrInvalidPassword) {
				t.Errorf("expected %v, got %v", auth.ErrInvalidPassword, err)
			}
		})
	}
}

func Test_PasswordPolicy(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want []string
	}{
		"ok, strong":                    {raw: "Str0ng!pass", want: nil},
		"ok, unicode letters":           {raw: "Ünïcødé9#", want: nil},
		"fail, empty":                   {raw: "", want: []string{validate.ErrRequired.Error()}},
		"fail, too short":               {raw: "Sh0rt!", want: []string{validate.ErrTooShort.Error()}},
		"fail, too short in characters": {raw: "Äb1!Äb1", want: []string{validate.ErrTooShort.Error()}},
		"fail, too long":                {raw: "A1!" + strings.Repeat("a", 510), want: []string{validate.ErrTooLong.Error()}},
		"fail, no uppercase":            {raw: "weak1!pass", want: []string{auth.ErrPasswordNoUpper.Error()}},
		"fail, no lowercase":            {raw: "WEAK1!PASS", want: []string{auth.ErrPasswordNoLower.Error()}},
		"fail, no digit":                {raw: "Weak!pass", want: []string{auth.ErrPasswordNoDigit.Error()}},
		"fail, no symbol":               {raw: "Weak1pass", want: []string{auth.ErrPasswordNoSymbol.Error()}},
		"fail, whitespace no symbol":    {raw: "Weak1 pass", want: []string{auth.ErrPasswordNoSymbol.Error()}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := validate.Apply(auth.PasswordPolicy("password", tc.raw)...)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var invalid errorz.InvalidInput
			if !errors.As(err, &invalid) {
				t.Fatalf("expected errorz.InvalidInput, got %v", err)
			}

			got := invalid.Fields()["password"]
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func Test_Password_PreventExposure(t *testing.T) {
	raw := "12345678"
	pwd := must(auth.ParsePassword(raw))

	assert := func(t *testing.T, s string) {
		t.Helper()
		if s != auth.SecretMarker {
			t.Errorf("wanted\n%s\ngot\n%s\n", auth.SecretMarker, s)
		}
	}

	t.Run("ok, fmt", func(t *testing.T) {
		assert(t, fmt.Sprintf("%s", pwd)) //nolint:gosimple
		assert(t, fmt.Sprintf("%d", pwd))
		assert(t, fmt.Sprintf("%v", pwd))
		assert(t, fmt.Sprintf("%#v", pwd))
	})

	t.Run("ok, marshal as text", func(t *testing.T) {
		b, err := pwd.MarshalText()
		if err != nil {
			t.Fatalf("failed to marshal as text: %v", err)
		}

		assert(t, string(b))
	})

	t.Run("ok, log output", func(t *testing.T) {
		var buf bytes.Buffer

		logger := slog.New(slog.NewTextHandler(&buf, nil))

		logger.Info("attempting to log a password", "password", pwd)

		s := buf.String()
		if !strings.Contains(s, auth.SecretMarker) {
			t.Errorf("log output\n%s\ndoes not contain secret marker: %s", s, auth.SecretMarker)
		}

		if strings.Contains(s, raw) {
			t.Errorf("log output\n%s\ncontains raw password: %s", s, raw)
		}
	})
}
