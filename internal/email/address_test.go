package email_test

import (
	"errors"
	"testing"

	"github.com/ferrianes/foodmarket-backend/internal/email"
)

// decoders are the ways an address enters the application.
var decoders = map[string]func(string) (email.Address, error){
	"parse": email.ParseAddress,
	"unmarshal text": func(s string) (email.Address, error) {
		var a email.Address
		err := a.UnmarshalText([]byte(s))
		return a, err
	},
	"scan": func(s string) (email.Address, error) {
		var a email.Address
		err := a.Scan([]byte(s))
		return a, err
	},
}

func Test_Address_Decode(t *testing.T) {
	okTests := map[string]struct {
		raw  string
		want email.Address
	}{
		"shortest possible":     {raw: "a@b", want: "a@b"},
		"typical":               {raw: "alice@example.com", want: "alice@example.com"},
		"case is kept":          {raw: "Alice@Example.com", want: "Alice@Example.com"},
		"plus addressing":       {raw: "alice+food@example.com", want: "alice+food@example.com"},
		"whitespace is trimmed": {raw: " \talice@example.com  ", want: "alice@example.com"},
	}

	failTests := map[string]string{
		"empty":                 "",
		"whitespace only":       " \t",
		"missing @":             "alice.example.com",
		"missing domain":        "alice@",
		"missing local part":    "@example.com",
		"with name":             "Alice <alice@example.com>",
		"with name and comment": "Alice <alice@example.com>(comment)",
		"two addresses":         "alice@example.com, bob@example.com",
	}

	for decoder, decode := range decoders {
		for name, tc := range okTests {
			t.Run(decoder+", ok, "+name, func(t *testing.T) {
				got, err := decode(tc.raw)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				if got != tc.want {
					t.Errorf("got %q, want %q", got, tc.want)
				}
			})
		}

		for name, raw := range failTests {
			t.Run(decoder+", fail, "+name, func(t *testing.T) {
				_, err := decode(raw)
				if !errors.Is(err, email.ErrInvalidEmail) {
					t.Fatalf("wanted error %v, got %v (via errors.Is)", email.ErrInvalidEmail, err)
				}
			})
		}
	}
}

func Test_Address_UnmarshalTextKeepsValueOnError(t *testing.T) {
	a := email.Address("alice@example.com")

	err := a.UnmarshalText([]byte("not an address"))
	if !errors.Is(err, email.ErrInvalidEmail) {
		t.Fatalf("wanted error %v, got %v (via errors.Is)", email.ErrInvalidEmail, err)
	}

	if a != "alice@example.com" {
		t.Errorf("address was changed to %q", a)
	}
}

func Test_Address_SQL(t *testing.T) {
	t.Run("ok, value", func(t *testing.T) {
		v, err := email.Address("alice@example.com").Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if v != "alice@example.com" {
			t.Errorf("got %v, want alice@example.com", v)
		}
	})

	t.Run("ok, scan string", func(t *testing.T) {
		var a email.Address
		if err := a.Scan("alice@example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if a != "alice@example.com" {
			t.Errorf("got %q, want alice@example.com", a)
		}
	})

	t.Run("fail, scan unsupported type", func(t *testing.T) {
		var a email.Address
		if err := a.Scan(42); err == nil {
			t.Fatalf("wanted error, got <nil>")
		}
	})
}
