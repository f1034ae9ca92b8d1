package validate_test

import (
	"errors"
	"reflect"
	"testing"
	"unicode"

	"github.com/ferrianes/foodmarket-backend/internal/errorz"
	"github.com/ferrianes/foodmarket-backend/internal/validate"
)

var errNoDigit = errors.New("must contain a digit")

func Test_Apply(t *testing.T) {
	tests := map[string]struct {
		rules []validate.Rule
		want  map[string][]string
	}{
		"no rules": {
			rules: nil,
			want:  nil,
		},
		"all pass": {
			rules: []validate.Rule{
				validate.Required("name", "Alice"),
				validate.MaxLen("name", "Alice", 20),
			},
			want: nil,
		},
		"first violation per field": {
			rules: []validate.Rule{
				validate.Required("password", ""),
				validate.MinLen("password", "", 8),
				validate.ContainsFunc("password", "", unicode.IsDigit, errNoDigit),
			},
			want: map[string][]string{
				"password": {"is required"},
			},
		},
		"multiple fields": {
			rules: []validate.Rule{
				validate.Required("name", " "),
				validate.MaxLen("city", "Amsterdam", 3),
				validate.ContainsFunc("password", "abcdefgh", unicode.IsDigit, errNoDigit),
			},
			want: map[string][]string{
				"name":     {"is required"},
				"city":     {"is too long"},
				"password": {"must contain a digit"},
			},
		},
		"max length counts characters": {
			rules: []validate.Rule{
				validate.MaxLen("name", "ééé", 3),
			},
			want: nil,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := validate.Apply(tc.rules...)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}

			var invalid errorz.InvalidInput
			if !errors.As(err, &invalid) {
				t.Fatalf("expected errorz.InvalidInput, got %T (%v)", err, err)
			}

			got := invalid.Fields()
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got\n%#v\nwant\n%#v", got, tc.want)
			}
		})
	}
}

func Test_Optional(t *testing.T) {
	if rules := validate.Optional("", validate.MaxLen("city", "", 1)); len(rules) != 0 {
		t.Errorf("expected no rules for empty value, got %d", len(rules))
	}

	if rules := validate.Optional("x", validate.MaxLen("city", "x", 1)); len(rules) != 1 {
		t.Errorf("expected 1 rule, got %d", len(rules))
	}
}

func Test_IsSymbol(t *testing.T) {
	tests := map[rune]bool{
		'!': true,
		'#': true,
		'€': true,
		'a': false,
		'Z': false,
		'7': false,
		' ': false,
	}

	for r, want := range tests {
		if got := validate.IsSymbol(r); got != want {
			t.Errorf("IsSymbol(%q) = %v, want %v", r, got, want)
		}
	}
}
