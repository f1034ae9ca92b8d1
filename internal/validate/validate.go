// Package validate evaluates ordered lists of input rules and reports
// every violated field at once.
package validate

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ferrianes/foodmarket-backend/internal/errorz"
)

var (
	ErrRequired = errors.New("is required")
	ErrTooShort = errors.New("is too short")
	ErrTooLong  = errors.New("is too long")
)

// Rule is a single check on an input field. Err is reported under Field
// when Check returns false.
type Rule struct {
	Field string
	Check func() bool
	Err   error
}

// Apply evaluates rules in order. Once a rule for a field fails, the remaining
// rules for that field are skipped, so each field reports its first violation.
//
// Apply returns nil if no rule failed, otherwise an errorz.InvalidInput
// containing an errorz.Keyed error per violation.
func Apply(rules ...Rule) error {
	var (
		failed = make(map[string]struct{})
		errs   errorz.InvalidInput
	)

	for _, r := range rules {
		if _, ok := failed[r.Field]; ok {
			continue
		}

		if r.Check() {
			continue
		}

		failed[r.Field] = struct{}{}
		errs = append(errs, errorz.Keyed{Key: r.Field, Err: r.Err})
	}

	if len(errs) == 0 {
		return nil
	}

	return errs
}

// Required fails when v is empty or only whitespace.
func Required(field, v string) Rule {
	return Rule{
		Field: field,
		Check: func() bool { return strings.TrimSpace(v) != "" },
		Err:   ErrRequired,
	}
}

// MaxLen fails when v contains more than n characters.
func MaxLen(field, v string, n int) Rule {
	return Rule{
		Field: field,
		Check: func() bool { return utf8.RuneCountInString(v) <= n },
		Err:   ErrTooLong,
	}
}

// MinLen fails when v contains fewer than n characters.
func MinLen(field, v string, n int) Rule {
	return Rule{
		Field: field,
		Check: func() bool { return utf8.RuneCountInString(v) >= n },
		Err:   ErrTooShort,
	}
}

// ContainsFunc fails when no rune in v satisfies f.
func ContainsFunc(field, v string, f func(rune) bool, err error) Rule {
	return Rule{
		Field: field,
		Check: func() bool { return strings.IndexFunc(v, f) >= 0 },
		Err:   err,
	}
}

// IsSymbol reports whether r is neither a letter, a digit nor whitespace.
func IsSymbol(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}

// Optional returns rules only when v is not empty.
func Optional(v string, rules ...Rule) []Rule {
	if v == "" {
		return nil
	}
	return rules
}
