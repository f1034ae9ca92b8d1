package errorz

import "strings"

// Keyed attaches the name of an input field to an error.
type Keyed struct {
	Key string
	Err error
}

func (k Keyed) Error() string {
	return k.Key + ": " + k.Err.Error()
}

func (k Keyed) Unwrap() error {
	return k.Err
}

// InvalidInput signals that a provided input is invalid due to the wrapped errors.
type InvalidInput []error

func (e InvalidInput) Error() string {
	var b strings.Builder
	b.WriteString("invalid input:")
	for _, err := range e {
		b.WriteString("\n")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e InvalidInput) Unwrap() []error {
	return e
}

// Fields groups the wrapped error messages by key, in the order they were
// added. Errors that are not Keyed end up under the empty key.
func (e InvalidInput) Fields() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, err := range e {
		key := ""
		msg := err.Error()
		if k, ok := err.(Keyed); ok {
			key = k.Key
			msg = k.Err.Error()
		}

		out[key] = append(out[key], msg)
	}

	return out
}
