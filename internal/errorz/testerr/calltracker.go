// Package testerr simulates failing dependencies in tests.
package testerr

import (
	"errors"
	"fmt"
)

// Err is the error returned by failing dependencies.
var Err = errors.New("test error")

// Calltracker counts the calls made through it and fails the ones its
// fields select. A tracker without Err never fails, so the zero value can
// wrap a dependency that should always work.
type Calltracker struct {
	Err error
	// FailAt is the zero based index of the first call that fails.
	FailAt int
	// Sticky makes every call after FailAt fail as well, like a dependency
	// that went down. Otherwise only the call at FailAt fails.
	Sticky bool

	calls int
}

// Scenarios returns trackers for a sequence of expectCalls calls: for every
// call one tracker that fails only that call and one that fails that call
// and every call after it.
func Scenarios(err error, expectCalls int) []*Calltracker {
	out := make([]*Calltracker, 0, expectCalls*2)
	for i := range expectCalls {
		out = append(out,
			&Calltracker{Err: err, FailAt: i},
			&Calltracker{Err: err, FailAt: i, Sticky: true},
		)
	}
	return out
}

// Calls returns the number of calls made so far.
func (c *Calltracker) Calls() int {
	return c.calls
}

// String describes the scenario, it's meant for subtest names.
func (c *Calltracker) String() string {
	switch {
	case c.Err == nil:
		return "never fails"
	case c.Sticky:
		return fmt.Sprintf("fails from call %d", c.FailAt)
	default:
		return fmt.Sprintf("fails at call %d", c.FailAt)
	}
}

func (c *Calltracker) next() error {
	i := c.calls
	c.calls++

	if c.Err == nil {
		return nil
	}

	if i == c.FailAt || (c.Sticky && i > c.FailAt) {
		return c.Err
	}

	return nil
}

// Do calls f unless this call should fail.
func Do(c *Calltracker, f func() error) error {
	if err := c.next(); err != nil {
		return err
	}
	return f()
}

// DoValue is like Do for functions that return a value.
func DoValue[T any](c *Calltracker, f func() (T, error)) (T, error) {
	if err := c.next(); err != nil {
		var zero T
		return zero, err
	}
	return f()
}
