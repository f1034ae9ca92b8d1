package testerr_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/ferrianes/foodmarket-backend/internal/errorz/testerr"
)

func Test_Calltracker(t *testing.T) {
	// failures for 4 calls, true means the call failed.
	run := func(c *testerr.Calltracker) []bool {
		out := make([]bool, 0, 4)
		for range 4 {
			err := testerr.Do(c, func() error { return nil })
			out = append(out, errors.Is(err, testerr.Err))
		}
		return out
	}

	tests := map[string]struct {
		tracker *testerr.Calltracker
		want    []bool
	}{
		"zero value": {
			tracker: &testerr.Calltracker{},
			want:    []bool{false, false, false, false},
		},
		"single failure": {
			tracker: &testerr.Calltracker{Err: testerr.Err, FailAt: 1},
			want:    []bool{false, true, false, false},
		},
		"sticky failure": {
			tracker: &testerr.Calltracker{Err: testerr.Err, FailAt: 1, Sticky: true},
			want:    []bool{false, true, true, true},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := run(tc.tracker); !slices.Equal(got, tc.want) {
				t.Errorf("got failures %v, want %v", got, tc.want)
			}

			if got := tc.tracker.Calls(); got != 4 {
				t.Errorf("got %d calls, want 4", got)
			}
		})
	}
}

func Test_DoValue(t *testing.T) {
	c := &testerr.Calltracker{Err: testerr.Err, FailAt: 0}

	v, err := testerr.DoValue(c, func() (int, error) { return 42, nil })
	if !errors.Is(err, testerr.Err) || v != 0 {
		t.Errorf("first call: got %d, %v, want 0, %v", v, err, testerr.Err)
	}

	v, err = testerr.DoValue(c, func() (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Errorf("second call: got %d, %v, want 42, <nil>", v, err)
	}
}

func Test_Scenarios(t *testing.T) {
	got := testerr.Scenarios(testerr.Err, 2)

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.String())
	}

	want := []string{
		"fails at call 0",
		"fails from call 0",
		"fails at call 1",
		"fails from call 1",
	}
	if !slices.Equal(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
}
