package hotkeys

import (
	"fmt"
	"testing"

	"github.com/flyscore/flyscore/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder implements Target and records every call.
type recorder struct {
	calls []string
}

func (r *recorder) ToggleSwap() error {
	r.calls = append(r.calls, "swap")
	return nil
}

func (r *recorder) ToggleScoreboard() error {
	r.calls = append(r.calls, "scoreboard")
	return nil
}

func (r *recorder) ToggleTimer(index int) error {
	r.calls = append(r.calls, fmt.Sprintf("timer %d", index))
	return nil
}

func (r *recorder) ToggleVisible(kind models.Kind, index int) error {
	r.calls = append(r.calls, fmt.Sprintf("visible %s %d", kind, index))
	return nil
}

func (r *recorder) BumpCustomField(index int, side models.Side, delta int) error {
	r.calls = append(r.calls, fmt.Sprintf("field %d %s %+d", index, side, delta))
	return nil
}

func (r *recorder) BumpSingleStat(index int, delta int) error {
	r.calls = append(r.calls, fmt.Sprintf("single %d %+d", index, delta))
	return nil
}

func TestResolve(t *testing.T) {
	tests := map[string]struct {
		id   string
		want string
	}{
		"swap":              {id: "swap_sides", want: "swap"},
		"scoreboard":        {id: "toggle_scoreboard", want: "scoreboard"},
		"field toggle":      {id: "field_0_toggle", want: "visible custom_field 0"},
		"field home inc":    {id: "field_1_home_inc", want: "field 1 home +1"},
		"field home dec":    {id: "field_12_home_dec", want: "field 12 home -1"},
		"field away inc":    {id: "field_2_away_inc", want: "field 2 away +1"},
		"field away dec":    {id: "field_2_away_dec", want: "field 2 away -1"},
		"single toggle":     {id: "single_3_toggle", want: "visible single_stat 3"},
		"single inc":        {id: "single_0_inc", want: "single 0 +1"},
		"single dec":        {id: "single_0_dec", want: "single 0 -1"},
		"timer":             {id: "timer_4_toggle", want: "timer 4"},
		"leading zero kept": {id: "timer_01_toggle", want: "timer 1"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			r := &recorder{}
			require.NoError(t, Resolve(r, tc.id))
			if len(r.calls) != 1 || r.calls[0] != tc.want {
				t.Errorf("dispatch incorrect for '%s', wanted: '%s', got: '%v'", tc.id, tc.want, r.calls)
			}
		})
	}
}

func TestResolveMalformed(t *testing.T) {
	ids := []string{
		"",
		"swap",
		"field_",
		"field_x_toggle",
		"field_-1_toggle",
		"field_1_inc",
		"field_1",
		"single_0_home_inc",
		"single_0_inc_extra",
		"timer_0_start",
		"timer__toggle",
		"field_9999999_toggle",
		"FIELD_0_TOGGLE",
	}

	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			r := &recorder{}
			assert.ErrorIs(t, Resolve(r, id), ErrMalformedAction)
			assert.Empty(t, r.calls)
		})
	}
}

func TestActionIDRoundTrip(t *testing.T) {
	for _, b := range BuildDefaults(models.Defaults()) {
		a, err := ParseAction(b.ActionID)
		require.NoError(t, err)
		assert.Equal(t, b.ActionID, a.ID())
	}
}
