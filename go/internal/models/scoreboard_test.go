package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := Defaults()

	assert.Equal(t, DefaultServerPort, s.ServerPort)
	assert.True(t, s.ShowScoreboard)
	require.Len(t, s.CustomFields, ReservedCustomFields)
	assert.Equal(t, "Points", s.CustomFields[0].Label)
	assert.Equal(t, "Score", s.CustomFields[1].Label)
	require.Len(t, s.Timers, 1)
	assert.Equal(t, DefaultTimerLabel, s.Timers[0].Label)
	assert.Equal(t, TimerModeCountdown, s.Timers[0].Mode)
	assert.Empty(t, s.SingleStats)
}

func TestEnsureDefaultCustomFields(t *testing.T) {
	tests := map[string]struct {
		in     []CustomField
		labels []string
	}{
		"empty": {
			in:     nil,
			labels: []string{"Points", "Score"},
		},
		"one unlabeled": {
			in:     []CustomField{{ID: "a"}},
			labels: []string{"Points", "Score"},
		},
		"custom labels kept": {
			in:     []CustomField{{ID: "a", Label: "Goals"}, {ID: "b", Label: "Shots"}, {ID: "c", Label: "Fouls"}},
			labels: []string{"Goals", "Shots", "Fouls"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s := &State{CustomFields: tc.in}
			s.EnsureDefaultCustomFields()
			once := s.Clone()
			s.EnsureDefaultCustomFields()

			if diff := cmp.Diff(once, s); diff != "" {
				t.Errorf("second call changed the state (-once +twice):\n%s", diff)
			}
			var labels []string
			for _, cf := range s.CustomFields {
				labels = append(labels, cf.Label)
			}
			assert.Equal(t, tc.labels, labels)
		})
	}
}

func TestNormalizeRepairsLoadedState(t *testing.T) {
	s := &State{
		Timers:      []Timer{{Label: "Extra", Mode: "sideways"}},
		SingleStats: []SingleStat{{Label: "Corners"}},
	}
	s.Normalize()

	require.Len(t, s.Timers, 1)
	assert.Equal(t, TimerModeCountdown, s.Timers[0].Mode)
	assert.NotEmpty(t, s.Timers[0].ID)
	assert.NotEmpty(t, s.SingleStats[0].ID)
	for _, cf := range s.CustomFields {
		assert.NotEmpty(t, cf.ID)
	}
}

func TestCloneSharesNothing(t *testing.T) {
	s := Defaults()
	c := s.Clone()

	c.CustomFields[0].Home = 7
	c.Timers[0].Running = true
	c.SingleStats = append(c.SingleStats, NewSingleStat("Corners"))

	assert.Equal(t, 0, s.CustomFields[0].Home)
	assert.False(t, s.Timers[0].Running)
	assert.Empty(t, s.SingleStats)
	assert.Nil(t, (*State)(nil).Clone())
}

func TestTeam(t *testing.T) {
	s := Defaults()
	s.Team(SideAway).Title = "Guests"
	s.Team(SideHome).Title = "Hosts"

	assert.Equal(t, "Guests", s.Away.Title)
	assert.Equal(t, "Hosts", s.Home.Title)
}

func TestNewTimerFallsBackToCountdown(t *testing.T) {
	assert.Equal(t, TimerModeCountup, NewTimer("Up", TimerModeCountup).Mode)
	assert.Equal(t, TimerModeCountdown, NewTimer("Bad", TimerMode("")).Mode)
	assert.NotEqual(t, NewTimer("a", TimerModeCountup).ID, NewTimer("a", TimerModeCountup).ID)
}
