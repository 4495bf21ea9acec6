package models

import (
	"slices"

	"github.com/google/uuid"
)

// Default values shared by the codec and the mutators.
const (
	DefaultServerPort = 8089
	DefaultTimerLabel = "First Half"

	// ReservedCustomFields is the number of leading custom fields that back the
	// main scoreboard and can never be removed.
	ReservedCustomFields = 2

	CustomFieldMax = 999
	CustomFieldMin = 0
	SingleStatMax  = 9999
	SingleStatMin  = -9999
)

// ReservedFieldLabels are the labels given to the reserved custom field slots
// when they are missing or unlabeled.
var ReservedFieldLabels = [ReservedCustomFields]string{"Points", "Score"}

// TimerMode defines the direction a timer runs in.
type TimerMode string

const (
	TimerModeCountdown TimerMode = "countdown"
	TimerModeCountup   TimerMode = "countup"
)

// Valid reports whether m is a known timer mode.
func (m TimerMode) Valid() bool {
	return m == TimerModeCountdown || m == TimerModeCountup
}

// Side selects one team of a paired stat.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Kind identifies which ordered collection an index addresses.
type Kind string

const (
	KindScoreboard  Kind = "scoreboard"
	KindTeam        Kind = "team"
	KindCustomField Kind = "custom_field"
	KindSingleStat  Kind = "single_stat"
	KindTimer       Kind = "timer"
)

// Team holds the display data of one side.
type Team struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Logo     string `json:"logo"` // relative to the overlay directory
}

// CustomField is a paired home/away stat.
type CustomField struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Home    int    `json:"home"`
	Away    int    `json:"away"`
	Visible bool   `json:"visible"`
}

// SingleStat is a single signed value not split by side.
type SingleStat struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Value   int    `json:"value"`
	Visible bool   `json:"visible"`
}

// Timer is one countdown or countup clock. Millisecond fields are plain
// integers here; the codec owns their string encoding.
type Timer struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Mode        TimerMode `json:"mode"`
	Running     bool      `json:"running"`
	InitialMs   int64     `json:"initial_ms"`
	RemainingMs int64     `json:"remaining_ms"`
	LastTickMs  int64     `json:"last_tick_ms"` // epoch ms, 0 = unset
	Visible     bool      `json:"visible"`
}

// State is the root aggregate persisted to plugin.json.
type State struct {
	ServerPort     int           `json:"server_port"`
	Home           Team          `json:"home"`
	Away           Team          `json:"away"`
	SwapSides      bool          `json:"swap_sides"`
	ShowScoreboard bool          `json:"show_scoreboard"`
	CustomFields   []CustomField `json:"custom_fields"`
	SingleStats    []SingleStat  `json:"single_stats"`
	Timers         []Timer       `json:"timers"`
}

// NewID returns a fresh stable entity identifier.
func NewID() string {
	return uuid.NewString()
}

// NewCustomField returns an appendable custom field with defaults.
func NewCustomField(label string) CustomField {
	return CustomField{ID: NewID(), Label: label, Visible: true}
}

// NewSingleStat returns an appendable single stat with defaults.
func NewSingleStat(label string) SingleStat {
	return SingleStat{ID: NewID(), Label: label, Visible: true}
}

// NewTimer returns a stopped timer with no duration.
func NewTimer(label string, mode TimerMode) Timer {
	if !mode.Valid() {
		mode = TimerModeCountdown
	}
	return Timer{ID: NewID(), Label: label, Mode: mode, Visible: true}
}

// DefaultTimer is the timer synthesized whenever the timer list is empty.
func DefaultTimer() Timer {
	return NewTimer(DefaultTimerLabel, TimerModeCountdown)
}

// Team returns a pointer to the team on the given side.
func (s *State) Team(side Side) *Team {
	if side == SideAway {
		return &s.Away
	}
	return &s.Home
}

// Clone returns a deep copy that shares no slices with s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.CustomFields = slices.Clone(s.CustomFields)
	c.SingleStats = slices.Clone(s.SingleStats)
	c.Timers = slices.Clone(s.Timers)
	return &c
}

// EnsureDefaultCustomFields guarantees the reserved slots exist and carry a
// label. Calling it more than once has no further effect.
func (s *State) EnsureDefaultCustomFields() {
	for i, label := range ReservedFieldLabels {
		if len(s.CustomFields) <= i {
			s.CustomFields = append(s.CustomFields, NewCustomField(""))
		}
		if s.CustomFields[i].Label == "" {
			s.CustomFields[i].Label = label
		}
	}
}

// EnsureTimer synthesizes the default timer when none exist.
func (s *State) EnsureTimer() {
	if len(s.Timers) == 0 {
		s.Timers = append(s.Timers, DefaultTimer())
	}
}

// EnsureIDs assigns identifiers to entities loaded from files that predate them.
func (s *State) EnsureIDs() {
	for i := range s.CustomFields {
		if s.CustomFields[i].ID == "" {
			s.CustomFields[i].ID = NewID()
		}
	}
	for i := range s.SingleStats {
		if s.SingleStats[i].ID == "" {
			s.SingleStats[i].ID = NewID()
		}
	}
	for i := range s.Timers {
		if s.Timers[i].ID == "" {
			s.Timers[i].ID = NewID()
		}
	}
}

// Normalize applies every structural invariant of the schema.
func (s *State) Normalize() {
	s.EnsureDefaultCustomFields()
	s.EnsureTimer()
	s.EnsureIDs()
	for i := range s.Timers {
		if !s.Timers[i].Mode.Valid() {
			s.Timers[i].Mode = TimerModeCountdown
		}
	}
}

// Defaults returns the canonical empty state.
func Defaults() *State {
	s := &State{
		ServerPort:     DefaultServerPort,
		ShowScoreboard: true,
		CustomFields:   []CustomField{},
		SingleStats:    []SingleStat{},
		Timers:         []Timer{},
	}
	s.Normalize()
	return s
}
