// Package dock is the headless model behind the control dock. It renders
// the scoreboard state into per-control display values and only reports
// the controls that changed, skipping controls the operator is editing.
package dock

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/flyscore/flyscore/go/internal/models"
	"github.com/flyscore/flyscore/go/internal/timer"
	"github.com/jonboulle/clockwork"
)

// ErrNoSuchControl is returned when a commit addresses a row that no longer exists.
var ErrNoSuchControl = errors.New("no such control")

// ControlID names one control. Entity controls embed the entity id so a
// row keeps its identity when rows above it are removed.
type ControlID string

const (
	SwapControl       ControlID = "swap_sides"
	ScoreboardControl ControlID = "show_scoreboard"
)

func FieldControl(entityID string, side models.Side) ControlID {
	return ControlID("field/" + entityID + "/" + string(side))
}

func FieldLabelControl(entityID string) ControlID {
	return ControlID("field/" + entityID + "/label")
}

func SingleControl(entityID string) ControlID {
	return ControlID("single/" + entityID + "/value")
}

func SingleLabelControl(entityID string) ControlID {
	return ControlID("single/" + entityID + "/label")
}

func TimerTimeControl(entityID string) ControlID {
	return ControlID("timer/" + entityID + "/time")
}

func TimerModeControl(entityID string) ControlID {
	return ControlID("timer/" + entityID + "/mode")
}

func TimerRunningControl(entityID string) ControlID {
	return ControlID("timer/" + entityID + "/running")
}

func TimerLabelControl(entityID string) ControlID {
	return ControlID("timer/" + entityID + "/label")
}

// Update is a display change of one control.
type Update struct {
	Control ControlID `json:"control"`
	Value   string    `json:"value"`
	Removed bool      `json:"removed,omitempty"`
}

// Editor is what the panel needs from the scoreboard App.
type Editor interface {
	State() *models.State
	SetCustomFieldValue(index int, side models.Side, value int) error
	SetSingleStatValue(index int, value int) error
	SetTimerDurationText(index int, text string) error
	LiveTimerMs(index int) (int64, error)
}

// Panel holds the displayed value of every control. It is confined to the
// controller loop.
type Panel struct {
	clock   clockwork.Clock
	order   []ControlID
	values  map[ControlID]string
	editing map[ControlID]bool
}

func NewPanel(clock clockwork.Clock) *Panel {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Panel{
		clock:   clock,
		values:  make(map[ControlID]string),
		editing: make(map[ControlID]bool),
	}
}

// BeginEdit marks a control as being edited; Render leaves it alone until
// EndEdit.
func (p *Panel) BeginEdit(id ControlID) {
	p.editing[id] = true
}

func (p *Panel) EndEdit(id ControlID) {
	delete(p.editing, id)
}

func (p *Panel) Editing(id ControlID) bool {
	return p.editing[id]
}

// Value returns the displayed value of a control.
func (p *Panel) Value(id ControlID) (string, bool) {
	v, ok := p.values[id]
	return v, ok
}

// View returns every control with its displayed value in display order.
func (p *Panel) View() []Update {
	out := make([]Update, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, Update{Control: id, Value: p.values[id]})
	}
	return out
}

// Render diffs st against the displayed values and returns the changes.
// Controls under edit keep their displayed value.
func (p *Panel) Render(st *models.State) []Update {
	desired, order := p.project(st)

	var updates []Update
	for _, id := range order {
		want := desired[id]
		if p.editing[id] {
			if _, known := p.values[id]; known {
				continue
			}
		}
		if have, ok := p.values[id]; ok && have == want {
			continue
		}
		p.values[id] = want
		updates = append(updates, Update{Control: id, Value: want})
	}
	for _, id := range p.order {
		if _, ok := desired[id]; !ok {
			delete(p.values, id)
			delete(p.editing, id)
			updates = append(updates, Update{Control: id, Removed: true})
		}
	}
	p.order = order
	return updates
}

// CommitTimerText applies the text typed into a timer's time control. On a
// parse failure or a running timer the control reverts to the live value.
func (p *Panel) CommitTimerText(ed Editor, index int, text string) (Update, error) {
	st := ed.State()
	if index < 0 || index >= len(st.Timers) {
		return Update{}, fmt.Errorf("timer %d: %w", index, ErrNoSuchControl)
	}
	id := TimerTimeControl(st.Timers[index].ID)
	p.EndEdit(id)

	err := ed.SetTimerDurationText(index, text)
	live, liveErr := ed.LiveTimerMs(index)
	if liveErr != nil {
		return Update{}, liveErr
	}
	return p.force(id, timer.FormatMmSs(live)), err
}

// CommitFieldValue applies a spin-box edit of one side of a custom field.
// The control shows the stored value afterwards, which is clamped.
func (p *Panel) CommitFieldValue(ed Editor, index int, side models.Side, value int) (Update, error) {
	st := ed.State()
	if index < 0 || index >= len(st.CustomFields) {
		return Update{}, fmt.Errorf("custom field %d: %w", index, ErrNoSuchControl)
	}
	id := FieldControl(st.CustomFields[index].ID, side)
	p.EndEdit(id)

	err := ed.SetCustomFieldValue(index, side, value)
	cf := ed.State().CustomFields[index]
	v := cf.Home
	if side == models.SideAway {
		v = cf.Away
	}
	return p.force(id, strconv.Itoa(v)), err
}

// CommitSingleValue applies a spin-box edit of a single stat.
func (p *Panel) CommitSingleValue(ed Editor, index int, value int) (Update, error) {
	st := ed.State()
	if index < 0 || index >= len(st.SingleStats) {
		return Update{}, fmt.Errorf("single stat %d: %w", index, ErrNoSuchControl)
	}
	id := SingleControl(st.SingleStats[index].ID)
	p.EndEdit(id)

	err := ed.SetSingleStatValue(index, value)
	return p.force(id, strconv.Itoa(ed.State().SingleStats[index].Value)), err
}

func (p *Panel) force(id ControlID, value string) Update {
	p.values[id] = value
	return Update{Control: id, Value: value}
}

func (p *Panel) project(st *models.State) (map[ControlID]string, []ControlID) {
	now := timer.NowMs(p.clock)
	desired := make(map[ControlID]string)
	var order []ControlID
	set := func(id ControlID, v string) {
		desired[id] = v
		order = append(order, id)
	}

	set(SwapControl, strconv.FormatBool(st.SwapSides))
	set(ScoreboardControl, strconv.FormatBool(st.ShowScoreboard))
	for _, cf := range st.CustomFields {
		set(FieldLabelControl(cf.ID), cf.Label)
		set(FieldControl(cf.ID, models.SideHome), strconv.Itoa(cf.Home))
		set(FieldControl(cf.ID, models.SideAway), strconv.Itoa(cf.Away))
	}
	for _, ss := range st.SingleStats {
		set(SingleLabelControl(ss.ID), ss.Label)
		set(SingleControl(ss.ID), strconv.Itoa(ss.Value))
	}
	for _, t := range st.Timers {
		set(TimerLabelControl(t.ID), t.Label)
		set(TimerTimeControl(t.ID), timer.FormatMmSs(timer.Live(t, now)))
		set(TimerModeControl(t.ID), string(t.Mode))
		set(TimerRunningControl(t.ID), strconv.FormatBool(t.Running))
	}
	return desired, order
}
