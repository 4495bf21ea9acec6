package hotkeys

import (
	"fmt"

	"github.com/flyscore/flyscore/go/internal/models"
)

// Binding ties an action to an optional key sequence.
type Binding struct {
	ActionID string `json:"action_id"`
	Label    string `json:"label"`
	Sequence string `json:"sequence,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
}

// BuildDefaults enumerates every action available for st, in display order:
// the two scoreboard actions, five per custom field, three per single stat
// and one per timer. Default bindings carry no key sequence.
func BuildDefaults(st *models.State) []Binding {
	out := make([]Binding, 0, 2+5*len(st.CustomFields)+3*len(st.SingleStats)+len(st.Timers))
	out = append(out,
		Binding{ActionID: ActionSwapSides, Label: "Swap Home ↔ Guests"},
		Binding{ActionID: ActionToggleScoreboard, Label: "Toggle scoreboard visibility"},
	)

	for i, cf := range st.CustomFields {
		name := displayName(cf.Label, "Field", i)
		for _, op := range fieldOps {
			out = append(out, Binding{
				ActionID: FieldActionID(i, op),
				Label:    name + ": " + fieldOpLabels[op],
				EntityID: cf.ID,
			})
		}
	}
	for i, ss := range st.SingleStats {
		name := displayName(ss.Label, "Stat", i)
		for _, op := range singleOps {
			out = append(out, Binding{
				ActionID: SingleActionID(i, op),
				Label:    name + ": " + singleOpLabels[op],
				EntityID: ss.ID,
			})
		}
	}
	for i, t := range st.Timers {
		out = append(out, Binding{
			ActionID: TimerActionID(i),
			Label:    displayName(t.Label, "Timer", i) + ": start/pause",
			EntityID: t.ID,
		})
	}
	return out
}

var fieldOpLabels = map[Op]string{
	OpToggle:  "toggle visibility",
	OpHomeInc: "Home +1",
	OpHomeDec: "Home -1",
	OpAwayInc: "Guests +1",
	OpAwayDec: "Guests -1",
}

var singleOpLabels = map[Op]string{
	OpToggle: "toggle visibility",
	OpInc:    "+1",
	OpDec:    "-1",
}

func displayName(label, kind string, index int) string {
	if label != "" {
		return label
	}
	return fmt.Sprintf("%s %d", kind, index+1)
}

// Merge overlays the key sequences of user onto defaults. The result has
// exactly the defaults' actions in their order. A user binding matches a
// default by entity anchor and operation first; bindings without an anchor
// fall back to the positional action id. User bindings that match nothing
// are dropped.
func Merge(defaults, user []Binding) []Binding {
	anchored := make(map[string]string)
	positional := make(map[string]string)
	for _, b := range user {
		if b.Sequence == "" {
			continue
		}
		if b.EntityID == "" {
			positional[b.ActionID] = b.Sequence
			continue
		}
		if key, ok := anchorKey(b); ok {
			anchored[key] = b.Sequence
		}
	}

	out := make([]Binding, len(defaults))
	for i, d := range defaults {
		out[i] = d
		if key, ok := anchorKey(d); ok {
			if seq, found := anchored[key]; found {
				out[i].Sequence = seq
				continue
			}
		}
		if seq, found := positional[d.ActionID]; found {
			out[i].Sequence = seq
		}
	}
	return out
}

// anchorKey identifies a binding by entity and operation so it survives
// index shifts.
func anchorKey(b Binding) (string, bool) {
	if b.EntityID == "" {
		return "", false
	}
	a, err := ParseAction(b.ActionID)
	if err != nil {
		return "", false
	}
	return string(a.Kind) + "/" + b.EntityID + "/" + string(a.Op), true
}
