// Package hotkeys maps key presses to scoreboard mutations.
//
// Action identifiers are positional ("field_2_home_inc" addresses the third
// custom field) so they stay compatible with binding files written by older
// versions. Bindings additionally carry the stable id of the entity they
// were assigned for, and Merge prefers that anchor over the position.
package hotkeys

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/flyscore/flyscore/go/internal/models"
)

// ErrMalformedAction is returned for action ids outside the grammar.
var ErrMalformedAction = errors.New("malformed action id")

// Fixed scoreboard-level action ids.
const (
	ActionSwapSides        = "swap_sides"
	ActionToggleScoreboard = "toggle_scoreboard"
)

const (
	fieldPrefix  = "field_"
	singlePrefix = "single_"
	timerPrefix  = "timer_"
)

// Op is the operation suffix of an action id.
type Op string

const (
	OpSwap    Op = "swap"
	OpToggle  Op = "toggle"
	OpHomeInc Op = "home_inc"
	OpHomeDec Op = "home_dec"
	OpAwayInc Op = "away_inc"
	OpAwayDec Op = "away_dec"
	OpInc     Op = "inc"
	OpDec     Op = "dec"
)

var (
	fieldOps  = []Op{OpToggle, OpHomeInc, OpHomeDec, OpAwayInc, OpAwayDec}
	singleOps = []Op{OpToggle, OpInc, OpDec}
	timerOps  = []Op{OpToggle}
)

// Action is a decoded action id.
type Action struct {
	Kind  models.Kind
	Index int
	Op    Op
}

// ID renders the action back into its id.
func (a Action) ID() string {
	switch a.Kind {
	case models.KindScoreboard:
		if a.Op == OpSwap {
			return ActionSwapSides
		}
		return ActionToggleScoreboard
	case models.KindCustomField:
		return FieldActionID(a.Index, a.Op)
	case models.KindSingleStat:
		return SingleActionID(a.Index, a.Op)
	case models.KindTimer:
		return TimerActionID(a.Index)
	}
	return ""
}

func FieldActionID(index int, op Op) string {
	return fmt.Sprintf("%s%d_%s", fieldPrefix, index, op)
}

func SingleActionID(index int, op Op) string {
	return fmt.Sprintf("%s%d_%s", singlePrefix, index, op)
}

func TimerActionID(index int) string {
	return fmt.Sprintf("%s%d_%s", timerPrefix, index, OpToggle)
}

// ParseAction decodes an action id.
func ParseAction(id string) (Action, error) {
	switch id {
	case ActionSwapSides:
		return Action{Kind: models.KindScoreboard, Index: -1, Op: OpSwap}, nil
	case ActionToggleScoreboard:
		return Action{Kind: models.KindScoreboard, Index: -1, Op: OpToggle}, nil
	}

	var (
		kind models.Kind
		ops  []Op
		rest string
	)
	switch {
	case strings.HasPrefix(id, fieldPrefix):
		kind, ops, rest = models.KindCustomField, fieldOps, id[len(fieldPrefix):]
	case strings.HasPrefix(id, singlePrefix):
		kind, ops, rest = models.KindSingleStat, singleOps, id[len(singlePrefix):]
	case strings.HasPrefix(id, timerPrefix):
		kind, ops, rest = models.KindTimer, timerOps, id[len(timerPrefix):]
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrMalformedAction, id)
	}

	idxText, opText, ok := strings.Cut(rest, "_")
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrMalformedAction, id)
	}
	index, ok := parseIndex(idxText)
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrMalformedAction, id)
	}
	for _, op := range ops {
		if Op(opText) == op {
			return Action{Kind: kind, Index: index, Op: op}, nil
		}
	}
	return Action{}, fmt.Errorf("%w: %q", ErrMalformedAction, id)
}

func parseIndex(s string) (int, bool) {
	if s == "" || len(s) > 6 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
