package hotkeys

import (
	"fmt"

	"github.com/flyscore/flyscore/go/internal/models"
)

// Target is the set of mutations a hotkey can trigger.
type Target interface {
	ToggleSwap() error
	ToggleScoreboard() error
	ToggleVisible(kind models.Kind, index int) error
	BumpCustomField(index int, side models.Side, delta int) error
	BumpSingleStat(index int, delta int) error
	ToggleTimer(index int) error
}

// Resolve decodes id and applies it to target. Malformed ids mutate nothing.
func Resolve(target Target, id string) error {
	a, err := ParseAction(id)
	if err != nil {
		return err
	}
	return Apply(target, a)
}

// Apply runs a decoded action against target.
func Apply(target Target, a Action) error {
	switch a.Kind {
	case models.KindScoreboard:
		if a.Op == OpSwap {
			return target.ToggleSwap()
		}
		return target.ToggleScoreboard()

	case models.KindCustomField:
		switch a.Op {
		case OpToggle:
			return target.ToggleVisible(models.KindCustomField, a.Index)
		case OpHomeInc:
			return target.BumpCustomField(a.Index, models.SideHome, 1)
		case OpHomeDec:
			return target.BumpCustomField(a.Index, models.SideHome, -1)
		case OpAwayInc:
			return target.BumpCustomField(a.Index, models.SideAway, 1)
		case OpAwayDec:
			return target.BumpCustomField(a.Index, models.SideAway, -1)
		}

	case models.KindSingleStat:
		switch a.Op {
		case OpToggle:
			return target.ToggleVisible(models.KindSingleStat, a.Index)
		case OpInc:
			return target.BumpSingleStat(a.Index, 1)
		case OpDec:
			return target.BumpSingleStat(a.Index, -1)
		}

	case models.KindTimer:
		return target.ToggleTimer(a.Index)
	}
	return fmt.Errorf("%w: %s %s", ErrMalformedAction, a.Kind, a.Op)
}
