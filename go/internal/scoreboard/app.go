package scoreboard

import (
	"errors"
	"fmt"

	"github.com/flyscore/flyscore/go/internal/models"
	"github.com/flyscore/flyscore/go/internal/timer"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// StateRepository defines what the app layer needs from the repository
type StateRepository interface {
	Dir() string
	LoadOrCreate() (*models.State, error)
	Save(st *models.State) error
	ResetDefaults() (*models.State, error)
}

// Resources opens the repository and logo stager of a resources directory.
type Resources func(dir string) (StateRepository, LogoStager)

// App owns the live scoreboard state and every mutation of it. It is not
// safe for concurrent use; callers confine it to the controller loop.
type App struct {
	open  Resources
	repo  StateRepository
	logos LogoStager
	clock clockwork.Clock
	state *models.State

	listeners    map[int]Listener
	nextListener int
}

// NewApp creates an App for dir, loading its state or creating defaults.
func NewApp(dir string, open Resources, clock clockwork.Clock) (*App, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	a := &App{
		open:      open,
		clock:     clock,
		listeners: make(map[int]Listener),
	}
	if err := a.SwitchResources(dir); err != nil {
		return a, err
	}
	return a, nil
}

// Dir returns the active resources directory.
func (a *App) Dir() string {
	return a.repo.Dir()
}

// State returns the live state. Callers must not keep or mutate it outside
// the controller loop; use Snapshot for that.
func (a *App) State() *models.State {
	return a.state
}

// Snapshot returns a deep copy of the state for a dialog working copy.
func (a *App) Snapshot() *models.State {
	return a.state.Clone()
}

// Subscribe registers fn for every committed change and returns a function
// that removes it.
func (a *App) Subscribe(fn Listener) func() {
	id := a.nextListener
	a.nextListener++
	a.listeners[id] = fn
	return func() { delete(a.listeners, id) }
}

// SwitchResources loads (or creates) the state of another resources
// directory and makes it the live instance.
func (a *App) SwitchResources(dir string) error {
	repo, logos := a.open(dir)
	st, err := repo.LoadOrCreate()
	a.repo, a.logos, a.state = repo, logos, st
	log.Info().Str("dir", dir).Msg("switched resources directory")
	a.notify(models.KindScoreboard, -1, true)
	if err != nil {
		return a.saveFailed(err)
	}
	return nil
}

// Reload re-reads the state from disk.
func (a *App) Reload() error {
	st, err := a.repo.LoadOrCreate()
	a.state = st
	a.notify(models.KindScoreboard, -1, true)
	if err != nil {
		return a.saveFailed(err)
	}
	return nil
}

// Commit replaces the live state with a dialog's working copy.
func (a *App) Commit(working *models.State) error {
	st := working.Clone()
	st.Normalize()
	a.state = st
	return a.commit(models.KindScoreboard, -1, true)
}

// ResetAll deletes both team logos and any staged logo files, then resets
// plugin.json to its defaults.
func (a *App) ResetAll() error {
	for _, rel := range []string{a.state.Home.Logo, a.state.Away.Logo} {
		if rel == "" {
			continue
		}
		if err := a.logos.Delete(rel); err != nil {
			log.Warn().Err(err).Str("logo", rel).Msg("failed to delete logo")
		}
	}
	for _, base := range []string{logoBase(models.SideHome), logoBase(models.SideAway), "away"} {
		if err := a.logos.CleanPrefix(base); err != nil {
			log.Warn().Err(err).Str("prefix", base).Msg("failed to clean staged logos")
		}
	}

	st, err := a.repo.ResetDefaults()
	a.state = st
	a.notify(models.KindScoreboard, -1, true)
	if err != nil {
		return a.saveFailed(err)
	}
	log.Info().Str("dir", a.repo.Dir()).Msg("reset scoreboard to defaults")
	return nil
}

// BumpCustomField adds delta to one side of a custom field, clamped to
// [CustomFieldMin, CustomFieldMax].
func (a *App) BumpCustomField(index int, side models.Side, delta int) error {
	cf, err := a.customField(index)
	if err != nil {
		return err
	}
	v := &cf.Home
	if side == models.SideAway {
		v = &cf.Away
	}
	*v = clamp(*v+delta, models.CustomFieldMin, models.CustomFieldMax)
	return a.commit(models.KindCustomField, index, false)
}

// SetCustomFieldValue sets one side of a custom field, clamped like
// BumpCustomField.
func (a *App) SetCustomFieldValue(index int, side models.Side, value int) error {
	cf, err := a.customField(index)
	if err != nil {
		return err
	}
	value = clamp(value, models.CustomFieldMin, models.CustomFieldMax)
	if side == models.SideAway {
		cf.Away = value
	} else {
		cf.Home = value
	}
	return a.commit(models.KindCustomField, index, false)
}

// SetCustomFieldLabel renames a custom field.
func (a *App) SetCustomFieldLabel(index int, label string) error {
	cf, err := a.customField(index)
	if err != nil {
		return err
	}
	cf.Label = label
	return a.commit(models.KindCustomField, index, false)
}

// BumpSingleStat adds delta to a single stat.
func (a *App) BumpSingleStat(index int, delta int) error {
	ss, err := a.singleStat(index)
	if err != nil {
		return err
	}
	ss.Value += delta
	return a.commit(models.KindSingleStat, index, false)
}

// SetSingleStatValue sets a single stat, clamped to the editor bounds.
func (a *App) SetSingleStatValue(index int, value int) error {
	ss, err := a.singleStat(index)
	if err != nil {
		return err
	}
	ss.Value = clamp(value, models.SingleStatMin, models.SingleStatMax)
	return a.commit(models.KindSingleStat, index, false)
}

// SetSingleStatLabel renames a single stat.
func (a *App) SetSingleStatLabel(index int, label string) error {
	ss, err := a.singleStat(index)
	if err != nil {
		return err
	}
	ss.Label = label
	return a.commit(models.KindSingleStat, index, false)
}

// ToggleVisible flips the visibility of a custom field, single stat or timer.
func (a *App) ToggleVisible(kind models.Kind, index int) error {
	switch kind {
	case models.KindCustomField:
		cf, err := a.customField(index)
		if err != nil {
			return err
		}
		cf.Visible = !cf.Visible
	case models.KindSingleStat:
		ss, err := a.singleStat(index)
		if err != nil {
			return err
		}
		ss.Visible = !ss.Visible
	case models.KindTimer:
		t, err := a.timer(index)
		if err != nil {
			return err
		}
		t.Visible = !t.Visible
	default:
		return fmt.Errorf("%w: %s", ErrInvalidKind, kind)
	}
	return a.commit(kind, index, false)
}

// ToggleSwap flips swap_sides.
func (a *App) ToggleSwap() error {
	return a.SetSwapSides(!a.state.SwapSides)
}

// ToggleScoreboard flips show_scoreboard.
func (a *App) ToggleScoreboard() error {
	return a.SetShowScoreboard(!a.state.ShowScoreboard)
}

func (a *App) SetSwapSides(on bool) error {
	a.state.SwapSides = on
	return a.commit(models.KindScoreboard, -1, false)
}

func (a *App) SetShowScoreboard(on bool) error {
	a.state.ShowScoreboard = on
	return a.commit(models.KindScoreboard, -1, false)
}

// AddCustomField appends a visible custom field with both sides at 0.
func (a *App) AddCustomField(label string) error {
	a.state.CustomFields = append(a.state.CustomFields, models.NewCustomField(label))
	return a.commit(models.KindCustomField, len(a.state.CustomFields)-1, true)
}

// RemoveCustomField deletes a non-reserved custom field.
func (a *App) RemoveCustomField(index int) error {
	if index >= 0 && index < models.ReservedCustomFields {
		return ErrReservedField
	}
	if _, err := a.customField(index); err != nil {
		return err
	}
	a.state.CustomFields = append(a.state.CustomFields[:index], a.state.CustomFields[index+1:]...)
	return a.commit(models.KindCustomField, index, true)
}

// AddSingleStat appends a visible single stat at 0.
func (a *App) AddSingleStat(label string) error {
	a.state.SingleStats = append(a.state.SingleStats, models.NewSingleStat(label))
	return a.commit(models.KindSingleStat, len(a.state.SingleStats)-1, true)
}

// RemoveSingleStat deletes a single stat.
func (a *App) RemoveSingleStat(index int) error {
	if _, err := a.singleStat(index); err != nil {
		return err
	}
	a.state.SingleStats = append(a.state.SingleStats[:index], a.state.SingleStats[index+1:]...)
	return a.commit(models.KindSingleStat, index, true)
}

// AddTimer appends a stopped timer.
func (a *App) AddTimer(label string, mode models.TimerMode) error {
	if !mode.Valid() {
		return timer.ErrInvalidMode
	}
	a.state.Timers = append(a.state.Timers, models.NewTimer(label, mode))
	return a.commit(models.KindTimer, len(a.state.Timers)-1, true)
}

// RemoveTimer deletes a timer. Removing the last one leaves the default
// timer in its place.
func (a *App) RemoveTimer(index int) error {
	if _, err := a.timer(index); err != nil {
		return err
	}
	a.state.Timers = append(a.state.Timers[:index], a.state.Timers[index+1:]...)
	a.state.EnsureTimer()
	return a.commit(models.KindTimer, index, true)
}

func (a *App) StartTimer(index int) error {
	return a.timerOp(index, func(t *models.Timer) error {
		return timer.Start(t, timer.NowMs(a.clock))
	})
}

func (a *App) PauseTimer(index int) error {
	return a.timerOp(index, func(t *models.Timer) error {
		return timer.Pause(t, timer.NowMs(a.clock))
	})
}

// ToggleTimer starts a stopped timer or pauses a running one.
func (a *App) ToggleTimer(index int) error {
	return a.timerOp(index, func(t *models.Timer) error {
		return timer.Toggle(t, timer.NowMs(a.clock))
	})
}

func (a *App) ResetTimer(index int) error {
	return a.timerOp(index, func(t *models.Timer) error {
		timer.Reset(t)
		return nil
	})
}

// SetTimerDuration sets the initial and remaining duration of a stopped timer.
func (a *App) SetTimerDuration(index int, ms int64) error {
	return a.timerOp(index, func(t *models.Timer) error {
		return timer.SetTargetDuration(t, ms)
	})
}

// SetTimerDurationText parses mm:ss text into the duration of a stopped
// timer. Malformed text leaves the timer untouched.
func (a *App) SetTimerDurationText(index int, text string) error {
	ms := timer.ParseMmSs(text)
	if ms == timer.InvalidDuration {
		return fmt.Errorf("%w: %q", ErrInvalidDuration, text)
	}
	return a.SetTimerDuration(index, ms)
}

func (a *App) SetTimerMode(index int, mode models.TimerMode) error {
	return a.timerOp(index, func(t *models.Timer) error {
		return timer.SetMode(t, mode)
	})
}

func (a *App) SetTimerLabel(index int, label string) error {
	return a.timerOp(index, func(t *models.Timer) error {
		t.Label = label
		return nil
	})
}

// LiveTimerMs returns what a timer currently shows.
func (a *App) LiveTimerMs(index int) (int64, error) {
	t, err := a.timer(index)
	if err != nil {
		return 0, err
	}
	return timer.Live(*t, timer.NowMs(a.clock)), nil
}

// SetTeam updates the title and subtitle of one side.
func (a *App) SetTeam(side models.Side, title, subtitle string) error {
	team := a.state.Team(side)
	team.Title = title
	team.Subtitle = subtitle
	return a.commit(models.KindTeam, sideIndex(side), false)
}

// SetTeamLogo stages srcPath as the logo of one side and deletes the
// previously staged file.
func (a *App) SetTeamLogo(side models.Side, srcPath string) error {
	team := a.state.Team(side)
	rel, err := a.logos.Stage(srcPath, logoBase(side))
	if err != nil {
		return fmt.Errorf("failed to stage logo: %w", err)
	}
	if prev := team.Logo; prev != "" && prev != rel {
		if err := a.logos.Delete(prev); err != nil {
			log.Warn().Err(err).Str("logo", prev).Msg("failed to delete previous logo")
		}
	}
	team.Logo = rel
	return a.commit(models.KindTeam, sideIndex(side), false)
}

// ClearTeamLogo deletes the logo of one side.
func (a *App) ClearTeamLogo(side models.Side) error {
	team := a.state.Team(side)
	if team.Logo == "" {
		return nil
	}
	if err := a.logos.Delete(team.Logo); err != nil {
		log.Warn().Err(err).Str("logo", team.Logo).Msg("failed to delete logo")
	}
	team.Logo = ""
	return a.commit(models.KindTeam, sideIndex(side), false)
}

func (a *App) timerOp(index int, fn func(t *models.Timer) error) error {
	t, err := a.timer(index)
	if err != nil {
		return err
	}
	if err := fn(t); err != nil {
		return err
	}
	return a.commit(models.KindTimer, index, false)
}

func (a *App) customField(index int) (*models.CustomField, error) {
	if index < 0 || index >= len(a.state.CustomFields) {
		return nil, fmt.Errorf("%w: custom field %d", ErrIndexOutOfRange, index)
	}
	return &a.state.CustomFields[index], nil
}

func (a *App) singleStat(index int) (*models.SingleStat, error) {
	if index < 0 || index >= len(a.state.SingleStats) {
		return nil, fmt.Errorf("%w: single stat %d", ErrIndexOutOfRange, index)
	}
	return &a.state.SingleStats[index], nil
}

func (a *App) timer(index int) (*models.Timer, error) {
	if index < 0 || index >= len(a.state.Timers) {
		return nil, fmt.Errorf("%w: timer %d", ErrIndexOutOfRange, index)
	}
	return &a.state.Timers[index], nil
}

// commit writes the state through to disk and notifies listeners. The
// listeners run even when the save fails since the in-memory state changed.
func (a *App) commit(kind models.Kind, index int, structural bool) error {
	err := a.repo.Save(a.state)
	a.notify(kind, index, structural)
	if err != nil {
		return a.saveFailed(err)
	}
	return nil
}

func (a *App) saveFailed(err error) error {
	log.Warn().Err(err).Str("dir", a.repo.Dir()).Msg("scoreboard state not persisted")
	return errors.Join(ErrSaveFailed, err)
}

func (a *App) notify(kind models.Kind, index int, structural bool) {
	if len(a.listeners) == 0 {
		return
	}
	c := Change{
		Kind:       kind,
		Index:      index,
		Structural: structural,
		State:      a.state.Clone(),
		Timestamp:  a.clock.Now(),
	}
	for _, fn := range a.listeners {
		fn(c)
	}
}

// logoBase is the staged file name prefix of a side. The overlay has always
// called the away side "guest".
func logoBase(side models.Side) string {
	if side == models.SideAway {
		return "guest"
	}
	return "home"
}

func sideIndex(side models.Side) int {
	if side == models.SideAway {
		return 1
	}
	return 0
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
