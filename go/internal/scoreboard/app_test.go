package scoreboard

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/flyscore/flyscore/go/internal/models"
	"github.com/flyscore/flyscore/go/internal/timer"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStager struct {
	staged  []string
	deleted []string
	cleaned []string
	err     error
}

func (f *fakeStager) Stage(srcPath, base string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.staged = append(f.staged, srcPath)
	return fmt.Sprintf("%s-%d.png", base, len(f.staged)), nil
}

func (f *fakeStager) Delete(relPath string) error {
	f.deleted = append(f.deleted, relPath)
	return nil
}

func (f *fakeStager) CleanPrefix(base string) error {
	f.cleaned = append(f.cleaned, base)
	return nil
}

type brokenRepository struct {
	dir   string
	saves int
}

func (b *brokenRepository) Dir() string { return b.dir }

func (b *brokenRepository) LoadOrCreate() (*models.State, error) { return models.Defaults(), nil }

func (b *brokenRepository) Save(*models.State) error {
	b.saves++
	return errors.New("disk full")
}

func (b *brokenRepository) ResetDefaults() (*models.State, error) {
	return models.Defaults(), errors.New("disk full")
}

func newTestApp(t *testing.T) (*App, *fakeStager, *clockwork.FakeClock) {
	t.Helper()
	stager := &fakeStager{}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 9, 1, 18, 0, 0, 0, time.UTC))
	open := func(dir string) (StateRepository, LogoStager) {
		return NewRepository(dir), stager
	}
	app, err := NewApp(t.TempDir(), open, clock)
	require.NoError(t, err)
	return app, stager, clock
}

// persisted reads plugin.json back to prove the mutation was written through.
func persisted(t *testing.T, a *App) *models.State {
	t.Helper()
	st, err := NewRepository(a.Dir()).Load()
	require.NoError(t, err)
	return st
}

func TestBumpCustomFieldClamps(t *testing.T) {
	tests := map[string]struct {
		start int
		delta int
		want  int
	}{
		"increment":       {start: 2, delta: 1, want: 3},
		"clamp at zero":   {start: 2, delta: -5, want: 0},
		"clamp at max":    {start: 998, delta: 5, want: models.CustomFieldMax},
		"zero stays zero": {start: 0, delta: -1, want: 0},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			app, _, _ := newTestApp(t)
			require.NoError(t, app.SetCustomFieldValue(0, models.SideHome, tc.start))
			require.NoError(t, app.BumpCustomField(0, models.SideHome, tc.delta))

			if got := app.State().CustomFields[0].Home; got != tc.want {
				t.Errorf("home incorrect, wanted: %d, got: %d", tc.want, got)
			}
			assert.Equal(t, tc.want, persisted(t, app).CustomFields[0].Home)
		})
	}
}

func TestBumpCustomFieldAwaySide(t *testing.T) {
	app, _, _ := newTestApp(t)
	require.NoError(t, app.BumpCustomField(1, models.SideAway, 4))
	assert.Equal(t, 0, app.State().CustomFields[1].Home)
	assert.Equal(t, 4, app.State().CustomFields[1].Away)
}

func TestOutOfRangeIsNoOp(t *testing.T) {
	app, _, _ := newTestApp(t)
	before := app.Snapshot()

	assert.ErrorIs(t, app.BumpCustomField(7, models.SideHome, 1), ErrIndexOutOfRange)
	assert.ErrorIs(t, app.BumpSingleStat(0, 1), ErrIndexOutOfRange)
	assert.ErrorIs(t, app.ToggleVisible(models.KindTimer, 3), ErrIndexOutOfRange)
	assert.ErrorIs(t, app.StartTimer(-1), ErrIndexOutOfRange)
	assert.Equal(t, before, app.State())
}

func TestSingleStatBounds(t *testing.T) {
	app, _, _ := newTestApp(t)
	require.NoError(t, app.AddSingleStat("Shots"))

	require.NoError(t, app.SetSingleStatValue(0, 20000))
	assert.Equal(t, models.SingleStatMax, app.State().SingleStats[0].Value)

	require.NoError(t, app.SetSingleStatValue(0, -3))
	require.NoError(t, app.BumpSingleStat(0, -2))
	assert.Equal(t, -5, app.State().SingleStats[0].Value)
}

func TestRemoveReservedCustomField(t *testing.T) {
	app, _, _ := newTestApp(t)
	require.NoError(t, app.AddCustomField("Fouls"))

	assert.ErrorIs(t, app.RemoveCustomField(0), ErrReservedField)
	assert.ErrorIs(t, app.RemoveCustomField(1), ErrReservedField)
	assert.Len(t, app.State().CustomFields, 3)

	require.NoError(t, app.RemoveCustomField(2))
	assert.Len(t, app.State().CustomFields, 2)
	assert.Len(t, persisted(t, app).CustomFields, 2)
}

func TestRemoveLastTimerSynthesizesDefault(t *testing.T) {
	app, _, _ := newTestApp(t)
	require.NoError(t, app.AddTimer("Second Half", models.TimerModeCountdown))
	require.NoError(t, app.RemoveTimer(0))
	require.NoError(t, app.RemoveTimer(0))

	require.Len(t, app.State().Timers, 1)
	assert.Equal(t, models.DefaultTimerLabel, app.State().Timers[0].Label)
	assert.Len(t, persisted(t, app).Timers, 1)
}

func TestAddTimerRejectsUnknownMode(t *testing.T) {
	app, _, _ := newTestApp(t)
	assert.ErrorIs(t, app.AddTimer("x", "sideways"), timer.ErrInvalidMode)
	assert.Len(t, app.State().Timers, 1)
}

func TestTimerLifecycle(t *testing.T) {
	app, _, clock := newTestApp(t)
	require.NoError(t, app.SetTimerDurationText(0, "01:00"))

	require.NoError(t, app.StartTimer(0))
	clock.Advance(15 * time.Second)
	live, err := app.LiveTimerMs(0)
	require.NoError(t, err)
	assert.Equal(t, int64(45000), live)

	assert.ErrorIs(t, app.SetTimerDuration(0, 1000), timer.ErrRunning)

	require.NoError(t, app.PauseTimer(0))
	assert.Equal(t, int64(45000), app.State().Timers[0].RemainingMs)
	assert.Equal(t, int64(45000), persisted(t, app).Timers[0].RemainingMs)

	require.NoError(t, app.ResetTimer(0))
	assert.Equal(t, int64(60000), app.State().Timers[0].RemainingMs)
}

func TestSetTimerDurationTextRejectsGarbage(t *testing.T) {
	app, _, _ := newTestApp(t)
	require.NoError(t, app.SetTimerDuration(0, 90000))

	err := app.SetTimerDurationText(0, "abc")
	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.Equal(t, int64(90000), app.State().Timers[0].RemainingMs)
	assert.Equal(t, int64(90000), app.State().Timers[0].InitialMs)
}

func TestToggles(t *testing.T) {
	app, _, _ := newTestApp(t)

	require.NoError(t, app.ToggleSwap())
	require.NoError(t, app.ToggleScoreboard())
	require.NoError(t, app.ToggleVisible(models.KindCustomField, 1))
	require.NoError(t, app.ToggleVisible(models.KindTimer, 0))

	st := persisted(t, app)
	assert.True(t, st.SwapSides)
	assert.False(t, st.ShowScoreboard)
	assert.False(t, st.CustomFields[1].Visible)
	assert.False(t, st.Timers[0].Visible)

	assert.ErrorIs(t, app.ToggleVisible(models.KindTeam, 0), ErrInvalidKind)
}

func TestTeamLogos(t *testing.T) {
	app, stager, _ := newTestApp(t)

	require.NoError(t, app.SetTeam(models.SideAway, "Hawks", "Visitors"))
	require.NoError(t, app.SetTeamLogo(models.SideAway, "/tmp/hawks.png"))
	assert.Equal(t, "guest-1.png", app.State().Away.Logo)
	assert.Equal(t, "Hawks", persisted(t, app).Away.Title)

	require.NoError(t, app.SetTeamLogo(models.SideAway, "/tmp/hawks2.png"))
	assert.Equal(t, "guest-2.png", app.State().Away.Logo)
	assert.Equal(t, []string{"guest-1.png"}, stager.deleted)

	require.NoError(t, app.ClearTeamLogo(models.SideAway))
	assert.Empty(t, app.State().Away.Logo)
	assert.Len(t, stager.deleted, 2)
}

func TestTeamLogoStageFailureKeepsState(t *testing.T) {
	app, stager, _ := newTestApp(t)
	stager.err = errors.New("unreadable")

	assert.Error(t, app.SetTeamLogo(models.SideHome, "/nope.png"))
	assert.Empty(t, app.State().Home.Logo)
}

func TestResetAll(t *testing.T) {
	app, stager, _ := newTestApp(t)
	require.NoError(t, app.SetTeamLogo(models.SideHome, "/tmp/eagles.png"))
	require.NoError(t, app.AddSingleStat("Corners"))

	require.NoError(t, app.ResetAll())
	assert.Contains(t, stager.deleted, "home-1.png")
	assert.ElementsMatch(t, []string{"home", "guest", "away"}, stager.cleaned)
	assert.Empty(t, app.State().SingleStats)
	assert.Empty(t, persisted(t, app).Home.Logo)
}

func TestSnapshotCommit(t *testing.T) {
	app, _, _ := newTestApp(t)

	working := app.Snapshot()
	working.CustomFields = working.CustomFields[:0]
	working.Timers = nil
	working.Home.Title = "Edited"
	assert.Empty(t, app.State().Home.Title)

	require.NoError(t, app.Commit(working))
	assert.Equal(t, "Edited", app.State().Home.Title)
	assert.Len(t, app.State().CustomFields, 2)
	assert.Len(t, app.State().Timers, 1)
	assert.Equal(t, "Edited", persisted(t, app).Home.Title)
}

func TestReloadPicksUpExternalEdits(t *testing.T) {
	app, _, _ := newTestApp(t)
	st := persisted(t, app)
	st.Home.Title = "From Disk"
	require.NoError(t, NewRepository(app.Dir()).Save(st))

	require.NoError(t, app.Reload())
	assert.Equal(t, "From Disk", app.State().Home.Title)
}

func TestSwitchResources(t *testing.T) {
	app, _, _ := newTestApp(t)
	first := app.Dir()
	require.NoError(t, app.SetTeam(models.SideHome, "First", ""))

	second := t.TempDir()
	require.NoError(t, app.SwitchResources(second))
	assert.Equal(t, second, app.Dir())
	assert.Empty(t, app.State().Home.Title)

	require.NoError(t, app.SwitchResources(first))
	assert.Equal(t, "First", app.State().Home.Title)
}

func TestSubscribe(t *testing.T) {
	app, _, _ := newTestApp(t)
	var changes []Change
	unsubscribe := app.Subscribe(func(c Change) { changes = append(changes, c) })

	require.NoError(t, app.BumpCustomField(0, models.SideHome, 1))
	require.NoError(t, app.AddSingleStat("Corners"))
	require.Len(t, changes, 2)

	assert.Equal(t, models.KindCustomField, changes[0].Kind)
	assert.Equal(t, 0, changes[0].Index)
	assert.False(t, changes[0].Structural)
	assert.Equal(t, 1, changes[0].State.CustomFields[0].Home)

	assert.Equal(t, models.KindSingleStat, changes[1].Kind)
	assert.True(t, changes[1].Structural)

	// the snapshot is detached from the live state
	changes[0].State.CustomFields[0].Home = 50
	assert.Equal(t, 1, app.State().CustomFields[0].Home)

	unsubscribe()
	require.NoError(t, app.ToggleSwap())
	assert.Len(t, changes, 2)
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	repo := &brokenRepository{dir: "/unwritable"}
	open := func(string) (StateRepository, LogoStager) { return repo, &fakeStager{} }
	app, err := NewApp("/unwritable", open, clockwork.NewFakeClock())
	require.NoError(t, err)

	err = app.BumpCustomField(0, models.SideHome, 2)
	assert.ErrorIs(t, err, ErrSaveFailed)
	assert.Equal(t, 2, app.State().CustomFields[0].Home)

	err = app.BumpCustomField(0, models.SideHome, 2)
	assert.ErrorIs(t, err, ErrSaveFailed)
	assert.Equal(t, 4, app.State().CustomFields[0].Home)
	assert.Equal(t, 2, repo.saves)
}
