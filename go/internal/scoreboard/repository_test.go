package scoreboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/flyscore/flyscore/go/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() *models.State {
	st := models.Defaults()
	st.ServerPort = 9090
	st.Home = models.Team{Title: "Eagles", Subtitle: "Home", Logo: "home-1a2b3c4d.png"}
	st.Away = models.Team{Title: "Hawks", Subtitle: "Guests"}
	st.SwapSides = true
	st.ShowScoreboard = false
	st.CustomFields[0].Home = 3
	st.CustomFields[1].Away = 12
	st.CustomFields = append(st.CustomFields, models.CustomField{ID: "cf-3", Label: "Fouls", Home: 1, Away: 2, Visible: false})
	st.SingleStats = append(st.SingleStats, models.SingleStat{ID: "ss-1", Label: "Attendance", Value: -40, Visible: true})
	st.Timers[0].InitialMs = 2700000
	st.Timers[0].RemainingMs = 1234567
	st.Timers = append(st.Timers, models.Timer{
		ID:          "t-2",
		Label:       "Shot Clock",
		Mode:        models.TimerModeCountup,
		Running:     true,
		InitialMs:   0,
		RemainingMs: 5000,
		LastTickMs:  1725213600123,
		Visible:     false,
	})
	return st
}

func TestSaveLoadRoundTrip(t *testing.T) {
	repo := NewRepository(t.TempDir())
	want := sampleState()

	require.NoError(t, repo.Save(want))
	got, err := repo.Load()
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "resources")
	repo := NewRepository(dir)

	require.NoError(t, repo.Save(models.Defaults()))
	_, err := os.Stat(filepath.Join(dir, StateFileName))
	assert.NoError(t, err)
}

func TestSaveEncodesWireFormat(t *testing.T) {
	data, err := Encode(sampleState())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, float64(FormatVersion), doc["version"])
	assert.Equal(t, map[string]any{"port": float64(9090)}, doc["server"])

	timers := doc["timers"].([]any)
	require.Len(t, timers, 2)
	first := timers[0].(map[string]any)
	assert.Equal(t, "2700000", first["initial_ms"])
	assert.Equal(t, "1234567", first["remaining_ms"])
	assert.Equal(t, "0", first["last_tick_ms"])
	assert.Equal(t, "countdown", first["mode"])

	stats := doc["single_stats"].([]any)
	assert.Equal(t, float64(-40), stats[0].(map[string]any)["value"])
	assert.NotContains(t, doc, "timer")
}

func TestSaveDoesNotMutateCaller(t *testing.T) {
	st := &models.State{ServerPort: 8089}
	data, err := Encode(st)
	require.NoError(t, err)

	assert.Empty(t, st.CustomFields)
	assert.Empty(t, st.Timers)

	got, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, got.Timers, 1)
	assert.Equal(t, models.DefaultTimerLabel, got.Timers[0].Label)
	require.Len(t, got.CustomFields, 2)
	assert.Equal(t, "Points", got.CustomFields[0].Label)
	assert.Equal(t, "Score", got.CustomFields[1].Label)
}

func TestDecodeDefaults(t *testing.T) {
	st, err := Decode([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, models.DefaultServerPort, st.ServerPort)
	assert.False(t, st.SwapSides)
	assert.True(t, st.ShowScoreboard)
	assert.Len(t, st.CustomFields, 2)
	assert.Empty(t, st.SingleStats)
	require.Len(t, st.Timers, 1)
	assert.Equal(t, models.TimerModeCountdown, st.Timers[0].Mode)
	for _, cf := range st.CustomFields {
		assert.True(t, cf.Visible)
		assert.NotEmpty(t, cf.ID)
	}
}

func TestDecodeMissingOptionalFields(t *testing.T) {
	doc := `{
		"version": 2,
		"custom_fields": [{"label": "", "home": 4, "away": 1}],
		"single_stats": [{"label": "Corners", "value": 7}],
		"timers": [{"label": "Half", "mode": "sideways", "initial_ms": "1000", "remaining_ms": "1000"}]
	}`
	st, err := Decode([]byte(doc))
	require.NoError(t, err)

	require.Len(t, st.CustomFields, 2)
	assert.Equal(t, "Points", st.CustomFields[0].Label)
	assert.Equal(t, 4, st.CustomFields[0].Home)
	assert.True(t, st.CustomFields[0].Visible)
	assert.Equal(t, "Score", st.CustomFields[1].Label)

	assert.True(t, st.SingleStats[0].Visible)
	assert.Equal(t, models.TimerModeCountdown, st.Timers[0].Mode)
	assert.True(t, st.Timers[0].Visible)
}

func TestDecodeLegacyTimer(t *testing.T) {
	tests := map[string]string{
		"no timers key": `{"timer": {"label": "Match", "mode": "countup", "initial_ms": "0", "remaining_ms": "42000", "last_tick_ms": "0"}}`,
		"empty timers":  `{"timers": [], "timer": {"label": "Match", "mode": "countup", "initial_ms": "0", "remaining_ms": "42000", "last_tick_ms": "0"}}`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			st, err := Decode([]byte(doc))
			require.NoError(t, err)
			require.Len(t, st.Timers, 1)
			assert.Equal(t, "Match", st.Timers[0].Label)
			assert.Equal(t, models.TimerModeCountup, st.Timers[0].Mode)
			assert.Equal(t, int64(42000), st.Timers[0].RemainingMs)
		})
	}
}

func TestDecodeTimersWinOverLegacy(t *testing.T) {
	doc := `{"timers": [{"label": "New"}], "timer": {"label": "Old"}}`
	st, err := Decode([]byte(doc))
	require.NoError(t, err)
	require.Len(t, st.Timers, 1)
	assert.Equal(t, "New", st.Timers[0].Label)
}

func TestDecodeMillisecondEncodings(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want int64
	}{
		"string":          {raw: `"90000"`, want: 90000},
		"number":          {raw: `90000`, want: 90000},
		"float number":    {raw: `90000.0`, want: 90000},
		"garbage string":  {raw: `"soon"`, want: 0},
		"negative string": {raw: `"-1"`, want: -1},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			st, err := Decode([]byte(`{"timers": [{"label": "x", "remaining_ms": ` + tc.raw + `}]}`))
			require.NoError(t, err)
			if st.Timers[0].RemainingMs != tc.want {
				t.Errorf("remaining incorrect, wanted: %d, got: %d", tc.want, st.Timers[0].RemainingMs)
			}
		})
	}
}

func TestLoadNotFound(t *testing.T) {
	tests := map[string]*string{
		"missing file": nil,
		"not json":     ptr("this is not json"),
		"array root":   ptr(`[1, 2, 3]`),
		"string root":  ptr(`"plugin"`),
		"empty file":   ptr(""),
		"truncated":    ptr(`{"version": 3, "home": {`),
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if content != nil {
				require.NoError(t, os.WriteFile(filepath.Join(dir, StateFileName), []byte(*content), 0o644))
			}
			_, err := NewRepository(dir).Load()
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepository(dir)

	st, err := repo.LoadOrCreate()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultServerPort, st.ServerPort)

	again, err := repo.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(st, again, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("defaults not persisted (-want +got):\n%s", diff)
	}
}

func TestDecodeMistypedMembersFallBack(t *testing.T) {
	tests := map[string]struct {
		doc   string
		check func(t *testing.T, st *models.State)
	}{
		"port as string": {
			doc: `{"server": {"port": "9000"}, "home": {"title": "Lions"}}`,
			check: func(t *testing.T, st *models.State) {
				assert.Equal(t, models.DefaultServerPort, st.ServerPort)
				assert.Equal(t, "Lions", st.Home.Title)
			},
		},
		"team as number": {
			doc: `{"home": 3, "away": {"title": "Hawks"}}`,
			check: func(t *testing.T, st *models.State) {
				assert.Empty(t, st.Home.Title)
				assert.Equal(t, "Hawks", st.Away.Title)
			},
		},
		"fields as object": {
			doc: `{"custom_fields": {}, "single_stats": [{"label": "Corners", "value": 4}]}`,
			check: func(t *testing.T, st *models.State) {
				assert.Len(t, st.CustomFields, 2)
				require.Len(t, st.SingleStats, 1)
				assert.Equal(t, 4, st.SingleStats[0].Value)
			},
		},
		"integral float": {
			doc: `{"custom_fields": [{"label": "Points", "home": 2.0, "away": 1.5}]}`,
			check: func(t *testing.T, st *models.State) {
				assert.Equal(t, 2, st.CustomFields[0].Home)
				assert.Equal(t, 0, st.CustomFields[0].Away)
			},
		},
		"bool as string": {
			doc: `{"swap_sides": "yes", "show_scoreboard": false}`,
			check: func(t *testing.T, st *models.State) {
				assert.False(t, st.SwapSides)
				assert.False(t, st.ShowScoreboard)
			},
		},
		"non-object elements skipped": {
			doc: `{"single_stats": [7, null, {"label": "Shots", "value": 9}]}`,
			check: func(t *testing.T, st *models.State) {
				require.Len(t, st.SingleStats, 1)
				assert.Equal(t, "Shots", st.SingleStats[0].Label)
			},
		},
		"timers as string": {
			doc: `{"timers": "none", "timer": {"label": "Match"}}`,
			check: func(t *testing.T, st *models.State) {
				require.Len(t, st.Timers, 1)
				assert.Equal(t, "Match", st.Timers[0].Label)
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			st, err := Decode([]byte(tc.doc))
			require.NoError(t, err)
			tc.check(t, st)
		})
	}
}

func TestLoadOrCreateKeepsDriftedDocument(t *testing.T) {
	dir := t.TempDir()
	doc := `{
		"server": {"port": "9000"},
		"home": {"title": "Lions"},
		"custom_fields": [
			{"label": "Points", "home": 7, "away": 0},
			{"label": "Score", "home": 0, "away": 0},
			{"label": "Corners", "home": 1, "away": 2}
		]
	}`
	path := filepath.Join(dir, StateFileName)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	st, err := NewRepository(dir).LoadOrCreate()
	require.NoError(t, err)
	assert.Equal(t, "Lions", st.Home.Title)
	require.Len(t, st.CustomFields, 3)
	assert.Equal(t, 7, st.CustomFields[0].Home)
	assert.Equal(t, "Corners", st.CustomFields[2].Label)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, string(onDisk), "a readable document must not be replaced with defaults")
}

func TestResetDefaults(t *testing.T) {
	repo := NewRepository(t.TempDir())
	require.NoError(t, repo.Save(sampleState()))

	st, err := repo.ResetDefaults()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultServerPort, st.ServerPort)
	assert.Empty(t, st.SingleStats)

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.Home.Title)
	assert.Len(t, loaded.Timers, 1)
}

func TestEnsureDefaultCustomFieldsIdempotent(t *testing.T) {
	st := &models.State{CustomFields: []models.CustomField{{ID: "a", Label: "Goals"}}}
	st.EnsureDefaultCustomFields()
	once := st.Clone()
	st.EnsureDefaultCustomFields()

	if diff := cmp.Diff(once, st); diff != "" {
		t.Errorf("second call changed state (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Goals", st.CustomFields[0].Label)
	assert.Equal(t, "Score", st.CustomFields[1].Label)
}

func ptr(s string) *string { return &s }
