package scoreboard

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/flyscore/flyscore/go/internal/models"
)

// FormatVersion is written to every plugin.json.
const FormatVersion = 3

// msString is an int64 encoded as a decimal string so the overlay's JS does
// not lose precision. Decoding also accepts plain numbers; anything
// unparseable decodes to 0.
type msString int64

func (m msString) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(m), 10))
}

func (m *msString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			v = 0
		}
		*m = msString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*m = 0
		return nil
	}
	if v, err := n.Int64(); err == nil {
		*m = msString(v)
		return nil
	}
	if f, err := n.Float64(); err == nil {
		*m = msString(int64(f))
		return nil
	}
	*m = 0
	return nil
}

type serverDoc struct {
	Port *int `json:"port,omitempty"`
}

type teamDoc struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Logo     string `json:"logo"`
}

type customFieldDoc struct {
	ID      string `json:"id,omitempty"`
	Label   string `json:"label"`
	Home    int    `json:"home"`
	Away    int    `json:"away"`
	Visible *bool  `json:"visible,omitempty"`
}

type singleStatDoc struct {
	ID      string `json:"id,omitempty"`
	Label   string `json:"label"`
	Value   int    `json:"value"`
	Visible *bool  `json:"visible,omitempty"`
}

type timerDoc struct {
	ID          string   `json:"id,omitempty"`
	Label       string   `json:"label"`
	Mode        string   `json:"mode"`
	Running     bool     `json:"running"`
	InitialMs   msString `json:"initial_ms"`
	RemainingMs msString `json:"remaining_ms"`
	LastTickMs  msString `json:"last_tick_ms"`
	Visible     *bool    `json:"visible,omitempty"`
}

type stateDoc struct {
	Version        int              `json:"version"`
	Server         *serverDoc       `json:"server,omitempty"`
	Home           *teamDoc         `json:"home,omitempty"`
	Away           *teamDoc         `json:"away,omitempty"`
	SwapSides      *bool            `json:"swap_sides,omitempty"`
	ShowScoreboard *bool            `json:"show_scoreboard,omitempty"`
	CustomFields   []customFieldDoc `json:"custom_fields"`
	SingleStats    []singleStatDoc  `json:"single_stats"`
	Timers         []timerDoc       `json:"timers"`
}

// object is a JSON object decoded one member at a time. A member that is
// absent or has the wrong type reads as the caller's default, so drift in
// one field never costs the rest of the document.
type object map[string]json.RawMessage

func parseObject(data []byte) (object, error) {
	var o object
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	return o, nil
}

func (o object) value(key string) any {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// child returns the nested object at key, or nil.
func (o object) child(key string) object {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	nested, err := parseObject(raw)
	if err != nil {
		return nil
	}
	return nested
}

// children returns the object elements of the array at key. Elements that
// are not objects are skipped.
func (o object) children(key string) []object {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]object, 0, len(items))
	for _, item := range items {
		if el, err := parseObject(item); err == nil && el != nil {
			out = append(out, el)
		}
	}
	return out
}

// intOr accepts integral numbers only; 2.0 reads as 2, 2.5 and "2" as def.
func (o object) intOr(key string, def int) int {
	f, ok := o.value(key).(float64)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return def
	}
	return int(f)
}

func (o object) boolOr(key string, def bool) bool {
	b, ok := o.value(key).(bool)
	if !ok {
		return def
	}
	return b
}

func (o object) text(key string) string {
	s, _ := o.value(key).(string)
	return s
}

func (o object) ms(key string) int64 {
	raw, ok := o[key]
	if !ok {
		return 0
	}
	var m msString
	if err := json.Unmarshal(raw, &m); err != nil {
		return 0
	}
	return int64(m)
}

func boolPtr(b bool) *bool { return &b }

func encodeTimer(t models.Timer) timerDoc {
	return timerDoc{
		ID:          t.ID,
		Label:       t.Label,
		Mode:        string(t.Mode),
		Running:     t.Running,
		InitialMs:   msString(t.InitialMs),
		RemainingMs: msString(t.RemainingMs),
		LastTickMs:  msString(t.LastTickMs),
		Visible:     boolPtr(t.Visible),
	}
}

func decodeTimer(o object) models.Timer {
	mode := models.TimerMode(o.text("mode"))
	if !mode.Valid() {
		mode = models.TimerModeCountdown
	}
	return models.Timer{
		ID:          o.text("id"),
		Label:       o.text("label"),
		Mode:        mode,
		Running:     o.boolOr("running", false),
		InitialMs:   o.ms("initial_ms"),
		RemainingMs: o.ms("remaining_ms"),
		LastTickMs:  o.ms("last_tick_ms"),
		Visible:     o.boolOr("visible", true),
	}
}

// encodeState converts the schema into the wire document. It works on a copy:
// the reserved custom fields and the default timer are guaranteed in the
// output without touching the caller's state.
func encodeState(in *models.State) stateDoc {
	st := in.Clone()
	st.EnsureDefaultCustomFields()
	st.EnsureTimer()

	port := st.ServerPort
	doc := stateDoc{
		Version:        FormatVersion,
		Server:         &serverDoc{Port: &port},
		Home:           &teamDoc{Title: st.Home.Title, Subtitle: st.Home.Subtitle, Logo: st.Home.Logo},
		Away:           &teamDoc{Title: st.Away.Title, Subtitle: st.Away.Subtitle, Logo: st.Away.Logo},
		SwapSides:      boolPtr(st.SwapSides),
		ShowScoreboard: boolPtr(st.ShowScoreboard),
		CustomFields:   make([]customFieldDoc, 0, len(st.CustomFields)),
		SingleStats:    make([]singleStatDoc, 0, len(st.SingleStats)),
		Timers:         make([]timerDoc, 0, len(st.Timers)),
	}

	for _, cf := range st.CustomFields {
		doc.CustomFields = append(doc.CustomFields, customFieldDoc{
			ID:      cf.ID,
			Label:   cf.Label,
			Home:    cf.Home,
			Away:    cf.Away,
			Visible: boolPtr(cf.Visible),
		})
	}
	for _, ss := range st.SingleStats {
		doc.SingleStats = append(doc.SingleStats, singleStatDoc{
			ID:      ss.ID,
			Label:   ss.Label,
			Value:   ss.Value,
			Visible: boolPtr(ss.Visible),
		})
	}
	for _, t := range st.Timers {
		doc.Timers = append(doc.Timers, encodeTimer(t))
	}
	return doc
}

// decodeState converts a wire document into the schema, filling documented
// defaults and migrating the legacy singular timer.
func decodeState(doc object) *models.State {
	st := &models.State{
		ServerPort:     doc.child("server").intOr("port", models.DefaultServerPort),
		Home:           decodeTeam(doc.child("home")),
		Away:           decodeTeam(doc.child("away")),
		SwapSides:      doc.boolOr("swap_sides", false),
		ShowScoreboard: doc.boolOr("show_scoreboard", true),
	}

	fields := doc.children("custom_fields")
	st.CustomFields = make([]models.CustomField, 0, len(fields))
	for _, cf := range fields {
		st.CustomFields = append(st.CustomFields, models.CustomField{
			ID:      cf.text("id"),
			Label:   cf.text("label"),
			Home:    cf.intOr("home", 0),
			Away:    cf.intOr("away", 0),
			Visible: cf.boolOr("visible", true),
		})
	}

	stats := doc.children("single_stats")
	st.SingleStats = make([]models.SingleStat, 0, len(stats))
	for _, ss := range stats {
		st.SingleStats = append(st.SingleStats, models.SingleStat{
			ID:      ss.text("id"),
			Label:   ss.text("label"),
			Value:   ss.intOr("value", 0),
			Visible: ss.boolOr("visible", true),
		})
	}

	timers := doc.children("timers")
	st.Timers = make([]models.Timer, 0, len(timers))
	for _, t := range timers {
		st.Timers = append(st.Timers, decodeTimer(t))
	}
	if len(st.Timers) == 0 {
		if legacy := doc.child("timer"); legacy != nil {
			st.Timers = append(st.Timers, decodeTimer(legacy))
		}
	}

	st.Normalize()
	return st
}

func decodeTeam(o object) models.Team {
	return models.Team{
		Title:    o.text("title"),
		Subtitle: o.text("subtitle"),
		Logo:     o.text("logo"),
	}
}
