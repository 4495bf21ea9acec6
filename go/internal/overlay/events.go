package overlay

import (
	"github.com/flyscore/flyscore/go/internal/dock"
	"github.com/flyscore/flyscore/go/internal/models"
	"github.com/flyscore/flyscore/go/internal/scoreboard"
)

// EventType identifies a message pushed over /ws.
type EventType string

const (
	EventStateChanged EventType = "state_changed"
	EventDockUpdate   EventType = "dock_update"
	EventSources      EventType = "sources_changed"
)

// StateChanged tells overlay pages to re-read plugin.json. It carries no
// state; the file stays the only contract.
type StateChanged struct {
	Type      EventType   `json:"type"`
	Kind      models.Kind `json:"kind"`
	Index     int         `json:"index"`
	Timestamp int64       `json:"timestamp"`
}

func NewStateChanged(c scoreboard.Change) StateChanged {
	return StateChanged{
		Type:      EventStateChanged,
		Kind:      c.Kind,
		Index:     c.Index,
		Timestamp: c.Timestamp.UnixMilli(),
	}
}

// DockUpdate carries changed dock control values to browser docks.
type DockUpdate struct {
	Type    EventType     `json:"type"`
	Updates []dock.Update `json:"updates"`
}

func NewDockUpdate(updates []dock.Update) DockUpdate {
	return DockUpdate{Type: EventDockUpdate, Updates: updates}
}

// SourcesChanged carries the refreshed list of web sources.
type SourcesChanged struct {
	Type     EventType `json:"type"`
	Sources  []string  `json:"sources"`
	Selected string    `json:"selected"`
}

func NewSourcesChanged(sources []string, selected string) SourcesChanged {
	return SourcesChanged{Type: EventSources, Sources: sources, Selected: selected}
}
