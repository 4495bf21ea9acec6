// Package host abstracts the media compositor the overlay runs in. The
// compositor is optional: every capability may report ErrUnavailable and
// callers log and carry on.
package host

import (
	"errors"
)

// ErrUnavailable is returned when the host integration is not present.
var ErrUnavailable = errors.New("host integration unavailable")

// WebSourceType is the type id of web-rendering sources.
const WebSourceType = "browser_source"

// EventKind is the kind of a source notification.
type EventKind int

const (
	SourceCreated EventKind = iota
	SourceDestroyed
)

func (k EventKind) String() string {
	if k == SourceDestroyed {
		return "destroyed"
	}
	return "created"
}

// SourceEvent is delivered on a host-owned goroutine.
type SourceEvent struct {
	Kind   EventKind
	Name   string
	TypeID string
}

// Scene is a reference to a host scene. Release must be called once the
// caller is done with it.
type Scene interface {
	Name() string
	Release()
}

// WebSource describes a web-rendering source. Exactly one of URL and
// LocalFile is set.
type WebSource struct {
	Name      string
	URL       string
	LocalFile string
	Width     int
	Height    int
}

// Host is the set of compositor capabilities the controller uses.
type Host interface {
	// SourcesByType lists the names of every source of typeID.
	SourcesByType(typeID string) ([]string, error)
	// CurrentScene returns the scene currently on program.
	CurrentScene() (Scene, error)
	// EnsureWebSource updates the source named src.Name in scene, creating
	// it when missing. It reports whether a new source was created.
	EnsureWebSource(scene Scene, src WebSource) (bool, error)
	// SubscribeSources registers fn for source create/destroy notifications.
	SubscribeSources(fn func(SourceEvent)) (func(), error)
}

// Nop is the host used when no compositor integration is compiled in.
type Nop struct{}

var _ Host = Nop{}

func (Nop) SourcesByType(string) ([]string, error) { return nil, ErrUnavailable }

func (Nop) CurrentScene() (Scene, error) { return nil, ErrUnavailable }

func (Nop) EnsureWebSource(Scene, WebSource) (bool, error) { return false, ErrUnavailable }

func (Nop) SubscribeSources(func(SourceEvent)) (func(), error) { return nil, ErrUnavailable }
