package host

import (
	"errors"
	"sync"
)

// ErrNoScene is returned by Memory when no scene is on program.
var ErrNoScene = errors.New("no current scene")

type memorySource struct {
	typeID string
	scene  string
	web    WebSource
}

// Memory is an in-process Host. It backs the standalone mode and tests.
type Memory struct {
	mu       sync.Mutex
	scene    string
	sources  map[string]memorySource
	subs     map[int]func(SourceEvent)
	nextSub  int
	scenes   int
	released int
}

var _ Host = (*Memory)(nil)

// NewMemory creates a host whose program scene is scene. An empty name means
// there is no current scene.
func NewMemory(scene string) *Memory {
	return &Memory{
		scene:   scene,
		sources: make(map[string]memorySource),
		subs:    make(map[int]func(SourceEvent)),
	}
}

type memoryScene struct {
	name string
	host *Memory
}

func (s memoryScene) Name() string { return s.name }

func (s memoryScene) Release() {
	s.host.mu.Lock()
	s.host.released++
	s.host.mu.Unlock()
}

// AddSource registers a source and notifies subscribers.
func (m *Memory) AddSource(name, typeID string) {
	m.mu.Lock()
	m.sources[name] = memorySource{typeID: typeID}
	subs := m.subscribers()
	m.mu.Unlock()
	emit(subs, SourceEvent{Kind: SourceCreated, Name: name, TypeID: typeID})
}

// RemoveSource deletes a source and notifies subscribers.
func (m *Memory) RemoveSource(name string) {
	m.mu.Lock()
	src, ok := m.sources[name]
	delete(m.sources, name)
	subs := m.subscribers()
	m.mu.Unlock()
	if ok {
		emit(subs, SourceEvent{Kind: SourceDestroyed, Name: name, TypeID: src.typeID})
	}
}

// WebSource returns the settings last applied to the named web source.
func (m *Memory) WebSource(name string) (WebSource, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[name]
	if !ok || src.typeID != WebSourceType {
		return WebSource{}, false
	}
	return src.web, true
}

// OpenScenes reports scene references handed out and not yet released.
func (m *Memory) OpenScenes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scenes - m.released
}

func (m *Memory) SourcesByType(typeID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name, src := range m.sources {
		if src.typeID == typeID {
			names = append(names, name)
		}
	}
	return names, nil
}

func (m *Memory) CurrentScene() (Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scene == "" {
		return nil, ErrNoScene
	}
	m.scenes++
	return memoryScene{name: m.scene, host: m}, nil
}

func (m *Memory) EnsureWebSource(scene Scene, src WebSource) (bool, error) {
	m.mu.Lock()
	existing, ok := m.sources[src.Name]
	created := !ok || existing.typeID != WebSourceType
	m.sources[src.Name] = memorySource{typeID: WebSourceType, scene: scene.Name(), web: src}
	subs := m.subscribers()
	m.mu.Unlock()

	if created {
		emit(subs, SourceEvent{Kind: SourceCreated, Name: src.Name, TypeID: WebSourceType})
	}
	return created, nil
}

func (m *Memory) SubscribeSources(fn func(SourceEvent)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}, nil
}

func (m *Memory) subscribers() []func(SourceEvent) {
	subs := make([]func(SourceEvent), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs
}

// emit delivers on a separate goroutine, the way a real compositor calls
// back from its own threads.
func emit(subs []func(SourceEvent), ev SourceEvent) {
	for _, fn := range subs {
		go fn(ev)
	}
}
