package hotkeys

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/flyscore/flyscore/go/internal/models"
	"github.com/rs/zerolog/log"
)

// FileName is stored next to plugin.json.
const FileName = "hotkeys.json"

const fileVersion = 1

type storeDoc struct {
	Version  int       `json:"version"`
	Bindings []Binding `json:"bindings"`
}

// Store persists the user's key assignments of one resources directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Load returns the stored bindings. A missing file is not an error.
func (s *Store) Load() ([]Binding, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	var doc storeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", FileName, err)
	}
	return doc.Bindings, nil
}

// Save writes the bindings that carry a key sequence.
func (s *Store) Save(bindings []Binding) error {
	doc := storeDoc{Version: fileVersion, Bindings: []Binding{}}
	for _, b := range bindings {
		if b.Sequence != "" {
			doc.Bindings = append(doc.Bindings, b)
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", FileName, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create resources directory: %w", err)
	}
	if err := os.WriteFile(s.Path(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return nil
}

// Registry keeps the merged bindings of the live state in sync with the
// stored user assignments and the dispatcher.
type Registry struct {
	mu       sync.RWMutex
	store    *Store
	dispatch *Dispatcher
	user     []Binding
	merged   []Binding
}

// NewRegistry loads the user bindings of store. A corrupt file is logged and
// treated as empty.
func NewRegistry(store *Store, dispatch *Dispatcher) *Registry {
	r := &Registry{store: store, dispatch: dispatch}
	r.load()
	return r
}

func (r *Registry) load() {
	user, err := r.store.Load()
	if err != nil {
		log.Warn().Err(err).Str("path", r.store.Path()).Msg("ignoring hotkey bindings")
	}
	r.user = user
}

// SwitchStore points the registry at another resources directory.
func (r *Registry) SwitchStore(store *Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store = store
	r.load()
}

// Refresh rebuilds the defaults for st and merges the user bindings into
// them. Call it whenever fields, stats or timers are added, removed or
// renamed. Refresh and Assign must run on the same goroutine.
func (r *Registry) Refresh(st *models.State) []Binding {
	merged := Merge(BuildDefaults(st), r.userBindings())

	r.mu.Lock()
	r.merged = merged
	r.mu.Unlock()

	if r.dispatch != nil {
		r.dispatch.Rebind(merged)
	}
	return merged
}

// Bindings returns a copy of the merged bindings.
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Binding(nil), r.merged...)
}

// Assign sets the key sequence of actionID and persists the user
// assignments. An empty sequence clears the binding.
func (r *Registry) Assign(actionID, sequence string) error {
	if _, err := ParseAction(actionID); err != nil {
		return err
	}
	sequence = NormalizeSequence(sequence)

	r.mu.Lock()
	idx := -1
	for i, b := range r.merged {
		if b.ActionID == actionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q is not available", ErrMalformedAction, actionID)
	}
	r.merged[idx].Sequence = sequence
	r.user = append([]Binding(nil), r.merged...)
	merged := append([]Binding(nil), r.merged...)
	store := r.store
	r.mu.Unlock()

	if r.dispatch != nil {
		r.dispatch.Rebind(merged)
	}
	if err := store.Save(merged); err != nil {
		return err
	}
	log.Info().Str("action", actionID).Str("sequence", sequence).Msg("hotkey assigned")
	return nil
}

func (r *Registry) userBindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.user
}
