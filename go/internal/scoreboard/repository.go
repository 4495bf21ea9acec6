package scoreboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flyscore/flyscore/go/internal/models"
	"github.com/rs/zerolog/log"
)

// StateFileName is the document shared with the overlay.
const StateFileName = "plugin.json"

// ErrNotFound is returned by Load when there is no usable state document:
// the file is absent, unreadable, not JSON, or its root is not an object.
var ErrNotFound = errors.New("scoreboard state not found")

// Repository reads and writes plugin.json inside one resources directory.
type Repository struct {
	dir string
}

// NewRepository creates a repository rooted at dir.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the resources directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Path returns the absolute location of plugin.json.
func (r *Repository) Path() string {
	return filepath.Join(r.dir, StateFileName)
}

// Load decodes plugin.json. Missing optional fields take their defaults and
// the result always satisfies the schema invariants.
func (r *Repository) Load() (*models.State, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return Decode(data)
}

// Decode parses a state document. Only malformed JSON or a root that is not
// an object fails; members of the wrong type fall back to their defaults.
func Decode(data []byte) (*models.State, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: root is not an object", ErrNotFound)
	}

	doc, err := parseObject(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return decodeState(doc), nil
}

// Encode renders the version 3 document for st without modifying it.
func Encode(st *models.State) ([]byte, error) {
	return json.Marshal(encodeState(st))
}

// Save writes st as plugin.json, creating the directory when needed.
func (r *Repository) Save(st *models.State) error {
	data, err := Encode(st)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create resources directory: %w", err)
	}
	if err := os.WriteFile(r.Path(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", StateFileName, err)
	}
	return nil
}

// LoadOrCreate loads the state, writing defaults first when nothing usable is
// on disk.
func (r *Repository) LoadOrCreate() (*models.State, error) {
	st, err := r.Load()
	if err == nil {
		return st, nil
	}

	log.Info().Err(err).Str("path", r.Path()).Msg("no usable state, writing defaults")
	st = MakeDefaults()
	if err := r.Save(st); err != nil {
		return st, err
	}
	return st, nil
}

// ResetDefaults removes plugin.json and writes a fresh default document.
func (r *Repository) ResetDefaults() (*models.State, error) {
	if err := os.Remove(r.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", r.Path()).Msg("failed to remove state file")
	}
	st := MakeDefaults()
	if err := r.Save(st); err != nil {
		return st, err
	}
	return st, nil
}

// MakeDefaults returns the default state.
func MakeDefaults() *models.State {
	return models.Defaults()
}
