package scoreboard

import (
	"errors"
	"time"

	"github.com/flyscore/flyscore/go/internal/models"
)

var (
	// ErrReservedField is returned when removing one of the reserved custom fields.
	ErrReservedField = errors.New("custom field is reserved")
	// ErrIndexOutOfRange is returned when an index addresses no entity.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidDuration is returned for duration text that is not mm:ss.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrSaveFailed wraps write-through failures. The mutation stays applied
	// in memory and the next save retries.
	ErrSaveFailed = errors.New("failed to save state")
	// ErrInvalidKind is returned for a kind that has no visibility flag.
	ErrInvalidKind = errors.New("invalid kind")
)

// Change describes one committed mutation. Index is -1 when the change is not
// about a single entity. Structural is set when entities were added, removed
// or replaced wholesale, which invalidates positional hotkey bindings.
type Change struct {
	Kind       models.Kind
	Index      int
	Structural bool
	State      *models.State
	Timestamp  time.Time
}

// Listener receives changes on the goroutine that performed the mutation.
type Listener func(Change)

// LogoStager stages team logo files into the overlay directory.
type LogoStager interface {
	Stage(srcPath, base string) (string, error)
	Delete(relPath string) error
	CleanPrefix(base string) error
}
