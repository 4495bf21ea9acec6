package hotkeys

import (
	"slices"
	"strings"
	"sync"
)

var modifierOrder = []string{"ctrl", "alt", "shift", "meta"}

var modifierAliases = map[string]string{
	"control": "ctrl",
	"option":  "alt",
	"cmd":     "meta",
	"command": "meta",
	"super":   "meta",
	"win":     "meta",
}

// NormalizeSequence returns the canonical form of a key sequence such as
// "Shift+Ctrl+F1" -> "ctrl+shift+f1". An empty or modifier-only sequence
// normalizes to "".
func NormalizeSequence(seq string) string {
	var mods []string
	key := ""
	for _, part := range strings.Split(seq, "+") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p == "" {
			continue
		}
		if alias, ok := modifierAliases[p]; ok {
			p = alias
		}
		if slices.Contains(modifierOrder, p) {
			if !slices.Contains(mods, p) {
				mods = append(mods, p)
			}
			continue
		}
		key = p
	}
	if key == "" {
		return ""
	}
	slices.SortFunc(mods, func(a, b string) int {
		return slices.Index(modifierOrder, a) - slices.Index(modifierOrder, b)
	})
	return strings.Join(append(mods, key), "+")
}

// Dispatcher turns key events into actions. A held key fires once; it fires
// again only after KeyUp.
type Dispatcher struct {
	mu    sync.Mutex
	table map[string][]string
	held  map[string]bool
	fire  func(actionID string)
}

// NewDispatcher creates a dispatcher that calls fire for every triggered
// action id. fire runs on the caller's goroutine and should hand off to the
// controller loop.
func NewDispatcher(fire func(actionID string)) *Dispatcher {
	return &Dispatcher{
		table: make(map[string][]string),
		held:  make(map[string]bool),
		fire:  fire,
	}
}

// Rebind replaces the key table.
func (d *Dispatcher) Rebind(bindings []Binding) {
	table := make(map[string][]string)
	for _, b := range bindings {
		seq := NormalizeSequence(b.Sequence)
		if seq == "" {
			continue
		}
		table[seq] = append(table[seq], b.ActionID)
	}

	d.mu.Lock()
	d.table = table
	d.mu.Unlock()
}

// KeyDown reports whether seq triggered any action.
func (d *Dispatcher) KeyDown(seq string) bool {
	seq = NormalizeSequence(seq)
	if seq == "" {
		return false
	}

	d.mu.Lock()
	if d.held[seq] {
		d.mu.Unlock()
		return false
	}
	actions := d.table[seq]
	if len(actions) > 0 {
		d.held[seq] = true
	}
	d.mu.Unlock()

	for _, id := range actions {
		d.fire(id)
	}
	return len(actions) > 0
}

// KeyUp re-arms seq.
func (d *Dispatcher) KeyUp(seq string) {
	seq = NormalizeSequence(seq)
	d.mu.Lock()
	delete(d.held, seq)
	d.mu.Unlock()
}
