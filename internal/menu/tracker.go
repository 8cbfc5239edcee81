package menu

import (
	"errors"
	"fmt"
)

// ErrUnknownTopLevel indicates an activation for an id that is not an
// activatable top-level node.
var ErrUnknownTopLevel = errors.New("unknown top-level node")

// Tracker keeps at most one top-level node active.
type Tracker struct {
	known  map[string]bool
	active string
}

// Reset records the activatable ids of a top-level list. An active id that
// no longer exists is cleared.
func (t *Tracker) Reset(topLevel []Node) {
	t.known = make(map[string]bool, len(topLevel))
	for _, n := range topLevel {
		if n.Kind == KindSeparator {
			continue
		}
		t.known[n.ID] = true
	}
	if !t.known[t.active] {
		t.active = ""
	}
}

// Activate makes id the only active node. Activating the active node again
// toggles it off.
func (t *Tracker) Activate(id string) error {
	if !t.known[id] {
		return fmt.Errorf("%w: %q", ErrUnknownTopLevel, id)
	}
	if t.active == id {
		t.active = ""
		return nil
	}
	t.active = id
	return nil
}

// DeactivateAll clears the active node.
func (t *Tracker) DeactivateAll() { t.active = "" }

// Active returns the active id, or "".
func (t *Tracker) Active() string { return t.active }

// Apply writes the active flags onto a top-level list.
func (t *Tracker) Apply(topLevel []Node) {
	for i := range topLevel {
		topLevel[i].Active = topLevel[i].ID == t.active && t.active != ""
	}
}
