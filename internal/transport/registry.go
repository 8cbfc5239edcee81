// Package transport delivers actions to their handlers and mirrors command
// tree snapshots to the host, either through a native shell process or an
// in-process bus.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/jask/menutree/internal/menu"
)

var (
	// ErrEmptyActionID indicates a registration without an action id.
	ErrEmptyActionID = errors.New("action id is required")
	// ErrDuplicateHandler indicates a second handler for an action id.
	ErrDuplicateHandler = errors.New("handler already registered")
	// ErrUnknownAction indicates an action id with no handler.
	ErrUnknownAction = errors.New("unknown action")
	// ErrHandlerPanic indicates a handler panicked.
	ErrHandlerPanic = errors.New("action handler panicked")
)

// Handler runs one action. The payload is whatever the dispatching node
// carried, or the decoded JSON sent by the shell.
type Handler func(ctx context.Context, payload any) error

// Registry maps action ids to handlers. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds h to id.
func (r *Registry) Register(id string, h Handler) error {
	id = strings.TrimSpace(id)
	if id == "" || h == nil {
		return ErrEmptyActionID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateHandler, id)
	}
	r.handlers[id] = h
	return nil
}

// MustRegister is Register for static wiring.
func (r *Registry) MustRegister(id string, h Handler) {
	if err := r.Register(id, h); err != nil {
		panic(err)
	}
}

// Lookup returns the handler for id.
func (r *Registry) Lookup(id string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[id]
	return h, ok
}

// IDs returns the registered action ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Suggest returns the registered id closest to id, when one is close enough
// to be a plausible typo.
func (r *Registry) Suggest(id string) (string, bool) {
	best, bestDist := "", -1
	for _, candidate := range r.IDs() {
		d := levenshtein.ComputeDistance(id, candidate)
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if bestDist < 0 || bestDist > max(2, len(id)/3) {
		return "", false
	}
	return best, true
}

// Invoke runs the handler for a. A panicking handler is recovered and
// reported as ErrHandlerPanic.
func (r *Registry) Invoke(ctx context.Context, a menu.Action) (err error) {
	h, ok := r.Lookup(a.ID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.ID)
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, p)
		}
	}()
	return h(ctx, a.Payload)
}
