// Package statestore serializes application events into the command tree.
// One goroutine drains an ordered queue and applies each update in arrival
// order, so the tree never sees two writers.
package statestore

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jask/menutree/internal/rules"
	"github.com/jask/menutree/internal/sections"
)

// ErrStopped is returned by Submit once Run has returned.
var ErrStopped = errors.New("state store stopped")

// Target receives updates. *controller.Controller implements it.
type Target interface {
	OnContextChanged(rules.Patch)
	Suspend()
	Resume()
	Activate(id string)
	DeactivateAll()
	UpdateRecentFiles(items []sections.RecentFile)
	UpdateTemplateGallery(seriesKey string)
	SetCatalog(c sections.Catalog)
}

// Update is one queued change.
type Update struct {
	Name  string
	apply func(Target)
	done  chan struct{}
}

func patch(name string, p rules.Patch) Update {
	return Update{Name: name, apply: func(t Target) { t.OnContextChanged(p) }}
}

func RouteChanged(route string) Update {
	return patch("route", rules.Patch{Route: &route})
}

func SelectionChanged(count int) Update {
	return patch("selection", rules.Patch{SelectionCount: &count})
}

func ClipboardChanged(count int) Update {
	return patch("clipboard", rules.Patch{ClipboardCount: &count})
}

func HistoryChanged(canUndo, canRedo bool) Update {
	return patch("history", rules.Patch{CanUndo: &canUndo, CanRedo: &canRedo})
}

func ConnectivityChanged(connected bool) Update {
	return patch("connectivity", rules.Patch{MachineConnected: &connected})
}

func ArtifactChanged(has bool) Update {
	return patch("artifact", rules.Patch{HasOutputArtifact: &has})
}

// ContextChanged carries an arbitrary patch.
func ContextChanged(p rules.Patch) Update {
	return patch("context", p)
}

func RecentFilesChanged(items []sections.RecentFile) Update {
	return Update{Name: "recent", apply: func(t Target) { t.UpdateRecentFiles(items) }}
}

func SeriesChanged(key string) Update {
	return Update{Name: "series", apply: func(t Target) { t.UpdateTemplateGallery(key) }}
}

// CatalogChanged installs a reloaded template gallery catalog.
func CatalogChanged(c sections.Catalog) Update {
	return Update{Name: "catalog", apply: func(t Target) { t.SetCatalog(c) }}
}

func Suspend() Update {
	return Update{Name: "suspend", apply: func(t Target) { t.Suspend() }}
}

func Resume() Update {
	return Update{Name: "resume", apply: func(t Target) { t.Resume() }}
}

func Activate(id string) Update {
	return Update{Name: "activate", apply: func(t Target) { t.Activate(id) }}
}

func DeactivateAll() Update {
	return Update{Name: "deactivate", apply: func(t Target) { t.DeactivateAll() }}
}

// Store owns the queue.
type Store struct {
	target  Target
	log     *zap.Logger
	queue   chan Update
	stopped chan struct{}
}

// New returns a store with room for size pending updates.
func New(target Target, log *zap.Logger, size int) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if size <= 0 {
		size = 64
	}
	return &Store{
		target:  target,
		log:     log.Named("state"),
		queue:   make(chan Update, size),
		stopped: make(chan struct{}),
	}
}

// Run applies updates until ctx is done. It must be called exactly once.
func (s *Store) Run(ctx context.Context) error {
	defer close(s.stopped)
	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-s.queue:
			s.apply(u)
		}
	}
}

func (s *Store) apply(u Update) {
	if u.done != nil {
		defer close(u.done)
	}
	if u.apply == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("state update panicked", zap.String("update", u.Name), zap.Any("panic", p))
		}
	}()
	s.log.Debug("apply", zap.String("update", u.Name))
	u.apply(s.target)
}

// Submit queues u, blocking while the queue is full.
func (s *Store) Submit(ctx context.Context, u Update) error {
	select {
	case <-s.stopped:
		return ErrStopped
	default:
	}
	select {
	case s.queue <- u:
		return nil
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sync waits until every update submitted before it has been applied.
func (s *Store) Sync(ctx context.Context) error {
	done := make(chan struct{})
	if err := s.Submit(ctx, Update{Name: "sync", done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
