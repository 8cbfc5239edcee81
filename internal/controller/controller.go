// Package controller owns the live command tree. Every mutation recomputes a
// fresh snapshot from the template, the rule table, the dynamic sections, the
// activation tracker and the suspension counter, in that order.
package controller

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jask/menutree/internal/menu"
	"github.com/jask/menutree/internal/rules"
	"github.com/jask/menutree/internal/sections"
	"github.com/jask/menutree/internal/transport"
)

var (
	// ErrAlreadyInitialized is returned by a second Init.
	ErrAlreadyInitialized = errors.New("controller already initialized")
	// ErrClosed is returned by Init after Close.
	ErrClosed = errors.New("controller closed")
)

// PlatformFlags describe the host the tree is built for.
type PlatformFlags struct {
	// NativeShell selects the shell transport over the in-process bus.
	NativeShell bool
	// Platform filters platform-specific nodes. Empty means runtime.GOOS.
	Platform      string
	DeveloperHost bool
}

// Listener receives every published snapshot. It must not mutate it.
type Listener func(menu.Snapshot)

// TransportFactory builds the transport once the platform is known.
type TransportFactory func(PlatformFlags) (transport.Transport, error)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRules sets the rule table.
func WithRules(t *rules.Table) Option {
	return func(c *Controller) { c.rules = t }
}

// WithCatalog sets the initial template gallery catalog.
func WithCatalog(cat sections.Catalog) Option {
	return func(c *Controller) { c.catalog = cat }
}

// WithTransportFactory sets how Init obtains its transport.
func WithTransportFactory(f TransportFactory) Option {
	return func(c *Controller) { c.factory = f }
}

type subscription struct {
	id string
	fn Listener
}

// Controller is safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	log     *zap.Logger
	rules   *rules.Table
	catalog sections.Catalog
	factory TransportFactory
	tr      transport.Transport

	initialized bool
	closed      bool
	flags       PlatformFlags
	template    []menu.Node
	ctx         rules.Context
	counter     menu.Counter
	tracker     menu.Tracker
	recent      []sections.RecentFile
	series      string
	warnedKeys  map[string]bool
	snap        menu.Snapshot
	subs        []subscription
	stats       Stats

	pubMu      sync.Mutex
	publishing bool
	pending    *pendingDelivery
	delivered  uint64
}

// New returns an uninitialized controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		log:        zap.NewNop(),
		warnedKeys: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("menu")
	return c
}

// Init builds the tree from template and starts the transport.
func (c *Controller) Init(template []menu.Node, flags PlatformFlags) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.initialized {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	if flags.Platform == "" {
		flags.Platform = runtime.GOOS
	}
	tree := menu.ForPlatform(template, flags.Platform)
	if err := menu.Validate(tree); err != nil {
		c.mu.Unlock()
		c.log.Error("invalid menu template", zap.String("platform", flags.Platform), zap.Error(err))
		return fmt.Errorf("invalid menu template: %w", err)
	}
	if c.factory != nil {
		tr, err := c.factory(flags)
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("transport: %w", err)
		}
		c.tr = tr
	}
	c.flags = flags
	c.template = tree
	c.ctx.IsDeveloperHost = flags.DeveloperHost
	c.tracker.Reset(tree)
	c.initialized = true
	c.log.Info("menu initialized",
		zap.String("platform", flags.Platform),
		zap.Bool("nativeShell", flags.NativeShell),
		zap.Int("topLevel", len(tree)))
	c.commitLocked()
	return nil
}

// mutate runs fn under the lock and publishes the result. fn returns false
// when nothing changed.
func (c *Controller) mutate(op string, fn func() bool) {
	c.mu.Lock()
	if !c.initialized || c.closed {
		c.mu.Unlock()
		c.log.Warn("menu not ready; call ignored", zap.String("op", op))
		return
	}
	if !fn() {
		c.mu.Unlock()
		return
	}
	c.commitLocked()
}

// commitLocked recomputes, releases the lock and publishes.
func (c *Controller) commitLocked() {
	snap := c.recomputeLocked()
	subs := slices.Clone(c.subs)
	tr := c.tr
	c.mu.Unlock()
	c.publish(snap, subs, tr)
}

// OnContextChanged merges p over the current context.
func (c *Controller) OnContextChanged(p rules.Patch) {
	c.mutate("context", func() bool {
		if p.Empty() {
			return false
		}
		c.ctx = c.ctx.Apply(p)
		return true
	})
}

// Suspend disables every action until the matching Resume.
func (c *Controller) Suspend() {
	c.mutate("suspend", func() bool {
		c.counter.Suspend()
		return true
	})
}

// Resume undoes one Suspend. An unmatched Resume is logged and ignored.
func (c *Controller) Resume() {
	c.mutate("resume", func() bool {
		if _, err := c.counter.Resume(); err != nil {
			c.log.Warn("unbalanced resume", zap.Error(err))
			return false
		}
		return true
	})
}

// Activate makes id the only active top-level node, or toggles it off.
func (c *Controller) Activate(id string) {
	c.mutate("activate", func() bool {
		if err := c.tracker.Activate(id); err != nil {
			c.log.Warn("activate ignored", zap.String("id", id), zap.Error(err))
			return false
		}
		return true
	})
}

// DeactivateAll clears the active top-level node.
func (c *Controller) DeactivateAll() {
	c.mutate("deactivate", func() bool {
		if c.tracker.Active() == "" {
			return false
		}
		c.tracker.DeactivateAll()
		return true
	})
}

// UpdateRecentFiles replaces the recent-files feed, oldest first.
func (c *Controller) UpdateRecentFiles(items []sections.RecentFile) {
	c.mutate("recent", func() bool {
		c.recent = slices.Clone(items)
		return true
	})
}

// UpdateTemplateGallery selects the gallery series.
func (c *Controller) UpdateTemplateGallery(seriesKey string) {
	c.mutate("gallery", func() bool {
		c.series = seriesKey
		c.noteFallbackLocked()
		return true
	})
}

// SetCatalog replaces the gallery catalog.
func (c *Controller) SetCatalog(cat sections.Catalog) {
	c.mutate("catalog", func() bool {
		c.catalog = cat
		clear(c.warnedKeys)
		c.noteFallbackLocked()
		return true
	})
}

func (c *Controller) noteFallbackLocked() {
	resolved, _, fellBack := c.catalog.Resolve(c.series)
	if !fellBack || c.series == "" || c.warnedKeys[c.series] {
		return
	}
	c.warnedKeys[c.series] = true
	fields := []zap.Field{zap.String("series", c.series), zap.String("using", resolved)}
	if near, ok := c.catalog.Nearest(c.series); ok {
		fields = append(fields, zap.String("didYouMean", near))
	}
	c.log.Warn("unknown template series; using default", fields...)
}

// Dispatch hands a to the transport. Actions whose nodes are all disabled
// are dropped.
func (c *Controller) Dispatch(a menu.Action) {
	c.mu.Lock()
	if !c.initialized || c.closed || c.tr == nil {
		c.mu.Unlock()
		c.log.Warn("no transport; action ignored", zap.String("actionId", a.ID))
		return
	}
	if known, enabled := c.snap.ActionState(a.ID); known && !enabled {
		c.stats.DroppedDispatches++
		c.mu.Unlock()
		c.log.Debug("action disabled; dispatch dropped", zap.String("actionId", a.ID))
		return
	}
	c.stats.Dispatches++
	tr := c.tr
	c.mu.Unlock()
	tr.DispatchAction(a)
}

// Snapshot returns a copy of the current snapshot.
func (c *Controller) Snapshot() menu.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneSnapshot(c.snap)
}

// Context returns the current rule context.
func (c *Controller) Context() rules.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// Subscribe registers l for future snapshots. The returned func removes it.
func (c *Controller) Subscribe(l Listener) (unsubscribe func()) {
	id := uuid.NewString()
	c.mu.Lock()
	c.subs = append(c.subs, subscription{id: id, fn: l})
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.subs = slices.DeleteFunc(c.subs, func(s subscription) bool { return s.id == id })
	}
}

// Close releases the transport and drops every listener.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.subs = nil
	tr := c.tr
	c.tr = nil
	c.mu.Unlock()
	if tr == nil {
		return nil
	}
	if err := tr.Close(); err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	return nil
}

func cloneSnapshot(s menu.Snapshot) menu.Snapshot {
	s.Nodes = menu.Clone(s.Nodes)
	return s
}
