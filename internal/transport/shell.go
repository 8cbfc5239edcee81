package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jask/menutree/internal/menu"
)

const maxLine = 1 << 20

// Shell mirrors snapshots to a native shell process and runs the actions it
// sends back. It speaks newline-delimited JSON over conn.
//
// Three goroutines own the connection: a reader decoding inbound messages, a
// writer draining a latest-wins snapshot mailbox, and a worker running
// handlers in arrival order.
type Shell struct {
	conn      io.ReadWriteCloser
	reg       *Registry
	log       *zap.Logger
	queueSize int

	mu     sync.Mutex
	latest menu.Snapshot
	have   bool
	dirty  bool
	notify chan struct{}

	actions chan menu.Action
	group   *errgroup.Group
	cancel  context.CancelFunc
	closed  atomic.Bool
	once    sync.Once
	err     error

	sent    atomic.Uint64
	queued  atomic.Uint64
	dropped atomic.Uint64
}

// ShellOption configures a Shell.
type ShellOption func(*Shell)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ShellOption {
	return func(s *Shell) {
		if l != nil {
			s.log = l
		}
	}
}

// WithQueueSize bounds the pending action queue.
func WithQueueSize(n int) ShellOption {
	return func(s *Shell) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// NewShell starts serving conn.
func NewShell(conn io.ReadWriteCloser, reg *Registry, opts ...ShellOption) *Shell {
	s := &Shell{
		conn:      conn,
		reg:       reg,
		log:       zap.NewNop(),
		queueSize: defaultQueueSize,
		notify:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("shell")
	s.actions = make(chan menu.Action, s.queueSize)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	s.group = g
	g.Go(func() error { return s.readLoop(gctx) })
	g.Go(func() error { return s.writeLoop(gctx) })
	g.Go(func() error { return s.workLoop(gctx) })
	return s
}

// DispatchAction queues a for the worker. A full queue drops the action.
func (s *Shell) DispatchAction(a menu.Action) {
	s.enqueue(a)
}

func (s *Shell) enqueue(a menu.Action) {
	if s.closed.Load() {
		s.log.Debug("shell closed; action ignored", zap.String("actionId", a.ID))
		return
	}
	select {
	case s.actions <- a:
		s.queued.Add(1)
	default:
		s.dropped.Add(1)
		s.log.Warn("action queue full; action dropped", zap.String("actionId", a.ID))
	}
}

// PublishSnapshot replaces the pending snapshot. Older versions than the one
// already held are ignored.
func (s *Shell) PublishSnapshot(snap menu.Snapshot) {
	s.mu.Lock()
	if s.have && snap.Version < s.latest.Version {
		s.mu.Unlock()
		return
	}
	s.latest, s.have, s.dirty = snap, true, true
	s.mu.Unlock()
	s.wake()
}

func (s *Shell) resend() {
	s.mu.Lock()
	s.dirty = s.have
	s.mu.Unlock()
	s.wake()
}

func (s *Shell) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Shell) take() (menu.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return menu.Snapshot{}, false
	}
	s.dirty = false
	return s.latest, true
}

func (s *Shell) lookup(path []string) (menu.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.have {
		return menu.Node{}, false
	}
	return s.latest.Find(path...)
}

func (s *Shell) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.notify:
		}
		snap, ok := s.take()
		if !ok {
			continue
		}
		line, err := encodeSnapshot(snap)
		if err != nil {
			s.log.Error("encode snapshot", zap.Uint64("version", snap.Version), zap.Error(err))
			continue
		}
		if _, err := s.conn.Write(line); err != nil {
			if ctx.Err() != nil || s.closed.Load() {
				return nil
			}
			return fmt.Errorf("write shell: %w", err)
		}
		s.sent.Add(1)
	}
}

func (s *Shell) readLoop(ctx context.Context) error {
	sc := bufio.NewScanner(s.conn)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var msg inbound
		if err := json.Unmarshal(line, &msg); err != nil {
			s.log.Warn("malformed shell message", zap.Error(err))
			continue
		}
		s.handle(msg)
	}
	err := sc.Err()
	if err == nil || ctx.Err() != nil || s.closed.Load() ||
		errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		s.log.Info("shell disconnected")
		return nil
	}
	return fmt.Errorf("read shell: %w", err)
}

func (s *Shell) handle(msg inbound) {
	switch msg.Type {
	case msgReady:
		s.resend()
	case msgInvoke:
		if len(msg.Path) > 0 {
			s.invokePath(msg.Path)
			return
		}
		if msg.ActionID == "" {
			s.log.Warn("invoke without path or actionId")
			return
		}
		a := menu.Action{ID: msg.ActionID}
		if len(msg.Payload) > 0 {
			var payload any
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				s.log.Warn("bad invoke payload", zap.String("actionId", msg.ActionID), zap.Error(err))
				return
			}
			a.Payload = payload
		}
		s.enqueue(a)
	default:
		s.log.Warn("unknown shell message", zap.String("type", msg.Type))
	}
}

func (s *Shell) invokePath(path []string) {
	n, ok := s.lookup(path)
	switch {
	case !ok:
		s.log.Warn("invoke for unknown node", zap.Strings("path", path))
	case n.Kind != menu.KindAction || n.Action == nil:
		s.log.Warn("invoke for non-action node", zap.Strings("path", path))
	case !n.Enabled:
		s.log.Debug("invoke for disabled node ignored", zap.Strings("path", path))
	default:
		s.enqueue(*n.Action)
	}
}

func (s *Shell) workLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case a := <-s.actions:
			run(ctx, s.reg, s.log, a)
		}
	}
}

// ShellStats holds shell transport counters.
type ShellStats struct {
	SnapshotsSent  uint64
	ActionsQueued  uint64
	ActionsDropped uint64
}

// Stats returns the current counters.
func (s *Shell) Stats() ShellStats {
	return ShellStats{
		SnapshotsSent:  s.sent.Load(),
		ActionsQueued:  s.queued.Load(),
		ActionsDropped: s.dropped.Load(),
	}
}

// Close stops the goroutines and closes the connection.
func (s *Shell) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		s.cancel()
		closeErr := s.conn.Close()
		s.err = s.group.Wait()
		if s.err == nil && closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			s.err = closeErr
		}
	})
	return s.err
}
