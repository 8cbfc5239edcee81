package transport

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jask/menutree/internal/bus"
	"github.com/jask/menutree/internal/menu"
)

// Transport carries actions to handlers and snapshots to the host. Both
// calls return immediately; handlers never run on the caller's stack.
type Transport interface {
	DispatchAction(a menu.Action)
	PublishSnapshot(s menu.Snapshot)
	Close() error
}

// Config selects and tunes a transport.
type Config struct {
	NativeShell bool
	ShellPath   string
	ShellArgs   []string
	QueueSize   int
}

const defaultQueueSize = 64

func (c Config) queueSize() int {
	if c.QueueSize <= 0 {
		return defaultQueueSize
	}
	return c.QueueSize
}

// Select builds the transport for cfg: a Shell talking to a freshly started
// shell process, or a BusTransport on b.
func Select(ctx context.Context, cfg Config, reg *Registry, b *bus.Bus, log *zap.Logger) (Transport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.NativeShell {
		if b == nil {
			return nil, errors.New("bus transport needs a bus")
		}
		log.Info("transport selected", zap.String("kind", "bus"))
		return NewBusTransport(b, reg, log), nil
	}
	proc, err := StartShellProcess(ctx, log, cfg.ShellPath, cfg.ShellArgs...)
	if err != nil {
		return nil, fmt.Errorf("start shell: %w", err)
	}
	log.Info("transport selected", zap.String("kind", "shell"), zap.String("path", cfg.ShellPath))
	return NewShell(proc, reg, WithLogger(log), WithQueueSize(cfg.queueSize())), nil
}

// run invokes a and logs the outcome. Errors never propagate further.
func run(ctx context.Context, reg *Registry, log *zap.Logger, a menu.Action) {
	err := reg.Invoke(ctx, a)
	switch {
	case err == nil:
		log.Debug("action handled", zap.String("actionId", a.ID))
	case errors.Is(err, ErrUnknownAction):
		fields := []zap.Field{zap.String("actionId", a.ID)}
		if s, ok := reg.Suggest(a.ID); ok {
			fields = append(fields, zap.String("didYouMean", s))
		}
		log.Warn("no handler for action", fields...)
	default:
		log.Error("action handler failed", zap.String("actionId", a.ID), zap.Error(err))
	}
}
