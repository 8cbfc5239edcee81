package transport

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jask/menutree/internal/bus"
	"github.com/jask/menutree/internal/menu"
)

// BusTransport dispatches actions over the in-process bus and mirrors
// snapshots on the snapshot topic.
type BusTransport struct {
	bus *bus.Bus
	reg *Registry
	log *zap.Logger

	sub    <-chan bus.Message
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewBusTransport subscribes to the action topic and starts the handler
// goroutine.
func NewBusTransport(b *bus.Bus, reg *Registry, log *zap.Logger) *BusTransport {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &BusTransport{
		bus:    b,
		reg:    reg,
		log:    log.Named("bus-transport"),
		sub:    b.Subscribe(bus.TopicAction),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go t.loop(ctx)
	return t
}

func (t *BusTransport) loop(ctx context.Context) {
	defer close(t.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-t.sub:
			if !ok {
				return
			}
			a, ok := msg.Payload.(menu.Action)
			if !ok {
				t.log.Warn("unexpected payload on action topic", zap.Uint64("id", msg.ID))
				continue
			}
			run(ctx, t.reg, t.log, a)
		}
	}
}

// DispatchAction publishes a on the action topic.
func (t *BusTransport) DispatchAction(a menu.Action) {
	t.bus.Publish(bus.TopicAction, a)
}

// PublishSnapshot publishes s on the snapshot topic. Slow subscribers miss
// versions rather than stall the controller.
func (t *BusTransport) PublishSnapshot(s menu.Snapshot) {
	t.bus.Publish(bus.TopicSnapshot, s)
}

// Close stops the handler goroutine. The bus itself stays open.
func (t *BusTransport) Close() error {
	t.once.Do(func() {
		t.cancel()
		t.bus.Unsubscribe(bus.TopicAction, t.sub)
		<-t.done
	})
	return nil
}
