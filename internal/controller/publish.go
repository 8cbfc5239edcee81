package controller

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jask/menutree/internal/menu"
	"github.com/jask/menutree/internal/transport"
)

// publish delivers snap outside the controller lock. Deliveries are
// serialized: a caller that finds another delivery running leaves its
// snapshot in the mailbox and returns, and the running caller delivers the
// newest pending one when it finishes. Listeners may call back into the
// controller. A snapshot older than one already delivered is never sent.
func (c *Controller) publish(snap menu.Snapshot, subs []subscription, tr transport.Transport) {
	c.pubMu.Lock()
	if c.pending == nil || snap.Version > c.pending.snap.Version {
		c.pending = &pendingDelivery{snap: snap, subs: subs, tr: tr}
	}
	if c.publishing {
		c.pubMu.Unlock()
		return
	}
	c.publishing = true
	for c.pending != nil {
		next := c.pending
		c.pending = nil
		if next.snap.Version <= c.delivered {
			continue
		}
		c.delivered = next.snap.Version
		c.pubMu.Unlock()
		c.deliver(next)
		c.pubMu.Lock()
	}
	c.publishing = false
	c.pubMu.Unlock()
}

type pendingDelivery struct {
	snap menu.Snapshot
	subs []subscription
	tr   transport.Transport
}

func (c *Controller) deliver(d *pendingDelivery) {
	if d.tr != nil {
		d.tr.PublishSnapshot(d.snap)
	}
	for _, s := range d.subs {
		c.notify(s, d.snap)
	}
	c.mu.Lock()
	c.stats.Published++
	c.mu.Unlock()
}

func (c *Controller) notify(s subscription, snap menu.Snapshot) {
	defer func() {
		if p := recover(); p != nil {
			c.mu.Lock()
			c.stats.ListenerPanics++
			c.mu.Unlock()
			c.log.Error("menu listener panicked",
				zap.String("subscription", s.id),
				zap.Uint64("version", snap.Version),
				zap.Error(fmt.Errorf("%v", p)))
		}
	}()
	s.fn(snap)
}
