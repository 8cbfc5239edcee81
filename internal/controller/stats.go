package controller

import "github.com/jask/menutree/internal/menu"

// Stats holds controller diagnostics.
type Stats struct {
	Version           uint64
	Recomputes        uint64
	Published         uint64
	Dispatches        uint64
	DroppedDispatches uint64
	ListenerPanics    uint64
	Listeners         int
	Suspension        menu.CounterStats
}

// Stats returns current diagnostics.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.stats
	st.Version = c.snap.Version
	st.Listeners = len(c.subs)
	st.Suspension = c.counter.Stats()
	return st
}
