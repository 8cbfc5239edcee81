package menu

import "errors"

// ErrSuspensionImbalance is returned by Resume when nothing is suspended.
var ErrSuspensionImbalance = errors.New("resume without matching suspend")

// CounterStats is a point-in-time view of a Counter.
type CounterStats struct {
	Depth      int
	Peak       int
	Suspends   uint64
	Resumes    uint64
	Imbalances uint64
}

// Counter tracks nested suspension. Not safe for concurrent use; the
// controller guards it.
type Counter struct {
	stats CounterStats
}

// Suspend increments the depth.
func (c *Counter) Suspend() {
	c.stats.Depth++
	c.stats.Suspends++
	if c.stats.Depth > c.stats.Peak {
		c.stats.Peak = c.stats.Depth
	}
}

// Resume decrements the depth, floored at zero. released is true when this
// call brought the depth back to zero.
func (c *Counter) Resume() (released bool, err error) {
	if c.stats.Depth == 0 {
		c.stats.Imbalances++
		return false, ErrSuspensionImbalance
	}
	c.stats.Depth--
	c.stats.Resumes++
	return c.stats.Depth == 0, nil
}

// Depth returns the current nesting depth.
func (c *Counter) Depth() int { return c.stats.Depth }

// Stats returns the diagnostic counters.
func (c *Counter) Stats() CounterStats { return c.stats }

// Apply disables every action node when suspended. Rule-derived reasons are
// replaced so hosts can tell the two apart.
func (c *Counter) Apply(nodes []Node) {
	if c.stats.Depth == 0 {
		return
	}
	Walk(nodes, func(_ string, n *Node) bool {
		if n.Kind == KindAction && n.Enabled {
			n.Enabled = false
			n.DisabledReason = ReasonSuspended
		}
		return true
	})
}

// ReasonSuspended is the disabled reason set on nodes during a suspension.
const ReasonSuspended = "suspended"
