package menu

// Snapshot is the published, immutable view of the tree. Holders must not
// mutate Nodes; the controller hands out a fresh deep copy per version.
type Snapshot struct {
	Version      uint64
	Route        string
	SuspendDepth int
	ActiveID     string
	Nodes        []Node
}

// Suspended reports whether the snapshot was taken during a suspension.
func (s Snapshot) Suspended() bool { return s.SuspendDepth > 0 }

// Find returns the node at the given id path.
func (s Snapshot) Find(path ...string) (Node, bool) {
	return Find(s.Nodes, path...)
}

// Walk visits every node of the snapshot. The nodes passed to fn are
// copies owned by the walk; changes to them are not visible to other readers.
func (s Snapshot) Walk(fn func(path string, n Node)) {
	Walk(s.Nodes, func(path string, n *Node) bool {
		fn(path, *n)
		return true
	})
}

// EnabledMap returns path -> Enabled for every action node.
func (s Snapshot) EnabledMap() map[string]bool {
	out := make(map[string]bool)
	s.Walk(func(path string, n Node) {
		if n.Kind == KindAction {
			out[path] = n.Enabled
		}
	})
	return out
}

// ActionState reports whether any node references actionID and whether at
// least one of those nodes is enabled.
func (s Snapshot) ActionState(actionID string) (known, enabled bool) {
	s.Walk(func(_ string, n Node) {
		if n.Kind != KindAction || n.Action == nil || n.Action.ID != actionID {
			return
		}
		known = true
		if n.Enabled {
			enabled = true
		}
	})
	return known, enabled
}
