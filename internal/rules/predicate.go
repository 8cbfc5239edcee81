package rules

// Predicate decides a rule for a context. Predicates must be pure.
type Predicate func(Context) bool

// Leaf predicates over single context fields.

func Always(Context) bool { return true }
func Never(Context) bool { return false }
func CanUndo(c Context) bool { return c.CanUndo }
func CanRedo(c Context) bool { return c.CanRedo }
func HasSelection(c Context) bool { return c.SelectionCount > 0 }
func HasClipboard(c Context) bool { return c.ClipboardCount > 0 }
func HasArtifact(c Context) bool { return c.HasOutputArtifact }
func DeveloperHost(c Context) bool { return c.IsDeveloperHost }
func Connected(c Context) bool { return c.MachineConnected }

// SelectionAtLeast holds when n or more items are selected.
func SelectionAtLeast(n int) Predicate {
	return func(c Context) bool { return c.SelectionCount >= n }
}

// All holds when every predicate holds. All() is true.
func All(ps ...Predicate) Predicate {
	return func(c Context) bool {
		for _, p := range ps {
			if !p(c) {
				return false
			}
		}
		return true
	}
}

// Any holds when at least one predicate holds. Any() is false.
func Any(ps ...Predicate) Predicate {
	return func(c Context) bool {
		for _, p := range ps {
			if p(c) {
				return true
			}
		}
		return false
	}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(c Context) bool { return !p(c) }
}
