package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// AnyRoute is the route of a rule that applies on every route without an
// exact rule of its own.
const AnyRoute = "*"

var (
	// ErrDuplicateRule indicates two rules share a (route, node) key.
	ErrDuplicateRule = errors.New("duplicate rule")
	// ErrEmptyRule indicates a rule without node id or predicate.
	ErrEmptyRule = errors.New("rule needs a node id and a predicate")
)

// Rule decides enablement and optionally visibility of one node id.
type Rule struct {
	Route  string
	NodeID string
	Enable Predicate
	Show   Predicate
	Reason string
}

type key struct {
	route string
	node  string
}

// Table is an immutable rule set.
type Table struct {
	rules map[key]Rule
	nodes []string
}

// NewTable indexes rules by (route, node). An empty route means AnyRoute.
func NewTable(rs ...Rule) (*Table, error) {
	t := &Table{rules: make(map[key]Rule, len(rs))}
	seen := make(map[string]bool)
	var errs []error
	for _, r := range rs {
		r.NodeID = strings.TrimSpace(r.NodeID)
		if r.Route == "" {
			r.Route = AnyRoute
		}
		if r.NodeID == "" || (r.Enable == nil && r.Show == nil) {
			errs = append(errs, fmt.Errorf("%w: route %q node %q", ErrEmptyRule, r.Route, r.NodeID))
			continue
		}
		k := key{route: r.Route, node: r.NodeID}
		if _, dup := t.rules[k]; dup {
			errs = append(errs, fmt.Errorf("%w: route %q node %q", ErrDuplicateRule, r.Route, r.NodeID))
			continue
		}
		t.rules[k] = r
		if !seen[r.NodeID] {
			seen[r.NodeID] = true
			t.nodes = append(t.nodes, r.NodeID)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	sort.Strings(t.nodes)
	return t, nil
}

// MustTable is NewTable for static tables.
func MustTable(rs ...Rule) *Table {
	t, err := NewTable(rs...)
	if err != nil {
		panic(err)
	}
	return t
}

// NodeIDs returns every node id that has at least one rule, sorted.
func (t *Table) NodeIDs() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.nodes...)
}

// Lookup returns the rule in force for nodeID on route: the exact route
// first, then AnyRoute.
func (t *Table) Lookup(route, nodeID string) (Rule, bool) {
	if t == nil {
		return Rule{}, false
	}
	if r, ok := t.rules[key{route: route, node: nodeID}]; ok {
		return r, true
	}
	r, ok := t.rules[key{route: AnyRoute, node: nodeID}]
	return r, ok
}

// resolve is Lookup restricted to rules for which has reports true, so
// Enable and Show each fall back to AnyRoute on their own.
func (t *Table) resolve(route, nodeID string, has func(Rule) bool) (Rule, bool) {
	if t == nil {
		return Rule{}, false
	}
	if r, ok := t.rules[key{route: route, node: nodeID}]; ok && has(r) {
		return r, true
	}
	if r, ok := t.rules[key{route: AnyRoute, node: nodeID}]; ok && has(r) {
		return r, true
	}
	return Rule{}, false
}

func hasEnable(r Rule) bool { return r.Enable != nil }

func hasShow(r Rule) bool { return r.Show != nil }

// Decide returns the enablement of nodeID and, when disabled, the reason.
// Nodes without an Enable predicate on their route or AnyRoute are enabled.
func (t *Table) Decide(ctx Context, nodeID string) (bool, string) {
	r, ok := t.resolve(ctx.Route, nodeID, hasEnable)
	if !ok {
		return true, ""
	}
	if r.Enable(ctx) {
		return true, ""
	}
	return false, r.Reason
}

// Visible returns the visibility of nodeID. Nodes without a Show predicate
// on their route or AnyRoute are visible.
func (t *Table) Visible(ctx Context, nodeID string) bool {
	r, ok := t.resolve(ctx.Route, nodeID, hasShow)
	if !ok {
		return true
	}
	return r.Show(ctx)
}

// Evaluate returns the enablement of every ruled node id.
func (t *Table) Evaluate(ctx Context) map[string]bool {
	out := make(map[string]bool, len(t.NodeIDs()))
	for _, id := range t.NodeIDs() {
		out[id], _ = t.Decide(ctx, id)
	}
	return out
}

// EvaluateVisibility returns the visibility of every ruled node id.
func (t *Table) EvaluateVisibility(ctx Context) map[string]bool {
	out := make(map[string]bool, len(t.NodeIDs()))
	for _, id := range t.NodeIDs() {
		out[id] = t.Visible(ctx, id)
	}
	return out
}
