// Package menu holds the command tree data model and the two small state
// machines that sit on it: the suspension counter and the activation tracker.
//
// Allowed here:
// - node types, constructors, structural validation, immutable snapshots
// - suspension and single-active bookkeeping
//
// Not allowed here:
// - rule evaluation, dynamic section content, transports
package menu

import (
	"slices"
	"strings"
)

// Kind is the node variant.
type Kind int

const (
	KindAction Kind = iota
	KindSeparator
	KindSubmenu
)

func (k Kind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindSeparator:
		return "separator"
	case KindSubmenu:
		return "submenu"
	default:
		return "unknown"
	}
}

// Section names a data-driven subtree. A submenu carrying a section gets its
// children from a section builder; its template children trail the output.
type Section string

const (
	SectionNone            Section = ""
	SectionRecentFiles     Section = "recent-files"
	SectionTemplateGallery Section = "template-gallery"
)

// PathSep joins sibling ids into a node path.
const PathSep = "/"

// Action references an external handler. Payload is opaque to the tree.
type Action struct {
	ID      string
	Payload any
}

// Node is one entry of the command tree.
type Node struct {
	ID             string
	Kind           Kind
	LabelKey       string
	Label          string
	Accelerator    string
	Enabled        bool
	Visible        bool
	Active         bool
	DisabledReason string
	Children       []Node
	Action         *Action
	Platforms      []string
	Section        Section
}

// Item returns an enabled, visible action node.
func Item(id, labelKey, actionID string) Node {
	return Node{
		ID:       id,
		Kind:     KindAction,
		LabelKey: labelKey,
		Enabled:  true,
		Visible:  true,
		Action:   &Action{ID: actionID},
	}
}

// Separator returns a separator node.
func Separator(id string) Node {
	return Node{ID: id, Kind: KindSeparator, Enabled: true, Visible: true}
}

// Submenu returns an enabled, visible submenu node.
func Submenu(id, labelKey string, children ...Node) Node {
	return Node{
		ID:       id,
		Kind:     KindSubmenu,
		LabelKey: labelKey,
		Enabled:  true,
		Visible:  true,
		Children: children,
	}
}

// WithAccelerator returns n with its accelerator set.
func (n Node) WithAccelerator(desc string) Node {
	n.Accelerator = desc
	return n
}

// OnlyOn returns n restricted to the given host platforms.
func (n Node) OnlyOn(platforms ...string) Node {
	n.Platforms = platforms
	return n
}

// WithSection returns n marked as a dynamic section.
func (n Node) WithSection(s Section) Node {
	n.Section = s
	return n
}

// Hidden returns n with Visible cleared.
func (n Node) Hidden() Node {
	n.Visible = false
	return n
}

// Clone returns a deep copy of n. Payloads are shared; they are opaque.
func (n Node) Clone() Node {
	out := n
	if n.Action != nil {
		a := *n.Action
		out.Action = &a
	}
	out.Platforms = slices.Clone(n.Platforms)
	out.Children = Clone(n.Children)
	return out
}

// Clone deep-copies a node list.
func Clone(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// AvailableOn reports whether n is kept on platform.
func (n Node) AvailableOn(platform string) bool {
	if len(n.Platforms) == 0 {
		return true
	}
	for _, p := range n.Platforms {
		if strings.EqualFold(p, platform) {
			return true
		}
	}
	return false
}

// ForPlatform returns a deep copy of nodes without the ones excluded on
// platform, at every depth.
func ForPlatform(nodes []Node, platform string) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if !n.AvailableOn(platform) {
			continue
		}
		c := n.Clone()
		if len(n.Children) > 0 {
			c.Children = ForPlatform(n.Children, platform)
		}
		out = append(out, c)
	}
	return out
}

// Walk visits every node depth-first with its slash-joined path. Returning
// false from fn skips the node's children.
func Walk(nodes []Node, fn func(path string, n *Node) bool) {
	walk(nodes, "", fn)
}

func walk(nodes []Node, prefix string, fn func(path string, n *Node) bool) {
	for i := range nodes {
		path := nodes[i].ID
		if prefix != "" {
			path = prefix + PathSep + path
		}
		if !fn(path, &nodes[i]) {
			continue
		}
		walk(nodes[i].Children, path, fn)
	}
}

// Find returns the node at the given id path.
func Find(nodes []Node, path ...string) (Node, bool) {
	if len(path) == 1 && strings.Contains(path[0], PathSep) {
		path = strings.Split(path[0], PathSep)
	}
	if len(path) == 0 {
		return Node{}, false
	}
	for _, n := range nodes {
		if n.ID != path[0] {
			continue
		}
		if len(path) == 1 {
			return n, true
		}
		return Find(n.Children, path[1:]...)
	}
	return Node{}, false
}
