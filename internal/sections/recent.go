// Package sections builds the data-driven subtrees of the command tree: the
// recent-files list and the template gallery.
package sections

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jask/menutree/internal/menu"
)

// RecentCap bounds the recent-files section.
const RecentCap = 10

// Action ids of generated entries. Payloads carry the entry data.
const (
	ActionOpenRecent   = "file.open-recent"
	ActionOpenTemplate = "gallery.open-template"
)

// RecentFile is one entry of the recent-files feed.
type RecentFile struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

// DisplayName returns Name, or the base of Path when Name is empty.
func (f RecentFile) DisplayName() string {
	if n := strings.TrimSpace(f.Name); n != "" {
		return n
	}
	return filepath.Base(f.Path)
}

// RebuildRecentEntries returns the recent-files section: items are given
// oldest to newest and come out newest first, capped at RecentCap, followed
// by a copy of trailing.
func RebuildRecentEntries(items []RecentFile, trailing []menu.Node) []menu.Node {
	n := min(len(items), RecentCap)
	out := make([]menu.Node, 0, n+len(trailing))
	for i := range n {
		f := items[len(items)-1-i]
		node := menu.Item(fmt.Sprintf("recent-%d", i), "", ActionOpenRecent)
		node.Label = f.DisplayName()
		node.Action.Payload = f
		out = append(out, node)
	}
	return append(out, menu.Clone(trailing)...)
}
