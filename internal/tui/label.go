package tui

import (
	"strings"

	"github.com/jask/menutree/internal/menu"
)

// Label returns display text for n: its literal label, or the last segment
// of its label key made readable ("menu.file.save-as" -> "Save as").
func Label(n menu.Node) string {
	if n.Label != "" {
		return n.Label
	}
	k := n.LabelKey
	if k == "" {
		k = n.ID
	}
	if i := strings.LastIndex(k, "."); i >= 0 {
		k = k[i+1:]
	}
	k = strings.ReplaceAll(k, "-", " ")
	if k == "" {
		return n.ID
	}
	return strings.ToUpper(k[:1]) + k[1:]
}
