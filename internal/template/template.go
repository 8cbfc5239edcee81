// Package template reads and writes declarative menu templates in TOML.
//
//	[[menu]]
//	id = "file"
//	label = "menu.file"
//
//	  [[menu.items]]
//	  id = "new"
//	  label = "menu.file.new"
//	  action = "file.new"
//	  accelerator = "CmdOrCtrl+N"
//
//	  [[menu.items]]
//	  kind = "separator"
//	  id = "sep-1"
package template

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/jask/menutree/internal/menu"
)

// ErrNoMenu indicates a template without top-level entries.
var ErrNoMenu = errors.New("template has no menu entries")

type file struct {
	Menu []entry `toml:"menu"`
}

type entry struct {
	ID          string   `toml:"id"`
	Kind        string   `toml:"kind,omitempty"`
	Label       string   `toml:"label,omitempty"`
	Action      string   `toml:"action,omitempty"`
	Accelerator string   `toml:"accelerator,omitempty"`
	Section     string   `toml:"section,omitempty"`
	Platforms   []string `toml:"platforms,omitempty"`
	Hidden      bool     `toml:"hidden,omitempty"`
	Items       []entry  `toml:"items,omitempty"`
}

// Decode parses a template and validates its structure.
func Decode(r io.Reader) ([]menu.Node, error) {
	var f file
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode template: unknown key %q", undecoded[0].String())
	}
	if len(f.Menu) == 0 {
		return nil, ErrNoMenu
	}
	nodes, err := toNodes(f.Menu, "")
	if err != nil {
		return nil, err
	}
	if err := menu.Validate(nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Load reads a template file.
func Load(path string) ([]menu.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func toNodes(entries []entry, prefix string) ([]menu.Node, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make([]menu.Node, 0, len(entries))
	for _, e := range entries {
		path := e.ID
		if prefix != "" {
			path = prefix + menu.PathSep + e.ID
		}
		kind, err := kindOf(e)
		if err != nil {
			return nil, fmt.Errorf("template entry %q: %w", path, err)
		}
		var n menu.Node
		switch kind {
		case menu.KindSeparator:
			n = menu.Separator(e.ID)
		case menu.KindAction:
			n = menu.Item(e.ID, e.Label, e.Action)
		case menu.KindSubmenu:
			children, err := toNodes(e.Items, path)
			if err != nil {
				return nil, err
			}
			n = menu.Submenu(e.ID, e.Label, children...)
			n.Section = menu.Section(e.Section)
		}
		n.Accelerator = e.Accelerator
		n.Platforms = e.Platforms
		n.Visible = !e.Hidden
		out = append(out, n)
	}
	return out, nil
}

func kindOf(e entry) (menu.Kind, error) {
	switch e.Kind {
	case "separator":
		return menu.KindSeparator, nil
	case "action":
		return menu.KindAction, nil
	case "submenu":
		return menu.KindSubmenu, nil
	case "":
		switch {
		case e.Action != "":
			return menu.KindAction, nil
		case len(e.Items) > 0 || e.Section != "":
			return menu.KindSubmenu, nil
		}
		return 0, errors.New("cannot infer kind: set kind, action or items")
	default:
		return 0, fmt.Errorf("unknown kind %q", e.Kind)
	}
}

// Encode writes nodes as a template. Labels and payloads of generated
// entries are not part of a template and are dropped.
func Encode(w io.Writer, nodes []menu.Node) error {
	if err := toml.NewEncoder(w).Encode(file{Menu: toEntries(nodes)}); err != nil {
		return fmt.Errorf("encode template: %w", err)
	}
	return nil
}

func toEntries(nodes []menu.Node) []entry {
	out := make([]entry, 0, len(nodes))
	for _, n := range nodes {
		e := entry{
			ID:          n.ID,
			Label:       n.LabelKey,
			Accelerator: n.Accelerator,
			Section:     string(n.Section),
			Platforms:   n.Platforms,
			Hidden:      !n.Visible,
		}
		switch n.Kind {
		case menu.KindSeparator:
			e.Kind = "separator"
		case menu.KindAction:
			if n.Action != nil {
				e.Action = n.Action.ID
			}
		case menu.KindSubmenu:
			e.Kind = "submenu"
			e.Items = toEntries(n.Children)
		}
		out = append(out, e)
	}
	return out
}
