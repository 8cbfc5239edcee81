// Package accel parses platform-independent accelerator descriptors such as
// "CmdOrCtrl+Shift+Z" and renders them for a concrete host.
package accel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

var (
	// ErrEmpty indicates an empty descriptor.
	ErrEmpty = errors.New("accelerator is empty")
	// ErrUnknownModifier indicates a modifier token outside the grammar.
	ErrUnknownModifier = errors.New("unknown modifier")
	// ErrUnknownKey indicates a key token outside the grammar.
	ErrUnknownKey = errors.New("unknown key")
	// ErrDuplicateModifier indicates the same modifier appears twice.
	ErrDuplicateModifier = errors.New("duplicate modifier")
)

// Modifier is a bit set of accelerator modifiers.
type Modifier uint8

const (
	ModCmdOrCtrl Modifier = 1 << iota
	ModCmd
	ModCtrl
	ModAlt
	ModShift
)

var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{ModCmdOrCtrl, "CmdOrCtrl"},
	{ModCmd, "Cmd"},
	{ModCtrl, "Ctrl"},
	{ModAlt, "Alt"},
	{ModShift, "Shift"},
}

var modifierAliases = map[string]Modifier{
	"cmdorctrl":        ModCmdOrCtrl,
	"commandorcontrol": ModCmdOrCtrl,
	"cmd":              ModCmd,
	"command":          ModCmd,
	"super":            ModCmd,
	"meta":             ModCmd,
	"ctrl":             ModCtrl,
	"control":          ModCtrl,
	"alt":              ModAlt,
	"option":           ModAlt,
	"shift":            ModShift,
}

// namedKeys maps lower-cased key names to their canonical spelling and the
// key string bubbletea reports for them.
var namedKeys = map[string]struct {
	canonical string
	terminal  string
}{
	"enter":     {"Enter", "enter"},
	"return":    {"Enter", "enter"},
	"esc":       {"Esc", "esc"},
	"escape":    {"Esc", "esc"},
	"tab":       {"Tab", "tab"},
	"space":     {"Space", " "},
	"backspace": {"Backspace", "backspace"},
	"delete":    {"Delete", "delete"},
	"insert":    {"Insert", "insert"},
	"home":      {"Home", "home"},
	"end":       {"End", "end"},
	"pageup":    {"PageUp", "pgup"},
	"pagedown":  {"PageDown", "pgdown"},
	"up":        {"Up", "up"},
	"down":      {"Down", "down"},
	"left":      {"Left", "left"},
	"right":     {"Right", "right"},
	"plus":      {"Plus", "+"},
}

const punctuation = ",.;'/[]\\-=`"

// Combo is a parsed accelerator.
type Combo struct {
	Mods Modifier
	Key  string
}

// Parse reads a descriptor. Tokens are separated by "+"; the last token is
// the key and everything before it a modifier. Matching is case-insensitive.
func Parse(desc string) (Combo, error) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return Combo{}, ErrEmpty
	}
	tokens := strings.Split(desc, "+")
	// "Ctrl++" spells the plus key with a trailing empty token pair.
	if strings.HasSuffix(desc, "++") {
		tokens = append(tokens[:len(tokens)-2], "Plus")
	}
	var c Combo
	for _, raw := range tokens[:len(tokens)-1] {
		tok := strings.ToLower(strings.TrimSpace(raw))
		mod, ok := modifierAliases[tok]
		if !ok {
			return Combo{}, fmt.Errorf("%w %q in %q", ErrUnknownModifier, raw, desc)
		}
		if c.Mods&mod != 0 {
			return Combo{}, fmt.Errorf("%w %q in %q", ErrDuplicateModifier, raw, desc)
		}
		c.Mods |= mod
	}
	k, err := canonicalKey(tokens[len(tokens)-1])
	if err != nil {
		return Combo{}, fmt.Errorf("%w in %q", err, desc)
	}
	c.Key = k
	return c, nil
}

// MustParse is Parse for static tables.
func MustParse(desc string) Combo {
	c, err := Parse(desc)
	if err != nil {
		panic(err)
	}
	return c
}

func canonicalKey(raw string) (string, error) {
	tok := strings.TrimSpace(raw)
	if tok == "" {
		return "", fmt.Errorf("%w: missing key", ErrUnknownKey)
	}
	lower := strings.ToLower(tok)
	if named, ok := namedKeys[lower]; ok {
		return named.canonical, nil
	}
	if len(lower) >= 2 && lower[0] == 'f' {
		var n int
		if _, err := fmt.Sscanf(lower[1:], "%d", &n); err == nil && n >= 1 && n <= 24 && fmt.Sprint(n) == lower[1:] {
			return fmt.Sprintf("F%d", n), nil
		}
	}
	if len(tok) == 1 {
		ch := tok[0]
		switch {
		case ch >= 'a' && ch <= 'z':
			return strings.ToUpper(tok), nil
		case ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			return tok, nil
		case strings.IndexByte(punctuation, ch) >= 0:
			return tok, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKey, raw)
}

// Has reports whether every modifier in m is set.
func (c Combo) Has(m Modifier) bool {
	return c.Mods&m == m
}

// String returns the canonical descriptor.
func (c Combo) String() string {
	parts := make([]string, 0, len(modifierOrder)+1)
	for _, m := range modifierOrder {
		if c.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}

// Format renders the combo the way the given host platform displays it.
func (c Combo) Format(platform string) string {
	if platform == "darwin" {
		var b strings.Builder
		if c.Mods&ModCtrl != 0 {
			b.WriteString("⌃")
		}
		if c.Mods&ModAlt != 0 {
			b.WriteString("⌥")
		}
		if c.Mods&ModShift != 0 {
			b.WriteString("⇧")
		}
		if c.Mods&(ModCmd|ModCmdOrCtrl) != 0 {
			b.WriteString("⌘")
		}
		b.WriteString(c.Key)
		return b.String()
	}
	parts := make([]string, 0, 4)
	if c.Mods&(ModCtrl|ModCmdOrCtrl) != 0 {
		parts = append(parts, "Ctrl")
	}
	if c.Mods&ModCmd != 0 {
		parts = append(parts, "Super")
	}
	if c.Mods&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if c.Mods&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}

// TerminalKey returns the key string bubbletea reports for the combo. Combos
// a terminal cannot deliver (Cmd, Ctrl+Shift, Ctrl+digit) report false.
func (c Combo) TerminalKey() (string, bool) {
	if c.Mods&ModCmd != 0 {
		return "", false
	}
	ctrl := c.Mods&(ModCtrl|ModCmdOrCtrl) != 0
	shift := c.Mods&ModShift != 0
	alt := c.Mods&ModAlt != 0

	var base string
	switch {
	case len(c.Key) == 1 && c.Key[0] >= 'A' && c.Key[0] <= 'Z':
		letter := strings.ToLower(c.Key)
		switch {
		case ctrl && shift:
			return "", false
		case ctrl:
			base = "ctrl+" + letter
		case shift:
			base = c.Key
		default:
			base = letter
		}
	case len(c.Key) == 1:
		if ctrl || shift {
			return "", false
		}
		base = c.Key
	default:
		named, ok := namedKeys[strings.ToLower(c.Key)]
		term := ""
		if ok {
			term = named.terminal
		} else {
			term = strings.ToLower(c.Key)
		}
		switch {
		case ctrl && shift:
			base = "ctrl+shift+" + term
		case ctrl:
			base = "ctrl+" + term
		case shift:
			base = "shift+" + term
		default:
			base = term
		}
	}
	if alt {
		base = "alt+" + base
	}
	return base, true
}

// Binding converts the combo to a bubbles key binding for terminal hosts.
func (c Combo) Binding(help string) (key.Binding, bool) {
	k, ok := c.TerminalKey()
	if !ok {
		return key.Binding{}, false
	}
	return key.NewBinding(
		key.WithKeys(k),
		key.WithHelp(c.Format(""), help),
	), true
}
