package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/menutree/internal/accel"
	"github.com/jask/menutree/internal/menu"
)

// Menu is the part of the controller the terminal host drives.
type Menu interface {
	Snapshot() menu.Snapshot
	Activate(id string)
	DeactivateAll()
	Dispatch(a menu.Action)
}

// SnapshotMsg carries a published snapshot into the program.
type SnapshotMsg menu.Snapshot

// StatusMsg replaces the status line.
type StatusMsg string

type shortcut struct {
	binding key.Binding
	action  menu.Action
	path    string
	enabled bool
	reason  string
}

// App renders the command tree as a menu bar with drop-down lists.
type App struct {
	menu     Menu
	platform string
	snap     menu.Snapshot

	stack     []string // open submenu ids below the active top-level node
	cursor    int
	shortcuts []shortcut
	status    string
	width     int
}

// New returns a host showing m's current snapshot.
func New(m Menu, platform string) *App {
	a := &App{menu: m, platform: platform}
	a.setSnapshot(m.Snapshot())
	return a
}

func (a *App) Init() tea.Cmd { return nil }

// Controller calls run as commands: a listener may send into the program
// while Update is still running.
func (a *App) activateCmd(id string) tea.Cmd {
	return func() tea.Msg {
		a.menu.Activate(id)
		return nil
	}
}

func (a *App) deactivateCmd() tea.Cmd {
	return func() tea.Msg {
		a.menu.DeactivateAll()
		return nil
	}
}

func (a *App) dispatchCmd(act menu.Action) tea.Cmd {
	return func() tea.Msg {
		a.menu.Dispatch(act)
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case SnapshotMsg:
		a.setSnapshot(menu.Snapshot(m))
		return a, nil
	case StatusMsg:
		a.status = string(m)
		return a, nil
	case tea.WindowSizeMsg:
		a.width = m.Width
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	open := a.snap.ActiveID != ""
	switch m.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "q":
		if !open {
			return a, tea.Quit
		}
	case "f10", "alt+m":
		if open {
			return a, a.deactivateCmd()
		}
		if ids := a.topLevelIDs(); len(ids) > 0 {
			return a, a.activateCmd(ids[0])
		}
		return a, nil
	case "esc":
		if len(a.stack) > 0 {
			a.stack = a.stack[:len(a.stack)-1]
			a.cursor = 0
			return a, nil
		}
		if open {
			return a, a.deactivateCmd()
		}
		return a, nil
	case "left", "h":
		if open {
			return a, a.activateCmd(a.neighbour(-1))
		}
	case "right", "l":
		if open {
			return a, a.activateCmd(a.neighbour(1))
		}
	case "up", "k":
		if open {
			a.move(-1)
			return a, nil
		}
	case "down", "j":
		if open {
			a.move(1)
			return a, nil
		}
	case "enter":
		if open {
			return a, a.choose()
		}
	}
	for _, s := range a.shortcuts {
		if key.Matches(m, s.binding) {
			if !s.enabled {
				a.status = disabledStatus(s.path, s.reason)
				return a, nil
			}
			a.status = "→ " + s.action.ID
			return a, a.dispatchCmd(s.action)
		}
	}
	return a, nil
}

func (a *App) setSnapshot(s menu.Snapshot) {
	prevActive := a.snap.ActiveID
	a.snap = s
	if s.ActiveID != prevActive {
		a.stack = nil
		a.cursor = 0
	}
	if _, ok := a.current(); !ok {
		a.stack = nil
		a.cursor = 0
	}
	a.clampCursor()
	a.shortcuts = buildShortcuts(s)
}

func buildShortcuts(s menu.Snapshot) []shortcut {
	var out []shortcut
	s.Walk(func(path string, n menu.Node) {
		if n.Kind != menu.KindAction || n.Accelerator == "" || !n.Visible || n.Action == nil {
			return
		}
		combo, err := accel.Parse(n.Accelerator)
		if err != nil {
			return
		}
		b, ok := combo.Binding(n.Action.ID)
		if !ok {
			return
		}
		out = append(out, shortcut{
			binding: b,
			action:  *n.Action,
			path:    path,
			enabled: n.Enabled,
			reason:  n.DisabledReason,
		})
	})
	return out
}

func disabledStatus(path, reason string) string {
	if reason == "" {
		return path + " is unavailable"
	}
	return fmt.Sprintf("%s is unavailable: %s", path, reason)
}

func (a *App) topLevelIDs() []string {
	var ids []string
	for _, n := range a.snap.Nodes {
		if n.Visible && n.Kind != menu.KindSeparator {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func (a *App) neighbour(step int) string {
	ids := a.topLevelIDs()
	for i, id := range ids {
		if id == a.snap.ActiveID {
			return ids[(i+step+len(ids))%len(ids)]
		}
	}
	return a.snap.ActiveID
}

// current returns the list shown in the drop-down.
func (a *App) current() ([]menu.Node, bool) {
	if a.snap.ActiveID == "" {
		return nil, false
	}
	path := append([]string{a.snap.ActiveID}, a.stack...)
	n, ok := a.snap.Find(path...)
	if !ok {
		return nil, false
	}
	return n.Children, true
}

func selectable(n menu.Node) bool {
	return n.Visible && n.Kind != menu.KindSeparator
}

func (a *App) move(step int) {
	items, _ := a.current()
	if len(items) == 0 {
		return
	}
	for i := a.cursor + step; i >= 0 && i < len(items); i += step {
		if selectable(items[i]) {
			a.cursor = i
			return
		}
	}
}

func (a *App) clampCursor() {
	items, _ := a.current()
	if a.cursor >= len(items) {
		a.cursor = 0
	}
	if len(items) > 0 && !selectable(items[a.cursor]) {
		a.move(1)
	}
}

func (a *App) choose() tea.Cmd {
	items, _ := a.current()
	if a.cursor >= len(items) {
		return nil
	}
	n := items[a.cursor]
	switch {
	case n.Kind == menu.KindSubmenu:
		a.stack = append(a.stack, n.ID)
		a.cursor = 0
		a.clampCursor()
		return nil
	case !n.Enabled:
		a.status = disabledStatus(n.ID, n.DisabledReason)
		return nil
	case n.Action != nil:
		a.status = "→ " + n.Action.ID
		act := *n.Action
		return tea.Batch(a.dispatchCmd(act), a.deactivateCmd())
	}
	return nil
}

var (
	barStyle      = lipgloss.NewStyle().Foreground(colorText).Background(colorSurface0)
	barItemStyle  = lipgloss.NewStyle().Padding(0, 1)
	barActive     = barItemStyle.Foreground(colorBase).Background(colorAccent).Bold(true)
	dropStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFocus).Padding(0, 1)
	itemStyle     = lipgloss.NewStyle().Foreground(colorText)
	cursorStyle   = lipgloss.NewStyle().Foreground(colorBase).Background(colorFocus)
	disabledStyle = lipgloss.NewStyle().Foreground(colorOverlay0)
	accelStyle    = lipgloss.NewStyle().Foreground(colorSubtext0)
	statusStyle   = lipgloss.NewStyle().Foreground(colorSubtext1)
	warnStyle     = lipgloss.NewStyle().Foreground(colorWarning)
)

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.renderBar())
	b.WriteString("\n")
	if drop := a.renderDropDown(); drop != "" {
		b.WriteString(drop)
		b.WriteString("\n")
	}
	b.WriteString(a.renderStatus())
	return b.String()
}

func (a *App) renderBar() string {
	parts := make([]string, 0, len(a.snap.Nodes))
	for _, n := range a.snap.Nodes {
		if !selectable(n) {
			continue
		}
		style := barItemStyle
		if n.Active {
			style = barActive
		}
		parts = append(parts, style.Render(Label(n)))
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if a.width > 0 {
		return barStyle.Width(a.width).Render(bar)
	}
	return barStyle.Render(bar)
}

func (a *App) renderDropDown() string {
	items, ok := a.current()
	if !ok {
		return ""
	}
	labelWidth := 0
	for _, n := range items {
		labelWidth = max(labelWidth, lipgloss.Width(Label(n)))
	}
	var lines []string
	for i, n := range items {
		if !n.Visible {
			continue
		}
		if n.Kind == menu.KindSeparator {
			lines = append(lines, disabledStyle.Render(strings.Repeat("─", labelWidth+12)))
			continue
		}
		label := Label(n)
		suffix := ""
		switch {
		case n.Kind == menu.KindSubmenu:
			suffix = "▸"
		case n.Accelerator != "":
			if c, err := accel.Parse(n.Accelerator); err == nil {
				suffix = c.Format(a.platform)
			}
		}
		line := fmt.Sprintf("%-*s  %s", labelWidth, label, accelStyle.Render(suffix))
		switch {
		case i == a.cursor:
			line = cursorStyle.Render(fmt.Sprintf("%-*s  %s", labelWidth, label, suffix))
		case !n.Enabled:
			line = disabledStyle.Render(fmt.Sprintf("%-*s  %s", labelWidth, label, suffix))
		default:
			line = itemStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, disabledStyle.Render("(empty)"))
	}
	return dropStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) renderStatus() string {
	route := a.snap.Route
	if route == "" {
		route = "-"
	}
	info := fmt.Sprintf("route %s · v%d", route, a.snap.Version)
	if a.snap.Suspended() {
		info += " · " + warnStyle.Render(fmt.Sprintf("suspended(%d)", a.snap.SuspendDepth))
	}
	if a.status != "" {
		info += " · " + a.status
	}
	help := "F10 menu · ←→ switch · ↑↓ move · enter choose · esc back · q quit"
	if a.width > 0 {
		info = ansi.Truncate(info, a.width, "…")
		help = ansi.Truncate(help, a.width, "…")
	}
	return statusStyle.Render(info) + "\n" + disabledStyle.Render(help)
}
