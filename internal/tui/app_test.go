package tui

import (
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/jask/menutree/internal/appmenu"
	"github.com/jask/menutree/internal/controller"
	"github.com/jask/menutree/internal/menu"
	"github.com/jask/menutree/internal/rules"
)

// recordingMenu forwards activation to a real controller and records
// dispatches instead of sending them anywhere.
type recordingMenu struct {
	*controller.Controller
	mu         sync.Mutex
	dispatched []string
}

func (r *recordingMenu) Dispatch(a menu.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatched = append(r.dispatched, a.ID)
}

func newTestApp(t *testing.T, route string) (*App, *recordingMenu) {
	t.Helper()
	c := controller.New(controller.WithRules(appmenu.Rules()))
	require.NoError(t, c.Init(appmenu.Template(), controller.PlatformFlags{Platform: "linux"}))
	t.Cleanup(func() { _ = c.Close() })
	c.OnContextChanged(rules.Patch{Route: rules.Ptr(route)})
	m := &recordingMenu{Controller: c}
	return New(m, "linux"), m
}

// run executes cmd and any batch it expands to, then feeds the controller's
// latest snapshot back into the app.
func run(t *testing.T, a *App, m *recordingMenu, cmd tea.Cmd) {
	t.Helper()
	var exec func(tea.Cmd)
	exec = func(c tea.Cmd) {
		if c == nil {
			return
		}
		if batch, ok := c().(tea.BatchMsg); ok {
			for _, inner := range batch {
				exec(inner)
			}
		}
	}
	exec(cmd)
	a.Update(SnapshotMsg(m.Snapshot()))
}

func press(t *testing.T, a *App, m *recordingMenu, k tea.KeyMsg) {
	t.Helper()
	_, cmd := a.Update(k)
	run(t, a, m, cmd)
}

func TestLabel(t *testing.T) {
	require.Equal(t, "Save as", Label(menu.Node{LabelKey: "menu.file.save-as"}))
	require.Equal(t, "Exact", Label(menu.Node{LabelKey: "menu.x", Label: "Exact"}))
	require.Equal(t, "Recent 0", Label(menu.Node{ID: "recent-0"}))
}

func TestApp_OpensMenuAndDispatches(t *testing.T) {
	a, m := newTestApp(t, appmenu.RouteEditor)
	require.Contains(t, a.View(), "File")
	require.NotContains(t, a.View(), "New")

	press(t, a, m, tea.KeyMsg{Type: tea.KeyF10})
	require.Equal(t, appmenu.NodeFile, a.snap.ActiveID)
	require.Contains(t, a.View(), "New")

	press(t, a, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, []string{appmenu.ActionNew}, m.dispatched)
	require.Empty(t, a.snap.ActiveID)
}

func TestApp_SwitchesTopLevelWithArrows(t *testing.T) {
	a, m := newTestApp(t, appmenu.RouteEditor)
	press(t, a, m, tea.KeyMsg{Type: tea.KeyF10})
	press(t, a, m, tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, appmenu.NodeEdit, a.snap.ActiveID)
	press(t, a, m, tea.KeyMsg{Type: tea.KeyLeft})
	press(t, a, m, tea.KeyMsg{Type: tea.KeyLeft})
	require.Equal(t, appmenu.NodeHelp, a.snap.ActiveID)

	press(t, a, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Empty(t, a.snap.ActiveID)
}

func TestApp_CursorSkipsSeparators(t *testing.T) {
	a, m := newTestApp(t, appmenu.RouteEditor)
	press(t, a, m, tea.KeyMsg{Type: tea.KeyF10})
	for range 3 {
		press(t, a, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	items, ok := a.current()
	require.True(t, ok)
	require.Equal(t, appmenu.NodeSave, items[a.cursor].ID)
}

func TestApp_EntersSubmenu(t *testing.T) {
	a, m := newTestApp(t, appmenu.RouteEditor)
	press(t, a, m, tea.KeyMsg{Type: tea.KeyF10})
	press(t, a, m, tea.KeyMsg{Type: tea.KeyDown})
	press(t, a, m, tea.KeyMsg{Type: tea.KeyDown})
	press(t, a, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, []string{appmenu.NodeRecent}, a.stack)

	// Recent is empty, so the first selectable entry is "clear".
	items, _ := a.current()
	require.Equal(t, appmenu.NodeClearRecent, items[a.cursor].ID)

	press(t, a, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Empty(t, a.stack)
	require.Equal(t, appmenu.NodeFile, a.snap.ActiveID)
}

func TestApp_ShortcutRespectsEnablement(t *testing.T) {
	a, m := newTestApp(t, appmenu.RouteHome)
	press(t, a, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Empty(t, m.dispatched)
	require.Contains(t, a.status, "only available while editing a project")

	m.OnContextChanged(rules.Patch{Route: rules.Ptr(appmenu.RouteEditor)})
	a.Update(SnapshotMsg(m.Snapshot()))
	press(t, a, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Equal(t, []string{appmenu.ActionSave}, m.dispatched)
}

func TestApp_DisabledItemIsNotDispatched(t *testing.T) {
	a, m := newTestApp(t, appmenu.RouteEditor)
	press(t, a, m, tea.KeyMsg{Type: tea.KeyF10})
	press(t, a, m, tea.KeyMsg{Type: tea.KeyRight})
	// Undo is first and there is no history.
	press(t, a, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Empty(t, m.dispatched)
	require.Contains(t, a.status, "nothing to undo")
}

func TestApp_StatusShowsSuspension(t *testing.T) {
	a, m := newTestApp(t, appmenu.RouteEditor)
	m.Suspend()
	a.Update(SnapshotMsg(m.Snapshot()))
	require.Contains(t, a.View(), "suspended(1)")
	m.Resume()
	a.Update(SnapshotMsg(m.Snapshot()))
	require.NotContains(t, a.View(), "suspended")
}

func TestApp_Quit(t *testing.T) {
	a, _ := newTestApp(t, appmenu.RouteHome)
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_StatusFitsWidth(t *testing.T) {
	a, _ := newTestApp(t, appmenu.RouteEditor)
	a.Update(tea.WindowSizeMsg{Width: 24, Height: 10})
	a.Update(StatusMsg("a rather long status message that overflows"))
	lines := strings.Split(a.renderStatus(), "\n")
	for _, l := range lines {
		require.LessOrEqual(t, lipgloss.Width(l), 24)
	}
}
