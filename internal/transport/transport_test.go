package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jask/menutree/internal/bus"
	"github.com/jask/menutree/internal/menu"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	id      string
	payload any
}

func recordingRegistry(t *testing.T, ids ...string) (*Registry, chan call) {
	t.Helper()
	calls := make(chan call, 16)
	reg := NewRegistry()
	for _, id := range ids {
		require.NoError(t, reg.Register(id, func(_ context.Context, payload any) error {
			calls <- call{id: id, payload: payload}
			return nil
		}))
	}
	return reg, calls
}

func waitCall(t *testing.T, calls <-chan call) call {
	t.Helper()
	select {
	case c := <-calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
		return call{}
	}
}

func TestRegistry_RegisterAndInvoke(t *testing.T) {
	t.Parallel()
	reg, calls := recordingRegistry(t, "file.save")

	require.ErrorIs(t, reg.Register("file.save", func(context.Context, any) error { return nil }), ErrDuplicateHandler)
	require.ErrorIs(t, reg.Register(" ", func(context.Context, any) error { return nil }), ErrEmptyActionID)
	require.ErrorIs(t, reg.Register("x", nil), ErrEmptyActionID)

	require.NoError(t, reg.Invoke(context.Background(), menu.Action{ID: "file.save", Payload: 7}))
	require.Equal(t, call{id: "file.save", payload: 7}, <-calls)

	require.ErrorIs(t, reg.Invoke(context.Background(), menu.Action{ID: "file.sav"}), ErrUnknownAction)
	s, ok := reg.Suggest("file.sav")
	require.True(t, ok)
	require.Equal(t, "file.save", s)
	_, ok = reg.Suggest("machine.start-job")
	require.False(t, ok)
}

func TestRegistry_RecoversPanics(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.MustRegister("boom", func(context.Context, any) error { panic("kaput") })
	reg.MustRegister("fail", func(context.Context, any) error { return errors.New("disk full") })

	err := reg.Invoke(context.Background(), menu.Action{ID: "boom"})
	require.ErrorIs(t, err, ErrHandlerPanic)
	require.ErrorContains(t, err, "kaput")
	require.EqualError(t, reg.Invoke(context.Background(), menu.Action{ID: "fail"}), "disk full")
	require.Equal(t, []string{"boom", "fail"}, reg.IDs())
}

func TestRun_LogsUnknownAndFaults(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)
	reg := NewRegistry()
	reg.MustRegister("file.export-gcode", func(context.Context, any) error { panic("nil machine") })

	run(context.Background(), reg, log, menu.Action{ID: "file.export-gcod"})
	warn := logs.FilterMessage("no handler for action").All()
	require.Len(t, warn, 1)
	require.Equal(t, "file.export-gcod", warn[0].ContextMap()["actionId"])
	require.Equal(t, "file.export-gcode", warn[0].ContextMap()["didYouMean"])

	run(context.Background(), reg, log, menu.Action{ID: "file.export-gcode"})
	fault := logs.FilterMessage("action handler failed").All()
	require.Len(t, fault, 1)
	require.Equal(t, "file.export-gcode", fault[0].ContextMap()["actionId"])
}

func testSnapshot(version uint64) menu.Snapshot {
	save := menu.Item("save", "menu.file.save", "file.save").WithAccelerator("CmdOrCtrl+S")
	export := menu.Item("export-gcode", "menu.file.export-gcode", "file.export-gcode")
	export.Enabled = false
	export.DisabledReason = "no generated G-code"
	recent := menu.Item("recent-0", "", "file.open-recent")
	recent.Label = "coaster.lbrn"
	recent.Action.Payload = struct{ Path string }{"/jobs/coaster.lbrn"}
	return menu.Snapshot{
		Version: version,
		Route:   "editor",
		Nodes: []menu.Node{
			menu.Submenu("file", "menu.file", save, export,
				menu.Submenu("recent", "menu.file.recent", recent)),
		},
	}
}

type shellPeer struct {
	conn net.Conn
	sc   *bufio.Scanner
}

func (p shellPeer) send(t *testing.T, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	_, err = p.conn.Write(append(b, '\n'))
	require.NoError(t, err)
}

func (p shellPeer) next(t *testing.T) outbound {
	t.Helper()
	require.NoError(t, p.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.True(t, p.sc.Scan(), "no message from shell transport: %v", p.sc.Err())
	var out outbound
	require.NoError(t, json.Unmarshal(p.sc.Bytes(), &out))
	return out
}

func startShell(t *testing.T, reg *Registry, opts ...ShellOption) (*Shell, shellPeer) {
	t.Helper()
	local, remote := net.Pipe()
	s := NewShell(local, reg, opts...)
	t.Cleanup(func() {
		_ = s.Close()
		_ = remote.Close()
	})
	return s, shellPeer{conn: remote, sc: bufio.NewScanner(remote)}
}

func TestShell_MirrorsSnapshots(t *testing.T) {
	reg, _ := recordingRegistry(t)
	s, peer := startShell(t, reg)

	s.PublishSnapshot(testSnapshot(1))
	out := peer.next(t)
	require.Equal(t, msgMenu, out.Type)
	require.Equal(t, uint64(1), out.Version)
	require.Equal(t, "editor", out.Route)
	require.Len(t, out.Menu, 1)
	file := out.Menu[0]
	require.Equal(t, "submenu", file.Kind)
	require.Equal(t, "file.save", file.Children[0].ActionID)
	require.Equal(t, "CmdOrCtrl+S", file.Children[0].Accelerator)
	require.False(t, file.Children[1].Enabled)
	require.Equal(t, "no generated G-code", file.Children[1].Reason)
	require.Equal(t, "coaster.lbrn", file.Children[2].Children[0].Label)

	// A stale version never overtakes a newer one.
	s.PublishSnapshot(testSnapshot(3))
	s.PublishSnapshot(testSnapshot(2))
	require.Equal(t, uint64(3), peer.next(t).Version)

	peer.send(t, inbound{Type: msgReady})
	require.Equal(t, uint64(3), peer.next(t).Version)
	require.GreaterOrEqual(t, s.Stats().SnapshotsSent, uint64(3))
}

func TestShell_InvokeByPathKeepsGoPayload(t *testing.T) {
	reg, calls := recordingRegistry(t, "file.open-recent", "file.export-gcode", "file.save")
	s, peer := startShell(t, reg)

	s.PublishSnapshot(testSnapshot(1))
	peer.next(t)

	peer.send(t, inbound{Type: msgInvoke, Path: []string{"file", "export-gcode"}})
	peer.send(t, inbound{Type: msgInvoke, Path: []string{"file", "recent", "recent-0"}})

	c := waitCall(t, calls)
	require.Equal(t, "file.open-recent", c.id, "disabled node must not run")
	require.Equal(t, struct{ Path string }{"/jobs/coaster.lbrn"}, c.payload)

	peer.send(t, inbound{Type: msgInvoke, Path: []string{"file/save"}})
	require.Equal(t, "file.save", waitCall(t, calls).id)
}

func TestShell_InvokeByActionID(t *testing.T) {
	reg, calls := recordingRegistry(t, "gallery.open-template")
	_, peer := startShell(t, reg)

	peer.send(t, map[string]any{
		"type":     msgInvoke,
		"actionId": "gallery.open-template",
		"payload":  map[string]any{"file": "coaster.lbrn"},
	})
	c := waitCall(t, calls)
	require.Equal(t, map[string]any{"file": "coaster.lbrn"}, c.payload)
}

func TestShell_SurvivesBadInputAndHandlerPanics(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	reg, calls := recordingRegistry(t, "file.save")
	reg.MustRegister("boom", func(context.Context, any) error { panic("kaput") })
	s, peer := startShell(t, reg, WithLogger(zap.New(core)))

	_, err := peer.conn.Write([]byte("not json\n\n"))
	require.NoError(t, err)
	peer.send(t, inbound{Type: "wiggle"})
	s.DispatchAction(menu.Action{ID: "boom"})
	s.DispatchAction(menu.Action{ID: "nope"})
	s.DispatchAction(menu.Action{ID: "file.save"})

	require.Equal(t, "file.save", waitCall(t, calls).id)
	require.Eventually(t, func() bool {
		return logs.FilterMessage("malformed shell message").Len() == 1 &&
			logs.FilterMessage("unknown shell message").Len() == 1 &&
			logs.FilterMessage("action handler failed").Len() == 1 &&
			logs.FilterMessage("no handler for action").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestShell_CloseIsIdempotent(t *testing.T) {
	reg, _ := recordingRegistry(t)
	local, remote := net.Pipe()
	defer remote.Close()
	s := NewShell(local, reg)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	s.DispatchAction(menu.Action{ID: "late"})
	require.Zero(t, s.Stats().ActionsQueued)
}

func TestBusTransport_DispatchRunsHandler(t *testing.T) {
	b := bus.New(nil, 8)
	defer b.Close()
	reg, calls := recordingRegistry(t, "edit.undo")

	snaps := b.Subscribe(bus.TopicSnapshot)
	tr := NewBusTransport(b, reg, nil)
	defer tr.Close()

	tr.PublishSnapshot(testSnapshot(1))
	select {
	case msg := <-snaps:
		require.Equal(t, uint64(1), msg.Payload.(menu.Snapshot).Version)
	case <-time.After(time.Second):
		t.Fatal("snapshot not mirrored on the bus")
	}
	tr.DispatchAction(menu.Action{ID: "edit.undo", Payload: "x"})
	require.Equal(t, call{id: "edit.undo", payload: "x"}, waitCall(t, calls))
	require.NoError(t, tr.Close())
}

func TestSelect_Bus(t *testing.T) {
	b := bus.New(nil, 8)
	defer b.Close()
	tr, err := Select(context.Background(), Config{}, NewRegistry(), b, nil)
	require.NoError(t, err)
	require.IsType(t, &BusTransport{}, tr)
	require.NoError(t, tr.Close())

	_, err = Select(context.Background(), Config{}, NewRegistry(), nil, nil)
	require.Error(t, err)

	_, err = Select(context.Background(), Config{NativeShell: true}, NewRegistry(), b, nil)
	require.Error(t, err)
}
