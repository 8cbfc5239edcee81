// Package host plays the application side of the command tree: it registers
// a handler for every action id, keeps a small model of the open project and
// feeds the resulting context changes back through the state store.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jask/menutree/internal/appmenu"
	"github.com/jask/menutree/internal/rules"
	"github.com/jask/menutree/internal/sections"
	"github.com/jask/menutree/internal/service"
	"github.com/jask/menutree/internal/statestore"
	"github.com/jask/menutree/internal/transport"
)

// ErrNoPath is returned by open handlers whose payload names no file.
var ErrNoPath = errors.New("no file chosen")

const defaultJobDuration = 3 * time.Second

// Submitter queues state updates. *statestore.Store implements it.
type Submitter interface {
	Submit(ctx context.Context, u statestore.Update) error
}

// project is the open document as far as the menu cares.
type project struct {
	open      bool
	objects   int
	selected  int
	clipboard int
	undo      int
	redo      int
	artifact  bool
	connected bool
	running   bool
}

// Session owns the project model. Handlers may run concurrently.
type Session struct {
	Store  Submitter
	Recent *service.RecentFiles
	Log    *zap.Logger
	// Notify shows a one-line message to the user. Optional; guarded by mu
	// once the session is registered, see Attach.
	Notify func(string)
	// Quit stops the host. Optional; see Attach.
	Quit func()
	// JobDuration is how long a simulated job keeps the menu suspended.
	JobDuration time.Duration

	mu   sync.Mutex
	proj project
	jobs sync.WaitGroup
}

func (s *Session) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// Attach sets Notify and Quit. Safe while handlers run.
func (s *Session) Attach(notify func(string), quit func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notify = notify
	s.Quit = quit
}

func (s *Session) notify(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.logger().Info(msg)
	s.mu.Lock()
	fn := s.Notify
	s.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// Register binds every action the application template and its dynamic
// sections reference.
func (s *Session) Register(reg *transport.Registry) error {
	handlers := map[string]transport.Handler{
		appmenu.ActionAbout:       s.say("menutree: command tree host"),
		appmenu.ActionPreferences: s.say("preferences live in the config file"),
		appmenu.ActionQuit:        s.quit,
		appmenu.ActionManual:      s.say("manual: F10 opens the menu bar"),

		appmenu.ActionNew:            s.newProject,
		appmenu.ActionOpen:           s.openFile,
		sections.ActionOpenRecent:    s.openFile,
		appmenu.ActionClearRecent:    s.clearRecent,
		sections.ActionOpenTemplate:  s.openTemplate,
		appmenu.ActionSave:           s.say("project saved"),
		appmenu.ActionSaveAs:         s.say("project saved under a new name"),
		appmenu.ActionImport:         s.edit("import", importObject),
		appmenu.ActionExportModels:   s.edit("export models", generateArtifact),
		appmenu.ActionExportGCode:    s.say("G-code exported"),
		appmenu.ActionUndo:           s.edit("undo", undo),
		appmenu.ActionRedo:           s.edit("redo", redo),
		appmenu.ActionCut:            s.edit("cut", cut),
		appmenu.ActionCopy:           s.edit("copy", copySelection),
		appmenu.ActionPaste:          s.edit("paste", paste),
		appmenu.ActionDelete:         s.edit("delete", deleteSelection),
		appmenu.ActionDuplicate:      s.edit("duplicate", duplicate),
		appmenu.ActionSelectAll:      s.edit("select all", selectAll),
		appmenu.ActionConnect:        s.setConnected(true),
		appmenu.ActionDisconnect:     s.setConnected(false),
		appmenu.ActionFrame:          s.say("framing job area"),
		appmenu.ActionStartJob:       s.startJob,
		appmenu.ActionToggleDevTools: s.say("developer tools toggled"),
	}
	for id, h := range handlers {
		if err := reg.Register(id, h); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) say(msg string) transport.Handler {
	return func(context.Context, any) error {
		s.notify("%s", msg)
		return nil
	}
}

func (s *Session) quit(context.Context, any) error {
	s.mu.Lock()
	fn := s.Quit
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

// patchLocked describes the project model as a context patch.
func (s *Session) patchLocked() rules.Patch {
	p := s.proj
	return rules.Patch{
		CanUndo:           rules.Ptr(p.undo > 0),
		CanRedo:           rules.Ptr(p.redo > 0),
		SelectionCount:    rules.Ptr(p.selected),
		ClipboardCount:    rules.Ptr(p.clipboard),
		HasOutputArtifact: rules.Ptr(p.artifact),
		MachineConnected:  rules.Ptr(p.connected),
	}
}

func (s *Session) submit(ctx context.Context, u statestore.Update) error {
	if err := s.Store.Submit(ctx, u); err != nil {
		return fmt.Errorf("submit %s: %w", u.Name, err)
	}
	return nil
}

// load replaces the project and moves the host to the editor.
func (s *Session) load(ctx context.Context, objects int) error {
	s.mu.Lock()
	s.proj = project{open: true, objects: objects, clipboard: s.proj.clipboard, connected: s.proj.connected}
	p := s.patchLocked()
	s.mu.Unlock()
	p.Route = rules.Ptr(appmenu.RouteEditor)
	return s.submit(ctx, statestore.ContextChanged(p))
}

func (s *Session) newProject(ctx context.Context, _ any) error {
	if err := s.load(ctx, 0); err != nil {
		return err
	}
	s.notify("new project")
	return nil
}

func (s *Session) openFile(ctx context.Context, payload any) error {
	f, err := decode[sections.RecentFile](payload)
	if err != nil {
		return err
	}
	if f.Path == "" {
		return ErrNoPath
	}
	if s.Recent != nil {
		if err := s.Recent.Opened(ctx, f.Path, f.Name); err != nil {
			return err
		}
	}
	if err := s.load(ctx, 1); err != nil {
		return err
	}
	s.notify("opened %s", f.DisplayName())
	return nil
}

func (s *Session) clearRecent(ctx context.Context, _ any) error {
	if s.Recent == nil {
		return nil
	}
	if err := s.Recent.Clear(ctx); err != nil {
		return err
	}
	s.notify("recent files cleared")
	return nil
}

func (s *Session) openTemplate(ctx context.Context, payload any) error {
	ref, err := decode[sections.TemplateRef](payload)
	if err != nil {
		return err
	}
	if err := s.load(ctx, 1); err != nil {
		return err
	}
	s.notify("opened template %q from %s", ref.Title, ref.Series)
	return nil
}

// edit applies op to the project and publishes the new context.
func (s *Session) edit(name string, op func(*project)) transport.Handler {
	return func(ctx context.Context, _ any) error {
		s.mu.Lock()
		if !s.proj.open {
			s.mu.Unlock()
			s.logger().Debug("edit without a project", zap.String("op", name))
			return nil
		}
		op(&s.proj)
		p := s.patchLocked()
		s.mu.Unlock()
		return s.submit(ctx, statestore.ContextChanged(p))
	}
}

func importObject(p *project) {
	p.objects++
	p.changed()
}

func generateArtifact(p *project) { p.artifact = p.objects > 0 }

func undo(p *project) {
	if p.undo > 0 {
		p.undo--
		p.redo++
		p.artifact = false
	}
}

func redo(p *project) {
	if p.redo > 0 {
		p.redo--
		p.undo++
		p.artifact = false
	}
}

func cut(p *project) {
	if p.selected == 0 {
		return
	}
	p.clipboard = p.selected
	p.objects -= p.selected
	p.selected = 0
	p.changed()
}

func copySelection(p *project) {
	if p.selected > 0 {
		p.clipboard = p.selected
	}
}

func paste(p *project) {
	if p.clipboard == 0 {
		return
	}
	p.objects += p.clipboard
	p.selected = p.clipboard
	p.changed()
}

func deleteSelection(p *project) {
	if p.selected == 0 {
		return
	}
	p.objects -= p.selected
	p.selected = 0
	p.changed()
}

func duplicate(p *project) {
	if p.selected == 0 {
		return
	}
	p.objects += p.selected
	p.changed()
}

func selectAll(p *project) { p.selected = p.objects }

// changed records an undoable edit. It invalidates generated output.
func (p *project) changed() {
	p.undo++
	p.redo = 0
	p.artifact = false
}

func (s *Session) setConnected(on bool) transport.Handler {
	return func(ctx context.Context, _ any) error {
		s.mu.Lock()
		s.proj.connected = on
		s.mu.Unlock()
		if err := s.submit(ctx, statestore.ConnectivityChanged(on)); err != nil {
			return err
		}
		if on {
			s.notify("machine connected")
		} else {
			s.notify("machine disconnected")
		}
		return nil
	}
}

// startJob suspends the menu for the duration of a simulated job on the
// printing route.
func (s *Session) startJob(ctx context.Context, _ any) error {
	s.mu.Lock()
	if s.proj.running {
		s.mu.Unlock()
		return nil
	}
	s.proj.running = true
	s.mu.Unlock()

	if err := s.submit(ctx, statestore.RouteChanged(appmenu.RoutePrinting)); err != nil {
		return err
	}
	if err := s.submit(ctx, statestore.Suspend()); err != nil {
		return err
	}
	s.notify("job running")

	d := s.JobDuration
	if d <= 0 {
		d = defaultJobDuration
	}
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
		s.mu.Lock()
		s.proj.running = false
		s.mu.Unlock()
		// The job context may be gone; the resume still has to land.
		bg := context.WithoutCancel(ctx)
		if err := s.submit(bg, statestore.Resume()); err != nil {
			s.logger().Warn("resume after job", zap.Error(err))
			return
		}
		if err := s.submit(bg, statestore.RouteChanged(appmenu.RouteEditor)); err != nil {
			s.logger().Warn("route after job", zap.Error(err))
			return
		}
		s.notify("job finished")
	}()
	return nil
}

// Wait blocks until every running job has resumed the menu.
func (s *Session) Wait() {
	s.jobs.Wait()
}

// decode accepts a payload carried by a node or the JSON object sent by a
// shell process.
func decode[T any](payload any) (T, error) {
	var out T
	switch v := payload.(type) {
	case nil:
		return out, nil
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
		return out, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return out, fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}
