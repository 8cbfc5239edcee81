// Package appmenu is the command tree of the laser control application: the
// static template, its routes and the rule table that drives enablement.
package appmenu

import (
	"github.com/jask/menutree/internal/menu"
	"github.com/jask/menutree/internal/rules"
)

// Routes.
const (
	RouteHome      = "home"
	RouteWorkspace = "workspace"
	RouteEditor    = "editor"
	RoutePrinting  = "printing"
)

// Routes lists every route the application navigates between.
var Routes = []string{RouteHome, RouteWorkspace, RouteEditor, RoutePrinting}

// Node ids. Leaf ids double as rule keys.
const (
	NodeApp     = "app"
	NodeFile    = "file"
	NodeEdit    = "edit"
	NodeMachine = "machine"
	NodeWindow  = "window"
	NodeHelp    = "help"

	NodeAbout       = "about"
	NodePreferences = "preferences"
	NodeQuit        = "quit"

	NodeNew          = "new"
	NodeOpen         = "open"
	NodeRecent       = "recent"
	NodeClearRecent  = "clear-recent"
	NodeSave         = "save"
	NodeSaveAs       = "save-as"
	NodeImport       = "import"
	NodeExportModels = "export-models"
	NodeExportGCode  = "export-gcode"

	NodeUndo      = "undo"
	NodeRedo      = "redo"
	NodeCut       = "cut"
	NodeCopy      = "copy"
	NodePaste     = "paste"
	NodeDelete    = "delete"
	NodeDuplicate = "duplicate"
	NodeSelectAll = "select-all"

	NodeConnect    = "connect"
	NodeDisconnect = "disconnect"
	NodeFrame      = "frame"
	NodeStartJob   = "start-job"

	NodeToggleDevTools = "toggle-devtools"
	NodeCaseLibrary    = "case-library"
	NodeManual         = "manual"
)

// Action ids handled by the host.
const (
	ActionAbout          = "app.about"
	ActionPreferences    = "app.preferences"
	ActionQuit           = "app.quit"
	ActionNew            = "file.new"
	ActionOpen           = "file.open"
	ActionClearRecent    = "file.clear-recent"
	ActionSave           = "file.save"
	ActionSaveAs         = "file.save-as"
	ActionImport         = "file.import"
	ActionExportModels   = "file.export-models"
	ActionExportGCode    = "file.export-gcode"
	ActionUndo           = "edit.undo"
	ActionRedo           = "edit.redo"
	ActionCut            = "edit.cut"
	ActionCopy           = "edit.copy"
	ActionPaste          = "edit.paste"
	ActionDelete         = "edit.delete"
	ActionDuplicate      = "edit.duplicate"
	ActionSelectAll      = "edit.select-all"
	ActionConnect        = "machine.connect"
	ActionDisconnect     = "machine.disconnect"
	ActionFrame          = "machine.frame"
	ActionStartJob       = "machine.start-job"
	ActionToggleDevTools = "window.toggle-devtools"
	ActionManual         = "help.manual"
)

// Template returns a fresh copy of the static command tree for every
// platform. Callers filter it with menu.ForPlatform.
func Template() []menu.Node {
	return []menu.Node{
		menu.Submenu(NodeApp, "menu.app",
			menu.Item(NodeAbout, "menu.app.about", ActionAbout),
			menu.Separator("sep-about"),
			menu.Item(NodePreferences, "menu.app.preferences", ActionPreferences).WithAccelerator("Cmd+,"),
			menu.Separator("sep-quit"),
			menu.Item(NodeQuit, "menu.app.quit", ActionQuit).WithAccelerator("Cmd+Q"),
		).OnlyOn("darwin"),
		menu.Submenu(NodeFile, "menu.file",
			menu.Item(NodeNew, "menu.file.new", ActionNew).WithAccelerator("CmdOrCtrl+N"),
			menu.Item(NodeOpen, "menu.file.open", ActionOpen).WithAccelerator("CmdOrCtrl+O"),
			menu.Submenu(NodeRecent, "menu.file.recent",
				menu.Separator("sep-recent"),
				menu.Item(NodeClearRecent, "menu.file.clear-recent", ActionClearRecent),
			).WithSection(menu.SectionRecentFiles),
			menu.Separator("sep-save"),
			menu.Item(NodeSave, "menu.file.save", ActionSave).WithAccelerator("CmdOrCtrl+S"),
			menu.Item(NodeSaveAs, "menu.file.save-as", ActionSaveAs).WithAccelerator("CmdOrCtrl+Shift+S"),
			menu.Separator("sep-import"),
			menu.Item(NodeImport, "menu.file.import", ActionImport).WithAccelerator("CmdOrCtrl+I"),
			menu.Item(NodeExportModels, "menu.file.export-models", ActionExportModels),
			menu.Item(NodeExportGCode, "menu.file.export-gcode", ActionExportGCode).WithAccelerator("CmdOrCtrl+E"),
			menu.Separator("sep-exit").OnlyOn("linux", "windows"),
			menu.Item(NodeQuit, "menu.file.quit", ActionQuit).WithAccelerator("Ctrl+Q").OnlyOn("linux", "windows"),
		),
		menu.Submenu(NodeEdit, "menu.edit",
			menu.Item(NodeUndo, "menu.edit.undo", ActionUndo).WithAccelerator("CmdOrCtrl+Z"),
			menu.Item(NodeRedo, "menu.edit.redo", ActionRedo).WithAccelerator("CmdOrCtrl+Shift+Z"),
			menu.Separator("sep-clipboard"),
			menu.Item(NodeCut, "menu.edit.cut", ActionCut).WithAccelerator("CmdOrCtrl+X"),
			menu.Item(NodeCopy, "menu.edit.copy", ActionCopy).WithAccelerator("CmdOrCtrl+C"),
			menu.Item(NodePaste, "menu.edit.paste", ActionPaste).WithAccelerator("CmdOrCtrl+V"),
			menu.Item(NodeDelete, "menu.edit.delete", ActionDelete).WithAccelerator("Delete"),
			menu.Item(NodeDuplicate, "menu.edit.duplicate", ActionDuplicate).WithAccelerator("CmdOrCtrl+D"),
			menu.Separator("sep-select"),
			menu.Item(NodeSelectAll, "menu.edit.select-all", ActionSelectAll).WithAccelerator("CmdOrCtrl+A"),
		),
		menu.Submenu(NodeMachine, "menu.machine",
			menu.Item(NodeConnect, "menu.machine.connect", ActionConnect),
			menu.Item(NodeDisconnect, "menu.machine.disconnect", ActionDisconnect),
			menu.Separator("sep-job"),
			menu.Item(NodeFrame, "menu.machine.frame", ActionFrame).WithAccelerator("F5"),
			menu.Item(NodeStartJob, "menu.machine.start-job", ActionStartJob).WithAccelerator("F6"),
		),
		menu.Submenu(NodeWindow, "menu.window",
			menu.Item(NodeToggleDevTools, "menu.window.devtools", ActionToggleDevTools).WithAccelerator("Alt+CmdOrCtrl+I"),
		),
		menu.Submenu(NodeHelp, "menu.help",
			menu.Submenu(NodeCaseLibrary, "menu.help.case-library").WithSection(menu.SectionTemplateGallery),
			menu.Item(NodeManual, "menu.help.manual", ActionManual).WithAccelerator("F1"),
		),
	}
}

const (
	reasonNotEditing   = "only available while editing a project"
	reasonNoHistory    = "nothing to undo"
	reasonNoRedo       = "nothing to redo"
	reasonNoSelection  = "nothing selected"
	reasonNoClipboard  = "clipboard is empty"
	reasonNoArtifact   = "no generated G-code"
	reasonNoMachine    = "no machine connected"
	reasonConnected    = "machine already connected"
	reasonNotDeveloper = "developer tools are disabled"
	reasonNotReady     = "connect a machine and generate G-code first"
)

// editingRoutes own a project, a selection and an output artifact.
var editingRoutes = []string{RouteEditor, RoutePrinting}

// Rules returns the rule table for Template.
func Rules() *rules.Table {
	jobReady := rules.All(rules.Connected, rules.HasArtifact)
	var rs []rules.Rule
	edit := []struct {
		node   string
		enable rules.Predicate
		reason string
	}{
		{NodeUndo, rules.CanUndo, reasonNoHistory},
		{NodeRedo, rules.CanRedo, reasonNoRedo},
		{NodeCut, rules.HasSelection, reasonNoSelection},
		{NodeCopy, rules.HasSelection, reasonNoSelection},
		{NodePaste, rules.HasClipboard, reasonNoClipboard},
		{NodeDelete, rules.HasSelection, reasonNoSelection},
		{NodeDuplicate, rules.HasSelection, reasonNoSelection},
		{NodeSelectAll, rules.Always, ""},
		{NodeSave, rules.Always, ""},
		{NodeSaveAs, rules.Always, ""},
		{NodeExportModels, rules.Always, ""},
		{NodeExportGCode, rules.HasArtifact, reasonNoArtifact},
	}
	for _, e := range edit {
		for _, route := range editingRoutes {
			rs = append(rs, rules.Rule{Route: route, NodeID: e.node, Enable: e.enable, Reason: e.reason})
		}
		rs = append(rs, rules.Rule{Route: rules.AnyRoute, NodeID: e.node, Enable: rules.Never, Reason: reasonNotEditing})
	}

	rs = append(rs,
		rules.Rule{NodeID: NodeClearRecent, Enable: rules.Always},
		rules.Rule{NodeID: NodeToggleDevTools, Enable: rules.DeveloperHost, Show: rules.DeveloperHost, Reason: reasonNotDeveloper},
		rules.Rule{NodeID: NodeConnect, Enable: rules.Not(rules.Connected), Reason: reasonConnected},
		rules.Rule{NodeID: NodeDisconnect, Enable: rules.Connected, Reason: reasonNoMachine},
		rules.Rule{Route: RouteWorkspace, NodeID: NodeFrame, Enable: jobReady, Reason: reasonNotReady},
		rules.Rule{Route: RouteWorkspace, NodeID: NodeStartJob, Enable: jobReady, Reason: reasonNotReady},
		rules.Rule{Route: RoutePrinting, NodeID: NodeFrame, Enable: jobReady, Reason: reasonNotReady},
		rules.Rule{Route: RoutePrinting, NodeID: NodeStartJob, Enable: jobReady, Reason: reasonNotReady},
		rules.Rule{NodeID: NodeFrame, Enable: rules.Never, Reason: reasonNoMachine},
		rules.Rule{NodeID: NodeStartJob, Enable: rules.Never, Reason: reasonNoMachine},
	)
	return rules.MustTable(rs...)
}
