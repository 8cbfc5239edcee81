package transport

import (
	"encoding/json"

	"github.com/jask/menutree/internal/menu"
)

// Message types exchanged with the shell, one JSON object per line.
const (
	msgMenu   = "menu"
	msgInvoke = "invoke"
	msgReady  = "ready"
)

type outbound struct {
	Type         string     `json:"type"`
	Version      uint64     `json:"version"`
	Route        string     `json:"route,omitempty"`
	SuspendDepth int        `json:"suspendDepth,omitempty"`
	ActiveID     string     `json:"activeId,omitempty"`
	Menu         []wireNode `json:"menu"`
}

type wireNode struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	LabelKey    string     `json:"labelKey,omitempty"`
	Label       string     `json:"label,omitempty"`
	Accelerator string     `json:"accelerator,omitempty"`
	Enabled     bool       `json:"enabled"`
	Visible     bool       `json:"visible"`
	Active      bool       `json:"active,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	ActionID    string     `json:"actionId,omitempty"`
	Children    []wireNode `json:"children,omitempty"`
}

type inbound struct {
	Type     string          `json:"type"`
	Path     []string        `json:"path,omitempty"`
	ActionID string          `json:"actionId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

func encodeSnapshot(s menu.Snapshot) ([]byte, error) {
	out := outbound{
		Type:         msgMenu,
		Version:      s.Version,
		Route:        s.Route,
		SuspendDepth: s.SuspendDepth,
		ActiveID:     s.ActiveID,
		Menu:         toWire(s.Nodes),
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func toWire(nodes []menu.Node) []wireNode {
	out := make([]wireNode, 0, len(nodes))
	for _, n := range nodes {
		w := wireNode{
			ID:          n.ID,
			Kind:        n.Kind.String(),
			LabelKey:    n.LabelKey,
			Label:       n.Label,
			Accelerator: n.Accelerator,
			Enabled:     n.Enabled,
			Visible:     n.Visible,
			Active:      n.Active,
			Reason:      n.DisabledReason,
		}
		if n.Action != nil {
			w.ActionID = n.Action.ID
		}
		if len(n.Children) > 0 {
			w.Children = toWire(n.Children)
		}
		out = append(out, w)
	}
	return out
}
