// Package rules maps application context to per-node enablement and
// visibility decisions.
package rules

// Context is the slice of application state rules look at.
type Context struct {
	Route             string
	CanUndo           bool
	CanRedo           bool
	SelectionCount    int
	ClipboardCount    int
	HasOutputArtifact bool
	IsDeveloperHost   bool
	MachineConnected  bool
}

// Patch is a partial Context update. Nil fields keep their previous value.
type Patch struct {
	Route             *string
	CanUndo           *bool
	CanRedo           *bool
	SelectionCount    *int
	ClipboardCount    *int
	HasOutputArtifact *bool
	IsDeveloperHost   *bool
	MachineConnected  *bool
}

// Ptr returns a pointer to v, for building patches inline.
func Ptr[T any](v T) *T { return &v }

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// Apply returns c with the non-nil fields of p merged over it.
func (c Context) Apply(p Patch) Context {
	if p.Route != nil {
		c.Route = *p.Route
	}
	if p.CanUndo != nil {
		c.CanUndo = *p.CanUndo
	}
	if p.CanRedo != nil {
		c.CanRedo = *p.CanRedo
	}
	if p.SelectionCount != nil {
		c.SelectionCount = max(*p.SelectionCount, 0)
	}
	if p.ClipboardCount != nil {
		c.ClipboardCount = max(*p.ClipboardCount, 0)
	}
	if p.HasOutputArtifact != nil {
		c.HasOutputArtifact = *p.HasOutputArtifact
	}
	if p.IsDeveloperHost != nil {
		c.IsDeveloperHost = *p.IsDeveloperHost
	}
	if p.MachineConnected != nil {
		c.MachineConnected = *p.MachineConnected
	}
	return c
}
