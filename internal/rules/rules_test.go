package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable(
		Rule{Route: "editor", NodeID: "undo", Enable: CanUndo, Reason: "nothing to undo"},
		Rule{Route: AnyRoute, NodeID: "undo", Enable: Never, Reason: "not editing"},
		Rule{Route: "editor", NodeID: "export", Enable: HasArtifact, Reason: "no output"},
		Rule{NodeID: "export", Enable: Never},
		Rule{NodeID: "clear", Enable: Always},
		Rule{NodeID: "devtools", Enable: DeveloperHost, Show: DeveloperHost},
	)
	require.NoError(t, err)
	return tbl
}

func TestNewTable_RejectsDuplicatesAndEmpty(t *testing.T) {
	t.Parallel()
	_, err := NewTable(
		Rule{Route: "editor", NodeID: "undo", Enable: Always},
		Rule{Route: "editor", NodeID: "undo", Enable: Never},
		Rule{Route: "editor", NodeID: "redo"},
		Rule{Route: "editor", Enable: Always},
	)
	require.ErrorIs(t, err, ErrDuplicateRule)
	require.ErrorIs(t, err, ErrEmptyRule)

	// "" and "*" are the same route.
	_, err = NewTable(
		Rule{NodeID: "x", Enable: Always},
		Rule{Route: AnyRoute, NodeID: "x", Enable: Always},
	)
	require.ErrorIs(t, err, ErrDuplicateRule)
}

func TestEvaluate_IsIdempotent(t *testing.T) {
	t.Parallel()
	tbl := testTable(t)
	ctxs := []Context{
		{},
		{Route: "editor", CanUndo: true},
		{Route: "editor", HasOutputArtifact: true, SelectionCount: 3},
		{Route: "home", IsDeveloperHost: true},
	}
	for _, c := range ctxs {
		first := tbl.Evaluate(c)
		for range 5 {
			require.Equal(t, first, tbl.Evaluate(c))
		}
	}
}

func TestEvaluate_RouteScopedFallback(t *testing.T) {
	t.Parallel()
	tbl := testTable(t)

	got := tbl.Evaluate(Context{Route: "editor", CanUndo: true, HasOutputArtifact: false})
	require.Equal(t, map[string]bool{
		"undo":     true,
		"export":   false,
		"clear":    true,
		"devtools": false,
	}, got)

	got = tbl.Evaluate(Context{Route: "workspace", CanUndo: true, HasOutputArtifact: true})
	require.False(t, got["undo"])
	require.False(t, got["export"])
	require.True(t, got["clear"])
}

func TestDecide_ReasonAndUnruledNodes(t *testing.T) {
	t.Parallel()
	tbl := testTable(t)

	ok, reason := tbl.Decide(Context{Route: "editor"}, "undo")
	require.False(t, ok)
	require.Equal(t, "nothing to undo", reason)

	ok, reason = tbl.Decide(Context{Route: "editor"}, "unruled")
	require.True(t, ok)
	require.Empty(t, reason)
}

func TestEvaluateVisibility(t *testing.T) {
	t.Parallel()
	tbl := testTable(t)
	require.False(t, tbl.EvaluateVisibility(Context{})["devtools"])
	require.True(t, tbl.EvaluateVisibility(Context{IsDeveloperHost: true})["devtools"])
	require.True(t, tbl.Visible(Context{}, "undo"))
}

func TestDecide_EnableAndShowFallBackIndependently(t *testing.T) {
	t.Parallel()
	tbl := MustTable(
		Rule{Route: "editor", NodeID: "x", Show: Always},
		Rule{NodeID: "x", Enable: Never, Reason: "not here"},
		Rule{Route: "editor", NodeID: "y", Enable: Always},
		Rule{NodeID: "y", Show: Never},
	)
	ctx := Context{Route: "editor"}

	enabled, reason := tbl.Decide(ctx, "x")
	require.False(t, enabled)
	require.Equal(t, "not here", reason)
	require.True(t, tbl.Visible(ctx, "x"))

	enabled, _ = tbl.Decide(ctx, "y")
	require.True(t, enabled)
	require.False(t, tbl.Visible(ctx, "y"))
}

func TestContextApply_MergesPartialPatch(t *testing.T) {
	t.Parallel()
	base := Context{Route: "home", SelectionCount: 2, CanUndo: true}

	next := base.Apply(Patch{Route: Ptr("editor"), SelectionCount: Ptr(-4)})
	require.Equal(t, "editor", next.Route)
	require.Equal(t, 0, next.SelectionCount)
	require.True(t, next.CanUndo)
	require.Equal(t, "home", base.Route)

	require.True(t, Patch{}.Empty())
	require.False(t, Patch{CanRedo: Ptr(false)}.Empty())
}

func TestCombinators(t *testing.T) {
	t.Parallel()
	c := Context{SelectionCount: 2, ClipboardCount: 1}
	require.True(t, All()(c))
	require.False(t, Any()(c))
	require.True(t, All(HasSelection, HasClipboard)(c))
	require.False(t, All(HasSelection, Connected)(c))
	require.True(t, Any(Connected, HasClipboard)(c))
	require.True(t, Not(Connected)(c))
	require.True(t, SelectionAtLeast(2)(c))
	require.False(t, SelectionAtLeast(3)(c))
}

func TestNilTable(t *testing.T) {
	t.Parallel()
	var tbl *Table
	require.Empty(t, tbl.Evaluate(Context{}))
	ok, _ := tbl.Decide(Context{}, "x")
	require.True(t, ok)
}
