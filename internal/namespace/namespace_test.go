package namespace_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsstate/ipystate/internal/change"
	"github.com/nsstate/ipystate/internal/changedetector"
	"github.com/nsstate/ipystate/internal/namespace"
	"github.com/nsstate/ipystate/internal/reducer"
)

func hidePrivate(name string) bool {
	return len(name) == 0 || name[0] != '_'
}

type stubFormatter struct{}

func (stubFormatter) IsPrimitive(v any) bool {
	switch v.(type) {
	case int, int64, string, bool, float64:
		return true
	default:
		return false
	}
}

func (stubFormatter) Repr(v any) ([]byte, string, error) {
	return []byte(plainRepr(v)), "primitive", nil
}

func plainRepr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		return "repr"
	}
}

func TestNamespace_SetThenGetReturnsValue(t *testing.T) {
	t.Parallel()

	ns := namespace.New(nil)
	ns.Set("x", 1)

	v, ok := ns.Get("x")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestNamespace_DisarmSuppressesDirtyTracking(t *testing.T) {
	t.Parallel()

	ns := namespace.New(nil)
	ns.Disarm()
	ns.Set("x", 1)
	ns.Arm()

	snap := ns.StartTransaction()

	sm := namespace.NewStateManager(ns, reducer.DefaultDispatch(), stubFormatter{}, changedetector.DefaultHasherRegistry(), nil)

	var changes int
	for range sm.Commit(snap) {
		changes++
	}

	assert.Zero(t, changes, "a disarmed write must not appear dirty on the next commit")
}

func TestNamespace_RemoveMarksTouchedAndDeleted(t *testing.T) {
	t.Parallel()

	ns := namespace.New(nil)
	ns.Set("x", 1)
	ns.Remove("x")

	snap := ns.StartTransaction()

	sm := namespace.NewStateManager(ns, reducer.DefaultDispatch(), stubFormatter{}, changedetector.DefaultHasherRegistry(), nil)

	var removed bool
	for ac := range sm.Commit(snap) {
		if _, ok := ac.(*change.RemoveChange); ok {
			removed = true
		}
	}

	assert.True(t, removed)
}

func TestNamespace_RootsFiltersNonPersistableNames(t *testing.T) {
	t.Parallel()

	ns := namespace.New(hidePrivate)
	ns.Set("_hidden", 1)
	ns.Set("visible", 2)

	roots := ns.Roots()
	assert.NotContains(t, roots, "_hidden")
	assert.Contains(t, roots, "visible")
}

func TestStateManager_CommitEmitsPrimitiveForFreshVariable(t *testing.T) {
	t.Parallel()

	ns := namespace.New(nil)
	sm := namespace.NewStateManager(ns, reducer.DefaultDispatch(), stubFormatter{}, changedetector.DefaultHasherRegistry(), slog.New(slog.DiscardHandler))

	ns.Set("x", "hello")
	snap := ns.StartTransaction()

	var got []change.AtomicChange
	for ac := range sm.Commit(snap) {
		got = append(got, ac)
	}

	require.Len(t, got, 1)
	pc, ok := got[0].(*change.PrimitiveChange)
	require.True(t, ok)
	assert.Equal(t, "x", pc.Var.Name)
}

func TestStateManager_SecondCommitWithNoTouchesEmitsNothing(t *testing.T) {
	t.Parallel()

	ns := namespace.New(nil)
	sm := namespace.NewStateManager(ns, reducer.DefaultDispatch(), stubFormatter{}, changedetector.DefaultHasherRegistry(), nil)

	ns.Set("x", "hello")
	snap1 := ns.StartTransaction()
	for range sm.Commit(snap1) {
	}

	// Nothing was read or written since the previous commit drained the
	// dirty sets, so there is nothing to re-dump.
	snap2 := ns.StartTransaction()

	var got []change.AtomicChange
	for ac := range sm.Commit(snap2) {
		got = append(got, ac)
	}

	assert.Empty(t, got, "a commit with an empty dirty set must emit nothing")
}

func TestStateManager_ComponentWithUnchangedPickledChunkIsSkipped(t *testing.T) {
	t.Parallel()

	ns := namespace.New(nil)
	sm := namespace.NewStateManager(ns, reducer.DefaultDispatch(), stubFormatter{}, changedetector.DefaultHasherRegistry(), nil)

	shared := []int{1, 2, 3}
	ns.Set("a", shared)
	ns.Set("b", shared)

	snap1 := ns.StartTransaction()
	for range sm.Commit(snap1) {
	}

	// Re-read both without mutating the shared slice: the component is
	// dirty again, but its pickled bytes hash identically, so the PICKLED
	// classification should suppress the re-emit.
	_, _ = ns.Get("a")
	_, _ = ns.Get("b")
	snap2 := ns.StartTransaction()

	var got []change.AtomicChange
	for ac := range sm.Commit(snap2) {
		got = append(got, ac)
	}

	assert.Empty(t, got, "an unchanged component's pickled chunk must not be re-emitted")
}
