package walker_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsstate/ipystate/internal/reducer"
	"github.com/nsstate/ipystate/internal/walker"
)

func componentFor(t *testing.T, comps []walker.Component, name string) walker.Component {
	t.Helper()

	for _, c := range comps {
		for _, n := range c {
			if n == name {
				return c
			}
		}
	}

	t.Fatalf("no component contains %q", name)

	return nil
}

func TestWalker_DisjointRootsYieldSeparateComponents(t *testing.T) {
	t.Parallel()

	w := walker.New(reducer.DefaultDispatch(), nil)

	roots := map[string]any{
		"a": 1,
		"b": "hello",
	}

	comps := w.Walk(roots, false)

	require.Len(t, comps, 2)
	assert.Equal(t, walker.Component{"a"}, componentFor(t, comps, "a"))
	assert.Equal(t, walker.Component{"b"}, componentFor(t, comps, "b"))
}

func TestWalker_SharedSlicePointerMergesComponents(t *testing.T) {
	t.Parallel()

	w := walker.New(reducer.DefaultDispatch(), nil)

	shared := []int{1, 2, 3}
	roots := map[string]any{
		"a": shared,
		"b": shared,
		"c": 42,
	}

	comps := w.Walk(roots, false)

	require.Len(t, comps, 2)

	ab := componentFor(t, comps, "a")
	assert.ElementsMatch(t, []string{"a", "b"}, []string(ab))

	c := componentFor(t, comps, "c")
	assert.Equal(t, walker.Component{"c"}, c)
}

func TestWalker_TransitiveSharingThroughNestedSlices(t *testing.T) {
	t.Parallel()

	w := walker.New(reducer.DefaultDispatch(), nil)

	shared := []int{1}
	roots := map[string]any{
		"a": [][]int{shared},
		"b": [][]int{shared},
	}

	comps := w.Walk(roots, false)

	require.Len(t, comps, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, []string(comps[0]))
}

type fakeCode struct{ globals []string }

func (f fakeCode) ReferencedGlobals() []string { return f.globals }

func TestWalker_CodeObjectInjectsReferencedGlobals(t *testing.T) {
	t.Parallel()

	d := reducer.DefaultDispatch()
	d.Register(
		reflect.TypeOf((*fakeCode)(nil)),
		func(v any) (reducer.Reduction, error) {
			return reducer.Reduction{Kind: reducer.Compound, Constructor: "fake.code"}, nil
		},
	)

	w := walker.New(d, nil)

	roots := map[string]any{
		"a": "old",
		"f": &fakeCode{globals: []string{"a"}},
	}

	comps := w.Walk(roots, false)

	require.Len(t, comps, 1)
	assert.ElementsMatch(t, []string{"a", "f"}, []string(comps[0]))
}

func TestWalker_SubtreeLimitAbortsDeepChain(t *testing.T) {
	t.Parallel()

	w := walker.New(reducer.DefaultDispatch(), nil)
	w.SubtreeLimit = 3

	type node struct {
		Next *node
	}

	var head *node
	for range 10 {
		head = &node{Next: head}
	}

	roots := map[string]any{"chain": head}

	comps := w.Walk(roots, false)
	require.Len(t, comps, 1)
	assert.Equal(t, walker.Component{"chain"}, comps[0])
}

func TestWalker_SharedConstantBytesDoNotMergeComponents(t *testing.T) {
	t.Parallel()

	w := walker.New(reducer.DefaultDispatch(), nil)

	shared := []byte("same bytes")
	roots := map[string]any{
		"a": shared,
		"b": shared,
	}

	comps := w.Walk(roots, false)

	require.Len(t, comps, 2)
	assert.Equal(t, walker.Component{"a"}, componentFor(t, comps, "a"))
	assert.Equal(t, walker.Component{"b"}, componentFor(t, comps, "b"))
}

// TestWalker_NamespaceFieldIsTreatedAsOpaqueLeaf reproduces the companion
// hazard a future Closure reduction introduces: if a value embeds the
// namespace pointer itself as a child (the way a closure's captured
// environment does, so the pickler's persistent-id hook can recognize it),
// the walker must not claim that shared pointer as a normal identity — doing
// so would permanently merge every root holding such a value into one
// component, the same regression class the disjoint-component fixes above
// address.
func TestWalker_NamespaceFieldIsTreatedAsOpaqueLeaf(t *testing.T) {
	t.Parallel()

	ns := &struct{ marker string }{marker: "shared-namespace"}

	d := reducer.DefaultDispatch()
	d.Register(
		reflect.TypeOf((*struct{ Env any })(nil)),
		func(v any) (reducer.Reduction, error) {
			holder, _ := v.(*struct{ Env any })

			return reducer.Reduction{Kind: reducer.Compound, Constructor: "fake.envholder", State: holder.Env}, nil
		},
	)

	w := walker.New(d, nil)
	w.Namespace = ns

	roots := map[string]any{
		"a": &struct{ Env any }{Env: ns},
		"b": &struct{ Env any }{Env: ns},
	}

	comps := w.Walk(roots, false)

	require.Len(t, comps, 2)
	assert.Equal(t, walker.Component{"a"}, componentFor(t, comps, "a"))
	assert.Equal(t, walker.Component{"b"}, componentFor(t, comps, "b"))
}

type fakeModule struct{ name string }

// TestWalker_SharedGlobalRefDoesNotMergeComponents reproduces spec.md's
// worked example (scenario 1): roots {a: [module]} and {b: [module]}
// sharing one module by identity must still yield two disjoint
// components, since GlobalRef (like Constant) never descends and must
// not leave a revisit-mergeable claim on the shared identity behind.
func TestWalker_SharedGlobalRefDoesNotMergeComponents(t *testing.T) {
	t.Parallel()

	d := reducer.DefaultDispatch()
	d.Register(
		reflect.TypeOf((*fakeModule)(nil)),
		func(v any) (reducer.Reduction, error) {
			m, _ := v.(*fakeModule)

			return reducer.Reduction{Kind: reducer.GlobalRef, GlobalModule: m.name}, nil
		},
	)

	w := walker.New(d, nil)

	sharedModule := &fakeModule{name: "time"}
	roots := map[string]any{
		"a": []any{sharedModule},
		"b": []any{sharedModule},
	}

	comps := w.Walk(roots, false)

	require.Len(t, comps, 2)
	assert.Equal(t, walker.Component{"a"}, componentFor(t, comps, "a"))
	assert.Equal(t, walker.Component{"b"}, componentFor(t, comps, "b"))
}
