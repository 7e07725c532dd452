// Package walker implements the reference walker / component analyzer:
// it traverses the object graph reachable from a namespace's root
// variables using the reducer dispatch, and computes the partition of
// root names into connected components (spec §4.2).
package walker

import (
	"log/slog"
	"reflect"
	"sort"

	"github.com/nsstate/ipystate/internal/objectid"
	"github.com/nsstate/ipystate/internal/reducer"
)

// defaultSubtreeLimit is the per-root traversal node cap used unless a
// full walk is requested (spec §4.2 "Termination bound").
const defaultSubtreeLimit = 1000

// Component is a set of variable names whose reachable object graphs share
// at least one object, returned sorted for deterministic output.
type Component []string

// codeObject is implemented by values that model a code/function body and
// carry unresolved global references, e.g. ipystate.Code. Detected by duck
// typing so this package need not import the domain container types.
type codeObject interface {
	ReferencedGlobals() []string
}

// Walker computes component partitions over a namespace's root variables.
type Walker struct {
	Dispatch     *reducer.Dispatch
	Logger       *slog.Logger
	SubtreeLimit int

	// Namespace, if set, is treated as an opaque leaf wherever it is
	// encountered during a walk: no label install, no descent. A closure
	// reduction may embed the namespace itself (so the pickler's persistent-id
	// check can fire on it), and without this short-circuit the walker would
	// otherwise claim that one shared pointer permanently, merging every root
	// holding such a closure into a single component.
	Namespace any
}

// New returns a Walker using dispatch for reduction and logger for the
// skip-and-continue error policy (spec §7). A nil logger discards.
func New(dispatch *reducer.Dispatch, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Walker{Dispatch: dispatch, Logger: logger, SubtreeLimit: defaultSubtreeLimit}
}

// walkState is the per-walk scratch shared across all root traversals.
type walkState struct {
	objectLabels map[uintptr]map[string]struct{}
	scratch      *objectid.Scratch
	limit        int
	fullWalk     bool
	namespaceID  uintptr
	hasNamespace bool
}

// Walk traverses roots and returns the component partition, per spec §4.2.
func (w *Walker) Walk(roots map[string]any, fullWalk bool) []Component {
	st := &walkState{
		objectLabels: make(map[uintptr]map[string]struct{}),
		scratch:      objectid.NewScratch(),
		limit:        w.SubtreeLimit,
		fullWalk:     fullWalk,
	}
	if st.limit <= 0 {
		st.limit = defaultSubtreeLimit
	}

	if w.Namespace != nil {
		if id, ok := objectid.IdentityOf(reflect.ValueOf(w.Namespace)); ok {
			st.namespaceID = id
			st.hasNamespace = true
		}
	}

	names := make([]string, 0, len(roots))
	for name := range roots {
		names = append(names, name)
	}

	sort.Strings(names)

	labelSets := make([]map[string]struct{}, 0, len(names))

	for _, name := range names {
		labelsFound := map[string]struct{}{name: {}}

		func() {
			defer func() {
				if r := recover(); r != nil {
					w.Logger.Warn("walker: root traversal aborted", "root", name, "panic", r)
				}
			}()

			nodes := 0
			w.visit(reflect.ValueOf(roots[name]), labelsFound, name, st, &nodes)
		}()

		labelSets = append(labelSets, labelsFound)
	}

	return w.finish(names, labelSets)
}

// visit implements one step of the recursive walk over a single root.
func (w *Walker) visit(rv reflect.Value, labelsFound map[string]struct{}, currentLabel string, st *walkState, nodes *int) {
	if !rv.IsValid() {
		return
	}

	if !st.fullWalk {
		*nodes++
		if *nodes > st.limit {
			w.Logger.Debug("walker: subtree limit exceeded", "root", currentLabel, "limit", st.limit)

			return
		}
	}

	// Only pointer/slice/map/chan/func/unsafe.Pointer kinds carry identity
	// (objectid.IdentityOf); value kinds with no identity (structs, arrays,
	// the true scalar constants) still get reduced and descended into below
	// — there is simply no revisit shortcut or label-set install possible
	// for them, since two separately-constructed Go values are never "the
	// same object" the way two reads of the same pointer are.
	id, hasIdentity := objectid.IdentityOf(rv)
	if hasIdentity && st.hasNamespace && id == st.namespaceID {
		return
	}

	if hasIdentity {
		if existing, ok := st.objectLabels[id]; ok {
			for name := range existing {
				labelsFound[name] = struct{}{}
			}

			existing[currentLabel] = struct{}{}

			return
		}

		st.objectLabels[id] = labelsFound
		st.scratch.Hold(id, rv.Interface())
	}

	fn, ok := w.Dispatch.Lookup(rv.Interface())
	if !ok {
		w.Logger.Warn("walker: no reducer registered for type", "root", currentLabel, "type", rv.Type())

		return
	}

	red, err := fn(rv.Interface())
	if err != nil {
		w.Logger.Warn("walker: reducer failed", "root", currentLabel, "type", rv.Type(), "error", err)

		return
	}

	if red.Kind != reducer.Compound {
		// Constant/GlobalRef values never descend, so unlike Compound they
		// must not stay claimed: two roots sharing the same module or the
		// same constant bytes are still disjoint components.
		if hasIdentity {
			delete(st.objectLabels, id)
		}

		return
	}

	for _, child := range red.Args {
		w.visit(reflect.ValueOf(child), labelsFound, currentLabel, st, nodes)
	}

	if red.State != nil {
		w.visit(reflect.ValueOf(red.State), labelsFound, currentLabel, st, nodes)
	}

	for _, child := range red.ListItems {
		w.visit(reflect.ValueOf(child), labelsFound, currentLabel, st, nodes)
	}

	for _, item := range red.DictItems {
		w.visit(reflect.ValueOf(item.Key), labelsFound, currentLabel, st, nodes)
		w.visit(reflect.ValueOf(item.Value), labelsFound, currentLabel, st, nodes)
	}

	if co, ok := rv.Interface().(codeObject); ok {
		for _, g := range co.ReferencedGlobals() {
			labelsFound[g] = struct{}{}
		}
	}
}

// finish filters every label set to root names, unions sets sharing any
// name via a small union-find, and returns the unique resulting sets.
func (w *Walker) finish(roots []string, labelSets []map[string]struct{}) []Component {
	rootSet := make(map[string]struct{}, len(roots))
	for _, r := range roots {
		rootSet[r] = struct{}{}
	}

	filtered := make([]map[string]struct{}, len(labelSets))

	for i, ls := range labelSets {
		f := make(map[string]struct{})

		for name := range ls {
			if _, ok := rootSet[name]; ok {
				f[name] = struct{}{}
			}
		}

		filtered[i] = f
	}

	parent := make([]int, len(filtered))
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int

	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}

		return i
	}

	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	owner := make(map[string]int)

	for i, f := range filtered {
		for name := range f {
			if j, ok := owner[name]; ok {
				union(i, j)
			} else {
				owner[name] = i
			}
		}
	}

	groups := make(map[int]map[string]struct{})

	for i, f := range filtered {
		root := find(i)
		if groups[root] == nil {
			groups[root] = make(map[string]struct{})
		}

		for name := range f {
			groups[root][name] = struct{}{}
		}
	}

	components := make([]Component, 0, len(groups))

	for _, g := range groups {
		if len(g) == 0 {
			continue
		}

		names := make([]string, 0, len(g))
		for name := range g {
			names = append(names, name)
		}

		sort.Strings(names)
		components = append(components, Component(names))
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})

	return components
}
