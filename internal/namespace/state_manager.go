package namespace

import (
	"iter"
	"log/slog"

	"github.com/nsstate/ipystate/internal/change"
	"github.com/nsstate/ipystate/internal/changedetector"
	"github.com/nsstate/ipystate/internal/reducer"
	"github.com/nsstate/ipystate/internal/serializer"
	"github.com/nsstate/ipystate/internal/walker"
)

// StateManager drives one Namespace's commit cycle: walk, serialize,
// classify, and emit atomic changes (spec §4.6).
type StateManager struct {
	ns       *Namespace
	walker   *walker.Walker
	detector *changedetector.Detector
	serializ *serializer.Serializer

	prevPartition []walker.Component
	fullWalk      bool

	logger *slog.Logger
}

// NewStateManager returns a StateManager for ns, built from a shared
// reducer dispatch, formatter and hasher registry (spec §7.7).
func NewStateManager(
	ns *Namespace,
	dispatch *reducer.Dispatch,
	formatter serializer.PrimitiveFormatter,
	hashers *changedetector.HasherRegistry,
	logger *slog.Logger,
) *StateManager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	w := walker.New(dispatch, logger)
	w.Namespace = ns

	return &StateManager{
		ns:       ns,
		walker:   w,
		detector: changedetector.New(hashers),
		serializ: serializer.New(dispatch, formatter, ns, logger),
		logger:   logger,
	}
}

// SetFullWalk toggles the unbounded walk used for explicit "resync" commits
// (spec §4.2 "full walk disables the subtree limit").
func (sm *StateManager) SetFullWalk(full bool) {
	sm.fullWalk = full
}

// DetectorSnapshot returns a copy of the change detector's stored digest
// table, for checkpointing a hosted namespace across a process restart.
func (sm *StateManager) DetectorSnapshot() map[string]uint64 {
	return sm.detector.Snapshot()
}

// RestoreDetector replaces the change detector's digest table with a
// previously captured snapshot.
func (sm *StateManager) RestoreDetector(snapshot map[string]uint64) {
	sm.detector.Restore(snapshot)
}

// Partition returns the component partition produced by the most recent
// Commit, for callers that need read-only visibility into how names are
// currently grouped (internal/mcpserver's inspect_components tool).
func (sm *StateManager) Partition() []walker.Component {
	out := make([]walker.Component, len(sm.prevPartition))
	copy(out, sm.prevPartition)

	return out
}

// namespaceValues adapts *Namespace to serializer.ValueSource.
type namespaceValues struct{ ns *Namespace }

func (v namespaceValues) Get(name string) (any, bool) {
	v.ns.mu.Lock()
	defer v.ns.mu.Unlock()

	val, ok := v.ns.values[name]

	return val, ok
}

// Commit implements spec §4.6 steps 1-7: compute the dirty set from the
// frozen snapshot, re-walk to get the new partition, serialize the
// affected components, classify each pickled chunk, and emit one
// AtomicChange per decision, as a lazy sequence.
func (sm *StateManager) Commit(snap snapshot) iter.Seq[change.AtomicChange] {
	return func(yield func(change.AtomicChange) bool) {
		dirty := make(map[string]struct{}, len(snap.touched)+len(snap.deleted))

		for name := range snap.touched {
			if sm.ns.persistable(name) {
				dirty[name] = struct{}{}
			}
		}

		for name := range snap.deleted {
			if sm.ns.persistable(name) {
				dirty[name] = struct{}{}
			}
		}

		roots := sm.ns.Roots()

		curr := sm.walker.Walk(roots, sm.fullWalk)

		sm.detector.Begin()
		defer sm.detector.End()

		values := namespaceValues{ns: sm.ns}

		for dump := range sm.serializ.Dump(values, dirty, sm.prevPartition, curr) {
			ac, ok := sm.classify(dump)
			if !ok {
				continue
			}

			if !yield(ac) {
				return
			}
		}

		for _, name := range sm.deletedNames(snap) {
			if !yield(change.NewRemoveChange(name)) {
				return
			}
		}

		sm.prevPartition = curr
		sm.ns.clearDirty()
	}
}

// classify turns one serializer.Dump into an AtomicChange, applying the
// PICKLED-stage classification and the always-emit safety fallback (spec
// §4.6 step 5, Open Question decision in SPEC_FULL.md §12).
func (sm *StateManager) classify(dump serializer.Dump) (change.AtomicChange, bool) {
	switch d := dump.(type) {
	case serializer.PrimitiveDump:
		return change.NewPrimitiveChange(change.VarDecl{Name: d.Var.Name, TypeName: d.Var.TypeName}, d.Payload), true

	case serializer.ComponentDump:
		anyChanged := len(d.SerializedVars) == 0 || len(d.NonSerializedVars) > 0

		for _, sv := range d.SerializedVars {
			c := sm.detector.Classify(changedetector.PICKLED, sv.Name, sv.Chunk)
			if c != changedetector.UNCHANGED {
				anyChanged = true
			}
		}

		if !anyChanged {
			return nil, false
		}

		allVars := make([]change.VarDecl, 0, len(d.AllVars))
		for _, v := range d.AllVars {
			allVars = append(allVars, change.VarDecl{Name: v.Name, TypeName: v.TypeName})
		}

		return change.NewComponentChange(allVars, d.SerializedVars, d.NonSerializedVars), true

	default:
		sm.logger.Warn("namespace: unknown dump kind, skipping")

		return nil, false
	}
}
