package ipystate

import (
	"iter"
	"log/slog"

	"github.com/nsstate/ipystate/internal/change"
	"github.com/nsstate/ipystate/internal/changedetector"
	"github.com/nsstate/ipystate/internal/namespace"
	"github.com/nsstate/ipystate/internal/pickle"
	"github.com/nsstate/ipystate/internal/walker"
)

// Engine binds one Namespace to a reducer dispatch, constructor registry,
// and primitive formatter, exposing the public contract of spec §4.6 as a
// single handle: Get/Set/Remove honor the armed flag, Commit runs one
// transaction's worth of the incremental commit algorithm, and Apply
// replays an AtomicChange produced by another Engine instance.
type Engine struct {
	ns           *namespace.Namespace
	sm           *namespace.StateManager
	constructors *pickle.ConstructorRegistry
	formatter    DefaultFormatter
}

// New returns an Engine over a fresh, empty namespace. A nil persistable
// predicate admits every name; a nil logger discards.
func New(persistable PersistablePredicate, logger *slog.Logger) *Engine {
	dispatch, constructors := NewReducers()
	ns := namespace.New(persistable)
	formatter := DefaultFormatter{}
	sm := namespace.NewStateManager(ns, dispatch, formatter, changedetector.DefaultHasherRegistry(), logger)

	return &Engine{ns: ns, sm: sm, constructors: constructors, formatter: formatter}
}

// Namespace returns the namespace this Engine commits and applies against,
// so a Closure implementation can capture it as its environment and be
// recognized by the persistent-id hook on commit (spec §4.5).
func (e *Engine) Namespace() *Namespace { return e.ns }

// Get returns the value bound to name.
func (e *Engine) Get(name string) (any, bool) { return e.ns.Get(name) }

// Set assigns value to name.
func (e *Engine) Set(name string, value any) { e.ns.Set(name, value) }

// Remove deletes name from the namespace.
func (e *Engine) Remove(name string) { e.ns.Remove(name) }

// SetFullWalk toggles the unbounded walk used for an explicit resync
// commit (spec §4.2 "a full walk disables the cap").
func (e *Engine) SetFullWalk(full bool) { e.sm.SetFullWalk(full) }

// Commit freezes the current transaction and returns a lazy sequence of
// atomic changes, per spec §4.6. The caller must not mutate the namespace
// while iterating.
func (e *Engine) Commit() iter.Seq[change.AtomicChange] {
	snap := e.ns.StartTransaction()

	return e.sm.Commit(snap)
}

// Components returns the component partition from the most recent Commit.
func (e *Engine) Components() []walker.Component { return e.sm.Partition() }

// DetectorSnapshot returns a copy of the underlying change detector's
// stored digest table, so a host can checkpoint this Engine's classification
// state across a process restart.
func (e *Engine) DetectorSnapshot() map[string]uint64 { return e.sm.DetectorSnapshot() }

// RestoreDetector replaces the underlying change detector's digest table
// with a previously captured snapshot.
func (e *Engine) RestoreDetector(snapshot map[string]uint64) { e.sm.RestoreDetector(snapshot) }

// Apply replays ac against this Engine's namespace, using this Engine's
// constructor registry and formatter as the decoder.
func (e *Engine) Apply(ac change.AtomicChange) error {
	ctx := change.ApplyContext{
		Constructors: e.constructors,
		Decoder:      e.formatter,
		Namespace:    e.ns,
	}

	return ac.Apply(e.ns, ctx)
}
