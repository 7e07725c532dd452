package ipystate

import (
	"reflect"

	"github.com/nsstate/ipystate/internal/namespace"
	"github.com/nsstate/ipystate/internal/pickle"
	"github.com/nsstate/ipystate/internal/reducer"
)

// ReducerPlugin lets a third party install additional reducers before a
// serialization run starts (spec §4.1 "third-party reducers register by
// replacing entries in the dispatch table").
type ReducerPlugin interface {
	Register(d *reducer.Dispatch)
}

// PersistablePredicate re-exports internal/namespace's predicate type so
// callers outside this module need only import pkg/ipystate.
type PersistablePredicate = namespace.PersistablePredicate

// RegisterBuiltins installs the domain container reducers (Tuple, Set,
// FrozenSet, Code, Module) into dispatch by exact type, plus a Closure
// matcher recognizing FunctionValue and any other ClosureEnv implementation
// by interface, and their matching constructors into constructors.
// internal/reducer.DefaultDispatch and internal/pickle.DefaultConstructorRegistry
// cover everything generic; this function covers everything domain-specific,
// kept here rather than in internal/reducer to avoid an import cycle (those
// packages do not know about this one).
func RegisterBuiltins(dispatch *reducer.Dispatch, constructors *pickle.ConstructorRegistry) {
	dispatch.Register(reflect.TypeOf(Tuple(nil)), reduceTuple)
	dispatch.Register(reflect.TypeOf((*Set)(nil)), reduceSet)
	dispatch.Register(reflect.TypeOf((*FrozenSet)(nil)), reduceFrozenSet)
	dispatch.Register(reflect.TypeOf((*Code)(nil)), reduceCode)
	dispatch.Register(reflect.TypeOf((*Module)(nil)), reduceModule)
	dispatch.RegisterInterface(matchClosure)

	constructors.Register(ctorTuple, buildTuple)
	constructors.Register(ctorSet, buildSet)
	constructors.Register(ctorFrozenSet, buildFrozenSet)
	constructors.Register(ctorCode, buildCode)
	constructors.Register(ctorFunction, buildFunction)
}

// NewReducers returns a reducer.Dispatch and pickle.ConstructorRegistry
// pair with both the generic built-ins (internal/reducer.DefaultDispatch,
// internal/pickle.DefaultConstructorRegistry) and this package's domain
// container reducers/constructors installed, ready to hand to
// internal/namespace.NewStateManager.
func NewReducers() (*reducer.Dispatch, *pickle.ConstructorRegistry) {
	d := reducer.DefaultDispatch()
	c := pickle.DefaultConstructorRegistry()
	RegisterBuiltins(d, c)

	return d, c
}
