package ipystate

import (
	"fmt"

	"github.com/nsstate/ipystate/internal/namespace"
	"github.com/nsstate/ipystate/internal/reducer"
)

// Namespace re-exports internal/namespace's variable mapping so a Closure
// implementation outside this package can name the type its ClosureEnv
// returns without importing internal/namespace itself.
type Namespace = namespace.Namespace

// Closure is implemented by values that reduce to a code body plus the
// environment it was captured from (spec §4.1 "function objects ... reduced
// to its code plus environment"; SPEC_FULL.md §7.1). Recognized by the
// dispatch through reducer.RegisterInterface rather than an exact-type
// entry, so any user type modeling a closure-like object gets the same
// treatment FunctionValue does. When globals is the namespace the closure is
// being committed or applied through, internal/pickle's persistent-id hook
// recognizes it by identity and emits a reference instead of walking its
// contents (spec §4.5 "Namespace persistence trick").
type Closure interface {
	ClosureEnv() (code Code, globals *Namespace)
}

// Resolver looks up a variable by name, the minimal surface a
// FunctionValue needs from the namespace hosting it at call time. *Namespace
// satisfies this directly.
type Resolver interface {
	Get(name string) (any, bool)
}

// FunctionValue models a user function object: its code plus, once it has
// round-tripped through a commit or apply, the namespace it closes over.
// Grounded on the python original's function reducer (dispatch/common.py:
// _reduce_func), which passes only func.__code__ to the constructor and
// explicitly withholds __globals__ "to avoid grabbing function's scope" —
// captured globals are resolved dynamically against whatever namespace the
// function is later called against, never serialized as part of the
// function's own payload. Go cannot reconstruct an arbitrary closure body
// from bytes, so Call models the one operation spec.md's testable property
// 2 actually exercises: returning the current value of the first
// referenced global.
type FunctionValue struct {
	Code    *Code
	Globals *Namespace
}

// ClosureEnv satisfies Closure.
func (f *FunctionValue) ClosureEnv() (Code, *Namespace) {
	var code Code
	if f.Code != nil {
		code = *f.Code
	}

	return code, f.Globals
}

// Call resolves Code's first referenced global against env. Prefers the
// Resolver passed in, falling back to the namespace captured through
// ClosureEnv when env is nil.
func (f *FunctionValue) Call(env Resolver) (any, error) {
	if f.Code == nil || len(f.Code.Globals) == 0 {
		return nil, nil
	}

	if env == nil && f.Globals != nil {
		env = f.Globals
	}

	if env == nil {
		return nil, fmt.Errorf("ipystate: function %s: no environment to resolve globals against", f.Code.Name)
	}

	name := f.Code.Globals[0]

	v, ok := env.Get(name)
	if !ok {
		return nil, fmt.Errorf("ipystate: function %s: global %q not bound", f.Code.Name, name)
	}

	return v, nil
}

// matchClosure is the reducer.InterfaceMatcher installed by RegisterBuiltins
// so any Closure implementation, not just FunctionValue, dispatches through
// reduceClosure.
func matchClosure(v any) (reducer.ReducerFunc, bool) {
	if _, ok := v.(Closure); ok {
		return reduceClosure, true
	}

	return nil, false
}

func reduceClosure(v any) (reducer.Reduction, error) {
	c, ok := v.(Closure)
	if !ok {
		return reducer.Reduction{}, fmt.Errorf("ipystate: %T: %w", v, reducer.ErrUnreducible)
	}

	code, globals := c.ClosureEnv()

	red := reducer.Reduction{
		Kind:        reducer.Compound,
		Constructor: ctorFunction,
		Args:        []any{&code},
	}

	if globals != nil {
		red.State = globals
	}

	return red, nil
}

func buildFunction(args []any, state any, _ []any, _ []reducer.DictItem) (any, error) {
	code, _ := args[0].(*Code)
	globals, _ := state.(*Namespace)

	return &FunctionValue{Code: code, Globals: globals}, nil
}

const ctorFunction reducer.ConstructorID = "ipystate.function"
