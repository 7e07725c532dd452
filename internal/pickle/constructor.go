package pickle

import "github.com/nsstate/ipystate/internal/reducer"

// ConstructorFunc rebuilds a value from the pieces a ReducerFunc yielded:
// the inverse of one reducer.Reduction (spec §4.1 "a tuple (constructor,
// args[, state, list-items, dict-items])").
type ConstructorFunc func(args []any, state any, listItems []any, dictItems []reducer.DictItem) (any, error)

// ConstructorRegistry maps a reducer.ConstructorID to the ConstructorFunc
// that rebuilds it, the deserialization-side counterpart of
// reducer.Dispatch.
type ConstructorRegistry struct {
	fns map[reducer.ConstructorID]ConstructorFunc
}

// NewConstructorRegistry returns an empty registry.
func NewConstructorRegistry() *ConstructorRegistry {
	return &ConstructorRegistry{fns: make(map[reducer.ConstructorID]ConstructorFunc)}
}

// Register installs the builder for id.
func (r *ConstructorRegistry) Register(id reducer.ConstructorID, fn ConstructorFunc) {
	r.fns[id] = fn
}

// Build invokes the registered builder for id, or errUnknownConstructor.
func (r *ConstructorRegistry) Build(
	id reducer.ConstructorID, args []any, state any, listItems []any, dictItems []reducer.DictItem,
) (any, error) {
	fn, ok := r.fns[id]
	if !ok {
		return nil, errUnknownConstructor
	}

	return fn(args, state, listItems, dictItems)
}
