package pickle

import "github.com/nsstate/ipystate/internal/reducer"

// DefaultConstructorRegistry returns a ConstructorRegistry that rebuilds
// the generic containers internal/reducer.DefaultDispatch produces:
// builtins.list, builtins.dict, and builtins.pointer. Domain-specific
// constructors (tuples, sets, code/module objects) are registered
// separately by pkg/ipystate.RegisterBuiltins.
func DefaultConstructorRegistry() *ConstructorRegistry {
	r := NewConstructorRegistry()

	r.Register("builtins.list", func(_ []any, _ any, listItems []any, _ []reducer.DictItem) (any, error) {
		out := make([]any, len(listItems))
		copy(out, listItems)

		return out, nil
	})

	r.Register("builtins.dict", func(_ []any, _ any, _ []any, dictItems []reducer.DictItem) (any, error) {
		out := make(map[any]any, len(dictItems))
		for _, item := range dictItems {
			out[item.Key] = item.Value
		}

		return out, nil
	})

	r.Register("builtins.pointer", func(args []any, _ any, _ []any, _ []reducer.DictItem) (any, error) {
		if len(args) == 0 {
			return (*any)(nil), nil
		}

		pointee := args[0]

		return &pointee, nil
	})

	return r
}
