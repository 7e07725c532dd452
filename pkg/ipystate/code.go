package ipystate

import "github.com/nsstate/ipystate/internal/reducer"

// Code models a notebook cell's compiled body: opaque to the engine
// except for the global names it references but does not own (spec §4.1
// "code objects"; §4.2 "for code objects, additionally add the code's
// referenced global names into the current label set"). Grounded on the
// python original's CodeType reducer (src/main/python/ipystate/impl/
// dispatch/common.py: _reduce_code), simplified to the one field the
// walker actually consumes plus a name for diagnostics.
type Code struct {
	Name    string
	Globals []string
}

// ReferencedGlobals satisfies internal/walker's codeObject duck-typed
// interface. Declared on the value receiver so it promotes to *Code too —
// the walker only ever sees code objects by pointer (see reduceCode),
// since a bare struct value carries no object identity for the walker to
// hang a label set on.
func (c Code) ReferencedGlobals() []string {
	return append([]string(nil), c.Globals...)
}

func reduceCode(v any) (reducer.Reduction, error) {
	c := v.(*Code)

	globals := make([]any, len(c.Globals))
	for i, g := range c.Globals {
		globals[i] = g
	}

	return reducer.Reduction{
		Kind:        reducer.Compound,
		Constructor: ctorCode,
		Args:        []any{c.Name},
		ListItems:   globals,
	}, nil
}

func buildCode(args []any, _ any, listItems []any, _ []reducer.DictItem) (any, error) {
	name, _ := args[0].(string)

	globals := make([]string, len(listItems))
	for i, g := range listItems {
		globals[i], _ = g.(string)
	}

	return &Code{Name: name, Globals: globals}, nil
}

const ctorCode reducer.ConstructorID = "ipystate.code"
