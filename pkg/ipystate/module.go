package ipystate

import (
	"github.com/nsstate/ipystate/internal/pickle"
	"github.com/nsstate/ipystate/internal/reducer"
)

// Module models an imported module object: it reduces to an import of the
// module by name rather than traversing its contents (spec §4.1 "module
// objects (reduced to an import of the module)"). Grounded on the python
// original's ModuleType reducer (dispatch/common.py: _reduce_module,
// `importlib.import_module(module.__name__)`).
type Module struct {
	Path string
}

func reduceModule(v any) (reducer.Reduction, error) {
	m := v.(*Module)

	return reducer.Reduction{Kind: reducer.GlobalRef, GlobalModule: m.Path, GlobalName: m.Path}, nil
}

// ResolveModule recovers a Module from an unpickled pickle.GlobalRef,
// the import-by-name sentinel a GlobalRef reduction decodes to (spec
// §4.1 "module objects reduced to an import of the module").
func ResolveModule(v any) (*Module, bool) {
	ref, ok := v.(pickle.GlobalRef)
	if !ok {
		return nil, false
	}

	return &Module{Path: ref.Module}, true
}
