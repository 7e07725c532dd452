package reducer

import (
	"reflect"
	"sync"
)

// constant is a ReducerFunc factory for types that always reduce to a
// Constant leaf: no children, not memoized, unvisited after recording.
func constant(_ any) (Reduction, error) {
	return Reduction{Kind: Constant}, nil
}

// sliceReducer reduces any slice kind to its elements as ListItems.
func sliceReducer(v any) (Reduction, error) {
	rv := reflect.ValueOf(v)

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}

	return Reduction{Kind: Compound, Constructor: "builtins.list", ListItems: items}, nil
}

// mapReducer reduces any map kind to its entries as DictItems.
func mapReducer(v any) (Reduction, error) {
	rv := reflect.ValueOf(v)

	items := make([]DictItem, 0, rv.Len())
	for _, key := range rv.MapKeys() {
		items = append(items, DictItem{Key: key.Interface(), Value: rv.MapIndex(key).Interface()})
	}

	return Reduction{Kind: Compound, Constructor: "builtins.dict", DictItems: items}, nil
}

// structReducer is the generic reflection-based fallback for unregistered
// user struct types: each exported field becomes a named arg, reduced as
// State so the unpickler can rebuild the struct field by field.
func structReducer(v any) (Reduction, error) {
	rv := reflect.ValueOf(v)
	rt := rv.Type()

	state := make(map[string]any, rt.NumField())

	for i := range rt.NumField() {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		state[field.Name] = rv.Field(i).Interface()
	}

	return Reduction{Kind: Compound, Constructor: ConstructorID("struct." + rt.Name()), State: state}, nil
}

// pointerReducer dereferences a pointer and reduces the pointee, so the
// walker's identity bookkeeping sees the pointer itself (for memoization)
// while descending into what it points at.
func pointerReducer(v any) (Reduction, error) {
	rv := reflect.ValueOf(v)
	if rv.IsNil() {
		return Reduction{Kind: Constant}, nil
	}

	return Reduction{Kind: Compound, Constructor: "builtins.pointer", Args: []any{rv.Elem().Interface()}}, nil
}

// DefaultDispatch returns a Dispatch populated with the built-in reducers
// mandated by spec §4.1: numeric/bool/string/[]byte scalars as constants,
// generic slice/map/struct/pointer traversal, and threading primitives as
// constants. Domain-specific container types (tuples, sets, code, module
// objects) are registered separately by pkg/ipystate.RegisterBuiltins, which
// depends on this package rather than the reverse.
func DefaultDispatch() *Dispatch {
	d := NewDispatch()

	for _, k := range []reflect.Kind{
		reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String,
	} {
		d.RegisterKind(k, constant)
	}

	d.RegisterKind(reflect.Slice, sliceReducer)
	d.RegisterKind(reflect.Array, sliceReducer)
	d.RegisterKind(reflect.Map, mapReducer)
	d.RegisterKind(reflect.Struct, structReducer)
	d.RegisterKind(reflect.Ptr, pointerReducer)

	d.Register(reflect.TypeOf([]byte(nil)), constant)
	d.Register(reflect.TypeOf(sync.Mutex{}), constant)
	d.Register(reflect.TypeOf(sync.RWMutex{}), constant)
	d.Register(reflect.TypeOf(sync.WaitGroup{}), constant)

	return d
}
