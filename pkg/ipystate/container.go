// Package ipystate is the public facade over the incremental, component-
// aware state serialization engine: it supplies the domain container
// types (Tuple, Set, FrozenSet, Code, Module, FunctionValue), a default
// primitive formatter, and RegisterBuiltins, which wires all of the above
// into a reducer.Dispatch and a pickle.ConstructorRegistry.
package ipystate

import (
	"reflect"

	"github.com/nsstate/ipystate/internal/objectid"
	"github.com/nsstate/ipystate/internal/reducer"
)

// Tuple models an immutable ordered sequence (spec §4.1 "tuples"). Unlike
// a plain Go slice, its reducer special-cases the case where every element
// is itself constant: spec §4.2 mandates treating such a tuple as a
// constant leaf rather than a compound node, so it is never memoized or
// revisited.
type Tuple []any

func reduceTuple(v any) (reducer.Reduction, error) {
	t := v.(Tuple)

	if allConstant(t) {
		return reducer.Reduction{Kind: reducer.Constant}, nil
	}

	return reducer.Reduction{Kind: reducer.Compound, Constructor: ctorTuple, ListItems: []any(t)}, nil
}

func buildTuple(_ []any, _ any, listItems []any, _ []reducer.DictItem) (any, error) {
	return Tuple(append([]any(nil), listItems...)), nil
}

// allConstant reports whether every element of vs is nil or a value to
// which objectid.IdentityOf assigns no id (bool, int, float, string and
// the like). A []byte element is a slice and has an identity, so a tuple
// holding bytes is not treated as constant.
func allConstant(vs []any) bool {
	for _, v := range vs {
		if v == nil {
			continue
		}

		if _, ok := objectid.IdentityOf(reflect.ValueOf(v)); ok {
			return false
		}
	}

	return true
}

// Set models a mutable unordered collection (spec §4.1 "sets").
type Set struct {
	items []any
}

// NewSet returns a Set holding values, first-seen order preserved for
// deterministic serialization.
func NewSet(values ...any) *Set {
	return &Set{items: append([]any(nil), values...)}
}

// Items returns the set's members in insertion order.
func (s *Set) Items() []any { return append([]any(nil), s.items...) }

// Add inserts v, ignoring duplicates by shallow equality when v is
// comparable.
func (s *Set) Add(v any) {
	for _, existing := range s.items {
		if existing == v {
			return
		}
	}

	s.items = append(s.items, v)
}

func reduceSet(v any) (reducer.Reduction, error) {
	s := v.(*Set)

	return reducer.Reduction{Kind: reducer.Compound, Constructor: ctorSet, ListItems: s.Items()}, nil
}

func buildSet(_ []any, _ any, listItems []any, _ []reducer.DictItem) (any, error) {
	return NewSet(listItems...), nil
}

// FrozenSet is Set's immutable counterpart (spec §4.1 "frozensets"): same
// reduction shape, distinct constructor so round-tripping preserves
// mutability.
type FrozenSet struct {
	items []any
}

// NewFrozenSet returns a FrozenSet holding values.
func NewFrozenSet(values ...any) *FrozenSet {
	return &FrozenSet{items: append([]any(nil), values...)}
}

// Items returns the frozen set's members in insertion order.
func (s *FrozenSet) Items() []any { return append([]any(nil), s.items...) }

func reduceFrozenSet(v any) (reducer.Reduction, error) {
	s := v.(*FrozenSet)

	return reducer.Reduction{Kind: reducer.Compound, Constructor: ctorFrozenSet, ListItems: s.Items()}, nil
}

func buildFrozenSet(_ []any, _ any, listItems []any, _ []reducer.DictItem) (any, error) {
	return NewFrozenSet(listItems...), nil
}

const (
	ctorTuple     reducer.ConstructorID = "ipystate.tuple"
	ctorSet       reducer.ConstructorID = "ipystate.set"
	ctorFrozenSet reducer.ConstructorID = "ipystate.frozenset"
)
