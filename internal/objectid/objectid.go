// Package objectid derives a stable per-traversal identity for runtime
// values, standing in for Python's id() built-in. Go has no universal
// object identity: value types (numbers, strings, bools, arrays, structs
// passed by value) carry none, and are treated as constants by the walker
// (spec §4.2, §9 "cyclic object graphs").
package objectid

import "reflect"

// IdentityOf returns a stable identity for rv for the lifetime of the
// traversal that holds it live, and ok=false when rv's kind has no
// meaningful identity (it must be treated as a constant leaf).
func IdentityOf(rv reflect.Value) (id uintptr, ok bool) {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if rv.IsNil() {
			return 0, false
		}

		return rv.Pointer(), true
	default:
		return 0, false
	}
}

// Scratch holds strong references to every object recorded during one
// walk, keyed by its IdentityOf, so the garbage collector cannot reuse an
// address mid-traversal and corrupt the label-set bookkeeping.
type Scratch struct {
	held map[uintptr]any
}

// NewScratch returns an empty Scratch.
func NewScratch() *Scratch {
	return &Scratch{held: make(map[uintptr]any)}
}

// Hold records v under id, keeping it reachable for the scratch's lifetime.
func (s *Scratch) Hold(id uintptr, v any) {
	s.held[id] = v
}

// Len returns the number of distinct identities held.
func (s *Scratch) Len() int {
	return len(s.held)
}
