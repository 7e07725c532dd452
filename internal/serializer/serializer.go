// Package serializer implements the component serializer (spec §4.5): it
// decides which components of the current partition are affected by a
// transaction's dirty set, orders each affected component's variables, and
// serializes them through a shared per-component pickler and interning
// memo, isolating per-variable failures.
package serializer

import (
	"fmt"
	"iter"
	"log/slog"
	"reflect"
	"sort"

	"github.com/nsstate/ipystate/internal/memo"
	"github.com/nsstate/ipystate/internal/pickle"
	"github.com/nsstate/ipystate/internal/reducer"
	"github.com/nsstate/ipystate/internal/walker"
)

// VarDecl is a (name, type-name) pair, spec §3 "Variable Declaration".
type VarDecl struct {
	Name     string
	TypeName string
}

// SerializedVar is one successfully pickled component member.
type SerializedVar struct {
	Name  string
	Chunk []byte
}

// Dump is the sealed union of the two shapes the serializer yields.
type Dump interface {
	sealed()
}

// PrimitiveDump is emitted for a singleton component holding a primitive
// value, rendered through the PrimitiveFormatter (spec §4.5).
type PrimitiveDump struct {
	Var     VarDecl
	Payload []byte
}

func (PrimitiveDump) sealed() {}

// ComponentDump is emitted for every other affected component.
type ComponentDump struct {
	AllVars           []VarDecl
	SerializedVars    []SerializedVar
	NonSerializedVars []string
}

func (ComponentDump) sealed() {}

// ValueSource resolves a variable name to its live value, as implemented
// by internal/namespace.Namespace. Declared locally to avoid a dependency
// cycle (namespace depends on serializer, not the reverse).
type ValueSource interface {
	Get(name string) (any, bool)
}

// PrimitiveFormatter renders a primitive value to its external form, the
// Go shape of spec §6's "primitive_var_repr" / "is_primitive" hooks.
// Implemented by pkg/ipystate.
type PrimitiveFormatter interface {
	IsPrimitive(v any) bool
	Repr(v any) (data []byte, typeName string, err error)
}

// Serializer orchestrates per-component dumps.
type Serializer struct {
	Dispatch  *reducer.Dispatch
	Formatter PrimitiveFormatter
	Namespace any // passed through to each component's Pickler for the persistent-id hook
	Logger    *slog.Logger
}

// New returns a Serializer. A nil logger discards.
func New(dispatch *reducer.Dispatch, formatter PrimitiveFormatter, namespace any, logger *slog.Logger) *Serializer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Serializer{Dispatch: dispatch, Formatter: formatter, Namespace: namespace, Logger: logger}
}

// Dump lazily yields a Dump per affected component of curr, per spec §4.5.
func (s *Serializer) Dump(
	values ValueSource, dirty map[string]struct{}, prev, curr []walker.Component,
) iter.Seq[Dump] {
	affected := affectedSet(dirty, prev, curr)

	return func(yield func(Dump) bool) {
		for _, c := range curr {
			if !intersects(c, affected) {
				continue
			}

			if len(c) == 1 {
				name := c[0]
				if v, ok := values.Get(name); ok && s.Formatter != nil && s.Formatter.IsPrimitive(v) {
					data, _, err := s.Formatter.Repr(v)
					if err == nil {
						if !yield(PrimitiveDump{Var: VarDecl{Name: name, TypeName: typeName(v)}, Payload: data}) {
							return
						}

						continue
					}

					s.Logger.Warn("serializer: primitive formatter failed, falling back to pickle path",
						"var", name, "error", err)
				}
			}

			dump := s.dumpComponent(values, c)
			if !yield(dump) {
				return
			}
		}
	}
}

// affectedSet computes the fixed point described in spec §4.5: union both
// partitions, then for every component in the union that intersects dirty,
// take all of its names.
func affectedSet(dirty map[string]struct{}, prev, curr []walker.Component) map[string]struct{} {
	affected := make(map[string]struct{})

	for _, c := range append(append([]walker.Component{}, prev...), curr...) {
		if intersects(c, dirty) {
			for _, name := range c {
				affected[name] = struct{}{}
			}
		}
	}

	return affected
}

func intersects(c walker.Component, set map[string]struct{}) bool {
	for _, name := range c {
		if _, ok := set[name]; ok {
			return true
		}
	}

	return false
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}

	return reflect.TypeOf(v).String()
}

// dumpComponent implements the pickle path of spec §4.5 steps 1-4.
func (s *Serializer) dumpComponent(values ValueSource, c walker.Component) ComponentDump {
	allVars := make([]VarDecl, 0, len(c))

	for _, name := range c {
		v, _ := values.Get(name)
		allVars = append(allVars, VarDecl{Name: name, TypeName: typeName(v)})
	}

	ordered := s.orderNames(values, c)

	table := memo.NewTransactionalMemo()
	writer := memo.NewChunkedWriter()
	pickler := pickle.NewPickler(s.Dispatch, writer, table, s.Namespace)

	serialized := make([]SerializedVar, 0, len(ordered))
	nonSerialized := make([]string, 0)

	for _, name := range ordered {
		v, _ := values.Get(name)

		snap := table.Snapshot()

		err := s.dumpOne(pickler, v)
		if err != nil {
			table.Rollback(snap)
			writer.Reset()
			nonSerialized = append(nonSerialized, name)

			s.Logger.Warn("serializer: variable failed, marked non-serialized", "var", name, "error", err)

			continue
		}

		chunk := writer.CurrentChunk()
		writer.Reset()
		table.Commit(snap)

		serialized = append(serialized, SerializedVar{Name: name, Chunk: chunk})
	}

	return ComponentDump{AllVars: allVars, SerializedVars: serialized, NonSerializedVars: nonSerialized}
}

// dumpOne recovers from a reducer/encoder panic so one malformed value
// cannot abort the whole component (spec §7: isolate at the variable
// boundary).
func (s *Serializer) dumpOne(p *pickle.Pickler, v any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("serializer: panic while dumping: %v", r)
		}
	}()

	return p.Dump(v)
}

// orderNames applies spec §4.5's ordering rule: primitive (no outgoing
// references) values first, then lexicographic name, within each group.
func (s *Serializer) orderNames(values ValueSource, c walker.Component) []string {
	leaves := make([]string, 0, len(c))
	rest := make([]string, 0, len(c))

	for _, name := range c {
		v, _ := values.Get(name)
		if s.Formatter != nil && s.Formatter.IsPrimitive(v) {
			leaves = append(leaves, name)
		} else {
			rest = append(rest, name)
		}
	}

	sort.Strings(leaves)
	sort.Strings(rest)

	return append(leaves, rest...)
}
