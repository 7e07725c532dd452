package change

import (
	"fmt"

	"github.com/nsstate/ipystate/internal/pickle"
	"github.com/nsstate/ipystate/internal/serializer"
)

// ComponentChange carries one component's worth of serialized and
// non-serialized variables (spec §3 "Component { id, all-vars,
// serialized-vars, non-serialized-vars }").
type ComponentChange struct {
	id                string
	g                 guard
	AllVars           []VarDecl
	SerializedVars    []serializer.SerializedVar
	NonSerializedVars []string
}

// NewComponentChange returns a fresh, unconsumed ComponentChange.
func NewComponentChange(allVars []VarDecl, serializedVars []serializer.SerializedVar, nonSerialized []string) *ComponentChange {
	return &ComponentChange{id: newID(), AllVars: allVars, SerializedVars: serializedVars, NonSerializedVars: nonSerialized}
}

func (c *ComponentChange) ID() string { return c.id }

func (*ComponentChange) sealed() {}

// Apply unpickles every serialized member and inserts it into ns.
// Non-serialized members are left untouched — the caller already knows,
// from NonSerializedVars, which names could not be reconstructed.
func (c *ComponentChange) Apply(ns NamespaceSink, ctx ApplyContext) error {
	if err := c.g.consume(); err != nil {
		return err
	}

	if ctx.Constructors == nil {
		return fmt.Errorf("change: apply component: no constructor registry bound")
	}

	typeNames := make(map[string]string, len(c.AllVars))
	for _, v := range c.AllVars {
		typeNames[v.Name] = v.TypeName
	}

	decoded := make([]any, len(c.SerializedVars))

	for i, sv := range c.SerializedVars {
		up := pickle.NewUnpickler(ctx.Constructors, ctx.Namespace)

		v, err := up.Load(sv.Chunk)
		if err != nil {
			return fmt.Errorf("change: apply component var %q: %w", sv.Name, err)
		}

		decoded[i] = v
	}

	for i, sv := range c.SerializedVars {
		ns.SetDeserialized(sv.Name, typeNames[sv.Name], decoded[i])
	}

	return nil
}

// Transfer hands the component's envelope and chunks to sink.
func (c *ComponentChange) Transfer(sink Sink) error {
	if err := c.g.consume(); err != nil {
		return err
	}

	return sink.Transfer(c.id, TransferPayload{
		Kind:              KindComponent,
		AllVars:           c.AllVars,
		SerializedVars:    c.SerializedVars,
		NonSerializedVars: c.NonSerializedVars,
	})
}
