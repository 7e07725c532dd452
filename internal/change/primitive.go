package change

import "fmt"

// PrimitiveChange carries one singleton-component primitive value's
// rendered payload (spec §3 "Primitive { id, var-decl, payload }").
type PrimitiveChange struct {
	id    string
	g     guard
	Var   VarDecl
	Payload []byte
}

// NewPrimitiveChange returns a fresh, unconsumed PrimitiveChange.
func NewPrimitiveChange(v VarDecl, payload []byte) *PrimitiveChange {
	return &PrimitiveChange{id: newID(), Var: v, Payload: payload}
}

func (c *PrimitiveChange) ID() string { return c.id }

func (*PrimitiveChange) sealed() {}

// Apply parses Payload through ctx.Decoder and inserts the result into ns.
func (c *PrimitiveChange) Apply(ns NamespaceSink, ctx ApplyContext) error {
	if err := c.g.consume(); err != nil {
		return err
	}

	if ctx.Decoder == nil {
		return fmt.Errorf("change: apply primitive %q: no decoder bound", c.Var.Name)
	}

	v, err := ctx.Decoder.Parse(c.Payload, c.Var.TypeName)
	if err != nil {
		return fmt.Errorf("change: apply primitive %q: %w", c.Var.Name, err)
	}

	ns.SetDeserialized(c.Var.Name, c.Var.TypeName, v)

	return nil
}

// Transfer hands the payload to sink.
func (c *PrimitiveChange) Transfer(sink Sink) error {
	if err := c.g.consume(); err != nil {
		return err
	}

	return sink.Transfer(c.id, TransferPayload{Kind: KindPrimitive, AllVars: []VarDecl{c.Var}, PrimitivePayload: c.Payload})
}
