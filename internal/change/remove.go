package change

// RemoveChange deletes a single name from the namespace (spec §3
// "Remove { id, name }").
type RemoveChange struct {
	id   string
	g    guard
	Name string
}

// NewRemoveChange returns a fresh, unconsumed RemoveChange.
func NewRemoveChange(name string) *RemoveChange {
	return &RemoveChange{id: newID(), Name: name}
}

func (c *RemoveChange) ID() string { return c.id }

func (*RemoveChange) sealed() {}

// Apply deletes Name from ns.
func (c *RemoveChange) Apply(ns NamespaceSink, _ ApplyContext) error {
	if err := c.g.consume(); err != nil {
		return err
	}

	ns.Delete(c.Name)

	return nil
}

// Transfer hands the removal to sink.
func (c *RemoveChange) Transfer(sink Sink) error {
	if err := c.g.consume(); err != nil {
		return err
	}

	return sink.Transfer(c.id, TransferPayload{Kind: KindRemove, RemovedName: c.Name})
}
