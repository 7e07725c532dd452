// Package pickle implements the tagged-opcode wire format used to
// serialize a component's variables over a shared interning memo (spec
// §4.4, §4.5). It is a hand-rolled codec rather than encoding/gob: gob has
// no backreference/memoization concept, and the dispatch's reducers are
// per-run extensible, which a fixed gob-registered type set cannot express.
package pickle

// opcode tags one encoded value in the wire stream.
type opcode byte

const (
	// opConstant is followed by an encoded scalar leaf.
	opConstant opcode = iota + 1
	// opMemoGet is followed by a varint memo id; the referenced value was
	// already written earlier in this stream.
	opMemoGet
	// opPersistentID marks the literal "__ns__" namespace reference (spec
	// §4.5 "Namespace persistence trick").
	opPersistentID
	// opGlobalRef is followed by a module name and a qualified name.
	opGlobalRef
	// opCompound is followed by a memo id (-1 if not memoized), a
	// constructor id, and the reduced args/state/list-items/dict-items.
	opCompound
	// opNil marks a nil interface value.
	opNil
)
