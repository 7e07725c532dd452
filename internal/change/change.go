// Package change implements the atomic change model (spec §4.7): a tagged
// union of Primitive, Component and Remove variants, each consumable by
// Apply or Transfer at most once across both operations.
package change

import (
	"errors"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/nsstate/ipystate/internal/pickle"
	"github.com/nsstate/ipystate/internal/serializer"
)

// ErrAlreadyConsumed is returned by Apply or Transfer on the second call of
// either method on one change instance (spec §4.7, §7).
var ErrAlreadyConsumed = errors.New("atomic change: data already processed")

// Kind distinguishes the three atomic change variants for transport.
type Kind int

const (
	// KindPrimitive tags a PrimitiveChange.
	KindPrimitive Kind = iota
	// KindComponent tags a ComponentChange.
	KindComponent
	// KindRemove tags a RemoveChange.
	KindRemove
)

// VarDecl mirrors serializer.VarDecl, restated here so consumers of this
// package don't need to import internal/serializer for the type alone.
type VarDecl = serializer.VarDecl

// NamespaceSink is the minimal surface Apply needs from a namespace:
// insert a deserialized value with armed=false, or delete a name (spec
// §4.7 "apply ... insert them into the namespace with armed=false").
type NamespaceSink interface {
	SetDeserialized(name, typeName string, value any)
	Delete(name string)
}

// PrimitiveDecoder is the inverse of a PrimitiveFormatter: it parses a
// primitive payload back into a value. Implemented by pkg/ipystate.
type PrimitiveDecoder interface {
	Parse(data []byte, typeName string) (any, error)
}

// ApplyContext carries the deserialization dependencies Apply needs:
// the constructor registry for component chunks and the decoder for
// primitive payloads.
type ApplyContext struct {
	Constructors *pickle.ConstructorRegistry
	Decoder      PrimitiveDecoder
	Namespace    any // bound into the Unpickler for the persistent-id hook
}

// TransferPayload is the transport-facing projection of one change,
// exposing only what spec §6's "Atomic change transport" interface
// guarantees: an opaque identifier, the variable name(s), and payload
// bytes.
type TransferPayload struct {
	Kind              Kind
	AllVars           []VarDecl
	SerializedVars    []serializer.SerializedVar
	NonSerializedVars []string
	PrimitivePayload  []byte
	RemovedName       string
}

// Sink is the transport a change is handed to by Transfer.
type Sink interface {
	Transfer(id string, p TransferPayload) error
}

// AtomicChange is the sealed union of the three variants.
type AtomicChange interface {
	ID() string
	Apply(ns NamespaceSink, ctx ApplyContext) error
	Transfer(sink Sink) error
	sealed()
}

// guard enforces the "at most once across both operations" rule.
type guard struct {
	consumed atomic.Bool
}

func (g *guard) consume() error {
	if !g.consumed.CompareAndSwap(false, true) {
		return ErrAlreadyConsumed
	}

	return nil
}

func newID() string {
	return uuid.NewString()
}
