package pickle

import (
	"bytes"
	"fmt"

	"github.com/nsstate/ipystate/internal/reducer"
)

// reader bundles the io.Reader and io.ByteReader methods the wire decoders
// need; *bytes.Reader satisfies it directly.
type reader interface {
	Read([]byte) (int, error)
	ReadByte() (byte, error)
}

// Unpickler is the inverse of Pickler: it replays a tagged opcode stream
// against a ConstructorRegistry, resolving "__ns__" references against a
// bound namespace value (spec §4.5, §9).
type Unpickler struct {
	constructors *ConstructorRegistry
	namespace    any
	memoObjs     map[int64]any
}

// NewUnpickler returns an Unpickler building values through constructors,
// resolving persistent-id references to namespace.
func NewUnpickler(constructors *ConstructorRegistry, namespace any) *Unpickler {
	return &Unpickler{constructors: constructors, namespace: namespace, memoObjs: make(map[int64]any)}
}

// Load decodes one value from chunk.
func (u *Unpickler) Load(chunk []byte) (any, error) {
	r := bytes.NewReader(chunk)

	return u.load(r)
}

func (u *Unpickler) load(r reader) (any, error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("pickle: read opcode: %w", err)
	}

	switch opcode(tagByte) {
	case opNil:
		return nil, nil
	case opConstant:
		return decodeConstant(r)
	case opPersistentID:
		if u.namespace == nil {
			return nil, errNoPersistentNamespace
		}

		return u.namespace, nil
	case opGlobalRef:
		module, err := readString(r)
		if err != nil {
			return nil, err
		}

		name, err := readString(r)
		if err != nil {
			return nil, err
		}

		return GlobalRef{Module: module, Name: name}, nil
	case opMemoGet:
		id, err := readVarint(r)
		if err != nil {
			return nil, err
		}

		obj, ok := u.memoObjs[int64(id)]
		if !ok {
			return nil, fmt.Errorf("pickle: memo id %d not found", id)
		}

		return obj, nil
	case opCompound:
		return u.loadCompound(r)
	default:
		return nil, fmt.Errorf("pickle: %w: %d", errBadOpcode, tagByte)
	}
}

// GlobalRef is what an opGlobalRef decodes to: the spec's "save by global
// reference" sentinel, carrying the module and qualified name a caller can
// resolve through its own module loader (spec §4.1, §9).
type GlobalRef struct {
	Module string
	Name   string
}

func (u *Unpickler) loadCompound(r reader) (any, error) {
	shiftedMemoID, err := readVarint(r)
	if err != nil {
		return nil, err
	}

	memoID := int64(shiftedMemoID) - 1

	constructorID, err := readString(r)
	if err != nil {
		return nil, err
	}

	nargs, err := readVarint(r)
	if err != nil {
		return nil, err
	}

	args := make([]any, nargs)

	for i := range args {
		args[i], err = u.load(r)
		if err != nil {
			return nil, err
		}
	}

	hasStateByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	var state any

	if hasStateByte != 0 {
		state, err = u.load(r)
		if err != nil {
			return nil, err
		}
	}

	nListItems, err := readVarint(r)
	if err != nil {
		return nil, err
	}

	listItems := make([]any, nListItems)

	for i := range listItems {
		listItems[i], err = u.load(r)
		if err != nil {
			return nil, err
		}
	}

	nDictItems, err := readVarint(r)
	if err != nil {
		return nil, err
	}

	dictItems := make([]reducer.DictItem, nDictItems)

	for i := range dictItems {
		key, err := u.load(r)
		if err != nil {
			return nil, err
		}

		value, err := u.load(r)
		if err != nil {
			return nil, err
		}

		dictItems[i] = reducer.DictItem{Key: key, Value: value}
	}

	built, err := u.constructors.Build(reducer.ConstructorID(constructorID), args, state, listItems, dictItems)
	if err != nil {
		return nil, fmt.Errorf("pickle: build %s: %w", constructorID, err)
	}

	if memoID >= 0 {
		u.memoObjs[memoID] = built
	}

	return built, nil
}
