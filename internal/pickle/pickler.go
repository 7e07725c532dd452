package pickle

import (
	"fmt"
	"io"
	"reflect"

	"github.com/nsstate/ipystate/internal/memo"
	"github.com/nsstate/ipystate/internal/objectid"
	"github.com/nsstate/ipystate/internal/reducer"
)

// Pickler drives a reducer.Dispatch, a memo.ChunkedWriter and a
// memo.TransactionalMemo to emit the tagged opcode stream for one value
// (spec §4.4, §4.5).
type Pickler struct {
	dispatch  *reducer.Dispatch
	w         *memo.ChunkedWriter
	table     *memo.TransactionalMemo
	namespace any // compared by identity for the persistent-id hook
}

// NewPickler returns a Pickler writing to w, interning through table, and
// recognizing namespace (compared by identity) for the "__ns__" hook
// (spec §4.5 "Namespace persistence trick", §9).
func NewPickler(dispatch *reducer.Dispatch, w *memo.ChunkedWriter, table *memo.TransactionalMemo, namespace any) *Pickler {
	return &Pickler{dispatch: dispatch, w: w, table: table, namespace: namespace}
}

// Dump writes v's tagged encoding to the underlying ChunkedWriter.
func (p *Pickler) Dump(v any) error {
	return p.dump(reflect.ValueOf(v))
}

func (p *Pickler) dump(rv reflect.Value) error {
	if !rv.IsValid() {
		_, err := p.w.Write([]byte{byte(opNil)})

		return err
	}

	v := rv.Interface()

	if p.namespace != nil && sameObject(v, p.namespace) {
		_, err := p.w.Write([]byte{byte(opPersistentID)})

		return err
	}

	id, hasIdentity := objectid.IdentityOf(rv)
	if hasIdentity {
		if memoID, ok := p.table.Lookup(id); ok {
			if _, err := p.w.Write([]byte{byte(opMemoGet)}); err != nil {
				return err
			}

			return writeVarint(p.w, uint64(memoID))
		}
	}

	fn, ok := p.dispatch.Lookup(v)
	if !ok {
		return fmt.Errorf("pickle: no reducer registered for %T: %w", v, reducer.ErrUnreducible)
	}

	red, err := fn(v)
	if err != nil {
		return fmt.Errorf("pickle: reduce %T: %w", v, err)
	}

	switch red.Kind {
	case reducer.Constant:
		if _, err := p.w.Write([]byte{byte(opConstant)}); err != nil {
			return err
		}

		return encodeConstant(p.w, v)
	case reducer.GlobalRef:
		if _, err := p.w.Write([]byte{byte(opGlobalRef)}); err != nil {
			return err
		}

		if err := writeString(p.w, red.GlobalModule); err != nil {
			return err
		}

		return writeString(p.w, red.GlobalName)
	case reducer.Compound:
		return p.dumpCompound(hasIdentity, id, red)
	default:
		return fmt.Errorf("pickle: %w: unknown reduction kind %d", errBadOpcode, red.Kind)
	}
}

func (p *Pickler) dumpCompound(hasIdentity bool, id uintptr, red reducer.Reduction) error {
	memoID := int64(-1)
	if hasIdentity {
		memoID = p.table.Intern(id)
	}

	if _, err := p.w.Write([]byte{byte(opCompound)}); err != nil {
		return err
	}

	if err := writeVarint(p.w, uint64(memoID+1)); err != nil { // shift by 1 so -1 -> 0
		return err
	}

	if err := writeString(p.w, string(red.Constructor)); err != nil {
		return err
	}

	if err := writeVarint(p.w, uint64(len(red.Args))); err != nil {
		return err
	}

	for _, arg := range red.Args {
		if err := p.dump(reflect.ValueOf(arg)); err != nil {
			return err
		}
	}

	hasState := byte(0)
	if red.State != nil {
		hasState = 1
	}

	if _, err := p.w.Write([]byte{hasState}); err != nil {
		return err
	}

	if red.State != nil {
		if err := p.dump(reflect.ValueOf(red.State)); err != nil {
			return err
		}
	}

	if err := writeVarint(p.w, uint64(len(red.ListItems))); err != nil {
		return err
	}

	for _, item := range red.ListItems {
		if err := p.dump(reflect.ValueOf(item)); err != nil {
			return err
		}
	}

	if err := writeVarint(p.w, uint64(len(red.DictItems))); err != nil {
		return err
	}

	for _, item := range red.DictItems {
		if err := p.dump(reflect.ValueOf(item.Key)); err != nil {
			return err
		}

		if err := p.dump(reflect.ValueOf(item.Value)); err != nil {
			return err
		}
	}

	return nil
}

// sameObject reports whether a and b are the same underlying object by
// identity, used only for the persistent-id hook.
func sameObject(a, b any) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)

	ia, oka := objectid.IdentityOf(ra)
	ib, okb := objectid.IdentityOf(rb)

	return oka && okb && ia == ib
}

var _ io.Writer = (*memo.ChunkedWriter)(nil)
