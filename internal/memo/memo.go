// Package memo implements the chunked writer and transactional interning
// memo that back the pickler (spec §4.4): an append-only byte sink plus a
// shared id table supporting per-variable snapshot/commit/rollback, so a
// failed variable cannot leak half-interned ids into the next one.
package memo

import "bytes"

// ChunkedWriter is a write-only byte sink that tracks the bytes written
// since the last Reset, so the caller can harvest one variable's chunk
// without re-copying the whole stream.
type ChunkedWriter struct {
	buf bytes.Buffer
}

// NewChunkedWriter returns an empty ChunkedWriter.
func NewChunkedWriter() *ChunkedWriter {
	return &ChunkedWriter{}
}

// Write appends p to the current chunk. It never returns an error — a
// bytes.Buffer only fails on allocation exhaustion, which callers cannot
// meaningfully recover from.
func (w *ChunkedWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// CurrentChunk returns the bytes accumulated since the last Reset.
func (w *ChunkedWriter) CurrentChunk() []byte {
	out := make([]byte, w.buf.Len())
	copy(out, w.buf.Bytes())

	return out
}

// Reset discards the current chunk.
func (w *ChunkedWriter) Reset() {
	w.buf.Reset()
}

// MemoSnapshot is an opaque capture of a TransactionalMemo's state at one
// point in time, suitable for Commit or Rollback.
type MemoSnapshot struct {
	ids map[uintptr]int64
}

// TransactionalMemo interns object identities to small integer ids shared
// across an entire component's pickle stream, so an object referenced by
// two variables is emitted once (spec §4.4).
type TransactionalMemo struct {
	ids  map[uintptr]int64
	next int64
}

// NewTransactionalMemo returns an empty memo.
func NewTransactionalMemo() *TransactionalMemo {
	return &TransactionalMemo{ids: make(map[uintptr]int64)}
}

// Lookup returns the memo id for identity, if already interned.
func (m *TransactionalMemo) Lookup(identity uintptr) (id int64, ok bool) {
	id, ok = m.ids[identity]

	return id, ok
}

// Intern assigns and returns a new memo id for identity. Callers must
// Lookup first; Intern does not check for an existing entry.
func (m *TransactionalMemo) Intern(identity uintptr) int64 {
	id := m.next
	m.next++
	m.ids[identity] = id

	return id
}

// Snapshot captures the memo's current state.
func (m *TransactionalMemo) Snapshot() MemoSnapshot {
	clone := make(map[uintptr]int64, len(m.ids))
	for k, v := range m.ids {
		clone[k] = v
	}

	return MemoSnapshot{ids: clone}
}

// Commit is a no-op: the live table already reflects everything interned
// since the snapshot, and a successful variable keeps all of it.
func (m *TransactionalMemo) Commit(_ MemoSnapshot) {}

// Rollback restores the memo to exactly the snapshotted state, deleting
// any id added since (spec §4.4: "restore the snapshot and discard the
// chunk").
func (m *TransactionalMemo) Rollback(snap MemoSnapshot) {
	m.ids = make(map[uintptr]int64, len(snap.ids))
	for k, v := range snap.ids {
		m.ids[k] = v
	}

	m.next = int64(len(snap.ids))
	for _, v := range snap.ids {
		if v >= m.next {
			m.next = v + 1
		}
	}
}
