package memo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsstate/ipystate/internal/memo"
)

func TestChunkedWriter_CurrentChunkAccumulatesThenResets(t *testing.T) {
	t.Parallel()

	w := memo.NewChunkedWriter()

	_, err := w.Write([]byte("abc"))
	require.NoError(t, err)

	_, err = w.Write([]byte("def"))
	require.NoError(t, err)

	assert.Equal(t, []byte("abcdef"), w.CurrentChunk())

	w.Reset()
	assert.Empty(t, w.CurrentChunk())
}

func TestTransactionalMemo_InternAssignsStableIncreasingIDs(t *testing.T) {
	t.Parallel()

	m := memo.NewTransactionalMemo()

	id1 := m.Intern(100)
	id2 := m.Intern(200)
	id1Again, _ := m.Lookup(100)

	assert.Equal(t, id1, id1Again)
	assert.Less(t, id1, id2)

	got, ok := m.Lookup(100)
	require.True(t, ok)
	assert.Equal(t, id1, got)
}

func TestTransactionalMemo_LookupMissIsFalse(t *testing.T) {
	t.Parallel()

	m := memo.NewTransactionalMemo()

	_, ok := m.Lookup(42)
	assert.False(t, ok)
}

func TestTransactionalMemo_RollbackDiscardsIDsInternedSinceSnapshot(t *testing.T) {
	t.Parallel()

	m := memo.NewTransactionalMemo()

	m.Intern(1)
	snap := m.Snapshot()

	m.Intern(2)
	m.Intern(3)

	m.Rollback(snap)

	_, ok := m.Lookup(2)
	assert.False(t, ok, "rollback must discard ids added after the snapshot")

	_, ok = m.Lookup(3)
	assert.False(t, ok)

	_, ok = m.Lookup(1)
	assert.True(t, ok, "rollback must keep ids present at snapshot time")
}

func TestTransactionalMemo_RollbackThenInternReassignsSameNextID(t *testing.T) {
	t.Parallel()

	m := memo.NewTransactionalMemo()

	m.Intern(1)
	snap := m.Snapshot()

	failedID := m.Intern(2)
	m.Rollback(snap)

	newID := m.Intern(3)
	assert.Equal(t, failedID, newID, "the id freed by rollback must be reused, not skipped")
}

func TestTransactionalMemo_CommitIsNoOpOnLiveTable(t *testing.T) {
	t.Parallel()

	m := memo.NewTransactionalMemo()

	m.Intern(1)
	snap := m.Snapshot()
	m.Intern(2)

	m.Commit(snap)

	_, ok := m.Lookup(2)
	assert.True(t, ok, "commit must not undo an interning that happened after the snapshot")
}
