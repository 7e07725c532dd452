package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsstate/ipystate/pkg/checkpoint"
)

func TestHost_SaveThenLoadCheckpoint_RestoresUnchangedClassification(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	h := NewHost(0, nil, nil)

	entry := h.entry("ns-a")
	entry.engine.Set("x", []int64{1, 2})

	envs, err := h.Commit(context.Background(), "ns-a", false)
	require.NoError(t, err)
	require.Len(t, envs, 1)

	mgr := checkpoint.NewManager(dir, checkpoint.NamespaceHash("ns-a"))
	require.NoError(t, h.SaveCheckpoint(mgr, "ns-a", []string{"json"}))

	restoredHost := NewHost(0, nil, nil)
	require.NoError(t, restoredHost.LoadCheckpoint(mgr, "ns-a"))

	change, getErr := restoredHost.GetChange("ns-a", envs[0].ID)
	require.NoError(t, getErr)
	assert.Equal(t, envs[0], change)

	restoredEntry, lookupErr := restoredHost.lookup("ns-a")
	require.NoError(t, lookupErr)
	restoredEntry.engine.Set("x", []int64{1, 2})

	restoredEnvs, commitErr := restoredHost.Commit(context.Background(), "ns-a", false)
	require.NoError(t, commitErr)
	assert.Empty(t, restoredEnvs, "an unchanged value must be classified UNCHANGED after a restored checkpoint")
}

func TestHost_SaveCheckpoint_UnknownNamespace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := NewHost(0, nil, nil)
	mgr := checkpoint.NewManager(dir, checkpoint.NamespaceHash("nope"))

	err := h.SaveCheckpoint(mgr, "nope", []string{"json"})
	require.ErrorIs(t, err, ErrUnknownNamespace)
}

func TestCheckpointableEntry_CheckpointSizeReflectsLastSave(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	h := NewHost(0, nil, nil)
	entry := h.entry("ns-a")
	entry.engine.Set("x", int64(1))

	_, err := h.Commit(context.Background(), "ns-a", false)
	require.NoError(t, err)

	cp := &checkpointableEntry{entry: entry}
	require.NoError(t, cp.SaveCheckpoint(dir))
	assert.Positive(t, cp.CheckpointSize())
}
