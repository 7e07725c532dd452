package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsstate/ipystate/internal/mcpserver"
	"github.com/nsstate/ipystate/pkg/checkpoint"
)

func TestInspectCommand_Exists(t *testing.T) {
	t.Parallel()

	cmd := NewInspectCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "inspect <namespace-id>", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}

func TestInspectCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd := NewInspectCommand()

	dirFlag := cmd.Flags().Lookup("checkpoint-dir")
	require.NotNil(t, dirFlag)
	assert.Equal(t, checkpoint.DefaultDir(), dirFlag.DefValue)

	colorFlag := cmd.Flags().Lookup("no-color")
	require.NotNil(t, colorFlag)
	assert.Equal(t, "false", colorFlag.DefValue)
}

func TestInspectCommand_Run_NoCheckpoint(t *testing.T) {
	ic := &InspectCommand{checkpointDir: t.TempDir(), noColor: true}

	var buf bytes.Buffer

	err := ic.run("missing-namespace", &buf)
	require.Error(t, err)
}

func TestInspectCommand_Run_PrintsNamespaceHeader(t *testing.T) {
	dir := t.TempDir()

	host := mcpserver.NewHost(0, nil, nil)

	_, commitErr := host.Commit(context.Background(), "ns-inspect", false)
	require.NoError(t, commitErr)

	mgr := checkpoint.NewManager(dir, checkpoint.NamespaceHash("ns-inspect"))
	require.NoError(t, host.SaveCheckpoint(mgr, "ns-inspect", []string{"json"}))

	ic := &InspectCommand{checkpointDir: dir, noColor: true}

	var buf bytes.Buffer

	err := ic.run("ns-inspect", &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "ns-inspect")
}
