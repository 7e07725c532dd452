package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeMCPCommand_Exists(t *testing.T) {
	t.Parallel()

	cmd := NewServeMCPCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "serve-mcp", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
}

func TestServeMCPCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd := NewServeMCPCommand()

	configFlag := cmd.Flags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)

	debugFlag := cmd.Flags().Lookup("debug")
	require.NotNil(t, debugFlag)
	assert.Equal(t, "false", debugFlag.DefValue)
}
