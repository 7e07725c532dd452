package ipystate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsstate/ipystate/pkg/ipystate"
)

func TestModule_RoundTripsAsGlobalRef(t *testing.T) {
	t.Parallel()

	m := &ipystate.Module{Path: "json"}

	got := roundTrip(t, m)

	resolved, ok := ipystate.ResolveModule(got)
	require.True(t, ok)
	assert.Equal(t, "json", resolved.Path)
}

func TestResolveModule_RejectsUnrelatedValue(t *testing.T) {
	t.Parallel()

	_, ok := ipystate.ResolveModule("not a module ref")
	assert.False(t, ok)
}
