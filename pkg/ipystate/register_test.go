package ipystate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsstate/ipystate/internal/pickle"
	"github.com/nsstate/ipystate/internal/reducer"
	"github.com/nsstate/ipystate/pkg/ipystate"
)

func TestNewReducers_DispatchesEveryDomainContainerType(t *testing.T) {
	t.Parallel()

	dispatch, constructors := ipystate.NewReducers()

	require.NotNil(t, dispatch)
	require.NotNil(t, constructors)

	for _, v := range []any{
		ipystate.Tuple{int64(1)},
		ipystate.NewSet(),
		ipystate.NewFrozenSet(),
		&ipystate.Code{},
		&ipystate.Module{Path: "os"},
		&ipystate.FunctionValue{Code: &ipystate.Code{}},
	} {
		_, ok := dispatch.Lookup(v)
		assert.True(t, ok, "%T should have a registered reducer", v)
	}
}

func TestRegisterBuiltins_DoesNotDisturbGenericKindFallbacks(t *testing.T) {
	t.Parallel()

	d := reducer.DefaultDispatch()
	c := pickle.DefaultConstructorRegistry()

	ipystate.RegisterBuiltins(d, c)

	_, ok := d.Lookup([]int{1, 2})
	assert.True(t, ok, "the plain slice kind fallback must still resolve after domain types are registered")
}
