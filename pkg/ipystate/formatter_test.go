package ipystate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsstate/ipystate/pkg/ipystate"
)

func TestDefaultFormatter_IsPrimitiveCoversScalarsAndBytes(t *testing.T) {
	t.Parallel()

	f := ipystate.DefaultFormatter{}

	for _, v := range []any{nil, true, "s", []byte("b"), 1, int64(1), 3.5} {
		assert.True(t, f.IsPrimitive(v), "%#v should be primitive", v)
	}

	assert.False(t, f.IsPrimitive(struct{}{}))
	assert.False(t, f.IsPrimitive([]int{1, 2}))
}

func TestDefaultFormatter_ReprParseRoundTripsString(t *testing.T) {
	t.Parallel()

	f := ipystate.DefaultFormatter{}

	data, typeName, err := f.Repr("hello")
	require.NoError(t, err)

	got, err := f.Parse(data, typeName)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestDefaultFormatter_ReprParseRoundTripsBytesVerbatim(t *testing.T) {
	t.Parallel()

	f := ipystate.DefaultFormatter{}

	data, typeName, err := f.Repr([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "[]uint8", typeName)

	got, err := f.Parse(data, typeName)
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), got)
}

func TestDefaultFormatter_ReprParseRoundTripsNumericTypesExactly(t *testing.T) {
	t.Parallel()

	f := ipystate.DefaultFormatter{}

	cases := []any{
		int(-3), int8(-3), int16(-3), int32(-3), int64(-3),
		uint(3), uint8(3), uint16(3), uint32(3), uint64(3),
		float32(3.5), float64(3.5),
		float32(3), float64(3),
	}

	for _, want := range cases {
		data, typeName, err := f.Repr(want)
		require.NoError(t, err)

		got, err := f.Parse(data, typeName)
		require.NoError(t, err)
		assert.Equal(t, want, got, "round-trip of %T(%v)", want, want)
	}
}

func TestDefaultFormatter_ReprFallsBackToSpewOnUnmarshalableValue(t *testing.T) {
	t.Parallel()

	f := ipystate.DefaultFormatter{}

	ch := make(chan int)
	data, _, err := f.Repr(ch)
	require.NoError(t, err, "Repr must never itself error")
	assert.NotEmpty(t, data)
}

func TestDiffPreview_HighlightsChangedSegment(t *testing.T) {
	t.Parallel()

	out := ipystate.DiffPreview([]byte("hello world"), []byte("hello there"))
	assert.NotEmpty(t, out)
}
