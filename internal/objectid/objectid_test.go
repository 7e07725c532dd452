package objectid_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nsstate/ipystate/internal/objectid"
)

func TestIdentityOf_PointerSliceMapHaveIdentity(t *testing.T) {
	t.Parallel()

	x := 5
	cases := []any{&x, []int{1, 2}, map[string]int{"a": 1}, make(chan int)}

	for _, v := range cases {
		_, ok := objectid.IdentityOf(reflect.ValueOf(v))
		assert.True(t, ok, "%T should carry identity", v)
	}
}

func TestIdentityOf_ScalarsHaveNoIdentity(t *testing.T) {
	t.Parallel()

	cases := []any{42, "hello", true, 3.14, struct{ X int }{X: 1}}

	for _, v := range cases {
		_, ok := objectid.IdentityOf(reflect.ValueOf(v))
		assert.False(t, ok, "%T should not carry identity", v)
	}
}

func TestIdentityOf_SamePointerYieldsSameID(t *testing.T) {
	t.Parallel()

	x := 5
	p := &x

	id1, ok1 := objectid.IdentityOf(reflect.ValueOf(p))
	id2, ok2 := objectid.IdentityOf(reflect.ValueOf(p))

	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, id1, id2)
}

func TestScratch_HoldKeepsReferencesLive(t *testing.T) {
	t.Parallel()

	s := objectid.NewScratch()
	for i := range 10 {
		v := make([]int, 1)
		id, ok := objectid.IdentityOf(reflect.ValueOf(v))
		assert.True(t, ok)
		s.Hold(id, v)
		_ = i
	}

	assert.Equal(t, 10, s.Len())
}
