package changedetector_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nsstate/ipystate/internal/changedetector"
)

func TestDetector_FirstSightingIsNew(t *testing.T) {
	t.Parallel()

	d := changedetector.New(changedetector.DefaultHasherRegistry())

	c := d.Classify(changedetector.RAW, "x", "hello")
	assert.Equal(t, changedetector.NEW, c)
}

func TestDetector_RepeatedIdenticalValueIsUnchanged(t *testing.T) {
	t.Parallel()

	d := changedetector.New(changedetector.DefaultHasherRegistry())

	d.Begin()
	d.Classify(changedetector.RAW, "x", "hello")
	d.End()

	d.Begin()
	c := d.Classify(changedetector.RAW, "x", "hello")
	d.End()

	assert.Equal(t, changedetector.UNCHANGED, c)
}

func TestDetector_ChangedValueIsChanged(t *testing.T) {
	t.Parallel()

	d := changedetector.New(changedetector.DefaultHasherRegistry())

	d.Classify(changedetector.RAW, "x", "hello")
	c := d.Classify(changedetector.RAW, "x", "world")

	assert.Equal(t, changedetector.CHANGED, c)
}

func TestDetector_UnregisteredTypeCantHash(t *testing.T) {
	t.Parallel()

	d := changedetector.New(changedetector.DefaultHasherRegistry())

	c := d.Classify(changedetector.RAW, "x", struct{ A int }{A: 1})
	assert.Equal(t, changedetector.CANTHASH, c)
}

func TestDetector_PickledReusesDefiniteRawVerdict(t *testing.T) {
	t.Parallel()

	d := changedetector.New(changedetector.DefaultHasherRegistry())

	d.Begin()
	defer d.End()

	rawVerdict := d.Classify(changedetector.RAW, "x", "hello")
	assert.Equal(t, changedetector.NEW, rawVerdict)

	// Pass a non-[]byte value: if the pickled stage tried to hash it
	// directly this would fall through to CANTHASH instead of reusing raw.
	pickledVerdict := d.Classify(changedetector.PICKLED, "x", "not a byte slice")
	assert.Equal(t, rawVerdict, pickledVerdict)
}

func TestDetector_PickledHashesWhenRawIsCantHash(t *testing.T) {
	t.Parallel()

	d := changedetector.New(changedetector.DefaultHasherRegistry())

	d.Begin()
	defer d.End()

	rawVerdict := d.Classify(changedetector.RAW, "x", struct{ A int }{A: 1})
	assert.Equal(t, changedetector.CANTHASH, rawVerdict)

	c := d.Classify(changedetector.PICKLED, "x", []byte("chunk-1"))
	assert.Equal(t, changedetector.NEW, c)
}

func TestDetector_BeginClearsRawCacheButKeepsStoredHashes(t *testing.T) {
	t.Parallel()

	d := changedetector.New(changedetector.DefaultHasherRegistry())

	d.Begin()
	d.Classify(changedetector.RAW, "x", "hello")
	d.End()

	d.Begin()
	defer d.End()

	// Same transaction boundary semantics: a fresh Begin/End still recalls
	// the previously stored hash for UNCHANGED.
	c := d.Classify(changedetector.RAW, "x", "hello")
	assert.Equal(t, changedetector.UNCHANGED, c)
}

func TestHasherRegistry_RegisterOverridesByExactType(t *testing.T) {
	t.Parallel()

	r := changedetector.NewHasherRegistry()
	r.Register(reflect.TypeOf(""), func(v any) (uint64, error) {
		return 0, errors.New("boom")
	})

	d := changedetector.New(r)
	c := d.Classify(changedetector.RAW, "x", "hello")
	assert.Equal(t, changedetector.CANTHASH, c, "hasher panics/errors convert to CANTHASH")
}

func TestDetector_SnapshotThenRestoreRecallsUnchanged(t *testing.T) {
	t.Parallel()

	d := changedetector.New(changedetector.DefaultHasherRegistry())

	d.Classify(changedetector.RAW, "x", "hello")
	snap := d.Snapshot()

	fresh := changedetector.New(changedetector.DefaultHasherRegistry())
	fresh.Restore(snap)

	c := fresh.Classify(changedetector.RAW, "x", "hello")
	assert.Equal(t, changedetector.UNCHANGED, c, "a restored detector must recall a pre-restart digest")
}

func TestDetector_SnapshotIsACopy(t *testing.T) {
	t.Parallel()

	d := changedetector.New(changedetector.DefaultHasherRegistry())
	d.Classify(changedetector.RAW, "x", "hello")

	snap := d.Snapshot()
	snap["raw|x"] = 0

	c := d.Classify(changedetector.RAW, "x", "hello")
	assert.Equal(t, changedetector.UNCHANGED, c, "mutating a snapshot must not affect the live detector")
}
