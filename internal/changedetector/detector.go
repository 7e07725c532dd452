// Package changedetector implements the two-stage hash-based change
// classifier described in spec §4.3: a RAW stage over live objects and a
// PICKLED stage over serialized byte buffers, with a per-transaction cache
// so a definite RAW verdict short-circuits the PICKLED hash.
package changedetector

import (
	"errors"
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Stage selects which of the two classification passes is being run.
type Stage int

const (
	// RAW classifies the live in-memory object.
	RAW Stage = iota
	// PICKLED classifies the serialized byte buffer of an object.
	PICKLED
)

// Classification is the verdict for one (stage, name, value) triple.
type Classification int

const (
	// NEW means no prior hash exists for this name at this stage.
	NEW Classification = iota
	// CHANGED means a prior hash exists and differs.
	CHANGED
	// UNCHANGED means a prior hash exists and matches.
	UNCHANGED
	// CANTHASH means no hasher is registered for the value's type, or
	// hashing the value raised; downstream treats this as "changed".
	CANTHASH
)

// HasherFunc computes a stable digest of a RAW-stage value. Returning an
// error is converted to CANTHASH (spec §4.3, §7).
type HasherFunc func(v any) (digest uint64, err error)

// HasherRegistry dispatches RAW-stage hashing by runtime type, mirroring
// the extensible per-type registration of internal/reducer.Dispatch — the
// teacher's source models hashers as their own registry rather than a
// hard-coded type switch, and this package follows the same shape.
type HasherRegistry struct {
	byType map[reflect.Type]HasherFunc
}

// NewHasherRegistry returns an empty registry.
func NewHasherRegistry() *HasherRegistry {
	return &HasherRegistry{byType: make(map[reflect.Type]HasherFunc)}
}

// Register installs a RAW hasher for an exact runtime type.
func (r *HasherRegistry) Register(t reflect.Type, fn HasherFunc) {
	r.byType[t] = fn
}

// DefaultHasherRegistry returns a registry with xxhash-based hashers for
// exactly two types: []byte and string.
func DefaultHasherRegistry() *HasherRegistry {
	r := NewHasherRegistry()

	r.Register(reflect.TypeOf([]byte(nil)), func(v any) (uint64, error) {
		return xxhash.Sum64(v.([]byte)), nil
	})
	r.Register(reflect.TypeOf(""), func(v any) (uint64, error) {
		return xxhash.Sum64String(v.(string)), nil
	})

	return r
}

// Detector holds per-(stage,name) stored hashes plus the RAW-stage cache
// that is cleared at transaction boundaries.
type Detector struct {
	mu       sync.Mutex
	hashers  *HasherRegistry
	stored   map[string]uint64 // key: "stage|name"
	rawCache map[string]Classification
}

// New returns a Detector dispatching RAW hashing through hashers.
func New(hashers *HasherRegistry) *Detector {
	return &Detector{
		hashers:  hashers,
		stored:   make(map[string]uint64),
		rawCache: make(map[string]Classification),
	}
}

// Begin clears the RAW-stage cache for a new transaction (spec §4.3: "raw
// cache cleared by begin()/end() wrapping a transaction").
func (d *Detector) Begin() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rawCache = make(map[string]Classification)
}

// End is the symmetric bracket to Begin; it also clears the RAW cache so a
// detector instance can be reused across many transactions safely.
func (d *Detector) End() {
	d.Begin()
}

func key(stage Stage, name string) string {
	if stage == RAW {
		return "raw|" + name
	}

	return "pickled|" + name
}

// Classify classifies value for name at stage, per spec §4.3.
func (d *Detector) Classify(stage Stage, name string, value any) Classification {
	d.mu.Lock()
	defer d.mu.Unlock()

	if stage == PICKLED {
		if c, ok := d.rawCache[name]; ok && c != CANTHASH {
			return c
		}

		buf, ok := value.([]byte)
		if !ok {
			return CANTHASH
		}

		digest := xxhash.Sum64(buf)

		return d.compareAndStore(key(PICKLED, name), digest)
	}

	fn, ok := d.hashers.byType[reflect.TypeOf(value)]
	if !ok {
		d.rawCache[name] = CANTHASH

		return CANTHASH
	}

	digest, err := hashSafely(fn, value)
	if err != nil {
		d.rawCache[name] = CANTHASH

		return CANTHASH
	}

	c := d.compareAndStore(key(RAW, name), digest)
	d.rawCache[name] = c

	return c
}

// compareAndStore compares digest against the stored hash for storeKey,
// updates it, and returns the resulting classification.
func (d *Detector) compareAndStore(storeKey string, digest uint64) Classification {
	prev, existed := d.stored[storeKey]
	d.stored[storeKey] = digest

	if !existed {
		return NEW
	}

	if prev == digest {
		return UNCHANGED
	}

	return CHANGED
}

// Snapshot returns a copy of the stored per-(stage,name) digest table, so a
// long-lived host can persist classification state across a process
// restart instead of reclassifying every name as NEW on resume.
func (d *Detector) Snapshot() map[string]uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]uint64, len(d.stored))
	for k, v := range d.stored {
		out[k] = v
	}

	return out
}

// Restore replaces the stored digest table with a previously captured
// snapshot. The per-transaction RAW cache is left untouched, since it only
// ever holds state for a transaction already in flight.
func (d *Detector) Restore(snapshot map[string]uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored := make(map[string]uint64, len(snapshot))
	for k, v := range snapshot {
		stored[k] = v
	}

	d.stored = stored
}

// hashSafely recovers from a hasher panic and converts it to an error, so a
// misbehaving hasher cannot abort the whole commit (spec §7: hashers "must
// raise, which is converted to CANT_HASH").
func hashSafely(fn HasherFunc, value any) (digest uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errHasherPanicked
		}
	}()

	return fn(value)
}

var errHasherPanicked = errors.New("changedetector: hasher panicked")
