// Package namespace implements the process-long variable mapping (spec
// §3, §4.6): reads, writes and deletes are tracked into touched/deleted
// sets unless the armed flag is cleared, and StateManager.Commit drives
// the walker, detector and serializer to produce atomic changes.
package namespace

import "sync"

// PersistablePredicate hides private names from commits (spec §6
// "is_persistable_var").
type PersistablePredicate func(name string) bool

// DefaultPersistable treats every name as persistable.
func DefaultPersistable(string) bool { return true }

// Namespace is the variable mapping plus its dirty-tracking sets.
type Namespace struct {
	mu sync.Mutex

	values  map[string]any
	touched map[string]struct{}
	deleted map[string]struct{}
	armed   bool

	persistable PersistablePredicate
}

// New returns an armed, empty Namespace.
func New(persistable PersistablePredicate) *Namespace {
	if persistable == nil {
		persistable = DefaultPersistable
	}

	return &Namespace{
		values:      make(map[string]any),
		touched:     make(map[string]struct{}),
		deleted:     make(map[string]struct{}),
		armed:       true,
		persistable: persistable,
	}
}

// Arm re-enables dirty tracking for subsequent Get/Set/Remove calls.
func (ns *Namespace) Arm() {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ns.armed = true
}

// Disarm lets internal callers read/write without polluting touched/
// deleted (spec §3 "armed flag allows internal writes to skip tracking").
func (ns *Namespace) Disarm() {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ns.armed = false
}

// Get returns the value bound to name, tracking the read as touched when
// armed.
func (ns *Namespace) Get(name string) (any, bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	v, ok := ns.values[name]
	if ns.armed {
		ns.touched[name] = struct{}{}
	}

	return v, ok
}

// Set assigns value to name: it is removed from deleted and added to
// touched when armed (spec §3 invariants).
func (ns *Namespace) Set(name string, value any) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ns.values[name] = value
	delete(ns.deleted, name)

	if ns.armed {
		ns.touched[name] = struct{}{}
	}
}

// Remove deletes name, adding it to both touched and deleted when armed.
func (ns *Namespace) Remove(name string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	delete(ns.values, name)

	if ns.armed {
		ns.touched[name] = struct{}{}
		ns.deleted[name] = struct{}{}
	}
}

// SetDeserialized inserts a value rebuilt by an AtomicChange.Apply without
// touching dirty tracking (spec §4.7 "insert them into the namespace with
// armed=false, then clears dirtiness for those names"). Satisfies
// internal/change.NamespaceSink.
func (ns *Namespace) SetDeserialized(name, _ string, value any) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ns.values[name] = value
	delete(ns.touched, name)
	delete(ns.deleted, name)
}

// Delete removes name without dirty tracking, the unarmed counterpart to
// Remove used by RemoveAtomicChange.Apply. Satisfies
// internal/change.NamespaceSink.
func (ns *Namespace) Delete(name string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	delete(ns.values, name)
	delete(ns.touched, name)
	delete(ns.deleted, name)
}

// snapshot is the frozen touched/deleted view start_transaction produces.
type snapshot struct {
	touched map[string]struct{}
	deleted map[string]struct{}
}

// StartTransaction freezes the current touched/deleted sets as the source
// for the next commit (spec §4.6 "start_transaction()").
func (ns *Namespace) StartTransaction() snapshot { //nolint:revive // unexported return type is intentional: only Commit consumes it
	ns.mu.Lock()
	defer ns.mu.Unlock()

	snap := snapshot{touched: make(map[string]struct{}, len(ns.touched)), deleted: make(map[string]struct{}, len(ns.deleted))}

	for k := range ns.touched {
		snap.touched[k] = struct{}{}
	}

	for k := range ns.deleted {
		snap.deleted[k] = struct{}{}
	}

	return snap
}

// Roots returns the persistable name->value mapping, used by the walker.
func (ns *Namespace) Roots() map[string]any {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	out := make(map[string]any, len(ns.values))

	for name, v := range ns.values {
		if ns.persistable(name) {
			out[name] = v
		}
	}

	return out
}

// clearDirty resets touched/deleted after a commit completes (spec §4.6
// step 7).
func (ns *Namespace) clearDirty() {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ns.touched = make(map[string]struct{})
	ns.deleted = make(map[string]struct{})
}

// deletedNames returns the snapshot's deleted names that pass the
// persistable predicate.
func (ns *Namespace) deletedNames(snap snapshot) []string {
	names := make([]string, 0, len(snap.deleted))
	for name := range snap.deleted {
		if ns.persistable(name) {
			names = append(names, name)
		}
	}

	return names
}
