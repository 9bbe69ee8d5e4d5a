// Package objectstore implements the in-memory Object Store (spec.md
// §4.5, C5): the single-transaction-scoped map of live object state that
// the PTB Executor reads from and writes to.
package objectstore

import (
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

// ErrImmutableMutation is returned when code attempts to mutate an
// immutable or frozen object (spec.md §4.5 invariant).
type ErrImmutableMutation struct {
	ID     suitypes.ObjectID
	Frozen bool
}

func (e *ErrImmutableMutation) Error() string {
	if e.Frozen {
		return fmt.Sprintf("objectstore: object %s is frozen and cannot be mutated", e.ID)
	}
	return fmt.Sprintf("objectstore: object %s is immutable and cannot be mutated", e.ID)
}

// ErrSharedAlreadyAccessed is returned when a shared object is mutated
// more than once in the same transaction (spec.md §4.5, §9
// "single-command-mutation rule").
type ErrSharedAlreadyAccessed struct {
	ID suitypes.ObjectID
}

func (e *ErrSharedAlreadyAccessed) Error() string {
	return fmt.Sprintf("objectstore: shared object %s already mutated once this transaction", e.ID)
}

// ErrSlotConsumed is returned when a by-value slot that was already
// zeroed by a prior consumption is referenced again (spec.md §4.5
// "zeroes the source slot so subsequent references fail explicitly").
type ErrSlotConsumed struct {
	ID suitypes.ObjectID
}

func (e *ErrSlotConsumed) Error() string {
	return fmt.Sprintf("objectstore: object %s was already consumed by value this transaction", e.ID)
}

// Store is the live object state for exactly one transaction.
type Store struct {
	objects map[suitypes.ObjectID]*suitypes.Object
	// consumed tracks ids whose slot has been zeroed by a by-value
	// consumption, distinct from Object.BCS == nil so a legitimately
	// empty BCS payload is never confused with "already spent".
	consumed map[suitypes.ObjectID]bool
	// inputVersions records the version each object carried on entry,
	// needed for the lamport timestamp computation (spec.md §4.5) and
	// for classifying created vs. mutated at effects time (C8).
	inputVersions map[suitypes.ObjectID]uint64
	// deleted accumulates objects explicitly deleted this transaction,
	// kept separately since Consume removes them from objects.
	deleted []*suitypes.Object
}

// New returns an empty store.
func New() *Store {
	return &Store{
		objects:       make(map[suitypes.ObjectID]*suitypes.Object),
		consumed:      make(map[suitypes.ObjectID]bool),
		inputVersions: make(map[suitypes.ObjectID]uint64),
	}
}

// Prime installs an object fetched from the historical provider before
// execution begins. Records its version as an "input version" for
// lamport-timestamp and created/mutated classification purposes.
func (s *Store) Prime(obj *suitypes.Object) {
	s.objects[obj.ID] = obj
	s.inputVersions[obj.ID] = obj.Version
}

// Get returns the live object, or ok=false if the id is unknown or its
// slot has been consumed — callers distinguish the two via GetChecked.
func (s *Store) Get(id suitypes.ObjectID) (*suitypes.Object, bool) {
	obj, ok := s.objects[id]
	return obj, ok
}

// GetChecked returns the live object or a structured error distinguishing
// "never existed" from "consumed by value" (spec.md §4.5).
func (s *Store) GetChecked(id suitypes.ObjectID) (*suitypes.Object, error) {
	if s.consumed[id] {
		return nil, &ErrSlotConsumed{ID: id}
	}
	obj, ok := s.objects[id]
	if !ok {
		return nil, fmt.Errorf("objectstore: object %s not found", id)
	}
	return obj, nil
}

// Put writes a mutated object back, enforcing the immutability and
// shared-object invariants (spec.md §4.5).
func (s *Store) Put(obj *suitypes.Object) error {
	if obj.Owner.Kind == suitypes.OwnerImmutable {
		return &ErrImmutableMutation{ID: obj.ID}
	}
	if obj.Frozen {
		return &ErrImmutableMutation{ID: obj.ID, Frozen: true}
	}
	if obj.Owner.Kind == suitypes.OwnerShared {
		if obj.SharedLockedMutable {
			return &ErrSharedAlreadyAccessed{ID: obj.ID}
		}
		obj.SharedLockedMutable = true
	}
	obj.Modified = true
	s.objects[obj.ID] = obj
	return nil
}

// Consume zeroes a by-value slot so subsequent references fail
// explicitly rather than silently double-spend (spec.md §4.5).
func (s *Store) Consume(id suitypes.ObjectID) {
	delete(s.objects, id)
	s.consumed[id] = true
}

// Delete removes an object entirely (e.g. table::remove, or a coin fully
// merged away) and marks it for the deleted set at effects time.
func (s *Store) Delete(obj *suitypes.Object) {
	obj.BCS = nil
	s.Consume(obj.ID)
	s.deleted = append(s.deleted, obj)
}

// All returns every object currently live in the store (for effects
// construction).
func (s *Store) All() map[suitypes.ObjectID]*suitypes.Object {
	return s.objects
}

// Deleted returns every object explicitly deleted this transaction.
func (s *Store) Deleted() []*suitypes.Object {
	return s.deleted
}

// InputVersion returns the version an object carried when primed, for
// lamport-timestamp computation.
func (s *Store) InputVersion(id suitypes.ObjectID) (uint64, bool) {
	v, ok := s.inputVersions[id]
	return v, ok
}

// InputVersions returns every primed object's input version.
func (s *Store) InputVersions() map[suitypes.ObjectID]uint64 {
	return s.inputVersions
}

// LamportTimestamp computes 1 + max(input versions) (spec.md §3, §8
// invariant 4). Returns 1 if the store has no inputs (a replay with no
// object inputs at all, e.g. a pure-value-only PTB).
func (s *Store) LamportTimestamp() uint64 {
	var max uint64
	for _, v := range s.inputVersions {
		if v > max {
			max = v
		}
	}
	return max + 1
}

// Digest computes the Blake2b-256 digest of an object's current bytes,
// or the all-zero marker if bytes is empty (a delete/wrap marker per
// spec.md §3).
func Digest(objBytes []byte) suitypes.Digest {
	if len(objBytes) == 0 {
		return suitypes.ZeroDigest
	}
	return suitypes.Digest(blake2b.Sum256(objBytes))
}
