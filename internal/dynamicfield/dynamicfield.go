// Package dynamicfield implements the Dynamic Field Engine (spec.md
// §4.4, C4): deterministic child-id derivation, preloading, on-demand
// fetch, and deletion tracking so dynamic-field reads/writes behave as
// they did on-chain.
package dynamicfield

import (
	"bytes"

	"golang.org/x/crypto/blake2b"

	"github.com/sui-sandbox/replay/internal/bcs"
	"github.com/sui-sandbox/replay/internal/linkage"
	"github.com/sui-sandbox/replay/internal/objectstore"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

// childIDDomainTag is the leading byte distinguishing dynamic-field
// hashing from other Blake2b-256 uses (spec.md §3).
const childIDDomainTag = 0xf0

// FetchFunc is the closure the orchestrator installs over the Historical
// State Provider (C2) to satisfy on-demand child fetches (spec.md §4.4).
type FetchFunc func(childID suitypes.ObjectID) (*suitypes.Object, error)

// ErrChildNotFound is returned when neither the preload cache nor the
// fetch closure has the requested child (spec.md §4.4 "archive gap").
type ErrChildNotFound struct {
	ID suitypes.ObjectID
}

func (e *ErrChildNotFound) Error() string {
	return "dynamicfield: child not found: " + e.ID.String()
}

// ErrKeyTypeUnresolvable is returned when the key's type tag cannot be
// rewritten/resolved for hashing (spec.md §4.4).
type ErrKeyTypeUnresolvable struct {
	Reason string
}

func (e *ErrKeyTypeUnresolvable) Error() string {
	return "dynamicfield: key type unresolvable: " + e.Reason
}

// Stats summarizes engine activity for the envelope's analysis field
// (SPEC_FULL.md §4, C4 addition).
type Stats struct {
	Preloaded    int
	OnDemand     int
	DeletedCount int
}

// Engine tracks dynamic-field children for one replay.
type Engine struct {
	store     *objectstore.Store
	aliases   *linkage.Map
	fetch     FetchFunc
	deleted   map[suitypes.ObjectID]struct{}
	preloaded int
	onDemand  int
}

// New constructs an engine bound to the transaction's object store and
// alias map. fetch may be nil until the orchestrator installs it via
// SetFetcher (spec.md §4.9 step 7).
func New(store *objectstore.Store, aliases *linkage.Map, fetch FetchFunc) *Engine {
	return &Engine{
		store:   store,
		aliases: aliases,
		fetch:   fetch,
		deleted: make(map[suitypes.ObjectID]struct{}),
	}
}

// SetFetcher installs the C2-backed child fetcher closure.
func (e *Engine) SetFetcher(fetch FetchFunc) {
	e.fetch = fetch
}

// ChildID computes Blake2b-256(0xf0 || parent || LE_u64(len(keyBytes)) ||
// keyBytes || bcs(keyType)) with keyType's defining address rewritten
// through the alias map first (spec.md §3, §4.4). Deterministic: two
// calls with the same inputs yield byte-identical ids (spec.md §8
// invariant 1).
func (e *Engine) ChildID(parent suitypes.ObjectID, keyType suitypes.StructTag, keyBytes []byte) (suitypes.ObjectID, error) {
	runtimeKeyType := keyType
	if e.aliases != nil {
		runtimeKeyType = e.aliases.RewriteStructTag(keyType)
	}
	tagBytes, err := bcs.Marshal(newStructTagWire(runtimeKeyType))
	if err != nil {
		return suitypes.ObjectID{}, &ErrKeyTypeUnresolvable{Reason: err.Error()}
	}

	var buf bytes.Buffer
	buf.WriteByte(childIDDomainTag)
	buf.Write(parent[:])
	bcs.PutU64LE(&buf, uint64(len(keyBytes)))
	buf.Write(keyBytes)
	buf.Write(tagBytes)

	sum := blake2b.Sum256(buf.Bytes())
	return suitypes.ObjectID(sum), nil
}

// structTagWire is the BCS-taggable mirror of suitypes.StructTag, kept
// separate so suitypes itself doesn't need a bcs-go struct tag
// dependency sprinkled through its otherwise-plain fields.
type structTagWire struct {
	Address    [32]byte             `bcs:"address"`
	Module     string                `bcs:"module"`
	Name       string                `bcs:"name"`
	TypeParams []structTagWireParam `bcs:"type_params"`
}

type structTagWireParam struct {
	Kind uint8          `bcs:"kind"`
	Tag  *structTagWire `bcs:"tag,optional"`
}

func newStructTagWire(t suitypes.StructTag) structTagWire {
	w := structTagWire{Address: t.Address, Module: t.Module, Name: t.Name}
	w.TypeParams = make([]structTagWireParam, len(t.TypeParams))
	for i, p := range t.TypeParams {
		w.TypeParams[i] = structTagWireParam{Kind: uint8(p.Kind)}
		if p.Kind == suitypes.TypeTagStruct && p.StructTag != nil {
			inner := newStructTagWire(*p.StructTag)
			w.TypeParams[i].Tag = &inner
		}
	}
	return w
}

// Preload seeds a known child into the object store without any fetch
// (spec.md §4.4), e.g. from unchanged_loaded_runtime_objects.
func (e *Engine) Preload(child *suitypes.Object) {
	child.Owner = suitypes.ParentOwner(child.Owner.Parent)
	e.store.Prime(child)
	e.preloaded++
}

// MarkDeleted records that childID was just removed (e.g. by
// table::remove) so a subsequent existence check does not re-fetch it
// from the archive and resurrect a stale read (spec.md §4.4 policy 3).
func (e *Engine) MarkDeleted(parent suitypes.ObjectID, childID suitypes.ObjectID) {
	e.deleted[childID] = struct{}{}
}

// ClearDeleted empties the deleted-children set; called at transaction
// end (spec.md §4.4 policy 3).
func (e *Engine) ClearDeleted() {
	e.deleted = make(map[suitypes.ObjectID]struct{})
}

// HasChildObject is a pure existence check: it must NOT insert the
// fetched child into mutable runtime state, only confirm availability
// (spec.md §4.4 policy 1, §8 invariant 6). A child created during this
// transaction (already live, never fetched) and a child marked deleted
// both resolve without touching the fetch closure.
func (e *Engine) HasChildObject(childID suitypes.ObjectID) (bool, error) {
	if _, wasDeleted := e.deleted[childID]; wasDeleted {
		return false, nil
	}
	if _, ok := e.store.Get(childID); ok {
		return true, nil
	}
	if e.fetch == nil {
		return false, nil
	}
	obj, err := e.fetch(childID)
	if err != nil {
		return false, &ErrChildNotFound{ID: childID}
	}
	return obj != nil, nil
}

// BorrowChildObject resolves a child for a mutable/immutable borrow,
// triggering an on-demand fetch via the installed closure if the child
// is not already live (spec.md §4.4). Unlike HasChildObject, a
// successful fetch here DOES insert the child into the object store,
// since a borrow is about to read or write through it.
func (e *Engine) BorrowChildObject(childID suitypes.ObjectID) (*suitypes.Object, error) {
	if _, wasDeleted := e.deleted[childID]; wasDeleted {
		return nil, &ErrChildNotFound{ID: childID}
	}
	if obj, ok := e.store.Get(childID); ok {
		return obj, nil
	}
	if e.fetch == nil {
		return nil, &ErrChildNotFound{ID: childID}
	}
	obj, err := e.fetch(childID)
	if err != nil || obj == nil {
		return nil, &ErrChildNotFound{ID: childID}
	}
	e.store.Prime(obj)
	e.onDemand++
	return obj, nil
}

// Stats reports preload/on-demand/deleted counts for the envelope's
// analysis field.
func (e *Engine) Stats() Stats {
	return Stats{Preloaded: e.preloaded, OnDemand: e.onDemand, DeletedCount: len(e.deleted)}
}
