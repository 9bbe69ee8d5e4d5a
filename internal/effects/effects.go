// Package effects implements the Effects & Comparator (spec.md §4.8,
// C8): classifying every object the Object Store touched, assigning
// lamport output versions, computing digests, and scoring a replay's
// result against the recorded on-chain effects.
package effects

import (
	"github.com/sui-sandbox/replay/internal/objectstore"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

// Built is the effects block the orchestrator attaches to a completed
// replay, mirroring the shape of suitypes.RecordedEffects so the two can
// be compared field-by-field.
type Built struct {
	Status  suitypes.EffectsStatus
	Created map[suitypes.ObjectID]uint64 // id -> output version
	Mutated map[suitypes.ObjectID]uint64
	Deleted map[suitypes.ObjectID]struct{}
	Wrapped map[suitypes.ObjectID]uint64
	Digests map[suitypes.ObjectID]suitypes.Digest
}

// Build classifies every object touched this transaction (spec.md §4.8
// "Effects construction"). When status reports failure, Build returns
// the status with every classification empty, since per spec.md §4.6
// "the Object Store is not applied to the effects" on failure.
func Build(store *objectstore.Store, status suitypes.EffectsStatus) Built {
	out := Built{
		Status:  status,
		Created: make(map[suitypes.ObjectID]uint64),
		Mutated: make(map[suitypes.ObjectID]uint64),
		Deleted: make(map[suitypes.ObjectID]struct{}),
		Wrapped: make(map[suitypes.ObjectID]uint64),
		Digests: make(map[suitypes.ObjectID]suitypes.Digest),
	}
	if !status.Success {
		return out
	}

	lamport := store.LamportTimestamp()
	inputVersions := store.InputVersions()

	for id, obj := range store.All() {
		_, wasInput := inputVersions[id]
		switch {
		case obj.Wrapped:
			out.Wrapped[id] = lamport
		case !wasInput:
			out.Created[id] = lamport
		case obj.Modified:
			out.Mutated[id] = lamport
		default:
			continue // unchanged-loaded-runtime object, not a produced effect
		}
		out.Digests[id] = objectstore.Digest(obj.BCS)
	}

	for _, obj := range store.Deleted() {
		out.Deleted[obj.ID] = struct{}{}
		out.Digests[obj.ID] = suitypes.ZeroDigest
	}

	return out
}

// Comparison is the scored result of matching a Built effects block
// against the recorded on-chain effects (spec.md §4.8 "Comparison").
type Comparison struct {
	StatusMatch  bool
	CreatedMatch bool
	DeletedMatch bool
	MutatedMatch bool // within tolerance
	Notes        []string
	Score        float64 // fraction of the four criteria satisfied
}

// mutatedTolerance accounts for the gas coin mutation the sandbox does
// not track as user-visible (spec.md §4.8).
const mutatedTolerance = 2

// Compare scores a built effects block against the recorded baseline.
func Compare(built Built, recorded suitypes.RecordedEffects) Comparison {
	var cmp Comparison

	cmp.StatusMatch = built.Status.Success == recorded.Status.Success

	cmp.CreatedMatch = len(built.Created) == len(recorded.Created)
	if !cmp.CreatedMatch {
		cmp.Notes = append(cmp.Notes, "created set size mismatch")
	}

	cmp.DeletedMatch = len(built.Deleted) == len(recorded.Deleted)
	if !cmp.DeletedMatch {
		cmp.Notes = append(cmp.Notes, "deleted set size mismatch")
	}

	diff := len(built.Mutated) - len(recorded.Mutated)
	if diff < 0 {
		diff = -diff
	}
	cmp.MutatedMatch = diff <= mutatedTolerance
	if !cmp.MutatedMatch {
		cmp.Notes = append(cmp.Notes, "mutated set size outside tolerance")
	}

	satisfied := 0
	for _, ok := range []bool{cmp.StatusMatch, cmp.CreatedMatch, cmp.DeletedMatch, cmp.MutatedMatch} {
		if ok {
			satisfied++
		}
	}
	cmp.Score = float64(satisfied) / 4.0
	return cmp
}
