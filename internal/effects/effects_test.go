package effects

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sui-sandbox/replay/internal/objectstore"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

func TestBuildClassifiesCreatedAndMutated(t *testing.T) {
	store := objectstore.New()

	existing := &suitypes.Object{ID: suitypes.MustAddress("0x1"), Version: 10, BCS: []byte("v1")}
	store.Prime(existing)
	existing.BCS = []byte("v2")
	require.NoError(t, store.Put(existing))

	fresh := &suitypes.Object{ID: suitypes.MustAddress("0x2"), BCS: []byte("new")}
	require.NoError(t, store.Put(fresh))

	built := Build(store, suitypes.EffectsStatus{Success: true})
	require.Contains(t, built.Mutated, existing.ID)
	require.Contains(t, built.Created, fresh.ID)
	require.Equal(t, uint64(11), built.Mutated[existing.ID]) // lamport = 1 + max(input versions)
}

func TestBuildSkippedOnFailure(t *testing.T) {
	store := objectstore.New()
	store.Prime(&suitypes.Object{ID: suitypes.MustAddress("0x1"), Version: 1})
	built := Build(store, suitypes.EffectsStatus{Success: false})
	require.Empty(t, built.Created)
	require.Empty(t, built.Mutated)
}

func TestCompareWithinMutatedTolerance(t *testing.T) {
	built := Built{
		Status:  suitypes.EffectsStatus{Success: true},
		Created: map[suitypes.ObjectID]uint64{},
		Mutated: map[suitypes.ObjectID]uint64{suitypes.MustAddress("0x1"): 2},
		Deleted: map[suitypes.ObjectID]struct{}{},
	}
	recorded := suitypes.RecordedEffects{
		Status: suitypes.EffectsStatus{Success: true},
		Mutated: map[suitypes.ObjectID]struct{}{
			suitypes.MustAddress("0x1"): {},
			suitypes.MustAddress("0x2"): {}, // gas coin, untracked by the sandbox
			suitypes.MustAddress("0x3"): {},
		},
	}
	cmp := Compare(built, recorded)
	require.True(t, cmp.MutatedMatch)
	require.Equal(t, 1.0, cmp.Score)
}

func TestCompareOutsideMutatedTolerance(t *testing.T) {
	built := Built{Status: suitypes.EffectsStatus{Success: true}, Mutated: map[suitypes.ObjectID]uint64{}}
	recorded := suitypes.RecordedEffects{
		Status: suitypes.EffectsStatus{Success: true},
		Mutated: map[suitypes.ObjectID]struct{}{
			suitypes.MustAddress("0x1"): {}, suitypes.MustAddress("0x2"): {},
			suitypes.MustAddress("0x3"): {}, suitypes.MustAddress("0x4"): {},
		},
	}
	cmp := Compare(built, recorded)
	require.False(t, cmp.MutatedMatch)
	require.Less(t, cmp.Score, 1.0)
}
