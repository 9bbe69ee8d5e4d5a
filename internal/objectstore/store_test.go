package objectstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

func primed(id suitypes.ObjectID, version uint64, owner suitypes.Owner) *suitypes.Object {
	return &suitypes.Object{ID: id, Version: version, Owner: owner, BCS: []byte("payload")}
}

func TestImmutableCannotBeMutated(t *testing.T) {
	s := New()
	id := suitypes.MustAddress("0x1")
	obj := primed(id, 10, suitypes.ImmutableOwner())
	s.Prime(obj)

	err := s.Put(obj)
	require.Error(t, err)
	var immErr *ErrImmutableMutation
	require.ErrorAs(t, err, &immErr)
}

func TestSharedObjectMutatedAtMostOnce(t *testing.T) {
	s := New()
	id := suitypes.MustAddress("0x2")
	obj := primed(id, 5, suitypes.SharedOwner(5))
	s.Prime(obj)

	require.NoError(t, s.Put(obj))
	err := s.Put(obj)
	require.Error(t, err)
	var sharedErr *ErrSharedAlreadyAccessed
	require.ErrorAs(t, err, &sharedErr)
}

func TestConsumeThenGetFailsExplicitly(t *testing.T) {
	s := New()
	id := suitypes.MustAddress("0x3")
	obj := primed(id, 1, suitypes.AddressOwner(suitypes.MustAddress("0xaa")))
	s.Prime(obj)
	s.Consume(id)

	_, err := s.GetChecked(id)
	require.Error(t, err)
	var consumedErr *ErrSlotConsumed
	require.ErrorAs(t, err, &consumedErr)
}

func TestLamportTimestamp(t *testing.T) {
	s := New()
	s.Prime(primed(suitypes.MustAddress("0x1"), 10, suitypes.AddressOwner(suitypes.Address{})))
	s.Prime(primed(suitypes.MustAddress("0x2"), 42, suitypes.AddressOwner(suitypes.Address{})))
	require.Equal(t, uint64(43), s.LamportTimestamp())
}

func TestDigestZeroForEmptyBytes(t *testing.T) {
	require.True(t, Digest(nil).IsZero())
	require.False(t, Digest([]byte("x")).IsZero())
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New()
	owner := suitypes.AddressOwner(suitypes.MustAddress("0xaa"))
	obj := primed(suitypes.MustAddress("0x42"), 7, owner)
	s.Prime(obj)

	snap := s.Snapshot()
	restored, err := Restore(snap, func(suitypes.ObjectID) suitypes.Owner { return owner })
	require.NoError(t, err)

	got, ok := restored.Get(suitypes.MustAddress("0x42"))
	require.True(t, ok)
	require.Equal(t, obj.Version, got.Version)
	require.Equal(t, obj.BCS, got.BCS)
}
