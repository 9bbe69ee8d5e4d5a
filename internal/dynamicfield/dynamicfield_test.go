package dynamicfield

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sui-sandbox/replay/internal/linkage"
	"github.com/sui-sandbox/replay/internal/objectstore"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

func TestChildIDDeterministic(t *testing.T) {
	store := objectstore.New()
	e := New(store, nil, nil)

	parent := suitypes.MustAddress("0xaa")
	keyType := suitypes.StructTag{Address: suitypes.MustAddress("0x2"), Module: "m", Name: "AllowAllKey"}
	keyBytes := []byte{1, 2, 3}

	id1, err := e.ChildID(parent, keyType, keyBytes)
	require.NoError(t, err)
	id2, err := e.ChildID(parent, keyType, keyBytes)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}

func TestChildIDUsesRuntimeAddressNotOriginal(t *testing.T) {
	store := objectstore.New()
	m := linkage.NewBuilder()
	original := suitypes.MustAddress("0xefe8b36d")
	runtime := suitypes.MustAddress("0xd384ded6")
	require.NoError(t, m.AddPackage(&suitypes.Package{OriginalAddress: original, RuntimeAddress: runtime}))
	m.Freeze()

	eWithAlias := New(store, m, nil)
	eWithoutAlias := New(store, nil, nil)

	parent := suitypes.MustAddress("0xaa")
	keyType := suitypes.StructTag{Address: original, Module: "lending", Name: "MinCollateralAmountKey"}

	idRewritten, err := eWithAlias.ChildID(parent, keyType, []byte("k"))
	require.NoError(t, err)
	idRaw, err := eWithoutAlias.ChildID(parent, keyType, []byte("k"))
	require.NoError(t, err)
	require.NotEqual(t, idRewritten, idRaw, "runtime-address hashing must differ from bytecode-address hashing")
}

func TestHasChildObjectDoesNotInsertMutableState(t *testing.T) {
	store := objectstore.New()
	childID := suitypes.MustAddress("0xcc")
	fetched := false
	e := New(store, nil, func(id suitypes.ObjectID) (*suitypes.Object, error) {
		fetched = true
		return &suitypes.Object{ID: id, BCS: []byte("x")}, nil
	})

	ok, err := e.HasChildObject(childID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, fetched)

	// Crucially: the existence check must not have inserted the child.
	_, stillAbsent := store.Get(childID)
	require.False(t, stillAbsent)
}

func TestMarkDeletedPreventsStaleReFetch(t *testing.T) {
	store := objectstore.New()
	childID := suitypes.MustAddress("0xdd")
	e := New(store, nil, func(id suitypes.ObjectID) (*suitypes.Object, error) {
		return &suitypes.Object{ID: id, BCS: []byte("stale")}, nil
	})
	e.MarkDeleted(suitypes.MustAddress("0xaa"), childID)

	ok, err := e.HasChildObject(childID)
	require.NoError(t, err)
	require.False(t, ok, "a just-deleted child must not resurrect via fetch")

	_, err = e.BorrowChildObject(childID)
	require.Error(t, err)
}
