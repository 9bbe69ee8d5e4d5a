package historical

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sui-sandbox/replay/internal/bcs"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

func TestScanBlobForObject(t *testing.T) {
	id := suitypes.MustAddress("0xcafe")
	table := blobTable{Objects: []blobObjectRecord{
		{ID: id, Version: 42, BCSData: []byte("payload")},
		{ID: suitypes.MustAddress("0xbeef"), Version: 1, BCSData: []byte("other")},
	}}
	raw, err := bcs.Marshal(table)
	require.NoError(t, err)

	obj, ok := scanBlobForObject(raw, id, 42)
	require.True(t, ok)
	require.Equal(t, []byte("payload"), obj.BCS)

	_, ok = scanBlobForObject(raw, id, 43)
	require.False(t, ok)
}

func TestScanBlobForObjectVersion(t *testing.T) {
	id := suitypes.MustAddress("0xcafe")
	table := blobTable{Objects: []blobObjectRecord{
		{ID: id, Version: 7, BCSData: []byte("x")},
	}}
	raw, err := bcs.Marshal(table)
	require.NoError(t, err)

	version, ok := scanBlobForObjectVersion(raw, id)
	require.True(t, ok)
	require.Equal(t, uint64(7), version)
}
