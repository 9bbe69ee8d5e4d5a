package historical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

type fakeObjectSource struct {
	objects map[suitypes.ObjectID]*suitypes.Object
}

func (f fakeObjectSource) FetchObjectAtVersion(ctx context.Context, id suitypes.ObjectID, version uint64) (*suitypes.Object, error) {
	obj, ok := f.objects[id]
	if !ok {
		return nil, &ErrDataGap{ID: id, RequestVersion: version}
	}
	return obj, nil
}

func TestProviderFallsThroughPriorityChain(t *testing.T) {
	cache, err := NewCache(16, 16)
	require.NoError(t, err)

	id := suitypes.MustAddress("0xabc")
	want := &suitypes.Object{ID: id, Version: 5, BCS: []byte("hi")}

	empty := fakeObjectSource{objects: map[suitypes.ObjectID]*suitypes.Object{}}
	second := fakeObjectSource{objects: map[suitypes.ObjectID]*suitypes.Object{id: want}}

	p := NewProvider(cache, []ObjectSource{empty, second}, nil, nil)
	got, err := p.FetchObjectAtVersion(context.Background(), id, 5, 100)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// Cached on second lookup, no source consulted.
	got2, err := p.FetchObjectAtVersion(context.Background(), id, 5, 100)
	require.NoError(t, err)
	require.Equal(t, want, got2)
}

func TestProviderReturnsDataGapWhenAllSourcesMiss(t *testing.T) {
	cache, err := NewCache(16, 16)
	require.NoError(t, err)
	id := suitypes.MustAddress("0xdef")
	empty := fakeObjectSource{objects: map[suitypes.ObjectID]*suitypes.Object{}}

	p := NewProvider(cache, []ObjectSource{empty, empty}, nil, nil)
	_, err = p.FetchObjectAtVersion(context.Background(), id, 1, 100)
	require.Error(t, err)
	var gap *ErrDataGap
	require.ErrorAs(t, err, &gap)
	require.Equal(t, []string{"checkpoint_archive", "grpc_archive"}, gap.SourcesTried)
}

func TestProviderFetchObjectsAtVersionsBoundedConcurrency(t *testing.T) {
	cache, err := NewCache(16, 16)
	require.NoError(t, err)
	objs := map[suitypes.ObjectID]*suitypes.Object{}
	reqs := map[suitypes.ObjectID]uint64{}
	for i := 0; i < 20; i++ {
		id := suitypes.MustAddress(suiHex(i))
		objs[id] = &suitypes.Object{ID: id, Version: 1}
		reqs[id] = 1
	}
	src := fakeObjectSource{objects: objs}
	p := NewProvider(cache, []ObjectSource{src}, nil, nil, WithConcurrency(4, 2))

	got, err := p.FetchObjectsAtVersions(context.Background(), reqs, 10)
	require.NoError(t, err)
	require.Len(t, got, 20)
}

func suiHex(i int) string {
	const hexDigits = "0123456789abcdef"
	return "0x" + string(hexDigits[i%16]) + string(hexDigits[(i/16)%16])
}
