package replay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sui-sandbox/replay/internal/historical"
	"github.com/sui-sandbox/replay/internal/suitypes"
	"github.com/sui-sandbox/replay/internal/vm"
)

// fakeHistoricalSource stands in for the checkpoint archive and gRPC
// archive edges (HTTP and gRPC respectively), letting SourceArchive and
// SourceGRPCHybrid be driven through the real historical.Provider wiring
// without any network access.
type fakeHistoricalSource struct {
	objects  map[suitypes.ObjectID]*suitypes.Object
	packages map[suitypes.Address]*suitypes.Package
	txs      map[string]*suitypes.TransactionRecord
}

func (f *fakeHistoricalSource) FetchObjectAtVersion(ctx context.Context, id suitypes.ObjectID, version uint64) (*suitypes.Object, error) {
	obj, ok := f.objects[id]
	if !ok {
		return nil, &historical.ErrDataGap{ID: id, RequestVersion: version}
	}
	return obj, nil
}

func (f *fakeHistoricalSource) FetchPackageClosure(ctx context.Context, packageID suitypes.Address, checkpoint uint64) (*suitypes.Package, error) {
	pkg, ok := f.packages[packageID]
	if !ok {
		return nil, &historical.ErrDataGap{ID: packageID, Checkpoint: checkpoint}
	}
	return pkg, nil
}

func (f *fakeHistoricalSource) FetchTransaction(ctx context.Context, digest string) (*suitypes.TransactionRecord, error) {
	tx, ok := f.txs[digest]
	if !ok {
		return nil, &historical.ErrDataGap{Checkpoint: 0}
	}
	return tx, nil
}

// TestReplayThroughHistoricalProviderSourceArchive drives Replay with
// SourceArchive through a historical.Provider built over fakes standing
// in for the checkpoint archive's HTTP edge, exercising the wiring
// cmd/replay-historical uses in production (NewProvider,
// NewArchiveObjectSource's priority-chain contract) end to end rather
// than in isolation.
func TestReplayThroughHistoricalProviderSourceArchive(t *testing.T) {
	sender := suitypes.MustAddress("0xaaaa")
	poolID := suitypes.MustAddress("0xf002")
	digest := "0xdeadbeef"

	tx := moveCallTransactionRecord(sender, poolID)
	tx.Checkpoint = 1000

	source := &fakeHistoricalSource{
		objects: map[suitypes.ObjectID]*suitypes.Object{
			poolID: {
				ID: poolID, Version: 1, Owner: suitypes.AddressOwner(sender),
				Type: suitypes.StructTag{Address: scenarioModuleAddr, Module: "clob", Name: "Pool"},
				BCS:  []byte{1, 2, 3, 4}, HasStore: true,
			},
		},
		packages: map[suitypes.Address]*suitypes.Package{
			scenarioModuleAddr: {
				RuntimeAddress: scenarioModuleAddr, OriginalAddress: scenarioModuleAddr,
				Version: 1, Modules: map[string][]byte{"clob": {0xde, 0xad, 0xbe, 0xef}},
			},
		},
		txs: map[string]*suitypes.TransactionRecord{digest: tx},
	}

	cache, err := historical.NewCache(16, 16)
	require.NoError(t, err)
	provider := historical.NewProvider(cache, []historical.ObjectSource{source}, source, source)

	envelope, err := Replay(context.Background(), digest, Options{
		Source: SourceArchive,
	}, Deps{
		Provider:   provider,
		Signatures: scenarioSignatures,
		Guest:      fakeGuestFactory(&vm.CallResult{Success: true, UpdatedRefs: [][]byte{{9, 9, 9, 9}}}),
	})
	require.NoError(t, err)
	require.True(t, envelope.LocalSuccess)
	require.Equal(t, 1, envelope.CommandsExecuted)
	require.Equal(t, 1, envelope.ExecutionPath.DependencyPackagesFetched)
}

// TestReplayThroughHistoricalProviderSourceGRPCHybrid mirrors the above
// for SourceGRPCHybrid, the other source mode cmd/replay-historical
// selects between.
func TestReplayThroughHistoricalProviderSourceGRPCHybrid(t *testing.T) {
	sender := suitypes.MustAddress("0xaaaa")
	poolID := suitypes.MustAddress("0xf002")
	digest := "0xfeedface"

	tx := moveCallTransactionRecord(sender, poolID)
	tx.Checkpoint = 1000

	source := &fakeHistoricalSource{
		objects: map[suitypes.ObjectID]*suitypes.Object{
			poolID: {
				ID: poolID, Version: 1, Owner: suitypes.AddressOwner(sender),
				Type: suitypes.StructTag{Address: scenarioModuleAddr, Module: "clob", Name: "Pool"},
				BCS:  []byte{1, 2, 3, 4}, HasStore: true,
			},
		},
		packages: map[suitypes.Address]*suitypes.Package{
			scenarioModuleAddr: {
				RuntimeAddress: scenarioModuleAddr, OriginalAddress: scenarioModuleAddr,
				Version: 1, Modules: map[string][]byte{"clob": {0xde, 0xad, 0xbe, 0xef}},
			},
		},
		txs: map[string]*suitypes.TransactionRecord{digest: tx},
	}

	cache, err := historical.NewCache(16, 16)
	require.NoError(t, err)
	// Two priority-chain entries, mirroring cmd/replay-historical's
	// "gRPC-hybrid" wiring: archive first, gRPC as fallback.
	provider := historical.NewProvider(cache, []historical.ObjectSource{source, source}, source, source)

	envelope, err := Replay(context.Background(), digest, Options{
		Source: SourceGRPCHybrid,
	}, Deps{
		Provider:   provider,
		Signatures: scenarioSignatures,
		Guest:      fakeGuestFactory(&vm.CallResult{Success: true, UpdatedRefs: [][]byte{{9, 9, 9, 9}}}),
	})
	require.NoError(t, err)
	require.True(t, envelope.LocalSuccess)
}
