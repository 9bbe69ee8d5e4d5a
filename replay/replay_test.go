package replay

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sui-sandbox/replay/internal/objectstore"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

func coinBCS(balance uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, balance)
	return out
}

// writeFixtureStateFile builds a minimal coin-splitting transaction (no
// Move call, so no resolver priming is needed), exports it with
// ExportState, and writes it to a temp file for a SourceLocal replay —
// exercising the same round trip S6 describes.
func writeFixtureStateFile(t *testing.T, gasBalance uint64, recordedEffectsSuccess bool) (string, suitypes.ObjectID, suitypes.Address) {
	t.Helper()

	sender := suitypes.MustAddress("0xaaaa")
	gasID := suitypes.MustAddress("0xf001")
	coinType := suitypes.StructTag{Address: suitypes.SuiFrameworkAddress, Module: "coin", Name: "Coin"}

	store := objectstore.New()
	store.Prime(&suitypes.Object{
		ID: gasID, Version: 1, Owner: suitypes.AddressOwner(sender),
		Type: coinType, BCS: coinBCS(gasBalance), HasStore: true,
	})

	tx := &suitypes.TransactionRecord{
		Digest:          suitypes.Digest{1, 2, 3},
		Sender:          sender,
		GasBudget:       1_000_000,
		GasPrice:        1000,
		Checkpoint:      42,
		TimestampMs:     1_700_000_000_000,
		ProtocolVersion: 60,
		Epoch:           10,
		Inputs: []suitypes.Input{
			{Kind: suitypes.InputPure, PureBCS: coinBCS(100)},
		},
		Commands: []suitypes.Command{
			{
				Kind: suitypes.CommandSplitCoins,
				SplitCoins: &suitypes.SplitCoinsCommand{
					Source:  suitypes.GasCoinArg(),
					Amounts: []suitypes.Argument{suitypes.InputArg(0)},
				},
			},
			{
				Kind: suitypes.CommandTransferObjects,
				TransferObjects: &suitypes.TransferObjectsCommand{
					Objects:   []suitypes.Argument{suitypes.NestedArg(0, 0)},
					Recipient: suitypes.InputArg(0),
				},
			},
		},
		Effects: suitypes.RecordedEffects{
			Status: suitypes.EffectsStatus{Success: recordedEffectsSuccess},
		},
	}

	export := ExportState(tx, store, nil, 1000)
	raw, err := json.MarshalIndent(export, "", "  ")
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path, gasID, sender
}

func TestReplayLocalSplitAndTransfer(t *testing.T) {
	path, gasID, _ := writeFixtureStateFile(t, 1000, true)

	envelope, err := Replay(context.Background(), "", Options{
		Source:    SourceLocal,
		StateFile: path,
	}, Deps{})
	require.NoError(t, err)
	require.True(t, envelope.LocalSuccess)
	require.Equal(t, 2, envelope.CommandsExecuted)
	require.NotNil(t, envelope.Effects)
	require.Contains(t, envelope.Effects.Mutated, gasID)
}

func TestReplayAnalyzeOnly(t *testing.T) {
	path, _, _ := writeFixtureStateFile(t, 1000, true)

	envelope, err := Replay(context.Background(), "", Options{
		Source:      SourceLocal,
		StateFile:   path,
		AnalyzeOnly: true,
	}, Deps{})
	require.NoError(t, err)
	require.NotNil(t, envelope.Analysis)
	require.Equal(t, 1, envelope.Analysis.InputObjectCount)
	require.Equal(t, 0, envelope.CommandsExecuted)
	require.Nil(t, envelope.Effects)
}

func TestReplayNoStateFileError(t *testing.T) {
	_, err := Replay(context.Background(), "deadbeef", Options{Source: SourceLocal}, Deps{})
	require.Error(t, err)
	require.IsType(t, &ErrNoStateFile{}, err)
}

func TestReplayUnknownSourceError(t *testing.T) {
	_, err := Replay(context.Background(), "deadbeef", Options{Source: "bogus"}, Deps{})
	require.Error(t, err)
}

func TestStateExportRoundTrip(t *testing.T) {
	path, gasID, sender := writeFixtureStateFile(t, 500, false)

	tx, store, packages, err := ImportState(path)
	require.NoError(t, err)
	require.Empty(t, packages)
	require.Equal(t, sender, tx.Sender)
	require.Len(t, tx.Commands, 2)
	require.False(t, tx.Effects.Status.Success)

	obj, ok := store.Get(gasID)
	require.True(t, ok)
	require.Equal(t, uint64(500), binary.LittleEndian.Uint64(obj.BCS))
	require.Equal(t, suitypes.OwnerAddressOwned, obj.Owner.Kind)
}
