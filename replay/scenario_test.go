package replay

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"

	"github.com/sui-sandbox/replay/internal/objectstore"
	"github.com/sui-sandbox/replay/internal/resolver"
	"github.com/sui-sandbox/replay/internal/suitypes"
	"github.com/sui-sandbox/replay/internal/vm"
)

// fakeGuest is a minimal vm.MoveVMGuest stand-in, mirroring
// internal/ptb's own test fake, used here to drive the orchestrator's
// full MoveCall path without a compiled Move VM.
type fakeGuest struct {
	result *vm.CallResult
}

func (g *fakeGuest) LoadModule(address [32]byte, name string, compiled []byte) error { return nil }

func (g *fakeGuest) CallFunction(req vm.CallRequest) (*vm.CallResult, error) {
	return g.result, nil
}

func fakeGuestFactory(result *vm.CallResult) GuestFactory {
	return func(ctx context.Context, runtime wazero.Runtime, h *vm.Harness) (vm.MoveVMGuest, error) {
		return &fakeGuest{result: result}, nil
	}
}

var scenarioModuleAddr = suitypes.MustAddress("0xcb01")

// scenarioSignatures answers every MoveCall in the fixtures below with a
// fixed one-object-argument, no-return signature.
func scenarioSignatures(ctx context.Context, packageID suitypes.Address, module, function string) (resolver.FunctionSignature, error) {
	return resolver.FunctionSignature{
		IsEntry:    true,
		Parameters: []resolver.ParamType{{TypeParamIndex: -1, ByMutableRef: true}},
	}, nil
}

func moveCallTransactionRecord(sender, poolID suitypes.Address) *suitypes.TransactionRecord {
	return &suitypes.TransactionRecord{
		Digest: suitypes.Digest{9, 9, 9}, Sender: sender,
		GasBudget: 1_000_000, GasPrice: 1000, Checkpoint: 235248811,
		TimestampMs: 1_700_000_000_000, ProtocolVersion: 60, Epoch: 10,
		Inputs: []suitypes.Input{
			{Kind: suitypes.InputObjectRef, ObjectID: poolID, ObjectRefKind: suitypes.ObjectRefOwned, Version: 1},
		},
		Commands: []suitypes.Command{
			{Kind: suitypes.CommandMoveCall, MoveCall: &suitypes.MoveCallCommand{
				Package: scenarioModuleAddr, Module: "clob", Function: "cancel_order",
				Arguments: []suitypes.Argument{suitypes.InputArg(0)},
			}},
		},
		Effects: suitypes.RecordedEffects{Status: suitypes.EffectsStatus{Success: true}},
	}
}

func writeScenarioStateFile(t *testing.T, tx *suitypes.TransactionRecord, poolID suitypes.Address, poolBCS []byte) string {
	t.Helper()
	store := objectstore.New()
	store.Prime(&suitypes.Object{
		ID: poolID, Version: 1, Owner: suitypes.AddressOwner(tx.Sender),
		Type: suitypes.StructTag{Address: scenarioModuleAddr, Module: "clob", Name: "Pool"},
		BCS:  poolBCS, HasStore: true,
	})
	packages := map[suitypes.Address]*suitypes.Package{
		scenarioModuleAddr: {
			RuntimeAddress: scenarioModuleAddr, OriginalAddress: scenarioModuleAddr,
			Version: 1, Modules: map[string][]byte{"clob": {0xde, 0xad, 0xbe, 0xef}},
		},
	}
	export := ExportState(tx, store, packages, 1000)
	raw, err := json.MarshalIndent(export, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

// TestScenarioMoveCallSuccess mirrors S1 (spec.md §8 "Cancel-order
// (CLOB)"): a single successful MoveCall command against a loaded
// package, exercising the full C1/C5/C6/C7 wiring end to end.
func TestScenarioMoveCallSuccess(t *testing.T) {
	sender := suitypes.MustAddress("0xaaaa")
	poolID := suitypes.MustAddress("0xf002")
	tx := moveCallTransactionRecord(sender, poolID)
	path := writeScenarioStateFile(t, tx, poolID, []byte{1, 2, 3, 4})

	envelope, err := Replay(context.Background(), "", Options{
		Source:    SourceLocal,
		StateFile: path,
	}, Deps{
		Signatures: scenarioSignatures,
		Guest:      fakeGuestFactory(&vm.CallResult{Success: true, UpdatedRefs: [][]byte{{9, 9, 9, 9}}}),
	})
	require.NoError(t, err)
	require.True(t, envelope.LocalSuccess)
	require.Equal(t, 1, envelope.CommandsExecuted)
	require.Nil(t, envelope.Abort)
}

// TestScenarioMoveCallAbort mirrors S4 (spec.md §8 "Known-failure
// arbitrage"): the guest reports a structured abort and the
// orchestrator must surface it as local_success=false with a populated
// MoveAbortInfo, never a bare Go error.
func TestScenarioMoveCallAbort(t *testing.T) {
	sender := suitypes.MustAddress("0xaaaa")
	poolID := suitypes.MustAddress("0xf002")
	tx := moveCallTransactionRecord(sender, poolID)
	path := writeScenarioStateFile(t, tx, poolID, []byte{1, 2, 3, 4})

	envelope, err := Replay(context.Background(), "", Options{
		Source:    SourceLocal,
		StateFile: path,
	}, Deps{
		Signatures: scenarioSignatures,
		Guest: fakeGuestFactory(&vm.CallResult{
			Success: false, AbortMajor: 1, AbortSub: 2, AbortOffset: 43,
		}),
	})
	require.NoError(t, err)
	require.False(t, envelope.LocalSuccess)
	require.NotNil(t, envelope.Abort)
	require.Equal(t, uint64(2), envelope.Abort.SubStatus)
	require.Equal(t, uint16(43), envelope.Abort.InstructionOffset)
}
