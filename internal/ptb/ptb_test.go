package ptb

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sui-sandbox/replay/internal/linkage"
	"github.com/sui-sandbox/replay/internal/objectstore"
	"github.com/sui-sandbox/replay/internal/resolver"
	"github.com/sui-sandbox/replay/internal/suitypes"
	"github.com/sui-sandbox/replay/internal/vm"
)

// fakeGuest is a minimal MoveVMGuest stand-in for exercising the
// executor's MoveCall plumbing without a real compiled VM.
type fakeGuest struct {
	result *vm.CallResult
	err    error
}

func (g *fakeGuest) LoadModule(address [32]byte, name string, compiled []byte) error { return nil }

func (g *fakeGuest) CallFunction(req vm.CallRequest) (*vm.CallResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func coinBCS(balance uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, balance)
	return out
}

func newTestExecutor(t *testing.T, store *objectstore.Store, res *resolver.Resolver, inputs []suitypes.Input, inputObjects []*suitypes.ObjectID, gasCoin suitypes.ObjectID) *Executor {
	t.Helper()
	aliases := linkage.NewBuilder()
	aliases.Freeze()
	harness := vm.NewHarness(&fakeGuest{}, vm.Config{
		Sender:      suitypes.MustAddress("0xaaaa"),
		Digest:      suitypes.Digest{1, 2, 3},
		GasBudget:   1_000_000,
		ProtocolVersion: 60,
	}, nil)
	return NewExecutor(store, res, nil, aliases, harness, inputs, inputObjects, gasCoin, nil)
}

func TestSplitCoinsAndMergeCoins(t *testing.T) {
	store := objectstore.New()
	res := resolver.New(nil)
	coinType := suitypes.StructTag{Address: suitypes.SuiFrameworkAddress, Module: "coin", Name: "Coin"}

	gasID := suitypes.MustAddress("0xf001")
	gas := &suitypes.Object{ID: gasID, Version: 1, Owner: suitypes.AddressOwner(suitypes.MustAddress("0xaaaa")), Type: coinType, BCS: coinBCS(1000), HasStore: true}
	store.Prime(gas)

	e := newTestExecutor(t, store, res, []suitypes.Input{
		{Kind: suitypes.InputPure, PureBCS: coinBCS(100)},
		{Kind: suitypes.InputPure, PureBCS: coinBCS(200)},
	}, []*suitypes.ObjectID{nil, nil}, gasID)

	splitCmd := &suitypes.SplitCoinsCommand{
		Source:  suitypes.GasCoinArg(),
		Amounts: []suitypes.Argument{suitypes.InputArg(0), suitypes.InputArg(1)},
	}

	out, err := e.execSplitCoins(0, splitCmd)
	require.NoError(t, err)
	require.Len(t, out, 2)

	remaining, err := store.GetChecked(gasID)
	require.NoError(t, err)
	require.Equal(t, uint64(700), binary.LittleEndian.Uint64(remaining.BCS))

	// Merge the two new coins back into the gas coin.
	e.results[0] = out
	mergeCmd := &suitypes.MergeCoinsCommand{
		Destination: suitypes.GasCoinArg(),
		Sources:     []suitypes.Argument{suitypes.NestedArg(0, 0), suitypes.NestedArg(0, 1)},
	}
	_, err = e.execMergeCoins(1, mergeCmd)
	require.NoError(t, err)

	final, err := store.GetChecked(gasID)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), binary.LittleEndian.Uint64(final.BCS))
}

func TestSplitCoinsInsufficientBalance(t *testing.T) {
	store := objectstore.New()
	res := resolver.New(nil)
	coinType := suitypes.StructTag{Address: suitypes.SuiFrameworkAddress, Module: "coin", Name: "Coin"}
	gasID := suitypes.MustAddress("0xf002")
	gas := &suitypes.Object{ID: gasID, Version: 1, Owner: suitypes.AddressOwner(suitypes.MustAddress("0xaaaa")), Type: coinType, BCS: coinBCS(50), HasStore: true}
	store.Prime(gas)

	e := newTestExecutor(t, store, res, []suitypes.Input{
		{Kind: suitypes.InputPure, PureBCS: coinBCS(100)},
	}, []*suitypes.ObjectID{nil}, gasID)

	cmd := &suitypes.SplitCoinsCommand{
		Source:  suitypes.GasCoinArg(),
		Amounts: []suitypes.Argument{suitypes.InputArg(0)},
	}
	_, err := e.execSplitCoins(0, cmd)
	require.Error(t, err)
	var insufficient *ErrInsufficientBalance
	require.ErrorAs(t, err, &insufficient)
}

func TestTransferObjectsRequiresStoreCapability(t *testing.T) {
	store := objectstore.New()
	res := resolver.New(nil)
	objID := suitypes.MustAddress("0xbeef")
	obj := &suitypes.Object{ID: objID, Version: 1, Owner: suitypes.AddressOwner(suitypes.MustAddress("0xaaaa")), HasStore: false}
	store.Prime(obj)

	recipient := suitypes.MustAddress("0xcafe")
	e := newTestExecutor(t, store, res, []suitypes.Input{
		{Kind: suitypes.InputObjectRef, ObjectID: objID, Version: 1},
		{Kind: suitypes.InputPure, PureBCS: recipient[:]},
	}, []*suitypes.ObjectID{&objID, nil}, suitypes.Address{})

	cmd := &suitypes.TransferObjectsCommand{
		Objects:   []suitypes.Argument{suitypes.InputArg(0)},
		Recipient: suitypes.InputArg(1),
	}
	_, err := e.execTransferObjects(0, cmd)
	require.Error(t, err)
	var capErr *ErrMissingStoreCapability
	require.ErrorAs(t, err, &capErr)
}

func TestTransferObjectsSucceedsWithStoreCapability(t *testing.T) {
	store := objectstore.New()
	res := resolver.New(nil)
	objID := suitypes.MustAddress("0xbeef")
	obj := &suitypes.Object{ID: objID, Version: 1, Owner: suitypes.AddressOwner(suitypes.MustAddress("0xaaaa")), HasStore: true}
	store.Prime(obj)

	recipient := suitypes.MustAddress("0xcafe")
	e := newTestExecutor(t, store, res, []suitypes.Input{
		{Kind: suitypes.InputObjectRef, ObjectID: objID, Version: 1},
		{Kind: suitypes.InputPure, PureBCS: recipient[:]},
	}, []*suitypes.ObjectID{&objID, nil}, suitypes.Address{})

	cmd := &suitypes.TransferObjectsCommand{
		Objects:   []suitypes.Argument{suitypes.InputArg(0)},
		Recipient: suitypes.InputArg(1),
	}
	_, err := e.execTransferObjects(0, cmd)
	require.NoError(t, err)

	moved, err := store.GetChecked(objID)
	require.NoError(t, err)
	require.Equal(t, recipient, moved.Owner.Address)
}

func TestValidateRejectsForwardReference(t *testing.T) {
	store := objectstore.New()
	res := resolver.New(nil)
	e := newTestExecutor(t, store, res, nil, nil, suitypes.Address{})

	cmds := []suitypes.Command{
		{Kind: suitypes.CommandMergeCoins, MergeCoins: &suitypes.MergeCoinsCommand{
			Destination: suitypes.ResultArg(1), // command 1 hasn't run yet
			Sources:     nil,
		}},
	}
	err := e.Validate(cmds)
	require.Error(t, err)
	var invalid *ErrPTBInvalid
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, ViolationForwardReference, invalid.Violation)
}

func TestExecuteHaltsOnMoveAbort(t *testing.T) {
	store := objectstore.New()
	res := resolver.New(nil)
	require.NoError(t, res.LoadModulesAt(suitypes.SuiFrameworkAddress, map[string][]byte{"coin": []byte("bytecode")}, map[string]map[string]resolver.FunctionSignature{
		"coin": {"burn": {IsPublic: true}},
	}))

	aliases := linkage.NewBuilder()
	aliases.Freeze()
	harness := vm.NewHarness(&fakeGuest{result: &vm.CallResult{
		Success:    false,
		AbortMajor: 7,
		AbortSub:   1,
	}}, vm.Config{GasBudget: 1000}, nil)
	e := NewExecutor(store, res, nil, aliases, harness, nil, nil, suitypes.Address{}, nil)

	cmds := []suitypes.Command{
		{Kind: suitypes.CommandMoveCall, MoveCall: &suitypes.MoveCallCommand{
			Package: suitypes.SuiFrameworkAddress, Module: "coin", Function: "burn",
		}},
	}
	outcome, err := e.Execute(cmds)
	require.NoError(t, err)
	require.False(t, outcome.Status.Success)
	require.NotNil(t, outcome.Status.Abort)
	require.Equal(t, uint64(7), outcome.Status.Abort.MajorStatus)
}

func TestValidateRejectsSharedObjectDeclaredReadOnlyButMutated(t *testing.T) {
	store := objectstore.New()
	res := resolver.New(nil)
	objID := suitypes.MustAddress("0xf003")
	obj := &suitypes.Object{ID: objID, Version: 1, Owner: suitypes.SharedOwner(1), HasStore: true}
	store.Prime(obj)

	e := newTestExecutor(t, store, res, []suitypes.Input{
		{Kind: suitypes.InputObjectRef, ObjectID: objID, ObjectRefKind: suitypes.ObjectRefShared, Version: 1, Mutable: false},
	}, []*suitypes.ObjectID{&objID}, suitypes.Address{})

	cmds := []suitypes.Command{
		{Kind: suitypes.CommandTransferObjects, TransferObjects: &suitypes.TransferObjectsCommand{
			Objects:   []suitypes.Argument{suitypes.InputArg(0)},
			Recipient: suitypes.InputArg(0),
		}},
	}
	err := e.Validate(cmds)
	require.Error(t, err)
	var invalid *ErrPTBInvalid
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, ViolationSharedIntentMismatch, invalid.Violation)
}

func TestValidateAcceptsSharedObjectDeclaredMutable(t *testing.T) {
	store := objectstore.New()
	res := resolver.New(nil)
	objID := suitypes.MustAddress("0xf004")
	obj := &suitypes.Object{ID: objID, Version: 1, Owner: suitypes.SharedOwner(1), HasStore: true}
	store.Prime(obj)

	e := newTestExecutor(t, store, res, []suitypes.Input{
		{Kind: suitypes.InputObjectRef, ObjectID: objID, ObjectRefKind: suitypes.ObjectRefShared, Version: 1, Mutable: true},
	}, []*suitypes.ObjectID{&objID}, suitypes.Address{})

	cmds := []suitypes.Command{
		{Kind: suitypes.CommandTransferObjects, TransferObjects: &suitypes.TransferObjectsCommand{
			Objects:   []suitypes.Argument{suitypes.InputArg(0)},
			Recipient: suitypes.InputArg(0),
		}},
	}
	require.NoError(t, e.Validate(cmds))
}

func TestExecuteSucceedsAndCollectsResults(t *testing.T) {
	store := objectstore.New()
	res := resolver.New(nil)
	require.NoError(t, res.LoadModulesAt(suitypes.SuiFrameworkAddress, map[string][]byte{"coin": []byte("bytecode")}, map[string]map[string]resolver.FunctionSignature{
		"coin": {"zero": {IsPublic: true, Returns: []suitypes.TypeTag{{Kind: suitypes.TypeTagU64}}}},
	}))

	aliases := linkage.NewBuilder()
	aliases.Freeze()
	harness := vm.NewHarness(&fakeGuest{result: &vm.CallResult{
		Success: true,
		Returns: [][]byte{coinBCS(0)},
	}}, vm.Config{GasBudget: 1000}, nil)
	e := NewExecutor(store, res, nil, aliases, harness, nil, nil, suitypes.Address{}, nil)

	cmds := []suitypes.Command{
		{Kind: suitypes.CommandMoveCall, MoveCall: &suitypes.MoveCallCommand{
			Package: suitypes.SuiFrameworkAddress, Module: "coin", Function: "zero",
		}},
	}
	outcome, err := e.Execute(cmds)
	require.NoError(t, err)
	require.True(t, outcome.Status.Success)
	require.Len(t, outcome.Results, 1)
	require.Len(t, outcome.Results[0], 1)
}
