package fixture

import (
	"testing"

	"github.com/block-vision/sui-go-sdk/signer"
	"github.com/stretchr/testify/require"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

const fixtureSender = "0xaaaa"

var fixtureGasDigest = suitypes.Digest{1, 2, 3, 4}.Base58()

// TestBuilderRoundTrip exercises the native builder end to end: a gas
// split and transfer, the same shape cmd/fixture-gen produces, with no
// WASM runtime involved.
func TestBuilderRoundTrip(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.SetConfig(fixtureSender, 1_000_000, 1000))
	require.NoError(t, b.AddGasObject(fixtureSender, 1, fixtureGasDigest))

	amount := b.PureU64(1_000_000)
	splitBase, err := b.SplitCoins(b.GasArgument(), []suitypes.Argument{amount})
	require.NoError(t, err)
	recipient, err := b.PureAddress(fixtureSender)
	require.NoError(t, err)
	require.NoError(t, b.TransferObjects([]suitypes.Argument{b.NestedResult(splitBase, 0)}, recipient))

	tx, err := b.Build()
	require.NoError(t, err)
	require.Len(t, tx.Commands, 2)
	require.Len(t, tx.Inputs, 2) // amount + recipient address
	require.Equal(t, suitypes.CommandSplitCoins, tx.Commands[0].Kind)
	require.Equal(t, suitypes.CommandTransferObjects, tx.Commands[1].Kind)
}

func TestBuilderBuildRejectsIncompleteState(t *testing.T) {
	b := NewBuilder()
	_, err := b.Build()
	require.Error(t, err)

	require.NoError(t, b.SetConfig(fixtureSender, 1_000_000, 1000))
	_, err = b.Build()
	require.Error(t, err, "no gas object")

	require.NoError(t, b.AddGasObject(fixtureSender, 1, fixtureGasDigest))
	_, err = b.Build()
	require.Error(t, err, "no commands")
}

// TestSignTransaction exercises SignTransaction against a fixed,
// well-formed secret key and a minimal built transaction.
func TestSignTransaction(t *testing.T) {
	account, err := signer.NewSignerWithSecretKey("AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8=")
	require.NoError(t, err)
	require.NotNil(t, account)

	b := NewBuilder()
	require.NoError(t, b.SetConfig(fixtureSender, 1_000_000, 1000))
	require.NoError(t, b.AddGasObject(fixtureSender, 1, fixtureGasDigest))
	amount := b.PureU64(1_000_000)
	_, err = b.SplitCoins(b.GasArgument(), []suitypes.Argument{amount})
	require.NoError(t, err)
	tx, err := b.Build()
	require.NoError(t, err)

	signed, err := SignTransaction(tx, account)
	require.NoError(t, err)
	require.NotEmpty(t, signed.TxBytes)
	require.NotEmpty(t, signed.Signature)

	// Signing the same transaction twice with the same key must be
	// deterministic (Ed25519 has no nonce randomness).
	signedAgain, err := SignTransaction(tx, account)
	require.NoError(t, err)
	require.Equal(t, signed.Signature, signedAgain.Signature)
}
