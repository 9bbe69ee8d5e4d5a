package vm

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRealNativesHashesAreDeterministic(t *testing.T) {
	data := []byte("sui sandbox replay")
	var n RealNatives
	require.Equal(t, n.HashSHA2_256(data), n.HashSHA2_256(data))
	require.Equal(t, n.HashSHA3_256(data), n.HashSHA3_256(data))
	require.Equal(t, n.HashKeccak256(data), n.HashKeccak256(data))
	require.Equal(t, n.HashBlake2b256(data), n.HashBlake2b256(data))
	require.NotEqual(t, n.HashSHA2_256(data), n.HashSHA3_256(data))
}

func TestEd25519VerifyRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	message := []byte("replay this transaction")
	sig := ed25519.Sign(priv, message)

	var n RealNatives
	require.True(t, n.Ed25519Verify(sig, message, pub))
	require.False(t, n.Ed25519Verify(sig, []byte("a different message"), pub))
}

func TestBLS12381VerifyMinSigRejectsMalformedPoints(t *testing.T) {
	var n RealNatives
	_, err := n.BLS12381VerifyMinSig([]byte("not a point"), []byte("msg"), []byte("not a point either"), []byte("nor this"))
	require.Error(t, err)
}

func TestBLS12381VerifyMinPkRejectsMalformedPoints(t *testing.T) {
	var n RealNatives
	_, err := n.BLS12381VerifyMinPk([]byte("not a point"), []byte("msg"), []byte("not a point either"), []byte("nor this"))
	require.Error(t, err)
}

func TestGroth16VerifyRejectsMalformedVerifyingKey(t *testing.T) {
	var n RealNatives
	_, err := n.Groth16Verify([]byte("too short"), []byte("also too short"), nil)
	require.Error(t, err)
}

func TestDecodeGroth16PublicInputsRejectsNonMultipleOf32(t *testing.T) {
	_, err := decodeGroth16PublicInputs(make([]byte, 33))
	require.Error(t, err)
}
