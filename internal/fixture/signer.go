// Package fixture (signer.go) signs a synthetic fixture transaction the
// same way a real Sui account would, so scenario tests can stamp a
// realistic digest onto a built-but-never-submitted transaction
// (spec.md §3 "Digest").
//
// Signing flow:
//
//   1. BCS-encode the TransactionRecord      → EncodeForSigning (wire.go)
//   2. base64-encode those bytes             → TxnMetaData.TxBytes
//   3. prepend 3-byte intent prefix [0,0,0]  → intent message
//   4. blake2b-256 hash the intent message   → digest
//   5. ed25519-sign the digest               → 64-byte signature
//   6. serialize: flag(0x00) | sig | pubkey  → base64 string
//
// Steps 3-6 are all performed inside TxnMetaData.SignSerializedSigWith,
// so this file only has to build the wire bytes and a TxnMetaData.
package fixture

import (
	"encoding/base64"

	"github.com/block-vision/sui-go-sdk/models"
	"github.com/block-vision/sui-go-sdk/signer"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

// SignedTx holds a fixture's signed form: the bytes and signature a real
// submission would carry, even though nothing here submits them anywhere.
type SignedTx struct {
	// TxBytes is the base64-encoded BCS transaction.
	TxBytes string

	// Signature is the serialized Ed25519 signature.
	// Format: base64( 0x00 | sig[64] | pubkey[32] )
	Signature string
}

// SignTransaction BCS-encodes tx (the *suitypes.TransactionRecord
// returned by Builder.Build()) and signs it with the private key held by
// account.
//
// account's address must match the sender set in tx.
//
// Only Ed25519 keys are supported by this helper; for Secp256k1 use
// signer.NewSignerWithPrivateKey with a Secp256k1 key directly.
func SignTransaction(tx *suitypes.TransactionRecord, account *signer.Signer) (*SignedTx, error) {
	rawBCS, err := EncodeForSigning(tx)
	if err != nil {
		return nil, err
	}

	// ── 1. Wrap wire bytes in TxnMetaData ─────────────────────────────────
	// TxnMetaData.TxBytes must be standard base64 (not URL-safe, no padding
	// stripped).  The SDK decodes it before intent-wrapping and hashing.
	txMeta := models.TxnMetaData{
		TxBytes: base64.StdEncoding.EncodeToString(rawBCS),
	}

	// ── 2. Sign ───────────────────────────────────────────────────────────
	// SignSerializedSigWith internally:
	//   a. base64-decodes TxBytes
	//   b. prepends the 3-byte transaction intent [0, 0, 0]
	//   c. computes blake2b-256 of the intent message
	//   d. signs the hash with ed25519
	//   e. serialises: base64(flagByte=0x00 | signature[64] | pubKey[32])
	signed := txMeta.SignSerializedSigWith(account.PriKey)

	return &SignedTx{
		TxBytes:   signed.TxBytes,
		Signature: signed.Signature,
	}, nil
}
