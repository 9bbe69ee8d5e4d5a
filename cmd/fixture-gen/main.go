// Command fixture-gen builds a synthetic, signed gas-split-and-transfer
// transaction and writes it out as a SourceLocal state-export file
// (spec.md §6), so a replay can be exercised entirely offline with
// internal/fixture in place of a live chain and wallet.
//
// Unlike a real client it needs no compiled Move bytecode or running
// node: the transaction is assembled directly against suitypes values,
// primed into a fresh object store holding just the gas coin, and
// exported in the same JSON shape cmd/replay-example -state reads.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/block-vision/sui-go-sdk/signer"
	"golang.org/x/crypto/blake2b"

	"github.com/sui-sandbox/replay/internal/bcs"
	"github.com/sui-sandbox/replay/internal/fixture"
	"github.com/sui-sandbox/replay/internal/objectstore"
	"github.com/sui-sandbox/replay/internal/suitypes"
	"github.com/sui-sandbox/replay/replay"
)

func main() {
	out := flag.String("out", "fixture.json", "output path for the state-export JSON")
	sender := flag.String("sender", "", "0x-prefixed sender address (required)")
	secretKey := flag.String("secret-key", "", "base64 Ed25519 secret key for signing (required)")
	gasID := flag.String("gas-id", "", "0x-prefixed gas object ID (required)")
	gasVersion := flag.Uint64("gas-version", 1, "gas object version")
	gasDigest := flag.String("gas-digest", "", "base58 gas object digest (required)")
	splitAmount := flag.Uint64("amount", 1_000_000, "amount in MIST to split off and transfer")
	recipient := flag.String("recipient", "", "0x-prefixed recipient address (defaults to sender)")
	referenceGasPrice := flag.Uint64("reference-gas-price", 1000, "reference gas price recorded in the export")
	flag.Parse()

	if *sender == "" || *secretKey == "" || *gasID == "" || *gasDigest == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-gen -sender 0x.. -secret-key base64 -gas-id 0x.. -gas-digest base58digest")
		os.Exit(2)
	}
	if *recipient == "" {
		*recipient = *sender
	}

	if err := run(*out, *sender, *secretKey, *gasID, *gasVersion, *gasDigest, *splitAmount, *recipient, *referenceGasPrice); err != nil {
		fmt.Fprintln(os.Stderr, "fixture-gen:", err)
		os.Exit(1)
	}
}

func run(out, sender, secretKey, gasID string, gasVersion uint64, gasDigest string, splitAmount uint64, recipient string, referenceGasPrice uint64) error {
	b := fixture.NewBuilder()
	if err := b.SetConfig(sender, 1_000_000, 1000); err != nil {
		return fmt.Errorf("set config: %w", err)
	}
	if err := b.AddGasObject(gasID, gasVersion, gasDigest); err != nil {
		return fmt.Errorf("add gas object: %w", err)
	}

	amountArg := b.PureU64(splitAmount)
	splitBase, err := b.SplitCoins(b.GasArgument(), []suitypes.Argument{amountArg})
	if err != nil {
		return fmt.Errorf("split coins: %w", err)
	}
	recipientArg, err := b.PureAddress(recipient)
	if err != nil {
		return fmt.Errorf("pure address: %w", err)
	}
	if err := b.TransferObjects([]suitypes.Argument{b.NestedResult(splitBase, 0)}, recipientArg); err != nil {
		return fmt.Errorf("transfer objects: %w", err)
	}

	tx, err := b.Build()
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	account, err := signer.NewSignerWithSecretKey(secretKey)
	if err != nil {
		return fmt.Errorf("loading signer: %w", err)
	}
	signed, err := fixture.SignTransaction(tx, account)
	if err != nil {
		return fmt.Errorf("signing: %w", err)
	}

	// A real submission's digest is the hash the network assigns the
	// transaction once ordered; here there is no network, so the
	// transaction's own signed wire bytes stand in as a stable identifier.
	wireBytes, err := fixture.EncodeForSigning(tx)
	if err != nil {
		return fmt.Errorf("encoding transaction: %w", err)
	}
	tx.Digest = suitypes.Digest(blake2b.Sum256(wireBytes))

	gasObjectID, err := suitypes.ParseAddress(gasID)
	if err != nil {
		return fmt.Errorf("parsing gas object id: %w", err)
	}
	senderAddr, err := suitypes.ParseAddress(sender)
	if err != nil {
		return fmt.Errorf("parsing sender: %w", err)
	}
	// Give the gas coin enough balance to cover the split plus the gas
	// budget, encoded the way a real Coin<SUI>'s balance field is: a bare
	// BCS u64.
	coinBalance, err := bcs.Marshal(splitAmount + 1_000_000)
	if err != nil {
		return fmt.Errorf("encoding gas coin balance: %w", err)
	}

	store := objectstore.New()
	store.Prime(&suitypes.Object{
		ID: gasObjectID, Version: gasVersion, Owner: suitypes.AddressOwner(senderAddr),
		Type: suitypes.StructTag{Address: suitypes.SuiFrameworkAddress, Module: "coin", Name: "Coin"},
		BCS:  coinBalance, HasStore: true,
	})

	export := replay.ExportState(tx, store, nil, referenceGasPrice)
	raw, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state export: %w", err)
	}
	if err := os.WriteFile(out, raw, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Printf("wrote %s (tx signature %s)\n", out, signed.Signature)
	return nil
}
