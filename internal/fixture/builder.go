// Package fixture builds synthetic PTB transactions for replay scenario
// tests and the SourceLocal example path: a TransactionRecord assembled
// directly from suitypes values, with no compiled Move VM guest or WASM
// runtime involved, so a fixture can be generated with nothing more than
// this process (spec.md §6 "State export JSON").
package fixture

import (
	"fmt"

	"github.com/sui-sandbox/replay/internal/bcs"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

// ObjectKind describes how an object is used as an input, mirroring
// suitypes.ObjectRefKind but spelled out for the builder's string-based
// call sites.
type ObjectKind string

const (
	ObjectKindOwned     ObjectKind = "owned"
	ObjectKindImmutable ObjectKind = "immutable"
	ObjectKindReceiving ObjectKind = "receiving"
	ObjectKindShared    ObjectKind = "shared"
)

func (k ObjectKind) refKind() suitypes.ObjectRefKind {
	switch k {
	case ObjectKindImmutable:
		return suitypes.ObjectRefImmutable
	case ObjectKindReceiving:
		return suitypes.ObjectRefReceiving
	case ObjectKindShared:
		return suitypes.ObjectRefShared
	default:
		return suitypes.ObjectRefOwned
	}
}

// gasPaymentRef is one entry of the gas coin list a TransactionRecord
// carries; suitypes.TransactionRecord declares this shape as an inline
// anonymous struct, so the builder keeps its own named copy to populate.
type gasPaymentRef struct {
	ObjectID suitypes.ObjectID
	Version  uint64
	Digest   suitypes.Digest
}

// Builder accumulates a TransactionRecord's inputs and commands.
// It is NOT safe for concurrent use.
type Builder struct {
	sender     suitypes.Address
	configured bool
	gasBudget  uint64
	gasPrice   uint64
	gasPayment []gasPaymentRef

	inputs   []suitypes.Input
	commands []suitypes.Command
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// ── Configuration ─────────────────────────────────────────────────────────────

// SetConfig sets the sender address, gas budget, and gas price.
// sender must be a 0x-prefixed 32-byte hex string.
func (b *Builder) SetConfig(sender string, gasBudget, gasPrice uint64) error {
	addr, err := suitypes.ParseAddress(sender)
	if err != nil {
		return fmt.Errorf("fixture: invalid sender address %q: %w", sender, err)
	}
	b.sender = addr
	b.gasBudget = gasBudget
	b.gasPrice = gasPrice
	b.configured = true
	return nil
}

// ── Gas objects ───────────────────────────────────────────────────────────────

// AddGasObject adds an owned gas coin identified by its object ID, version,
// and base-58 digest string.
func (b *Builder) AddGasObject(id string, version uint64, digest string) error {
	objID, err := suitypes.ParseAddress(id)
	if err != nil {
		return fmt.Errorf("fixture: invalid gas object id %q: %w", id, err)
	}
	dig, err := suitypes.DigestFromBase58(digest)
	if err != nil {
		return fmt.Errorf("fixture: invalid gas object digest %q: %w", digest, err)
	}
	b.gasPayment = append(b.gasPayment, gasPaymentRef{ObjectID: objID, Version: version, Digest: dig})
	return nil
}

// ── Gas pseudo-input ──────────────────────────────────────────────────────────

// GasArgument returns the Argument referencing the transaction's gas coin.
func (b *Builder) GasArgument() suitypes.Argument {
	return suitypes.GasCoinArg()
}

// ── Object inputs ─────────────────────────────────────────────────────────────

// InputObject pushes an object input and returns its Argument.
//
// For owned / immutable / receiving: supply id, version, digest, kind.
// For shared: supply id, version, mutable, kind=ObjectKindShared (digest is
// ignored — shared objects carry an initial shared version instead).
func (b *Builder) InputObject(id string, version uint64, digest string, kind ObjectKind, mutable bool) (suitypes.Argument, error) {
	objID, err := suitypes.ParseAddress(id)
	if err != nil {
		return suitypes.Argument{}, fmt.Errorf("fixture: invalid object id %q: %w", id, err)
	}
	in := suitypes.Input{
		Kind:          suitypes.InputObjectRef,
		ObjectRefKind: kind.refKind(),
		ObjectID:      objID,
		Version:       version,
	}
	if kind == ObjectKindShared {
		in.Mutable = mutable
	} else if digest != "" {
		dig, err := suitypes.DigestFromBase58(digest)
		if err != nil {
			return suitypes.Argument{}, fmt.Errorf("fixture: invalid object digest %q: %w", digest, err)
		}
		in.Digest = dig
	}
	return b.pushInput(in), nil
}

func (b *Builder) pushInput(in suitypes.Input) suitypes.Argument {
	idx := uint16(len(b.inputs))
	b.inputs = append(b.inputs, in)
	return suitypes.InputArg(idx)
}

// ── Pure-value helpers ────────────────────────────────────────────────────────
//
// Each helper BCS-encodes the value exactly as a real client would before
// handing it to the builder, then pushes it as a pure input.

// PureBool pushes a BCS-encoded bool and returns its Argument.
func (b *Builder) PureBool(v bool) suitypes.Argument {
	raw, _ := bcs.Marshal(v)
	return b.pushInput(suitypes.Input{Kind: suitypes.InputPure, PureBCS: raw})
}

// PureU8 pushes a BCS-encoded u8 and returns its Argument.
func (b *Builder) PureU8(v uint8) suitypes.Argument {
	raw, _ := bcs.Marshal(v)
	return b.pushInput(suitypes.Input{Kind: suitypes.InputPure, PureBCS: raw})
}

// PureU16 pushes a BCS-encoded u16 and returns its Argument.
func (b *Builder) PureU16(v uint16) suitypes.Argument {
	raw, _ := bcs.Marshal(v)
	return b.pushInput(suitypes.Input{Kind: suitypes.InputPure, PureBCS: raw})
}

// PureU32 pushes a BCS-encoded u32 and returns its Argument.
func (b *Builder) PureU32(v uint32) suitypes.Argument {
	raw, _ := bcs.Marshal(v)
	return b.pushInput(suitypes.Input{Kind: suitypes.InputPure, PureBCS: raw})
}

// PureU64 pushes a BCS-encoded u64 and returns its Argument.
func (b *Builder) PureU64(v uint64) suitypes.Argument {
	raw, _ := bcs.Marshal(v)
	return b.pushInput(suitypes.Input{Kind: suitypes.InputPure, PureBCS: raw})
}

// PureU128 pushes a BCS-encoded u128, supplied as high/low uint64 halves,
// and returns its Argument.
func (b *Builder) PureU128(hi, lo uint64) suitypes.Argument {
	// BCS encodes integers little-endian; a u128 is sixteen LE bytes with
	// lo occupying the first eight.
	var le [16]byte
	for i := 0; i < 8; i++ {
		le[i] = byte(lo >> (8 * i))
		le[8+i] = byte(hi >> (8 * i))
	}
	return b.pushInput(suitypes.Input{Kind: suitypes.InputPure, PureBCS: le[:]})
}

// PureAddress pushes a BCS-encoded Sui address and returns its Argument.
func (b *Builder) PureAddress(addr string) (suitypes.Argument, error) {
	parsed, err := suitypes.ParseAddress(addr)
	if err != nil {
		return suitypes.Argument{}, fmt.Errorf("fixture: invalid address %q: %w", addr, err)
	}
	raw, _ := bcs.Marshal(parsed)
	return b.pushInput(suitypes.Input{Kind: suitypes.InputPure, PureBCS: raw}), nil
}

// PureRawBCS pushes already-BCS-encoded bytes as a pure argument and
// returns its Argument. Use this for a type not covered by the helpers
// above, already encoded by the caller.
func (b *Builder) PureRawBCS(bcsBytes []byte) suitypes.Argument {
	return b.pushInput(suitypes.Input{Kind: suitypes.InputPure, PureBCS: bcsBytes})
}

// ── Nested result ─────────────────────────────────────────────────────────────

// NestedResult returns the Argument for the Nth sub-result of a
// multi-output command (e.g. the Kth coin from SplitCoins).
// base must be the Argument a multi-output command returned; subIndex is
// 0-based.
func (b *Builder) NestedResult(base suitypes.Argument, subIndex uint16) suitypes.Argument {
	return suitypes.NestedArg(base.Index, subIndex)
}

// ── Commands ──────────────────────────────────────────────────────────────────

func (b *Builder) pushCommand(cmd suitypes.Command) suitypes.Argument {
	idx := uint16(len(b.commands))
	b.commands = append(b.commands, cmd)
	return suitypes.ResultArg(idx)
}

// MoveCall executes an entry or public Move function and returns the
// result Argument.
func (b *Builder) MoveCall(pkg, module, function string, typeArgs []string, args []suitypes.Argument) (suitypes.Argument, error) {
	pkgAddr, err := suitypes.ParseAddress(pkg)
	if err != nil {
		return suitypes.Argument{}, fmt.Errorf("fixture: invalid package address %q: %w", pkg, err)
	}
	tags := make([]suitypes.TypeTag, 0, len(typeArgs))
	for _, t := range typeArgs {
		tag, err := suitypes.ParseTypeTag(t)
		if err != nil {
			return suitypes.Argument{}, fmt.Errorf("fixture: invalid type argument %q: %w", t, err)
		}
		tags = append(tags, tag)
	}
	return b.pushCommand(suitypes.Command{
		Kind: suitypes.CommandMoveCall,
		MoveCall: &suitypes.MoveCallCommand{
			Package:   pkgAddr,
			Module:    module,
			Function:  function,
			TypeArgs:  tags,
			Arguments: args,
		},
	}), nil
}

// SplitCoins splits coin into len(amounts) new coins. amounts must be
// Arguments returned by PureU64. Returns the base Argument; use
// NestedResult(base, i) to get coin i.
func (b *Builder) SplitCoins(coin suitypes.Argument, amounts []suitypes.Argument) (suitypes.Argument, error) {
	if len(amounts) == 0 {
		return suitypes.Argument{}, fmt.Errorf("fixture: SplitCoins requires at least one amount")
	}
	return b.pushCommand(suitypes.Command{
		Kind:       suitypes.CommandSplitCoins,
		SplitCoins: &suitypes.SplitCoinsCommand{Source: coin, Amounts: amounts},
	}), nil
}

// MergeCoins merges sources into target. Produces no result Argument —
// the target coin absorbs all sources.
func (b *Builder) MergeCoins(target suitypes.Argument, sources []suitypes.Argument) error {
	if len(sources) == 0 {
		return fmt.Errorf("fixture: MergeCoins requires at least one source")
	}
	b.commands = append(b.commands, suitypes.Command{
		Kind:       suitypes.CommandMergeCoins,
		MergeCoins: &suitypes.MergeCoinsCommand{Destination: target, Sources: sources},
	})
	return nil
}

// TransferObjects sends objects to the address identified by recipient.
// recipient must be an Argument returned by PureAddress.
func (b *Builder) TransferObjects(objects []suitypes.Argument, recipient suitypes.Argument) error {
	if len(objects) == 0 {
		return fmt.Errorf("fixture: TransferObjects requires at least one object")
	}
	b.commands = append(b.commands, suitypes.Command{
		Kind: suitypes.CommandTransferObjects,
		TransferObjects: &suitypes.TransferObjectsCommand{
			Objects:   objects,
			Recipient: recipient,
		},
	})
	return nil
}

// MakeMoveVec constructs a Move vector<T> from elements. typeTag is the
// element type (e.g. "0x2::sui::SUI"); pass "" when the type can be
// inferred from the elements. Returns the result Argument.
func (b *Builder) MakeMoveVec(typeTag string, elements []suitypes.Argument) (suitypes.Argument, error) {
	cmd := &suitypes.MakeMoveVecCommand{Elements: elements}
	if typeTag != "" {
		tag, err := suitypes.ParseTypeTag(typeTag)
		if err != nil {
			return suitypes.Argument{}, fmt.Errorf("fixture: invalid element type %q: %w", typeTag, err)
		}
		cmd.ElementType = &tag
	}
	return b.pushCommand(suitypes.Command{Kind: suitypes.CommandMakeMoveVec, MakeMoveVec: cmd}), nil
}

// Publish publishes a new Move package. modules is a slice of compiled
// module bytecodes; dependencies is a slice of 0x-prefixed package IDs
// this package depends on. Returns the UpgradeCap Argument.
func (b *Builder) Publish(modules [][]byte, dependencies []string) (suitypes.Argument, error) {
	deps, err := parseAddresses(dependencies)
	if err != nil {
		return suitypes.Argument{}, err
	}
	return b.pushCommand(suitypes.Command{
		Kind:    suitypes.CommandPublish,
		Publish: &suitypes.PublishCommand{Modules: modules, Dependencies: deps},
	}), nil
}

// Upgrade upgrades an existing Move package. modules is the new compiled
// bytecodes; dependencies is the updated dep list; packageID is the
// on-chain ID of the package being upgraded; ticket is the Argument of
// the UpgradeTicket from authorize_upgrade. Returns the UpgradeReceipt
// Argument.
func (b *Builder) Upgrade(modules [][]byte, dependencies []string, packageID string, ticket suitypes.Argument) (suitypes.Argument, error) {
	deps, err := parseAddresses(dependencies)
	if err != nil {
		return suitypes.Argument{}, err
	}
	pkgAddr, err := suitypes.ParseAddress(packageID)
	if err != nil {
		return suitypes.Argument{}, fmt.Errorf("fixture: invalid package id %q: %w", packageID, err)
	}
	return b.pushCommand(suitypes.Command{
		Kind: suitypes.CommandUpgrade,
		Upgrade: &suitypes.UpgradeCommand{
			Modules:      modules,
			Dependencies: deps,
			PackageID:    pkgAddr,
			Ticket:       ticket,
		},
	}), nil
}

// Receive consumes an object transferred-to-object that parent currently
// owns. Returns the received-object Argument.
func (b *Builder) Receive(parent, object suitypes.Argument) suitypes.Argument {
	return b.pushCommand(suitypes.Command{
		Kind:    suitypes.CommandReceive,
		Receive: &suitypes.ReceiveCommand{Parent: parent, Object: object},
	})
}

func parseAddresses(raw []string) ([]suitypes.Address, error) {
	out := make([]suitypes.Address, 0, len(raw))
	for _, s := range raw {
		addr, err := suitypes.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("fixture: invalid address %q: %w", s, err)
		}
		out = append(out, addr)
	}
	return out, nil
}

// ── Finalisation ─────────────────────────────────────────────────────────────

// Build assembles the accumulated inputs and commands into a
// TransactionRecord. Returns an error if SetConfig was never called, no
// gas object was added, or there are no commands.
func (b *Builder) Build() (*suitypes.TransactionRecord, error) {
	if !b.configured {
		return nil, fmt.Errorf("fixture: Build: SetConfig was never called")
	}
	if len(b.gasPayment) == 0 {
		return nil, fmt.Errorf("fixture: Build: no gas object added")
	}
	if len(b.commands) == 0 {
		return nil, fmt.Errorf("fixture: Build: no commands added")
	}

	tx := &suitypes.TransactionRecord{
		Sender:    b.sender,
		GasBudget: b.gasBudget,
		GasPrice:  b.gasPrice,
		Inputs:    b.inputs,
		Commands:  b.commands,
	}
	for _, g := range b.gasPayment {
		tx.GasPayment = append(tx.GasPayment, struct {
			ObjectID suitypes.ObjectID
			Version  uint64
			Digest   suitypes.Digest
		}{ObjectID: g.ObjectID, Version: g.Version, Digest: g.Digest})
	}
	return tx, nil
}
