package replay

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sui-sandbox/replay/internal/objectstore"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

// jsonArgument is the state-export rendering of suitypes.Argument.
type jsonArgument struct {
	Kind  string `json:"kind"`
	Index uint16 `json:"index,omitempty"`
	Sub   uint16 `json:"sub,omitempty"`
}

func argumentKindName(k suitypes.ArgumentKind) string {
	switch k {
	case suitypes.ArgGasCoin:
		return "gas_coin"
	case suitypes.ArgInput:
		return "input"
	case suitypes.ArgResult:
		return "result"
	case suitypes.ArgNestedResult:
		return "nested_result"
	default:
		return "unknown"
	}
}

func argumentKindFromName(s string) suitypes.ArgumentKind {
	switch s {
	case "input":
		return suitypes.ArgInput
	case "result":
		return suitypes.ArgResult
	case "nested_result":
		return suitypes.ArgNestedResult
	default:
		return suitypes.ArgGasCoin
	}
}

func toJSONArgument(a suitypes.Argument) jsonArgument {
	return jsonArgument{Kind: argumentKindName(a.Kind), Index: a.Index, Sub: a.Sub}
}

func (j jsonArgument) toArgument() suitypes.Argument {
	return suitypes.Argument{Kind: argumentKindFromName(j.Kind), Index: j.Index, Sub: j.Sub}
}

// jsonInput is the state-export rendering of suitypes.Input.
type jsonInput struct {
	Kind          string `json:"kind"`
	PureBCSBase64 string `json:"pure_bcs_base64,omitempty"`
	ObjectRefKind string `json:"object_ref_kind,omitempty"`
	ObjectID      string `json:"object_id,omitempty"`
	Version       uint64 `json:"version,omitempty"`
	Digest        string `json:"digest,omitempty"`
	Mutable       bool   `json:"mutable,omitempty"`
}

// jsonCommand carries whichever of the eight command-variant payloads is
// non-empty, matching the loose duck-typed shape the §6 JSON schema
// implies for a polymorphic commands[] array.
type jsonCommand struct {
	Kind string `json:"kind"`

	Package   string         `json:"package,omitempty"`
	Module    string         `json:"module,omitempty"`
	Function  string         `json:"function,omitempty"`
	TypeArgs  []string       `json:"type_args,omitempty"`
	Arguments []jsonArgument `json:"arguments,omitempty"`

	Source  *jsonArgument  `json:"source,omitempty"`
	Amounts []jsonArgument `json:"amounts,omitempty"`

	Destination *jsonArgument  `json:"destination,omitempty"`
	Sources     []jsonArgument `json:"sources,omitempty"`

	Objects   []jsonArgument `json:"objects,omitempty"`
	Recipient *jsonArgument  `json:"recipient,omitempty"`

	ElementType string         `json:"element_type,omitempty"`
	Elements    []jsonArgument `json:"elements,omitempty"`

	Modules      []string `json:"modules,omitempty"` // base64 per module
	Dependencies []string `json:"dependencies,omitempty"`
	PackageID    string   `json:"package_id,omitempty"`
	Ticket       *jsonArgument `json:"ticket,omitempty"`

	Parent *jsonArgument `json:"parent,omitempty"`
	Object *jsonArgument `json:"object,omitempty"`
}

// jsonEffects mirrors suitypes.RecordedEffects for export.
type jsonEffects struct {
	Success                       bool              `json:"success"`
	AbortMajor                    uint64            `json:"abort_major,omitempty"`
	AbortSub                      uint64            `json:"abort_sub,omitempty"`
	InputObjectVersions           map[string]uint64 `json:"input_object_versions,omitempty"`
	UnchangedLoadedRuntimeObjects map[string]uint64 `json:"unchanged_loaded_runtime_objects,omitempty"`
	ChangedObjects                map[string]uint64 `json:"changed_objects,omitempty"`
	Created                       []string          `json:"created,omitempty"`
	Mutated                       []string          `json:"mutated,omitempty"`
	Deleted                       []string          `json:"deleted,omitempty"`
	Wrapped                       []string          `json:"wrapped,omitempty"`
}

// jsonTransaction mirrors suitypes.TransactionRecord for export.
type jsonTransaction struct {
	Digest          string        `json:"digest"`
	Sender          string        `json:"sender"`
	GasBudget       uint64        `json:"gas_budget"`
	GasPrice        uint64        `json:"gas_price"`
	Commands        []jsonCommand `json:"commands"`
	Inputs          []jsonInput   `json:"inputs"`
	Effects         jsonEffects   `json:"effects"`
	TimestampMs     uint64        `json:"timestamp_ms"`
	Checkpoint      uint64        `json:"checkpoint"`
	ProtocolVersion uint64        `json:"protocol_version"`
	Epoch           uint64        `json:"epoch"`
}

// jsonPackage mirrors suitypes.Package for export.
type jsonPackage struct {
	Modules         map[string]string       `json:"modules"` // name -> base64
	Linkage         []suitypes.LinkageEntry `json:"linkage"`
	OriginalAddress string                  `json:"original_address"`
	Version         uint64                  `json:"version"`
}

// StateExport is the round-trippable JSON artifact of spec.md §6 "State
// export JSON".
type StateExport struct {
	Transaction       jsonTransaction                   `json:"transaction"`
	Objects           map[string]objectstore.SnapshotObject `json:"objects"`
	Packages          map[string]jsonPackage            `json:"packages"`
	ProtocolVersion   uint64                            `json:"protocol_version"`
	Epoch             uint64                            `json:"epoch"`
	ReferenceGasPrice uint64                             `json:"reference_gas_price"`
	Checkpoint        uint64                            `json:"checkpoint"`
}

// ExportState renders a replay's primed state into the §6 schema,
// supporting S6's round-trip test and local-source replays.
func ExportState(tx *suitypes.TransactionRecord, store *objectstore.Store, packages map[suitypes.Address]*suitypes.Package, referenceGasPrice uint64) StateExport {
	out := StateExport{
		Objects:           store.Snapshot(),
		Packages:          make(map[string]jsonPackage, len(packages)),
		ProtocolVersion:   tx.ProtocolVersion,
		Epoch:             tx.Epoch,
		ReferenceGasPrice: referenceGasPrice,
		Checkpoint:        tx.Checkpoint,
	}
	out.Transaction = toJSONTransaction(tx)
	for addr, pkg := range packages {
		out.Packages[addr.String()] = toJSONPackage(pkg)
	}
	return out
}

// ImportState parses a §6 state-export JSON file back into a
// transaction record, a freshly primed object store, and the package
// set, for SourceLocal replays.
func ImportState(path string) (*suitypes.TransactionRecord, *objectstore.Store, map[suitypes.Address]*suitypes.Package, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("replay: reading state file %s: %w", path, err)
	}
	var export StateExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, nil, nil, &ErrDeserialization{Context: "state export json", Err: err}
	}

	tx, err := fromJSONTransaction(export.Transaction)
	if err != nil {
		return nil, nil, nil, err
	}

	ownerOf := func(id suitypes.ObjectID) suitypes.Owner {
		so, ok := export.Objects[id.String()]
		if !ok {
			return suitypes.Owner{}
		}
		return ownerFromKindLabel(so.OwnerKind)
	}
	store, err := objectstore.Restore(export.Objects, ownerOf)
	if err != nil {
		return nil, nil, nil, &ErrDeserialization{Context: "state export objects", Err: err}
	}

	packages := make(map[suitypes.Address]*suitypes.Package, len(export.Packages))
	for idStr, jp := range export.Packages {
		addr, err := suitypes.ParseAddress(idStr)
		if err != nil {
			return nil, nil, nil, &ErrDeserialization{Context: "state export package id", Err: err}
		}
		pkg, err := fromJSONPackage(addr, jp)
		if err != nil {
			return nil, nil, nil, err
		}
		packages[addr] = pkg
	}

	return tx, store, packages, nil
}

func toJSONTransaction(tx *suitypes.TransactionRecord) jsonTransaction {
	out := jsonTransaction{
		Digest:          tx.Digest.Base58(),
		Sender:          tx.Sender.String(),
		GasBudget:       tx.GasBudget,
		GasPrice:        tx.GasPrice,
		TimestampMs:     tx.TimestampMs,
		Checkpoint:      tx.Checkpoint,
		ProtocolVersion: tx.ProtocolVersion,
		Epoch:           tx.Epoch,
	}
	for _, in := range tx.Inputs {
		out.Inputs = append(out.Inputs, toJSONInput(in))
	}
	for _, cmd := range tx.Commands {
		out.Commands = append(out.Commands, toJSONCommand(cmd))
	}
	out.Effects = toJSONEffects(tx.Effects)
	return out
}

func fromJSONTransaction(jt jsonTransaction) (*suitypes.TransactionRecord, error) {
	digest, err := suitypes.DigestFromBase58(jt.Digest)
	if err != nil {
		return nil, &ErrDeserialization{Context: "transaction digest", Err: err}
	}
	sender, err := suitypes.ParseAddress(jt.Sender)
	if err != nil {
		return nil, &ErrDeserialization{Context: "transaction sender", Err: err}
	}
	tx := &suitypes.TransactionRecord{
		Digest:          digest,
		Sender:          sender,
		GasBudget:       jt.GasBudget,
		GasPrice:        jt.GasPrice,
		TimestampMs:     jt.TimestampMs,
		Checkpoint:      jt.Checkpoint,
		ProtocolVersion: jt.ProtocolVersion,
		Epoch:           jt.Epoch,
	}
	for _, ji := range jt.Inputs {
		in, err := fromJSONInput(ji)
		if err != nil {
			return nil, err
		}
		tx.Inputs = append(tx.Inputs, in)
	}
	for _, jc := range jt.Commands {
		cmd, err := fromJSONCommand(jc)
		if err != nil {
			return nil, err
		}
		tx.Commands = append(tx.Commands, cmd)
	}
	effects, err := fromJSONEffects(jt.Effects)
	if err != nil {
		return nil, err
	}
	tx.Effects = effects
	return tx, nil
}

func toJSONInput(in suitypes.Input) jsonInput {
	out := jsonInput{Mutable: in.Mutable}
	switch in.Kind {
	case suitypes.InputPure:
		out.Kind = "pure"
		out.PureBCSBase64 = base64.StdEncoding.EncodeToString(in.PureBCS)
	case suitypes.InputObjectRef:
		out.Kind = "object_ref"
		out.ObjectID = in.ObjectID.String()
		out.Version = in.Version
		out.Digest = in.Digest.Hex()
		switch in.ObjectRefKind {
		case suitypes.ObjectRefOwned:
			out.ObjectRefKind = "owned"
		case suitypes.ObjectRefImmutable:
			out.ObjectRefKind = "immutable"
		case suitypes.ObjectRefShared:
			out.ObjectRefKind = "shared"
		case suitypes.ObjectRefReceiving:
			out.ObjectRefKind = "receiving"
		}
	}
	return out
}

func fromJSONInput(ji jsonInput) (suitypes.Input, error) {
	if ji.Kind == "pure" {
		raw, err := base64.StdEncoding.DecodeString(ji.PureBCSBase64)
		if err != nil {
			return suitypes.Input{}, &ErrDeserialization{Context: "pure input bytes", Err: err}
		}
		return suitypes.Input{Kind: suitypes.InputPure, PureBCS: raw}, nil
	}
	id, err := suitypes.ParseAddress(ji.ObjectID)
	if err != nil {
		return suitypes.Input{}, &ErrDeserialization{Context: "object ref input id", Err: err}
	}
	var refKind suitypes.ObjectRefKind
	switch ji.ObjectRefKind {
	case "immutable":
		refKind = suitypes.ObjectRefImmutable
	case "shared":
		refKind = suitypes.ObjectRefShared
	case "receiving":
		refKind = suitypes.ObjectRefReceiving
	default:
		refKind = suitypes.ObjectRefOwned
	}
	return suitypes.Input{
		Kind:          suitypes.InputObjectRef,
		ObjectRefKind: refKind,
		ObjectID:      id,
		Version:       ji.Version,
		Mutable:       ji.Mutable,
	}, nil
}

func toJSONCommand(cmd suitypes.Command) jsonCommand {
	out := jsonCommand{}
	switch cmd.Kind {
	case suitypes.CommandMoveCall:
		out.Kind = "move_call"
		out.Package = cmd.MoveCall.Package.String()
		out.Module = cmd.MoveCall.Module
		out.Function = cmd.MoveCall.Function
		for _, t := range cmd.MoveCall.TypeArgs {
			out.TypeArgs = append(out.TypeArgs, t.String())
		}
		for _, a := range cmd.MoveCall.Arguments {
			out.Arguments = append(out.Arguments, toJSONArgument(a))
		}
	case suitypes.CommandSplitCoins:
		out.Kind = "split_coins"
		src := toJSONArgument(cmd.SplitCoins.Source)
		out.Source = &src
		for _, a := range cmd.SplitCoins.Amounts {
			out.Amounts = append(out.Amounts, toJSONArgument(a))
		}
	case suitypes.CommandMergeCoins:
		out.Kind = "merge_coins"
		dst := toJSONArgument(cmd.MergeCoins.Destination)
		out.Destination = &dst
		for _, a := range cmd.MergeCoins.Sources {
			out.Sources = append(out.Sources, toJSONArgument(a))
		}
	case suitypes.CommandTransferObjects:
		out.Kind = "transfer_objects"
		for _, a := range cmd.TransferObjects.Objects {
			out.Objects = append(out.Objects, toJSONArgument(a))
		}
		rec := toJSONArgument(cmd.TransferObjects.Recipient)
		out.Recipient = &rec
	case suitypes.CommandMakeMoveVec:
		out.Kind = "make_move_vec"
		if cmd.MakeMoveVec.ElementType != nil {
			out.ElementType = cmd.MakeMoveVec.ElementType.String()
		}
		for _, a := range cmd.MakeMoveVec.Elements {
			out.Elements = append(out.Elements, toJSONArgument(a))
		}
	case suitypes.CommandPublish:
		out.Kind = "publish"
		for _, m := range cmd.Publish.Modules {
			out.Modules = append(out.Modules, base64.StdEncoding.EncodeToString(m))
		}
		for _, d := range cmd.Publish.Dependencies {
			out.Dependencies = append(out.Dependencies, d.String())
		}
	case suitypes.CommandUpgrade:
		out.Kind = "upgrade"
		for _, m := range cmd.Upgrade.Modules {
			out.Modules = append(out.Modules, base64.StdEncoding.EncodeToString(m))
		}
		for _, d := range cmd.Upgrade.Dependencies {
			out.Dependencies = append(out.Dependencies, d.String())
		}
		out.PackageID = cmd.Upgrade.PackageID.String()
		tk := toJSONArgument(cmd.Upgrade.Ticket)
		out.Ticket = &tk
	case suitypes.CommandReceive:
		out.Kind = "receive"
		p := toJSONArgument(cmd.Receive.Parent)
		o := toJSONArgument(cmd.Receive.Object)
		out.Parent, out.Object = &p, &o
	}
	return out
}

func fromJSONCommand(jc jsonCommand) (suitypes.Command, error) {
	switch jc.Kind {
	case "move_call":
		pkg, err := suitypes.ParseAddress(jc.Package)
		if err != nil {
			return suitypes.Command{}, &ErrDeserialization{Context: "move_call package", Err: err}
		}
		call := &suitypes.MoveCallCommand{Package: pkg, Module: jc.Module, Function: jc.Function}
		for _, t := range jc.TypeArgs {
			tag, err := suitypes.ParseTypeTag(t)
			if err != nil {
				return suitypes.Command{}, &ErrDeserialization{Context: "move_call type arg", Err: err}
			}
			call.TypeArgs = append(call.TypeArgs, tag)
		}
		for _, a := range jc.Arguments {
			call.Arguments = append(call.Arguments, a.toArgument())
		}
		return suitypes.Command{Kind: suitypes.CommandMoveCall, MoveCall: call}, nil
	case "split_coins":
		cmd := &suitypes.SplitCoinsCommand{}
		if jc.Source != nil {
			cmd.Source = jc.Source.toArgument()
		}
		for _, a := range jc.Amounts {
			cmd.Amounts = append(cmd.Amounts, a.toArgument())
		}
		return suitypes.Command{Kind: suitypes.CommandSplitCoins, SplitCoins: cmd}, nil
	case "merge_coins":
		cmd := &suitypes.MergeCoinsCommand{}
		if jc.Destination != nil {
			cmd.Destination = jc.Destination.toArgument()
		}
		for _, a := range jc.Sources {
			cmd.Sources = append(cmd.Sources, a.toArgument())
		}
		return suitypes.Command{Kind: suitypes.CommandMergeCoins, MergeCoins: cmd}, nil
	case "transfer_objects":
		cmd := &suitypes.TransferObjectsCommand{}
		for _, a := range jc.Objects {
			cmd.Objects = append(cmd.Objects, a.toArgument())
		}
		if jc.Recipient != nil {
			cmd.Recipient = jc.Recipient.toArgument()
		}
		return suitypes.Command{Kind: suitypes.CommandTransferObjects, TransferObjects: cmd}, nil
	case "make_move_vec":
		cmd := &suitypes.MakeMoveVecCommand{}
		if jc.ElementType != "" {
			tag, err := suitypes.ParseTypeTag(jc.ElementType)
			if err != nil {
				return suitypes.Command{}, &ErrDeserialization{Context: "make_move_vec element type", Err: err}
			}
			cmd.ElementType = &tag
		}
		for _, a := range jc.Elements {
			cmd.Elements = append(cmd.Elements, a.toArgument())
		}
		return suitypes.Command{Kind: suitypes.CommandMakeMoveVec, MakeMoveVec: cmd}, nil
	case "publish":
		cmd := &suitypes.PublishCommand{}
		for _, m := range jc.Modules {
			raw, err := base64.StdEncoding.DecodeString(m)
			if err != nil {
				return suitypes.Command{}, &ErrDeserialization{Context: "publish module bytes", Err: err}
			}
			cmd.Modules = append(cmd.Modules, raw)
		}
		for _, d := range jc.Dependencies {
			addr, err := suitypes.ParseAddress(d)
			if err != nil {
				return suitypes.Command{}, &ErrDeserialization{Context: "publish dependency", Err: err}
			}
			cmd.Dependencies = append(cmd.Dependencies, addr)
		}
		return suitypes.Command{Kind: suitypes.CommandPublish, Publish: cmd}, nil
	case "upgrade":
		cmd := &suitypes.UpgradeCommand{}
		for _, m := range jc.Modules {
			raw, err := base64.StdEncoding.DecodeString(m)
			if err != nil {
				return suitypes.Command{}, &ErrDeserialization{Context: "upgrade module bytes", Err: err}
			}
			cmd.Modules = append(cmd.Modules, raw)
		}
		for _, d := range jc.Dependencies {
			addr, err := suitypes.ParseAddress(d)
			if err != nil {
				return suitypes.Command{}, &ErrDeserialization{Context: "upgrade dependency", Err: err}
			}
			cmd.Dependencies = append(cmd.Dependencies, addr)
		}
		pkgID, err := suitypes.ParseAddress(jc.PackageID)
		if err != nil {
			return suitypes.Command{}, &ErrDeserialization{Context: "upgrade package id", Err: err}
		}
		cmd.PackageID = pkgID
		if jc.Ticket != nil {
			cmd.Ticket = jc.Ticket.toArgument()
		}
		return suitypes.Command{Kind: suitypes.CommandUpgrade, Upgrade: cmd}, nil
	case "receive":
		cmd := &suitypes.ReceiveCommand{}
		if jc.Parent != nil {
			cmd.Parent = jc.Parent.toArgument()
		}
		if jc.Object != nil {
			cmd.Object = jc.Object.toArgument()
		}
		return suitypes.Command{Kind: suitypes.CommandReceive, Receive: cmd}, nil
	default:
		return suitypes.Command{}, &ErrDeserialization{Context: "command kind", Err: fmt.Errorf("unknown command kind %q", jc.Kind)}
	}
}

func toJSONEffects(eff suitypes.RecordedEffects) jsonEffects {
	out := jsonEffects{
		Success:                       eff.Status.Success,
		InputObjectVersions:           idVersionMap(eff.InputObjectVersions),
		UnchangedLoadedRuntimeObjects: idVersionMap(eff.UnchangedLoadedRuntimeObjects),
		ChangedObjects:                idVersionMap(eff.ChangedObjects),
		Created:                       idSet(eff.Created),
		Mutated:                       idSet(eff.Mutated),
		Deleted:                       idSet(eff.Deleted),
		Wrapped:                       idSet(eff.Wrapped),
	}
	if eff.Status.Abort != nil {
		out.AbortMajor = eff.Status.Abort.MajorStatus
		out.AbortSub = eff.Status.Abort.SubStatus
	}
	return out
}

func fromJSONEffects(je jsonEffects) (suitypes.RecordedEffects, error) {
	out := suitypes.RecordedEffects{
		Status:                        suitypes.EffectsStatus{Success: je.Success},
		InputObjectVersions:           make(map[suitypes.ObjectID]uint64),
		UnchangedLoadedRuntimeObjects: make(map[suitypes.ObjectID]uint64),
		ChangedObjects:                make(map[suitypes.ObjectID]uint64),
		Created:                       make(map[suitypes.ObjectID]struct{}),
		Mutated:                       make(map[suitypes.ObjectID]struct{}),
		Deleted:                       make(map[suitypes.ObjectID]struct{}),
		Wrapped:                       make(map[suitypes.ObjectID]struct{}),
	}
	if !je.Success {
		out.Status.Abort = &suitypes.MoveAbortInfo{MajorStatus: je.AbortMajor, SubStatus: je.AbortSub}
	}
	for k, v := range je.InputObjectVersions {
		id, err := suitypes.ParseAddress(k)
		if err != nil {
			return suitypes.RecordedEffects{}, &ErrDeserialization{Context: "input object version id", Err: err}
		}
		out.InputObjectVersions[id] = v
	}
	for k, v := range je.UnchangedLoadedRuntimeObjects {
		id, err := suitypes.ParseAddress(k)
		if err != nil {
			return suitypes.RecordedEffects{}, &ErrDeserialization{Context: "unchanged loaded runtime object id", Err: err}
		}
		out.UnchangedLoadedRuntimeObjects[id] = v
	}
	for k, v := range je.ChangedObjects {
		id, err := suitypes.ParseAddress(k)
		if err != nil {
			return suitypes.RecordedEffects{}, &ErrDeserialization{Context: "changed object id", Err: err}
		}
		out.ChangedObjects[id] = v
	}
	fill := func(dst map[suitypes.ObjectID]struct{}, ids []string) error {
		for _, s := range ids {
			id, err := suitypes.ParseAddress(s)
			if err != nil {
				return &ErrDeserialization{Context: "effects id set", Err: err}
			}
			dst[id] = struct{}{}
		}
		return nil
	}
	if err := fill(out.Created, je.Created); err != nil {
		return suitypes.RecordedEffects{}, err
	}
	if err := fill(out.Mutated, je.Mutated); err != nil {
		return suitypes.RecordedEffects{}, err
	}
	if err := fill(out.Deleted, je.Deleted); err != nil {
		return suitypes.RecordedEffects{}, err
	}
	if err := fill(out.Wrapped, je.Wrapped); err != nil {
		return suitypes.RecordedEffects{}, err
	}
	return out, nil
}

func idVersionMap(m map[suitypes.ObjectID]uint64) map[string]uint64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]uint64, len(m))
	for id, v := range m {
		out[id.String()] = v
	}
	return out
}

func idSet(m map[suitypes.ObjectID]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id.String())
	}
	return out
}

// ownerFromKindLabel recovers the owner variant (but not its payload —
// the snapshot schema carries only the kind label, per
// objectstore.SnapshotObject's doc comment) for a restored object.
func ownerFromKindLabel(label string) suitypes.Owner {
	switch label {
	case "address-owned":
		return suitypes.Owner{Kind: suitypes.OwnerAddressOwned}
	case "shared":
		return suitypes.Owner{Kind: suitypes.OwnerShared}
	case "immutable":
		return suitypes.ImmutableOwner()
	case "parent-owned":
		return suitypes.Owner{Kind: suitypes.OwnerParentOwned}
	default:
		return suitypes.Owner{}
	}
}

func toJSONPackage(pkg *suitypes.Package) jsonPackage {
	modules := make(map[string]string, len(pkg.Modules))
	for name, data := range pkg.Modules {
		modules[name] = base64.StdEncoding.EncodeToString(data)
	}
	return jsonPackage{
		Modules:         modules,
		Linkage:         pkg.Linkage,
		OriginalAddress: pkg.OriginalAddress.String(),
		Version:         pkg.Version,
	}
}

func fromJSONPackage(runtimeAddress suitypes.Address, jp jsonPackage) (*suitypes.Package, error) {
	original := runtimeAddress
	if jp.OriginalAddress != "" {
		var err error
		original, err = suitypes.ParseAddress(jp.OriginalAddress)
		if err != nil {
			return nil, &ErrDeserialization{Context: "package original address", Err: err}
		}
	}
	modules := make(map[string][]byte, len(jp.Modules))
	for name, b64 := range jp.Modules {
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, &ErrDeserialization{Context: fmt.Sprintf("package module %q", name), Err: err}
		}
		modules[name] = raw
	}
	return &suitypes.Package{
		RuntimeAddress:  runtimeAddress,
		OriginalAddress: original,
		Version:         jp.Version,
		Modules:         modules,
		Linkage:         jp.Linkage,
	}, nil
}
