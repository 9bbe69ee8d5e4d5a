package fixture

import (
	"fmt"

	"github.com/sui-sandbox/replay/internal/bcs"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

// The wire types below mirror the BCS enum shapes of the open-move
// sui-go-sdk's transaction package (Argument, CallArg, Command,
// ProgrammableTransaction, TransactionData): one pointer field set per
// variant, tagged for bcs-go and marked with IsBcsEnum() the way
// internal/dynamicfield's structTagWire is. They exist only so
// EncodeForSigning has real bytes to hash and sign — suitypes'
// Command/Argument/Input stay plain Go tagged unions, kept separate from
// bcs-go's enum marker convention.

type argumentWire struct {
	GasCoin      *struct{}         `bcs:"gas_coin,optional"`
	Input        *uint16           `bcs:"input,optional"`
	Result       *uint16           `bcs:"result,optional"`
	NestedResult *nestedResultWire `bcs:"nested_result,optional"`
}

func (argumentWire) IsBcsEnum() {}

type nestedResultWire struct {
	Index       uint16 `bcs:"index"`
	ResultIndex uint16 `bcs:"result_index"`
}

func newArgumentWire(a suitypes.Argument) argumentWire {
	switch a.Kind {
	case suitypes.ArgInput:
		idx := a.Index
		return argumentWire{Input: &idx}
	case suitypes.ArgResult:
		idx := a.Index
		return argumentWire{Result: &idx}
	case suitypes.ArgNestedResult:
		return argumentWire{NestedResult: &nestedResultWire{Index: a.Index, ResultIndex: a.Sub}}
	default:
		return argumentWire{GasCoin: &struct{}{}}
	}
}

func argumentWires(args []suitypes.Argument) []argumentWire {
	out := make([]argumentWire, len(args))
	for i, a := range args {
		out[i] = newArgumentWire(a)
	}
	return out
}

// typeTagWire is the BCS-taggable mirror of suitypes.TypeTag, kept
// separate for the same reason internal/dynamicfield's structTagWire is:
// suitypes' Kind-plus-optional-pointer shape isn't itself a bcs-go enum.
type typeTagWire struct {
	Kind      uint8          `bcs:"kind"`
	Vector    *typeTagWire   `bcs:"vector,optional"`
	StructTag *structTagWire `bcs:"struct_tag,optional"`
}

type structTagWire struct {
	Address    [32]byte      `bcs:"address"`
	Module     string        `bcs:"module"`
	Name       string        `bcs:"name"`
	TypeParams []typeTagWire `bcs:"type_params"`
}

func newTypeTagWire(t suitypes.TypeTag) typeTagWire {
	w := typeTagWire{Kind: uint8(t.Kind)}
	switch t.Kind {
	case suitypes.TypeTagVector:
		inner := newTypeTagWire(*t.VectorElem)
		w.Vector = &inner
	case suitypes.TypeTagStruct:
		st := newStructTagWire(*t.StructTag)
		w.StructTag = &st
	}
	return w
}

func newStructTagWire(s suitypes.StructTag) structTagWire {
	w := structTagWire{Address: s.Address, Module: s.Module, Name: s.Name}
	w.TypeParams = make([]typeTagWire, len(s.TypeParams))
	for i, p := range s.TypeParams {
		w.TypeParams[i] = newTypeTagWire(p)
	}
	return w
}

func typeTagWires(tags []suitypes.TypeTag) []typeTagWire {
	out := make([]typeTagWire, len(tags))
	for i, t := range tags {
		out[i] = newTypeTagWire(t)
	}
	return out
}

type pureWire struct {
	Bytes []byte `bcs:"bytes"`
}

type objectRefWire struct {
	ObjectID [32]byte `bcs:"object_id"`
	Version  uint64   `bcs:"version"`
	Digest   [32]byte `bcs:"digest"`
}

type sharedObjectRefWire struct {
	ObjectID             [32]byte `bcs:"object_id"`
	InitialSharedVersion uint64   `bcs:"initial_shared_version"`
	Mutable              bool     `bcs:"mutable"`
}

type objectArgWire struct {
	ImmOrOwnedObject *objectRefWire       `bcs:"imm_or_owned_object,optional"`
	SharedObject     *sharedObjectRefWire `bcs:"shared_object,optional"`
	Receiving        *objectRefWire       `bcs:"receiving,optional"`
}

func (objectArgWire) IsBcsEnum() {}

type callArgWire struct {
	Pure   *pureWire      `bcs:"pure,optional"`
	Object *objectArgWire `bcs:"object,optional"`
}

func (callArgWire) IsBcsEnum() {}

func newCallArgWire(in suitypes.Input) callArgWire {
	if in.Kind == suitypes.InputPure {
		return callArgWire{Pure: &pureWire{Bytes: in.PureBCS}}
	}
	ref := objectRefWire{ObjectID: in.ObjectID, Version: in.Version, Digest: in.Digest}
	switch in.ObjectRefKind {
	case suitypes.ObjectRefShared:
		return callArgWire{Object: &objectArgWire{SharedObject: &sharedObjectRefWire{
			ObjectID:             in.ObjectID,
			InitialSharedVersion: in.Version,
			Mutable:              in.Mutable,
		}}}
	case suitypes.ObjectRefReceiving:
		return callArgWire{Object: &objectArgWire{Receiving: &ref}}
	default:
		return callArgWire{Object: &objectArgWire{ImmOrOwnedObject: &ref}}
	}
}

type moveCallWire struct {
	Package       [32]byte       `bcs:"package"`
	Module        string         `bcs:"module"`
	Function      string         `bcs:"function"`
	TypeArguments []typeTagWire  `bcs:"type_arguments"`
	Arguments     []argumentWire `bcs:"arguments"`
}

type splitCoinsWire struct {
	Coin    argumentWire   `bcs:"coin"`
	Amounts []argumentWire `bcs:"amounts"`
}

type mergeCoinsWire struct {
	Destination argumentWire   `bcs:"destination"`
	Sources     []argumentWire `bcs:"sources"`
}

type transferObjectsWire struct {
	Objects []argumentWire `bcs:"objects"`
	Address argumentWire   `bcs:"address"`
}

type makeMoveVecWire struct {
	Type     *typeTagWire   `bcs:"type,optional"`
	Elements []argumentWire `bcs:"elements"`
}

type publishWire struct {
	Modules      [][]byte   `bcs:"modules"`
	Dependencies [][32]byte `bcs:"dependencies"`
}

type upgradeWire struct {
	Modules      [][]byte     `bcs:"modules"`
	Dependencies [][32]byte   `bcs:"dependencies"`
	Package      [32]byte     `bcs:"package"`
	Ticket       argumentWire `bcs:"ticket"`
}

type receiveWire struct {
	Parent argumentWire `bcs:"parent"`
	Object argumentWire `bcs:"object"`
}

type commandWire struct {
	MoveCall        *moveCallWire        `bcs:"move_call,optional"`
	TransferObjects *transferObjectsWire `bcs:"transfer_objects,optional"`
	SplitCoins      *splitCoinsWire      `bcs:"split_coins,optional"`
	MergeCoins      *mergeCoinsWire      `bcs:"merge_coins,optional"`
	Publish         *publishWire         `bcs:"publish,optional"`
	MakeMoveVec     *makeMoveVecWire     `bcs:"make_move_vec,optional"`
	Upgrade         *upgradeWire         `bcs:"upgrade,optional"`
	Receive         *receiveWire         `bcs:"receive,optional"`
}

func (commandWire) IsBcsEnum() {}

func addressBytes(addrs []suitypes.Address) [][32]byte {
	out := make([][32]byte, len(addrs))
	for i, a := range addrs {
		out[i] = a
	}
	return out
}

func newCommandWire(cmd suitypes.Command) (commandWire, error) {
	switch cmd.Kind {
	case suitypes.CommandMoveCall:
		c := cmd.MoveCall
		return commandWire{MoveCall: &moveCallWire{
			Package:       c.Package,
			Module:        c.Module,
			Function:      c.Function,
			TypeArguments: typeTagWires(c.TypeArgs),
			Arguments:     argumentWires(c.Arguments),
		}}, nil
	case suitypes.CommandSplitCoins:
		c := cmd.SplitCoins
		return commandWire{SplitCoins: &splitCoinsWire{
			Coin:    newArgumentWire(c.Source),
			Amounts: argumentWires(c.Amounts),
		}}, nil
	case suitypes.CommandMergeCoins:
		c := cmd.MergeCoins
		return commandWire{MergeCoins: &mergeCoinsWire{
			Destination: newArgumentWire(c.Destination),
			Sources:     argumentWires(c.Sources),
		}}, nil
	case suitypes.CommandTransferObjects:
		c := cmd.TransferObjects
		return commandWire{TransferObjects: &transferObjectsWire{
			Objects: argumentWires(c.Objects),
			Address: newArgumentWire(c.Recipient),
		}}, nil
	case suitypes.CommandMakeMoveVec:
		c := cmd.MakeMoveVec
		mv := &makeMoveVecWire{Elements: argumentWires(c.Elements)}
		if c.ElementType != nil {
			t := newTypeTagWire(*c.ElementType)
			mv.Type = &t
		}
		return commandWire{MakeMoveVec: mv}, nil
	case suitypes.CommandPublish:
		c := cmd.Publish
		return commandWire{Publish: &publishWire{Modules: c.Modules, Dependencies: addressBytes(c.Dependencies)}}, nil
	case suitypes.CommandUpgrade:
		c := cmd.Upgrade
		return commandWire{Upgrade: &upgradeWire{
			Modules:      c.Modules,
			Dependencies: addressBytes(c.Dependencies),
			Package:      c.PackageID,
			Ticket:       newArgumentWire(c.Ticket),
		}}, nil
	case suitypes.CommandReceive:
		c := cmd.Receive
		return commandWire{Receive: &receiveWire{
			Parent: newArgumentWire(c.Parent),
			Object: newArgumentWire(c.Object),
		}}, nil
	default:
		return commandWire{}, fmt.Errorf("fixture: unknown command kind %d", cmd.Kind)
	}
}

type programmableTransactionWire struct {
	Inputs   []callArgWire `bcs:"inputs"`
	Commands []commandWire `bcs:"commands"`
}

type gasDataWire struct {
	Payment []objectRefWire `bcs:"payment"`
	Owner   [32]byte        `bcs:"owner"`
	Price   uint64          `bcs:"price"`
	Budget  uint64          `bcs:"budget"`
}

type transactionDataV1Wire struct {
	Kind   programmableTransactionWire `bcs:"kind"`
	Sender [32]byte                    `bcs:"sender"`
	Gas    gasDataWire                 `bcs:"gas_data"`
}

// EncodeForSigning renders tx as BCS bytes shaped like the real Sui
// TransactionData(V1) wire format, the bytes a client signs before
// submission (spec.md §3 "Digest"). Only the ProgrammableTransaction
// kind is supported — this sandbox never builds the other TransactionKind
// variants (ChangeEpoch, Genesis, ...).
func EncodeForSigning(tx *suitypes.TransactionRecord) ([]byte, error) {
	callArgs := make([]callArgWire, len(tx.Inputs))
	for i, in := range tx.Inputs {
		callArgs[i] = newCallArgWire(in)
	}
	commands := make([]commandWire, len(tx.Commands))
	for i, cmd := range tx.Commands {
		cw, err := newCommandWire(cmd)
		if err != nil {
			return nil, err
		}
		commands[i] = cw
	}
	payment := make([]objectRefWire, len(tx.GasPayment))
	for i, g := range tx.GasPayment {
		payment[i] = objectRefWire{ObjectID: g.ObjectID, Version: g.Version, Digest: g.Digest}
	}

	data := transactionDataV1Wire{
		Kind:   programmableTransactionWire{Inputs: callArgs, Commands: commands},
		Sender: tx.Sender,
		Gas: gasDataWire{
			Payment: payment,
			Owner:   tx.Sender,
			Price:   tx.GasPrice,
			Budget:  tx.GasBudget,
		},
	}
	raw, err := bcs.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("fixture: encoding transaction for signing: %w", err)
	}
	return raw, nil
}
