package suitypes

// CommandKind enumerates the PTB command variants of spec.md §3.
type CommandKind uint8

const (
	CommandMoveCall CommandKind = iota
	CommandSplitCoins
	CommandMergeCoins
	CommandTransferObjects
	CommandMakeMoveVec
	CommandPublish
	CommandUpgrade
	CommandReceive
)

// ArgumentKind enumerates the argument variants of spec.md §3.
type ArgumentKind uint8

const (
	ArgGasCoin ArgumentKind = iota
	ArgInput
	ArgResult
	ArgNestedResult
)

// Argument is a reference to an input, a whole command result, a nested
// (sub-index) command result, or the gas-coin alias.
type Argument struct {
	Kind  ArgumentKind
	Index uint16 // Input index, or Result/NestedResult command index
	Sub   uint16 // NestedResult sub-index
}

func InputArg(i uint16) Argument      { return Argument{Kind: ArgInput, Index: i} }
func ResultArg(i uint16) Argument     { return Argument{Kind: ArgResult, Index: i} }
func NestedArg(i, k uint16) Argument  { return Argument{Kind: ArgNestedResult, Index: i, Sub: k} }
func GasCoinArg() Argument            { return Argument{Kind: ArgGasCoin} }

// MoveCallCommand, per spec.md §3.
type MoveCallCommand struct {
	Package   Address
	Module    string
	Function  string
	TypeArgs  []TypeTag
	Arguments []Argument
}

type SplitCoinsCommand struct {
	Source  Argument
	Amounts []Argument
}

type MergeCoinsCommand struct {
	Destination Argument
	Sources     []Argument
}

type TransferObjectsCommand struct {
	Objects   []Argument
	Recipient Argument
}

type MakeMoveVecCommand struct {
	ElementType *TypeTag // nil when inferred from elements
	Elements    []Argument
}

type PublishCommand struct {
	Modules      [][]byte
	Dependencies []Address
}

type UpgradeCommand struct {
	Modules      [][]byte
	Dependencies []Address
	PackageID    Address
	Ticket       Argument
}

type ReceiveCommand struct {
	Parent Argument
	Object Argument
}

// Command is a tagged union over the PTB command variants; exactly one
// field is non-nil.
type Command struct {
	Kind            CommandKind
	MoveCall        *MoveCallCommand
	SplitCoins      *SplitCoinsCommand
	MergeCoins      *MergeCoinsCommand
	TransferObjects *TransferObjectsCommand
	MakeMoveVec     *MakeMoveVecCommand
	Publish         *PublishCommand
	Upgrade         *UpgradeCommand
	Receive         *ReceiveCommand
}

// InputKind distinguishes a pure BCS value from an object reference
// input (spec.md §3).
type InputKind uint8

const (
	InputPure InputKind = iota
	InputObjectRef
)

// ObjectRefKind narrows an object-reference input, mirroring
// ObjectArg in the open-move sui-go-sdk transaction types.
type ObjectRefKind uint8

const (
	ObjectRefOwned ObjectRefKind = iota
	ObjectRefImmutable
	ObjectRefShared
	ObjectRefReceiving
)

// Input is one entry of the transaction's input vector.
type Input struct {
	Kind InputKind

	// valid when Kind == InputPure
	PureBCS []byte

	// valid when Kind == InputObjectRef
	ObjectRefKind ObjectRefKind
	ObjectID      ObjectID
	Version       uint64 // object version, or initial shared version for ObjectRefShared
	Digest        Digest
	Mutable       bool // shared-object write intent, declared up front (spec.md §4.5)
}

// EffectsStatus is the terminal status of a replayed transaction.
type EffectsStatus struct {
	Success bool
	// Populated when Success is false.
	Abort *MoveAbortInfo
}

// MoveAbortInfo is the structured abort captured per spec.md §4.6/§7 —
// never parsed from a message string.
type MoveAbortInfo struct {
	MajorStatus      uint64
	SubStatus        uint64
	Module           Address
	ModuleName       string
	FunctionName     string
	FunctionIndex    uint16
	InstructionOffset uint16
}

// RecordedEffects is the effects block attached to a fetched historical
// transaction, used as the comparison baseline (spec.md §3, §4.9).
type RecordedEffects struct {
	Status                      EffectsStatus
	InputObjectVersions         map[ObjectID]uint64
	UnchangedLoadedRuntimeObjects map[ObjectID]uint64
	ChangedObjects              map[ObjectID]uint64
	Created                     map[ObjectID]struct{}
	Mutated                     map[ObjectID]struct{}
	Deleted                     map[ObjectID]struct{}
	Wrapped                     map[ObjectID]struct{}
}

// TransactionRecord is the full historical transaction, per spec.md §3.
type TransactionRecord struct {
	Digest     Digest
	Sender     Address
	GasBudget  uint64
	GasPrice   uint64
	GasPayment []struct {
		ObjectID ObjectID
		Version  uint64
		Digest   Digest
	}
	Checkpoint uint64
	TimestampMs uint64
	ProtocolVersion uint64
	Epoch      uint64

	Inputs   []Input
	Commands []Command

	Effects RecordedEffects
}
