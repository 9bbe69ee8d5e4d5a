package ptb

import "fmt"

// ViolationKind enumerates the static-validation failures of spec.md
// §4.6, surfaced as structured PTBInvalid errors (spec.md §7).
type ViolationKind string

const (
	ViolationInputOutOfRange      ViolationKind = "input_out_of_range"
	ViolationForwardReference     ViolationKind = "forward_reference"
	ViolationNestedOutOfRange     ViolationKind = "nested_result_out_of_range"
	ViolationVisibility           ViolationKind = "bad_visibility"
	ViolationTypeArgArity         ViolationKind = "type_arg_arity"
	ViolationArgumentArity        ViolationKind = "argument_arity"
	ViolationSharedIntentMismatch ViolationKind = "shared_intent_mismatch"
)

// ErrPTBInvalid is the structured PTBInvalid error of spec.md §7.
type ErrPTBInvalid struct {
	CommandIndex int
	Violation    ViolationKind
	Detail       string
}

func (e *ErrPTBInvalid) Error() string {
	return fmt.Sprintf("ptb: invalid at command %d: %s (%s)", e.CommandIndex, e.Violation, e.Detail)
}

// ErrInsufficientBalance is returned by SplitCoins when the sum of
// splits exceeds the source (spec.md §4.6).
type ErrInsufficientBalance struct {
	CommandIndex     int
	Available, Asked uint64
}

func (e *ErrInsufficientBalance) Error() string {
	return fmt.Sprintf("ptb: insufficient balance at command %d: have %d, need %d", e.CommandIndex, e.Available, e.Asked)
}

// ErrMissingStoreCapability is returned by TransferObjects when an
// object lacks the `store` capability required for a transfer
// (spec.md §4.6).
type ErrMissingStoreCapability struct {
	CommandIndex int
}

func (e *ErrMissingStoreCapability) Error() string {
	return fmt.Sprintf("ptb: object at command %d lacks the store capability required for transfer", e.CommandIndex)
}
