package ptb

import (
	"github.com/sui-sandbox/replay/internal/resolver"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

// Validate performs the static validation pass of spec.md §4.6 — all
// checks must pass before any command executes, else ErrPTBInvalid.
func (e *Executor) Validate(commands []suitypes.Command) error {
	for idx, cmd := range commands {
		for _, arg := range argumentsOf(cmd) {
			if err := e.validateArgument(idx, arg); err != nil {
				return err
			}
		}
		if cmd.Kind == suitypes.CommandMoveCall {
			if err := e.validateMoveCall(idx, cmd.MoveCall); err != nil {
				return err
			}
		}
	}
	return e.validateSharedObjectIntent(commands)
}

// validateSharedObjectIntent cross-checks each shared Input's declared
// write intent (spec.md §4.5 "shared-object write intent, declared up
// front") against what the commands actually do to it, rejecting any
// mismatch before a single command runs (spec.md:265 "single-command-
// mutation rule": mismatches between declared intent and actual use
// must be detected before execution, not discovered reactively mid-run
// the way objectstore.Store's SharedLockedMutable flag catches a
// second write).
func (e *Executor) validateSharedObjectIntent(commands []suitypes.Command) error {
	for idx, cmd := range commands {
		mutating, err := e.mutatingArgumentsOf(cmd)
		if err != nil {
			return err
		}
		for _, arg := range mutating {
			if arg.Kind != suitypes.ArgInput || int(arg.Index) >= len(e.inputs) {
				continue
			}
			in := e.inputs[arg.Index]
			if in.Kind != suitypes.InputObjectRef || in.ObjectRefKind != suitypes.ObjectRefShared {
				continue
			}
			if !in.Mutable {
				return &ErrPTBInvalid{
					CommandIndex: idx,
					Violation:    ViolationSharedIntentMismatch,
					Detail:       "shared object declared read-only at input time but command takes it mutably",
				}
			}
		}
	}
	return nil
}

// mutatingArgumentsOf returns the subset of a command's arguments that
// represent a mutating or by-value (consuming) use, the uses
// validateSharedObjectIntent checks against each shared Input's
// declared Mutable flag.
func (e *Executor) mutatingArgumentsOf(cmd suitypes.Command) ([]suitypes.Argument, error) {
	switch cmd.Kind {
	case suitypes.CommandMoveCall:
		call := cmd.MoveCall
		sig, err := e.res.FunctionSignature(call.Package, call.Module, call.Function)
		if err != nil {
			// Left to Execute's own FunctionSignature lookup to surface;
			// nothing to cross-check without a resolved signature.
			return nil, nil
		}
		params, _, err := resolver.Substitute(sig, call.TypeArgs)
		if err != nil {
			return nil, nil
		}
		var out []suitypes.Argument
		for i, arg := range call.Arguments {
			if i < len(params) && params[i].ByMutableRef {
				out = append(out, arg)
			}
		}
		return out, nil
	case suitypes.CommandSplitCoins:
		return []suitypes.Argument{cmd.SplitCoins.Source}, nil
	case suitypes.CommandMergeCoins:
		return append([]suitypes.Argument{cmd.MergeCoins.Destination}, cmd.MergeCoins.Sources...), nil
	case suitypes.CommandTransferObjects:
		return append([]suitypes.Argument(nil), cmd.TransferObjects.Objects...), nil
	case suitypes.CommandMakeMoveVec:
		return cmd.MakeMoveVec.Elements, nil
	case suitypes.CommandReceive:
		return []suitypes.Argument{cmd.Receive.Object}, nil
	default:
		return nil, nil
	}
}

func (e *Executor) validateArgument(cmdIdx int, arg suitypes.Argument) error {
	switch arg.Kind {
	case suitypes.ArgInput:
		if int(arg.Index) >= len(e.inputs) {
			return &ErrPTBInvalid{CommandIndex: cmdIdx, Violation: ViolationInputOutOfRange, Detail: "input index out of range"}
		}
	case suitypes.ArgResult:
		if int(arg.Index) >= cmdIdx {
			return &ErrPTBInvalid{CommandIndex: cmdIdx, Violation: ViolationForwardReference, Detail: "result references a command that has not executed yet"}
		}
	case suitypes.ArgNestedResult:
		if int(arg.Index) >= cmdIdx {
			return &ErrPTBInvalid{CommandIndex: cmdIdx, Violation: ViolationForwardReference, Detail: "nested result references a command that has not executed yet"}
		}
		if int(arg.Index) < len(e.results) && int(arg.Sub) >= len(e.results[arg.Index]) {
			return &ErrPTBInvalid{CommandIndex: cmdIdx, Violation: ViolationNestedOutOfRange, Detail: "nested result sub-index out of range"}
		}
	}
	return nil
}

// validateMoveCall checks visibility and type-argument arity; argument
// arity is checked (and, where applicable, auto-completed with a
// synthesized transaction context) in commands.go at call time, since it
// requires the resolved signature and the spec's documented one-shot
// retry behavior.
func (e *Executor) validateMoveCall(cmdIdx int, call *suitypes.MoveCallCommand) error {
	sig, err := e.res.FunctionSignature(call.Package, call.Module, call.Function)
	if err != nil {
		return err
	}
	if !sig.IsPublic && !sig.IsEntry {
		return &ErrPTBInvalid{CommandIndex: cmdIdx, Violation: ViolationVisibility, Detail: "function is neither public nor entry"}
	}
	if len(call.TypeArgs) != sig.TypeParamCount {
		return &ErrPTBInvalid{CommandIndex: cmdIdx, Violation: ViolationTypeArgArity, Detail: "type argument count mismatch"}
	}
	return nil
}

// argumentsOf flattens every Argument a command references, for the
// generic input/forward-reference validation pass.
func argumentsOf(cmd suitypes.Command) []suitypes.Argument {
	switch cmd.Kind {
	case suitypes.CommandMoveCall:
		return cmd.MoveCall.Arguments
	case suitypes.CommandSplitCoins:
		return append([]suitypes.Argument{cmd.SplitCoins.Source}, cmd.SplitCoins.Amounts...)
	case suitypes.CommandMergeCoins:
		return append([]suitypes.Argument{cmd.MergeCoins.Destination}, cmd.MergeCoins.Sources...)
	case suitypes.CommandTransferObjects:
		return append(append([]suitypes.Argument(nil), cmd.TransferObjects.Objects...), cmd.TransferObjects.Recipient)
	case suitypes.CommandMakeMoveVec:
		return cmd.MakeMoveVec.Elements
	case suitypes.CommandUpgrade:
		return []suitypes.Argument{cmd.Upgrade.Ticket}
	case suitypes.CommandReceive:
		return []suitypes.Argument{cmd.Receive.Parent, cmd.Receive.Object}
	default:
		return nil
	}
}
