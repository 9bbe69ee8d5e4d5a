package ptb

import (
	"fmt"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

// suiCoinType is the type tag of the native SUI coin, used to type the
// gas-coin pseudo-input.
var suiCoinType = suitypes.TypeTag{
	Kind: suitypes.TypeTagStruct,
	StructTag: &suitypes.StructTag{
		Address: suitypes.SuiFrameworkAddress,
		Module:  "coin",
		Name:    "Coin",
		TypeParams: []suitypes.TypeTag{{
			Kind:      suitypes.TypeTagStruct,
			StructTag: &suitypes.StructTag{Address: suitypes.SuiFrameworkAddress, Module: "sui", Name: "SUI"},
		}},
	},
}

// resolveArgument reads the current value an Argument denotes, resolving
// through Input/Result/NestedResult/GasCoin uniformly (spec.md §3, §4.6).
func (e *Executor) resolveArgument(arg suitypes.Argument) (TypedValue, error) {
	switch arg.Kind {
	case suitypes.ArgGasCoin:
		obj, err := e.store.GetChecked(e.gasCoinID)
		if err != nil {
			return TypedValue{}, fmt.Errorf("ptb: resolving gas coin: %w", err)
		}
		id := obj.ID
		return TypedValue{Type: suiCoinType, BCS: obj.BCS, ObjectID: &id}, nil

	case suitypes.ArgInput:
		if int(arg.Index) >= len(e.inputs) {
			return TypedValue{}, fmt.Errorf("ptb: input index %d out of range", arg.Index)
		}
		input := e.inputs[arg.Index]
		if input.Kind == suitypes.InputPure {
			return TypedValue{BCS: input.PureBCS}, nil
		}
		id := e.inputObjects[arg.Index]
		if id == nil {
			return TypedValue{}, fmt.Errorf("ptb: input %d has no backing object", arg.Index)
		}
		obj, err := e.store.GetChecked(*id)
		if err != nil {
			return TypedValue{}, fmt.Errorf("ptb: resolving input %d: %w", arg.Index, err)
		}
		oid := obj.ID
		return TypedValue{Type: obj.Type, BCS: obj.BCS, ObjectID: &oid}, nil

	case suitypes.ArgResult:
		vals := e.results[arg.Index]
		if len(vals) != 1 {
			return TypedValue{}, fmt.Errorf("ptb: result %d has %d values, expected exactly 1 for a bare Result argument", arg.Index, len(vals))
		}
		return vals[0], nil

	case suitypes.ArgNestedResult:
		vals := e.results[arg.Index]
		if int(arg.Sub) >= len(vals) {
			return TypedValue{}, fmt.Errorf("ptb: nested result (%d,%d) out of range", arg.Index, arg.Sub)
		}
		return vals[arg.Sub], nil

	default:
		return TypedValue{}, fmt.Errorf("ptb: unknown argument kind %d", arg.Kind)
	}
}

// writeBack writes an updated value to the slot an Argument denotes.
// This is the single operation spec.md §4.6 requires to "handle all
// three argument kinds identically" for mutable-reference write-back —
// Input, Result, and NestedResult are all updated through this one
// function, never three copy-pasted branches.
func (e *Executor) writeBack(arg suitypes.Argument, updated TypedValue) error {
	switch arg.Kind {
	case suitypes.ArgGasCoin:
		obj, err := e.store.GetChecked(e.gasCoinID)
		if err != nil {
			return err
		}
		obj.BCS = updated.BCS
		return e.store.Put(obj)

	case suitypes.ArgInput:
		id := e.inputObjects[arg.Index]
		if id == nil {
			return fmt.Errorf("ptb: cannot write back to pure input %d", arg.Index)
		}
		obj, err := e.store.GetChecked(*id)
		if err != nil {
			return err
		}
		obj.BCS = updated.BCS
		return e.store.Put(obj)

	case suitypes.ArgResult:
		if len(e.results[arg.Index]) != 1 {
			return fmt.Errorf("ptb: cannot write back to multi-value result %d as a bare Result", arg.Index)
		}
		e.results[arg.Index][0] = updated
		return nil

	case suitypes.ArgNestedResult:
		if int(arg.Sub) >= len(e.results[arg.Index]) {
			return fmt.Errorf("ptb: nested result (%d,%d) out of range on write-back", arg.Index, arg.Sub)
		}
		e.results[arg.Index][arg.Sub] = updated
		return nil

	default:
		return fmt.Errorf("ptb: unknown argument kind %d on write-back", arg.Kind)
	}
}

// consumeArgument marks the object a by-value argument denotes as spent,
// zeroing its slot so subsequent references fail explicitly rather than
// silently double-spend (spec.md §4.5, §4.6 merge-coins/transfer-objects).
func (e *Executor) consumeArgument(arg suitypes.Argument) error {
	val, err := e.resolveArgument(arg)
	if err != nil {
		return err
	}
	if val.ObjectID == nil {
		return nil // pure value, nothing to consume in the store
	}
	e.store.Consume(*val.ObjectID)
	return nil
}
