package ptb

import (
	"encoding/binary"
	"fmt"

	"github.com/sui-sandbox/replay/internal/resolver"
	"github.com/sui-sandbox/replay/internal/suitypes"
	"github.com/sui-sandbox/replay/internal/vm"
)

// execCommand dispatches one command and appends its result vector to
// e.results (spec.md §4.6).
func (e *Executor) execCommand(cmdIdx int, cmd suitypes.Command) ([]TypedValue, error) {
	switch cmd.Kind {
	case suitypes.CommandMoveCall:
		return e.execMoveCall(cmdIdx, cmd.MoveCall)
	case suitypes.CommandSplitCoins:
		return e.execSplitCoins(cmdIdx, cmd.SplitCoins)
	case suitypes.CommandMergeCoins:
		return e.execMergeCoins(cmdIdx, cmd.MergeCoins)
	case suitypes.CommandTransferObjects:
		return e.execTransferObjects(cmdIdx, cmd.TransferObjects)
	case suitypes.CommandMakeMoveVec:
		return e.execMakeMoveVec(cmdIdx, cmd.MakeMoveVec)
	case suitypes.CommandPublish:
		return e.execPublish(cmdIdx, cmd.Publish)
	case suitypes.CommandUpgrade:
		return e.execUpgrade(cmdIdx, cmd.Upgrade)
	case suitypes.CommandReceive:
		return e.execReceive(cmdIdx, cmd.Receive)
	default:
		return nil, fmt.Errorf("ptb: unknown command kind %d at %d", cmd.Kind, cmdIdx)
	}
}

// execMoveCall resolves arguments, substitutes type parameters, builds
// the guest CallRequest, and writes mutable-reference outputs back
// through the uniform writeBack path (spec.md §4.6).
//
// When the function declares a trailing tx-context parameter and the
// caller supplied one fewer argument than parameters, the harness
// synthesizes it rather than failing — the "one-shot retry, not a loop"
// behavior spec.md calls for: exactly one extra argument is appended,
// never more.
func (e *Executor) execMoveCall(cmdIdx int, call *suitypes.MoveCallCommand) ([]TypedValue, error) {
	sig, err := e.res.FunctionSignature(call.Package, call.Module, call.Function)
	if err != nil {
		return nil, err
	}
	params, returns, err := resolver.Substitute(sig, call.TypeArgs)
	if err != nil {
		return nil, &ErrPTBInvalid{CommandIndex: cmdIdx, Violation: ViolationTypeArgArity, Detail: err.Error()}
	}

	args := call.Arguments
	if len(args) == len(params)-1 && len(params) > 0 && params[len(params)-1].IsTxContext {
		args = append(append([]suitypes.Argument(nil), args...), suitypes.Argument{})
	}
	if len(args) != len(params) {
		return nil, &ErrPTBInvalid{CommandIndex: cmdIdx, Violation: ViolationArgumentArity, Detail: "argument count does not match function parameters"}
	}

	req := vm.CallRequest{
		Address:  call.Package.String(),
		Module:   call.Module,
		Function: call.Function,
	}
	for _, t := range call.TypeArgs {
		req.TypeArgs = append(req.TypeArgs, t.String())
	}

	resolved := make([]TypedValue, len(args))
	for i, p := range params {
		if p.IsTxContext {
			var ctxBytes [16]byte
			copy(ctxBytes[:], e.harness.Sim.Context.Digest[:])
			binary.LittleEndian.PutUint64(ctxBytes[8:], e.harness.Sim.Context.Epoch)
			req.Arguments = append(req.Arguments, ctxBytes[:])
			req.TxContext = ctxBytes[:]
			continue
		}
		val, err := e.resolveArgument(args[i])
		if err != nil {
			return nil, fmt.Errorf("ptb: command %d argument %d: %w", cmdIdx, i, err)
		}
		resolved[i] = val
		req.Arguments = append(req.Arguments, val.BCS)
		if p.ByMutableRef {
			req.MutableRefs = append(req.MutableRefs, i)
		}
	}

	result, err := e.harness.Guest.CallFunction(req)
	if err != nil {
		return nil, fmt.Errorf("ptb: command %d: %w", cmdIdx, err)
	}
	if !result.Success {
		return nil, &ErrMoveAbort{CommandIndex: cmdIdx, Info: *vm.AbortToStructured(result, call.Package, call.Module, call.Function)}
	}

	for i, refIdx := range req.MutableRefs {
		if i >= len(result.UpdatedRefs) {
			break
		}
		updated := resolved[refIdx]
		updated.BCS = result.UpdatedRefs[i]
		if err := e.writeBack(args[refIdx], updated); err != nil {
			return nil, fmt.Errorf("ptb: command %d writing back mutable ref %d: %w", cmdIdx, refIdx, err)
		}
	}

	out := make([]TypedValue, len(result.Returns))
	for i, b := range result.Returns {
		tv := TypedValue{BCS: b}
		if i < len(returns) {
			tv.Type = returns[i]
		}
		out[i] = tv
	}
	return out, nil
}

// ErrMoveAbort is the structured MoveAbort error of spec.md §7, raised by
// a PTB command and never by string-parsing a guest message.
type ErrMoveAbort struct {
	CommandIndex int
	Info         suitypes.MoveAbortInfo
}

func (e *ErrMoveAbort) Error() string {
	return fmt.Sprintf("ptb: move abort at command %d: module=%s function=%s code=%d/%d",
		e.CommandIndex, e.Info.ModuleName, e.Info.FunctionName, e.Info.MajorStatus, e.Info.SubStatus)
}

// execSplitCoins splits a source coin into len(Amounts) fresh coin
// objects, checking the sum against the source balance up front
// (spec.md §4.6).
func (e *Executor) execSplitCoins(cmdIdx int, cmd *suitypes.SplitCoinsCommand) ([]TypedValue, error) {
	source, err := e.resolveArgument(cmd.Source)
	if err != nil {
		return nil, err
	}
	if source.ObjectID == nil {
		return nil, fmt.Errorf("ptb: command %d: split-coins source is not an object", cmdIdx)
	}
	srcObj, err := e.store.GetChecked(*source.ObjectID)
	if err != nil {
		return nil, err
	}
	balance := decodeCoinBalance(srcObj.BCS)

	amounts := make([]uint64, len(cmd.Amounts))
	var total uint64
	for i, a := range cmd.Amounts {
		val, err := e.resolveArgument(a)
		if err != nil {
			return nil, err
		}
		amounts[i] = decodeU64(val.BCS)
		total += amounts[i]
	}
	if total > balance {
		return nil, &ErrInsufficientBalance{CommandIndex: cmdIdx, Available: balance, Asked: total}
	}

	srcObj.BCS = encodeCoinBalance(balance - total)
	if err := e.store.Put(srcObj); err != nil {
		return nil, err
	}

	out := make([]TypedValue, len(amounts))
	for i, amt := range amounts {
		newID := e.harness.Sim.FreshObjectID()
		coin := &suitypes.Object{
			ID:       newID,
			Version:  e.store.LamportTimestamp(),
			Owner:    suitypes.AddressOwner(e.harness.Sim.Context.Sender),
			Kind:     suitypes.KindMoveObject,
			Type:     srcObj.Type,
			BCS:      encodeCoinBalance(amt),
			HasStore: true,
		}
		if err := e.store.Put(coin); err != nil {
			return nil, err
		}
		id := newID
		out[i] = TypedValue{Type: srcObj.Type, BCS: coin.BCS, ObjectID: &id}
	}
	return out, nil
}

// execMergeCoins folds each source coin's balance into the destination
// and consumes the sources by value (spec.md §4.6). A source that was a
// transaction input is deleted, so it appears in the effects' deleted
// set; a source created earlier in this transaction is only consumed.
func (e *Executor) execMergeCoins(cmdIdx int, cmd *suitypes.MergeCoinsCommand) ([]TypedValue, error) {
	dest, err := e.resolveArgument(cmd.Destination)
	if err != nil {
		return nil, err
	}
	if dest.ObjectID == nil {
		return nil, fmt.Errorf("ptb: command %d: merge-coins destination is not an object", cmdIdx)
	}
	destObj, err := e.store.GetChecked(*dest.ObjectID)
	if err != nil {
		return nil, err
	}
	total := decodeCoinBalance(destObj.BCS)

	for _, src := range cmd.Sources {
		val, err := e.resolveArgument(src)
		if err != nil {
			return nil, err
		}
		if val.ObjectID == nil {
			return nil, fmt.Errorf("ptb: command %d: merge-coins source is not an object", cmdIdx)
		}
		srcObj, err := e.store.GetChecked(*val.ObjectID)
		if err != nil {
			return nil, err
		}
		total += decodeCoinBalance(srcObj.BCS)
		if _, wasInput := e.store.InputVersion(*val.ObjectID); wasInput {
			e.store.Delete(srcObj)
		} else {
			e.store.Consume(*val.ObjectID)
		}
	}

	destObj.BCS = encodeCoinBalance(total)
	if err := e.store.Put(destObj); err != nil {
		return nil, err
	}
	return nil, nil
}

// execTransferObjects re-parents each object to the recipient address,
// requiring the `store` capability per spec.md §4.6.
func (e *Executor) execTransferObjects(cmdIdx int, cmd *suitypes.TransferObjectsCommand) ([]TypedValue, error) {
	recipientVal, err := e.resolveArgument(cmd.Recipient)
	if err != nil {
		return nil, err
	}
	var recipient suitypes.Address
	copy(recipient[:], recipientVal.BCS)

	for _, objArg := range cmd.Objects {
		val, err := e.resolveArgument(objArg)
		if err != nil {
			return nil, err
		}
		if val.ObjectID == nil {
			return nil, fmt.Errorf("ptb: command %d: transfer-objects argument is not an object", cmdIdx)
		}
		obj, err := e.store.GetChecked(*val.ObjectID)
		if err != nil {
			return nil, err
		}
		if !obj.HasStore {
			return nil, &ErrMissingStoreCapability{CommandIndex: cmdIdx}
		}
		obj.Owner = suitypes.AddressOwner(recipient)
		if err := e.store.Put(obj); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// execMakeMoveVec builds a homogeneous vector literal, rejecting any
// element whose type does not exactly match the declared or inferred
// element type (spec.md §4.6).
func (e *Executor) execMakeMoveVec(cmdIdx int, cmd *suitypes.MakeMoveVecCommand) ([]TypedValue, error) {
	elems := make([]TypedValue, len(cmd.Elements))
	for i, a := range cmd.Elements {
		val, err := e.resolveArgument(a)
		if err != nil {
			return nil, err
		}
		elems[i] = val
	}

	var elemType suitypes.TypeTag
	if cmd.ElementType != nil {
		elemType = *cmd.ElementType
	} else if len(elems) > 0 {
		elemType = elems[0].Type
	}
	for i, el := range elems {
		if el.Type.String() != elemType.String() {
			return nil, &ErrPTBInvalid{CommandIndex: cmdIdx, Violation: ViolationArgumentArity, Detail: fmt.Sprintf("make-move-vec element %d type %s does not match vector element type %s", i, el.Type, elemType)}
		}
	}

	var buf []byte
	lenPrefix := make([]byte, 0, 10)
	lenPrefix = appendUvarint(lenPrefix, uint64(len(elems)))
	buf = append(buf, lenPrefix...)
	for _, el := range elems {
		buf = append(buf, el.BCS...)
	}

	vecType := suitypes.TypeTag{Kind: suitypes.TypeTagVector, VectorElem: &elemType}
	return []TypedValue{{Type: vecType, BCS: buf}}, nil
}

// execPublish loads a brand-new package's modules at a freshly derived
// address (spec.md §4.6).
func (e *Executor) execPublish(cmdIdx int, cmd *suitypes.PublishCommand) ([]TypedValue, error) {
	addr := e.harness.Sim.FreshObjectID()
	modules := make(map[string][]byte, len(cmd.Modules))
	for i, m := range cmd.Modules {
		modules[fmt.Sprintf("module_%d", i)] = m
	}
	if err := e.res.LoadModulesAt(addr, modules, nil); err != nil {
		return nil, fmt.Errorf("ptb: command %d: %w", cmdIdx, err)
	}
	pkgObj := &suitypes.Object{
		ID:     addr,
		Kind:   suitypes.KindPackage,
		Owner:  suitypes.ImmutableOwner(),
		Frozen: true,
	}
	// A freshly published package is primed directly rather than routed
	// through Put: Put rejects every immutable-owned or frozen object,
	// which would reject this very first write.
	e.store.Prime(pkgObj)

	upgradeCapType := suitypes.TypeTag{Kind: suitypes.TypeTagStruct, StructTag: &suitypes.StructTag{
		Address: suitypes.SuiFrameworkAddress, Module: "package", Name: "UpgradeCap",
	}}
	capID := e.harness.Sim.FreshObjectID()
	return []TypedValue{{Type: upgradeCapType, BCS: capID[:], ObjectID: &capID}}, nil
}

// execUpgrade replaces a package's bytecode at its existing runtime
// address, the one case where the resolver intentionally permits
// non-idempotent replacement (spec.md §4.1, §4.6).
func (e *Executor) execUpgrade(cmdIdx int, cmd *suitypes.UpgradeCommand) ([]TypedValue, error) {
	if _, err := e.resolveArgument(cmd.Ticket); err != nil {
		return nil, err
	}
	modules := make(map[string][]byte, len(cmd.Modules))
	for i, m := range cmd.Modules {
		modules[fmt.Sprintf("module_%d", i)] = m
	}
	if err := e.res.ReplaceModulesAt(cmd.PackageID, modules, nil); err != nil {
		return nil, fmt.Errorf("ptb: command %d: %w", cmdIdx, err)
	}

	receiptType := suitypes.TypeTag{Kind: suitypes.TypeTagStruct, StructTag: &suitypes.StructTag{
		Address: suitypes.SuiFrameworkAddress, Module: "package", Name: "UpgradeReceipt",
	}}
	return []TypedValue{{Type: receiptType, BCS: cmd.PackageID[:]}}, nil
}

// execReceive resolves a receiving object transferred directly to
// another object's address, requiring the parent to already exist
// (spec.md §4.6).
func (e *Executor) execReceive(cmdIdx int, cmd *suitypes.ReceiveCommand) ([]TypedValue, error) {
	parentVal, err := e.resolveArgument(cmd.Parent)
	if err != nil {
		return nil, err
	}
	if parentVal.ObjectID == nil {
		return nil, fmt.Errorf("ptb: command %d: receive parent is not an object", cmdIdx)
	}
	if _, err := e.store.GetChecked(*parentVal.ObjectID); err != nil {
		return nil, fmt.Errorf("ptb: command %d: receive parent does not exist: %w", cmdIdx, err)
	}

	objVal, err := e.resolveArgument(cmd.Object)
	if err != nil {
		return nil, err
	}
	return []TypedValue{objVal}, nil
}

func decodeU64(b []byte) uint64 {
	if len(b) < 8 {
		var pad [8]byte
		copy(pad[:], b)
		return binary.LittleEndian.Uint64(pad[:])
	}
	return binary.LittleEndian.Uint64(b)
}

func decodeCoinBalance(objBCS []byte) uint64 {
	if len(objBCS) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(objBCS[len(objBCS)-8:])
}

func encodeCoinBalance(balance uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, balance)
	return out
}

func appendUvarint(buf []byte, n uint64) []byte {
	for n >= 0x80 {
		buf = append(buf, byte(n)|0x80)
		n >>= 7
	}
	return append(buf, byte(n))
}
