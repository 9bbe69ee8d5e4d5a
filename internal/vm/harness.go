// Package vm implements the VM Harness (spec.md §4.7, C7): it wraps a
// WASM-hosted Move VM guest via wazero, supplies native function
// implementations as host functions, meters gas, captures structured
// aborts, and drives the replay clock.
//
// The guest itself — a Move bytecode interpreter compiled to WASM — is
// injected via MoveVMGuest so a real compiled interpreter can be dropped
// in at this ABI; this package owns everything around it: natives, gas,
// clock, tx context, and error capture.
package vm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

// MoveVMGuest is the minimal surface the harness needs from a compiled
// Move VM WASM module (spec.md §4.7). *Guest implements it directly;
// tests substitute a fake.
type MoveVMGuest interface {
	LoadModule(address [32]byte, name string, compiled []byte) error
	CallFunction(req CallRequest) (*CallResult, error)
}

// Harness ties together one replay's clock, gas meter, natives, events,
// and tx context around a guest Move VM.
type Harness struct {
	Guest   MoveVMGuest
	Clock   *Clock
	Meter   *Meter
	Sim     *SimulatedState
	Real    RealNatives
	Mocked  *MockedNatives
	log     *logrus.Entry
}

// Config bundles the per-replay parameters the orchestrator supplies
// when configuring C7 (spec.md §4.9 step 8: "sender, timestamp, epoch,
// protocol version").
type Config struct {
	Sender          suitypes.Address
	Digest          suitypes.Digest
	Epoch           uint64
	TimestampMs     uint64
	ProtocolVersion uint64
	GasBudget       uint64
	MeterGas        bool
	RandomSeed      int64
}

// NewHarness builds a harness for a freshly instantiated guest module.
func NewHarness(guest MoveVMGuest, cfg Config, log *logrus.Entry) *Harness {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	tc := &TxContext{Sender: cfg.Sender, Digest: cfg.Digest, Epoch: cfg.Epoch, TimestampMs: cfg.TimestampMs}
	return &Harness{
		Guest:  guest,
		Clock:  FrozenClock(cfg.TimestampMs),
		Meter:  NewMeter(DefaultGasSchedule(cfg.ProtocolVersion), cfg.GasBudget, cfg.MeterGas),
		Sim:    NewSimulatedState(tc),
		Mocked: NewMockedNatives(cfg.RandomSeed),
		log:    log.WithField("component", "vm"),
	}
}

// InstantiateGuestModule builds the wazero host module exposing five
// imports (Blake2b-256 and SHA3-256 hashing, Ed25519 verification, the
// clock timestamp, and fresh object ids), then instantiates the compiled
// guest WASM bytes against it. The other real and mocked natives are not
// exposed to the guest. This is the wazero-equivalent of
// the teacher's NewBuilder(ctx, mod): here the "mod" is the Move VM
// guest rather than the transaction-builder guest, but the
// alloc/dealloc/ExportedFunction driving pattern (guest.go) is
// unchanged.
func InstantiateGuestModule(ctx context.Context, runtime wazero.Runtime, guestWasm []byte, h *Harness) (api.Module, error) {
	hostBuilder := runtime.NewHostModuleBuilder("sui_natives")

	hostBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, dataPtr, dataLen uint32) uint64 {
			data, _ := m.Memory().Read(dataPtr, dataLen)
			sum := h.Real.HashBlake2b256(data)
			return writeDigestResult(ctx, m, sum[:])
		}).Export("native_hash_blake2b256")

	hostBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, dataPtr, dataLen uint32) uint64 {
			data, _ := m.Memory().Read(dataPtr, dataLen)
			sum := h.Real.HashSHA3_256(data)
			return writeDigestResult(ctx, m, sum[:])
		}).Export("native_hash_sha3_256")

	hostBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, sigPtr, sigLen, msgPtr, msgLen, pkPtr, pkLen uint32) uint32 {
			sig, _ := m.Memory().Read(sigPtr, sigLen)
			msg, _ := m.Memory().Read(msgPtr, msgLen)
			pk, _ := m.Memory().Read(pkPtr, pkLen)
			if h.Real.Ed25519Verify(sig, msg, pk) {
				return 1
			}
			return 0
		}).Export("native_ed25519_verify")

	hostBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module) uint64 {
			return h.Clock.MillisTimestamp()
		}).Export("native_clock_timestamp_ms")

	hostBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, addrLen, objTypePtr, objTypeLen uint32) uint64 {
			id := h.Sim.FreshObjectID()
			return writeDigestResult(ctx, m, id[:])
		}).Export("native_fresh_object_id")

	hostModule, err := hostBuilder.Instantiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("vm: instantiating native host module: %w", err)
	}
	_ = hostModule

	mod, err := runtime.InstantiateWithConfig(ctx, guestWasm,
		wazero.NewModuleConfig().WithName("move_vm_guest"))
	if err != nil {
		return nil, fmt.Errorf("vm: instantiating guest module: %w", err)
	}
	return mod, nil
}

// writeDigestResult allocates guest memory for a fixed digest-sized
// result and writes it, returning the pointer — used by the simpler
// fixed-size-output natives above. Larger/variable natives go through
// Guest.CallFunction's JSON-in/BCS-out path instead.
func writeDigestResult(ctx context.Context, m api.Module, data []byte) uint64 {
	allocFn := m.ExportedFunction("alloc")
	if allocFn == nil {
		return 0
	}
	res, err := allocFn.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0
	}
	ptr := res[0]
	m.Memory().Write(uint32(ptr), data)
	return ptr
}

// AbortToStructured converts a raw CallResult abort into the structured
// MoveAbortInfo spec.md §4.6/§7 requires — no message-string parsing.
func AbortToStructured(result *CallResult, module suitypes.Address, moduleName, functionName string) *suitypes.MoveAbortInfo {
	return &suitypes.MoveAbortInfo{
		MajorStatus:       result.AbortMajor,
		SubStatus:         result.AbortSub,
		Module:            module,
		ModuleName:        moduleName,
		FunctionName:      functionName,
		FunctionIndex:     result.AbortFunction,
		InstructionOffset: result.AbortOffset,
	}
}
