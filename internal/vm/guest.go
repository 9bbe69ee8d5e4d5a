package vm

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// Guest wraps a wazero-instantiated WASM module implementing the Move
// VM, using the same alloc/dealloc/call ABI the teacher's transaction
// builder already drives (spec.md §4.7, §9 "keep HOW, replace WHAT").
// A conforming guest exports: alloc(size) ptr, dealloc(ptr, size),
// load_module(pkgPtr, pkgSize) code, call_function(reqPtr, reqSize)
// resultPtr, free_bytes(ptr, size).
type Guest struct {
	ctx context.Context
	mod api.Module
}

func NewGuest(ctx context.Context, mod api.Module) *Guest {
	return &Guest{ctx: ctx, mod: mod}
}

func (g *Guest) writeBytes(data []byte) (ptr, size uint64) {
	if len(data) == 0 {
		return 0, 0
	}
	res, err := g.mod.ExportedFunction("alloc").Call(g.ctx, uint64(len(data)))
	if err != nil {
		panic(fmt.Sprintf("vm guest alloc: %v", err))
	}
	ptr = res[0]
	if !g.mod.Memory().Write(uint32(ptr), data) {
		panic("vm guest: Memory.Write failed")
	}
	return ptr, uint64(len(data))
}

func (g *Guest) freeBytes(ptr, size uint64) {
	if ptr == 0 {
		return
	}
	g.mod.ExportedFunction("dealloc").Call(g.ctx, ptr, size) //nolint:errcheck
}

func (g *Guest) readLengthPrefixed(resPtr uint32) ([]byte, error) {
	lenBytes, ok := g.mod.Memory().Read(resPtr, 4)
	if !ok {
		return nil, fmt.Errorf("vm guest: failed to read length prefix")
	}
	dataLen := binary.LittleEndian.Uint32(lenBytes)
	data, ok := g.mod.Memory().Read(resPtr+4, dataLen)
	if !ok {
		return nil, fmt.Errorf("vm guest: failed to read payload")
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// LoadModule installs one compiled module's bytes into the guest's
// internal linker state, returning a link-layer status code.
func (g *Guest) LoadModule(address [32]byte, name string, compiled []byte) error {
	payload, _ := json.Marshal(map[string]any{
		"address": fmt.Sprintf("0x%x", address),
		"name":    name,
		"bytes":   compiled,
	})
	ptr, size := g.writeBytes(payload)
	defer g.freeBytes(ptr, size)
	res, err := g.mod.ExportedFunction("load_module").Call(g.ctx, ptr, size)
	if err != nil {
		return fmt.Errorf("vm guest load_module: %w", err)
	}
	if int32(res[0]) != 1 {
		return fmt.Errorf("vm guest load_module: guest rejected module %s::%s (code %d)", fmt.Sprintf("0x%x", address), name, int32(res[0]))
	}
	return nil
}

// CallRequest is the JSON payload sent to the guest's call_function
// export. Arguments and the result are BCS-encoded byte strings; the
// guest has no notion of Go types, only bytes plus a type-tag string it
// echoes back for each return value so the host never has to guess
// layout from raw bytes (spec.md §4.6 "Object id inference ... must read
// a typed value").
type CallRequest struct {
	Address     string   `json:"address"`
	Module      string   `json:"module"`
	Function    string   `json:"function"`
	TypeArgs    []string `json:"type_args"`
	Arguments   [][]byte `json:"arguments"`
	MutableRefs []int    `json:"mutable_refs"` // indices of arguments taken by mutable reference
	TxContext   []byte   `json:"tx_context,omitempty"`
}

// CallResult is the JSON payload the guest returns.
type CallResult struct {
	Success       bool     `json:"success"`
	Returns       [][]byte `json:"returns"`
	ReturnTypes   []string `json:"return_types"`
	UpdatedRefs   [][]byte `json:"updated_refs"` // parallel to MutableRefs
	Events        [][]byte `json:"events"`
	AbortMajor    uint64   `json:"abort_major"`
	AbortSub      uint64   `json:"abort_sub"`
	AbortFunction uint16   `json:"abort_function"`
	AbortOffset   uint16   `json:"abort_offset"`
}

// CallFunction invokes an entry/public Move function in the guest.
func (g *Guest) CallFunction(req CallRequest) (*CallResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	ptr, size := g.writeBytes(payload)
	defer g.freeBytes(ptr, size)

	res, err := g.mod.ExportedFunction("call_function").Call(g.ctx, ptr, size)
	if err != nil {
		return nil, fmt.Errorf("vm guest call_function: %w", err)
	}
	resPtr := uint32(res[0])
	if resPtr == 0 {
		return nil, fmt.Errorf("vm guest call_function: guest returned null result")
	}
	raw, err := g.readLengthPrefixed(resPtr)
	g.mod.ExportedFunction("free_bytes").Call(g.ctx, uint64(resPtr), 0) //nolint:errcheck
	if err != nil {
		return nil, err
	}
	var out CallResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("vm guest call_function: malformed result json: %w", err)
	}
	return &out, nil
}
