package replay

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero"

	"github.com/sui-sandbox/replay/internal/historical"
	"github.com/sui-sandbox/replay/internal/resolver"
	"github.com/sui-sandbox/replay/internal/suitypes"
	"github.com/sui-sandbox/replay/internal/vm"
)

// SignatureSource resolves a function's normalized signature so C1 can
// be primed before execution (spec.md §4.1); grpcarchive.Client's
// FetchFunctionSignature is the production implementation.
type SignatureSource func(ctx context.Context, packageID suitypes.Address, module, function string) (resolver.FunctionSignature, error)

// GuestFactory produces a freshly instantiated Move VM guest for one
// replay (spec.md §4.7 "the guest is injected ... so a real compiled
// interpreter can be dropped in at this ABI").
type GuestFactory func(ctx context.Context, runtime wazero.Runtime, h *vm.Harness) (vm.MoveVMGuest, error)

// Deps bundles the collaborators the orchestrator needs but does not own
// the lifecycle of: the Historical State Provider, the signature source,
// the WASM runtime, and the guest factory.
type Deps struct {
	Provider   *historical.Provider
	Signatures SignatureSource
	Runtime    wazero.Runtime
	Guest      GuestFactory
	// GuestWasm is a compiled Move VM guest module's bytes. When Guest is
	// nil and GuestWasm is non-empty, configureHarness instantiates it
	// itself via vm.InstantiateGuestModule against Runtime, the default
	// C7 wiring (spec.md §4.7); Guest always takes priority, since tests
	// and callers with no real compiled guest substitute a fake there
	// instead.
	GuestWasm []byte
	Log       *logrus.Logger
}

func (d Deps) baseLogger() *logrus.Logger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}
