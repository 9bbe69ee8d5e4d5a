package replay

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero"

	"github.com/sui-sandbox/replay/internal/dynamicfield"
	"github.com/sui-sandbox/replay/internal/effects"
	"github.com/sui-sandbox/replay/internal/historical"
	"github.com/sui-sandbox/replay/internal/linkage"
	"github.com/sui-sandbox/replay/internal/objectstore"
	"github.com/sui-sandbox/replay/internal/ptb"
	"github.com/sui-sandbox/replay/internal/resolver"
	"github.com/sui-sandbox/replay/internal/suitypes"
	"github.com/sui-sandbox/replay/internal/vm"
	"github.com/sui-sandbox/replay/internal/xlog"
)

// Replay drives the single replay API operation of spec.md §6:
// `replay(digest, options) → envelope`, sequencing every component per
// spec.md §4.9's ten steps.
//
// Every call gets a fresh correlation ID so its whole log trail — across
// C1-C9 — can be grepped out of a shared log stream even when many
// replays run concurrently.
func Replay(ctx context.Context, digest string, opts Options, deps Deps) (Envelope, error) {
	correlationID := uuid.NewString()
	log := xlog.ForReplay(deps.baseLogger(), digest, correlationID).WithField("component", "replay")
	path := ExecutionPath{RequestedSource: opts.Source, EffectiveSource: opts.Source}

	var (
		tx       *suitypes.TransactionRecord
		store    *objectstore.Store
		packages map[suitypes.Address]*suitypes.Package
		err      error
	)

	switch opts.Source {
	case SourceLocal:
		if opts.StateFile == "" {
			return Envelope{}, &ErrNoStateFile{}
		}
		tx, store, packages, err = ImportState(opts.StateFile)
		if err != nil {
			return Envelope{}, err
		}
	case SourceArchive, SourceGRPCHybrid:
		tx, store, packages, path, err = hydrate(ctx, digest, opts, deps, path, log)
		if err != nil {
			return Envelope{}, err
		}
	default:
		return Envelope{}, fmt.Errorf("replay: unknown source %q", opts.Source)
	}

	path.DependencyPackagesFetched = len(packages)

	aliases := linkage.NewBuilder()
	for _, pkg := range packages {
		if err := aliases.AddPackage(pkg); err != nil {
			return Envelope{}, err
		}
	}
	aliases.Freeze()

	res := resolver.New(log)
	res.SetAliases(aliases.Aliases())
	if err := res.PreloadFramework(); err != nil {
		return Envelope{}, err
	}
	if err := primeResolver(ctx, res, packages, deps.Signatures, tx); err != nil {
		return Envelope{}, err
	}

	dfield := dynamicfield.New(store, aliases, nil)
	if deps.Provider != nil && opts.SelfHealDynamicFields {
		// Dynamic-field children are rarely named in the transaction's own
		// input set, so their exact version is unknown here. With version
		// 0 the gRPC archive returns its latest version of the object; the
		// checkpoint archive matches exact versions only and misses.
		dfield.SetFetcher(func(childID suitypes.ObjectID) (*suitypes.Object, error) {
			return deps.Provider.FetchObjectAtVersion(ctx, childID, 0, opts.Checkpoint)
		})
	}

	analysis := &Analysis{InputObjectCount: len(store.All()), PackageCount: len(packages)}

	envelope := Envelope{ExecutionPath: path, Analysis: analysis}
	if opts.AnalyzeOnly {
		return envelope, nil
	}

	harness, err := configureHarness(ctx, deps, tx, log)
	if err != nil {
		return Envelope{}, err
	}

	inputObjects := make([]*suitypes.ObjectID, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if in.Kind == suitypes.InputObjectRef {
			id := in.ObjectID
			inputObjects[i] = &id
		}
	}
	var gasCoinID suitypes.ObjectID
	for _, gp := range tx.GasPayment {
		gasCoinID = gp.ObjectID
		break
	}

	executor := ptb.NewExecutor(store, res, dfield, aliases, harness, tx.Inputs, inputObjects, gasCoinID, log)
	outcome, err := executor.Execute(tx.Commands)
	if err != nil {
		if _, ok := err.(*ptb.ErrPTBInvalid); ok {
			envelope.LocalSuccess = false
			return envelope, nil
		}
		return Envelope{}, err
	}
	analysis.DynamicFieldStats = dfield.Stats()

	envelope.CommandsExecuted = len(outcome.Results)
	envelope.LocalSuccess = outcome.Status.Success
	envelope.Abort = outcome.Status.Abort

	if outcome.Status.Success {
		built := effects.Build(store, outcome.Status)
		envelope.Effects = &built
		if opts.Compare {
			cmp := effects.Compare(built, tx.Effects)
			envelope.Comparison = &cmp
		}
	}

	return envelope, nil
}

// hydrate implements spec.md §4.9 steps (1)-(4): fetch the transaction,
// compute the union of versions that must be fetched exactly, fetch them
// via C2, and fetch the transitive package closure for every package the
// commands reference.
func hydrate(ctx context.Context, digest string, opts Options, deps Deps, path ExecutionPath, log *logrus.Entry) (*suitypes.TransactionRecord, *objectstore.Store, map[suitypes.Address]*suitypes.Package, ExecutionPath, error) {
	if deps.Provider == nil {
		return nil, nil, nil, path, fmt.Errorf("replay: no historical provider configured for source %q", opts.Source)
	}

	tx, err := deps.Provider.FetchTransaction(ctx, digest)
	if err != nil {
		return nil, nil, nil, path, err
	}

	requests := make(map[suitypes.ObjectID]uint64)
	for _, in := range tx.Inputs {
		if in.Kind == suitypes.InputObjectRef {
			requests[in.ObjectID] = in.Version
		}
	}
	for id, v := range tx.Effects.UnchangedLoadedRuntimeObjects {
		requests[id] = v
	}

	store := objectstore.New()
	syntheticCount := 0

	objects, fetchErr := deps.Provider.FetchObjectsAtVersions(ctx, requests, tx.Checkpoint)
	if fetchErr != nil {
		var gap *historical.ErrDataGap
		if !isDataGap(fetchErr, &gap) || opts.VMOnly || !opts.SynthesizeMissing {
			return nil, nil, nil, path, fetchErr
		}
		path.FallbackUsed = true
		objects = make(map[suitypes.ObjectID]*suitypes.Object)
		for id, version := range requests {
			obj, err := deps.Provider.FetchObjectAtVersion(ctx, id, version, tx.Checkpoint)
			if err != nil {
				obj = synthesizePlaceholder(id, version)
				syntheticCount++
			}
			objects[id] = obj
		}
	}
	for _, obj := range objects {
		store.Prime(obj)
	}

	packages := make(map[suitypes.Address]*suitypes.Package)
	for _, root := range packageRoots(tx.Commands) {
		closure, err := deps.Provider.FetchPackageClosure(ctx, root, tx.Checkpoint)
		if err != nil {
			if opts.VMOnly {
				return nil, nil, nil, path, err
			}
			continue
		}
		for addr, pkg := range closure {
			packages[addr] = pkg
		}
	}

	path.SyntheticInputCount = syntheticCount
	return tx, store, packages, path, nil
}

// synthesizePlaceholder substitutes empty-but-well-formed object bytes
// for an unavailable input, per spec.md §6 "synthesize_missing" —
// execution proceeds but will typically diverge from recorded effects,
// which the comparison stage (C8) surfaces rather than hides.
func synthesizePlaceholder(id suitypes.ObjectID, version uint64) *suitypes.Object {
	return &suitypes.Object{
		ID:      id,
		Version: version,
		Owner:   suitypes.AddressOwner(suitypes.Address{}),
		BCS:     make([]byte, 32),
	}
}

func isDataGap(err error, target **historical.ErrDataGap) bool {
	if gap, ok := err.(*historical.ErrDataGap); ok {
		*target = gap
		return true
	}
	return false
}

// packageRoots collects every package address a transaction's commands
// reference directly, the starting points for C2's transitive closure
// fetch (spec.md §4.9 step 4).
func packageRoots(commands []suitypes.Command) []suitypes.Address {
	seen := make(map[suitypes.Address]bool)
	var out []suitypes.Address
	add := func(addr suitypes.Address) {
		if !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}
	for _, cmd := range commands {
		switch cmd.Kind {
		case suitypes.CommandMoveCall:
			add(cmd.MoveCall.Package)
		case suitypes.CommandUpgrade:
			add(cmd.Upgrade.PackageID)
			for _, d := range cmd.Upgrade.Dependencies {
				add(d)
			}
		case suitypes.CommandPublish:
			for _, d := range cmd.Publish.Dependencies {
				add(d)
			}
		}
	}
	return out
}

// primeResolver installs every fetched package's modules into C1,
// resolving each referenced move-call function's normalized signature
// through the configured SignatureSource first (spec.md §4.1, §4.9
// step 6).
func primeResolver(ctx context.Context, res *resolver.Resolver, packages map[suitypes.Address]*suitypes.Package, sigSrc SignatureSource, tx *suitypes.TransactionRecord) error {
	signaturesByPackage := make(map[suitypes.Address]map[string]map[string]resolver.FunctionSignature)
	if sigSrc != nil {
		for _, cmd := range tx.Commands {
			if cmd.Kind != suitypes.CommandMoveCall {
				continue
			}
			call := cmd.MoveCall
			sig, err := sigSrc(ctx, call.Package, call.Module, call.Function)
			if err != nil {
				continue // best-effort: C1's own FunctionSignature lookup surfaces the real error at call time
			}
			byModule, ok := signaturesByPackage[call.Package]
			if !ok {
				byModule = make(map[string]map[string]resolver.FunctionSignature)
				signaturesByPackage[call.Package] = byModule
			}
			byFunc, ok := byModule[call.Module]
			if !ok {
				byFunc = make(map[string]resolver.FunctionSignature)
				byModule[call.Module] = byFunc
			}
			byFunc[call.Function] = sig
		}
	}

	for addr, pkg := range packages {
		if err := res.LoadModulesAt(addr, pkg.Modules, signaturesByPackage[addr]); err != nil {
			return err
		}
	}
	return nil
}

// configureHarness builds the VM Harness for one replay (spec.md §4.9
// step 8: "sender, timestamp, epoch, protocol version") and instantiates
// the guest through the caller-supplied factory.
func configureHarness(ctx context.Context, deps Deps, tx *suitypes.TransactionRecord, log *logrus.Entry) (*vm.Harness, error) {
	cfg := vm.Config{
		Sender:          tx.Sender,
		Digest:          tx.Digest,
		Epoch:           tx.Epoch,
		TimestampMs:     tx.TimestampMs,
		ProtocolVersion: tx.ProtocolVersion,
		GasBudget:       tx.GasBudget,
		MeterGas:        true,
	}
	h := vm.NewHarness(nil, cfg, log)
	factory := deps.Guest
	if factory == nil && len(deps.GuestWasm) > 0 {
		factory = defaultGuestFactory(deps.GuestWasm)
	}
	if factory != nil {
		guest, err := factory(ctx, deps.Runtime, h)
		if err != nil {
			return nil, fmt.Errorf("replay: instantiating VM guest: %w", err)
		}
		h.Guest = guest
	}
	return h, nil
}

// defaultGuestFactory is the production C7 wiring (spec.md §4.7): it
// instantiates the wazero host module built by vm.InstantiateGuestModule
// (five native imports) and drops the compiled guest bytes in against it, then wraps the
// result as a vm.Guest. Used only when the caller supplies guest WASM
// bytes but no Guest factory override of its own.
func defaultGuestFactory(guestWasm []byte) GuestFactory {
	return func(ctx context.Context, runtime wazero.Runtime, h *vm.Harness) (vm.MoveVMGuest, error) {
		if runtime == nil {
			return nil, fmt.Errorf("replay: GuestWasm supplied but no wazero Runtime configured")
		}
		mod, err := vm.InstantiateGuestModule(ctx, runtime, guestWasm, h)
		if err != nil {
			return nil, err
		}
		return vm.NewGuest(ctx, mod), nil
	}
}
