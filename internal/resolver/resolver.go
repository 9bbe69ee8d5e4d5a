// Package resolver implements the Bytecode Resolver (spec.md §4.1, C1):
// it owns loaded compiled modules keyed by runtime address, serves the
// VM's link queries, and applies address aliases before every lookup.
package resolver

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

// ErrModuleNotFound is returned by Resolve when no module matches, even
// after alias rewriting (spec.md §4.1 "linker error").
type ErrModuleNotFound struct {
	Address suitypes.Address
	Module  string
}

func (e *ErrModuleNotFound) Error() string {
	return fmt.Sprintf("resolver: module not found: %s::%s", e.Address, e.Module)
}

// ErrDuplicateLoad is returned when the same runtime address is loaded
// twice with differing module contents (spec.md §4.1 invariant ii).
type ErrDuplicateLoad struct {
	Address suitypes.Address
}

func (e *ErrDuplicateLoad) Error() string {
	return fmt.Sprintf("resolver: duplicate load at address %s with different contents", e.Address)
}

// ErrSignatureUnresolvable is returned by FunctionSignature on bad type
// parameter arity (spec.md §4.1).
type ErrSignatureUnresolvable struct {
	Address  suitypes.Address
	Module   string
	Function string
	Reason   string
}

func (e *ErrSignatureUnresolvable) Error() string {
	return fmt.Sprintf("resolver: signature unresolvable for %s::%s::%s: %s", e.Address, e.Module, e.Function, e.Reason)
}

// loadedModule is the compiled bytes for a module plus the signatures
// the resolver has pre-extracted from it so C6/C4 can type-check and
// type-tag without re-parsing bytecode on every lookup.
type loadedModule struct {
	bytes     []byte
	functions map[string]FunctionSignature
}

// FunctionSignature is the parameter/return type shape of one Move
// function, with type parameters left as placeholders until substituted
// by the caller's type arguments (spec.md §4.1).
type FunctionSignature struct {
	TypeParamCount int
	Parameters     []ParamType
	Returns        []suitypes.TypeTag
	IsEntry        bool
	IsPublic       bool
}

// ParamType describes one parameter: its type (possibly a type-parameter
// placeholder, TypeParamIndex >= 0) and whether it is taken by mutable
// reference.
type ParamType struct {
	Type           suitypes.TypeTag
	TypeParamIndex int // -1 unless this parameter is a bare type parameter
	ByMutableRef   bool
	ByImmutableRef bool
	IsTxContext    bool // the harness-injected trailing context parameter
}

// Resolver owns the set of loaded packages for one replay (or, read-only
// after priming, shared read-only across replays per spec.md §5).
type Resolver struct {
	mu sync.RWMutex
	// modules is keyed by (runtime address, module name). A module
	// loaded under its original address (no upgrade) and its runtime
	// address (if different) both key into the same loadedModule via
	// aliasing at lookup time, not at storage time.
	modules map[suitypes.Address]map[string]*loadedModule
	// aliases maps an original self-address to the runtime storage
	// address currently resolvable for it (frozen before execution by
	// internal/linkage; resolver only ever reads it).
	aliases map[suitypes.Address]suitypes.Address
	log     *logrus.Entry
}

func New(log *logrus.Entry) *Resolver {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Resolver{
		modules: make(map[suitypes.Address]map[string]*loadedModule),
		aliases: make(map[suitypes.Address]suitypes.Address),
		log:     log.WithField("component", "resolver"),
	}
}

// SetAliases installs the alias map built by internal/linkage. Must be
// called once, before the first LoadModulesAt or Resolve call that
// depends on it.
func (r *Resolver) SetAliases(aliases map[suitypes.Address]suitypes.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases = aliases
}

// LoadModulesAt installs a package's modules under a chosen runtime
// address (spec.md §4.1). Idempotent if module contents match; an error
// otherwise (invariant ii).
func (r *Resolver) LoadModulesAt(runtimeAddress suitypes.Address, modules map[string][]byte, signatures map[string]map[string]FunctionSignature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.modules[runtimeAddress]
	if ok {
		if len(existing) != len(modules) {
			return &ErrDuplicateLoad{Address: runtimeAddress}
		}
		for name, data := range modules {
			lm, found := existing[name]
			if !found || !bytes.Equal(lm.bytes, data) {
				return &ErrDuplicateLoad{Address: runtimeAddress}
			}
		}
		r.log.WithField("address", runtimeAddress.String()).Debug("idempotent reload, modules match")
		return nil
	}

	loaded := make(map[string]*loadedModule, len(modules))
	for name, data := range modules {
		loaded[name] = &loadedModule{
			bytes:     data,
			functions: signatures[name],
		}
	}
	r.modules[runtimeAddress] = loaded
	r.log.WithFields(logrus.Fields{"address": runtimeAddress.String(), "modules": len(modules)}).Info("loaded package")
	return nil
}

// ReplaceModulesAt overwrites the modules installed at runtimeAddress
// unconditionally — the one case where the resolver intentionally
// departs from LoadModulesAt's idempotent-or-error rule, used by the PTB
// Executor's Upgrade command to install new bytecode at a package's
// existing storage address (spec.md §4.1, §4.6).
func (r *Resolver) ReplaceModulesAt(runtimeAddress suitypes.Address, modules map[string][]byte, signatures map[string]map[string]FunctionSignature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loaded := make(map[string]*loadedModule, len(modules))
	for name, data := range modules {
		loaded[name] = &loadedModule{
			bytes:     data,
			functions: signatures[name],
		}
	}
	r.modules[runtimeAddress] = loaded
	r.log.WithFields(logrus.Fields{"address": runtimeAddress.String(), "modules": len(modules)}).Info("replaced package modules on upgrade")
	return nil
}

// resolveAddress applies one alias-rewriting step: if addr is a known
// alias source, return its target; otherwise return addr unchanged.
func (r *Resolver) resolveAddress(addr suitypes.Address) suitypes.Address {
	if target, ok := r.aliases[addr]; ok {
		return target
	}
	return addr
}

// Resolve returns the compiled bytes for (address, module), rewriting
// address through the alias map first (spec.md §4.1).
func (r *Resolver) Resolve(address suitypes.Address, module string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target := r.resolveAddress(address)
	pkg, ok := r.modules[target]
	if !ok {
		return nil, &ErrModuleNotFound{Address: address, Module: module}
	}
	lm, ok := pkg[module]
	if !ok {
		return nil, &ErrModuleNotFound{Address: address, Module: module}
	}
	return lm.bytes, nil
}

// FunctionSignature returns the parameter/return types for a function,
// resolved against its module's signature table (spec.md §4.1).
func (r *Resolver) FunctionSignature(address suitypes.Address, module, function string) (FunctionSignature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target := r.resolveAddress(address)
	pkg, ok := r.modules[target]
	if !ok {
		return FunctionSignature{}, &ErrModuleNotFound{Address: address, Module: module}
	}
	lm, ok := pkg[module]
	if !ok {
		return FunctionSignature{}, &ErrModuleNotFound{Address: address, Module: module}
	}
	sig, ok := lm.functions[function]
	if !ok {
		return FunctionSignature{}, &ErrSignatureUnresolvable{Address: address, Module: module, Function: function, Reason: "function not found"}
	}
	return sig, nil
}

// Substitute applies concrete type arguments to a signature's type
// parameter placeholders, checking arity first (spec.md §4.6 "type
// argument count matches the function's type-parameter count").
func Substitute(sig FunctionSignature, typeArgs []suitypes.TypeTag) ([]ParamType, []suitypes.TypeTag, error) {
	if len(typeArgs) != sig.TypeParamCount {
		return nil, nil, fmt.Errorf("resolver: type argument count mismatch: got %d, want %d", len(typeArgs), sig.TypeParamCount)
	}
	params := make([]ParamType, len(sig.Parameters))
	for i, p := range sig.Parameters {
		params[i] = p
		if p.TypeParamIndex >= 0 {
			if p.TypeParamIndex >= len(typeArgs) {
				return nil, nil, fmt.Errorf("resolver: type parameter index %d out of range", p.TypeParamIndex)
			}
			params[i].Type = typeArgs[p.TypeParamIndex]
		}
	}
	returns := make([]suitypes.TypeTag, len(sig.Returns))
	copy(returns, sig.Returns)
	return params, returns, nil
}

// IsLoaded reports whether any package is installed at runtimeAddress.
func (r *Resolver) IsLoaded(runtimeAddress suitypes.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[runtimeAddress]
	return ok
}
