// Package linkage builds the two artifacts the Bytecode Resolver and
// Dynamic Field Engine need before execution can begin (spec.md §4.3,
// C3): the alias map (original self-address -> runtime storage address)
// and per-package linkage tables.
package linkage

import (
	"fmt"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

// ErrConflictingAlias is returned when two loaded packages declare the
// same original address but were fetched under different runtime
// addresses — aliases must be total, conflict-free functions
// (spec.md §4.3 invariant).
type ErrConflictingAlias struct {
	Original suitypes.Address
	First    suitypes.Address
	Second   suitypes.Address
}

func (e *ErrConflictingAlias) Error() string {
	return fmt.Sprintf("linkage: conflicting alias for %s: %s vs %s", e.Original, e.First, e.Second)
}

// Map is the frozen alias + per-package linkage state for one replay.
// Once Freeze is called, it must not be mutated again (spec.md §4.3
// "the map is frozen before the first command executes").
type Map struct {
	aliases map[suitypes.Address]suitypes.Address
	// linkage is keyed by the package's own runtime address, since a
	// package's linkage table is meaningful only in the context of that
	// specific package's dependencies.
	linkage map[suitypes.Address][]suitypes.LinkageEntry
	frozen  bool
}

// NewBuilder starts construction of a fresh alias/linkage map.
func NewBuilder() *Map {
	return &Map{
		aliases: make(map[suitypes.Address]suitypes.Address),
		linkage: make(map[suitypes.Address][]suitypes.LinkageEntry),
	}
}

// AddPackage scans one loaded package's declared original self-address
// against the on-chain id it was fetched under, recording an alias entry
// when they differ (i.e. the package is an upgrade), and records its
// linkage table verbatim (spec.md §4.3).
func (m *Map) AddPackage(pkg *suitypes.Package) error {
	if m.frozen {
		return fmt.Errorf("linkage: map already frozen")
	}
	if pkg.OriginalAddress != pkg.RuntimeAddress {
		if existing, ok := m.aliases[pkg.OriginalAddress]; ok && existing != pkg.RuntimeAddress {
			return &ErrConflictingAlias{Original: pkg.OriginalAddress, First: existing, Second: pkg.RuntimeAddress}
		}
		m.aliases[pkg.OriginalAddress] = pkg.RuntimeAddress
	}
	m.linkage[pkg.RuntimeAddress] = append([]suitypes.LinkageEntry(nil), pkg.Linkage...)
	return nil
}

// Freeze seals the map against further mutation. Must be called before
// the first PTB command executes (spec.md §4.3).
func (m *Map) Freeze() {
	m.frozen = true
}

// Resolve applies one alias-rewriting step: if addr is a known alias
// source (an original self-address), returns its runtime storage target;
// otherwise returns addr unchanged. Total on the set of loaded packages
// by construction (spec.md §4.3 invariant).
func (m *Map) Resolve(addr suitypes.Address) suitypes.Address {
	if target, ok := m.aliases[addr]; ok {
		return target
	}
	return addr
}

// Aliases returns the built alias map for installation into the
// Bytecode Resolver via Resolver.SetAliases.
func (m *Map) Aliases() map[suitypes.Address]suitypes.Address {
	out := make(map[suitypes.Address]suitypes.Address, len(m.aliases))
	for k, v := range m.aliases {
		out[k] = v
	}
	return out
}

// LinkageFor returns the dependency linkage table for a package loaded
// at runtimeAddress, as assembled from the transaction's dependent
// packages (spec.md §4.3).
func (m *Map) LinkageFor(runtimeAddress suitypes.Address) []suitypes.LinkageEntry {
	return m.linkage[runtimeAddress]
}

// RewriteStructTag rewrites a struct tag's defining address through the
// alias map — the step required before every dynamic-field id derivation
// (spec.md §3, §4.4) and before every module/type-tag lookup
// (spec.md §9 "Resolve via a single translation step").
func (m *Map) RewriteStructTag(tag suitypes.StructTag) suitypes.StructTag {
	out := tag.WithAddress(m.Resolve(tag.Address))
	if len(tag.TypeParams) > 0 {
		out.TypeParams = make([]suitypes.TypeTag, len(tag.TypeParams))
		for i, p := range tag.TypeParams {
			out.TypeParams[i] = m.rewriteTypeTag(p)
		}
	}
	return out
}

func (m *Map) rewriteTypeTag(t suitypes.TypeTag) suitypes.TypeTag {
	switch t.Kind {
	case suitypes.TypeTagStruct:
		rewritten := m.RewriteStructTag(*t.StructTag)
		return suitypes.TypeTag{Kind: suitypes.TypeTagStruct, StructTag: &rewritten}
	case suitypes.TypeTagVector:
		elem := m.rewriteTypeTag(*t.VectorElem)
		return suitypes.TypeTag{Kind: suitypes.TypeTagVector, VectorElem: &elem}
	default:
		return t
	}
}
