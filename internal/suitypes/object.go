package suitypes

// ObjectKind distinguishes Move objects (user data) from Packages
// (compiled code), per spec.md §3.
type ObjectKind uint8

const (
	KindMoveObject ObjectKind = iota
	KindPackage
)

// Object is the unit of chain state, per spec.md §3.
type Object struct {
	ID      ObjectID
	Version uint64 // lamport counter
	Owner   Owner
	Kind    ObjectKind
	Type    StructTag // meaningless (zero value) for KindPackage
	BCS     []byte    // canonical serialization of the object's contents
	Digest  Digest

	// Flags tracked only in-memory during one replay (spec.md §4.5); the
	// zero value is correct for an object as freshly hydrated from a
	// historical source.
	Modified            bool
	Wrapped             bool
	Frozen              bool
	SharedLockedMutable bool

	// HasStore reports whether the object's type has the Move `store`
	// ability, required for TransferObjects (spec.md §4.6). Defaults to
	// true for ordinary Move objects fetched from historical state;
	// callers that know better (e.g. a type with no `store` ability)
	// set it false explicitly.
	HasStore bool
}

// Clone returns a deep copy safe to mutate independently of the original.
func (o *Object) Clone() *Object {
	cp := *o
	cp.BCS = append([]byte(nil), o.BCS...)
	cp.Type.TypeParams = append([]TypeTag(nil), o.Type.TypeParams...)
	return &cp
}

// LinkageEntry maps one original package address to the specific
// (storage address, version) pair a dependent package resolves it to
// (spec.md §3, §4.3).
type LinkageEntry struct {
	OriginalAddress Address
	StorageAddress  Address
	Version         uint64
}

// Package is an immutable object whose payload is a set of compiled Move
// modules plus an embedded linkage table (spec.md §3).
type Package struct {
	// RuntimeAddress is the on-chain storage id this package was fetched
	// under — may differ from any module's internal self-address after
	// an upgrade (spec.md §3, §4.1).
	RuntimeAddress Address
	// OriginalAddress is the self-address declared inside the bytecode.
	// Equal to RuntimeAddress unless this package is an upgrade.
	OriginalAddress Address
	Version         uint64
	Modules         map[string][]byte // module name -> compiled bytes
	Linkage         []LinkageEntry
	Digest          Digest
}

// DependsOn reports the storage address this package resolves `original`
// to, if `original` appears in its linkage table.
func (p *Package) DependsOn(original Address) (Address, uint64, bool) {
	for _, e := range p.Linkage {
		if e.OriginalAddress == original {
			return e.StorageAddress, e.Version, true
		}
	}
	return Address{}, 0, false
}
