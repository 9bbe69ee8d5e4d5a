package replay

import (
	"fmt"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

// ErrLinkage is the structured LinkageError of spec.md §7: a module
// reference could not be resolved even after alias rewriting. Distinct
// from resolver.ErrModuleNotFound, which names the single failed lookup;
// this wraps it with the orchestrator's view of which addresses were
// tried during linkage construction.
type ErrLinkage struct {
	ReferringModule string
	TargetModule    string
	Attempted       []suitypes.Address
}

func (e *ErrLinkage) Error() string {
	return fmt.Sprintf("replay: linkage error: %s cannot resolve %s (attempted %v)", e.ReferringModule, e.TargetModule, e.Attempted)
}

// ErrVersionMismatch is the structured VersionMismatch error of
// spec.md §7: a package's on-chain version disagrees with a runtime
// check inside a module, surfaced as a structured abort carrying the
// expected and actual versions rather than a parsed message.
type ErrVersionMismatch struct {
	Package  suitypes.Address
	Expected uint64
	Actual   uint64
}

func (e *ErrVersionMismatch) Error() string {
	return fmt.Sprintf("replay: version mismatch for package %s: expected %d, got %d", e.Package, e.Expected, e.Actual)
}

// ErrDeserialization is the structured Deserialization error of
// spec.md §7: an input or object's bytes do not match its declared
// type.
type ErrDeserialization struct {
	Context string
	Err     error
}

func (e *ErrDeserialization) Error() string {
	return fmt.Sprintf("replay: deserialization failed (%s): %v", e.Context, e.Err)
}

func (e *ErrDeserialization) Unwrap() error { return e.Err }

// ErrNoStateFile is returned when Options.Source is SourceLocal but no
// StateFile was given.
type ErrNoStateFile struct{}

func (e *ErrNoStateFile) Error() string { return "replay: source is local but no state_file was given" }
