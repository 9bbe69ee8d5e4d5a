// Package replay implements the Replay Orchestrator (spec.md §4.9, C9):
// it sequences the Historical State Provider, Linkage & Alias Builder,
// Bytecode Resolver, Dynamic Field Engine, Object Store, PTB Executor,
// and VM Harness into the single `replay(digest, options) → envelope`
// operation of spec.md §6.
package replay

import (
	"github.com/sui-sandbox/replay/internal/config"
)

// Source selects which historical data path a replay draws object and
// package state from (spec.md §4.9 "Three source modes").
type Source string

const (
	// SourceArchive is checkpoint-archive-only: no API keys required.
	SourceArchive Source = "archive"
	// SourceGRPCHybrid additionally consults the gRPC archive; its
	// transaction fetch does not decode unchanged-loaded-runtime-object
	// data.
	SourceGRPCHybrid Source = "gRPC-hybrid"
	// SourceLocal replays entirely from a pre-exported state file, fully
	// offline.
	SourceLocal Source = "local"
)

// Options bundles every replay-API knob of spec.md §6.
type Options struct {
	Source     Source
	Checkpoint uint64 // pins the archive source; ignored for SourceLocal
	StateFile  string // required for SourceLocal

	Profile config.Profile // not read by Replay; fetch concurrency and timeouts are those of Deps.Provider

	VMOnly                bool // disables DataGap fallback/synthesis
	AnalyzeOnly           bool // hydrate and report without executing
	SynthesizeMissing     bool // substitute placeholder bytes for unavailable inputs and retry
	SelfHealDynamicFields bool // fetch absent dynamic-field children on demand; a child no source returns is not synthesized
	Compare               bool // emit a comparison against recorded effects
}
