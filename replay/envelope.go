package replay

import (
	"github.com/sui-sandbox/replay/internal/dynamicfield"
	"github.com/sui-sandbox/replay/internal/effects"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

// ExecutionPath records how a replay actually resolved its data, so a
// non-success (or an unexpectedly different source) is diagnosable
// without reading logs (spec.md §7 "Propagation policy").
type ExecutionPath struct {
	RequestedSource           Source
	EffectiveSource           Source
	FallbackUsed              bool
	DependencyPackagesFetched int
	SyntheticInputCount       int
}

// Analysis is the diagnostic block every replay populates: input-object
// and package counts always, dynamic-field stats once execution has
// completed (SPEC_FULL.md §4, C4/C9 addition).
type Analysis struct {
	DynamicFieldStats dynamicfield.Stats
	InputObjectCount  int
	PackageCount      int
}

// Envelope is the replay API's single return shape (spec.md §6
// "envelope = { local_success, execution_path, commands_executed,
// effects?, comparison?, analysis? }").
type Envelope struct {
	LocalSuccess     bool
	ExecutionPath    ExecutionPath
	CommandsExecuted int
	Abort            *suitypes.MoveAbortInfo
	Effects          *effects.Built
	Comparison       *effects.Comparison
	Analysis         *Analysis
}
