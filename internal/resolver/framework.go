package resolver

import "github.com/sui-sandbox/replay/internal/suitypes"

// FrameworkSnapshot is a minimal bootstrap set of framework modules,
// embedded so framework-only gating tests don't require network access
// (SPEC_FULL.md §4, C1 addition). A real deployment overrides this with
// modules fetched from the historical provider for the transaction's
// checkpoint; PreloadFramework is a fallback, not a substitute, for that
// fetch — callers should prefer checkpoint-pinned framework bytes when
// available and only fall back here for offline smoke tests.
type FrameworkSnapshot struct {
	Address suitypes.Address
	Modules map[string][]byte
}

// builtinFrameworks is intentionally empty: real framework bytecode is
// large and checkpoint-specific, so no bytes are embedded here. The slice
// exists so PreloadFramework has a single place to extend if a fixture
// set is added later (e.g. via go:embed of a recorded checkpoint's
// framework packages).
var builtinFrameworks = []FrameworkSnapshot{
	{Address: suitypes.MoveStdlibAddress, Modules: map[string][]byte{}},
	{Address: suitypes.SuiFrameworkAddress, Modules: map[string][]byte{}},
	{Address: suitypes.SuiSystemAddress, Modules: map[string][]byte{}},
}

// PreloadFramework installs whatever builtin framework snapshot is
// embedded, skipping any package with zero captured modules. It never
// errors on an empty snapshot. With builtinFrameworks empty it installs
// nothing, and Replay fetches no framework package separately: modules
// at these addresses are present only when they are part of the
// transaction's fetched or imported package set.
func (r *Resolver) PreloadFramework() error {
	for _, fw := range builtinFrameworks {
		if len(fw.Modules) == 0 {
			continue
		}
		if err := r.LoadModulesAt(fw.Address, fw.Modules, nil); err != nil {
			return err
		}
	}
	return nil
}
