package ptb

import (
	"fmt"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

// Outcome is the terminal result of one PTB execution (spec.md §4.6,
// §4.9 step 9).
type Outcome struct {
	Status  suitypes.EffectsStatus
	Results [][]TypedValue
}

// Execute validates then runs every command in order, halting at the
// first failure without applying any further commands' effects
// (spec.md §4.6 "Termination"). A Move abort is captured as a structured
// result, not a Go error the orchestrator must further interpret — every
// other failure mode (bad references, missing modules, insufficient gas)
// surfaces as a Go error instead, since those are sandbox-environment
// failures rather than on-chain-faithful outcomes.
func (e *Executor) Execute(commands []suitypes.Command) (Outcome, error) {
	if err := e.Validate(commands); err != nil {
		return Outcome{}, err
	}

	e.results = make([][]TypedValue, len(commands))
	for idx, cmd := range commands {
		out, err := e.execCommand(idx, cmd)
		if abort, ok := err.(*ErrMoveAbort); ok {
			e.log.WithField("command", idx).Warn("move abort, halting PTB execution")
			return Outcome{Status: suitypes.EffectsStatus{Success: false, Abort: &abort.Info}}, nil
		}
		if err != nil {
			return Outcome{}, fmt.Errorf("ptb: command %d failed: %w", idx, err)
		}
		e.results[idx] = out
	}

	return Outcome{Status: suitypes.EffectsStatus{Success: true}, Results: e.results}, nil
}
