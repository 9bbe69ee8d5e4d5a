package historical

import (
	"fmt"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

// ErrDataGap is the structured error of spec.md §7 "DataGap": a
// required object version or package is unavailable at any configured
// source.
type ErrDataGap struct {
	ID              suitypes.ObjectID
	RequestVersion  uint64
	Checkpoint      uint64
	SourcesTried    []string
}

func (e *ErrDataGap) Error() string {
	return fmt.Sprintf("historical: data gap: object %s at version %d (checkpoint %d), tried sources %v",
		e.ID, e.RequestVersion, e.Checkpoint, e.SourcesTried)
}

// ErrTimeout is the structured Timeout error of spec.md §7.
type ErrTimeout struct {
	Source string
	Op     string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("historical: %s timed out during %s", e.Source, e.Op)
}

// ErrCircuitOpen is the structured CircuitOpen error of spec.md §7,
// raised by the GraphQL circuit breaker (spec.md §5 "circuit breaker
// that opens after consecutive timeouts and enforces a cooldown").
type ErrCircuitOpen struct {
	Source        string
	CooldownUntil int64 // unix millis; informational only, never compared against a live clock here
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("historical: circuit open for %s", e.Source)
}
