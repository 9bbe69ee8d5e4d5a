package vm

import "github.com/sui-sandbox/replay/internal/suitypes"

// Event is one Move event emitted during a command. Events are
// captured and returned to C6 (spec.md §4.7 "Simulated" natives); they
// must appear before the emitting command's results in any subsequent
// observation (spec.md §5 "Ordering guarantees").
type Event struct {
	Type suitypes.StructTag
	BCS  []byte
}

// EventLog accumulates events for one transaction, in emission order.
type EventLog struct {
	events []Event
}

func (l *EventLog) Emit(e Event) {
	l.events = append(l.events, e)
}

func (l *EventLog) All() []Event {
	return l.events
}
