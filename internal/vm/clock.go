package vm

import (
	"encoding/binary"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

// Clock is the Sui system clock object: a 32-byte id followed by an
// 8-byte little-endian millisecond timestamp, 40 bytes total
// (spec.md §4.7, §9, §8 scenario S5).
type Clock struct {
	id        suitypes.ObjectID
	millis    uint64
	advancing bool
}

// FrozenClock returns a clock frozen at the transaction's recorded
// timestamp — the mode replay MUST use (spec.md §4.7: "Replay must
// freeze — many DeFi modules verify last_updated_time <= now, and an
// unfrozen zero-initialized clock back-dates to 1970, failing these
// checks").
func FrozenClock(timestampMs uint64) *Clock {
	return &Clock{id: suitypes.SuiClockObjectID, millis: timestampMs}
}

// AdvancingClock returns a clock that increments on every Tick call — for
// testing only, never for replay.
func AdvancingClock(startMs uint64) *Clock {
	return &Clock{id: suitypes.SuiClockObjectID, millis: startMs, advancing: true}
}

// Tick advances an advancing clock by deltaMs; a no-op on a frozen clock.
func (c *Clock) Tick(deltaMs uint64) {
	if c.advancing {
		c.millis += deltaMs
	}
}

// MillisTimestamp returns the clock's current reading.
func (c *Clock) MillisTimestamp() uint64 {
	return c.millis
}

// Bytes renders the clock as its 40-byte BCS object form: id (32 bytes)
// concatenated with the little-endian u64 timestamp (8 bytes).
func (c *Clock) Bytes() []byte {
	out := make([]byte, 40)
	copy(out[:32], c.id[:])
	binary.LittleEndian.PutUint64(out[32:], c.millis)
	return out
}

// AsObject renders the clock as a shared object (initial shared version
// 1) suitable for
// priming into the Object Store, mirroring how the live network models
// 0x6.
func (c *Clock) AsObject() *suitypes.Object {
	return &suitypes.Object{
		ID:      c.id,
		Version: 1,
		Owner:   suitypes.SharedOwner(1),
		Type:    suitypes.StructTag{Address: suitypes.SuiFrameworkAddress, Module: "clock", Name: "Clock"},
		BCS:     c.Bytes(),
	}
}
