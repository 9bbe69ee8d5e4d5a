package vm

import "fmt"

// GasSchedule is the Sui-compatible per-instruction / per-operation cost
// table (spec.md §4.7). ProtocolVersion records the transaction's
// version; the costs themselves do not vary with it.
type GasSchedule struct {
	ProtocolVersion uint64

	PerInstruction  uint64
	NativeCallBase  uint64
	StorageReadByte  uint64
	StorageWriteByte uint64
	StorageDeleteRebate uint64
}

// DefaultGasSchedule returns a representative Sui-like cost table, the
// same costs for every protocol version. It is the only schedule: the
// harness uses it for every replay, and no per-version tables exist.
func DefaultGasSchedule(protocolVersion uint64) GasSchedule {
	return GasSchedule{
		ProtocolVersion:     protocolVersion,
		PerInstruction:      1,
		NativeCallBase:      100,
		StorageReadByte:     1,
		StorageWriteByte:    4,
		StorageDeleteRebate: 4,
	}
}

// ErrOutOfGas is returned when a metered operation would exceed the
// remaining budget.
type ErrOutOfGas struct {
	Budget, Used, Requested uint64
}

func (e *ErrOutOfGas) Error() string {
	return fmt.Sprintf("vm: out of gas: budget=%d used=%d requested=%d", e.Budget, e.Used, e.Requested)
}

// Meter tracks gas consumption for one execution. Metering can be
// disabled entirely for debugging (spec.md §4.7 "Opt-out available").
type Meter struct {
	schedule GasSchedule
	budget   uint64
	used     uint64
	enabled  bool
}

func NewMeter(schedule GasSchedule, budget uint64, enabled bool) *Meter {
	return &Meter{schedule: schedule, budget: budget, enabled: enabled}
}

// ChargeInstructions charges n instructions at the schedule's
// per-instruction rate.
func (m *Meter) ChargeInstructions(n uint64) error {
	return m.charge(n * m.schedule.PerInstruction)
}

// ChargeNativeCall charges the flat per-native-call base cost.
func (m *Meter) ChargeNativeCall() error {
	return m.charge(m.schedule.NativeCallBase)
}

// ChargeStorageWrite charges for writing n bytes of object storage.
func (m *Meter) ChargeStorageWrite(n uint64) error {
	return m.charge(n * m.schedule.StorageWriteByte)
}

// ChargeStorageRead charges for reading n bytes of object storage.
func (m *Meter) ChargeStorageRead(n uint64) error {
	return m.charge(n * m.schedule.StorageReadByte)
}

func (m *Meter) charge(amount uint64) error {
	if !m.enabled {
		return nil
	}
	if m.used+amount > m.budget {
		return &ErrOutOfGas{Budget: m.budget, Used: m.used, Requested: amount}
	}
	m.used += amount
	return nil
}

// Used returns gas consumed so far.
func (m *Meter) Used() uint64 { return m.used }
