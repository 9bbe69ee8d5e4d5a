package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sui-sandbox/replay/internal/suitypes"
)

func TestClockBytesLength(t *testing.T) {
	c := FrozenClock(1_700_000_000_000)
	require.Len(t, c.Bytes(), 40)
}

func TestFrozenClockDoesNotAdvance(t *testing.T) {
	c := FrozenClock(42)
	c.Tick(1000)
	require.Equal(t, uint64(42), c.MillisTimestamp())
}

func TestAdvancingClockTicks(t *testing.T) {
	c := AdvancingClock(0)
	c.Tick(5)
	require.Equal(t, uint64(5), c.MillisTimestamp())
}

func TestGasMeterOutOfGas(t *testing.T) {
	m := NewMeter(DefaultGasSchedule(1), 10, true)
	require.NoError(t, m.ChargeInstructions(5))
	err := m.ChargeInstructions(10)
	require.Error(t, err)
	var oog *ErrOutOfGas
	require.ErrorAs(t, err, &oog)
}

func TestGasMeterDisabledNeverErrors(t *testing.T) {
	m := NewMeter(DefaultGasSchedule(1), 1, false)
	require.NoError(t, m.ChargeInstructions(1_000_000))
}

func TestFreshObjectIDDeterministicAndDistinct(t *testing.T) {
	tc := &TxContext{Digest: suitypes.Digest{1, 2, 3}}
	a := tc.FreshID()
	b := tc.FreshID()
	require.NotEqual(t, a, b)
}

func TestAbortToStructuredNeverParsesStrings(t *testing.T) {
	result := &CallResult{AbortMajor: 1, AbortSub: 2, AbortFunction: 3, AbortOffset: 43}
	info := AbortToStructured(result, suitypes.MustAddress("0x2"), "deepbook_v3", "swap_a2b_")
	require.Equal(t, uint64(2), info.SubStatus)
	require.Equal(t, uint16(43), info.InstructionOffset)
	require.Equal(t, "swap_a2b_", info.FunctionName)
}
