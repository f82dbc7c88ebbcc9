package dcf77

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptor_FieldPacking(t *testing.T) {
	var d = NewDescriptor(135, true, false, 0x3fffff)
	assert.Equal(t, uint32(135), d.PhaseOfs())
	assert.True(t, d.NegPhase())
	assert.False(t, d.LowAmp())
	assert.Equal(t, uint32(0x3fffff), d.Clocks())

	d = NewDescriptor(148, false, true, 581249)
	assert.Equal(t, uint32(148), d.PhaseOfs())
	assert.False(t, d.NegPhase())
	assert.True(t, d.LowAmp())
	assert.Equal(t, uint32(581249), d.Clocks())
}

func mustTable(t *testing.T) *DescriptorTable {
	t.Helper()
	var tab, err = NewDescriptorTable(DefaultTicksPerCycle)
	require.NoError(t, err)
	return tab
}

// Canonical pulse words at the default 1200 ticks per cycle, matching
// the FIFO constants of the hardware microprogram: low amplitude counts
// cycles*75-1, high amplitude cycles*298-1, phase offset preload 148
// for 0 degrees, 135 for +15.6, 11 for -15.6.
func TestDescriptorTable_CanonicalWords(t *testing.T) {
	var tab = mustTable(t)

	assert.Equal(t, NewDescriptor(148, false, true, 7750*75-1), tab.low100ms)
	assert.Equal(t, NewDescriptor(148, false, true, 15500*75-1), tab.low200ms)
	assert.Equal(t, NewDescriptor(148, false, false, 7750*298-1), tab.high100ms)
	assert.Equal(t, NewDescriptor(148, false, false, 560*298-1), tab.highFill)

	// Chip 0 of the frozen LFSR sequence is positive phase.
	assert.Equal(t, NewDescriptor(135, false, false, 120*298-1), tab.phaseMod[0][0])
	assert.Equal(t, NewDescriptor(11, true, false, 120*298-1), tab.phaseMod[1][0])
}

func TestDescriptorTable_HalfPeriodPreload(t *testing.T) {
	assert.Equal(t, uint32(148), mustTable(t).HalfPeriodPreload())
}

func TestDescriptorTable_RejectsBadGranularity(t *testing.T) {
	for _, ticks := range []int{0, -8, 7, 1201} {
		var _, err = NewDescriptorTable(ticks)
		assert.Error(t, err, "ticks per cycle %d", ticks)
	}
}

func TestDescriptorsForSecond_Shape(t *testing.T) {
	var tab = mustTable(t)

	var zero = tab.DescriptorsForSecond(SymbolZero, 30)
	require.Len(t, zero, 515, "0 bit: 100ms low, 100ms high, 512 chips, filler")
	assert.Equal(t, tab.low100ms, zero[0])
	assert.Equal(t, tab.high100ms, zero[1])
	assert.Equal(t, tab.highFill, zero[514])

	var one = tab.DescriptorsForSecond(SymbolOne, 30)
	require.Len(t, one, 514, "1 bit: 200ms low, 512 chips, filler")
	assert.Equal(t, tab.low200ms, one[0])

	var mark = tab.DescriptorsForSecond(SymbolMinuteMark, 59)
	require.Len(t, mark, 515, "minute mark: two full amplitude pulses, 512 chips, filler")
	assert.Equal(t, tab.high100ms, mark[0])
	assert.Equal(t, tab.high100ms, mark[1])
}

// The chip polarity schedule: inverted series for seconds 0..9,
// normal for 10..14 and the minute mark, data bit otherwise.
func TestDescriptorsForSecond_PhaseModPolarity(t *testing.T) {
	var tab = mustTable(t)

	var pmStart = func(seq []Descriptor, sym Symbol) Descriptor {
		if sym == SymbolOne {
			return seq[1]
		}
		return seq[2]
	}

	var cases = []struct {
		name   string
		sym    Symbol
		second int
		series int
	}{
		{"second 0 always inverted", SymbolZero, 0, 1},
		{"second 9 always inverted", SymbolZero, 9, 1},
		{"second 10 always normal", SymbolZero, 10, 0},
		{"second 14 always normal", SymbolZero, 14, 0},
		{"data 0 normal", SymbolZero, 30, 0},
		{"data 1 inverted", SymbolOne, 30, 1},
		{"minute mark normal", SymbolMinuteMark, 59, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seq = tab.DescriptorsForSecond(tc.sym, tc.second)
			assert.Equal(t, tab.phaseMod[tc.series][0], pmStart(seq, tc.sym))
		})
	}
}
