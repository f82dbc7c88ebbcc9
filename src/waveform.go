package dcf77

/*------------------------------------------------------------------
 *
 * Purpose:   	Precompute the waveform descriptor words consumed by
 *		the carrier sequencer.
 *
 * Description:	A descriptor is one 32 bit word describing an atomic
 *		segment of the modulated carrier:
 *
 *		[31:24]	PhaseOfs - preload for the half period down
 *			counter.  The nominal value gives 0 degrees; a
 *			smaller value shortens the first half period
 *			(+15.6 deg), a near-zero value with PhasePol set
 *			inserts a stub half period (-15.6 deg).
 *		[23]	PhasePol - 0: phase >= 0, 1: phase < 0.
 *		[22]	LowAmp   - 0: full carrier, 1: reduced carrier.
 *		[21:0]	Clocks   - down counter ticks before the next
 *			descriptor is fetched.  High amplitude counts in
 *			quarter carrier cycles less reload overhead, low
 *			amplitude in sixteenths.
 *
 *		The layout matches the FIFO word of the original PIO
 *		microprogram, so a descriptor stream can be replayed
 *		against real hardware unchanged.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"math"
)

// CarrierFreqHz is the DCF77 carrier frequency.
const CarrierFreqHz = 77500

// DefaultTicksPerCycle is the default number of system clock ticks per
// carrier cycle.  1200 keeps the 15.6 degree shift an integer number of
// ticks (52) and the PWM chunking an integer (75 per half period).
const DefaultTicksPerCycle = 1200

// Descriptor is one waveform segment word.
type Descriptor uint32

func NewDescriptor(phaseOfs uint8, negPhase bool, lowAmp bool, clocks uint32) Descriptor {
	var d = Descriptor(phaseOfs)<<24 | Descriptor(clocks&0x3fffff)
	if negPhase {
		d |= 1 << 23
	}
	if lowAmp {
		d |= 1 << 22
	}
	return d
}

func (d Descriptor) PhaseOfs() uint32 { return uint32(d >> 24) }
func (d Descriptor) NegPhase() bool   { return d&(1<<23) != 0 }
func (d Descriptor) LowAmp() bool     { return d&(1<<22) != 0 }
func (d Descriptor) Clocks() uint32   { return uint32(d & 0x3fffff) }

func (d Descriptor) String() string {
	var amp = "high"
	if d.LowAmp() {
		amp = "low"
	}
	return fmt.Sprintf("desc{%s ofs=%d neg=%v clocks=%d}", amp, d.PhaseOfs(), d.NegPhase(), d.Clocks())
}

// Durations of the carrier segments making up one second, in carrier
// cycles.  100 ms low pulse for a 0 bit, 200 ms for a 1 bit, then the
// phase modulation block (512 chips of 120 cycles) and a plain filler
// to complete the second: 7750 + 7750 + 512*120 + 560 = 77500.
const (
	cyclesPulse100ms = 7750
	cyclesPulse200ms = 15500
	cyclesPerChip    = 120
	cyclesFiller     = 560
)

// phaseModDeg is the phase excursion of one chip.
const phaseModDeg = 15.6

/*-------------------------------------------------------------------
 *
 * Name:	DescriptorTable
 *
 * Purpose:	Immutable lookup from (symbol, second) to the descriptor
 *		sequence for that second.
 *
 * Description:	Built once at startup.  Expands the LFSR chip sequence
 *		into the two 512 word phase modulation series (normal and
 *		inverted polarity) and precomputes the four canonical
 *		pulse words.
 *
 *--------------------------------------------------------------------*/

type DescriptorTable struct {
	ticksPerCycle int

	low100ms  Descriptor
	low200ms  Descriptor
	high100ms Descriptor
	highFill  Descriptor

	// phaseMod[0] is the chip series as generated, phaseMod[1] its
	// full polarity inversion.
	phaseMod [2][PhaseChipCount]Descriptor
}

// NewDescriptorTable builds the table for the given system clock
// granularity.  ticksPerCycle must be a positive multiple of 8 so both
// the quarter cycle loop of the high amplitude path and the sixteenth
// cycle loop of the low amplitude path count whole ticks.
func NewDescriptorTable(ticksPerCycle int) (*DescriptorTable, error) {
	if ticksPerCycle <= 0 || ticksPerCycle%8 != 0 {
		return nil, fmt.Errorf("dcf77: ticks per carrier cycle %d is not a positive multiple of 8", ticksPerCycle)
	}

	var tab = &DescriptorTable{
		ticksPerCycle: ticksPerCycle,
		low100ms:      makeWord(ticksPerCycle, cyclesPulse100ms, true, 0),
		low200ms:      makeWord(ticksPerCycle, cyclesPulse200ms, true, 0),
		high100ms:     makeWord(ticksPerCycle, cyclesPulse100ms, false, 0),
		highFill:      makeWord(ticksPerCycle, cyclesFiller, false, 0),
	}

	var chipWord = [2]Descriptor{
		makeWord(ticksPerCycle, cyclesPerChip, false, +phaseModDeg),
		makeWord(ticksPerCycle, cyclesPerChip, false, -phaseModDeg),
	}
	var chips = PhaseChips()
	for i, chip := range chips {
		tab.phaseMod[0][i] = chipWord[chip]
		tab.phaseMod[1][i] = chipWord[1-chip]
	}

	return tab, nil
}

// TicksPerCycle reports the system clock granularity of the table.
func (tab *DescriptorTable) TicksPerCycle() int { return tab.ticksPerCycle }

// HalfPeriodPreload is the value written to the sequencer's cycle
// length register before the first descriptor: the loop count of one
// half period minus the two decode instructions.
func (tab *DescriptorTable) HalfPeriodPreload() uint32 {
	return uint32(tab.ticksPerCycle/8 - 2)
}

// makeWord computes the descriptor for a run of carrier cycles.
// Low amplitude never carries a phase shift.
func makeWord(ticksPerCycle int, cycles int, lowAmp bool, phaseDeg float64) Descriptor {
	var div8 = ticksPerCycle / 8
	var clocks uint32
	if lowAmp {
		phaseDeg = 0
		clocks = uint32(cycles*(div8/2) - 1)
	} else {
		clocks = uint32(cycles*(div8-1)*2 - 1)
	}
	var shift = int(math.Round(float64(div8*2) * math.Abs(phaseDeg) / 360.0))
	if phaseDeg >= 0 {
		return NewDescriptor(uint8(div8-shift-2), false, lowAmp, clocks)
	}
	return NewDescriptor(uint8(shift-2), true, lowAmp, clocks)
}

// phaseModSeries selects the chip polarity for a second.  The first ten
// seconds always transmit the inverted series, seconds 10..14 and the
// minute mark the normal one, and data seconds follow their bit value.
func phaseModSeries(sym Symbol, second int) int {
	switch {
	case second < 10:
		return 1
	case second < 15 || second == 59:
		return 0
	case sym == SymbolOne:
		return 1
	default:
		return 0
	}
}

// DescriptorsForSecond returns the ordered descriptor sequence for one
// second of transmission.  The result always covers exactly 77500
// carrier cycles.
func (tab *DescriptorTable) DescriptorsForSecond(sym Symbol, second int) []Descriptor {
	var seq = make([]Descriptor, 0, PhaseChipCount+3)
	switch sym {
	case SymbolZero:
		seq = append(seq, tab.low100ms, tab.high100ms)
	case SymbolOne:
		seq = append(seq, tab.low200ms)
	default: // minute mark: no amplitude drop
		seq = append(seq, tab.high100ms, tab.high100ms)
	}
	seq = append(seq, tab.phaseMod[phaseModSeries(sym, second)][:]...)
	return append(seq, tab.highFill)
}
