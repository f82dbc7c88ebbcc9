package dcf77

/*------------------------------------------------------------------
 *
 * Purpose:   	Generate the pseudorandom chip sequence for the
 *		phase modulation layer.
 *
 * Description:	On top of the amplitude modulation, DCF77 spreads each
 *		second over 512 chips of +-15.6 degree phase shift.  The
 *		chip sequence comes from a small LFSR and must be
 *		bit-identical between transmitter and any receiver that
 *		correlates against it, so the generator below is frozen:
 *		seed 0, shift right, XOR with 0x110 when the emitted bit
 *		was 1 or the register reached 0.
 *
 *---------------------------------------------------------------*/

// PhaseChipCount is the number of phase modulation chips per second.
const PhaseChipCount = 512

const lfsrTapMask = 0x110

// PhaseChips returns the chip sequence: 0 for positive phase,
// 1 for negative.  Deterministic, always the same 512 chips.
func PhaseChips() [PhaseChipCount]uint8 {
	var chips [PhaseChipCount]uint8
	var lfsr uint16
	for i := range chips {
		var chip = uint8(lfsr & 1)
		chips[i] = chip
		lfsr >>= 1
		if chip == 1 || lfsr == 0 {
			lfsr ^= lfsrTapMask
		}
	}
	return chips
}
