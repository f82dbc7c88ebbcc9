package dcf77

/*------------------------------------------------------------------
 *
 * Purpose:   	Drive the differential output pin pair.
 *
 * Description:	The sequencer thinks in line states P (01), N (10) and
 *		Z (00) on two complementary drive pins.  On Linux the
 *		pins are GPIO lines requested through the character
 *		device.  The OutputLine interface keeps hardware out of
 *		the tests; a mock records transitions instead.
 *
 *		Software pacing against a 93 MHz tick base is best
 *		effort by definition.  A real antenna wants the hardware
 *		sequencer; the GPIO pair is for bench work where the
 *		amplitude envelope is all that matters.
 *
 *---------------------------------------------------------------*/

import (
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// OutputLine is one output pin.  Satisfied by *gpiocdev.Line.
type OutputLine interface {
	SetValue(value int) error
	Close() error
}

// TickPacer converts elapsed synthesis ticks to wall time and sleeps
// off any lead, so a software sink feeds transitions at roughly the
// rate the descriptor stream describes.
type TickPacer struct {
	freq  int64 // ticks per second
	start time.Time
	ticks int64
}

func NewTickPacer(ticksPerSecond int64) *TickPacer {
	return &TickPacer{freq: ticksPerSecond}
}

func (p *TickPacer) Advance(ticks uint32) {
	if p.start.IsZero() {
		p.start = time.Now()
	}
	p.ticks += int64(ticks)
	var target = p.start.Add(time.Duration(p.ticks * int64(time.Second) / p.freq))
	if lead := time.Until(target); lead > 0 {
		time.Sleep(lead)
	}
}

// PinPair is a WaveformSink on two GPIO lines.
type PinPair struct {
	p, n  OutputLine
	pacer *TickPacer
	last  LineState
}

// OpenPinPair requests the two drive lines as outputs, initially low.
func OpenPinPair(chip string, pinP, pinN int, pacer *TickPacer) (*PinPair, error) {
	var lineP, err = gpiocdev.RequestLine(chip, pinP, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	lineN, err := gpiocdev.RequestLine(chip, pinN, gpiocdev.AsOutput(0))
	if err != nil {
		_ = lineP.Close()
		return nil, err
	}
	return &PinPair{p: lineP, n: lineN, pacer: pacer}, nil
}

// NewPinPair wraps already opened lines; used by tests and by sinks
// that are not real GPIO.
func NewPinPair(p, n OutputLine, pacer *TickPacer) *PinPair {
	return &PinPair{p: p, n: n, pacer: pacer}
}

func (pp *PinPair) Emit(s LineState, ticks uint32) {
	if s != pp.last {
		// Break before make: never drive both sides at once.
		if err := pp.setLines(s); err != nil {
			logger.Error("GPIO write failed", "state", s, "err", err)
		}
		pp.last = s
	}
	if pp.pacer != nil {
		pp.pacer.Advance(ticks)
	}
}

func (pp *PinPair) setLines(s LineState) error {
	if s&0b01 == 0 {
		if err := pp.p.SetValue(0); err != nil {
			return err
		}
	}
	if s&0b10 == 0 {
		if err := pp.n.SetValue(0); err != nil {
			return err
		}
	}
	if s&0b01 != 0 {
		return pp.p.SetValue(1)
	}
	if s&0b10 != 0 {
		return pp.n.SetValue(1)
	}
	return nil
}

func (pp *PinPair) Close() error {
	_ = pp.setLines(LineZ)
	var errP = pp.p.Close()
	var errN = pp.n.Close()
	if errP != nil {
		return errP
	}
	return errN
}

// CountingSink tallies the waveform instead of emitting it.  Used by
// dry runs and tests to check tick budgets and drive duty.
type CountingSink struct {
	Segments   uint64
	TotalTicks uint64
	DriveTicks [4]uint64 // indexed by LineState
	pacer      *TickPacer
}

func NewCountingSink(pacer *TickPacer) *CountingSink {
	return &CountingSink{pacer: pacer}
}

func (c *CountingSink) Emit(s LineState, ticks uint32) {
	c.Segments++
	c.TotalTicks += uint64(ticks)
	c.DriveTicks[s] += uint64(ticks)
	if c.pacer != nil {
		c.pacer.Advance(ticks)
	}
}
