package dcf77

/*------------------------------------------------------------------
 *
 * Purpose:   	Consume waveform descriptors and drive the output
 *		line pair.
 *
 * Description:	Software rendition of the hardware carrier sequencer:
 *		a five state machine clocked at a fixed multiple of the
 *		77.5 kHz carrier.  Each descriptor fetched from the FIFO
 *		is decoded exactly like the original microprogram: the
 *		amplitude bit selects the high or low amplitude path, the
 *		phase offset field preloads the half period down counter
 *		so a chip can shorten or stretch its first half period by
 *		15.6 degrees, and the clock count field says how long to
 *		keep turning before the next fetch.
 *
 *		The differential drive uses three line states:
 *		P (01), N (10) and Z (00).  High amplitude alternates
 *		P and N half periods at full swing.  Low amplitude keeps
 *		roughly 12.5 percent duty; the sink sees that duty as one
 *		drive segment per half period rather than the fine PWM
 *		interleave, which no software sink could time anyway.
 *
 *		Timing is expressed in system clock ticks and handed to
 *		the sink together with each line state; pacing is the
 *		sink's business.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"sync/atomic"
)

// LineState is the state of the differential drive pin pair.
type LineState uint8

const (
	LineZ LineState = 0b00 // both pins low
	LineP LineState = 0b01 // positive drive
	LineN LineState = 0b10 // negative drive
)

// WaveformSink receives the synthesized waveform as (state, duration)
// segments.  Durations are in system clock ticks.
type WaveformSink interface {
	Emit(s LineState, ticks uint32)
}

type seqState int

const (
	stateSetupDecode seqState = iota
	stateHighAmpHalf1
	stateHighAmpHalf2
	stateLowAmpHalf1
	stateLowAmpHalf2
)

// DefaultFIFODepth matches the joined TX FIFO of the hardware the
// descriptor format was designed for.
const DefaultFIFODepth = 8

// CarrierSequencer runs the waveform state machine.  Descriptors go in
// through Put, pin transitions come out through the sink.  It runs
// until its context is cancelled and is never stopped by data errors.
type CarrierSequencer struct {
	sink WaveformSink
	fifo chan Descriptor

	state seqState
	x     uint32 // half period down counter preload in loop ticks
	y     uint32 // remaining loop decrements of the current descriptor
	isr   uint32 // half period reload value, written once before start

	fetched atomic.Uint64
}

func NewCarrierSequencer(sink WaveformSink, fifoDepth int) *CarrierSequencer {
	if fifoDepth <= 0 {
		fifoDepth = DefaultFIFODepth
	}
	return &CarrierSequencer{
		sink:  sink,
		fifo:  make(chan Descriptor, fifoDepth),
		state: stateSetupDecode,
	}
}

// Preload writes the cycle length register.  Must happen exactly once,
// before the first descriptor is consumed, mirroring the one time
// "put, out isr" setup of the hardware.
func (cs *CarrierSequencer) Preload(halfPeriod uint32) {
	cs.isr = halfPeriod
}

// Put queues one descriptor, blocking while the FIFO is full.  The
// backpressure is what paces the producer to real time.
func (cs *CarrierSequencer) Put(ctx context.Context, d Descriptor) error {
	select {
	case cs.fifo <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueEmpty reports whether the FIFO has drained.  The producer checks
// this before each Put; observing it mid stream means an underrun.
func (cs *CarrierSequencer) QueueEmpty() bool {
	return len(cs.fifo) == 0
}

// Fetched reports how many descriptors the state machine has consumed.
func (cs *CarrierSequencer) Fetched() uint64 {
	return cs.fetched.Load()
}

// Run consumes descriptors until ctx is cancelled.  The output line is
// parked at Z on the way out.
func (cs *CarrierSequencer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			cs.sink.Emit(LineZ, 0)
			return
		case d := <-cs.fifo:
			cs.fetched.Add(1)
			cs.load(d)
			for cs.y > 0 {
				cs.step()
			}
			cs.state = stateSetupDecode
		}
	}
}

// load decodes a fetched descriptor into the machine registers.
func (cs *CarrierSequencer) load(d Descriptor) {
	cs.y = d.Clocks() + 1 // down counter exhausts after clocks+1 decrements
	cs.x = d.PhaseOfs()
	switch {
	case d.LowAmp():
		cs.state = stateLowAmpHalf1
	case d.NegPhase():
		cs.state = stateHighAmpHalf2
	default:
		cs.state = stateHighAmpHalf1
	}
}

// step renders one half period (high amplitude) or one full carrier
// cycle (low amplitude) and advances the state machine.
func (cs *CarrierSequencer) step() {
	switch cs.state {

	case stateHighAmpHalf1, stateHighAmpHalf2:
		var drive = LineP
		var next = stateHighAmpHalf2
		if cs.state == stateHighAmpHalf2 {
			drive = LineN
			next = stateHighAmpHalf1
		}
		// One loop tick is a quarter carrier cycle / (isr+2) of the
		// half period; x+1 loop iterations of 4 ticks plus the 4 tick
		// counter reload make one half period.
		var iters = cs.x + 1
		if cs.y < iters {
			// Descriptor exhausted mid half; the stub length is the
			// phase shift carried into the next descriptor.
			cs.sink.Emit(drive, cs.y*4)
			cs.y = 0
			return
		}
		cs.sink.Emit(drive, iters*4+4)
		cs.y -= iters
		cs.x = cs.isr
		cs.state = next

	case stateLowAmpHalf1:
		// The low amplitude path clocks its down counter only in the
		// second half period, (isr+2)/2 decrements of 8 ticks per
		// cycle, so the first half is a fixed span paced by the
		// reload counter alone.
		var half = (cs.isr + 2) * 4
		cs.emitDuty(LineP, half, half/8)
		cs.state = stateLowAmpHalf2

	case stateLowAmpHalf2:
		var perCycle = (cs.isr + 2) / 2
		var n = min(cs.y, perCycle)
		cs.emitDuty(LineN, n*8, (cs.isr+2)/2)
		cs.y -= n
		cs.state = stateLowAmpHalf1
	}
}

// emitDuty renders one (possibly truncated) low amplitude half period:
// drive for up to duty ticks, then Z.
func (cs *CarrierSequencer) emitDuty(drive LineState, ticks uint32, duty uint32) {
	var d = min(ticks, duty)
	cs.sink.Emit(drive, d)
	if ticks > d {
		cs.sink.Emit(LineZ, ticks-d)
	}
}
