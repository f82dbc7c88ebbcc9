package dcf77

/*------------------------------------------------------------------
 *
 * Purpose:   	Orchestrate minute by minute streaming of timecode
 *		descriptors while the next minute is computed in the
 *		background.
 *
 * Description:	The scheduler owns two vector slots.  The active slot is
 *		read only by the streaming loop, the inactive slot is
 *		written only by the per minute background task, and the
 *		only shared mutable state is the active index, flipped
 *		under a mutex held just for the flip.
 *
 *		Streaming must keep the sequencer FIFO from draining;
 *		that is the single hard real time constraint.  Everything
 *		that can go wrong mid stream (FIFO underrun, background
 *		overrun, a malformed tuple) is counted and logged, never
 *		fatal: a wrong or repeated minute is still a better
 *		signal than a silent carrier.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// SchedulerState is the observable phase of the minute scheduler.
type SchedulerState int32

const (
	SchedulerIdle SchedulerState = iota
	SchedulerStreaming
	SchedulerSwapping
)

func (s SchedulerState) String() string {
	switch s {
	case SchedulerIdle:
		return "idle"
	case SchedulerStreaming:
		return "streaming"
	case SchedulerSwapping:
		return "swapping"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// descriptorQueue is the streaming side of the carrier sequencer.
type descriptorQueue interface {
	Put(ctx context.Context, d Descriptor) error
	QueueEmpty() bool
}

// lookaheadSeconds is the fixed offset of the background computation:
// while minute M streams, the vector for M+60s is built.  The first
// minute is primed with now + (60 - second) instead, so transmission
// always starts with the upcoming minute.
const lookaheadSeconds = 60

// MinuteScheduler drives the per minute double buffered streaming.
type MinuteScheduler struct {
	queue descriptorQueue
	table *DescriptorTable
	src   TimeSource

	mu     sync.Mutex
	active int
	slots  [2]*TimecodeVector

	state atomic.Int32

	minuteEpoch int64 // epoch second of the minute in the active slot
	checkFIFO   bool  // underrun check enabled after the first second

	underruns    atomic.Uint64
	overruns     atomic.Uint64
	encodeErrors atomic.Uint64
}

func NewMinuteScheduler(queue descriptorQueue, table *DescriptorTable, src TimeSource) *MinuteScheduler {
	return &MinuteScheduler{
		queue: queue,
		table: table,
		src:   src,
	}
}

func (ms *MinuteScheduler) State() SchedulerState { return SchedulerState(ms.state.Load()) }
func (ms *MinuteScheduler) Underruns() uint64     { return ms.underruns.Load() }
func (ms *MinuteScheduler) Overruns() uint64      { return ms.overruns.Load() }
func (ms *MinuteScheduler) EncodeErrors() uint64  { return ms.encodeErrors.Load() }

/*-------------------------------------------------------------------
 *
 * Name:	Run
 *
 * Purpose:	Stream timecode minutes until the context is cancelled.
 *
 * Description:	Blocks until the next whole second, primes the first
 *		vector, then alternates streaming and swapping forever.
 *		The wall clock is read once at startup; from then on the
 *		time base free runs at sixty seconds per minute, which is
 *		exactly what the descriptor stream consumes.  Clock
 *		corrections are the caller's business (resync, restart).
 *
 * Returns:	Only a startup failure: time source unavailable or the
 *		very first minute failing to encode.
 *
 *--------------------------------------------------------------------*/

func (ms *MinuteScheduler) Run(ctx context.Context) error {
	ms.src.AlignSecondEdge()

	var t, epoch, err = ms.src.Now()
	if err != nil {
		return fmt.Errorf("dcf77: time source unavailable: %w", err)
	}

	// Prime the first vector: the minute that begins when the current
	// one runs out.
	var startOffset = t.Second
	ms.minuteEpoch = epoch + int64(60-t.Second)
	if ms.slots[ms.active], err = ms.encodeMinute(ms.minuteEpoch); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			ms.state.Store(int32(SchedulerIdle))
			return nil
		}

		ms.state.Store(int32(SchedulerStreaming))

		var current = ms.currentVector()
		logger.Info("transmitting minute",
			"time", ms.src.Tuple(ms.minuteEpoch).String(),
			"timecode", current.String())

		// Build the next minute concurrently with streaming this one.
		var done = make(chan struct{})
		go func(epoch int64) {
			defer close(done)
			var v, encErr = ms.encodeMinute(epoch)
			if encErr != nil {
				// Keep the stale slot; the swap will replay it.
				ms.encodeErrors.Add(1)
				logger.Error("timecode not ready, will repeat previous minute", "err", encErr)
				return
			}
			ms.storeInactive(v)
		}(ms.minuteEpoch + lookaheadSeconds)

		if err := ms.streamVector(ctx, current, startOffset); err != nil {
			return nil // context cancelled mid minute
		}
		startOffset = 0

		ms.state.Store(int32(SchedulerSwapping))
		select {
		case <-done:
		default:
			// The background task had a full minute and still is not
			// done.  Proceed with whatever the slot holds.
			ms.overruns.Add(1)
			logger.Error("background timecode computation overran the minute")
		}
		ms.swap()
		ms.minuteEpoch += lookaheadSeconds
	}
}

// streamVector pushes the descriptors for seconds offset..59 into the
// sequencer queue, watching for FIFO underruns along the way.
func (ms *MinuteScheduler) streamVector(ctx context.Context, v *TimecodeVector, offset int) error {
	for second := offset; second < 60; second++ {
		if ms.checkFIFO && ms.queue.QueueEmpty() {
			// The sequencer ran dry: a receivable glitch, but the
			// only cure is to keep feeding it.
			ms.underruns.Add(1)
			logger.Warn("sequencer FIFO underrun", "second", second)
		}
		for _, d := range ms.table.DescriptorsForSecond(v[second], second) {
			if err := ms.queue.Put(ctx, d); err != nil {
				return err
			}
		}
		ms.checkFIFO = true
	}
	return nil
}

func (ms *MinuteScheduler) encodeMinute(epoch int64) (*TimecodeVector, error) {
	return EncodeTimecode(ms.src.Tuple(epoch), ms.src.IsSummerTime(epoch))
}

func (ms *MinuteScheduler) currentVector() *TimecodeVector {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.slots[ms.active]
}

// storeInactive moves a freshly built vector into the inactive slot.
// Ownership transfers here; the vector is never touched again.
func (ms *MinuteScheduler) storeInactive(v *TimecodeVector) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.slots[1-ms.active] = v
}

// swap flips the active index.  If the inactive slot has never been
// filled (first minute's computation failed) the flip is skipped so the
// streaming side never sees an empty slot.
func (ms *MinuteScheduler) swap() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.slots[1-ms.active] != nil {
		ms.active = 1 - ms.active
	}
}
