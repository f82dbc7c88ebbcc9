package dcf77

/*------------------------------------------------------------------
 *
 * Purpose:   	Local time source for the scheduler: CET/CEST wall
 *		clock derived from the system clock.
 *
 * Description:	DCF77 transmits legal German time, so the tuple handed
 *		to the encoder is CET, or CEST between the last Sundays
 *		of March and October.  The switch days come from the
 *		closed form 31 - (5y/4 + c) mod 7, with the change at
 *		01:00 UTC.
 *
 *		Clock discipline (NTP, RTC) is outside this subsystem;
 *		whatever keeps the system clock honest is good enough.
 *
 *---------------------------------------------------------------*/

import (
	"time"
)

// TimeSource is what the minute scheduler consumes.  Implementations
// report wall clock snapshots and the DST flag for a given instant.
type TimeSource interface {
	// Now returns the current local time tuple and its epoch second.
	Now() (TimeTuple, int64, error)
	// IsSummerTime reports whether CEST is in effect at the given
	// epoch second.
	IsSummerTime(epoch int64) bool
	// AlignSecondEdge blocks until the next whole second boundary.
	AlignSecondEdge()
	// Tuple converts an epoch second to the local time tuple.
	Tuple(epoch int64) TimeTuple
}

const tzCETOffset = 1 // hours east of UTC, +1 more during CEST

// LocalTime implements TimeSource on the system clock.
type LocalTime struct{}

// cestRange returns the epoch seconds of the CET to CEST switch and
// back for the year containing epoch.
func cestRange(epoch int64) (int64, int64) {
	var year = time.Unix(epoch, 0).UTC().Year()
	var marchDay = 31 - (5*year/4+4)%7
	var octoberDay = 31 - (5*year/4+1)%7
	var on = time.Date(year, time.March, marchDay, tzCETOffset, 0, 0, 0, time.UTC).Unix()
	var off = time.Date(year, time.October, octoberDay, tzCETOffset, 0, 0, 0, time.UTC).Unix()
	return on, off
}

func (LocalTime) IsSummerTime(epoch int64) bool {
	var on, off = cestRange(epoch)
	return epoch >= on && epoch < off
}

// Tuple converts an epoch second to the CET/CEST tuple.
func (lt LocalTime) Tuple(epoch int64) TimeTuple {
	var offset = int64(tzCETOffset) * 3600
	if lt.IsSummerTime(epoch) {
		offset += 3600
	}
	var t = time.Unix(epoch+offset, 0).UTC()
	return TimeTuple{
		Year:    t.Year(),
		Month:   int(t.Month()),
		Day:     t.Day(),
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
		Weekday: (int(t.Weekday()) + 6) % 7, // Sunday=0 to Monday=0
	}
}

func (lt LocalTime) Now() (TimeTuple, int64, error) {
	var epoch = time.Now().Unix()
	return lt.Tuple(epoch), epoch, nil
}

// AlignSecondEdge sleeps until just past the next whole second.
func (LocalTime) AlignSecondEdge() {
	var now = time.Now()
	time.Sleep(now.Truncate(time.Second).Add(time.Second).Sub(now))
}
