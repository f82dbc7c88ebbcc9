package dcf77

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func epochUTC(year int, month time.Month, day, hour, minute, second int) int64 {
	return time.Date(year, month, day, hour, minute, second, 0, time.UTC).Unix()
}

// CET switches to CEST at 01:00 UTC on the last Sunday of March and
// back on the last Sunday of October.
func TestLocalTime_SummerTimeBoundaries(t *testing.T) {
	var lt LocalTime

	var cases = []struct {
		name   string
		epoch  int64
		summer bool
	}{
		{"2024 just before March switch", epochUTC(2024, time.March, 31, 0, 59, 59), false},
		{"2024 at March switch", epochUTC(2024, time.March, 31, 1, 0, 0), true},
		{"2024 midsummer", epochUTC(2024, time.July, 1, 12, 0, 0), true},
		{"2024 just before October switch", epochUTC(2024, time.October, 27, 0, 59, 59), true},
		{"2024 at October switch", epochUTC(2024, time.October, 27, 1, 0, 0), false},
		{"2024 midwinter", epochUTC(2024, time.January, 15, 12, 0, 0), false},
		{"2025 at March switch", epochUTC(2025, time.March, 30, 1, 0, 0), true},
		{"2025 at October switch", epochUTC(2025, time.October, 26, 1, 0, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.summer, lt.IsSummerTime(tc.epoch))
		})
	}
}

// The z1/z2 flags must flip exactly at the boundary: the minute before
// the switch still encodes CET, the switch minute encodes CEST.
func TestLocalTime_EncoderFlagsFlipAtBoundary(t *testing.T) {
	var lt LocalTime

	var before = epochUTC(2024, time.March, 31, 0, 59, 0)
	var at = epochUTC(2024, time.March, 31, 1, 0, 0)

	vBefore, err := EncodeTimecode(lt.Tuple(before), lt.IsSummerTime(before))
	assert.NoError(t, err)
	vAt, err := EncodeTimecode(lt.Tuple(at), lt.IsSummerTime(at))
	assert.NoError(t, err)

	assert.Equal(t, SymbolZero, vBefore[17], "Z1 clear before the switch")
	assert.Equal(t, SymbolOne, vBefore[18], "Z2 set before the switch")
	assert.Equal(t, SymbolOne, vAt[17], "Z1 set from the switch on")
	assert.Equal(t, SymbolZero, vAt[18], "Z2 clear from the switch on")
}

func TestLocalTime_TupleConversion(t *testing.T) {
	var lt LocalTime

	// 2024-06-15 10:00:00 UTC is 12:00 CEST on a Saturday.
	var tt = lt.Tuple(epochUTC(2024, time.June, 15, 10, 0, 0))
	assert.Equal(t, TimeTuple{Year: 2024, Month: 6, Day: 15, Hour: 12, Weekday: 5}, tt)

	// 2024-01-01 00:00:00 UTC is 01:00 CET on a Monday.
	tt = lt.Tuple(epochUTC(2024, time.January, 1, 0, 0, 0))
	assert.Equal(t, TimeTuple{Year: 2024, Month: 1, Day: 1, Hour: 1, Weekday: 0}, tt)

	// The local offset can carry into the next day.
	tt = lt.Tuple(epochUTC(2024, time.January, 1, 23, 30, 45))
	assert.Equal(t, TimeTuple{Year: 2024, Month: 1, Day: 2, Hour: 0, Minute: 30, Second: 45, Weekday: 1}, tt)
}

func TestLocalTime_TupleEncodes(t *testing.T) {
	var lt LocalTime
	var tt = lt.Tuple(time.Now().Unix())
	var _, err = EncodeTimecode(tt, lt.IsSummerTime(time.Now().Unix()))
	assert.NoError(t, err, "the system clock must always produce an encodable tuple")
}

func TestLocalTime_AlignSecondEdge(t *testing.T) {
	var lt LocalTime
	lt.AlignSecondEdge()
	var after = time.Now()
	assert.Less(t, after.Nanosecond(), int(50*time.Millisecond),
		"should return just past a whole second")
}
