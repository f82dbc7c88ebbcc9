package dcf77

/*------------------------------------------------------------------
 *
 * Purpose:   	Encode wall clock time into the DCF77 one-minute
 *		timecode vector.
 *
 * Description:	DCF77 transmits one bit per second.  Seconds 0..58
 *		carry the amplitude-modulated payload (100 ms low pulse
 *		for 0, 200 ms for 1), second 59 has no amplitude drop
 *		and marks the start of the next minute.
 *
 *		The numeric fields are BCD, least significant bit first,
 *		ones digit before tens digit, truncated to the field
 *		width.  Three even-parity bits cover minute, hour and
 *		the date block.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"strings"
)

// Symbol is the payload unit for one second of the transmission.
type Symbol uint8

const (
	SymbolZero Symbol = iota
	SymbolOne
	SymbolMinuteMark
)

// TimeTuple is an immutable snapshot from the time source.
// Weekday is 0=Monday .. 6=Sunday, matching the convention of the
// time source, not ISO; the encoder adds one for the wire format.
type TimeTuple struct {
	Year    int // full year, e.g. 2024; only year%100 is transmitted
	Month   int // 1 .. 12
	Day     int // 1 .. days in month
	Hour    int // 0 .. 23
	Minute  int // 0 .. 59
	Second  int // 0 .. 59
	Weekday int // 0=Mon .. 6=Sun
}

func (t TimeTuple) String() string {
	var wday = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}[t.Weekday%7]
	return fmt.Sprintf("%s %04d-%02d-%02d %02d:%02d:%02d", wday, t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
}

// ProtocolInputError reports a TimeTuple field that cannot be encoded.
// A malformed field is never clamped; the minute that would have carried
// it is simply not built.
type ProtocolInputError struct {
	Field string
	Value int
}

func (e *ProtocolInputError) Error() string {
	return fmt.Sprintf("dcf77: timecode input %s=%d out of range", e.Field, e.Value)
}

var daysInMonth = [...]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// Validate checks that every field is calendar-valid.
func (t TimeTuple) Validate() error {
	if t.Year < 0 {
		return &ProtocolInputError{"year", t.Year}
	}
	if t.Month < 1 || t.Month > 12 {
		return &ProtocolInputError{"month", t.Month}
	}
	var maxDay = daysInMonth[t.Month-1]
	if t.Month == 2 && isLeapYear(t.Year) {
		maxDay = 29
	}
	if t.Day < 1 || t.Day > maxDay {
		return &ProtocolInputError{"day", t.Day}
	}
	if t.Hour < 0 || t.Hour > 23 {
		return &ProtocolInputError{"hour", t.Hour}
	}
	if t.Minute < 0 || t.Minute > 59 {
		return &ProtocolInputError{"minute", t.Minute}
	}
	if t.Second < 0 || t.Second > 59 {
		return &ProtocolInputError{"second", t.Second}
	}
	if t.Weekday < 0 || t.Weekday > 6 {
		return &ProtocolInputError{"weekday", t.Weekday}
	}
	return nil
}

// TimecodeVector is one minute of symbols, index = second of minute.
// Immutable once built.
type TimecodeVector [60]Symbol

/*-------------------------------------------------------------------
 *
 * Name:	EncodeTimecode
 *
 * Purpose:	Build the timecode vector for the minute described by t.
 *
 * Inputs:	t		- Time of the upcoming minute.
 *				  t.Second is ignored for encoding.
 *
 *		summerTime	- True while CEST is in effect.
 *				  Sets Z1 and clears Z2, or vice versa.
 *
 * Returns:	The 60 symbol vector, or a ProtocolInputError if any
 *		field is out of range.
 *
 * Bit layout:	 0       M   start of minute, always 0
 *		 1 .. 14     civil warning bits, all 0 here
 *		15       R   call bit, 0
 *		16       A1  summer time announcement, 0
 *		17       Z1  CEST in effect
 *		18       Z2  CET in effect
 *		19       A2  leap second announcement, 0
 *		20       S   start of encoded time, always 1
 *		21 .. 27     minute, BCD 1 2 4 8 10 20 40
 *		28       P1  even parity over 21 .. 28
 *		29 .. 34     hour, BCD 1 2 4 8 10 20
 *		35       P2  even parity over 29 .. 35
 *		36 .. 41     day of month, BCD 1 2 4 8 10 20
 *		42 .. 44     day of week, 1=Mon .. 7=Sun, BCD 1 2 4
 *		45 .. 49     month, BCD 1 2 4 8 10
 *		50 .. 57     year mod 100, BCD 1 2 4 8 10 20 40 80
 *		58       P3  even parity over 36 .. 58
 *		59           minute mark, no amplitude drop
 *
 *--------------------------------------------------------------------*/

func EncodeTimecode(t TimeTuple, summerTime bool) (*TimecodeVector, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var z1 = Symbol(0)
	if summerTime {
		z1 = 1
	}

	var v TimecodeVector
	var i = 15 // 0..14 already SymbolZero

	i = put(&v, i, 0)      // R
	i = put(&v, i, 0)      // A1
	i = put(&v, i, z1)     // Z1
	i = put(&v, i, 1-z1)   // Z2
	i = put(&v, i, 0)      // A2
	i = put(&v, i, 1)      // S
	i = putBCD(&v, i, t.Minute, 7)
	i = putParity(&v, i, 21)
	i = putBCD(&v, i, t.Hour, 6)
	i = putParity(&v, i, 29)
	i = putBCD(&v, i, t.Day, 6)
	i = putBCD(&v, i, t.Weekday+1, 3)
	i = putBCD(&v, i, t.Month, 5)
	i = putBCD(&v, i, t.Year%100, 8)
	i = putParity(&v, i, 36)
	put(&v, i, SymbolMinuteMark)

	return &v, nil
}

func put(v *TimecodeVector, i int, s Symbol) int {
	v[i] = s
	return i + 1
}

// putBCD packs value as BCD, LSB first, ones digit then tens digit,
// truncated to width bits.
func putBCD(v *TimecodeVector, i int, value int, width int) int {
	for bit := 0; bit < width; bit++ {
		if bit%4 == 0 && bit > 0 {
			value /= 10
		}
		v[i+bit] = Symbol((value % 10 >> (bit % 4)) & 1)
	}
	return i + width
}

// putParity writes the bit that makes v[from..i] sum to an even number.
func putParity(v *TimecodeVector, i int, from int) int {
	var sum Symbol
	for j := from; j < i; j++ {
		sum += v[j]
	}
	v[i] = sum & 1
	return i + 1
}

// fieldGroups delimit the String output, matching the presentation of
// dcf77logs.de so the vector can be pasted into a reference decoder.
// Second 59 is omitted; it carries no amplitude modulation.
var fieldGroups = [...][2]int{{0, 15}, {15, 21}, {21, 29}, {29, 36}, {36, 42}, {42, 45}, {45, 50}, {50, 59}}

func (v *TimecodeVector) String() string {
	var sb strings.Builder
	sb.WriteByte('0')
	for _, g := range fieldGroups {
		sb.WriteByte('-')
		for i := g[0]; i < g[1]; i++ {
			sb.WriteByte('0' + byte(v[i]))
		}
	}
	return sb.String()
}
