// Package temporal converts between the engine's epoch-integer temporal
// encodings and host-visible calendar-field values.
//
// Three symmetric codecs cross the boundary:
//   - Date ⇄ signed days since 1970-01-01
//   - Time ⇄ microseconds since midnight, in [0, 86_400_000_000)
//   - DateTime ⇄ signed microseconds since 1970-01-01T00:00:00
//
// All conversions use the proleptic Gregorian calendar. Sub-second values
// are always reported at microsecond precision: finer native precision is
// truncated, never rounded, and the fractional part never exceeds 999999.
package temporal

import (
	"math"
	"time"

	"github.com/vireodata/vireo/pkg/errors"
)

// CalendarISO tags calendar values with the ISO 8601 proleptic Gregorian
// calendar, the only calendar system the engine encodes.
const CalendarISO = "iso8601"

// MicrosecondPrecision is the number of sub-second decimal digits exposed
// to the host.
const MicrosecondPrecision = 6

const (
	microsPerSecond = 1_000_000
	microsPerDay    = 86_400 * microsPerSecond
	secondsPerDay   = 86_400
)

var epochDate = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Microseconds is a sub-second fraction paired with its decimal precision
// denominator. Precision is always MicrosecondPrecision for values produced
// by this package.
type Microseconds struct {
	Value     int
	Precision int
}

// Date is a host-visible calendar date.
type Date struct {
	Calendar string
	Year     int
	Month    int
	Day      int
}

// Time is a host-visible wall-clock time.
type Time struct {
	Calendar    string
	Hour        int
	Minute      int
	Second      int
	Microsecond Microseconds
}

// DateTime is a host-visible calendar date paired with a wall-clock time,
// without a zone offset.
type DateTime struct {
	Calendar    string
	Year        int
	Month       int
	Day         int
	Hour        int
	Minute      int
	Second      int
	Microsecond Microseconds
}

// NewDate builds a Date, rejecting impossible field combinations. Day 31 in
// a 30-day month is an error, never rolled into the next month.
func NewDate(year, month, day int) (Date, error) {
	if month < 1 || month > 12 {
		return Date{}, errors.Newf(errors.ErrorTypeCalendar, "month %d out of range 1..12", month)
	}
	if day < 1 || day > 31 {
		return Date{}, errors.Newf(errors.ErrorTypeCalendar, "day %d out of range 1..31", day)
	}
	// time.Date normalizes out-of-range fields; a round-trip mismatch means
	// the combination does not exist on the calendar.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	y, m, d := t.Date()
	if y != year || int(m) != month || d != day {
		return Date{}, errors.Newf(errors.ErrorTypeCalendar,
			"date %04d-%02d-%02d does not exist", year, month, day)
	}
	return Date{Calendar: CalendarISO, Year: year, Month: month, Day: day}, nil
}

// NewTime builds a Time, rejecting out-of-range fields.
func NewTime(hour, minute, second, micros int) (Time, error) {
	if hour < 0 || hour > 23 {
		return Time{}, errors.Newf(errors.ErrorTypeCalendar, "hour %d out of range 0..23", hour)
	}
	if minute < 0 || minute > 59 {
		return Time{}, errors.Newf(errors.ErrorTypeCalendar, "minute %d out of range 0..59", minute)
	}
	if second < 0 || second > 59 {
		return Time{}, errors.Newf(errors.ErrorTypeCalendar, "second %d out of range 0..59", second)
	}
	if micros < 0 || micros > 999_999 {
		return Time{}, errors.Newf(errors.ErrorTypeCalendar, "microsecond %d out of range 0..999999", micros)
	}
	return Time{
		Calendar:    CalendarISO,
		Hour:        hour,
		Minute:      minute,
		Second:      second,
		Microsecond: Microseconds{Value: micros, Precision: MicrosecondPrecision},
	}, nil
}

// NewDateTime builds a DateTime, validating both halves.
func NewDateTime(year, month, day, hour, minute, second, micros int) (DateTime, error) {
	d, err := NewDate(year, month, day)
	if err != nil {
		return DateTime{}, err
	}
	t, err := NewTime(hour, minute, second, micros)
	if err != nil {
		return DateTime{}, err
	}
	return DateTime{
		Calendar:    CalendarISO,
		Year:        d.Year,
		Month:       d.Month,
		Day:         d.Day,
		Hour:        t.Hour,
		Minute:      t.Minute,
		Second:      t.Second,
		Microsecond: t.Microsecond,
	}, nil
}

// DaysToDate converts a signed day count relative to 1970-01-01 into a Date.
func DaysToDate(days int32) Date {
	t := epochDate.AddDate(0, 0, int(days))
	y, m, d := t.Date()
	return Date{Calendar: CalendarISO, Year: y, Month: int(m), Day: d}
}

// DateToDays converts a Date into its signed day count relative to
// 1970-01-01, rejecting impossible dates.
func DateToDays(d Date) (int32, error) {
	v, err := NewDate(d.Year, d.Month, d.Day)
	if err != nil {
		return 0, err
	}
	t := time.Date(v.Year, time.Month(v.Month), v.Day, 0, 0, 0, 0, time.UTC)
	// Midnight UTC is always an exact multiple of a day, so the division is
	// exact for negative counts too.
	return int32(t.Unix() / secondsPerDay), nil
}

// MicrosToTime converts microseconds since midnight into a Time. Inputs
// outside [0, 86_400_000_000) violate the caller contract and are rejected.
func MicrosToTime(us int64) (Time, error) {
	if us < 0 || us >= microsPerDay {
		return Time{}, errors.Newf(errors.ErrorTypeValidation,
			"time microseconds %d out of range [0, 86400000000)", us)
	}
	secs := int(us / microsPerSecond)
	frac := int(us % microsPerSecond)
	return Time{
		Calendar:    CalendarISO,
		Hour:        secs / 3600,
		Minute:      (secs / 60) % 60,
		Second:      secs % 60,
		Microsecond: Microseconds{Value: clampMicros(frac), Precision: MicrosecondPrecision},
	}, nil
}

// TimeToMicros converts a Time into microseconds since midnight.
func TimeToMicros(t Time) (int64, error) {
	v, err := NewTime(t.Hour, t.Minute, t.Second, t.Microsecond.Value)
	if err != nil {
		return 0, err
	}
	secs := int64(v.Hour)*3600 + int64(v.Minute)*60 + int64(v.Second)
	return secs*microsPerSecond + int64(v.Microsecond.Value), nil
}

// MicrosToDateTime converts signed microseconds since the epoch into a
// DateTime. Negative inputs resolve to calendar values before 1970: the
// count splits into floored whole seconds and a remainder in [0, 1_000_000),
// so -1 becomes 1969-12-31 23:59:59.999999 rather than a negative fraction
// of 1970-01-01.
func MicrosToDateTime(us int64) DateTime {
	secs := us / microsPerSecond
	rem := us % microsPerSecond
	if rem < 0 {
		secs--
		rem += microsPerSecond
	}
	t := time.Unix(secs, rem*1000).UTC()
	y, m, d := t.Date()
	return DateTime{
		Calendar:    CalendarISO,
		Year:        y,
		Month:       int(m),
		Day:         d,
		Hour:        t.Hour(),
		Minute:      t.Minute(),
		Second:      t.Second(),
		Microsecond: Microseconds{Value: clampMicros(t.Nanosecond() / 1000), Precision: MicrosecondPrecision},
	}
}

// DateTimeToMicros converts a DateTime into signed microseconds since the
// epoch. When the duration exceeds microsecond-resolution range the codec
// falls back to millisecond arithmetic scaled to microseconds, losing
// sub-millisecond precision only in that extreme case.
func DateTimeToMicros(dt DateTime) (int64, error) {
	v, err := NewDateTime(dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Microsecond.Value)
	if err != nil {
		return 0, err
	}
	t := time.Date(v.Year, time.Month(v.Month), v.Day, v.Hour, v.Minute, v.Second,
		v.Microsecond.Value*1000, time.UTC)
	secs := t.Unix()

	if secs > math.MaxInt64/microsPerSecond || secs < math.MinInt64/microsPerSecond {
		millis := secs*1000 + int64(t.Nanosecond())/1_000_000
		return millis * 1000, nil
	}
	return secs*microsPerSecond + int64(t.Nanosecond())/1000, nil
}

// ClampSubsecondMicros truncates a sub-second fraction to microsecond
// precision. Nanosecond inputs are divided down, never rounded up.
func ClampSubsecondMicros(nanos int64) int {
	return clampMicros(int(nanos / 1000))
}

// clampMicros limits the fractional count to 6 digits.
func clampMicros(us int) int {
	if us > 999_999 {
		return 999_999
	}
	return us
}
