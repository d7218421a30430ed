package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodata/vireo/pkg/errors"
)

func TestDaysToDateRoundTrip(t *testing.T) {
	for _, days := range []int32{0, 1, -1, 365, -365, 19_000, -25_567, 100_000, -100_000} {
		d := DaysToDate(days)
		back, err := DateToDays(d)
		require.NoError(t, err)
		assert.Equal(t, days, back, "round trip for day count %d (%v)", days, d)
	}
}

func TestDaysToDateKnownValues(t *testing.T) {
	assert.Equal(t, Date{CalendarISO, 1970, 1, 1}, DaysToDate(0))
	assert.Equal(t, Date{CalendarISO, 1970, 1, 2}, DaysToDate(1))
	assert.Equal(t, Date{CalendarISO, 1969, 12, 31}, DaysToDate(-1))
	// 2000-02-29, a leap day
	assert.Equal(t, Date{CalendarISO, 2000, 2, 29}, DaysToDate(11016))
}

func TestDateRejectsImpossibleFields(t *testing.T) {
	cases := []struct {
		year, month, day int
	}{
		{2023, 4, 31},  // 30-day month
		{2023, 2, 29},  // not a leap year
		{1900, 2, 29},  // centuries are not leap years
		{2023, 13, 1},  // month out of range
		{2023, 0, 1},   // month out of range
		{2023, 6, 0},   // day out of range
		{2023, 6, 32},  // day out of range
	}
	for _, c := range cases {
		_, err := NewDate(c.year, c.month, c.day)
		require.Error(t, err, "%04d-%02d-%02d", c.year, c.month, c.day)
		assert.True(t, errors.IsType(err, errors.ErrorTypeCalendar))

		_, err = DateToDays(Date{CalendarISO, c.year, c.month, c.day})
		assert.Error(t, err)
	}

	// Leap day in an actual leap year is fine.
	_, err := NewDate(2024, 2, 29)
	assert.NoError(t, err)
}

func TestMicrosToTimeRoundTrip(t *testing.T) {
	for _, us := range []int64{0, 1, 999_999, 1_000_000, 43_200_000_000, 86_399_999_999} {
		tm, err := MicrosToTime(us)
		require.NoError(t, err)
		back, err := TimeToMicros(tm)
		require.NoError(t, err)
		assert.Equal(t, us, back)
	}
}

func TestMicrosToTimeRejectsOutOfRange(t *testing.T) {
	for _, us := range []int64{-1, 86_400_000_000, 86_400_000_001} {
		_, err := MicrosToTime(us)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	}
}

func TestMicrosToTimeFields(t *testing.T) {
	tm, err := MicrosToTime(3_661_000_042) // 01:01:01.000042
	require.NoError(t, err)
	assert.Equal(t, 1, tm.Hour)
	assert.Equal(t, 1, tm.Minute)
	assert.Equal(t, 1, tm.Second)
	assert.Equal(t, Microseconds{42, 6}, tm.Microsecond)
}

func TestNegativeTimestampResolvesBeforeEpoch(t *testing.T) {
	dt := MicrosToDateTime(-1)
	assert.Equal(t, 1969, dt.Year)
	assert.Equal(t, 12, dt.Month)
	assert.Equal(t, 31, dt.Day)
	assert.Equal(t, 23, dt.Hour)
	assert.Equal(t, 59, dt.Minute)
	assert.Equal(t, 59, dt.Second)
	assert.Equal(t, Microseconds{999_999, 6}, dt.Microsecond)
}

func TestDateTimeRoundTrip(t *testing.T) {
	values := []int64{
		0, 1, -1,
		1_000_000, -1_000_000,
		-999_999,
		1_680_000_000_000_000,  // 2023-03-28
		-2_208_988_800_000_000, // 1900-01-01
		253_402_300_799_999_999, // 9999-12-31 23:59:59.999999
	}
	for _, us := range values {
		dt := MicrosToDateTime(us)
		back, err := DateTimeToMicros(dt)
		require.NoError(t, err)
		assert.Equal(t, us, back, "round trip for %d (%v)", us, dt)
	}
}

func TestDateTimeExactNegativeSecondBoundary(t *testing.T) {
	// Exactly -1s must not pick up the floored-division adjustment twice.
	dt := MicrosToDateTime(-1_000_000)
	assert.Equal(t, 59, dt.Second)
	assert.Equal(t, 0, dt.Microsecond.Value)

	dt = MicrosToDateTime(-1_000_001)
	assert.Equal(t, 58, dt.Second)
	assert.Equal(t, 999_999, dt.Microsecond.Value)
}

func TestDateTimeRejectsImpossibleFields(t *testing.T) {
	_, err := DateTimeToMicros(DateTime{
		Calendar: CalendarISO,
		Year:     2023, Month: 2, Day: 30,
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCalendar))

	_, err = DateTimeToMicros(DateTime{
		Calendar: CalendarISO,
		Year:     2023, Month: 6, Day: 15, Hour: 24,
	})
	assert.Error(t, err)
}

func TestSubsecondClampTruncates(t *testing.T) {
	// 1500 nanoseconds is 1 microsecond after truncation, not 2.
	assert.Equal(t, 1, ClampSubsecondMicros(1500))
	assert.Equal(t, 0, ClampSubsecondMicros(999))
	assert.Equal(t, 999_999, ClampSubsecondMicros(999_999_999))
}

func TestTimeConstructionBounds(t *testing.T) {
	_, err := NewTime(23, 59, 59, 999_999)
	assert.NoError(t, err)

	for _, c := range [][4]int{
		{24, 0, 0, 0},
		{-1, 0, 0, 0},
		{0, 60, 0, 0},
		{0, 0, 60, 0},
		{0, 0, 0, 1_000_000},
		{0, 0, 0, -1},
	} {
		_, err := NewTime(c[0], c[1], c[2], c[3])
		assert.Error(t, err, "%v", c)
	}
}
