package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRRuleBasic(t *testing.T) {
	r, err := ParseRRule("FREQ=WEEKLY;INTERVAL=2;COUNT=5;WKST=SU")
	require.NoError(t, err)
	require.Equal(t, FrequencyWeekly, r.Freq)
	require.Equal(t, 2, r.Interval)
	require.Equal(t, 5, r.Count)
	require.Equal(t, time.Sunday, r.WkSt)
}

func TestParseRRuleByDayOrdinal(t *testing.T) {
	r, err := ParseRRule("FREQ=MONTHLY;BYDAY=2TU,-1FR")
	require.NoError(t, err)
	require.Len(t, r.ByDay, 2)
	require.Equal(t, WeekdayNum{Ordinal: 2, Day: time.Tuesday}, r.ByDay[0])
	require.Equal(t, WeekdayNum{Ordinal: -1, Day: time.Friday}, r.ByDay[1])
}

func TestParseRRuleRejectsMissingFreq(t *testing.T) {
	_, err := ParseRRule("COUNT=3")
	require.ErrorIs(t, err, ErrInvalidRRule)
}

func TestParseRRuleRejectsCountAndUntil(t *testing.T) {
	_, err := ParseRRule("FREQ=DAILY;COUNT=3;UNTIL=20240101")
	require.ErrorIs(t, err, ErrInvalidRRule)
}

func TestParseRRuleRejectsOrdinalByDayUnderWeekly(t *testing.T) {
	_, err := ParseRRule("FREQ=WEEKLY;BYDAY=1MO")
	require.ErrorIs(t, err, ErrInvalidRRule)
}

func TestParseRRuleDefaultsWkStToRFCMonday(t *testing.T) {
	r, err := ParseRRule("FREQ=WEEKLY;COUNT=3")
	require.NoError(t, err)
	require.Equal(t, time.Monday, r.WkSt)
}

func TestParseRRuleUsesConfiguredDefaultWkSt(t *testing.T) {
	r, err := ParseRRule("FREQ=WEEKLY;COUNT=3", time.Sunday)
	require.NoError(t, err)
	require.Equal(t, time.Sunday, r.WkSt)

	// An explicit WKST stanza still wins over the configured default.
	r, err = ParseRRule("FREQ=WEEKLY;COUNT=3;WKST=FR", time.Sunday)
	require.NoError(t, err)
	require.Equal(t, time.Friday, r.WkSt)
}

func TestParseRRuleRejectsOrdinalByDayWithYearlyByWeekNo(t *testing.T) {
	_, err := ParseRRule("FREQ=YEARLY;BYWEEKNO=20;BYDAY=1MO")
	require.ErrorIs(t, err, ErrInvalidRRule)
}

func TestParseRRuleNegativeByMonthDay(t *testing.T) {
	r, err := ParseRRule("FREQ=MONTHLY;BYMONTHDAY=-1")
	require.NoError(t, err)
	require.Equal(t, []int{-1}, r.ByMonthDay)
}

func TestIsoWeekCountYear(t *testing.T) {
	// 2020-01-01 was a Wednesday; with WKST=Monday, a leap year starting on
	// Wednesday has 53 ISO weeks.
	require.Equal(t, 53, isoWeekCountYear(2020, time.Monday))
	// 2021-01-01 was a Friday: an ordinary 52-week year.
	require.Equal(t, 52, isoWeekCountYear(2021, time.Monday))
}
