package ics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleCalendar = "" +
	"BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:weekly-standup@example.com\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTART:20240101T090000Z\r\n" +
	"DTEND:20240101T093000Z\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=3\r\n" +
	"EXDATE:20240108T090000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:weekly-standup@example.com\r\n" +
	"SUMMARY:Standup (moved)\r\n" +
	"DTSTART:20240115T140000Z\r\n" +
	"DTEND:20240115T143000Z\r\n" +
	"RECURRENCE-ID:20240115T090000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:one-off@example.com\r\n" +
	"SUMMARY:Kickoff\r\n" +
	"DTSTART:20240301T100000Z\r\n" +
	"DTEND:20240301T110000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseExpandsAndSplicesOverrides(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	events, err := Parse(strings.NewReader(sampleCalendar), cfg)
	require.NoError(t, err)

	// 3 weekly candidates minus 1 EXDATE = 2 standups, the 2nd of which is
	// replaced by the RECURRENCE-ID override, plus the unrelated one-off.
	require.Len(t, events, 3)

	require.Equal(t, "weekly-standup@example.com", events[0].UID)
	require.Equal(t, "Standup", events[0].Summary)

	require.Equal(t, "weekly-standup@example.com", events[1].UID)
	require.Equal(t, "Standup (moved)", events[1].Summary)
	require.True(t, events[1].Overridden)
	require.Equal(t, 14, events[1].Start.Hour)

	require.Equal(t, "one-off@example.com", events[2].UID)
	require.False(t, events[2].IsRecurring)
}

func TestParseSkipRecurrence(t *testing.T) {
	cfg, err := NewConfig(WithSkipRecurrence(true))
	require.NoError(t, err)

	events, err := Parse(strings.NewReader(sampleCalendar), cfg)
	require.NoError(t, err)

	// Only base occurrences: one per source VEVENT (3 events in the fixture).
	require.Len(t, events, 3)
}

func TestParseEmitsOrphanedOverrideStandalone(t *testing.T) {
	raw := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:orphan@example.com\r\n" +
		"SUMMARY:Rescheduled instance\r\n" +
		"DTSTART:20240220T140000Z\r\n" +
		"DTEND:20240220T150000Z\r\n" +
		// No base VEVENT shares this UID, so this RECURRENCE-ID can never be
		// spliced into a generated occurrence.
		"RECURRENCE-ID:20240201T090000Z\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	cfg, err := NewConfig()
	require.NoError(t, err)
	events, err := Parse(strings.NewReader(raw), cfg)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "orphan@example.com", events[0].UID)
	require.Equal(t, "Rescheduled instance", events[0].Summary)
	require.True(t, events[0].Overridden)
	require.Equal(t, 14, events[0].Start.Hour)
}

func TestParseKeepsBaseEventWhenRRuleInvalid(t *testing.T) {
	raw := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:bad-rrule@example.com\r\n" +
		"SUMMARY:Still happens once\r\n" +
		"DTSTART:20240401T100000Z\r\n" +
		// COUNT and UNTIL together is illegal; the recurrence is dropped,
		// not the event.
		"RRULE:FREQ=DAILY;COUNT=3;UNTIL=20240410T000000Z\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	cfg, err := NewConfig()
	require.NoError(t, err)
	events, err := Parse(strings.NewReader(raw), cfg)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "bad-rrule@example.com", events[0].UID)
	require.False(t, events[0].IsRecurring)
}

func TestParseExcludesDateOnlyExdateFromTimedOccurrences(t *testing.T) {
	raw := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:weekly-review@example.com\r\n" +
		"SUMMARY:Weekly review\r\n" +
		"DTSTART;TZID=Europe/London:20190911T095000\r\n" +
		"RRULE:FREQ=WEEKLY;BYDAY=WE;COUNT=7\r\n" +
		// Date-only EXDATEs, no time component: each must still exclude the
		// 09:50 occurrence that falls on that calendar date.
		"EXDATE:20190911\r\n" +
		"EXDATE:20190925\r\n" +
		"EXDATE:20191009\r\n" +
		"EXDATE:20191023\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	cfg, err := NewConfig()
	require.NoError(t, err)
	events, err := Parse(strings.NewReader(raw), cfg)
	require.NoError(t, err)

	require.Len(t, events, 3)
	require.Equal(t, 18, events[0].Start.Day)
	require.Equal(t, 9, events[0].Start.Month)
	require.Equal(t, 2, events[1].Start.Day)
	require.Equal(t, 10, events[1].Start.Month)
	require.Equal(t, 16, events[2].Start.Day)
	require.Equal(t, 10, events[2].Start.Month)
	for _, e := range events {
		require.Equal(t, 9, e.Start.Hour)
		require.Equal(t, 50, e.Start.Minute)
	}
}

func TestParseHandlesUnfoldedContinuation(t *testing.T) {
	raw := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\nBEGIN:VEVENT\r\n" +
		"UID:fold@example.com\r\nSUMMARY:A very long summary that wr\r\n aps across a fold\r\n" +
		"DTSTART:20240601T100000Z\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"

	cfg, err := NewConfig()
	require.NoError(t, err)
	events, err := Parse(strings.NewReader(raw), cfg)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "A very long summary that wraps across a fold", events[0].Summary)
}
