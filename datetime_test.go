package ics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseZonedMomentDate(t *testing.T) {
	zm, err := ParseZonedMoment("20240229", "")
	require.NoError(t, err)
	require.False(t, zm.HasTime)
	require.Equal(t, 2024, zm.Year)
	require.Equal(t, 2, zm.Month)
	require.Equal(t, 29, zm.Day)
}

func TestParseZonedMomentUTC(t *testing.T) {
	zm, err := ParseZonedMoment("20240601T120000Z", "")
	require.NoError(t, err)
	require.True(t, zm.HasTime)
	require.True(t, zm.IsUTC)
	require.Equal(t, 12, zm.Hour)
}

func TestParseZonedMomentInvalid(t *testing.T) {
	_, err := ParseZonedMoment("not-a-date", "")
	require.ErrorIs(t, err, ErrInvalidMoment)
}

func TestAddMonthsClampsToShorterMonth(t *testing.T) {
	jan31 := ZonedMoment{Year: 2024, Month: 1, Day: 31}
	feb := jan31.AddMonths(1)
	require.Equal(t, 2, feb.Month)
	require.Equal(t, 29, feb.Day) // 2024 is a leap year

	jan31.Year = 2023
	feb2023 := jan31.AddMonths(1)
	require.Equal(t, 28, feb2023.Day)
}

func TestAddDurationCarriesDays(t *testing.T) {
	start := ZonedMoment{Year: 2024, Month: 1, Day: 31, HasTime: true}
	next, err := ParseDuration("P1D")
	require.NoError(t, err)
	got := start.AddDuration(next)
	require.Equal(t, 2, got.Month)
	require.Equal(t, 1, got.Day)
}

func TestParseDurationVariants(t *testing.T) {
	d, err := ParseDuration("PT1H30M")
	require.NoError(t, err)
	require.Equal(t, 1, d.Hours)
	require.Equal(t, 30, d.Minutes)

	d, err = ParseDuration("-P1W")
	require.NoError(t, err)
	require.Equal(t, -1, d.Weeks)
}

func TestParseDurationRejectsEmpty(t *testing.T) {
	_, err := ParseDuration("P")
	require.ErrorIs(t, err, ErrInvalidDuration)
}

func TestParseDurationYearsAndMonths(t *testing.T) {
	d, err := ParseDuration("P1Y2M3D")
	require.NoError(t, err)
	require.Equal(t, 1, d.Years)
	require.Equal(t, 2, d.Months)
	require.Equal(t, 3, d.Days)

	d, err = ParseDuration("-P1Y")
	require.NoError(t, err)
	require.Equal(t, -1, d.Years)
}

func TestIsLeapYear(t *testing.T) {
	require.True(t, isLeapYear(2000))
	require.False(t, isLeapYear(1900))
	require.True(t, isLeapYear(2024))
	require.False(t, isLeapYear(2023))
}
