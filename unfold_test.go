package ics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadLineUnfoldsContinuation(t *testing.T) {
	raw := "SUMMARY:This is a long\r\n description that wraps\r\nDTSTART:20240101\r\n"
	cs := NewCalendarStream(strings.NewReader(raw))

	l1, err := cs.ReadLine()
	require.NoError(t, err)
	require.Equal(t, ContentLine("SUMMARY:This is a longdescription that wraps"), *l1)

	l2, err := cs.ReadLine()
	require.NoError(t, err)
	require.Equal(t, ContentLine("DTSTART:20240101"), *l2)
}

func TestReadLineStripsTrailingControlBytes(t *testing.T) {
	raw := "SUMMARY:hello\x00\x1f  \r\n"
	cs := NewCalendarStream(strings.NewReader(raw))
	l, err := cs.ReadLine()
	require.NoError(t, err)
	require.Equal(t, ContentLine("SUMMARY:hello"), *l)
}

func TestReadLineTabContinuation(t *testing.T) {
	raw := "DESCRIPTION:part one\r\n\tpart two\r\n"
	cs := NewCalendarStream(strings.NewReader(raw))
	l, err := cs.ReadLine()
	require.NoError(t, err)
	require.Equal(t, ContentLine("DESCRIPTION:part onepart two"), *l)
}
