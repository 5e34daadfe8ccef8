package ics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProperty(t *testing.T) {
	tests := []struct {
		name  string
		input string
		token string
		value string
	}{
		{"simple", "SUMMARY:Team Sync", "SUMMARY", "Team Sync"},
		{"with param", "DTSTART;TZID=America/New_York:20240601T120000", "DTSTART", "20240601T120000"},
		{
			"quoted param with special chars",
			`ATTENDEE;CN="Doe, Jane":mailto:jane@example.com`,
			"ATTENDEE", "mailto:jane@example.com",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseProperty(ContentLine(tt.input))
			require.NoError(t, err)
			require.NotNil(t, p)
			require.Equal(t, tt.token, p.IANAToken)
			require.Equal(t, tt.value, p.Value)
		})
	}
}

func TestParsePropertyNoColonIsSkip(t *testing.T) {
	p, err := ParseProperty(ContentLine("not-a-property-line"))
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestParsePropertyParamOrderPreserved(t *testing.T) {
	p, err := ParseProperty(ContentLine("DTSTART;VALUE=DATE;TZID=UTC:20240601"))
	require.NoError(t, err)
	require.Equal(t, []string{"VALUE", "TZID"}, p.ParamOrder)
}

func TestQuoteIfNeeded(t *testing.T) {
	require.Equal(t, "plain", quoteIfNeeded("plain"))
	require.Equal(t, `"a:b"`, quoteIfNeeded("a:b"))
	require.Equal(t, `"a,b"`, quoteIfNeeded("a,b"))
	require.Equal(t, `"a;b"`, quoteIfNeeded("a;b"))
}

func TestToTextFromTextRoundTrip(t *testing.T) {
	raw := "line one\nwith; a comma, and semi;"
	require.Equal(t, raw, FromText(ToText(raw)))
}
