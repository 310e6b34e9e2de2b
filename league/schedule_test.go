package league

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMatchDateFormats(t *testing.T) {
	want := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-06-01",
		" 2024-06-01 ",
		"2024-06-01T14:30:00Z",
		"2024/06/01",
	} {
		got, ok := ParseMatchDate(in, time.UTC)
		if assert.True(t, ok, in) {
			assert.True(t, want.Equal(got), "%q parsed as %v", in, got)
		}
	}

	for _, in := range []string{"", "   ", "not a date", "2024-13-45"} {
		_, ok := ParseMatchDate(in, time.UTC)
		assert.False(t, ok, in)
	}
}

func TestParseMatchDateUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	got, ok := ParseMatchDate("2024-06-01", loc)
	require.True(t, ok)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, 0, got.Hour())
}

func TestResolveSchedule(t *testing.T) {
	s, ok := ResolveSchedule("2024-06-01", "08:00", "15:00", time.UTC)
	require.True(t, ok)

	assert.Equal(t, time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC), s.Draw)
	assert.Equal(t, time.Date(2024, time.June, 1, 15, 0, 0, 0, time.UTC), s.End)
	assert.Equal(t, s.End.Add(WeighInWindow), s.WeighInCutoff)
	assert.Equal(t, time.Date(2024, time.June, 1, 16, 30, 0, 0, time.UTC), s.WeighInCutoff)
}

func TestResolveScheduleRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name, date, draw, end string
	}{
		{"no date", "", "08:00", "15:00"},
		{"bad date", "someday", "08:00", "15:00"},
		{"no draw", "2024-06-01", "", "15:00"},
		{"bad draw", "2024-06-01", "8am", "15:00"},
		{"no end", "2024-06-01", "08:00", ""},
		{"bad end", "2024-06-01", "08:00", "25:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := ResolveSchedule(tc.date, tc.draw, tc.end, time.UTC)
			assert.False(t, ok)
		})
	}
}

func TestParseMatchDateAmbiguousSlashes(t *testing.T) {
	got, ok := ParseMatchDate("12/01/2024", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseMatchDate("13/06/2024", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.June, 13, 0, 0, 0, 0, time.UTC), got)
}

func TestFormatTimeOfDay(t *testing.T) {
	d, ok := ParseTimeOfDay("8:05")
	require.True(t, ok)
	assert.Equal(t, "08:05", FormatTimeOfDay(d))
	assert.Equal(t, "00:00", FormatTimeOfDay(0))
	assert.Equal(t, "23:59", FormatTimeOfDay(23*time.Hour+59*time.Minute))
}
