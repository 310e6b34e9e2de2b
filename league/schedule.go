package league

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const timeOfDayLayout = "15:04"

// ParseTimeOfDay parses an HH:MM time of day and returns the offset from
// midnight.
func ParseTimeOfDay(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

// FormatTimeOfDay renders an offset from midnight as zero-padded HH:MM.
func FormatTimeOfDay(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int((d%time.Hour)/time.Minute))
}

// ParseMatchDate parses a calendar date and returns midnight of that day in
// loc. Only the year, month and day of the input are used, so a date stored
// with a time or zone component still names the same calendar day.
// Ambiguous numeric dates such as 01/06/2024 are read month first; one that
// only makes sense day first, such as 13/06/2024, is read that way.
func ParseMatchDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		var ok bool
		if t, ok = parseAnyDate(s, loc); !ok {
			return time.Time{}, false
		}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), true
}

// dateparse has panicked on some malformed inputs in the past.
func parseAnyDate(s string, loc *time.Location) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	parsed, err := dateparse.ParseIn(s, loc,
		dateparse.PreferMonthFirst(true),
		dateparse.RetryAmbiguousDateWithSwap(true))
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// Schedule is a match's draw and end instants resolved against its date.
type Schedule struct {
	Draw          time.Time
	End           time.Time
	WeighInCutoff time.Time
}

// ResolveSchedule combines the match date with its draw and end times in loc.
// It reports false when any of the three fields is missing or malformed.
func ResolveSchedule(date, drawTime, endTime string, loc *time.Location) (Schedule, bool) {
	day, ok := ParseMatchDate(date, loc)
	if !ok {
		return Schedule{}, false
	}
	draw, ok := ParseTimeOfDay(drawTime)
	if !ok {
		return Schedule{}, false
	}
	end, ok := ParseTimeOfDay(endTime)
	if !ok {
		return Schedule{}, false
	}
	s := Schedule{
		Draw: atTimeOfDay(day, draw),
		End:  atTimeOfDay(day, end),
	}
	s.WeighInCutoff = s.End.Add(WeighInWindow)
	return s, true
}

// atTimeOfDay uses wall-clock fields rather than Add so that a DST change on
// the match day does not shift the result.
func atTimeOfDay(day time.Time, offset time.Duration) time.Time {
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}
