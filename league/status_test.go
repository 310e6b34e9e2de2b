package league

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/angling-league/models"
)

func at(t *testing.T, date, clock string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.UTC)
	if err != nil {
		t.Fatalf("bad test time %s %s: %v", date, clock, err)
	}
	return ts
}

func testMatch() models.Match {
	return models.Match{
		ID:       "m1",
		Date:     "2024-06-01",
		DrawTime: "08:00",
		EndTime:  "15:00",
		Status:   models.MatchStatusUpcoming,
	}
}

func TestDeriveStatusScenarioA(t *testing.T) {
	m := testMatch()
	cases := []struct {
		now  string
		want models.MatchStatus
	}{
		{"07:30", models.MatchStatusUpcoming},
		{"08:00", models.MatchStatusUpcoming},
		{"09:00", models.MatchStatusInProgress},
		{"15:00", models.MatchStatusInProgress},
		{"15:05", models.MatchStatusWeighIn},
		{"16:30", models.MatchStatusWeighIn},
		{"16:35", models.MatchStatusCompleted},
	}
	for _, c := range cases {
		t.Run(c.now, func(t *testing.T) {
			assert.Equal(t, c.want, DeriveStatus(m, at(t, "2024-06-01", c.now)))
		})
	}
}

func TestDeriveStatusCancelledIsAbsorbing(t *testing.T) {
	m := testMatch()
	m.Status = models.MatchStatusCancelled
	for _, now := range []string{"00:00", "09:00", "15:05", "23:59"} {
		assert.Equal(t, models.MatchStatusCancelled, DeriveStatus(m, at(t, "2024-06-01", now)))
	}
	assert.Equal(t, models.MatchStatusCancelled, DeriveStatus(m, at(t, "2030-01-01", "12:00")))

	m.DrawTime = "garbage"
	assert.Equal(t, models.MatchStatusCancelled, DeriveStatus(m, at(t, "2024-06-01", "12:00")))
}

func TestDeriveStatusFailsOpenOnMalformedFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(m *models.Match)
	}{
		{"missing draw", func(m *models.Match) { m.DrawTime = "" }},
		{"missing end", func(m *models.Match) { m.EndTime = "" }},
		{"draw not a time", func(m *models.Match) { m.DrawTime = "eight" }},
		{"end out of range", func(m *models.Match) { m.EndTime = "25:00" }},
		{"end with seconds", func(m *models.Match) { m.EndTime = "15:00:00" }},
		{"missing date", func(m *models.Match) { m.Date = "" }},
		{"date not a date", func(m *models.Match) { m.Date = "next saturday" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for _, persisted := range []models.MatchStatus{models.MatchStatusUpcoming, models.MatchStatusWeighIn, models.MatchStatusCompleted} {
				m := testMatch()
				m.Status = persisted
				c.mutate(&m)
				for _, now := range []string{"00:01", "09:00", "15:05", "23:00"} {
					assert.Equal(t, persisted, DeriveStatus(m, at(t, "2024-06-01", now)))
				}
			}
		})
	}
}

func TestDeriveStatusIsMonotonic(t *testing.T) {
	order := map[models.MatchStatus]int{
		models.MatchStatusUpcoming:   0,
		models.MatchStatusInProgress: 1,
		models.MatchStatusWeighIn:    2,
		models.MatchStatusCompleted:  3,
	}
	schedules := [][2]string{
		{"08:00", "15:00"},
		{"06:30", "06:30"},
		{"14:00", "09:00"}, // end before draw
		{"00:00", "23:59"},
	}
	for _, s := range schedules {
		m := testMatch()
		m.DrawTime, m.EndTime = s[0], s[1]
		now := at(t, "2024-05-31", "20:00")
		prev := -1
		for i := 0; i < 48*12; i++ {
			got := DeriveStatus(m, now)
			rank, ok := order[got]
			if assert.True(t, ok, "unexpected status %q", got) {
				assert.GreaterOrEqual(t, rank, prev, "status regressed at %s for %v", now, s)
				prev = rank
			}
			now = now.Add(5 * time.Minute)
		}
		assert.Equal(t, 3, prev)
	}
}

func TestDeriveStatusIsDeterministic(t *testing.T) {
	m := testMatch()
	now := at(t, "2024-06-01", "15:05")
	first := DeriveStatus(m, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DeriveStatus(m, now))
	}
}

func TestDeriveStatusUsesCalendarDayOfStoredDate(t *testing.T) {
	m := testMatch()
	m.Date = "2024-06-01T00:00:00Z"
	loc := time.FixedZone("BST", 3600)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, loc)
	assert.Equal(t, models.MatchStatusInProgress, DeriveStatus(m, now))

	m.Date = "06/01/2024"
	assert.Equal(t, models.MatchStatusInProgress, DeriveStatus(m, now))
}

func TestParseTimeOfDay(t *testing.T) {
	d, ok := ParseTimeOfDay("08:30")
	assert.True(t, ok)
	assert.Equal(t, 8*time.Hour+30*time.Minute, d)

	d, ok = ParseTimeOfDay(" 23:59 ")
	assert.True(t, ok)
	assert.Equal(t, 23*time.Hour+59*time.Minute, d)

	for _, bad := range []string{"", "8", "08-30", "24:00", "12:60", "noon"} {
		_, ok := ParseTimeOfDay(bad)
		assert.False(t, ok, bad)
	}
}

func TestFixedClock(t *testing.T) {
	ts := at(t, "2024-06-01", "10:00")
	assert.Equal(t, ts, FixedClock(ts).Now())
}
