package league

import (
	"time"

	"github.com/Dosada05/angling-league/models"
)

// WeighInWindow is how long after the end of fishing results may still be
// weighed before a match counts as completed.
const WeighInWindow = 90 * time.Minute

// DeriveStatus returns the lifecycle status a match should have at now.
//
// Cancelled is absorbing. If the date, draw time or end time cannot be read
// the persisted status is returned unchanged. Otherwise the result moves
// forward only, through Upcoming, InProgress, WeighIn and Completed, as now
// increases. Times are interpreted in now's location.
func DeriveStatus(match models.Match, now time.Time) models.MatchStatus {
	if match.Status == models.MatchStatusCancelled {
		return models.MatchStatusCancelled
	}

	schedule, ok := ResolveSchedule(match.Date, match.DrawTime, match.EndTime, now.Location())
	if !ok {
		return match.Status
	}

	switch {
	case now.After(schedule.WeighInCutoff):
		return models.MatchStatusCompleted
	case now.After(schedule.End):
		return models.MatchStatusWeighIn
	case now.After(schedule.Draw):
		return models.MatchStatusInProgress
	default:
		return models.MatchStatusUpcoming
	}
}
