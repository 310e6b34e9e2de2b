package league

import (
	"slices"

	"github.com/Dosada05/angling-league/models"
)

// RegisteredResults keeps the results of anglers currently on the match
// roster and drops results belonging to other matches.
func RegisteredResults(match models.Match, results []models.Result) []models.Result {
	roster := match.RosterSet()
	kept := make([]models.Result, 0, len(results))
	for _, r := range results {
		if r.MatchID != match.ID {
			continue
		}
		if _, ok := roster[r.UserID]; !ok {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// FillRoster returns the registered anglers' results with a default NYW row
// added for every registered angler who has no result yet. The placeholder
// rows are never persisted.
func FillRoster(match models.Match, results []models.Result) []models.Result {
	kept := RegisteredResults(match, results)
	seen := make(map[string]struct{}, len(kept))
	for _, r := range kept {
		seen[r.UserID] = struct{}{}
	}

	missing := make([]string, 0)
	for _, id := range match.RegisteredAnglers {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}
	slices.Sort(missing)

	for _, id := range missing {
		kept = append(kept, models.Result{
			MatchID:  match.ID,
			SeriesID: match.SeriesID,
			ClubID:   match.ClubID,
			UserID:   id,
			Status:   models.ResultStatusNYW,
		})
	}
	return kept
}
