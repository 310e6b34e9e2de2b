package league

import (
	"cmp"
	"slices"

	"github.com/Dosada05/angling-league/models"
)

// AggregateStandings builds the league table of a series.
//
// A result counts only if its match belongs to the series and its angler is
// currently on that match's roster. Each match is ranked by section, with
// anglers who have no section label ranked together, and an angler's total is
// the sum of their section positions over the matches they have a counted
// result in. Matches an angler did not fish add nothing to their total.
//
// Rows are ordered by total ascending, then by angler id, and ranked 1..n.
// series.IsCompleted does not affect the result.
func AggregateStandings(series models.Series, matches []models.Match, results []models.Result) []models.Standing {
	seriesMatches := make([]models.Match, 0, len(matches))
	seenMatch := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if m.SeriesID != series.ID {
			continue
		}
		if _, dup := seenMatch[m.ID]; dup {
			continue
		}
		seenMatch[m.ID] = struct{}{}
		seriesMatches = append(seriesMatches, m)
	}
	slices.SortFunc(seriesMatches, func(a, b models.Match) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	byMatch := make(map[string][]models.Result, len(seriesMatches))
	for _, r := range results {
		byMatch[r.MatchID] = append(byMatch[r.MatchID], r)
	}

	rows := make(map[string]*models.Standing)
	for _, m := range seriesMatches {
		valid := latestPerAngler(RegisteredResults(m, byMatch[m.ID]))
		for section, group := range GroupBySection(valid) {
			positions := RankGroup(group)
			for _, r := range group {
				row, ok := rows[r.UserID]
				if !ok {
					row = &models.Standing{SeriesID: series.ID, AnglerID: r.UserID}
					rows[r.UserID] = row
				}
				if r.UserName != "" {
					row.AnglerName = r.UserName
				}
				pos := positions[r.UserID]
				row.TotalRank += pos
				row.MatchesFished++
				row.Matches = append(row.Matches, models.StandingMatchPosition{
					MatchID:         m.ID,
					Section:         section,
					SectionPosition: pos,
				})
			}
		}
	}

	standings := make([]models.Standing, 0, len(rows))
	for _, row := range rows {
		standings = append(standings, *row)
	}
	slices.SortFunc(standings, func(a, b models.Standing) int {
		if c := cmp.Compare(a.TotalRank, b.TotalRank); c != 0 {
			return c
		}
		return cmp.Compare(a.AnglerID, b.AnglerID)
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
