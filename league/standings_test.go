package league

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/angling-league/models"
)

func seriesFixture() (models.Series, []models.Match) {
	series := models.Series{ID: "s1", ClubID: "c1", Name: "Summer League"}
	matches := []models.Match{
		{ID: "m1", SeriesID: "s1", Date: "2024-05-01", RegisteredAnglers: []string{"A", "B"}},
		{ID: "m2", SeriesID: "s1", Date: "2024-06-01", RegisteredAnglers: []string{"A", "B"}},
	}
	return series, matches
}

func seriesResult(match, angler string, weight float64, section string) models.Result {
	return models.Result{MatchID: match, SeriesID: "s1", UserID: angler, UserName: "Angler " + angler, Weight: weight, Status: models.ResultStatusOK, Section: section}
}

func TestAggregateStandingsScenarioC(t *testing.T) {
	series, matches := seriesFixture()
	results := []models.Result{
		seriesResult("m1", "A", 6, "1"),
		seriesResult("m1", "B", 4, "1"),
		seriesResult("m2", "A", 2, "1"),
		seriesResult("m2", "B", 5, "1"),
	}

	standings := AggregateStandings(series, matches, results)
	require.Len(t, standings, 2)

	assert.Equal(t, "A", standings[0].AnglerID)
	assert.Equal(t, 3, standings[0].TotalRank)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, "B", standings[1].AnglerID)
	assert.Equal(t, 3, standings[1].TotalRank)
	assert.Equal(t, 2, standings[1].Rank)

	assert.Equal(t, []models.StandingMatchPosition{
		{MatchID: "m1", Section: "1", SectionPosition: 1},
		{MatchID: "m2", Section: "1", SectionPosition: 2},
	}, standings[0].Matches)
	assert.Equal(t, 2, standings[0].MatchesFished)
	assert.Equal(t, "Angler A", standings[0].AnglerName)
}

func TestAggregateStandingsScenarioDUnregisteredAnglerExcluded(t *testing.T) {
	series, matches := seriesFixture()
	matches[0].RegisteredAnglers = []string{"A", "B", "D"}
	results := []models.Result{
		seriesResult("m1", "D", 9, "1"),
		seriesResult("m1", "A", 6, "1"),
		seriesResult("m1", "B", 4, "1"),
	}

	before := AggregateStandings(series, matches, results)
	require.Len(t, before, 3)
	assert.Equal(t, "D", before[0].AnglerID)

	matches[0].RegisteredAnglers = []string{"A", "B"}
	after := AggregateStandings(series, matches, results)
	require.Len(t, after, 2)
	assert.Equal(t, "A", after[0].AnglerID)
	assert.Equal(t, 1, after[0].TotalRank)
	assert.Equal(t, "B", after[1].AnglerID)
	assert.Equal(t, 2, after[1].TotalRank)
	for _, s := range after {
		assert.NotEqual(t, "D", s.AnglerID)
	}
}

func TestAggregateStandingsAbsentMatchAddsNothing(t *testing.T) {
	series, matches := seriesFixture()
	matches[1].RegisteredAnglers = []string{"A", "B", "C"}
	results := []models.Result{
		seriesResult("m1", "A", 6, "1"),
		seriesResult("m1", "B", 4, "1"),
		seriesResult("m2", "A", 1, "1"),
		seriesResult("m2", "B", 2, "1"),
		seriesResult("m2", "C", 3, "1"),
	}

	standings := AggregateStandings(series, matches, results)
	require.Len(t, standings, 3)
	byID := make(map[string]models.Standing)
	for _, s := range standings {
		byID[s.AnglerID] = s
	}
	assert.Equal(t, 1, byID["C"].TotalRank)
	assert.Equal(t, 1, byID["C"].MatchesFished)
	assert.Equal(t, 4, byID["A"].TotalRank)
	assert.Equal(t, 4, byID["B"].TotalRank)
	assert.Equal(t, "C", standings[0].AnglerID)
}

func TestAggregateStandingsSectionsRankedSeparately(t *testing.T) {
	series, matches := seriesFixture()
	matches = matches[:1]
	matches[0].RegisteredAnglers = []string{"A", "B", "C", "D"}
	results := []models.Result{
		seriesResult("m1", "A", 10, "1"),
		seriesResult("m1", "B", 9, "1"),
		seriesResult("m1", "C", 2, "2"),
		{MatchID: "m1", UserID: "D", Status: models.ResultStatusDNW, Section: "2"},
	}

	standings := AggregateStandings(series, matches, results)
	require.Len(t, standings, 4)
	assert.Equal(t, []string{"A", "C", "B", "D"}, []string{standings[0].AnglerID, standings[1].AnglerID, standings[2].AnglerID, standings[3].AnglerID})
	assert.Equal(t, []int{1, 1, 2, 2}, []int{standings[0].TotalRank, standings[1].TotalRank, standings[2].TotalRank, standings[3].TotalRank})
	assert.Equal(t, []int{1, 2, 3, 4}, []int{standings[0].Rank, standings[1].Rank, standings[2].Rank, standings[3].Rank})
}

func TestAggregateStandingsIgnoresOtherSeriesAndCompletionFlag(t *testing.T) {
	series, matches := seriesFixture()
	matches = append(matches, models.Match{ID: "x1", SeriesID: "other", RegisteredAnglers: []string{"A", "B"}})
	results := []models.Result{
		seriesResult("m1", "A", 6, "1"),
		seriesResult("m1", "B", 4, "1"),
		seriesResult("x1", "B", 40, "1"),
		seriesResult("x1", "A", 4, "1"),
	}

	open := AggregateStandings(series, matches, results)
	series.IsCompleted = true
	closed := AggregateStandings(series, matches, results)

	assert.Equal(t, open, closed)
	require.Len(t, open, 2)
	assert.Equal(t, 1, open[0].TotalRank)
	assert.Equal(t, 1, open[0].MatchesFished)
}

func TestAggregateStandingsIsIdempotent(t *testing.T) {
	series, matches := seriesFixture()
	results := []models.Result{
		seriesResult("m1", "A", 6, "1"),
		seriesResult("m1", "B", 4, "2"),
		seriesResult("m2", "A", 2, ""),
		seriesResult("m2", "B", 5, ""),
	}
	assert.Equal(t, AggregateStandings(series, matches, results), AggregateStandings(series, matches, results))
}

func TestAggregateStandingsEmpty(t *testing.T) {
	series, matches := seriesFixture()
	assert.Empty(t, AggregateStandings(series, matches, nil))
	assert.Empty(t, AggregateStandings(series, nil, nil))
}
