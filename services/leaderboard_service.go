package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Dosada05/angling-league/league"
	"github.com/Dosada05/angling-league/models"
	"github.com/Dosada05/angling-league/repositories"
)

// NameResolver looks up angler display names. Unknown anglers are left out
// of the returned map.
type NameResolver interface {
	DisplayNames(ctx context.Context, anglerIDs []string) (map[string]string, error)
}

type LeaderboardRow struct {
	AnglerID        string              `json:"angler_id"`
	AnglerName      string              `json:"angler_name"`
	Peg             string              `json:"peg,omitempty"`
	Section         string              `json:"section,omitempty"`
	Weight          float64             `json:"weight"`
	Status          models.ResultStatus `json:"status"`
	Position        int                 `json:"position"`
	SectionPosition *int                `json:"section_position,omitempty"`
	Paid            bool                `json:"paid"`
}

type Leaderboard struct {
	Match    *models.Match    `json:"match"`
	Sections []string         `json:"sections"`
	Rows     []LeaderboardRow `json:"rows"`
}

type LeaderboardService struct {
	matchRepo  repositories.MatchRepository
	resultRepo repositories.ResultRepository
	syncer     *StatusSyncer
	names      NameResolver
	logger     *slog.Logger
}

func NewLeaderboardService(
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	syncer *StatusSyncer,
	names NameResolver,
	logger *slog.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		matchRepo:  matchRepo,
		resultRepo: resultRepo,
		syncer:     syncer,
		names:      names,
		logger:     logger,
	}
}

// MatchLeaderboard ranks every registered angler of the match overall and
// within their section.
func (s *LeaderboardService) MatchLeaderboard(ctx context.Context, matchID string) (*Leaderboard, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}
	s.syncer.Resolve(match)

	results, err := s.resultRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load results of match %s: %w", matchID, err)
	}
	return s.build(ctx, match, derefResults(results)), nil
}

func (s *LeaderboardService) build(ctx context.Context, match *models.Match, results []models.Result) *Leaderboard {
	field := league.FillRoster(*match, results)
	ranking := league.RankMatch(field)
	names := s.displayNames(ctx, match.RegisteredAnglers)

	rows := make([]LeaderboardRow, 0, len(field))
	for _, r := range latestResults(field) {
		row := LeaderboardRow{
			AnglerID:   r.UserID,
			AnglerName: pickName(names[r.UserID], r.UserName, r.UserID),
			Peg:        r.Peg,
			Section:    league.SectionKey(r.Section),
			Weight:     league.EffectiveWeight(r),
			Status:     r.Status,
			Position:   ranking.Overall[r.UserID],
		}
		if pos, ok := ranking.SectionPosition(r.Section, r.UserID); ok {
			row.SectionPosition = &pos
		}
		row.Paid = league.IsScored(r) && row.Position <= match.PaidPlaces
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Position != rows[j].Position {
			return rows[i].Position < rows[j].Position
		}
		return rows[i].AnglerID < rows[j].AnglerID
	})

	return &Leaderboard{Match: match, Sections: ranking.SectionNames(), Rows: rows}
}

// positionUpdates turns a leaderboard into the stored positions of the
// anglers that have a result row.
func positionUpdates(board *Leaderboard, stored []models.Result) []repositories.PositionUpdate {
	have := make(map[string]struct{}, len(stored))
	for _, r := range stored {
		have[r.UserID] = struct{}{}
	}
	updates := make([]repositories.PositionUpdate, 0, len(board.Rows))
	for _, row := range board.Rows {
		if _, ok := have[row.AnglerID]; !ok {
			continue
		}
		pos := row.Position
		updates = append(updates, repositories.PositionUpdate{
			UserID:          row.AnglerID,
			Position:        &pos,
			SectionPosition: row.SectionPosition,
		})
	}
	return updates
}

func (s *LeaderboardService) displayNames(ctx context.Context, anglerIDs []string) map[string]string {
	if s.names == nil || len(anglerIDs) == 0 {
		return nil
	}
	names, err := s.names.DisplayNames(ctx, anglerIDs)
	if err != nil {
		s.logger.WarnContext(ctx, "roster lookup failed, using stored names", slog.Int("anglers", len(anglerIDs)), slog.Any("error", err))
		return nil
	}
	return names
}

func pickName(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

// latestResults keeps the last row per angler, in first-seen order.
func latestResults(results []models.Result) []models.Result {
	index := make(map[string]int, len(results))
	out := make([]models.Result, 0, len(results))
	for _, r := range results {
		if i, ok := index[r.UserID]; ok {
			out[i] = r
			continue
		}
		index[r.UserID] = len(out)
		out = append(out, r)
	}
	return out
}

func derefResults(results []*models.Result) []models.Result {
	out := make([]models.Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func derefMatches(matches []*models.Match) []models.Match {
	out := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}
