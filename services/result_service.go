package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/angling-league/models"
	"github.com/Dosada05/angling-league/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Weights are kept to the gram.
const weightDecimals = 3

// WeighInInput is one angler's weigh-in. Weight accepts a JSON number or a
// decimal string.
type WeighInInput struct {
	UserName string              `json:"user_name"`
	Peg      string              `json:"peg"`
	Section  string              `json:"section"`
	Weight   decimal.Decimal     `json:"weight"`
	Status   models.ResultStatus `json:"status"`
}

type ResultService interface {
	// RecordWeighIn stores the angler's result, replacing any earlier one,
	// and returns the recomputed leaderboard.
	RecordWeighIn(ctx context.Context, matchID, anglerID string, input WeighInInput) (*Leaderboard, error)
}

type resultService struct {
	matchRepo    repositories.MatchRepository
	resultRepo   repositories.ResultRepository
	syncer       *StatusSyncer
	leaderboards *LeaderboardService
	publisher    *LivePublisher
	logger       *slog.Logger
}

func NewResultService(
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	syncer *StatusSyncer,
	leaderboards *LeaderboardService,
	publisher *LivePublisher,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		matchRepo:    matchRepo,
		resultRepo:   resultRepo,
		syncer:       syncer,
		leaderboards: leaderboards,
		publisher:    publisher,
		logger:       logger,
	}
}

// normalizeWeighIn validates the input and returns the weight in kilograms.
func normalizeWeighIn(input *WeighInInput) (float64, error) {
	if input.Status == "" {
		input.Status = models.ResultStatusOK
	}
	input.Status = models.ResultStatus(strings.ToUpper(string(input.Status)))
	if !input.Status.IsValid() {
		return 0, ErrInvalidStatus
	}
	if input.Weight.IsNegative() {
		return 0, ErrInvalidWeight
	}
	if input.Status != models.ResultStatusOK {
		return 0, nil
	}
	return input.Weight.Round(weightDecimals).InexactFloat64(), nil
}

func (s *resultService) RecordWeighIn(ctx context.Context, matchID, anglerID string, input WeighInInput) (*Leaderboard, error) {
	weight, err := normalizeWeighIn(&input)
	if err != nil {
		return nil, err
	}

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %s: %w", matchID, err)
	}
	s.syncer.Resolve(match)
	if match.Status == models.MatchStatusCancelled {
		return nil, ErrMatchCancelled
	}
	if !match.IsRegistered(anglerID) {
		return nil, ErrAnglerNotRegistered
	}

	result := &models.Result{
		ID:       uuid.NewString(),
		MatchID:  match.ID,
		SeriesID: match.SeriesID,
		ClubID:   match.ClubID,
		UserID:   anglerID,
		UserName: strings.TrimSpace(input.UserName),
		Peg:      strings.TrimSpace(input.Peg),
		Section:  strings.TrimSpace(input.Section),
		Weight:   weight,
		Status:   input.Status,
	}
	if err := s.resultRepo.Upsert(ctx, nil, result); err != nil {
		return nil, fmt.Errorf("failed to record weigh-in of %s in match %s: %w", anglerID, matchID, err)
	}

	stored, err := s.resultRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload results of match %s: %w", matchID, err)
	}
	results := derefResults(stored)
	board := s.leaderboards.build(ctx, match, results)

	if err := s.resultRepo.UpdatePositions(ctx, matchID, positionUpdates(board, results)); err != nil {
		s.logger.ErrorContext(ctx, "failed to store derived positions", slog.String("match_id", matchID), slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "weigh-in recorded",
		slog.String("match_id", matchID),
		slog.String("angler_id", anglerID),
		slog.String("status", string(result.Status)),
		slog.Float64("weight", result.Weight))

	s.publisher.SendLeaderboard(board)
	if match.SeriesID != "" {
		s.publisher.SeriesChanged(ctx, match.SeriesID)
	}
	return board, nil
}
