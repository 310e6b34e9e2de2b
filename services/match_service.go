package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Dosada05/angling-league/league"
	"github.com/Dosada05/angling-league/models"
	"github.com/Dosada05/angling-league/repositories"
	"github.com/google/uuid"
)

type MatchInput struct {
	SeriesID   string  `json:"series_id"`
	ClubID     string  `json:"club_id"`
	Name       string  `json:"name"`
	Venue      *string `json:"venue,omitempty"`
	Date       string  `json:"date"`
	DrawTime   string  `json:"draw_time"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Capacity   int     `json:"capacity"`
	PaidPlaces int     `json:"paid_places"`
}

type MatchService interface {
	CreateMatch(ctx context.Context, input MatchInput) (*models.Match, error)
	UpdateMatch(ctx context.Context, matchID string, input MatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
	// MatchClub returns the owning club without resolving the match status.
	MatchClub(ctx context.Context, matchID string) (string, error)
	ListMatches(ctx context.Context, filter repositories.MatchFilter) ([]*models.Match, error)
	CancelMatch(ctx context.Context, matchID string) (*models.Match, error)
	RegisterAngler(ctx context.Context, matchID, anglerID string) (*models.Match, error)
	UnregisterAngler(ctx context.Context, matchID, anglerID string) (*models.Match, error)
}

type matchService struct {
	matchRepo  repositories.MatchRepository
	seriesRepo repositories.SeriesRepository
	syncer     *StatusSyncer
	publisher  *LivePublisher
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	seriesRepo repositories.SeriesRepository,
	syncer *StatusSyncer,
	publisher *LivePublisher,
) MatchService {
	return &matchService{
		matchRepo:  matchRepo,
		seriesRepo: seriesRepo,
		syncer:     syncer,
		publisher:  publisher,
	}
}

func (s *matchService) validate(ctx context.Context, input *MatchInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.ClubID = strings.TrimSpace(input.ClubID)
	input.SeriesID = strings.TrimSpace(input.SeriesID)

	switch {
	case input.Name == "":
		return fmt.Errorf("%w: match name is required", ErrValidationFailed)
	case input.ClubID == "":
		return fmt.Errorf("%w: club_id is required", ErrValidationFailed)
	case input.Capacity < 0:
		return fmt.Errorf("%w: capacity must not be negative", ErrValidationFailed)
	case input.PaidPlaces < 0:
		return fmt.Errorf("%w: paid_places must not be negative", ErrValidationFailed)
	}

	schedule, ok := league.ResolveSchedule(input.Date, input.DrawTime, input.EndTime, s.syncer.Now().Location())
	if !ok {
		return ErrInvalidSchedule
	}
	start, ok := league.ParseTimeOfDay(input.StartTime)
	if !ok {
		return ErrInvalidSchedule
	}
	draw, _ := league.ParseTimeOfDay(input.DrawTime)
	end, _ := league.ParseTimeOfDay(input.EndTime)
	if start < draw || !schedule.End.After(schedule.Draw) {
		return ErrInvalidSchedule
	}

	// Stored dates and times sort as text, so only canonical forms are kept.
	input.Date = schedule.Draw.Format(time.DateOnly)
	input.DrawTime = league.FormatTimeOfDay(draw)
	input.StartTime = league.FormatTimeOfDay(start)
	input.EndTime = league.FormatTimeOfDay(end)

	if input.SeriesID != "" {
		series, err := s.seriesRepo.GetByID(ctx, input.SeriesID)
		if err != nil {
			if errors.Is(err, repositories.ErrSeriesNotFound) {
				return ErrSeriesNotFound
			}
			return fmt.Errorf("failed to check series %s: %w", input.SeriesID, err)
		}
		if series.ClubID != input.ClubID {
			return fmt.Errorf("%w: series belongs to another club", ErrValidationFailed)
		}
	}
	return nil
}

func (s *matchService) CreateMatch(ctx context.Context, input MatchInput) (*models.Match, error) {
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	match := &models.Match{
		ID:                uuid.NewString(),
		SeriesID:          input.SeriesID,
		ClubID:            input.ClubID,
		Name:              input.Name,
		Venue:             input.Venue,
		Date:              input.Date,
		DrawTime:          input.DrawTime,
		StartTime:         input.StartTime,
		EndTime:           input.EndTime,
		Capacity:          input.Capacity,
		PaidPlaces:        input.PaidPlaces,
		Status:            models.MatchStatusUpcoming,
		RegisteredAnglers: []string{},
	}
	match.Status = league.DeriveStatus(*match, s.syncer.Now())

	if err := s.matchRepo.Create(ctx, nil, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return match, nil
}

func (s *matchService) UpdateMatch(ctx context.Context, matchID string, input MatchInput) (*models.Match, error) {
	// Read without resolving: a write-back queued for the old schedule could
	// land after the update and overwrite its status.
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %s: %w", matchID, err)
	}
	if match.Status == models.MatchStatusCancelled {
		return nil, ErrMatchCancelled
	}
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}
	if input.Capacity < len(match.RegisteredAnglers) {
		return nil, fmt.Errorf("%w: capacity is below the number of registered anglers", ErrValidationFailed)
	}

	previousSeries := match.SeriesID
	match.SeriesID = input.SeriesID
	match.ClubID = input.ClubID
	match.Name = input.Name
	match.Venue = input.Venue
	match.Date = input.Date
	match.DrawTime = input.DrawTime
	match.StartTime = input.StartTime
	match.EndTime = input.EndTime
	match.Capacity = input.Capacity
	match.PaidPlaces = input.PaidPlaces
	match.Status = league.DeriveStatus(*match, s.syncer.Now())

	if err := s.matchRepo.Update(ctx, nil, match); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to update match %s: %w", matchID, err)
	}

	s.publisher.MatchChanged(ctx, match.ID, match.SeriesID)
	if previousSeries != "" && previousSeries != match.SeriesID {
		s.publisher.MatchChanged(ctx, match.ID, previousSeries)
	}
	return match, nil
}

// load reads a match and resolves its status against the clock.
func (s *matchService) load(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %s: %w", matchID, err)
	}
	s.syncer.Resolve(match)
	return match, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	return s.load(ctx, matchID)
}

func (s *matchService) MatchClub(ctx context.Context, matchID string) (string, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return "", ErrMatchNotFound
		}
		return "", fmt.Errorf("failed to get match %s: %w", matchID, err)
	}
	return match.ClubID, nil
}

func (s *matchService) ListMatches(ctx context.Context, filter repositories.MatchFilter) ([]*models.Match, error) {
	// Stored statuses may lag the clock, so status filtering happens on the
	// derived values.
	statuses := filter.Statuses
	filter.Statuses = nil

	matches, err := s.matchRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	s.syncer.ResolveAll(matches)

	if len(statuses) == 0 {
		return matches, nil
	}
	kept := matches[:0]
	for _, m := range matches {
		if slices.Contains(statuses, m.Status) {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

const cancelAttempts = 3

func (s *matchService) CancelMatch(ctx context.Context, matchID string) (*models.Match, error) {
	for attempt := 0; attempt < cancelAttempts; attempt++ {
		match, err := s.matchRepo.GetByID(ctx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return nil, ErrMatchNotFound
			}
			return nil, fmt.Errorf("failed to get match %s: %w", matchID, err)
		}
		if match.Status == models.MatchStatusCancelled {
			return match, nil
		}

		err = s.matchRepo.UpdateStatus(ctx, matchID, match.Status, models.MatchStatusCancelled)
		if errors.Is(err, repositories.ErrMatchStatusConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to cancel match %s: %w", matchID, err)
		}

		match.Status = models.MatchStatusCancelled
		s.publisher.MatchChanged(ctx, match.ID, match.SeriesID)
		return match, nil
	}
	return nil, fmt.Errorf("failed to cancel match %s: %w", matchID, repositories.ErrMatchStatusConflict)
}

func (s *matchService) RegisterAngler(ctx context.Context, matchID, anglerID string) (*models.Match, error) {
	anglerID = strings.TrimSpace(anglerID)
	if anglerID == "" {
		return nil, fmt.Errorf("%w: angler id is required", ErrValidationFailed)
	}
	match, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	switch match.Status {
	case models.MatchStatusCancelled:
		return nil, ErrMatchCancelled
	case models.MatchStatusCompleted:
		return nil, ErrMatchClosed
	}

	err = s.matchRepo.RegisterAngler(ctx, matchID, anglerID)
	switch {
	case errors.Is(err, repositories.ErrMatchRosterFull):
		return nil, ErrMatchFull
	case errors.Is(err, repositories.ErrAnglerAlreadyOnList):
		return nil, ErrAnglerAlreadyRegistered
	case errors.Is(err, repositories.ErrMatchNotFound):
		return nil, ErrMatchNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to register angler %s for match %s: %w", anglerID, matchID, err)
	}

	match.RegisteredAnglers = append(match.RegisteredAnglers, anglerID)
	s.publisher.MatchChanged(ctx, match.ID, match.SeriesID)
	return match, nil
}

func (s *matchService) UnregisterAngler(ctx context.Context, matchID, anglerID string) (*models.Match, error) {
	match, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusCompleted {
		return nil, ErrMatchClosed
	}

	err = s.matchRepo.RemoveAngler(ctx, nil, matchID, anglerID)
	if errors.Is(err, repositories.ErrAnglerNotOnList) {
		return nil, ErrAnglerNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unregister angler %s from match %s: %w", anglerID, matchID, err)
	}

	remaining := match.RegisteredAnglers[:0]
	for _, id := range match.RegisteredAnglers {
		if id != anglerID {
			remaining = append(remaining, id)
		}
	}
	match.RegisteredAnglers = remaining
	s.publisher.MatchChanged(ctx, match.ID, match.SeriesID)
	return match, nil
}
