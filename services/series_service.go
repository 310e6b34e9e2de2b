package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/angling-league/models"
	"github.com/Dosada05/angling-league/repositories"
	"github.com/google/uuid"
)

type SeriesInput struct {
	ClubID string `json:"club_id"`
	Name   string `json:"name"`
}

type SeriesService interface {
	CreateSeries(ctx context.Context, input SeriesInput) (*models.Series, error)
	GetSeries(ctx context.Context, seriesID string) (*models.Series, error)
	ListSeries(ctx context.Context, clubID string) ([]*models.Series, error)
	// SetCompleted records the organizer's decision. It has no effect on
	// how standings are computed.
	SetCompleted(ctx context.Context, seriesID string, completed bool) (*models.Series, error)
}

type seriesService struct {
	seriesRepo repositories.SeriesRepository
	publisher  *LivePublisher
}

func NewSeriesService(seriesRepo repositories.SeriesRepository, publisher *LivePublisher) SeriesService {
	return &seriesService{seriesRepo: seriesRepo, publisher: publisher}
}

func (s *seriesService) CreateSeries(ctx context.Context, input SeriesInput) (*models.Series, error) {
	series := &models.Series{
		ID:     uuid.NewString(),
		ClubID: strings.TrimSpace(input.ClubID),
		Name:   strings.TrimSpace(input.Name),
	}
	if series.Name == "" {
		return nil, fmt.Errorf("%w: series name is required", ErrValidationFailed)
	}
	if series.ClubID == "" {
		return nil, fmt.Errorf("%w: club_id is required", ErrValidationFailed)
	}
	if err := s.seriesRepo.Create(ctx, series); err != nil {
		return nil, fmt.Errorf("failed to create series: %w", err)
	}
	return series, nil
}

func (s *seriesService) GetSeries(ctx context.Context, seriesID string) (*models.Series, error) {
	series, err := s.seriesRepo.GetByID(ctx, seriesID)
	if err != nil {
		if errors.Is(err, repositories.ErrSeriesNotFound) {
			return nil, ErrSeriesNotFound
		}
		return nil, fmt.Errorf("failed to get series %s: %w", seriesID, err)
	}
	return series, nil
}

func (s *seriesService) ListSeries(ctx context.Context, clubID string) ([]*models.Series, error) {
	if strings.TrimSpace(clubID) == "" {
		return nil, fmt.Errorf("%w: club_id is required", ErrValidationFailed)
	}
	list, err := s.seriesRepo.ListByClub(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list series of club %s: %w", clubID, err)
	}
	return list, nil
}

func (s *seriesService) SetCompleted(ctx context.Context, seriesID string, completed bool) (*models.Series, error) {
	if err := s.seriesRepo.SetCompleted(ctx, seriesID, completed); err != nil {
		if errors.Is(err, repositories.ErrSeriesNotFound) {
			return nil, ErrSeriesNotFound
		}
		return nil, fmt.Errorf("failed to update series %s: %w", seriesID, err)
	}
	series, err := s.GetSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	s.publisher.SeriesChanged(ctx, seriesID)
	return series, nil
}
