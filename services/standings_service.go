package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/angling-league/league"
	"github.com/Dosada05/angling-league/models"
	"github.com/Dosada05/angling-league/repositories"
	"github.com/Dosada05/angling-league/storage"
	"golang.org/x/sync/errgroup"
)

type SeriesStandings struct {
	Series      *models.Series    `json:"series"`
	Standings   []models.Standing `json:"standings"`
	GeneratedAt time.Time         `json:"generated_at"`
}

type StandingsService struct {
	seriesRepo repositories.SeriesRepository
	matchRepo  repositories.MatchRepository
	resultRepo repositories.ResultRepository
	uploader   storage.FileUploader
	names      NameResolver
	clock      league.Clock
	logger     *slog.Logger
}

// NewStandingsService builds the service. uploader may be nil, in which case
// Publish reports ErrPublishingDisabled.
func NewStandingsService(
	seriesRepo repositories.SeriesRepository,
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	uploader storage.FileUploader,
	names NameResolver,
	clock league.Clock,
	logger *slog.Logger,
) *StandingsService {
	if clock == nil {
		clock = league.SystemClock
	}
	return &StandingsService{
		seriesRepo: seriesRepo,
		matchRepo:  matchRepo,
		resultRepo: resultRepo,
		uploader:   uploader,
		names:      names,
		clock:      clock,
		logger:     logger,
	}
}

// SeriesStandings computes the league table of a series from its stored
// matches and results.
func (s *StandingsService) SeriesStandings(ctx context.Context, seriesID string) (*SeriesStandings, error) {
	var (
		series  *models.Series
		matches []*models.Match
		results []*models.Result
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		series, err = s.seriesRepo.GetByID(gCtx, seriesID)
		if errors.Is(err, repositories.ErrSeriesNotFound) {
			return ErrSeriesNotFound
		}
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.List(gCtx, repositories.MatchFilter{SeriesID: &seriesID})
		return err
	})
	g.Go(func() error {
		var err error
		results, err = s.resultRepo.ListBySeries(gCtx, seriesID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrSeriesNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load series %s: %w", seriesID, err)
	}

	standings := league.AggregateStandings(*series, derefMatches(matches), derefResults(results))
	s.applyDisplayNames(ctx, standings)

	return &SeriesStandings{
		Series:      series,
		Standings:   standings,
		GeneratedAt: s.clock.Now().UTC(),
	}, nil
}

func (s *StandingsService) applyDisplayNames(ctx context.Context, standings []models.Standing) {
	if s.names == nil || len(standings) == 0 {
		return
	}
	ids := make([]string, len(standings))
	for i, st := range standings {
		ids[i] = st.AnglerID
	}
	names, err := s.names.DisplayNames(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "roster lookup failed, using stored names", slog.Int("anglers", len(ids)), slog.Any("error", err))
		return
	}
	for i := range standings {
		standings[i].AnglerName = pickName(names[standings[i].AnglerID], standings[i].AnglerName, standings[i].AnglerID)
	}
}

// StandingsObjectKey is where the published table of a series is stored.
func StandingsObjectKey(seriesID string) string {
	return fmt.Sprintf("series/%s/standings.json", seriesID)
}

// Publish uploads the current table of the series as a public JSON document.
func (s *StandingsService) Publish(ctx context.Context, seriesID string) (*storage.UploadResult, error) {
	if s.uploader == nil {
		return nil, ErrPublishingDisabled
	}
	table, err := s.SeriesStandings(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("failed to encode standings of series %s: %w", seriesID, err)
	}

	uploaded, err := s.uploader.Upload(ctx, StandingsObjectKey(seriesID), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to publish standings of series %s: %w", seriesID, err)
	}
	s.logger.InfoContext(ctx, "standings published",
		slog.String("series_id", seriesID),
		slog.String("location", uploaded.Location),
		slog.Int("anglers", len(table.Standings)))
	return uploaded, nil
}
