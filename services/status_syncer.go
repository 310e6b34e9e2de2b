package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/angling-league/league"
	"github.com/Dosada05/angling-league/live"
	"github.com/Dosada05/angling-league/models"
	"github.com/Dosada05/angling-league/repositories"
	"golang.org/x/sync/singleflight"
)

// Broadcaster delivers a message to every live subscriber of a room.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

const statusWriteTimeout = 5 * time.Second

// StatusSyncer derives match statuses from the clock and writes changes back
// to storage. Reads never wait for the write.
type StatusSyncer struct {
	matchRepo   repositories.MatchRepository
	clock       league.Clock
	broadcaster Broadcaster
	logger      *slog.Logger

	inflight singleflight.Group
	pending  sync.WaitGroup
}

func NewStatusSyncer(matchRepo repositories.MatchRepository, clock league.Clock, broadcaster Broadcaster, logger *slog.Logger) *StatusSyncer {
	if clock == nil {
		clock = league.SystemClock
	}
	return &StatusSyncer{
		matchRepo:   matchRepo,
		clock:       clock,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Now returns the syncer's current time.
func (s *StatusSyncer) Now() time.Time {
	return s.clock.Now()
}

// Resolve sets match.Status to the derived status. When it differs from the
// stored one a write-back is queued in the background.
func (s *StatusSyncer) Resolve(match *models.Match) {
	derived := league.DeriveStatus(*match, s.clock.Now())
	if derived == match.Status {
		return
	}
	from, matchID, seriesID := match.Status, match.ID, match.SeriesID
	match.Status = derived

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.writeBack(matchID, seriesID, from, derived)
	}()
}

// ResolveAll applies Resolve to every match.
func (s *StatusSyncer) ResolveAll(matches []*models.Match) {
	for _, m := range matches {
		s.Resolve(m)
	}
}

// Wait blocks until all queued write-backs have finished.
func (s *StatusSyncer) Wait() {
	s.pending.Wait()
}

func (s *StatusSyncer) writeBack(matchID, seriesID string, from, to models.MatchStatus) {
	key := matchID + ":" + string(to)
	_, _, _ = s.inflight.Do(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
		defer cancel()
		return nil, s.persist(ctx, matchID, seriesID, from, to)
	})
}

func (s *StatusSyncer) persist(ctx context.Context, matchID, seriesID string, from, to models.MatchStatus) error {
	err := s.matchRepo.UpdateStatus(ctx, matchID, from, to)
	switch {
	case errors.Is(err, repositories.ErrMatchStatusConflict):
		s.logger.DebugContext(ctx, "match status already changed", slog.String("match_id", matchID), slog.String("to", string(to)))
		return err
	case err != nil:
		s.logger.ErrorContext(ctx, "failed to write back match status",
			slog.String("match_id", matchID),
			slog.String("from", string(from)),
			slog.String("to", string(to)),
			slog.Any("error", err))
		return err
	}

	s.logger.InfoContext(ctx, "match status updated",
		slog.String("match_id", matchID),
		slog.String("from", string(from)),
		slog.String("to", string(to)))

	if s.broadcaster != nil {
		payload := map[string]string{"match_id": matchID, "status": string(to)}
		s.broadcaster.BroadcastToRoom(live.MatchRoom(matchID), live.Message{
			Type: live.MessageMatchStatus, Payload: payload, RoomID: live.MatchRoom(matchID),
		})
		if seriesID != "" {
			s.broadcaster.BroadcastToRoom(live.SeriesRoom(seriesID), live.Message{
				Type: live.MessageMatchStatus, Payload: payload, RoomID: live.SeriesRoom(seriesID),
			})
		}
	}
	return nil
}

// Sync recomputes every non-terminal match and persists the changes
// synchronously. It returns the number of matches whose status changed.
func (s *StatusSyncer) Sync(ctx context.Context) (int, error) {
	matches, err := s.matchRepo.List(ctx, repositories.MatchFilter{
		Statuses: []models.MatchStatus{
			models.MatchStatusUpcoming,
			models.MatchStatusInProgress,
			models.MatchStatusWeighIn,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list active matches: %w", err)
	}

	now := s.clock.Now()
	updated := 0
	var errs []error
	for _, m := range matches {
		derived := league.DeriveStatus(*m, now)
		if derived == m.Status {
			continue
		}
		err := s.persist(ctx, m.ID, m.SeriesID, m.Status, derived)
		if errors.Is(err, repositories.ErrMatchStatusConflict) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		updated++
	}
	return updated, errors.Join(errs...)
}
