package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/angling-league/live"
)

const livePublishTimeout = 10 * time.Second

// LivePublisher pushes fresh leaderboards and league tables to live rooms
// after a change. Publishing runs in the background and never fails the
// change that triggered it.
type LivePublisher struct {
	leaderboards *LeaderboardService
	standings    *StandingsService
	broadcaster  Broadcaster
	logger       *slog.Logger

	pending sync.WaitGroup
}

func NewLivePublisher(leaderboards *LeaderboardService, standings *StandingsService, broadcaster Broadcaster, logger *slog.Logger) *LivePublisher {
	return &LivePublisher{
		leaderboards: leaderboards,
		standings:    standings,
		broadcaster:  broadcaster,
		logger:       logger,
	}
}

// MatchChanged republishes the match leaderboard and, for series matches,
// the series table.
func (p *LivePublisher) MatchChanged(ctx context.Context, matchID, seriesID string) {
	p.async(ctx, func(ctx context.Context) {
		p.PublishLeaderboard(ctx, matchID)
		if seriesID != "" {
			p.PublishStandings(ctx, seriesID)
		}
	})
}

// SeriesChanged republishes the series table.
func (p *LivePublisher) SeriesChanged(ctx context.Context, seriesID string) {
	p.async(ctx, func(ctx context.Context) {
		p.PublishStandings(ctx, seriesID)
	})
}

func (p *LivePublisher) async(ctx context.Context, publish func(ctx context.Context)) {
	if p == nil || p.broadcaster == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		ctx, cancel := context.WithTimeout(ctx, livePublishTimeout)
		defer cancel()
		publish(ctx)
	}()
}

// PublishLeaderboard broadcasts the current leaderboard of a match.
func (p *LivePublisher) PublishLeaderboard(ctx context.Context, matchID string) {
	board, err := p.leaderboards.MatchLeaderboard(ctx, matchID)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build leaderboard for broadcast", slog.String("match_id", matchID), slog.Any("error", err))
		return
	}
	p.SendLeaderboard(board)
}

// SendLeaderboard broadcasts an already computed leaderboard.
func (p *LivePublisher) SendLeaderboard(board *Leaderboard) {
	if p == nil || p.broadcaster == nil {
		return
	}
	room := live.MatchRoom(board.Match.ID)
	p.broadcaster.BroadcastToRoom(room, live.Message{Type: live.MessageLeaderboard, Payload: board, RoomID: room})
}

// PublishStandings broadcasts the current table of a series.
func (p *LivePublisher) PublishStandings(ctx context.Context, seriesID string) {
	table, err := p.standings.SeriesStandings(ctx, seriesID)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build standings for broadcast", slog.String("series_id", seriesID), slog.Any("error", err))
		return
	}
	room := live.SeriesRoom(seriesID)
	p.broadcaster.BroadcastToRoom(room, live.Message{Type: live.MessageStandings, Payload: table, RoomID: room})
}

// Wait blocks until queued publications have finished.
func (p *LivePublisher) Wait() {
	if p == nil {
		return
	}
	p.pending.Wait()
}
