package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/angling-league/live"
	"github.com/Dosada05/angling-league/services"
)

type WebSocketHandler struct {
	hub          *live.Hub
	leaderboards *services.LeaderboardService
	standings    *services.StandingsService
	upgrader     websocket.Upgrader
	logger       *slog.Logger
}

// NewWebSocketHandler accepts connections from allowedOrigins. An empty list
// or "*" accepts any origin.
func NewWebSocketHandler(
	hub *live.Hub,
	leaderboards *services.LeaderboardService,
	standings *services.StandingsService,
	allowedOrigins []string,
	logger *slog.Logger,
) *WebSocketHandler {
	anyOrigin := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	return &WebSocketHandler{
		hub:          hub,
		leaderboards: leaderboards,
		standings:    standings,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return anyOrigin || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// ServeMatch streams leaderboard updates of a match. The current leaderboard
// is sent first.
func (h *WebSocketHandler) ServeMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	board, err := h.leaderboards.MatchLeaderboard(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	room := live.MatchRoom(matchID)
	h.serve(w, r, room, live.Message{Type: live.MessageMatchSnapshot, Payload: board, RoomID: room})
}

// ServeSeries streams league table updates of a series. The current table is
// sent first.
func (h *WebSocketHandler) ServeSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, err := urlParam(r, "seriesID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	table, err := h.standings.SeriesStandings(r.Context(), seriesID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	room := live.SeriesRoom(seriesID)
	h.serve(w, r, room, live.Message{Type: live.MessageStandings, Payload: table, RoomID: room})
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, room string, snapshot live.Message) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Warn("websocket upgrade failed", slog.String("room", room), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, room)
	if !h.hub.Subscribe(client) {
		conn.Close()
		return
	}
	client.Push(snapshot)

	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("live client connected", slog.String("room", room))
}
