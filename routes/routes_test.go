package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/angling-league/db"
	"github.com/Dosada05/angling-league/handlers"
	"github.com/Dosada05/angling-league/league"
	"github.com/Dosada05/angling-league/live"
	"github.com/Dosada05/angling-league/models"
	"github.com/Dosada05/angling-league/repositories"
	"github.com/Dosada05/angling-league/services"
)

var testSecret = []byte("route-secret")

type app struct {
	router *chi.Mux
	hub    *live.Hub
}

func newApp(t *testing.T, now time.Time) *app {
	t.Helper()
	conn, err := db.Connect(db.DriverSQLite, ":memory:", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background(), conn))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	hub := live.NewHub(logger)
	go hub.Run(ctx)

	matchRepo := repositories.NewMatchRepository(conn)
	resultRepo := repositories.NewResultRepository(conn)
	seriesRepo := repositories.NewSeriesRepository(conn)
	clock := league.FixedClock(now)

	syncer := services.NewStatusSyncer(matchRepo, clock, hub, logger)
	boards := services.NewLeaderboardService(matchRepo, resultRepo, syncer, nil, logger)
	standings := services.NewStandingsService(seriesRepo, matchRepo, resultRepo, nil, nil, clock, logger)
	publisher := services.NewLivePublisher(boards, standings, hub, logger)

	router := chi.NewRouter()
	SetupRoutes(router, Options{JWTSecret: testSecret},
		handlers.NewMatchHandler(
			services.NewMatchService(matchRepo, seriesRepo, syncer, publisher),
			services.NewResultService(matchRepo, resultRepo, syncer, boards, publisher, logger),
			boards),
		handlers.NewSeriesHandler(services.NewSeriesService(seriesRepo, publisher), standings),
		handlers.NewWebSocketHandler(hub, boards, standings, nil, logger),
	)

	t.Cleanup(func() {
		publisher.Wait()
		syncer.Wait()
		cancel()
		conn.Close()
	})
	return &app{router: router, hub: hub}
}

func token(t *testing.T, role, clubID string) string {
	t.Helper()
	claims := jwt.MapClaims{"user_id": "u1", "role": role, "exp": time.Now().Add(time.Hour).Unix()}
	if clubID != "" {
		claims["club_id"] = clubID
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func (a *app) do(t *testing.T, method, path, bearer string, body interface{}) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var decoded map[string]json.RawMessage
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func idOf(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var v struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &v))
	require.NotEmpty(t, v.ID)
	return v.ID
}

var matchDay = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func matchBody(seriesID string, capacity int) map[string]interface{} {
	return map[string]interface{}{
		"series_id":   seriesID,
		"name":        "Club Match",
		"date":        "2024-06-01",
		"draw_time":   "08:00",
		"start_time":  "09:00",
		"end_time":    "15:00",
		"capacity":    capacity,
		"paid_places": 1,
	}
}

func TestHealthAndDocs(t *testing.T) {
	a := newApp(t, matchDay)

	rec, _ := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, doc := a.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, doc, "paths")
}

func TestOrganizerRoutesRequireToken(t *testing.T) {
	a := newApp(t, matchDay)

	rec, _ := a.do(t, http.MethodPost, "/series", "", map[string]string{"name": "League"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = a.do(t, http.MethodPost, "/series", token(t, "angler", "club-1"), map[string]string{"name": "League"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = a.do(t, http.MethodPost, "/series", token(t, "organizer", "club-1"), map[string]string{"name": "League", "club_id": "club-2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = a.do(t, http.MethodPost, "/series", token(t, "admin", "club-1"), map[string]string{"name": "League", "club_id": "club-2"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestMatchDayFlow(t *testing.T) {
	a := newApp(t, matchDay.Add(16*time.Hour))
	org := token(t, "organizer", "club-1")

	rec, body := a.do(t, http.MethodPost, "/series", org, map[string]string{"name": "Summer League"})
	require.Equal(t, http.StatusCreated, rec.Code)
	seriesID := idOf(t, body["series"])

	rec, body = a.do(t, http.MethodPost, "/matches", org, matchBody(seriesID, 2))
	require.Equal(t, http.StatusCreated, rec.Code)
	matchID := idOf(t, body["match"])
	assert.Equal(t, "/matches/"+matchID, rec.Header().Get("Location"))

	for _, angler := range []string{"a", "b"} {
		rec, _ = a.do(t, http.MethodPost, "/matches/"+matchID+"/anglers/"+angler, org, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ = a.do(t, http.MethodPost, "/matches/"+matchID+"/anglers/c", org, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = a.do(t, http.MethodPut, "/matches/"+matchID+"/results/a", org, map[string]interface{}{"weight": "4.5", "section": "A"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = a.do(t, http.MethodPut, "/matches/"+matchID+"/results/b", org, map[string]interface{}{"weight": 6.25, "section": "A"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = a.do(t, http.MethodPut, "/matches/"+matchID+"/results/b", org, map[string]interface{}{"weight": -1})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec, _ = a.do(t, http.MethodPut, "/matches/"+matchID+"/results/c", org, map[string]interface{}{"weight": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body = a.do(t, http.MethodGet, "/matches/"+matchID+"/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var board services.Leaderboard
	require.NoError(t, json.Unmarshal(body["leaderboard"], &board))
	require.Len(t, board.Rows, 2)
	assert.Equal(t, "b", board.Rows[0].AnglerID)
	assert.True(t, board.Rows[0].Paid)
	assert.Equal(t, "weigh_in", string(board.Match.Status))

	rec, _ = a.do(t, http.MethodGet, "/series/"+seriesID+"/standings", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var table services.SeriesStandings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	require.Len(t, table.Standings, 2)
	assert.Equal(t, "b", table.Standings[0].AnglerID)
	assert.Equal(t, 1, table.Standings[0].Rank)

	rec, _ = a.do(t, http.MethodPost, "/series/"+seriesID+"/standings/publish", org, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = a.do(t, http.MethodPut, "/series/"+seriesID+"/completed", org, map[string]bool{"completed": true})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = a.do(t, http.MethodPost, "/matches/"+matchID+"/cancel", org, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body = a.do(t, http.MethodGet, "/matches/"+matchID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body["match"]), `"status": "cancelled"`)
}

func TestOrganizerCannotChangeAnotherClub(t *testing.T) {
	a := newApp(t, matchDay.Add(16*time.Hour))
	owner := token(t, "organizer", "club-1")
	other := token(t, "organizer", "club-2")
	noClub := token(t, "organizer", "")

	rec, body := a.do(t, http.MethodPost, "/series", owner, map[string]string{"name": "Summer League"})
	require.Equal(t, http.StatusCreated, rec.Code)
	seriesID := idOf(t, body["series"])

	rec, body = a.do(t, http.MethodPost, "/matches", owner, matchBody(seriesID, 10))
	require.Equal(t, http.StatusCreated, rec.Code)
	matchID := idOf(t, body["match"])
	rec, _ = a.do(t, http.MethodPost, "/matches/"+matchID+"/anglers/a", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	writes := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodPut, "/matches/" + matchID, matchBody("", 10)},
		{http.MethodPost, "/matches/" + matchID + "/cancel", nil},
		{http.MethodPost, "/matches/" + matchID + "/anglers/b", nil},
		{http.MethodDelete, "/matches/" + matchID + "/anglers/a", nil},
		{http.MethodPut, "/matches/" + matchID + "/results/a", map[string]interface{}{"weight": 3}},
		{http.MethodPut, "/series/" + seriesID + "/completed", map[string]bool{"completed": true}},
		{http.MethodPost, "/series/" + seriesID + "/standings/publish", nil},
	}
	for _, w := range writes {
		for _, bearer := range []string{other, noClub} {
			rec, _ = a.do(t, w.method, w.path, bearer, w.body)
			assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", w.method, w.path)
		}
	}

	rec, body = a.do(t, http.MethodGet, "/matches/"+matchID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body["match"]), `"club_id": "club-1"`)
	assert.Contains(t, string(body["match"]), `"status": "weigh_in"`)

	rec, body = a.do(t, http.MethodGet, "/matches/"+matchID+"/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var board services.Leaderboard
	require.NoError(t, json.Unmarshal(body["leaderboard"], &board))
	require.Len(t, board.Rows, 1)
	assert.Equal(t, "a", board.Rows[0].AnglerID)
	assert.Equal(t, models.ResultStatusNYW, board.Rows[0].Status)

	rec, _ = a.do(t, http.MethodPost, "/matches/missing/cancel", other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = a.do(t, http.MethodPost, "/matches/"+matchID+"/cancel", token(t, "admin", ""), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNotFoundAndBadInput(t *testing.T) {
	a := newApp(t, matchDay)
	org := token(t, "organizer", "club-1")

	rec, _ := a.do(t, http.MethodGet, "/matches/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = a.do(t, http.MethodGet, "/series/missing/standings", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = a.do(t, http.MethodGet, "/matches?status=sleeping", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = a.do(t, http.MethodPost, "/matches", org, map[string]interface{}{"name": "x", "unexpected": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad := matchBody("", 10)
	bad["draw_time"] = "25:00"
	rec, _ = a.do(t, http.MethodPost, "/matches", org, bad)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = a.do(t, http.MethodPut, "/series/missing/completed", org, map[string]bool{"completed": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLiveLeaderboardOverWebsocket(t *testing.T) {
	a := newApp(t, matchDay.Add(16*time.Hour))
	org := token(t, "organizer", "club-1")

	rec, body := a.do(t, http.MethodPost, "/matches", org, matchBody("", 10))
	require.Equal(t, http.StatusCreated, rec.Code)
	matchID := idOf(t, body["match"])
	rec, _ = a.do(t, http.MethodPost, "/matches/"+matchID+"/anglers/a", org, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	srv := httptest.NewServer(a.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/matches/" + matchID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readMessage := func() live.Message {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg live.Message
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	assert.Equal(t, live.MessageMatchSnapshot, readMessage().Type)
	require.Eventually(t, func() bool { return a.hub.RoomSize(live.MatchRoom(matchID)) == 1 }, time.Second, 10*time.Millisecond)

	rec, _ = a.do(t, http.MethodPut, "/matches/"+matchID+"/results/a", org, map[string]interface{}{"weight": 3})
	require.Equal(t, http.StatusOK, rec.Code)

	msg := readMessage()
	assert.Equal(t, live.MessageLeaderboard, msg.Type)
	assert.Equal(t, live.MatchRoom(matchID), msg.RoomID)

	rec, _ = a.do(t, http.MethodGet, "/ws/matches/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
