package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Dosada05/angling-league/models"
	"github.com/Dosada05/angling-league/repositories"
	"github.com/Dosada05/angling-league/services"
)

type MatchHandler struct {
	matchService  services.MatchService
	resultService services.ResultService
	leaderboards  *services.LeaderboardService
}

func NewMatchHandler(matchService services.MatchService, resultService services.ResultService, leaderboards *services.LeaderboardService) *MatchHandler {
	return &MatchHandler{
		matchService:  matchService,
		resultService: resultService,
		leaderboards:  leaderboards,
	}
}

// authorizeMatch writes a response and returns false when the match is
// missing or the token may not change it.
func (h *MatchHandler) authorizeMatch(w http.ResponseWriter, r *http.Request, matchID string) bool {
	clubID, err := h.matchService.MatchClub(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return false
	}
	if err := requireClub(r, clubID); err != nil {
		forbiddenResponse(w, r, err.Error())
		return false
	}
	return true
}

func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter repositories.MatchFilter
	if seriesID := query.Get("series_id"); seriesID != "" {
		filter.SeriesID = &seriesID
	}
	if clubID := query.Get("club_id"); clubID != "" {
		filter.ClubID = &clubID
	}
	if statuses := query.Get("status"); statuses != "" {
		for _, raw := range strings.Split(statuses, ",") {
			status := models.MatchStatus(strings.TrimSpace(raw))
			if !status.IsValid() {
				badRequestResponse(w, r, errors.New("invalid status filter: "+raw))
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	matches, err := h.matchService.ListMatches(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
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
	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": board}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input services.MatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := scopeToClub(r, &input.ClubID); err != nil {
		forbiddenResponse(w, r, err.Error())
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	headers := make(http.Header)
	headers.Set("Location", "/matches/"+match.ID)
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !h.authorizeMatch(w, r, matchID) {
		return
	}
	var input services.MatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := scopeToClub(r, &input.ClubID); err != nil {
		forbiddenResponse(w, r, err.Error())
		return
	}

	match, err := h.matchService.UpdateMatch(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !h.authorizeMatch(w, r, matchID) {
		return
	}
	match, err := h.matchService.CancelMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) RegisterAngler(w http.ResponseWriter, r *http.Request) {
	h.changeRoster(w, r, h.matchService.RegisterAngler)
}

func (h *MatchHandler) UnregisterAngler(w http.ResponseWriter, r *http.Request) {
	h.changeRoster(w, r, h.matchService.UnregisterAngler)
}

func (h *MatchHandler) changeRoster(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, matchID, anglerID string) (*models.Match, error)) {
	matchID, err := urlParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	anglerID, err := urlParam(r, "anglerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if !h.authorizeMatch(w, r, matchID) {
		return
	}

	match, err := change(r.Context(), matchID, anglerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) RecordWeighIn(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	anglerID, err := urlParam(r, "anglerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !h.authorizeMatch(w, r, matchID) {
		return
	}
	var input services.WeighInInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	board, err := h.resultService.RecordWeighIn(r.Context(), matchID, anglerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": board}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
