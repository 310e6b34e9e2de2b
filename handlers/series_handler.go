package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/angling-league/services"
)

type SeriesHandler struct {
	seriesService    services.SeriesService
	standingsService *services.StandingsService
}

func NewSeriesHandler(seriesService services.SeriesService, standingsService *services.StandingsService) *SeriesHandler {
	return &SeriesHandler{seriesService: seriesService, standingsService: standingsService}
}

func (h *SeriesHandler) ListSeries(w http.ResponseWriter, r *http.Request) {
	list, err := h.seriesService.ListSeries(r.Context(), r.URL.Query().Get("club_id"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"series": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeriesHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, err := urlParam(r, "seriesID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	series, err := h.seriesService.GetSeries(r.Context(), seriesID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"series": series}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeriesHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	seriesID, err := urlParam(r, "seriesID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	table, err := h.standingsService.SeriesStandings(r.Context(), seriesID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, table, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// authorizeSeries writes a response and returns false when the series is
// missing or the token may not change it.
func (h *SeriesHandler) authorizeSeries(w http.ResponseWriter, r *http.Request, seriesID string) bool {
	series, err := h.seriesService.GetSeries(r.Context(), seriesID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return false
	}
	if err := requireClub(r, series.ClubID); err != nil {
		forbiddenResponse(w, r, err.Error())
		return false
	}
	return true
}

func (h *SeriesHandler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	var input services.SeriesInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := scopeToClub(r, &input.ClubID); err != nil {
		forbiddenResponse(w, r, err.Error())
		return
	}

	series, err := h.seriesService.CreateSeries(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	headers := make(http.Header)
	headers.Set("Location", "/series/"+series.ID)
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"series": series}, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeriesHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	seriesID, err := urlParam(r, "seriesID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !h.authorizeSeries(w, r, seriesID) {
		return
	}
	var input struct {
		Completed *bool `json:"completed"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Completed == nil {
		badRequestResponse(w, r, errors.New("completed is required"))
		return
	}

	series, err := h.seriesService.SetCompleted(r.Context(), seriesID, *input.Completed)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"series": series}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SeriesHandler) PublishStandings(w http.ResponseWriter, r *http.Request) {
	seriesID, err := urlParam(r, "seriesID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !h.authorizeSeries(w, r, seriesID) {
		return
	}
	uploaded, err := h.standingsService.Publish(r.Context(), seriesID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"key": uploaded.Key, "url": uploaded.Location}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
