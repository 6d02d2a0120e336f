package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Dosada05/pong-tournament/models"
	"github.com/Dosada05/pong-tournament/services"
	"github.com/Dosada05/pong-tournament/tournament"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

type CreateTournamentInput struct {
	Name *string `json:"name"`
}

type SubmitTeamsInput struct {
	Teams []models.Team `json:"teams"`
}

type StartTournamentInput struct {
	Mode              models.Mode `json:"mode"`
	NumGroups         int         `json:"numGroups"`
	AdvancingPerGroup int         `json:"advancingPerGroup"`
	GameTime          int         `json:"gameTime"`
	Seed              int64       `json:"seed"`
}

type SelectMatchInput struct {
	Type       models.MatchKind `json:"type"`
	GroupIndex *int             `json:"groupIndex"`
	RoundIndex *int             `json:"roundIndex"`
	MatchIndex *int             `json:"matchIndex"`
}

type GeneratePlayoffsInput struct {
	GameTime int `json:"gameTime"`
}

// CreateHandler handles POST /api/tournaments
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input CreateTournamentInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	t, err := h.tournamentService.Create(r.Context(), input.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": t}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /api/tournaments?limit=N
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
		limit = n
	}

	list, err := h.tournamentService.List(r.Context(), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LatestHandler handles GET /api/tournaments/latest
func (h *TournamentHandler) LatestHandler(w http.ResponseWriter, r *http.Request) {
	details, err := h.tournamentService.Latest(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, details, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStateHandler handles GET /api/tournaments/{tournamentID}/state
func (h *TournamentHandler) GetStateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := tournamentID(w, r)
	if !ok {
		return
	}
	state, err := h.tournamentService.State(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RestoreStateHandler handles PUT /api/tournaments/{tournamentID}/state. The
// body is a snapshot as returned by GetStateHandler's "state" field.
func (h *TournamentHandler) RestoreStateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := tournamentID(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(body) == 0 {
		badRequestResponse(w, r, errEmptyBody)
		return
	}

	state, err := h.tournamentService.Restore(r.Context(), id, body)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitTeamsHandler handles POST /api/tournaments/{tournamentID}/teams
func (h *TournamentHandler) SubmitTeamsHandler(w http.ResponseWriter, r *http.Request) {
	var input SubmitTeamsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.dispatch(w, r, tournament.SubmitTeams{Teams: input.Teams})
}

// StartHandler handles POST /api/tournaments/{tournamentID}/start
func (h *TournamentHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	var input StartTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !input.Mode.Valid() {
		badRequestResponse(w, r, errors.New("mode must be one of playoffs, groups, groups_only"))
		return
	}
	if input.GameTime < 0 {
		badRequestResponse(w, r, errors.New("gameTime must not be negative"))
		return
	}
	h.dispatch(w, r, tournament.StartTournament{
		Config: models.TournamentConfig{
			Mode:              input.Mode,
			NumGroups:         input.NumGroups,
			AdvancingPerGroup: input.AdvancingPerGroup,
			GameTime:          input.GameTime,
		},
		Seed: input.Seed,
	})
}

// SelectMatchHandler handles POST /api/tournaments/{tournamentID}/matches/select
func (h *TournamentHandler) SelectMatchHandler(w http.ResponseWriter, r *http.Request) {
	var input SelectMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	ref, err := models.ParseMatchRef(input.Type, input.GroupIndex, input.RoundIndex, input.MatchIndex)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.dispatch(w, r, tournament.SelectMatch{Ref: ref})
}

// OpenPlayoffSetupHandler handles POST /api/tournaments/{tournamentID}/playoffs/setup
func (h *TournamentHandler) OpenPlayoffSetupHandler(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, tournament.OpenPlayoffSetup{})
}

// GeneratePlayoffsHandler handles POST /api/tournaments/{tournamentID}/playoffs
func (h *TournamentHandler) GeneratePlayoffsHandler(w http.ResponseWriter, r *http.Request) {
	var input GeneratePlayoffsInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.GameTime < 0 {
		badRequestResponse(w, r, errors.New("gameTime must not be negative"))
		return
	}
	h.dispatch(w, r, tournament.GeneratePlayoffs{GameTime: input.GameTime})
}

// FinishGroupStageHandler handles POST /api/tournaments/{tournamentID}/groups/finish
func (h *TournamentHandler) FinishGroupStageHandler(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, tournament.FinishGroupStage{})
}

// ResetHandler handles POST /api/tournaments/{tournamentID}/reset
func (h *TournamentHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, tournament.Reset{})
}

// EventsHandler handles GET /api/tournaments/{tournamentID}/events
func (h *TournamentHandler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := tournamentID(w, r)
	if !ok {
		return
	}
	events, err := h.tournamentService.Events(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TopShootersHandler handles
// GET /api/tournaments/{tournamentID}/shooters?phase=all|groups|playoffs&hide_unknown=true&limit=N
func (h *TournamentHandler) TopShootersHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := tournamentID(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()

	phase, err := tournament.ParsePhase(query.Get("phase"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	filter := tournament.ShooterFilter{Phase: phase}
	if v := query.Get("hide_unknown"); v != "" {
		hide, err := strconv.ParseBool(v)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid hide_unknown query parameter"))
			return
		}
		filter.HideUnknown = hide
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
		filter.Limit = n
	}

	rows, err := h.tournamentService.TopShooters(r.Context(), id, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"shooters": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// dispatch runs action against the tournament in the URL and writes the
// resulting snapshot.
func (h *TournamentHandler) dispatch(w http.ResponseWriter, r *http.Request, action tournament.Action) {
	dispatchAction(w, r, h.tournamentService, action)
}

func dispatchAction(w http.ResponseWriter, r *http.Request, svc services.TournamentService, action tournament.Action) {
	id, ok := tournamentID(w, r)
	if !ok {
		return
	}
	state, err := svc.Dispatch(r.Context(), id, action)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
