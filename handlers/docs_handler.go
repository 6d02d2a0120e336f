package handlers

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Dosada05/pong-tournament/models"
	"github.com/Dosada05/pong-tournament/services"
	"github.com/Dosada05/pong-tournament/tournament"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type TournamentResponse struct {
	Tournament models.Tournament `json:"tournament"`
}

type TournamentListResponse struct {
	Tournaments []models.Tournament `json:"tournaments"`
}

type StateResponse struct {
	State tournament.State `json:"state"`
}

type EventsResponse struct {
	Events []models.MatchEvent `json:"events"`
}

type ShootersResponse struct {
	Shooters []models.ShooterRow `json:"shooters"`
}

type TournamentIDPath struct {
	TournamentID int `path:"tournamentID"`
}

type ListQuery struct {
	Limit int `query:"limit"`
}

type ShootersQuery struct {
	TournamentIDPath
	Phase       string `query:"phase" enum:"all,groups,playoffs"`
	HideUnknown bool   `query:"hide_unknown"`
	Limit       int    `query:"limit"`
}

type operation struct {
	method, path, summary string
	req                   interface{}
	resp                  interface{}
	status                int
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Pong Tournament API"
	r.Spec.Info.Version = "1.0.0"
	r.Spec.Info.WithDescription("Runs beer-pong tournaments: group stage, playoff bracket and live match scoring.")

	base := "/api/tournaments/{tournamentID}"
	ops := []operation{
		{http.MethodPost, "/api/tournaments", "Create tournament", CreateTournamentInput{}, TournamentResponse{}, http.StatusCreated},
		{http.MethodGet, "/api/tournaments", "List tournaments", ListQuery{}, TournamentListResponse{}, http.StatusOK},
		{http.MethodGet, "/api/tournaments/latest", "Latest tournament with state and events", nil, services.TournamentDetails{}, http.StatusOK},
		{http.MethodGet, base + "/state", "Current snapshot", TournamentIDPath{}, StateResponse{}, http.StatusOK},
		{http.MethodPut, base + "/state", "Restore snapshot", RestoreStateRequest{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/teams", "Submit teams", SubmitTeamsRequest{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/start", "Start tournament", StartRequest{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/matches/select", "Select match to play", SelectMatchRequest{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/playoffs/setup", "Open playoff setup", TournamentIDPath{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/playoffs", "Generate playoff bracket", GeneratePlayoffsRequest{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/groups/finish", "Finish group stage", TournamentIDPath{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/reset", "Reset finished tournament", TournamentIDPath{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/game/cups", "Toggle cup", ToggleCupRequest{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/game/undo", "Undo last cup change or rearrange", TournamentIDPath{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/game/rearrange", "Rearrange opponent cups", RearrangeRequest{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/game/attribution", "Credit pending hit", AttributionRequest{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/game/clock", "Start or pause clock", ClockRequest{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/game/end", "End match by hand", TournamentIDPath{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/game/finalize", "Commit match result", TournamentIDPath{}, StateResponse{}, http.StatusOK},
		{http.MethodPost, base + "/game/leave", "Leave match without result", TournamentIDPath{}, StateResponse{}, http.StatusOK},
		{http.MethodGet, base + "/events", "Match event log", TournamentIDPath{}, EventsResponse{}, http.StatusOK},
		{http.MethodGet, base + "/shooters", "Top shooters", ShootersQuery{}, ShootersResponse{}, http.StatusOK},
	}

	for _, op := range ops {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(op.status))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
		if op.path != "/api/tournaments" {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
		}
		if op.method != http.MethodGet {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
		}
		_ = r.AddOperation(oc)
	}

	ws, _ := r.NewOperationContext(http.MethodGet, "/ws/tournaments/{tournamentID}")
	ws.SetSummary("Live tournament updates")
	ws.SetDescription("Upgrades to a WebSocket that pushes STATE_UPDATED and MATCH_EVENT messages.")
	ws.AddReqStructure(TournamentIDPath{})
	ws.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols), openapi.WithContentType("text/plain"))
	_ = r.AddOperation(ws)

	return r.Spec
}

type RestoreStateRequest struct {
	TournamentIDPath
	tournament.State
}

type SubmitTeamsRequest struct {
	TournamentIDPath
	SubmitTeamsInput
}

type StartRequest struct {
	TournamentIDPath
	StartTournamentInput
}

type SelectMatchRequest struct {
	TournamentIDPath
	SelectMatchInput
}

type GeneratePlayoffsRequest struct {
	TournamentIDPath
	GeneratePlayoffsInput
}

type ToggleCupRequest struct {
	TournamentIDPath
	ToggleCupInput
}

type RearrangeRequest struct {
	TournamentIDPath
	RearrangeInput
}

type AttributionRequest struct {
	TournamentIDPath
	AttributionInput
}

type ClockRequest struct {
	TournamentIDPath
	ClockInput
}

// OpenAPIHandler serves the generated OpenAPI document.
func OpenAPIHandler() http.HandlerFunc {
	data, _ := json.MarshalIndent(newOpenAPISpec(), "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// SwaggerUIHandler serves Swagger UI pointed at specURL.
func SwaggerUIHandler(specURL string) http.HandlerFunc {
	return httpSwagger.Handler(httpSwagger.URL(specURL))
}
