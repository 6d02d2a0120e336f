package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Dosada05/pong-tournament/game"
	"github.com/Dosada05/pong-tournament/services"
	"github.com/Dosada05/pong-tournament/tournament"
)

// GameHandler drives the live match of a tournament.
type GameHandler struct {
	tournamentService services.TournamentService
}

func NewGameHandler(ts services.TournamentService) *GameHandler {
	return &GameHandler{tournamentService: ts}
}

type ToggleCupInput struct {
	Side game.Side `json:"side"`
	Cup  int       `json:"cup"`
}

type RearrangeInput struct {
	Side      game.Side          `json:"side"`
	Formation game.FormationType `json:"formation"`
}

type AttributionInput struct {
	Player string `json:"player"`
}

type ClockInput struct {
	Running bool `json:"running"`
}

func (h *GameHandler) ToggleCupHandler(w http.ResponseWriter, r *http.Request) {
	var input ToggleCupInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !input.Side.Valid() {
		badRequestResponse(w, r, game.ErrInvalidSide)
		return
	}
	dispatchAction(w, r, h.tournamentService, tournament.ToggleCup{Side: input.Side, Cup: input.Cup})
}

func (h *GameHandler) UndoHandler(w http.ResponseWriter, r *http.Request) {
	dispatchAction(w, r, h.tournamentService, tournament.Undo{})
}

func (h *GameHandler) RearrangeHandler(w http.ResponseWriter, r *http.Request) {
	var input RearrangeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !input.Side.Valid() {
		badRequestResponse(w, r, game.ErrInvalidSide)
		return
	}
	dispatchAction(w, r, h.tournamentService, tournament.Rearrange{Side: input.Side, Formation: input.Formation})
}

func (h *GameHandler) AttributionHandler(w http.ResponseWriter, r *http.Request) {
	var input AttributionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	player := strings.TrimSpace(input.Player)
	if player == "" {
		badRequestResponse(w, r, errors.New("player is required"))
		return
	}
	dispatchAction(w, r, h.tournamentService, tournament.ResolveAttribution{Player: player})
}

func (h *GameHandler) ClockHandler(w http.ResponseWriter, r *http.Request) {
	var input ClockInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	dispatchAction(w, r, h.tournamentService, tournament.SetClock{Running: input.Running})
}

func (h *GameHandler) EndHandler(w http.ResponseWriter, r *http.Request) {
	dispatchAction(w, r, h.tournamentService, tournament.EndGame{})
}

func (h *GameHandler) FinalizeHandler(w http.ResponseWriter, r *http.Request) {
	dispatchAction(w, r, h.tournamentService, tournament.FinalizeMatch{})
}

func (h *GameHandler) LeaveHandler(w http.ResponseWriter, r *http.Request) {
	dispatchAction(w, r, h.tournamentService, tournament.LeaveMatch{})
}
