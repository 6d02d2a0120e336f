package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/pong-tournament/brackets"
	"github.com/Dosada05/pong-tournament/services"
)

type WebSocketHandler struct {
	hub               *brackets.Hub
	tournamentService services.TournamentService
	upgrader          websocket.Upgrader
}

// NewWebSocketHandler принимает соединения только с allowedOrigins.
// Значение "*" разрешает любой Origin.
func NewWebSocketHandler(hub *brackets.Hub, ts services.TournamentService, allowedOrigins []string) *WebSocketHandler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub:               hub,
		tournamentService: ts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

// ServeWs обрабатывает GET /ws/tournaments/{tournamentID}.
// Первым сообщением отправляется текущее состояние, дальше приходят
// STATE_UPDATED и MATCH_EVENT.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	id, ok := tournamentID(w, r)
	if !ok {
		return
	}
	state, err := h.tournamentService.State(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	room := brackets.TournamentRoom(id)
	initial, err := json.Marshal(brackets.WebSocketMessage{
		Type:    brackets.MessageStateUpdated,
		Payload: services.StateUpdatedPayload{TournamentID: id, State: state},
		RoomID:  room,
	})
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection for tournament %d: %v", id, err)
		return
	}

	client := h.hub.NewClient(conn, room)
	client.Send <- initial
	if !h.hub.Join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
