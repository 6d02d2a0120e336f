package brackets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTournamentRoom(t *testing.T) {
	assert.Equal(t, "tournament_12", TournamentRoom(12))
}

func TestHubBroadcastToRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := hub.NewClient(conn, TournamentRoom(1))
		if !hub.Join(client) {
			return
		}
		go client.WritePump()
		go client.ReadPump()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.RoomSize(TournamentRoom(1)) == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToRoom(TournamentRoom(2), WebSocketMessage{Type: "IGNORED"})
	hub.BroadcastToRoom(TournamentRoom(1), WebSocketMessage{Type: MessageStateUpdated, Payload: map[string]int{"n": 1}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg WebSocketMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageStateUpdated, msg.Type)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.RoomSize(TournamentRoom(1)) == 0 }, time.Second, 5*time.Millisecond)
}
