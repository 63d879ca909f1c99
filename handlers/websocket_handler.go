package handlers

import (
	"log/slog"
	"net/http"

	"github.com/flowclash/battle-system/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: ограничить Origin доменом фронтенда перед продакшеном.
		return true
	},
}

type WebSocketHandler struct {
	hub *live.Hub
}

func NewWebSocketHandler(hub *live.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeTournament подключает клиента к комнате турнира; комната получает
// события финализации матчей и обновления таблицы лидеров.
func (h *WebSocketHandler) ServeTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту HTTP-ошибкой.
		slog.Error("failed to upgrade websocket connection",
			slog.String("tournament_id", tournamentID.String()), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, tournamentID.String())
	client.Start()
}
