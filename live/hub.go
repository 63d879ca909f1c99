package live

import (
	"encoding/json"
	"log"
	"sync"
)

// Типы сообщений, рассылаемых в комнаты турниров.
const (
	MessageMatchFinalized     = "MATCH_FINALIZED"
	MessageLeaderboardUpdated = "LEADERBOARD_UPDATED"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

// Hub — реестр websocket-клиентов, сгруппированных по комнатам
// (комната = турнир). Результаты финализации матчей рассылаются
// всем подписчикам комнаты.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan roomMessage
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
}

type roomMessage struct {
	room string
	data []byte
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, 16),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if _, okClient := clients[client]; okClient {
					client.closeSend()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[msg.room] {
				select {
				case client.send <- msg.data:
				default:
					// Медленный клиент: не блокируем рассылку.
					client.closeSend()
					delete(h.rooms[msg.room], client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToRoom сериализует сообщение и рассылает его в комнату.
// Неблокирующий вызов, безопасен из любых горутин.
func (h *Hub) BroadcastToRoom(room, messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload, RoomID: room})
	if err != nil {
		log.Printf("live: failed to marshal %s message for room %s: %v", messageType, room, err)
		return
	}
	h.broadcast <- roomMessage{room: room, data: data}
}
