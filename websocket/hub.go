package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

// Event is pushed to a connected client when something happens to one of their
// tests. Currently the only event type is "test_completed".
type Event struct {
	Type   string    `json:"type"`
	UserID uuid.UUID `json:"-"`
	TestID uuid.UUID `json:"test_id"`
	Score  int       `json:"score"`
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var events = make(chan Event, 16)

// NotifyTestCompleted pushes a completion event to the test owner, if connected.
// Best-effort: nothing happens when the owner has no open socket.
func NotifyTestCompleted(userID, testID uuid.UUID, score int) {
	select {
	case events <- Event{Type: "test_completed", UserID: userID, TestID: testID, Score: score}:
	default:
		log.Printf("Event queue full, dropping test_completed event for user %s", userID)
	}
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.UserID)
			clientsMu.Lock()
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		case event := <-events:
			clientsMu.RLock()
			conn, ok := clients[event.UserID]
			clientsMu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("Error sending event to client %s: %v", event.UserID, err)
				conn.Close()
				clientsMu.Lock()
				if current, ok := clients[event.UserID]; ok && current == conn {
					delete(clients, event.UserID)
				}
				clientsMu.Unlock()
			}
		}
	}
}
