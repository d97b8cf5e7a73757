package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"users-service/entities"
	"users-service/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const EventUserCreated = "user_created"

// Event is the envelope pushed to feed subscribers.
type Event struct {
	Type string            `json:"type"`
	Data entities.UserJSON `json:"data"`
}

// WSHandler serves the live users feed.
type WSHandler struct {
	mgr *ws.Manager
}

func NewWSHandler(mgr *ws.Manager) *WSHandler {
	return &WSHandler{mgr: mgr}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleUsersWS upgrades to websocket and keeps the subscriber registered
// until the client goes away.
// GET /users/ws
func (h *WSHandler) HandleUsersWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	id := h.mgr.Register(conn)
	log.Printf("feed subscriber connected: %s", id)

	defer func() {
		h.mgr.Unregister(id)
		log.Printf("feed subscriber disconnected: %s", id)
	}()

	// The feed is one-way; reading only detects close frames.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("read error from %s: %v", id, err)
			}
			return
		}
	}
}

// UserCreated pushes the new user to every subscriber.
func (h *WSHandler) UserCreated(user entities.User) {
	b, err := json.Marshal(Event{Type: EventUserCreated, Data: user.ToJSON()})
	if err != nil {
		log.Printf("error encoding %s event: %v", EventUserCreated, err)
		return
	}
	if n := h.mgr.Broadcast(b); n > 0 {
		log.Printf("user %d pushed to %d subscriber(s)", user.ID, n)
	}
}
