package ws

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 5 * time.Second
	sendQueue = 16
)

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Manager keeps track of clients subscribed to the users event feed. Each
// subscriber has its own queue drained by a writer goroutine, so a slow
// client never holds up Broadcast.
type Manager struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber // subscriberID -> subscriber
}

func NewManager() *Manager {
	return &Manager{subscribers: make(map[string]*subscriber)}
}

// Register adds a connection, starts its writer and returns its subscriber ID.
func (m *Manager) Register(conn *websocket.Conn) string {
	id := uuid.New().String()
	s := &subscriber{conn: conn, send: make(chan []byte, sendQueue)}

	m.mu.Lock()
	m.subscribers[id] = s
	m.mu.Unlock()

	go s.writePump(id)
	return id
}

// Unregister closes and removes a subscriber.
func (m *Manager) Unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subscribers[id]; ok {
		m.drop(id, s)
	}
}

// Broadcast queues a text message for every subscriber without blocking.
// Subscribers whose queue is full are dropped. It returns the number of
// subscribers the message was queued for.
func (m *Manager) Broadcast(payload []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	queued := 0
	for id, s := range m.subscribers {
		select {
		case s.send <- payload:
			queued++
		default:
			log.Printf("dropping subscriber %s: send queue full", id)
			m.drop(id, s)
		}
	}
	return queued
}

// Count returns the number of current subscribers.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// CloseAll disconnects every subscriber, used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.subscribers {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		m.drop(id, s)
	}
}

// drop must be called with m.mu held.
func (m *Manager) drop(id string, s *subscriber) {
	close(s.send)
	_ = s.conn.Close()
	delete(m.subscribers, id)
}

// writePump is the only goroutine writing data frames to the connection.
func (s *subscriber) writePump(id string) {
	for payload := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("write to subscriber %s failed: %v", id, err)
			// The reader sees the closed connection and unregisters.
			_ = s.conn.Close()
			for range s.send {
			}
			return
		}
	}
}
