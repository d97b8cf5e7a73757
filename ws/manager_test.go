package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedServer(t *testing.T, m *Manager) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		id := m.Register(conn)
		defer m.Unregister(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestBroadcast_ReachesEverySubscriber(t *testing.T) {
	m := NewManager()
	url := newFeedServer(t, m)

	a := dial(t, url)
	b := dial(t, url)
	require.Eventually(t, func() bool { return m.Count() == 2 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, m.Broadcast([]byte(`{"type":"user_created"}`)))

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		mt, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, mt)
		assert.JSONEq(t, `{"type":"user_created"}`, string(msg))
	}
}

func TestUnregister_OnClientClose(t *testing.T) {
	m := NewManager()
	url := newFeedServer(t, m)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return m.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return m.Count() == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, m.Broadcast([]byte("{}")))
}

func TestCloseAll(t *testing.T) {
	m := NewManager()
	url := newFeedServer(t, m)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return m.Count() == 1 }, time.Second, 10*time.Millisecond)

	m.CloseAll()
	assert.Equal(t, 0, m.Count())

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestUnregister_UnknownIsNoop(t *testing.T) {
	m := NewManager()
	m.Unregister("missing")
	assert.Equal(t, 0, m.Count())
}

func TestBroadcast_StalledSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager()
	url := newFeedServer(t, m)

	dial(t, url) // never reads
	require.Eventually(t, func() bool { return m.Count() == 1 }, time.Second, 10*time.Millisecond)

	payload := make([]byte, 1<<20)
	start := time.Now()
	for i := 0; i < 128; i++ {
		m.Broadcast(payload)
	}
	assert.Less(t, time.Since(start), writeWait)
	require.Eventually(t, func() bool { return m.Count() == 0 }, time.Second, 10*time.Millisecond)
}
