package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fishfollow/internal/config"
	"fishfollow/internal/logger"

	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T, welcome Welcome) (*HubService, *httptest.Server) {
	t.Helper()
	l := logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
	t.Cleanup(func() { l.Close() })

	hub := NewHubService(l)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn, welcome)
		defer hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return hub, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *HubService, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, got %d", n, hub.GetClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesAllViewers(t *testing.T) {
	hub, server := newTestHub(t, nil)
	a := dial(t, server)
	b := dial(t, server)
	waitForClients(t, hub, 2)

	if !hub.Broadcast([]byte(`{"type":"position"}`)) {
		t.Fatal("Broadcast was dropped")
	}

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage failed: %v", err)
		}
		if string(msg) != `{"type":"position"}` {
			t.Errorf("Unexpected message %s", msg)
		}
	}
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub, server := newTestHub(t, nil)
	conn := dial(t, server)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_WelcomePrecedesBroadcasts(t *testing.T) {
	var hub *HubService
	welcomed := make(chan struct{})
	hub, server := newTestHub(t, func() [][]byte {
		// Queued while the viewer is being greeted, so it must follow the greeting.
		hub.Broadcast([]byte("update"))
		close(welcomed)
		return [][]byte{[]byte("snapshot"), []byte("alert")}
	})
	conn := dial(t, server)

	select {
	case <-welcomed:
	case <-time.After(2 * time.Second):
		t.Fatal("Viewer was never greeted")
	}

	for _, want := range []string{"snapshot", "alert", "update"} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage failed: %v", err)
		}
		if string(msg) != want {
			t.Errorf("Got %q, expected %q", msg, want)
		}
	}
}
