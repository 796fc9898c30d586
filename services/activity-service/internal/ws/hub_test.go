package ws

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (h *Hub) serveMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.Serve)
	return mux
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForRoom(t *testing.T, hub *Hub, room string, size int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomSize(room) == size {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("room %s never reached size %d", room, size)
}

func TestHub_BroadcastToUserRoom(t *testing.T) {
	hub := testHub()
	server := httptest.NewServer(hub.serveMux())
	defer server.Close()

	conn := dial(t, server, "userId=asha@example.com&userType=Client")
	waitForRoom(t, hub, "user_asha@example.com", 1)

	hub.Broadcast("user_asha@example.com", []byte(`{"activityType":"payment_completed"}`))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(msg), "payment_completed") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestHub_RoleRoomDoesNotLeakAcrossRoles(t *testing.T) {
	hub := testHub()
	server := httptest.NewServer(hub.serveMux())
	defer server.Close()

	analyst := dial(t, server, "userId=ravi&userType=Analyst")
	client := dial(t, server, "userId=asha@example.com&userType=Client")
	waitForRoom(t, hub, "analyst_room", 1)
	waitForRoom(t, hub, "client_room", 1)

	hub.Broadcast("analyst_room", []byte(`{"for":"analysts"}`))

	_ = analyst.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, msg, err := analyst.ReadMessage(); err != nil {
		t.Fatalf("analyst read: %v", err)
	} else if !strings.Contains(string(msg), "analysts") {
		t.Fatalf("unexpected analyst message %q", msg)
	}

	_ = client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, msg, err := client.ReadMessage(); err == nil {
		t.Fatalf("client should not receive analyst messages, got %q", msg)
	}
}

func TestHub_ConsultationRoom(t *testing.T) {
	hub := testHub()
	server := httptest.NewServer(hub.serveMux())
	defer server.Close()

	conn := dial(t, server, "userId=asha@example.com&userType=Client&consultationId=c42")
	waitForRoom(t, hub, "consultation_c42", 1)

	hub.Broadcast("consultation_c42", []byte(`{"point":{"income":120000}}`))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, msg, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read: %v", err)
	} else if !strings.Contains(string(msg), "income") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestHub_DisconnectLeavesRooms(t *testing.T) {
	hub := testHub()
	server := httptest.NewServer(hub.serveMux())
	defer server.Close()

	conn := dial(t, server, "userId=ravi&userType=Analyst")
	waitForRoom(t, hub, "user_ravi", 1)

	conn.Close()
	waitForRoom(t, hub, "user_ravi", 0)
}
