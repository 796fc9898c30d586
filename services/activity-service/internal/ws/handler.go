package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced at the gateway.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// roomsFor derives the rooms a connection joins from its identity. Every
// user gets a private room plus their role-wide room; a consultation id adds
// that consultation's room.
func roomsFor(userID, userType, consultationID string) []string {
	var rooms []string
	if userID != "" {
		rooms = append(rooms, "user_"+userID)
		if strings.EqualFold(userType, "client") {
			rooms = append(rooms, "client_"+userID)
		}
	}
	switch strings.ToLower(userType) {
	case "analyst":
		rooms = append(rooms, "analyst_room")
	case "ca":
		rooms = append(rooms, "ca_room")
	case "client":
		rooms = append(rooms, "client_room")
	}
	if consultationID != "" {
		rooms = append(rooms, "consultation_"+consultationID)
	}
	return rooms
}

// Serve upgrades the request and pumps hub messages to the peer until it
// disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	userType := strings.TrimSpace(r.URL.Query().Get("userType"))
	consultationID := strings.TrimSpace(r.URL.Query().Get("consultationId"))

	rooms := roomsFor(userID, userType, consultationID)
	if len(rooms) == 0 {
		http.Error(w, "userId or consultationId required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &client{
		send:  make(chan []byte, sendBuffer),
		rooms: rooms,
	}
	h.register(c)
	h.logger.Info("websocket connected", "user_id", userID, "rooms", len(rooms))

	go h.writePump(conn, c)
	go h.readPump(conn, c)
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		h.unregister(c)
		conn.Close()
	}()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients only listen; any inbound frame besides control traffic is
	// discarded.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
