package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"watchrelay/internal/protocol"
	"watchrelay/internal/rooms"
)

type Handler struct {
	registry  *rooms.Registry
	keepAlive time.Duration
	buffer    int
	upgrader  websocket.Upgrader
}

func NewHandler(registry *rooms.Registry, keepAlive time.Duration, buffer int) *Handler {
	return &Handler{
		registry:  registry,
		keepAlive: keepAlive,
		buffer:    buffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID, err := extractRoomID(r.URL.Path)
	if err != nil {
		log.Printf("WebSocket: invalid room path: %s", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid room path"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// If upgrade fails, the connection may already be partially
		// written; don't attempt an error response.
		log.Printf("WebSocket: upgrade failed for room %s: %v", roomID, err)
		return
	}

	room := h.registry.GetOrCreate(roomID)
	sub := room.Subscribe(h.buffer)
	log.Printf("WebSocket: subscriber %s streaming room %s", sub.ID(), roomID)

	go h.writeLoop(conn, sub)
	h.readLoop(conn, room)

	room.Unsubscribe(sub)
	log.Printf("WebSocket: subscriber %s left room %s", sub.ID(), roomID)
}

// writeLoop is the single writer for the connection: it pumps broadcast
// frames and interleaves keep-alive pings. It closes the connection on
// exit so the read loop unblocks.
func (h *Handler) writeLoop(conn *websocket.Conn, sub *rooms.Subscriber) {
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case data, ok := <-sub.C():
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.TextMessage, protocol.Ping(time.Now().UnixMilli())); err != nil {
				return
			}
		}
	}
}

// readLoop treats each inbound text frame as a publish into the room,
// with the same shape as the emit endpoint body. Malformed frames are
// skipped; a read error means the client is gone.
func (h *Handler) readLoop(conn *websocket.Conn, room *rooms.Room) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var evt protocol.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}
		if evt.Type == "" {
			continue
		}
		evt.Initial = false
		room.Ingest(&evt)
	}
}

func extractRoomID(path string) (string, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "ws" || parts[1] != "watchparty" {
		return "", errors.New("invalid path")
	}
	return parts[2], nil
}
