package hertzws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/websocket"

	"watchrelay/internal/protocol"
	"watchrelay/internal/rooms"
)

type Handler struct {
	registry  *rooms.Registry
	keepAlive time.Duration
	buffer    int
	upgrader  websocket.HertzUpgrader
}

func NewHandler(registry *rooms.Registry, keepAlive time.Duration, buffer int) *Handler {
	return &Handler{
		registry:  registry,
		keepAlive: keepAlive,
		buffer:    buffer,
		upgrader: websocket.HertzUpgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(ctx *app.RequestContext) bool {
				return true
			},
		},
	}
}

// HandleWebSocket upgrades the request and streams the room until the
// client disconnects.
func (h *Handler) HandleWebSocket(c context.Context, ctx *app.RequestContext) {
	roomID := ctx.Param("roomId")
	if roomID == "" {
		roomID = rooms.DefaultRoom
	}

	err := h.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		room := h.registry.GetOrCreate(roomID)
		sub := room.Subscribe(h.buffer)
		log.Printf("WebSocket: subscriber %s streaming room %s", sub.ID(), roomID)

		done := make(chan struct{})
		go func() {
			h.writeLoop(conn, sub)
			close(done)
		}()

		h.readLoop(conn, room)

		room.Unsubscribe(sub)
		<-done
		log.Printf("WebSocket: subscriber %s left room %s", sub.ID(), roomID)
	})
	if err != nil {
		log.Printf("WebSocket: upgrade failed for room %s: %v", roomID, err)
	}
}

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
