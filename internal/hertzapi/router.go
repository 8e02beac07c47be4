package hertzapi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/RanFeng/ilog"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"watchrelay/internal/hertzws"
	"watchrelay/internal/protocol"
	"watchrelay/internal/rooms"
)

// NewRouter mounts the relay routes on a Hertz server.
func NewRouter(h *server.Hertz, registry *rooms.Registry, keepAlive time.Duration, buffer int) *server.Hertz {
	wsHandler := hertzws.NewHandler(registry, keepAlive, buffer)

	h.Use(recoveryMiddleware())

	h.GET("/healthz", func(c context.Context, ctx *app.RequestContext) {
		ctx.String(consts.StatusOK, "ok")
	})

	api := h.Group("/api/watchparty")
	{
		api.POST("/emit", handleEmit(registry))
		api.GET("/rooms/:roomId", handleRoomState(registry))
	}

	h.GET("/ws/watchparty/:roomId", wsHandler.HandleWebSocket)

	return h
}

func recoveryMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				ctx.String(consts.StatusInternalServerError, "Internal Server Error")
			}
		}()
		ctx.Next(c)
	}
}

type emitRequest struct {
	Room    string          `json:"room"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Sender  string          `json:"sender"`
}

func handleEmit(registry *rooms.Registry) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		var payload emitRequest
		if err := json.Unmarshal(ctx.Request.Body(), &payload); err != nil {
			ctx.JSON(consts.StatusBadRequest, protocol.Ack{OK: false, Error: "invalid request body"})
			return
		}

		roomID := payload.Room
		if roomID == "" {
			roomID = rooms.DefaultRoom
		}
		evt := &protocol.Event{
			Type:    payload.Type,
			Payload: payload.Payload,
			Sender:  payload.Sender,
		}
		registry.GetOrCreate(roomID).Ingest(evt)
		ilog.EventInfo(c, "emit", "roomID", roomID, "type", evt.Type, "sender", evt.Sender)

		ctx.JSON(consts.StatusOK, protocol.Ack{OK: true})
	}
}

func handleRoomState(registry *rooms.Registry) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		roomID := ctx.Param("roomId")
		room, ok := registry.Lookup(roomID)
		if !ok {
			ctx.JSON(consts.StatusNotFound, protocol.Ack{OK: false, Error: "room not found"})
			return
		}
		ctx.JSON(consts.StatusOK, room.Snapshot())
	}
}
