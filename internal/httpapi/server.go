package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"watchrelay/internal/protocol"
	"watchrelay/internal/rooms"
	"watchrelay/internal/ws"
)

type Server struct {
	registry  *rooms.Registry
	ws        *ws.Handler
	router    *echo.Echo
	keepAlive time.Duration
	buffer    int
}

type emitRequest struct {
	Room    string          `json:"room"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Sender  string          `json:"sender"`
}

func NewServer(registry *rooms.Registry, keepAlive time.Duration, buffer int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	server := &Server{
		registry:  registry,
		ws:        ws.NewHandler(registry, keepAlive, buffer),
		router:    e,
		keepAlive: keepAlive,
		buffer:    buffer,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.POST("/api/watchparty/emit", server.handleEmit)
	e.GET("/api/watchparty/events", server.handleEvents)
	e.GET("/api/watchparty/rooms/:roomId", server.handleRoomState)
	e.GET("/ws/watchparty/:roomId", server.handleWebSocket)

	return server
}

func (s *Server) Router() http.Handler {
	return s.router
}

// handleEmit accepts one event and relays it into its room. The
// acknowledgment covers acceptance only, not delivery.
func (s *Server) handleEmit(c echo.Context) error {
	var payload emitRequest
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, protocol.Ack{OK: false, Error: "invalid request body"})
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
	s.registry.GetOrCreate(roomID).Ingest(evt)
	return c.JSON(http.StatusOK, protocol.Ack{OK: true})
}

// handleEvents serves the SSE subscription stream: the opening frames,
// then every event broadcast to the room plus periodic keep-alives,
// until the client goes away.
func (s *Server) handleEvents(c echo.Context) error {
	roomID := c.QueryParam("room")
	if roomID == "" {
		roomID = rooms.DefaultRoom
	}
	room := s.registry.GetOrCreate(roomID)
	sub := room.Subscribe(s.buffer)
	defer room.Unsubscribe(sub)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-sub.C():
			if !ok {
				return nil
			}
			if err := writeFrame(res, data); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := writeFrame(res, protocol.Ping(time.Now().UnixMilli())); err != nil {
				return nil
			}
		}
	}
}

func writeFrame(res *echo.Response, data []byte) error {
	if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

func (s *Server) handleRoomState(c echo.Context) error {
	roomID := c.Param("roomId")
	room, ok := s.registry.Lookup(roomID)
	if !ok {
		return c.JSON(http.StatusNotFound, protocol.Ack{OK: false, Error: "room not found"})
	}
	return c.JSON(http.StatusOK, room.Snapshot())
}

func (s *Server) handleWebSocket(c echo.Context) error {
	roomID := c.Param("roomId")
	// Rewrite the path so the WebSocket handler can extract the room id.
	c.Request().URL.Path = "/ws/watchparty/" + roomID
	// The WebSocket handler takes full control of the connection.
	s.ws.ServeHTTP(c.Response(), c.Request())
	return nil
}
