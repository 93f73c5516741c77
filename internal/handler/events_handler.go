package handler

import (
	"net/http"

	"adminhub/internal/middleware"
	"adminhub/internal/realtime"
	"adminhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventsHandler serves the live event stream over SSE and WebSocket.
type EventsHandler struct {
	broadcaster *realtime.Broadcaster
}

func NewEventsHandler(broadcaster *realtime.Broadcaster) *EventsHandler {
	return &EventsHandler{broadcaster: broadcaster}
}

func (h *EventsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/events", h.Stream)
	router.GET("/ws", middleware.RequireAuth(), h.WebSocket)
}

// Stream holds the SSE connection open and relays broadcast events.
// Unauthenticated callers are admitted with a generated guest id; the
// stream carries only redacted activity payloads.
func (h *EventsHandler) Stream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, response.Error("Streaming unsupported"))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	client := h.broadcaster.AddClient(streamClientID(c), realtime.FormatSSE)
	defer h.broadcaster.RemoveClient(client)

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case message, ok := <-client.Messages():
			if !ok {
				return
			}
			if _, err := c.Writer.Write(message); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// WebSocket bridges the same broadcast stream for clients that cannot
// hold an EventSource open.
func (h *EventsHandler) WebSocket(c *gin.Context) {
	realtime.ServeWS(h.broadcaster, c, streamClientID(c))
}

func streamClientID(c *gin.Context) string {
	if user, ok := middleware.CurrentUser(c); ok {
		return user.ID.String()
	}
	return "guest-" + uuid.NewString()
}
