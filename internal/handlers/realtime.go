package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/worknest/worknest/internal/logger"
	"github.com/worknest/worknest/internal/middleware"
	"github.com/worknest/worknest/internal/realtime"
)

// RealtimeHandler upgrades authenticated connections onto the board hub. The
// bearer credential is validated by the auth middleware before the upgrade;
// room joins are re-authorized per join-project message inside the hub.
type RealtimeHandler struct {
	hub *realtime.Hub
	log *logger.Logger

	upgrader websocket.Upgrader
}

// NewRealtimeHandler creates a RealtimeHandler.
func NewRealtimeHandler(hub *realtime.Hub, log *logger.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin is enforced by the CORS middleware for the REST surface;
			// the socket relies on the bearer credential instead.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Connect upgrades the request to a websocket and attaches it to the hub.
func (h *RealtimeHandler) Connect(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("realtime: upgrade failed for user=%s: %v", user.ID, err)
		return
	}
	h.hub.NewClient(conn, user.ID)
}
