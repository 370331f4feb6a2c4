package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worknest/worknest/internal/middleware"
	"github.com/worknest/worknest/internal/services"
)

// NotificationHandler serves the principal's notification feed.
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the principal's notifications; ?unread=true filters to unread.
func (h *NotificationHandler) List(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	notes, err := h.notifications.List(c.Request.Context(), user, c.Query("unread") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// MarkRead marks one notification read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), user, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllRead marks all of the principal's notifications read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkAllRead(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
