package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worknest/worknest/internal/apperr"
)

// respondError maps a service error to its HTTP status. Blocked-transition
// errors carry the offending task titles so the client needs no follow-up
// request.
func respondError(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	body := gin.H{"error": appErr.Message}
	if len(appErr.BlockingTasks) > 0 {
		body["blockingTasks"] = appErr.BlockingTasks
	}
	c.JSON(appErr.Status(), body)
}
