package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/worknest/worknest/internal/cache"
	"github.com/worknest/worknest/internal/logger"
	"github.com/worknest/worknest/internal/middleware"
	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/services"
	"github.com/worknest/worknest/internal/store"
)

// TaskHandler handles the task mutation API.
type TaskHandler struct {
	tasks    *services.TaskService
	listings *cache.ListingCache
	log      *logger.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks *services.TaskService, listings *cache.ListingCache, log *logger.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, listings: listings, log: log}
}

// List serves the project task listing through the read-through cache: keys
// are caller identity plus the exact path and query, so an entry can only
// exist for a caller the service already authorized.
func (h *TaskHandler) List(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}

	key := cache.Key(user.ID, c.Request.URL.RequestURI())
	if body, ok := h.listings.Get(key); ok {
		c.Data(http.StatusOK, "application/json", body)
		return
	}

	page, err := h.tasks.List(c.Request.Context(), user, c.Param("projectId"), taskFilterFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	body, err := json.Marshal(page)
	if err != nil {
		respondError(c, err)
		return
	}
	h.listings.Set(key, body)
	c.Data(http.StatusOK, "application/json", body)
}

func taskFilterFromQuery(c *gin.Context) store.TaskFilter {
	f := store.TaskFilter{
		Search:     c.Query("search"),
		AssigneeID: c.Query("assignee_id"),
		Status:     models.Status(c.Query("status")),
		Priority:   models.Priority(c.Query("priority")),
	}
	f.Page, _ = strconv.Atoi(c.Query("page"))
	f.PageSize, _ = strconv.Atoi(c.Query("page_size"))
	if v := c.Query("due_from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DueFrom = &t
		}
	}
	if v := c.Query("due_to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DueTo = &t
		}
	}
	return f
}

// Create creates a task.
func (h *TaskHandler) Create(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	var req services.CreateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), user, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// Update applies a partial task update.
func (h *TaskHandler) Update(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	var req services.UpdateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	task, err := h.tasks.Update(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Delete removes a task.
func (h *TaskHandler) Delete(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CommentRequest is the comment payload.
type CommentRequest struct {
	Text string `json:"text"`
}

// AddComment appends a comment to a task.
func (h *TaskHandler) AddComment(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	comment, err := h.tasks.AddComment(c.Request.Context(), user, c.Param("id"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// AddAttachment uploads a file (multipart field "file") and records it.
func (h *TaskHandler) AddAttachment(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}
	defer f.Close()

	att, err := h.tasks.AddAttachment(c.Request.Context(), user, c.Param("id"),
		header.Filename, header.Header.Get("Content-Type"), header.Size, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, att)
}

// DownloadAttachment streams an attachment binary.
func (h *TaskHandler) DownloadAttachment(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	att, res, err := h.tasks.OpenAttachment(c.Request.Context(), user, c.Param("id"), c.Param("attachmentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer res.Reader.Close()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
	c.DataFromReader(http.StatusOK, res.Size, res.ContentType, res.Reader, nil)
}

// RemoveAttachment deletes an attachment.
func (h *TaskHandler) RemoveAttachment(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	if err := h.tasks.RemoveAttachment(c.Request.Context(), user, c.Param("id"), c.Param("attachmentId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DependencyRequest is the dependency edge payload.
type DependencyRequest struct {
	DependsOn string                `json:"depends_on"`
	Type      models.DependencyType `json:"type"`
}

// AddDependency adds a dependency edge.
func (h *TaskHandler) AddDependency(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	var req DependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	dep, err := h.tasks.AddDependency(c.Request.Context(), user, c.Param("id"), req.DependsOn, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dep)
}

// RemoveDependency removes a dependency edge.
func (h *TaskHandler) RemoveDependency(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	if err := h.tasks.RemoveDependency(c.Request.Context(), user, c.Param("id"), c.Param("dependencyId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
