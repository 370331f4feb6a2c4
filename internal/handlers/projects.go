package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/worknest/worknest/internal/middleware"
	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/services"
)

// ProjectHandler handles project, membership, column, activity, and webhook
// endpoints.
type ProjectHandler struct {
	projects *services.ProjectService
	webhooks *services.WebhookService
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(projects *services.ProjectService, webhooks *services.WebhookService) *ProjectHandler {
	return &ProjectHandler{projects: projects, webhooks: webhooks}
}

// CreateProjectRequest is the project creation payload.
type CreateProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Workspace   string `json:"workspace"`
}

// List lists the principal's projects.
func (h *ProjectHandler) List(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	projects, err := h.projects.List(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// Create creates a project owned by the principal.
func (h *ProjectHandler) Create(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	project, err := h.projects.Create(c.Request.Context(), user, req.Title, req.Description, req.Workspace)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// Get returns one project.
func (h *ProjectHandler) Get(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	project, err := h.projects.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Update applies a partial project update.
func (h *ProjectHandler) Update(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	var req services.UpdateProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	project, err := h.projects.Update(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// UpdateSettings replaces the project feature toggles.
func (h *ProjectHandler) UpdateSettings(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	var req models.ProjectSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	project, err := h.projects.UpdateSettings(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Delete removes a project.
func (h *ProjectHandler) Delete(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MemberRequest is the add/update membership payload.
type MemberRequest struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
}

// AddMember adds a member to the project.
func (h *ProjectHandler) AddMember(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	member, err := h.projects.AddMember(c.Request.Context(), user, c.Param("id"), req.UserID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

// UpdateMemberRole changes a member's role.
func (h *ProjectHandler) UpdateMemberRole(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	var req struct {
		Role models.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.projects.UpdateMemberRole(c.Request.Context(), user, c.Param("id"), c.Param("userId"), req.Role); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveMember removes a member from the project.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	if err := h.projects.RemoveMember(c.Request.Context(), user, c.Param("id"), c.Param("userId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetColumns replaces the board column order.
func (h *ProjectHandler) SetColumns(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	var req struct {
		Columns []models.Column `json:"columns"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.projects.SetColumns(c.Request.Context(), user, c.Param("id"), req.Columns); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Activity lists a project's recent activity.
func (h *ProjectHandler) Activity(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.projects.Activity(c.Request.Context(), user, c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// WebhookRequest is the webhook registration payload.
type WebhookRequest struct {
	URL    string `json:"url"`
	Secret string `json:"secret"`
}

// CreateWebhook registers a webhook for the project.
func (h *ProjectHandler) CreateWebhook(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	hook, err := h.webhooks.Create(c.Request.Context(), user, c.Param("id"), req.URL, req.Secret)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hook)
}

// ListWebhooks lists the project's webhook registrations.
func (h *ProjectHandler) ListWebhooks(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	hooks, err := h.webhooks.List(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hooks)
}

// DeleteWebhook removes a webhook registration.
func (h *ProjectHandler) DeleteWebhook(c *gin.Context) {
	user, ok := middleware.RequireAuth(c)
	if !ok {
		return
	}
	if err := h.webhooks.Delete(c.Request.Context(), user, c.Param("id"), c.Param("webhookId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
