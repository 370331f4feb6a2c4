package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worknest/worknest/internal/middleware"
	"github.com/worknest/worknest/internal/services"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Auth          *AuthHandler
	Projects      *ProjectHandler
	Tasks         *TaskHandler
	Notifications *NotificationHandler
	Realtime      *RealtimeHandler
	AuthService   *services.AuthService
	CORSOrigin    string
}

// NewRouter assembles the gin engine: health, public auth endpoints, and the
// authenticated API groups.
func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(d.CORSOrigin))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	requireAuth := middleware.Auth(d.AuthService)

	authRoutes := api.Group("/auth")
	authRoutes.Use(middleware.AuthRateLimit())
	authRoutes.POST("/register", d.Auth.Register)
	authRoutes.POST("/login", d.Auth.Login)
	authRoutes.GET("/me", requireAuth, d.Auth.Me)

	projects := api.Group("/projects")
	projects.Use(requireAuth)
	projects.GET("", d.Projects.List)
	projects.POST("", d.Projects.Create)
	projects.GET("/:id", d.Projects.Get)
	projects.PUT("/:id", d.Projects.Update)
	projects.DELETE("/:id", d.Projects.Delete)
	projects.PUT("/:id/settings", d.Projects.UpdateSettings)
	projects.POST("/:id/members", d.Projects.AddMember)
	projects.PUT("/:id/members/:userId", d.Projects.UpdateMemberRole)
	projects.DELETE("/:id/members/:userId", d.Projects.RemoveMember)
	projects.PUT("/:id/columns", d.Projects.SetColumns)
	projects.GET("/:id/activity", d.Projects.Activity)
	projects.POST("/:id/webhooks", d.Projects.CreateWebhook)
	projects.GET("/:id/webhooks", d.Projects.ListWebhooks)
	projects.DELETE("/:id/webhooks/:webhookId", d.Projects.DeleteWebhook)

	tasks := api.Group("/tasks")
	tasks.Use(requireAuth)
	tasks.GET("/project/:projectId", d.Tasks.List)
	tasks.POST("", d.Tasks.Create)
	tasks.PUT("/:id", d.Tasks.Update)
	tasks.DELETE("/:id", d.Tasks.Delete)
	tasks.POST("/:id/comments", d.Tasks.AddComment)
	tasks.POST("/:id/attachments", d.Tasks.AddAttachment)
	tasks.GET("/:id/attachments/:attachmentId", d.Tasks.DownloadAttachment)
	tasks.DELETE("/:id/attachments/:attachmentId", d.Tasks.RemoveAttachment)
	tasks.POST("/:id/dependencies", d.Tasks.AddDependency)
	tasks.DELETE("/:id/dependencies/:dependencyId", d.Tasks.RemoveDependency)

	notifications := api.Group("/notifications")
	notifications.Use(requireAuth)
	notifications.GET("", d.Notifications.List)
	notifications.POST("/:id/read", d.Notifications.MarkRead)
	notifications.POST("/read-all", d.Notifications.MarkAllRead)

	api.GET("/realtime", requireAuth, d.Realtime.Connect)

	return router
}
