package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/cache"
	"github.com/worknest/worknest/internal/config"
	"github.com/worknest/worknest/internal/database"
	"github.com/worknest/worknest/internal/handlers"
	"github.com/worknest/worknest/internal/idgen"
	"github.com/worknest/worknest/internal/integration"
	"github.com/worknest/worknest/internal/logger"
	"github.com/worknest/worknest/internal/realtime"
	"github.com/worknest/worknest/internal/services"
	"github.com/worknest/worknest/internal/storage"
	"github.com/worknest/worknest/internal/store/postgres"
)

func main() {
	root := &cobra.Command{
		Use:   "worknest-server",
		Short: "WorkNest board synchronization server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	log := logger.Default()

	cfg := config.Defaults()
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg.DB)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	st := postgres.New(db.Pool)

	guard, err := authz.NewGuard(st)
	if err != nil {
		return fmt.Errorf("init authorization guard: %w", err)
	}

	files, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}
	if !files.Enabled() {
		log.Warn("object storage not configured; attachment uploads disabled")
	}

	listings := cache.New(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
	hub := realtime.NewHub(guard, log)
	dispatcher := integration.NewDispatcher(st, log)

	authService := services.NewAuthService(st, st)
	projectService := services.NewProjectService(st, st, st, log)
	projectService.SetGuard(guard)
	notificationService := services.NewNotificationService(st)
	webhookService := services.NewWebhookService(st, st, guard)
	taskService := services.NewTaskService(services.TaskServiceDeps{
		Tasks:         st,
		Projects:      st,
		Users:         st,
		Notifications: st,
		Activity:      st,
		Guard:         guard,
		Allocator:     idgen.New(st, st, log),
		Events:        hub,
		Cache:         listings,
		Webhooks:      dispatcher,
		Files:         files,
		Log:           log,
	})

	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:          handlers.NewAuthHandler(authService),
		Projects:      handlers.NewProjectHandler(projectService, webhookService),
		Tasks:         handlers.NewTaskHandler(taskService, listings, log),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Realtime:      handlers.NewRealtimeHandler(hub, log),
		AuthService:   authService,
		CORSOrigin:    cfg.Server.CORSOrigin,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
