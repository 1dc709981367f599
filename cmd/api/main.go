package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"

	"github.com/nestora/studio-api/internal/config"
	"github.com/nestora/studio-api/internal/database"
	"github.com/nestora/studio-api/internal/handlers"
	"github.com/nestora/studio-api/internal/jobs"
	"github.com/nestora/studio-api/internal/middleware"
	"github.com/nestora/studio-api/internal/repository"
	"github.com/nestora/studio-api/internal/services"
	"github.com/nestora/studio-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Setup(cfg.Environment)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	repos := repository.NewRepositories(db)

	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	svcs := services.NewServices(repos, cfg)

	scheduleJobs(worker, svcs)

	h := handlers.NewHandlers(svcs, cfg)

	router := setupRouter(h, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	stats := worker.Stats()
	logger.Info("Background worker stopped",
		"completed_jobs", stats.CompletedJobs,
		"failed_jobs", stats.FailedJobs)

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health.Index)

		// Projects (read only)
		v1.GET("/projects", h.Project.Index)
		v1.GET("/projects/:project_id", h.Project.Show)

		// Payment schedules
		schedule := v1.Group("/projects/:project_id/schedule")
		{
			schedule.GET("", h.Schedule.Show)
			schedule.POST("/submit", h.Schedule.Submit)
			schedule.POST("/weeks", h.Schedule.AddWeek)
			schedule.PUT("/weeks/:week_no", h.Schedule.EditWeek)
			schedule.DELETE("/weeks/:week_no", h.Schedule.DeleteWeek)
			schedule.POST("/weeks/:week_no/payments", h.Schedule.RecordPayment)
			schedule.GET("/export", h.Schedule.Export)
		}

		// Invoices
		v1.GET("/projects/:project_id/invoices", h.Invoice.Index)
		v1.POST("/projects/:project_id/invoices", h.Invoice.Create)

		invoices := v1.Group("/invoices/:invoice_id")
		{
			invoices.POST("/approve", h.Invoice.Approve)
			invoices.POST("/pay", h.Invoice.Pay)
			invoices.POST("/cancel", h.Invoice.Cancel)
			invoices.PATCH("", h.Invoice.UpdatePercentage)
			invoices.GET("/pdf", h.Invoice.PDF)
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Flag overdue payment weeks every hour. The ticker fires after the
	// first interval, so run one scan at startup too.
	worker.Enqueue(func(ctx context.Context) error {
		return svcs.Schedule.ScanOverdue(ctx)
	})
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Scanning overdue payment weeks...")
		return svcs.Schedule.ScanOverdue(ctx)
	})
}
