package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pysugar/post-scheduler/internal/accounts"
	"github.com/pysugar/post-scheduler/internal/api"
	"github.com/pysugar/post-scheduler/internal/auth/oauth"
	"github.com/pysugar/post-scheduler/internal/config"
	"github.com/pysugar/post-scheduler/internal/content"
	"github.com/pysugar/post-scheduler/internal/db"
	"github.com/pysugar/post-scheduler/internal/platforms"
	"github.com/pysugar/post-scheduler/internal/publisher"
	"github.com/pysugar/post-scheduler/internal/scheduler"
	"github.com/pysugar/post-scheduler/internal/version"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database
	logMode := logger.Warn
	if cfg.LogSQL {
		logMode = logger.Info
	}
	database, err := db.InitDB(cfg.DBPath, logMode)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	store := db.NewStore(database)

	catalog, err := platforms.Load(cfg.PlatformsFile)
	if err != nil {
		log.Fatalf("Failed to load platforms: %v", err)
	}
	log.Printf("📦 Platforms: %s", strings.Join(catalog.IDs(), ", "))

	// Publishing and the recurring sweep
	fanout := publisher.NewFanout(catalog, publisher.LogPoster)
	sched := scheduler.New(store, fanout, scheduler.Options{
		Interval:       cfg.SchedulerInterval,
		PublishTimeout: cfg.PublishTimeout,
	})

	router := api.NewRouter(api.Deps{
		Content:  content.NewService(store),
		Accounts: accounts.NewService(store, nil),
		Flow:     oauth.NewFlow(catalog),
		Sweeper:  sched,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	displayURL := "localhost:" + cfg.Port
	if cfg.Host != "0.0.0.0" && cfg.Host != "" {
		displayURL = cfg.Addr()
	}
	log.Printf("🚀 Post Scheduler %s starting on http://%s", version.String(), cfg.Addr())
	log.Printf("📝 Content API: http://%s/content", displayURL)
	log.Printf("🔗 Connect accounts: http://%s/accounts/connect/{platform}", displayURL)
	log.Printf("⏰ Sweep every %s, database %s", cfg.SchedulerInterval, cfg.DBPath)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			sched.Stop()
			log.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		log.Println("🛑 Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
	sched.Stop()

	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}
}
