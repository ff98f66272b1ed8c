package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"worktracker/internal/handler"
	"worktracker/internal/httpserver"
	"worktracker/internal/repository"
	"worktracker/internal/service"
	"worktracker/pkg/config"
	"worktracker/pkg/db"
	"worktracker/pkg/logger"
	"worktracker/pkg/mq"
	wtredis "worktracker/pkg/redis"
	"worktracker/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting worktracker...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("mq_url", cfg.MQ.URL),
	)

	log.Info("Initializing database connection...")
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()
	log.Info("Database connection established successfully")

	rdb := wtredis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	// The event feed is optional infrastructure: the engine runs without it,
	// readyz reports it when configured.
	var publisher *mq.Publisher
	if cfg.MQ.URL != "" {
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Warn("Failed to init MQ publisher, events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			log.Info("MQ publisher initialized")
		}
	}

	store := repository.NewPgStore(dbConn, log)
	progress := service.NewProgressService(store, rdb, log)

	var eventSink service.EventPublisher
	if publisher != nil {
		eventSink = publisher
	}
	scheduler := service.NewSchedulerService(store, progress, eventSink, log)

	guard := util.NewOnceGuard(rdb, 10*time.Second, log)

	handlers := httpserver.Handlers{
		Clients:    handler.NewClientHandler(store, log),
		Projects:   handler.NewProjectHandler(store, log),
		Milestones: handler.NewMilestoneHandler(store, scheduler, guard, log),
		Schedules:  handler.NewScheduleHandler(scheduler, store, guard, log),
		Tasks:      handler.NewTaskHandler(scheduler, guard, log),
		Memos:      handler.NewMemoHandler(scheduler, store, log),
		Calendar:   handler.NewCalendarHandler(scheduler, progress, log),
	}

	router := httpserver.NewRouter(handlers, log, dbConn, publisher, cfg.JWT.Secret)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("worktracker is fully initialized and running",
		zap.String("http_port", cfg.Server.Port),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worktracker gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("Closing database connection...")
	dbConn.Close()

	log.Info("worktracker shutdown complete")
}
