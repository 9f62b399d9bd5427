package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"match-simulator/internal/formation"
	"match-simulator/internal/platform/config"
	"match-simulator/internal/platform/logger"
	"match-simulator/internal/platform/metrics"
	"match-simulator/internal/render"
	"match-simulator/internal/simulator"
	"match-simulator/internal/tracking"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()
	cfg := config.FromEnv()

	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	if err := cfg.Simulator.Validate(); err != nil {
		log.Error("invalid simulator configuration", "error", err)
		os.Exit(1)
	}

	src, err := tracking.Open(context.Background(), cfg.Database, log)
	if err != nil {
		log.Error("open tracking database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer src.Close()

	repo := simulator.NewInMemorySessionRepository()
	met := metrics.New()
	svc := simulator.NewService(src, repo, cfg.Simulator, log, met)
	h := simulator.NewHandler(svc, render.NewPitchRenderer(), log)
	fh := formation.NewHandler(src, log)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveSessions(svc.ActiveSessions()) }).ServeHTTP(w, r)
	})
	h.Routes(r)
	fh.Routes(r)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", cfg.Server.Port,
		"db_path", cfg.Database.Path,
		"fps", cfg.Simulator.FPS,
		"max_real_frames", cfg.Simulator.MaxRealFrames,
		"log_level", cfg.Server.LogLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
