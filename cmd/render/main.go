// Command render plays one match from the tracking database and writes every
// payload as a PNG frame into a directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"match-simulator/internal/platform/clock"
	"match-simulator/internal/platform/config"
	"match-simulator/internal/platform/logger"
	"match-simulator/internal/render"
	"match-simulator/internal/simulator"
	"match-simulator/internal/tracking"
)

func main() {
	_ = config.Load()
	cfg := config.FromEnv()

	var (
		matchID   = flag.String("match", "", "match id to render (required)")
		outDir    = flag.String("out", "frames", "directory for the rendered PNG frames")
		fps       = flag.Int("fps", cfg.Simulator.FPS, "frames per second of playback")
		start     = flag.Int64("start", -1, "first real frame id (inclusive); -1 for none")
		end       = flag.Int64("end", -1, "last real frame id (inclusive); -1 for none")
		maxFrames = flag.Int("max-frames", cfg.Simulator.MaxRealFrames, "maximum number of real frames")
		realtime  = flag.Bool("realtime", false, "pace frames at the playback rate instead of as fast as possible")
		dbPath    = flag.String("db", cfg.Database.Path, "path to the sqlite tracking database")
	)
	flag.Parse()

	log := logger.New(cfg.Server.LogLevel, "text")

	if *matchID == "" {
		fmt.Fprintln(os.Stderr, "render: -match is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Database.Path = *dbPath
	src, err := tracking.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Error("open tracking database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer src.Close()

	svc := simulator.NewService(src, simulator.NewInMemorySessionRepository(), cfg.Simulator, log, nil)

	opts := simulator.SessionOptions{FPS: *fps, MaxRealFrames: *maxFrames}
	if *start >= 0 {
		opts.Range.Start = start
	}
	if *end >= 0 {
		opts.Range.End = end
	}

	info, err := svc.StartSession(ctx, *matchID, opts)
	if err != nil {
		log.Error("start session", "match_id", *matchID, "error", err)
		os.Exit(1)
	}
	defer svc.EndSession(info.ID)

	sink, err := render.NewDirectorySink(*outDir, info.Title, render.NewPitchRenderer(), log)
	if err != nil {
		log.Error("prepare output", "dir", *outDir, "error", err)
		os.Exit(1)
	}

	var clk clock.Clock
	if *realtime {
		clk = clock.Real{}
	}

	log.Info("rendering",
		"match_id", *matchID,
		"title", info.Title,
		"frames", info.Frames,
		"real_frames", info.RealFrames,
		"synthetic_frames", info.SyntheticFrames,
		"out", *outDir,
	)

	rendered, err := svc.Play(ctx, info.ID, sink, clk)
	if err != nil {
		log.Error("playback stopped", "rendered", rendered, "error", err)
		os.Exit(1)
	}
	log.Info("done", "rendered", rendered, "written", sink.Written())
}
