package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"match-simulator/internal/platform/clock"
	"match-simulator/internal/platform/config"
	"match-simulator/internal/platform/logger"
	"match-simulator/internal/platform/metrics"
)

// DataSource is the tracking data collaborator. Absence of rows is an
// empty, non-error result; unknown matches yield ErrMatchNotFound.
type DataSource interface {
	Match(ctx context.Context, matchID string) (MatchInfo, error)
	FrameIDs(ctx context.Context, matchID string, rng FrameRange) ([]int64, error)
	FrameSamples(ctx context.Context, matchID string, frameID int64) (Frame, error)
	Events(ctx context.Context, matchID string) ([]Event, error)
}

// Sink consumes render payloads, one per tick.
type Sink interface {
	Render(ctx context.Context, p RenderPayload) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, p RenderPayload) error

// Render implements Sink.
func (f SinkFunc) Render(ctx context.Context, p RenderPayload) error { return f(ctx, p) }

// SessionOptions override the service defaults for one session. Zero values
// fall back to the configured defaults.
type SessionOptions struct {
	FPS           int        `json:"fps,omitempty"`
	Range         FrameRange `json:"range"`
	MaxRealFrames int        `json:"max_real_frames,omitempty"`
}

// Service loads match data, builds timelines and drives playback sessions.
type Service struct {
	src     DataSource
	repo    SessionRepository
	cfg     config.Simulator
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewService returns a Service. Zero fields of cfg take the package
// defaults; log and m may be nil.
func NewService(src DataSource, repo SessionRepository, cfg config.Simulator, log *slog.Logger, m *metrics.Metrics) *Service {
	if cfg.FPS <= 0 {
		cfg.FPS = config.DefaultFPS
	}
	if cfg.FPS > config.MaxFPS {
		cfg.FPS = config.MaxFPS
	}
	if cfg.MaxRealFrames <= 0 {
		cfg.MaxRealFrames = config.DefaultMaxRealFrames
	}
	if cfg.TrajectoryLength <= 0 {
		cfg.TrajectoryLength = DefaultTrajectoryLength
	}
	if cfg.MaxLabelsPerGroup <= 0 {
		cfg.MaxLabelsPerGroup = DefaultMaxLabelsPerGroup
	}
	return &Service{src: src, repo: repo, cfg: cfg, log: logger.OrDiscard(log), metrics: m}
}

// StartSession loads the match, builds its timeline and registers a Ready
// session. All data source queries happen here, before playback.
func (s *Service) StartSession(ctx context.Context, matchID string, opts SessionOptions) (SessionInfo, error) {
	fps := opts.FPS
	if fps == 0 {
		fps = s.cfg.FPS
	}
	maxReal := opts.MaxRealFrames
	if maxReal == 0 {
		maxReal = s.cfg.MaxRealFrames
	}
	if fps < 0 || fps > config.MaxFPS {
		return SessionInfo{}, fmt.Errorf("%w: fps must be in [1, %d], got %d", ErrInvalidOptions, config.MaxFPS, fps)
	}
	if maxReal < 0 || maxReal > s.cfg.MaxRealFrames {
		return SessionInfo{}, fmt.Errorf("%w: max_real_frames must be in [2, %d], got %d",
			ErrInvalidOptions, s.cfg.MaxRealFrames, maxReal)
	}
	if r := opts.Range; r.Start != nil && r.End != nil && *r.Start > *r.End {
		return SessionInfo{}, fmt.Errorf("%w: start frame %d after end frame %d", ErrInvalidOptions, *r.Start, *r.End)
	}

	match, err := s.src.Match(ctx, matchID)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("load match %s: %w", matchID, err)
	}

	ids, err := s.src.FrameIDs(ctx, matchID, opts.Range)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("load frame ids: %w", err)
	}
	ids = PrepareFrameIDs(ids, opts.Range, 0)
	if len(ids) > maxReal {
		s.log.Info("limiting real frames",
			slog.String("match_id", matchID),
			slog.Int("available", len(ids)),
			slog.Int("max_real_frames", maxReal))
		ids = ids[:maxReal]
	}
	if len(ids) < 2 {
		return SessionInfo{}, fmt.Errorf("match %s: %w: got %d", matchID, ErrInsufficientData, len(ids))
	}

	store := NewInMemoryFrameStore()
	for _, id := range ids {
		f, err := s.src.FrameSamples(ctx, matchID, id)
		if err != nil {
			return SessionInfo{}, fmt.Errorf("load frame %d: %w", id, err)
		}
		if len(f.Samples) > 0 {
			store.Put(f)
		}
	}

	events, err := s.src.Events(ctx, matchID)
	if err != nil {
		if ctx.Err() != nil {
			return SessionInfo{}, ctx.Err()
		}
		s.log.Warn("events unavailable, continuing without annotations",
			slog.String("match_id", matchID), slog.String("error", err.Error()))
		events = nil
	}

	tl, err := BuildTimeline(store, ids, TimelineOptions{FPS: fps}, s.log.With(slog.String("match_id", matchID)))
	if err != nil {
		return SessionInfo{}, fmt.Errorf("match %s: %w", matchID, err)
	}

	d := NewDriver(DriverConfig{
		Groups:            match.Groups(),
		MaxLabelsPerGroup: s.cfg.MaxLabelsPerGroup,
		TrajectoryLength:  s.cfg.TrajectoryLength,
	}, s.log)
	d.Load(tl, events)

	sess := NewSession(match, fps, tl, d)
	id := s.repo.Create(sess)

	if s.metrics != nil {
		s.metrics.IncSessionsStarted()
		s.metrics.AddInterpolationGaps(tl.Gaps)
	}
	s.log.Info("session started",
		slog.String("session_id", string(id)),
		slog.String("match_id", matchID),
		slog.Int("fps", fps),
		slog.Int("frames", tl.Len()))
	return sess.Info(), nil
}

// Session returns the summary of a session.
func (s *Service) Session(id SessionID) (SessionInfo, error) {
	sess, ok := s.repo.Get(id)
	if !ok {
		return SessionInfo{}, ErrSessionNotFound
	}
	return sess.Info(), nil
}

// Timeline returns a copy of the session's frames.
func (s *Service) Timeline(id SessionID) ([]Frame, error) {
	sess, ok := s.repo.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.Frames(), nil
}

// Current returns the last rendered payload of a session.
func (s *Service) Current(id SessionID) (RenderPayload, SessionInfo, error) {
	sess, ok := s.repo.Get(id)
	if !ok {
		return RenderPayload{}, SessionInfo{}, ErrSessionNotFound
	}
	return sess.Current(), sess.Info(), nil
}

// Tick advances a session by one frame.
func (s *Service) Tick(id SessionID) (TickResult, error) {
	sess, ok := s.repo.Get(id)
	if !ok {
		return TickResult{}, ErrSessionNotFound
	}
	res := sess.Tick()
	if s.metrics != nil {
		switch res.Status {
		case TickRendered:
			s.metrics.IncFramesEmitted(res.Payload.Real)
		case TickFailed:
			s.metrics.IncTickFailures()
		}
	}
	return res, nil
}

// Play ticks a session at its fixed cadence (one tick every 1/fps seconds
// on clk) and hands each payload to sink, until the timeline is exhausted
// or ctx is cancelled. A nil clk ticks as fast as the sink allows. Sink
// errors and failed ticks are logged; playback continues.
func (s *Service) Play(ctx context.Context, id SessionID, sink Sink, clk clock.Clock) (int, error) {
	sess, ok := s.repo.Get(id)
	if !ok {
		return 0, ErrSessionNotFound
	}
	log := s.log.With(slog.String("session_id", string(id)))

	var ticks <-chan time.Time
	if clk != nil {
		interval := time.Second / time.Duration(sess.FPS)
		ticker := clk.NewTicker(interval)
		defer ticker.Stop()
		ticks = ticker.C()
		log.Info("playback started", slog.Int("fps", sess.FPS), slog.Duration("interval", interval))
	}

	rendered := 0
	for {
		if ticks != nil {
			select {
			case <-ctx.Done():
				return rendered, ctx.Err()
			case <-ticks:
			}
		} else if err := ctx.Err(); err != nil {
			return rendered, err
		}

		res, err := s.Tick(id)
		if err != nil {
			return rendered, err
		}
		switch res.Status {
		case TickDone:
			log.Info("playback finished", slog.Int("rendered", rendered))
			return rendered, nil
		case TickFailed:
			if errors.Is(res.Err, ErrNotReady) {
				return rendered, res.Err
			}
			continue
		}

		if err := sink.Render(ctx, res.Payload); err != nil {
			if ctx.Err() != nil {
				return rendered, ctx.Err()
			}
			log.Warn("sink render failed", slog.Int("cursor", res.Cursor), slog.String("error", err.Error()))
			continue
		}
		rendered++
	}
}

// EndSession removes a session. Ending an unknown session is a no-op.
func (s *Service) EndSession(id SessionID) {
	if s.repo.Delete(id) {
		s.log.Info("session ended", slog.String("session_id", string(id)))
	}
}

// ActiveSessions returns the number of sessions that have not finished.
func (s *Service) ActiveSessions() int {
	return s.repo.ActiveSessionCount()
}
