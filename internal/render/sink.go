package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"match-simulator/internal/platform/logger"
	"match-simulator/internal/simulator"
)

// DirectorySink writes every payload it receives as a numbered PNG file,
// frame_00000.png onwards.
type DirectorySink struct {
	mu       sync.Mutex
	dir      string
	title    string
	renderer *PitchRenderer
	log      *slog.Logger
	written  int
}

// NewDirectorySink creates dir if needed. log may be nil.
func NewDirectorySink(dir, title string, renderer *PitchRenderer, log *slog.Logger) (*DirectorySink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	if renderer == nil {
		renderer = NewPitchRenderer()
	}
	return &DirectorySink{dir: dir, title: title, renderer: renderer, log: logger.OrDiscard(log)}, nil
}

// Render implements simulator.Sink.
func (s *DirectorySink) Render(ctx context.Context, p simulator.RenderPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, fmt.Sprintf("frame_%05d.png", s.written))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := s.renderer.WritePNG(f, s.title, p); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	s.written++
	s.log.Debug("frame written", slog.String("path", path), slog.Float64("frame_id", p.FrameID))
	return nil
}

// Written returns the number of files written so far.
func (s *DirectorySink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}
