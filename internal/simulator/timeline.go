package simulator

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"match-simulator/internal/platform/config"
	"match-simulator/internal/platform/logger"
)

// TimelineOptions controls timeline construction.
type TimelineOptions struct {
	// FPS is the playback rate; FPS-1 synthetic frames go between each pair
	// of consecutive real frames regardless of their real time gap.
	FPS int
	// Range optionally windows the real frame ids.
	Range FrameRange
	// MaxRealFrames caps the number of real frames. Excess frames are
	// truncated from the end, not sampled. Zero means no cap.
	MaxRealFrames int
}

// PrepareFrameIDs deduplicates and sorts ids ascending, keeps those inside
// rng, and truncates to max when max > 0. The input slice is not modified.
func PrepareFrameIDs(ids []int64, rng FrameRange, max int) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || !rng.Contains(id) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// BuildTimeline assembles one ordered sequence of real and synthetic frames.
//
// The first real frame is emitted, then for every consecutive pair the
// synthetic frames from Interpolate(pair, FPS-1) followed by the next real
// frame. A pair whose endpoint has no samples contributes no synthetic
// frames and is counted as a gap. Real ids missing from store are skipped.
// Fewer than two real ids after filtering, or fewer than two emitted frames,
// yields ErrInsufficientData. FPS outside [1, config.MaxFPS] yields
// ErrInvalidOptions.
func BuildTimeline(store FrameStore, ids []int64, opts TimelineOptions, log *slog.Logger) (*Timeline, error) {
	log = logger.OrDiscard(log)
	if opts.FPS <= 0 || opts.FPS > config.MaxFPS {
		return nil, fmt.Errorf("%w: fps must be in [1, %d], got %d", ErrInvalidOptions, config.MaxFPS, opts.FPS)
	}

	prepared := PrepareFrameIDs(ids, opts.Range, 0)
	if opts.MaxRealFrames > 0 && len(prepared) > opts.MaxRealFrames {
		log.Info("limiting real frames",
			slog.Int("available", len(prepared)),
			slog.Int("max_real_frames", opts.MaxRealFrames))
		prepared = prepared[:opts.MaxRealFrames]
	}
	if len(prepared) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientData, len(prepared))
	}

	perGap := opts.FPS - 1
	tl := &Timeline{Frames: make([]Frame, 0, len(prepared)+(len(prepared)-1)*perGap)}

	emitReal := func(id int64) (Frame, bool) {
		f, ok := store.Frame(id)
		if !ok {
			log.Warn("real frame has no samples, skipping", slog.Int64("frame_id", id))
			return Frame{ID: float64(id)}, false
		}
		f.ID = float64(id)
		f.Real = true
		tl.Frames = append(tl.Frames, f)
		tl.RealFrames++
		return f, true
	}

	prev, prevOK := emitReal(prepared[0])
	for _, nextID := range prepared[1:] {
		next, nextOK := store.Frame(nextID)
		next.ID = float64(nextID)

		if perGap > 0 {
			var synth []Frame
			var err error
			if prevOK && nextOK {
				synth, err = Interpolate(prev, next, perGap)
			} else {
				err = ErrEmptyFrame
			}
			if err != nil || len(synth) == 0 {
				tl.Gaps++
				if err != nil && !errors.Is(err, ErrEmptyFrame) {
					log.Warn("interpolation failed", slog.Float64("start", prev.ID), slog.Int64("end", nextID), slog.String("error", err.Error()))
				} else {
					log.Warn("interpolation gap", slog.Float64("start", prev.ID), slog.Int64("end", nextID))
				}
			}
			tl.Frames = append(tl.Frames, synth...)
			tl.SyntheticFrames += len(synth)
		}

		prev, prevOK = emitReal(nextID)
	}

	// Real frames keep ascending id order; synthetic ids lie between them.
	sort.SliceStable(tl.Frames, func(i, j int) bool { return tl.Frames[i].ID < tl.Frames[j].ID })

	if len(tl.Frames) < 2 {
		return nil, fmt.Errorf("%w: only %d frames could be assembled", ErrInsufficientData, len(tl.Frames))
	}

	log.Info("timeline built",
		slog.Int("frames", len(tl.Frames)),
		slog.Int("real_frames", tl.RealFrames),
		slog.Int("synthetic_frames", tl.SyntheticFrames),
		slog.Int("gaps", tl.Gaps))
	return tl, nil
}
