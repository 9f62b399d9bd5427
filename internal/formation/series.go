package formation

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoPositions is returned when a team has no tracked players at a timestamp.
var ErrNoPositions = errors.New("no player positions")

// PositionSource provides per-team player positions. Absence of rows is an
// empty, non-error result.
type PositionSource interface {
	TeamPositions(ctx context.Context, matchID, teamID, timestamp string) ([]PlayerPosition, error)
	// TeamTimestamps lists distinct timestamps with positions for the team,
	// ascending. Empty bounds are open.
	TeamTimestamps(ctx context.Context, matchID, teamID, from, to string) ([]string, error)
}

// Snapshot is the compactness of one team at one timestamp.
type Snapshot struct {
	Timestamp   string           `json:"timestamp"`
	Compactness float64          `json:"compactness"`
	Players     []PlayerPosition `json:"players,omitempty"`
}

// At loads the team's positions at timestamp and measures them.
func At(ctx context.Context, src PositionSource, matchID, teamID, timestamp string) (Snapshot, error) {
	players, err := src.TeamPositions(ctx, matchID, teamID, timestamp)
	if err != nil {
		return Snapshot{}, fmt.Errorf("team positions: %w", err)
	}
	if len(players) == 0 {
		return Snapshot{}, fmt.Errorf("team %s at %s: %w", teamID, timestamp, ErrNoPositions)
	}
	return Snapshot{
		Timestamp:   timestamp,
		Compactness: Compactness(Vecs(players)),
		Players:     players,
	}, nil
}

// Sample is one point of a compactness series.
type Sample struct {
	Timestamp   string  `json:"timestamp"`
	Compactness float64 `json:"compactness"`
	Players     int     `json:"players"`
}

// SeriesResult is compactness over a time range with summary statistics.
type SeriesResult struct {
	Samples []Sample `json:"samples"`
	Mean    float64  `json:"mean"`
	StdDev  float64  `json:"std_dev"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
}

// Series measures compactness at every distinct timestamp in [from, to].
// Timestamps where the team has no positions are skipped.
func Series(ctx context.Context, src PositionSource, matchID, teamID, from, to string) (SeriesResult, error) {
	timestamps, err := src.TeamTimestamps(ctx, matchID, teamID, from, to)
	if err != nil {
		return SeriesResult{}, fmt.Errorf("team timestamps: %w", err)
	}

	res := SeriesResult{Samples: make([]Sample, 0, len(timestamps))}
	for _, ts := range timestamps {
		if err := ctx.Err(); err != nil {
			return SeriesResult{}, err
		}
		players, err := src.TeamPositions(ctx, matchID, teamID, ts)
		if err != nil {
			return SeriesResult{}, fmt.Errorf("team positions at %s: %w", ts, err)
		}
		if len(players) == 0 {
			continue
		}
		res.Samples = append(res.Samples, Sample{
			Timestamp:   ts,
			Compactness: Compactness(Vecs(players)),
			Players:     len(players),
		})
	}

	if len(res.Samples) == 0 {
		return res, nil
	}
	values := make([]float64, len(res.Samples))
	for i, s := range res.Samples {
		values[i] = s.Compactness
	}
	res.Mean, res.StdDev = stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		res.StdDev = 0
	}
	res.Min = floats.Min(values)
	res.Max = floats.Max(values)
	return res, nil
}
