package formation

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePositions serves positions keyed by match, team and timestamp.
type fakePositions struct {
	rows map[string][]PlayerPosition
	err  error
}

func key(match, team, ts string) string { return match + "/" + team + "/" + ts }

func (f *fakePositions) TeamPositions(_ context.Context, matchID, teamID, timestamp string) ([]PlayerPosition, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[key(matchID, teamID, timestamp)], nil
}

func (f *fakePositions) TeamTimestamps(_ context.Context, matchID, teamID, from, to string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	prefix := matchID + "/" + teamID + "/"
	var out []string
	for k := range f.rows {
		if len(k) <= len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		ts := k[len(prefix):]
		if (from != "" && ts < from) || (to != "" && ts > to) {
			continue
		}
		out = append(out, ts)
	}
	sort.Strings(out)
	return out, nil
}

func square(side float64) []PlayerPosition {
	return []PlayerPosition{
		{PlayerID: "1", Name: "One", X: 0, Y: 0},
		{PlayerID: "2", Name: "Two", X: side, Y: 0},
		{PlayerID: "3", Name: "Three", X: side, Y: side},
		{PlayerID: "4", Name: "Four", X: 0, Y: side},
	}
}

func seededPositions() *fakePositions {
	return &fakePositions{rows: map[string][]PlayerPosition{
		key("m1", "h", "00:00:00"): square(10),
		key("m1", "h", "00:00:01"): square(20),
		key("m1", "h", "00:00:02"): square(30),
		key("m1", "h", "00:00:03"): {},
		key("m1", "a", "00:00:00"): square(1),
	}}
}

func TestAt(t *testing.T) {
	snap, err := At(context.Background(), seededPositions(), "m1", "h", "00:00:01")
	require.NoError(t, err)
	assert.InDelta(t, 400.0, snap.Compactness, 1e-9)
	assert.Len(t, snap.Players, 4)
	assert.Equal(t, "00:00:01", snap.Timestamp)
}

func TestAt_no_positions(t *testing.T) {
	_, err := At(context.Background(), seededPositions(), "m1", "h", "09:00:00")
	assert.ErrorIs(t, err, ErrNoPositions)
}

func TestSeries(t *testing.T) {
	res, err := Series(context.Background(), seededPositions(), "m1", "h", "", "")
	require.NoError(t, err)
	require.Len(t, res.Samples, 3, "empty timestamps are skipped")

	assert.Equal(t, "00:00:00", res.Samples[0].Timestamp)
	assert.Equal(t, 4, res.Samples[0].Players)
	assert.InDelta(t, (100.0+400.0+900.0)/3, res.Mean, 1e-9)
	assert.InDelta(t, 100.0, res.Min, 1e-9)
	assert.InDelta(t, 900.0, res.Max, 1e-9)
	assert.Greater(t, res.StdDev, 0.0)
}

func TestSeries_bounds(t *testing.T) {
	res, err := Series(context.Background(), seededPositions(), "m1", "h", "00:00:01", "00:00:01")
	require.NoError(t, err)
	require.Len(t, res.Samples, 1)
	assert.InDelta(t, 400.0, res.Mean, 1e-9)
	assert.Zero(t, res.StdDev)
}

func TestSeries_empty(t *testing.T) {
	res, err := Series(context.Background(), seededPositions(), "m2", "h", "", "")
	require.NoError(t, err)
	assert.Empty(t, res.Samples)
	assert.Zero(t, res.Mean)
}

func TestSeries_source_error(t *testing.T) {
	boom := errors.New("db closed")
	_, err := Series(context.Background(), &fakePositions{err: boom}, "m1", "h", "", "")
	assert.ErrorIs(t, err, boom)
}

func TestSeries_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Series(ctx, seededPositions(), "m1", "h", "", "")
	assert.ErrorIs(t, err, context.Canceled)
}
