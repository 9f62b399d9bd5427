package simulator

import (
	"context"
	"sort"
)

func jersey(n int) *int { return &n }

func player(id, team string, n int, x, y float64) EntitySample {
	return EntitySample{EntityID: EntityID(id), Group: GroupID(team), Label: id, X: x, Y: y, Jersey: jersey(n)}
}

func ballAt(x, y float64) EntitySample {
	return EntitySample{EntityID: BallEntityID, Group: BallGroup, Label: BallLabel, X: x, Y: y}
}

func realFrame(id int64, ts string, samples ...EntitySample) Frame {
	return Frame{ID: float64(id), Timestamp: ts, Period: 1, Real: true, Samples: samples}
}

func storeOf(frames ...Frame) *InMemoryFrameStore {
	s := NewInMemoryFrameStore()
	for _, f := range frames {
		s.Put(f)
	}
	return s
}

func frameIDs(frames []Frame) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = f.ID
	}
	return out
}

// fakeSource is an in-memory DataSource.
type fakeSource struct {
	matches map[string]MatchInfo
	frames  map[string][]Frame
	events  map[string][]Event
	// eventsErr, when set, is returned by Events.
	eventsErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		matches: map[string]MatchInfo{},
		frames:  map[string][]Frame{},
		events:  map[string][]Event{},
	}
}

func (f *fakeSource) Match(_ context.Context, matchID string) (MatchInfo, error) {
	m, ok := f.matches[matchID]
	if !ok {
		return MatchInfo{}, ErrMatchNotFound
	}
	return m, nil
}

func (f *fakeSource) FrameIDs(_ context.Context, matchID string, rng FrameRange) ([]int64, error) {
	var ids []int64
	for _, fr := range f.frames[matchID] {
		if id := int64(fr.ID); rng.Contains(id) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeSource) FrameSamples(_ context.Context, matchID string, frameID int64) (Frame, error) {
	for _, fr := range f.frames[matchID] {
		if int64(fr.ID) == frameID {
			return fr, nil
		}
	}
	return Frame{ID: float64(frameID)}, nil
}

func (f *fakeSource) Events(_ context.Context, matchID string) ([]Event, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.events[matchID], nil
}

// seededSource returns a source with match "m1": home "h", away "a", three
// real frames one apart and a goal event at the second frame.
func seededSource() *fakeSource {
	src := newFakeSource()
	src.matches["m1"] = MatchInfo{ID: "m1", HomeTeamID: "h", HomeTeamName: "Home", AwayTeamID: "a", AwayTeamName: "Away"}
	src.frames["m1"] = []Frame{
		realFrame(1, "00:00:00", player("p1", "h", 9, 10, 10), player("p2", "a", 4, 50, 50), ballAt(0, 0)),
		realFrame(2, "00:00:01", player("p1", "h", 9, 20, 10), player("p2", "a", 4, 40, 50), ballAt(10, 0)),
		realFrame(3, "00:00:02", player("p1", "h", 9, 30, 10), player("p2", "a", 4, 30, 50), ballAt(20, 0)),
	}
	src.events["m1"] = []Event{{Timestamp: "00:00:01", Name: "Pass", Actor: "p1", Group: "Home"}}
	return src
}
