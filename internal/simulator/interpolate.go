package simulator

import "fmt"

// Interpolate returns count synthetic frames strictly between start and end.
//
// Frame i (1..count) sits at t = i/(count+1) and holds one linearly blended
// sample per entity present in both endpoints; entities seen on only one side
// are dropped. Synthetic frames inherit the timestamp and period of start.
// If either endpoint has no samples, Interpolate returns ErrEmptyFrame and no
// frames; callers treat that as a gap rather than a fatal error.
func Interpolate(start, end Frame, count int) ([]Frame, error) {
	if count <= 0 {
		return nil, nil
	}
	if start.ID >= end.ID {
		return nil, fmt.Errorf("%w: %v >= %v", ErrFrameOrder, start.ID, end.ID)
	}
	if len(start.Samples) == 0 || len(end.Samples) == 0 {
		return nil, fmt.Errorf("%w: frames %v and %v", ErrEmptyFrame, start.ID, end.ID)
	}

	endByID := make(map[EntityID]EntitySample, len(end.Samples))
	for _, s := range end.Samples {
		if _, dup := endByID[s.EntityID]; !dup {
			endByID[s.EntityID] = s
		}
	}

	// Iterate in start-frame order so output is deterministic.
	type pair struct{ from, to EntitySample }
	common := make([]pair, 0, len(start.Samples))
	seen := make(map[EntityID]struct{}, len(start.Samples))
	for _, s := range start.Samples {
		if _, dup := seen[s.EntityID]; dup {
			continue
		}
		seen[s.EntityID] = struct{}{}
		if e, ok := endByID[s.EntityID]; ok {
			common = append(common, pair{from: s, to: e})
		}
	}

	frames := make([]Frame, 0, count)
	for i := 1; i <= count; i++ {
		t := float64(i) / float64(count+1)

		samples := make([]EntitySample, 0, len(common))
		for _, p := range common {
			samples = append(samples, blend(p.from, p.to, t))
		}

		frames = append(frames, Frame{
			ID:        start.ID + (end.ID-start.ID)*t,
			Timestamp: start.Timestamp,
			Period:    start.Period,
			Samples:   samples,
		})
	}
	return frames, nil
}

// blend mixes two samples of the same entity at t in (0, 1). Identity fields
// come from the start sample; the ball is re-tagged into BallGroup.
func blend(from, to EntitySample, t float64) EntitySample {
	out := EntitySample{
		EntityID:  from.EntityID,
		Group:     from.Group,
		GroupName: from.GroupName,
		Label:     from.Label,
		X:         from.X*(1-t) + to.X*t,
		Y:         from.Y*(1-t) + to.Y*t,
		Jersey:    from.Jersey,
	}
	if from.IsBall() {
		out.Group = BallGroup
		out.GroupName = BallLabel
	}
	return out
}
