package simulator

import "sort"

// FrameStore gives the timeline builder access to real frames by id.
// Implementations can be in-memory or backed by a data source.
type FrameStore interface {
	// Frame returns the real frame with the given id. ok is false if the
	// store holds no samples for it.
	Frame(id int64) (Frame, bool)
}

// InMemoryFrameStore is an in-memory implementation of FrameStore.
type InMemoryFrameStore struct {
	frames map[int64]Frame
}

// NewInMemoryFrameStore returns a new empty in-memory store.
func NewInMemoryFrameStore() *InMemoryFrameStore {
	return &InMemoryFrameStore{
		frames: make(map[int64]Frame),
	}
}

// Add stores f under its id, marking it real. Samples for an id already
// present are appended, so rows can be loaded one at a time.
func (s *InMemoryFrameStore) Add(id int64, timestamp string, period int, samples ...EntitySample) {
	f, ok := s.frames[id]
	if !ok {
		f = Frame{ID: float64(id), Timestamp: timestamp, Period: period, Real: true}
	}
	f.Samples = append(f.Samples, samples...)
	s.frames[id] = f
}

// Put stores a complete frame, replacing any previous one with the same id.
func (s *InMemoryFrameStore) Put(f Frame) {
	f.Real = true
	s.frames[int64(f.ID)] = f
}

// Frame implements FrameStore.Frame.
func (s *InMemoryFrameStore) Frame(id int64) (Frame, bool) {
	f, ok := s.frames[id]
	if !ok || len(f.Samples) == 0 {
		return Frame{}, false
	}
	return f, true
}

// IDs returns the stored frame ids in ascending order.
func (s *InMemoryFrameStore) IDs() []int64 {
	ids := make([]int64, 0, len(s.frames))
	for id := range s.frames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of stored frames.
func (s *InMemoryFrameStore) Len() int {
	return len(s.frames)
}
