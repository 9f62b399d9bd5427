package simulator

import (
	"sync"
	"time"
)

// SessionID uniquely identifies a playback session.
type SessionID string

// Session owns one timeline and the driver walking it. All driver access
// goes through the session lock, so ticks from different callers never
// interleave.
type Session struct {
	ID        SessionID
	Match     MatchInfo
	FPS       int
	CreatedAt time.Time

	mu       sync.Mutex
	driver   *Driver
	timeline *Timeline
}

// NewSession wraps a loaded driver. The ID is assigned by the repository.
func NewSession(match MatchInfo, fps int, tl *Timeline, d *Driver) *Session {
	return &Session{
		Match:     match,
		FPS:       fps,
		CreatedAt: time.Now().UTC(),
		driver:    d,
		timeline:  tl,
	}
}

// SessionInfo is a point-in-time summary of a session.
type SessionInfo struct {
	ID              SessionID `json:"session_id"`
	MatchID         string    `json:"match_id"`
	Title           string    `json:"title"`
	FPS             int       `json:"fps"`
	State           State     `json:"state"`
	Cursor          int       `json:"cursor"`
	Frames          int       `json:"frames"`
	RealFrames      int       `json:"real_frames"`
	SyntheticFrames int       `json:"synthetic_frames"`
	Gaps            int       `json:"gaps"`
}

// Info returns a summary of the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := SessionInfo{
		ID:      s.ID,
		MatchID: s.Match.ID,
		Title:   s.Match.Title(),
		FPS:     s.FPS,
		State:   s.driver.State(),
		Cursor:  s.driver.Cursor(),
		Frames:  s.driver.Len(),
	}
	if s.timeline != nil {
		info.RealFrames = s.timeline.RealFrames
		info.SyntheticFrames = s.timeline.SyntheticFrames
		info.Gaps = s.timeline.Gaps
	}
	return info
}

// Tick advances the session's driver by one frame.
func (s *Session) Tick() TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.Tick()
}

// Current returns the last rendered payload.
func (s *Session) Current() RenderPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.Last()
}

// Done reports whether the timeline is exhausted.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.State() == Done
}

// Frames returns a copy of the timeline frames.
func (s *Session) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeline == nil {
		return nil
	}
	out := make([]Frame, len(s.timeline.Frames))
	copy(out, s.timeline.Frames)
	return out
}
