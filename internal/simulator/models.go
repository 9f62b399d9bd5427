package simulator

import (
	"fmt"
	"math"
)

// EntityID identifies a player or the ball across frames.
type EntityID string

// GroupID classifies an entity within a frame: a team id or BallGroup.
type GroupID string

// Reserved identifiers for the ball. Upstream tagging is not always
// consistent, so any one of them marks a sample as the ball.
const (
	BallEntityID EntityID = "ball"
	BallLabel             = "Ball"
	BallGroup    GroupID  = "Ball"
)

// EntitySample is one positional observation of a player or the ball.
type EntitySample struct {
	EntityID  EntityID `json:"entity_id"`
	Group     GroupID  `json:"group"`
	GroupName string   `json:"group_name,omitempty"`
	Label     string   `json:"label"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Jersey    *int     `json:"jersey,omitempty"`
}

// IsBall reports whether s is the ball, checking the reserved entity id,
// label and group in that order.
func (s EntitySample) IsBall() bool {
	return s.EntityID == BallEntityID || s.Label == BallLabel || s.Group == BallGroup
}

func (s EntitySample) finite() bool {
	return !math.IsNaN(s.X) && !math.IsInf(s.X, 0) && !math.IsNaN(s.Y) && !math.IsInf(s.Y, 0)
}

// Frame is a set of entity samples at one frame identifier. Real frames come
// from the frame store and have integral ids; synthetic frames are produced by
// Interpolate and have fractional ids strictly between two real ones.
type Frame struct {
	ID        float64        `json:"frame_id"`
	Timestamp string         `json:"timestamp"`
	Period    int            `json:"period"`
	Real      bool           `json:"real"`
	Samples   []EntitySample `json:"samples"`
}

// Timeline is the ordered sequence of real and synthetic frames for one
// playback session.
type Timeline struct {
	Frames          []Frame
	RealFrames      int
	SyntheticFrames int
	// Gaps counts real frame pairs that contributed no synthetic frames.
	Gaps int
}

// Len returns the number of frames in the timeline.
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Frames)
}

// FrameRange optionally bounds the real frame ids of a session. Nil bounds
// are open.
type FrameRange struct {
	Start *int64 `json:"start_frame,omitempty"`
	End   *int64 `json:"end_frame,omitempty"`
}

// Contains reports whether id lies within the range, inclusive.
func (r FrameRange) Contains(id int64) bool {
	if r.Start != nil && id < *r.Start {
		return false
	}
	if r.End != nil && id > *r.End {
		return false
	}
	return true
}

// MatchInfo describes the two teams of a match.
type MatchInfo struct {
	ID           string `json:"match_id"`
	HomeTeamID   string `json:"home_team_id"`
	HomeTeamName string `json:"home_team_name"`
	AwayTeamID   string `json:"away_team_id"`
	AwayTeamName string `json:"away_team_name"`
}

// Title returns "home vs away".
func (m MatchInfo) Title() string {
	home, away := m.HomeTeamName, m.AwayTeamName
	if home == "" {
		home = "Home Team"
	}
	if away == "" {
		away = "Away Team"
	}
	return home + " vs " + away
}

// Groups returns the render groups of the match: home, away, ball.
func (m MatchInfo) Groups() []GroupID {
	return []GroupID{GroupID(m.HomeTeamID), GroupID(m.AwayTeamID), BallGroup}
}

// Event is a match event logged against a real sampling instant.
type Event struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Actor     string `json:"actor"`
	Group     string `json:"group"`
}

// EventAnnotation is the overlay attached to a render payload.
type EventAnnotation struct {
	Name  string `json:"name"`
	Actor string `json:"actor"`
	Group string `json:"group"`
}

// Text formats the annotation for display.
func (a EventAnnotation) Text() string {
	return fmt.Sprintf("EVENT: %s by %s (%s)", a.Name, a.Actor, a.Group)
}

// Point is an (x, y) position on the pitch.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Marker is one entity position within a group.
type Marker struct {
	EntityID EntityID `json:"entity_id"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
}

// Label is a text tag anchored at an entity position.
type Label struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// GroupPositions holds the markers and capped labels of one group.
type GroupPositions struct {
	Group   GroupID  `json:"group"`
	Markers []Marker `json:"markers"`
	Labels  []Label  `json:"labels"`
}

// RenderPayload is everything a rendering sink needs for one tick. It holds
// plain data only.
type RenderPayload struct {
	FrameID    float64          `json:"frame_id"`
	Real       bool             `json:"real"`
	Timestamp  string           `json:"timestamp"`
	Period     int              `json:"period"`
	Groups     []GroupPositions `json:"groups"`
	Trajectory []Point          `json:"trajectory"`
	Event      *EventAnnotation `json:"event,omitempty"`
}

// IsEmpty reports whether p carries no frame.
func (p RenderPayload) IsEmpty() bool {
	return p.Timestamp == "" && p.Groups == nil && p.Trajectory == nil && p.Event == nil
}

// Group returns the positions for g, or false if g is not in the payload.
func (p RenderPayload) Group(g GroupID) (GroupPositions, bool) {
	for _, gp := range p.Groups {
		if gp.Group == g {
			return gp, true
		}
	}
	return GroupPositions{}, false
}
