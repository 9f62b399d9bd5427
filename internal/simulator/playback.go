package simulator

import (
	"fmt"
	"log/slog"
	"strconv"

	"match-simulator/internal/platform/logger"
)

// DefaultMaxLabelsPerGroup caps labels for non-ball groups.
const DefaultMaxLabelsPerGroup = 11

// State is the playback driver's lifecycle state.
type State int

const (
	// Idle means no timeline has been loaded.
	Idle State = iota
	// Ready means a timeline is loaded and the cursor is at 0.
	Ready
	// Advancing means at least one frame has been emitted.
	Advancing
	// Done means the cursor reached the end of the timeline.
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Advancing:
		return "advancing"
	case Done:
		return "done"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// TickStatus tells the caller what a tick produced.
type TickStatus int

const (
	// TickRendered means Payload holds the frame at the previous cursor.
	TickRendered TickStatus = iota
	// TickFailed means payload assembly failed; Payload is empty and Err
	// holds the cause. Playback may continue.
	TickFailed
	// TickDone means the timeline is exhausted; Payload is the last
	// successfully rendered payload.
	TickDone
)

func (s TickStatus) String() string {
	switch s {
	case TickRendered:
		return "rendered"
	case TickFailed:
		return "failed"
	case TickDone:
		return "done"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}

// MarshalText renders the status name in JSON payloads.
func (s TickStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// TickResult is the outcome of one Driver.Tick.
type TickResult struct {
	Status  TickStatus    `json:"status"`
	Cursor  int           `json:"cursor"`
	Payload RenderPayload `json:"payload"`
	Err     error         `json:"-"`
}

// DriverConfig configures a Driver.
type DriverConfig struct {
	// Groups lists the team groups to render. BallGroup is always added.
	Groups []GroupID
	// MaxLabelsPerGroup caps labels per team group; the ball gets one.
	MaxLabelsPerGroup int
	// TrajectoryLength bounds the trailing ball path.
	TrajectoryLength int
}

// Driver walks a timeline one frame per Tick and assembles render payloads.
// It is not safe for concurrent use; a session serializes access to it.
type Driver struct {
	groups     []GroupID
	maxLabels  int
	log        *slog.Logger
	timeline   []Frame
	events     EventIndex
	trajectory *Trajectory
	cursor     int
	state      State
	last       RenderPayload
}

// NewDriver returns an Idle driver.
func NewDriver(cfg DriverConfig, log *slog.Logger) *Driver {
	groups := make([]GroupID, 0, len(cfg.Groups)+1)
	hasBall := false
	for _, g := range cfg.Groups {
		if g == BallGroup {
			hasBall = true
		}
		groups = append(groups, g)
	}
	if !hasBall {
		groups = append(groups, BallGroup)
	}
	maxLabels := cfg.MaxLabelsPerGroup
	if maxLabels <= 0 {
		maxLabels = DefaultMaxLabelsPerGroup
	}
	return &Driver{
		groups:     groups,
		maxLabels:  maxLabels,
		log:        logger.OrDiscard(log),
		trajectory: NewTrajectory(cfg.TrajectoryLength),
	}
}

// Load installs a timeline and its events, resets the trajectory and moves
// the driver to Ready (or Done for an empty timeline).
func (d *Driver) Load(tl *Timeline, events []Event) {
	d.timeline = nil
	if tl != nil {
		d.timeline = tl.Frames
	}
	d.events = NewEventIndex(events)
	d.trajectory.Reset()
	d.cursor = 0
	d.last = RenderPayload{}
	d.state = Ready
	if len(d.timeline) == 0 {
		d.state = Done
	}
}

// State returns the current lifecycle state.
func (d *Driver) State() State { return d.state }

// Cursor returns the index of the next frame to emit.
func (d *Driver) Cursor() int { return d.cursor }

// Len returns the timeline length.
func (d *Driver) Len() int { return len(d.timeline) }

// Last returns the last successfully rendered payload.
func (d *Driver) Last() RenderPayload { return d.last }

// Trajectory returns a snapshot of the ball path.
func (d *Driver) Trajectory() []Point { return d.trajectory.Points() }

// Tick emits the frame at the cursor and advances. Once Done, Tick keeps
// returning TickDone with the last payload. A frame that cannot be assembled
// yields TickFailed for that tick only; the cursor still advances.
func (d *Driver) Tick() TickResult {
	switch d.state {
	case Idle:
		return TickResult{Status: TickFailed, Err: ErrNotReady}
	case Done:
		return TickResult{Status: TickDone, Cursor: d.cursor, Payload: d.last}
	}

	frame := d.timeline[d.cursor]
	d.cursor++
	d.state = Advancing
	if d.cursor >= len(d.timeline) {
		d.state = Done
	}

	payload, err := d.assembleSafe(frame)
	if err != nil {
		d.log.Warn("tick failed",
			slog.Int("cursor", d.cursor-1),
			slog.Float64("frame_id", frame.ID),
			slog.String("error", err.Error()))
		return TickResult{Status: TickFailed, Cursor: d.cursor, Err: err}
	}
	d.last = payload
	return TickResult{Status: TickRendered, Cursor: d.cursor, Payload: payload}
}

func (d *Driver) assembleSafe(f Frame) (p RenderPayload, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = RenderPayload{}, fmt.Errorf("assemble frame %v: %v", f.ID, r)
		}
	}()
	return d.assemble(f)
}

func (d *Driver) assemble(f Frame) (RenderPayload, error) {
	groups := make([]GroupPositions, len(d.groups))
	index := make(map[GroupID]int, len(d.groups))
	for i, g := range d.groups {
		groups[i] = GroupPositions{Group: g, Markers: []Marker{}, Labels: []Label{}}
		index[g] = i
	}

	var ball *Point
	for _, s := range f.Samples {
		if !s.finite() {
			return RenderPayload{}, fmt.Errorf("%w: entity %s at frame %v has position (%v, %v)",
				ErrInvalidSample, s.EntityID, f.ID, s.X, s.Y)
		}
		g := groupOf(f, s)
		i, ok := index[g]
		if !ok {
			continue
		}
		gp := &groups[i]
		gp.Markers = append(gp.Markers, Marker{EntityID: s.EntityID, X: s.X, Y: s.Y})
		if len(gp.Labels) < d.labelCap(g) {
			gp.Labels = append(gp.Labels, Label{Text: labelText(g, s), X: s.X, Y: s.Y})
		}
		if g == BallGroup && ball == nil {
			ball = &Point{X: s.X, Y: s.Y}
		}
	}

	if ball != nil {
		d.trajectory.Record(ball.X, ball.Y)
	}

	p := RenderPayload{
		FrameID:    f.ID,
		Real:       f.Real,
		Timestamp:  f.Timestamp,
		Period:     f.Period,
		Groups:     groups,
		Trajectory: d.trajectory.Points(),
	}
	if f.Real {
		if a, ok := d.events.At(f.Timestamp); ok {
			p.Event = &a
		}
	}
	return p, nil
}

func (d *Driver) labelCap(g GroupID) int {
	if g == BallGroup {
		return 1
	}
	return d.maxLabels
}

// groupOf resolves the render group of s. Real frames come straight from the
// store, so the ball is recognised by any of its reserved identifiers;
// synthetic samples were already re-tagged by Interpolate.
func groupOf(f Frame, s EntitySample) GroupID {
	if f.Real && s.IsBall() {
		return BallGroup
	}
	return s.Group
}

func labelText(g GroupID, s EntitySample) string {
	if g == BallGroup {
		return BallLabel
	}
	if s.Jersey == nil {
		return "?"
	}
	return strconv.Itoa(*s.Jersey)
}
