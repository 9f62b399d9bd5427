package simulator

import "math"

// DefaultTrajectoryLength is the trailing ball path length used when none is configured.
const DefaultTrajectoryLength = 30

// Trajectory is a bounded sliding window of ball positions, oldest first.
type Trajectory struct {
	limit  int
	points []Point
}

// NewTrajectory returns an empty trajectory holding at most limit points.
// If limit <= 0, DefaultTrajectoryLength is used.
func NewTrajectory(limit int) *Trajectory {
	if limit <= 0 {
		limit = DefaultTrajectoryLength
	}
	return &Trajectory{limit: limit, points: make([]Point, 0, limit)}
}

// Record appends (x, y) and evicts from the front until the window fits.
// Non-finite coordinates are ignored.
func (t *Trajectory) Record(x, y float64) {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return
	}
	t.points = append(t.points, Point{X: x, Y: y})
	if over := len(t.points) - t.limit; over > 0 {
		copy(t.points, t.points[over:])
		t.points = t.points[:t.limit]
	}
}

// Points returns a copy of the window, oldest first.
func (t *Trajectory) Points() []Point {
	out := make([]Point, len(t.points))
	copy(out, t.points)
	return out
}

// Len returns the number of points held.
func (t *Trajectory) Len() int { return len(t.points) }

// Limit returns the configured bound.
func (t *Trajectory) Limit() int { return t.limit }

// Reset empties the window.
func (t *Trajectory) Reset() { t.points = t.points[:0] }
