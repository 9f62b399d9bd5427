// Package formation measures how compact a team's shape is: the area of the
// convex hull around its players at one timestamp, and how that area moves
// over a stretch of the match.
package formation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// PlayerPosition is one player's location at a timestamp.
type PlayerPosition struct {
	PlayerID string  `json:"player_id"`
	Name     string  `json:"player_name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Vecs converts positions to vectors, dropping non-finite coordinates.
func Vecs(players []PlayerPosition) []r2.Vec {
	out := make([]r2.Vec, 0, len(players))
	for _, p := range players {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			continue
		}
		out = append(out, r2.Vec{X: p.X, Y: p.Y})
	}
	return out
}

// Compactness returns the area enclosed by the convex hull of points.
// Fewer than three points have no area. When the points are collinear the
// area of their bounding box is returned instead.
func Compactness(points []r2.Vec) float64 {
	if len(points) < 3 {
		return 0
	}
	hull := Hull(points)
	if len(hull) < 3 {
		min, max := BoundingBox(points)
		return (max.X - min.X) * (max.Y - min.Y)
	}
	return polygonArea(hull)
}

// Hull returns the vertices of the convex hull of points in
// counter-clockwise order, starting from the lowest-leftmost point.
// Collinear points on the hull boundary are omitted.
func Hull(points []r2.Vec) []r2.Vec {
	pts := append([]r2.Vec(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	pts = dedupe(pts)
	if len(pts) < 3 {
		return pts
	}

	// Andrew's monotone chain.
	hull := make([]r2.Vec, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// BoundingBox returns the lower-left and upper-right corners enclosing points.
func BoundingBox(points []r2.Vec) (min, max r2.Vec) {
	if len(points) == 0 {
		return r2.Vec{}, r2.Vec{}
	}
	min, max = points[0], points[0]
	for _, p := range points[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

// turn is positive when o→a→b turns counter-clockwise.
func turn(o, a, b r2.Vec) float64 {
	return r2.Cross(r2.Sub(a, o), r2.Sub(b, o))
}

func polygonArea(poly []r2.Vec) float64 {
	var sum float64
	for i := range poly {
		sum += r2.Cross(poly[i], poly[(i+1)%len(poly)])
	}
	return math.Abs(sum) / 2
}

func dedupe(sorted []r2.Vec) []r2.Vec {
	out := sorted[:0]
	for _, p := range sorted {
		if len(out) > 0 && p == out[len(out)-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}
