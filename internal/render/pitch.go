// Package render draws playback payloads onto a football pitch with
// gonum/plot and writes them out as PNG images.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"match-simulator/internal/simulator"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Pitch dimensions in metres. Coordinates are on a 0..100 grid in both
// directions, so markings are scaled per axis.
const (
	pitchLength = 105.0
	pitchWidth  = 68.0
)

var (
	grassColor      = color.RGBA{R: 0x3b, G: 0x8f, B: 0x3b, A: 0xff}
	lineColor       = color.White
	trajectoryColor = color.RGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xcc}
	ballColor       = color.RGBA{R: 0xff, G: 0xff, B: 0x00, A: 0xff}
	// Group colours in payload order; the ball always uses ballColor.
	groupColors = []color.Color{
		color.RGBA{R: 0x1f, G: 0x4e, B: 0xd8, A: 0xff},
		color.RGBA{R: 0xff, G: 0x8c, B: 0x00, A: 0xff},
		color.RGBA{R: 0xb0, G: 0x30, B: 0xb0, A: 0xff},
	}
	groupLegends = []string{"Home", "Away"}
)

// PitchRenderer draws one RenderPayload per image.
type PitchRenderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewPitchRenderer returns a renderer producing 14x10 inch images.
func NewPitchRenderer() *PitchRenderer {
	return &PitchRenderer{Width: 14 * vg.Inch, Height: 10 * vg.Inch}
}

// WritePNG draws p under title and writes the image to w.
func (r *PitchRenderer) WritePNG(w io.Writer, title string, p simulator.RenderPayload) error {
	pl, err := r.Plot(title, p)
	if err != nil {
		return err
	}
	wt, err := pl.WriterTo(r.Width, r.Height, "png")
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// Plot builds the figure for p without encoding it.
func (r *PitchRenderer) Plot(title string, p simulator.RenderPayload) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = Caption(title, p)
	pl.BackgroundColor = grassColor
	pl.HideAxes()
	pl.X.Min, pl.X.Max = -2, 102
	pl.Y.Min, pl.Y.Max = -2, 102
	pl.Legend.Top = true
	pl.Legend.Left = false

	if err := addMarkings(pl); err != nil {
		return nil, err
	}

	if len(p.Trajectory) > 1 {
		xys := make(plotter.XYs, len(p.Trajectory))
		for i, pt := range p.Trajectory {
			xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("trajectory: %w", err)
		}
		line.Color = trajectoryColor
		line.Width = vg.Points(3)
		pl.Add(line)
	}

	team := 0
	for _, gp := range p.Groups {
		var c color.Color = ballColor
		radius, legend := vg.Points(6), simulator.BallLabel
		if gp.Group != simulator.BallGroup {
			c, radius, legend = groupColors[team%len(groupColors)], vg.Points(5), string(gp.Group)
			if team < len(groupLegends) {
				legend = groupLegends[team]
			}
			team++
		}
		if len(gp.Markers) == 0 {
			continue
		}

		xys := make(plotter.XYs, len(gp.Markers))
		for i, m := range gp.Markers {
			xys[i] = plotter.XY{X: m.X, Y: m.Y}
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", gp.Group, err)
		}
		scatter.GlyphStyle.Color = c
		scatter.GlyphStyle.Radius = radius
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		pl.Add(scatter)
		pl.Legend.Add(legend, scatter)

		if len(gp.Labels) == 0 {
			continue
		}
		lxys := make(plotter.XYs, len(gp.Labels))
		texts := make([]string, len(gp.Labels))
		for i, l := range gp.Labels {
			lxys[i] = plotter.XY{X: l.X + 1, Y: l.Y + 1}
			texts[i] = l.Text
		}
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: lxys, Labels: texts})
		if err != nil {
			return nil, fmt.Errorf("group %s labels: %w", gp.Group, err)
		}
		pl.Add(labels)
	}

	return pl, nil
}

// Caption is the figure title: the match title, then period and time, then
// the event annotation when there is one.
func Caption(title string, p simulator.RenderPayload) string {
	s := title
	if p.Timestamp != "" {
		s += fmt.Sprintf("\nPeriod: %d | Time: %s", p.Period, p.Timestamp)
	}
	if p.Event != nil {
		s += "\n" + p.Event.Text()
	}
	return s
}

// addMarkings draws the opta-style pitch lines.
func addMarkings(pl *plot.Plot) error {
	sx, sy := 100/pitchLength, 100/pitchWidth

	shapes := []plotter.XYs{
		rect(0, 0, 100, 100),
		{{X: 50, Y: 0}, {X: 50, Y: 100}},
		ellipse(50, 50, 9.15*sx, 9.15*sy),
	}
	for _, x0 := range []float64{0, 100} {
		dir := 1.0
		if x0 == 100 {
			dir = -1
		}
		penalty := rect(x0, 50-20.16*sy, x0+dir*16.5*sx, 50+20.16*sy)
		sixYard := rect(x0, 50-9.16*sy, x0+dir*5.5*sx, 50+9.16*sy)
		goal := rect(x0, 50-3.66*sy, x0-dir*1.5, 50+3.66*sy)
		// The penalty arc is the part of the circle around the spot that
		// lies outside the penalty area.
		half := math.Acos((16.5 - 11) / 9.15)
		mid := 0.0
		if dir < 0 {
			mid = math.Pi
		}
		arc := arcXYs(x0+dir*11*sx, 50, 9.15*sx, 9.15*sy, mid-half, mid+half)
		shapes = append(shapes, penalty, sixYard, goal, arc)
	}

	for _, xys := range shapes {
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("pitch markings: %w", err)
		}
		line.Color = lineColor
		line.Width = vg.Points(1.5)
		pl.Add(line)
	}
	return nil
}

func rect(x0, y0, x1, y1 float64) plotter.XYs {
	return plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}
}

func ellipse(cx, cy, rx, ry float64) plotter.XYs {
	return arcXYs(cx, cy, rx, ry, 0, 2*math.Pi)
}

// arcXYs samples the elliptical arc between angles from and to (radians).
func arcXYs(cx, cy, rx, ry, from, to float64) plotter.XYs {
	const steps = 64
	xys := make(plotter.XYs, steps+1)
	for i := 0; i <= steps; i++ {
		a := from + (to-from)*float64(i)/steps
		xys[i] = plotter.XY{X: cx + rx*math.Cos(a), Y: cy + ry*math.Sin(a)}
	}
	return xys
}
