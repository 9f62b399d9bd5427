package formation

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	playerColor = color.RGBA{B: 255, A: 255}
	hullColor   = color.RGBA{R: 255, A: 255}
	hullFill    = color.RGBA{R: 255, A: 77}
)

// Plot draws the players of one snapshot with their names and the hull
// around them, and writes the figure to w as PNG.
func Plot(w io.Writer, s Snapshot) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Team Formation - Compactness: %.2f square units", s.Compactness)
	p.X.Label.Text = "X Position"
	p.Y.Label.Text = "Y Position"
	p.Add(plotter.NewGrid())

	pts := Vecs(s.Players)
	if len(pts) >= 3 {
		outline := Hull(pts)
		if len(outline) < 3 {
			min, max := BoundingBox(pts)
			outline = []r2.Vec{min, {X: max.X, Y: min.Y}, max, {X: min.X, Y: max.Y}}
		}
		poly, err := plotter.NewPolygon(vecXYs(outline))
		if err != nil {
			return fmt.Errorf("hull polygon: %w", err)
		}
		poly.Color = hullFill
		poly.LineStyle.Color = hullColor
		poly.LineStyle.Width = vg.Points(1)
		p.Add(poly)
	}

	if len(pts) > 0 {
		xys := vecXYs(pts)
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("player scatter: %w", err)
		}
		scatter.GlyphStyle.Color = playerColor
		scatter.GlyphStyle.Radius = vg.Points(5)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		p.Legend.Add("Players", scatter)

		names := make([]string, 0, len(s.Players))
		for _, pl := range s.Players {
			if math.IsNaN(pl.X) || math.IsNaN(pl.Y) || math.IsInf(pl.X, 0) || math.IsInf(pl.Y, 0) {
				continue
			}
			names = append(names, pl.Name)
		}
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: names})
		if err != nil {
			return fmt.Errorf("player labels: %w", err)
		}
		labels.Offset = vg.Point{X: vg.Points(5), Y: vg.Points(5)}
		p.Add(labels)

		// Equal axes: pad the shorter side so distances are not distorted.
		min, max := BoundingBox(pts)
		span := math.Max(max.X-min.X, max.Y-min.Y)/2 + 5
		cx, cy := (min.X+max.X)/2, (min.Y+max.Y)/2
		p.X.Min, p.X.Max = cx-span, cx+span
		p.Y.Min, p.Y.Max = cy-span, cy+span
	} else {
		p.X.Min, p.X.Max = 0, 100
		p.Y.Min, p.Y.Max = 0, 100
	}

	wt, err := p.WriterTo(10*vg.Inch, 8*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("formation plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func vecXYs(vs []r2.Vec) plotter.XYs {
	xys := make(plotter.XYs, len(vs))
	for i, v := range vs {
		xys[i] = plotter.XY{X: v.X, Y: v.Y}
	}
	return xys
}
