// Package visualize renders cost maps, risk maps and trajectories to PNG
// using a headless 2D raster canvas. It replaces the teacher's interactive
// gioui.org GUI, which the "any GUI" Non-goal rules out entirely: this
// package never reads input or runs an event loop, it only draws and saves.
package visualize

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"github.com/elektrokombinacija/terrafm/internal/core"
	"github.com/elektrokombinacija/terrafm/internal/planner"
)

// PixelsPerCell is the raster scale used when rendering a field to an image.
const PixelsPerCell = 8

// heatColor maps t in [0,1] to a blue (cold/cheap) -> red (hot/expensive)
// gradient, the same three-stop ramp commonly used for cost/heat overlays.
func heatColor(t float64) color.Color {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	switch {
	case t < 0.5:
		u := t / 0.5
		return color.RGBA{R: 0, G: uint8(255 * u), B: uint8(255 * (1 - u)), A: 255}
	default:
		u := (t - 0.5) / 0.5
		return color.RGBA{R: uint8(255 * u), G: uint8(255 * (1 - u)), B: 0, A: 255}
	}
}

// finiteMax returns the largest finite value in field, or 1 if none exists
// (an all-infinite field, e.g. before computeGlobalField has run).
func finiteMax(field [][]float64) float64 {
	max := 0.0
	found := false
	for _, row := range field {
		for _, v := range row {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				continue
			}
			if !found || v > max {
				max = v
				found = true
			}
		}
	}
	if !found {
		return 1
	}
	return max
}

// RenderCostMap draws the planner's current global cost field to path as a
// PNG heatmap, normalised against the largest finite cell cost.
func RenderCostMap(p *planner.Planner, path string) error {
	field, _ := p.CostMap()
	if len(field) == 0 {
		return errors.New("visualize: empty cost map")
	}
	h := len(field)
	w := len(field[0])
	max := finiteMax(field)

	dc := gg.NewContext(w*PixelsPerCell, h*PixelsPerCell)
	dc.SetColor(color.White)
	dc.Clear()

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			v := field[j][i]
			t := 1.0
			if !math.IsInf(v, 1) && max > 0 {
				t = v / max
			}
			dc.SetColor(heatColor(t))
			dc.DrawRectangle(float64(i*PixelsPerCell), float64((h-1-j)*PixelsPerCell), PixelsPerCell, PixelsPerCell)
			dc.Fill()
		}
	}

	if err := dc.SavePNG(path); err != nil {
		return errors.Wrap(err, "visualize: saving cost map")
	}
	return nil
}

// RenderRiskMap draws a risk-like field (one row-major [H][W] slice of
// [0,1] values, such as Planner.ObstacleRatioMap, which the render command
// passes) to path.
func RenderRiskMap(risk [][]float64, path string) error {
	if len(risk) == 0 {
		return errors.New("visualize: empty risk map")
	}
	h := len(risk)
	w := len(risk[0])

	dc := gg.NewContext(w*PixelsPerCell, h*PixelsPerCell)
	dc.SetColor(color.White)
	dc.Clear()

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			dc.SetColor(heatColor(risk[j][i]))
			dc.DrawRectangle(float64(i*PixelsPerCell), float64((h-1-j)*PixelsPerCell), PixelsPerCell, PixelsPerCell)
			dc.Fill()
		}
	}

	if err := dc.SavePNG(path); err != nil {
		return errors.Wrap(err, "visualize: saving risk map")
	}
	return nil
}

// OverlayTrajectory draws traj as a connected polyline in black over an
// already-rendered heatmap image at path, reading and rewriting it in place.
func OverlayTrajectory(path string, traj core.Trajectory, cellSize float64, gridHeight int) error {
	dc, err := gg.LoadPNG(path)
	if err != nil {
		return errors.Wrap(err, "visualize: loading heatmap for overlay")
	}
	ctx := gg.NewContextForImage(dc)
	ctx.SetColor(color.Black)
	ctx.SetLineWidth(2)

	toPixel := func(wp core.Waypoint) (float64, float64) {
		px := wp.Pos.X / cellSize * PixelsPerCell
		py := float64(gridHeight*PixelsPerCell) - wp.Pos.Y/cellSize*PixelsPerCell
		return px, py
	}

	for i := 1; i < len(traj); i++ {
		x0, y0 := toPixel(traj[i-1])
		x1, y1 := toPixel(traj[i])
		ctx.DrawLine(x0, y0, x1, y1)
	}
	ctx.Stroke()

	if err := ctx.SavePNG(path); err != nil {
		return errors.Wrap(err, "visualize: saving trajectory overlay")
	}
	return nil
}
