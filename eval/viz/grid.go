// Package viz renders evaluation results as animated grids: one PNG per
// future timestep per scene, each a tiled grid of sample panels showing the
// observed history, the ground truth, the prediction so far, and any
// collisions at the current timestep.
package viz

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/traj-eval/traj-eval/eval"
)

var (
	obsColor       = color.RGBA{R: 120, G: 120, B: 120, A: 200}
	gtColor        = color.RGBA{R: 40, G: 140, B: 40, A: 220}
	predColor      = color.RGBA{R: 20, G: 80, B: 200, A: 220}
	collisionColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
)

// GridConfig controls panel layout and sizing.
type GridConfig struct {
	Rows      int       // panel grid rows
	Cols      int       // panel grid cols
	PanelSize vg.Length // width/height of one panel
}

// DefaultGridConfig renders a 2x3 grid of 4-inch panels: the best-SADE
// sample plus the first five remaining samples.
func DefaultGridConfig() GridConfig {
	return GridConfig{Rows: 2, Cols: 3, PanelSize: 4 * vg.Inch}
}

// RenderScene writes one PNG frame per future timestep for a scene under
// dir/<seq>/frame_<n>/. The first panel features sample `featured` (the
// caller's tie-broken display pick); remaining panels show other samples in
// order. A featured index outside res.Samples falls back to the best-joint-
// error sample. masks must align with res.Samples.
func RenderScene(dir string, cfg GridConfig, sc *eval.Scene, res *eval.RejectionResult, m eval.SceneMetrics, featured int) error {
	if len(res.Samples) == 0 {
		return fmt.Errorf("scene %s: no samples to render", sc.ID())
	}
	outDir := filepath.Join(dir, sc.Seq, fmt.Sprintf("frame_%06d", sc.Frame))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create viz dir %s: %w", outDir, err)
	}

	if featured < 0 || featured >= len(res.Samples) {
		featured = m.ArgminSADE
	}
	panels := panelOrder(featured, len(res.Samples), cfg.Rows*cfg.Cols)

	steps := len(res.GroundTruth)
	for t := 0; t < steps; t++ {
		path := filepath.Join(outDir, fmt.Sprintf("step_%02d.png", t))
		if err := renderFrame(path, cfg, sc, res, m, panels, t); err != nil {
			return err
		}
	}
	return nil
}

// panelOrder puts the featured sample first, then the rest in draw order,
// capped at maxPanels.
func panelOrder(featured, nSamples, maxPanels int) []int {
	panels := []int{featured}
	for i := 0; i < nSamples; i++ {
		if len(panels) == maxPanels {
			break
		}
		if i == featured {
			continue
		}
		panels = append(panels, i)
	}
	return panels
}

// renderFrame draws the grid for one timestep and writes it as a PNG.
func renderFrame(path string, cfg GridConfig, sc *eval.Scene, res *eval.RejectionResult, m eval.SceneMetrics, panels []int, t int) error {
	plots := make([][]*plot.Plot, cfg.Rows)
	idx := 0
	for r := 0; r < cfg.Rows; r++ {
		plots[r] = make([]*plot.Plot, cfg.Cols)
		for c := 0; c < cfg.Cols; c++ {
			if idx >= len(panels) {
				continue
			}
			s := panels[idx]
			title := fmt.Sprintf("sample %d", s)
			if idx == 0 {
				title = fmt.Sprintf("featured sample (%d)", s)
			}
			cm := mask(m, s)
			if cm != nil && cm.Any() {
				title = fmt.Sprintf("%s, %d agents colliding", title, cm.NumColliding())
			}
			p, err := panelPlot(title, res.Observed, res.GroundTruth, res.Samples[s], cm, t)
			if err != nil {
				return fmt.Errorf("render %s: %w", path, err)
			}
			plots[r][c] = p
			idx++
		}
	}

	img := vgimg.New(vg.Length(cfg.Cols)*cfg.PanelSize, vg.Length(cfg.Rows)*cfg.PanelSize)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: cfg.Rows, Cols: cfg.Cols}
	canvases := plot.Align(plots, tiles, dc)
	for r := 0; r < cfg.Rows; r++ {
		for c := 0; c < cfg.Cols; c++ {
			if plots[r][c] != nil {
				plots[r][c].Draw(canvases[r][c])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func mask(m eval.SceneMetrics, s int) *eval.CollisionMask {
	if s < len(m.Masks) {
		return &m.Masks[s]
	}
	return nil
}

// panelPlot draws one sample's panel at timestep t: full observed and
// ground-truth polylines, the prediction up to and including t, and red
// markers on agents colliding at t.
func panelPlot(title string, obs, gt [][]eval.Point, sample eval.Sample, cm *eval.CollisionMask, t int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	agents := len(gt[0])
	for a := 0; a < agents; a++ {
		if err := addAgentLine(p, eval.Sample(obs).Agent(a), obsColor, vg.Points(0.8)); err != nil {
			return nil, err
		}
		if err := addAgentLine(p, eval.Sample(gt).Agent(a), gtColor, vg.Points(0.8)); err != nil {
			return nil, err
		}
		// Prediction drawn only up to the current timestep.
		pred := sample.Agent(a)
		if t+1 < len(pred) {
			pred = pred[:t+1]
		}
		if err := addAgentLine(p, pred, predColor, vg.Points(1.2)); err != nil {
			return nil, err
		}
	}

	if cm != nil && t < len(cm.PerStep) {
		var hits plotter.XYs
		for a := 0; a < agents; a++ {
			for b := 0; b < agents; b++ {
				if cm.PerStep[t][a][b] {
					hits = append(hits, plotter.XY{X: sample[t][a].X, Y: sample[t][a].Y})
					break
				}
			}
		}
		if len(hits) > 0 {
			sc, err := plotter.NewScatter(hits)
			if err != nil {
				return nil, err
			}
			sc.GlyphStyle.Color = collisionColor
			sc.GlyphStyle.Radius = vg.Points(3)
			p.Add(sc)
		}
	}

	p.Add(plotter.NewGrid())
	return p, nil
}

// addAgentLine draws one agent trajectory as a polyline.
func addAgentLine(p *plot.Plot, path eval.Trajectory, col color.RGBA, width vg.Length) error {
	if len(path) == 0 {
		return nil
	}
	xys := make(plotter.XYs, 0, len(path))
	for _, pt := range path {
		xys = append(xys, plotter.XY{X: pt.X, Y: pt.Y})
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.Color = col
	line.Width = width
	p.Add(line)
	return nil
}
