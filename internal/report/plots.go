// Package report renders joint angles and evaluation metrics as static PNG
// plots and an interactive HTML page.
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"

	"github.com/banshee-data/swing.kinematics/internal/body"
	"github.com/banshee-data/swing.kinematics/internal/export"
	"github.com/banshee-data/swing.kinematics/internal/fsutil"
	"github.com/banshee-data/swing.kinematics/internal/kinematics"
	"github.com/banshee-data/swing.kinematics/internal/monitoring"
	"github.com/banshee-data/swing.kinematics/internal/security"
	"github.com/banshee-data/swing.kinematics/internal/trial"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// axisColors are the trace colors of the x, y and z angles.
var axisColors = [3]color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
}

var labels = [2]string{"lead", "rear"}

// jointTypes returns every joint type in catalog order.
func jointTypes() []body.JointType {
	var out []body.JointType
	for jt := body.Shoulder; jt <= body.Ankle; jt++ {
		out = append(out, jt)
	}
	return out
}

// segments splits a trace into runs of defined samples so that undefined
// samples show as gaps.
func segments(times, values []float64) []plotter.XYs {
	var (
		out []plotter.XYs
		cur plotter.XYs
	)
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: times[i], Y: v})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// addTrace adds one column of t to p. Reference traces are dashed.
func addTrace(p *plot.Plot, t *export.Table, column string, c color.Color, dashed bool, legend string) error {
	times, values, ok := t.Column(column)
	if !ok {
		return nil
	}
	for i, seg := range segments(times, values) {
		line, err := plotter.NewLine(seg)
		if err != nil {
			return err
		}
		line.Color = c
		line.Width = vg.Points(1)
		if dashed {
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		p.Add(line)
		if i == 0 && legend != "" {
			p.Legend.Add(legend, line)
		}
	}
	return nil
}

// anglePanels builds a joint-type by lead/rear grid of plots for one
// session swing. reference may be nil.
func anglePanels(source, reference *export.Table) ([][]*plot.Plot, error) {
	types := jointTypes()
	panels := make([][]*plot.Plot, len(types))
	for r, jt := range types {
		panels[r] = make([]*plot.Plot, len(labels))
		for c, label := range labels {
			p := plot.New()
			p.Title.Text = fmt.Sprintf("%s %s angles", label, jt)
			p.X.Label.Text = "Time (s)"
			p.Y.Label.Text = "Angle (deg)"
			p.Add(plotter.NewGrid())

			for axis := range axisColors {
				col := trial.LabeledColumn(label, jt, axis)
				if err := addTrace(p, source, col, axisColors[axis], false, trial.AxisNames[axis]); err != nil {
					return nil, fmt.Errorf("%s: %w", col, err)
				}
				if reference != nil {
					if err := addTrace(p, reference, col, axisColors[axis], true, ""); err != nil {
						return nil, fmt.Errorf("reference %s: %w", col, err)
					}
				}
			}
			p.Legend.Top = true
			p.Legend.Left = false
			p.Legend.XOffs = -10
			p.Legend.YOffs = -10
			panels[r][c] = p
		}
	}
	return panels, nil
}

// savePanels lays out the grid on one image and stores it as PNG.
func savePanels(fsys fsutil.FileSystem, path string, panels [][]*plot.Plot, panelW, panelH vg.Length) error {
	rows, cols := len(panels), len(panels[0])
	img := vgimg.New(vg.Length(cols)*panelW, vg.Length(rows)*panelH)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}
	canvases := plot.Align(panels, tiles, dc)
	for r := range panels {
		for c := range panels[r] {
			if panels[r][c] != nil {
				panels[r][c].Draw(canvases[r][c])
			}
		}
	}
	return writePNG(fsys, path, vgimg.PngCanvas{Canvas: img})
}

// writePNG encodes an image and writes it to path, creating the parent
// directory.
func writePNG(fsys fsutil.FileSystem, path string, img io.WriterTo) error {
	var buf bytes.Buffer
	if _, err := img.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to encode plot %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create plot directory: %w", err)
		}
	}
	if err := fsys.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write plot %s: %w", path, err)
	}
	return nil
}

// WriteJointPlots writes one PNG of a trial's lead and rear joint angles to
// dir and returns its path.
func WriteJointPlots(fsys fsutil.FileSystem, dir string, res *kinematics.Result) (string, error) {
	panels, err := anglePanels(export.FromResults([]*kinematics.Result{res}), nil)
	if err != nil {
		return "", err
	}
	path, err := security.OutputPath(dir, res.SessionSwing+"_joint_angles.png")
	if err != nil {
		return "", err
	}
	if err := savePanels(fsys, path, panels, 5*vg.Inch, 3*vg.Inch); err != nil {
		return "", err
	}
	monitoring.Debugf("wrote %s", path)
	return path, nil
}

// WriteComparisonPlot overlays the source (solid) and reference (dashed)
// angles of one session swing.
func WriteComparisonPlot(fsys fsutil.FileSystem, path, sessionSwing string, source, reference *export.Table) error {
	src := source.Session(sessionSwing)
	ref := reference.Session(sessionSwing)
	if len(src.Rows) == 0 {
		return fmt.Errorf("session swing %s not in source table", sessionSwing)
	}
	panels, err := anglePanels(src, ref)
	if err != nil {
		return err
	}
	if err := savePanels(fsys, path, panels, 5*vg.Inch, 3.5*vg.Inch); err != nil {
		return err
	}
	monitoring.Logf("wrote comparison plot for %s to %s", sessionSwing, path)
	return nil
}
