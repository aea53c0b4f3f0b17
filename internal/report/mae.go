package report

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/banshee-data/swing.kinematics/internal/evaluate"
	"github.com/banshee-data/swing.kinematics/internal/fsutil"
	"github.com/banshee-data/swing.kinematics/internal/monitoring"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Bar is one joint angle's median absolute error.
type Bar struct {
	Column    string
	JointType string
	Value     float64
}

// jointPalette colors bars by joint type.
var jointPalette = map[string]string{
	"hip":      "#A8D8A8",
	"knee":     "#87CEEB",
	"ankle":    "#DEB887",
	"shoulder": "#FFB6C1",
	"elbow":    "#DDA0DD",
	"wrist":    "#F0A0A0",
}

const otherColor = "#C0C0C0"

// JointTypeOf returns the joint type named in an angle column such as
// "lead_elbow_angle_x", or "other".
func JointTypeOf(column string) string {
	for _, jt := range jointTypes() {
		if strings.Contains(column, jt.String()) {
			return jt.String()
		}
	}
	return "other"
}

// MAEBars selects the positive median absolute errors, rounded to four
// decimals, largest first. Ties keep metric order.
func MAEBars(metrics []evaluate.Metric) []Bar {
	var bars []Bar
	for _, m := range evaluate.Select(metrics, evaluate.MedianAbsoluteError) {
		if !(m.Value > 0) {
			continue
		}
		bars = append(bars, Bar{
			Column:    m.Column,
			JointType: JointTypeOf(m.Column),
			Value:     math.Round(m.Value*1e4) / 1e4,
		})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Value > bars[j].Value })
	return bars
}

func paletteColor(jointType string) string {
	if c, ok := jointPalette[jointType]; ok {
		return c
	}
	return otherColor
}

func hexColor(s string) color.Color {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.Gray{Y: 192}
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// WriteMAEPlot writes a horizontal bar chart of MAEBars(metrics) to path.
// Bars are grouped into one series per joint type so each type gets its
// palette color and a legend entry.
func WriteMAEPlot(fsys fsutil.FileSystem, path string, metrics []evaluate.Metric) error {
	bars := MAEBars(metrics)
	if len(bars) == 0 {
		return fmt.Errorf("no positive median absolute errors to plot")
	}

	p := plot.New()
	p.Title.Text = "Median Absolute Error by Joint Angle"
	p.X.Label.Text = "Median Absolute Error"
	p.Y.Label.Text = "Joint Angle"
	p.Add(plotter.NewGrid())

	names := make([]string, len(bars))
	var order []string
	byType := make(map[string]plotter.Values)
	for i, b := range bars {
		names[i] = b.Column
		if _, ok := byType[b.JointType]; !ok {
			byType[b.JointType] = make(plotter.Values, len(bars))
			order = append(order, b.JointType)
		}
		byType[b.JointType][i] = b.Value
	}
	for _, jt := range order {
		chart, err := plotter.NewBarChart(byType[jt], vg.Points(10))
		if err != nil {
			return err
		}
		chart.Horizontal = true
		chart.Color = hexColor(paletteColor(jt))
		chart.LineStyle.Width = vg.Points(0.5)
		chart.LineStyle.Color = color.White
		p.Add(chart)
		p.Legend.Add(jt, chart)
	}
	p.NominalY(names...)
	p.Legend.Top = true

	img, err := p.WriterTo(10*vg.Inch, vg.Length(len(bars)+4)*0.3*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to render MAE plot: %w", err)
	}
	if err := writePNG(fsys, path, img); err != nil {
		return err
	}
	monitoring.Logf("wrote MAE plot with %d bars to %s", len(bars), path)
	return nil
}
