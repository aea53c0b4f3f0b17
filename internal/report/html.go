package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/banshee-data/swing.kinematics/internal/evaluate"
	"github.com/banshee-data/swing.kinematics/internal/kinematics"
	"github.com/banshee-data/swing.kinematics/internal/trial"
	"github.com/banshee-data/swing.kinematics/internal/units"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// echartsAssetsHost serves the echarts javascript for rendered pages.
const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var axisHex = [3]string{"#1f77b4", "#2ca02c", "#9467bd"}

// missing is how echarts marks a gap in a line series.
const missing = "-"

// trialSubtitle describes the swing behind a chart, with its exit velocity
// in the given units.
func trialSubtitle(md trial.Metadata, evUnits string) string {
	return fmt.Sprintf("user %s, swing %d, batter %s, exit velocity %.1f %s",
		md.UserID, md.Swing, md.BatterHand, units.ConvertExitVelocity(md.ExitVelocity, evUnits), evUnits)
}

// jointChart renders the lead and rear angles of one joint type for a trial.
func jointChart(res *kinematics.Result, jointType, evUnits string) *charts.Line {
	x := make([]string, len(res.Time))
	for i, t := range res.Time {
		x[i] = strconv.FormatFloat(t, 'f', 4, 64)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s %s angles", res.SessionSwing, jointType),
			Subtitle: trialSubtitle(res.Metadata, evUnits),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Angle (deg)", NameLocation: "middle", NameGap: 40}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)
	line.SetXAxis(x)

	for _, j := range res.Joints {
		if j.Joint.Type.String() != jointType {
			continue
		}
		style := "solid"
		if j.Label == "lead" {
			style = "dashed"
		}
		for axis, col := range j.Columns {
			data := make([]opts.LineData, len(j.Angles))
			for i, a := range j.Angles {
				if math.IsNaN(a[axis]) {
					data[i] = opts.LineData{Value: missing}
					continue
				}
				data[i] = opts.LineData{Value: a[axis]}
			}
			line.AddSeries(col, data,
				charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
				charts.WithLineStyleOpts(opts.LineStyle{Color: axisHex[axis], Type: style, Width: 1.5}),
			)
		}
	}
	return line
}

// maeChart renders MAEBars as a horizontal bar chart.
func maeChart(bars []Bar) *charts.Bar {
	names := make([]string, len(bars))
	data := make([]opts.BarData, len(bars))
	for i, b := range bars {
		names[i] = b.Column
		data[i] = opts.BarData{Value: b.Value, ItemStyle: &opts.ItemStyle{Color: paletteColor(b.JointType)}}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: fmt.Sprintf("%dpx", 120+24*len(bars)), AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Median Absolute Error by Joint Angle"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries(evaluate.MedianAbsoluteError, data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right"}),
		)
	bar.XYReversal()
	return bar
}

// WriteHTMLReport renders one page holding a line chart per joint type and
// trial and, when metrics has positive median absolute errors, the error
// bar chart. Exit velocities are shown in evUnits.
func WriteHTMLReport(w io.Writer, results []*kinematics.Result, metrics []evaluate.Metric, evUnits string) error {
	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsHost)
	page.PageTitle = "Swing joint angles"

	if bars := MAEBars(metrics); len(bars) > 0 {
		page.AddCharts(maeChart(bars))
	}
	for _, res := range results {
		for _, jt := range jointTypes() {
			page.AddCharts(jointChart(res, jt.String(), evUnits))
		}
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}
