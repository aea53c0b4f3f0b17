package evaluate

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/banshee-data/swing.kinematics/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(t *testing.T, lines ...string) *export.Table {
	t.Helper()
	tbl, err := export.ReadAngles(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	return tbl
}

func metricValue(t *testing.T, metrics []Metric, col, name string) Metric {
	t.Helper()
	for _, m := range metrics {
		if m.Column == col && m.Name == name {
			return m
		}
	}
	t.Fatalf("no %s for %s", name, col)
	return Metric{}
}

func TestCompare(t *testing.T) {
	source := table(t,
		"session_swing,time,rear_elbow_angle_x,lead_knee_angle_x,extra",
		"492_1,0.00001,10,1,0",
		"492_1,0.00280,20,2,0",
		"492_1,0.00560,30,,0",
		"492_1,0.00840,40,4,0",
		"125_1,0,100,100,0",
		"203_1,0,100,100,0",
	)
	reference := table(t,
		"session_swing,time,rear_elbow_angle_x,lead_knee_angle_x",
		"492_1,0.0000,11,1",
		"492_1,0.0028,18,5",
		"492_1,0.0056,30,3",
		"492_1,0.0084,44,4",
		"125_1,0,0,0",
		"999_1,0,0,0",
	)

	metrics := Compare(source, reference, Options{Skip: map[string]bool{"125_1": true}, Decimals: 4})
	require.Len(t, metrics, 4, "extra has no reference column")

	// Errors 1, -2, 0, 4.
	rmse := metricValue(t, metrics, "rear_elbow_angle_x", RootMeanSquaredError)
	assert.Equal(t, 4, rmse.N)
	assert.InDelta(t, math.Sqrt(21.0/4), rmse.Value, 1e-12)
	mae := metricValue(t, metrics, "rear_elbow_angle_x", MedianAbsoluteError)
	assert.InDelta(t, 1.5, mae.Value, 1e-12)

	// The undefined source sample drops one pair: errors 0, 3, 0.
	knee := metricValue(t, metrics, "lead_knee_angle_x", MedianAbsoluteError)
	assert.Equal(t, 3, knee.N)
	assert.InDelta(t, 0, knee.Value, 1e-12)
	assert.InDelta(t, math.Sqrt(3), metricValue(t, metrics, "lead_knee_angle_x", RootMeanSquaredError).Value, 1e-12)
}

func TestCompare_NoOverlap(t *testing.T) {
	source := table(t, "session_swing,time,a", "1_1,0,1")
	reference := table(t, "session_swing,time,a", "2_1,0,1")

	metrics := Compare(source, reference, Options{Decimals: 4})
	require.Len(t, metrics, 2)
	for _, m := range metrics {
		assert.Zero(t, m.N)
		assert.True(t, math.IsNaN(m.Value))
	}
}

func TestMedianAbsoluteError(t *testing.T) {
	assert.Equal(t, 2.0, medianAbsoluteError([]float64{0, 0, 0}, []float64{1, -2, 3}))
	assert.Equal(t, 2.5, medianAbsoluteError([]float64{0, 0, 0, 0}, []float64{4, 1, -2, 3}))
	assert.Equal(t, 7.0, medianAbsoluteError([]float64{7}, []float64{0}))
}

func TestWriteReadMetrics(t *testing.T) {
	metrics := []Metric{
		{Column: "rear_elbow_angle_x", Name: RootMeanSquaredError, Value: 2.5},
		{Column: "rear_elbow_angle_x", Name: MedianAbsoluteError, Value: 0.125},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteMetrics(&buf, metrics))
	assert.Equal(t, "col,metric,value\nrear_elbow_angle_x,root_mean_squared_error,2.5\nrear_elbow_angle_x,median_absolute_error,0.125\n", buf.String())

	got, err := ReadMetrics(&buf)
	require.NoError(t, err)
	assert.Equal(t, metrics, got)

	assert.Equal(t, metrics[1:], Select(got, MedianAbsoluteError))

	_, err = ReadMetrics(strings.NewReader("a,b,c\n"))
	assert.ErrorContains(t, err, "invalid header")
}
