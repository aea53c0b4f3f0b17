package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestParseSequence(t *testing.T) {
	tests := []struct {
		in      string
		want    Sequence
		wantErr bool
	}{
		{in: "ZXY", want: Sequence{AxisZ, AxisX, AxisY}},
		{in: "yxy", want: Sequence{AxisY, AxisX, AxisY}},
		{in: "XYZ", want: Sequence{AxisX, AxisY, AxisZ}},
		{in: "XXY", wantErr: true},
		{in: "XYY", wantErr: true},
		{in: "XY", wantErr: true},
		{in: "XYW", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSequence(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "YXY", MustParseSequence("yxy").String())
	assert.True(t, MustParseSequence("YXY").Proper())
	assert.False(t, MustParseSequence("ZXY").Proper())
}

func TestCompose_Elemental(t *testing.T) {
	// 90° about Z maps X onto Y.
	R := Compose([3]float64{90, 0, 0}, MustParseSequence("ZXY"))
	assertVec(t, r3.Vec{Y: 1}, R.MulVec(r3.Vec{X: 1}))

	// Intrinsic order: R = Rz(90) · Rx(90); the second rotation is about the
	// already rotated X axis, i.e. the lab Y axis.
	R = Compose([3]float64{90, 90, 0}, MustParseSequence("ZXY"))
	assertVec(t, r3.Vec{X: 1}, R.MulVec(r3.Vec{Z: 1}))
}

func TestDecompose_KnownAngles(t *testing.T) {
	tests := []struct {
		seq    string
		angles [3]float64
	}{
		{"ZXY", [3]float64{30, 20, -10}},
		{"ZXY", [3]float64{-170, 80, 175}},
		{"YXY", [3]float64{45, 60, -30}},
		{"YXY", [3]float64{-120, 150, 100}},
		{"XYZ", [3]float64{10, -45, 90}},
	}
	for _, tt := range tests {
		t.Run(tt.seq, func(t *testing.T) {
			seq := MustParseSequence(tt.seq)
			got := Decompose(Compose(tt.angles, seq), seq)
			for i := range got {
				assert.InDelta(t, tt.angles[i], got[i], 1e-9, "axis %d", i)
			}
		})
	}
}

func TestDecompose_Ranges(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, s := range []string{"ZXY", "YXY"} {
		seq := MustParseSequence(s)
		for n := 0; n < 1000; n++ {
			angles := [3]float64{rng.Float64()*360 - 180, rng.Float64()*360 - 180, rng.Float64()*360 - 180}
			got := Decompose(Compose(angles, seq), seq)
			assert.GreaterOrEqual(t, got[0], -180.0)
			assert.LessOrEqual(t, got[0], 180.0)
			assert.GreaterOrEqual(t, got[2], -180.0)
			assert.LessOrEqual(t, got[2], 180.0)
			if seq.Proper() {
				assert.GreaterOrEqual(t, got[1], 0.0)
				assert.LessOrEqual(t, got[1], 180.0)
			} else {
				assert.GreaterOrEqual(t, got[1], -90.0)
				assert.LessOrEqual(t, got[1], 90.0)
			}
		}
	}
}

// Every valid sequence round-trips through Decompose and Compose, away from
// the gimbal-lock neighbourhood of the middle axis.
func TestDecompose_RoundTrip(t *testing.T) {
	var sequences []Sequence
	for a := AxisX; a <= AxisZ; a++ {
		for b := AxisX; b <= AxisZ; b++ {
			for c := AxisX; c <= AxisZ; c++ {
				if a != b && b != c {
					sequences = append(sequences, Sequence{a, b, c})
				}
			}
		}
	}
	require.Len(t, sequences, 12)

	rng := rand.New(rand.NewSource(1))
	for _, seq := range sequences {
		t.Run(seq.String(), func(t *testing.T) {
			checked := 0
			for checked < 500 {
				angles := [3]float64{rng.Float64()*360 - 180, rng.Float64()*360 - 180, rng.Float64()*360 - 180}
				if nearGimbalLock(angles[1], seq) {
					continue
				}
				R := Compose(angles, seq)
				back := Compose(Decompose(R, seq), seq)
				require.Less(t, frobenius(R, back), 1e-6, "angles %v", angles)
				checked++
			}
		})
	}
}

func TestDecompose_GimbalLockStillRecomposes(t *testing.T) {
	seq := MustParseSequence("ZXY")
	for _, mid := range []float64{90, -90} {
		R := Compose([3]float64{25, mid, -15}, seq)
		got := Decompose(R, seq)
		assert.InDelta(t, mid, got[1], 1e-6)
		assert.Equal(t, 0.0, got[2])
		assert.Less(t, frobenius(R, Compose(got, seq)), 1e-6)
	}
}

func TestDecompose_Undefined(t *testing.T) {
	got := Decompose(NaNPose().Rotation, MustParseSequence("ZXY"))
	for _, a := range got {
		assert.True(t, math.IsNaN(a))
	}
	got = Decompose(nil, MustParseSequence("ZXY"))
	assert.True(t, math.IsNaN(got[0]))
}

func nearGimbalLock(middle float64, seq Sequence) bool {
	const margin = 0.1
	m := math.Mod(math.Abs(middle), 180)
	if seq.Proper() {
		return m < margin || m > 180-margin
	}
	return math.Abs(m-90) < margin
}
