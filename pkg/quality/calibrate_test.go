package quality

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		p        float64
		expected float64
	}{
		{"empty", nil, 50, 0},
		{"single", []float64{7}, 90, 7},
		{"median interpolated", []float64{1, 2, 3, 4}, 50, 2.5},
		{"min", []float64{5, 1, 3}, 0, 1},
		{"max", []float64{5, 1, 3}, 100, 5},
		{"p90 of 1..10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 90, 9.1},
		{"unsorted input", []float64{10, 1, 5}, 50, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Percentile(tt.values, tt.p), 1e-9)
		})
	}
}

func TestCalibrateEmptyInput(t *testing.T) {
	_, err := Calibrate(nil, nil, UnsafePercentileDefault)
	require.Error(t, err)
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestCalibrateBadPercentile(t *testing.T) {
	readings := []Reading{testReading("r1")}
	_, err := Calibrate(readings, nil, 120)
	require.Error(t, err)
	_, err = Calibrate(readings, nil, -1)
	require.Error(t, err)
}

func TestCalibrateThresholds(t *testing.T) {
	readings := make([]Reading, 0, 10)
	for i := 1; i <= 10; i++ {
		r := testReading(fmt.Sprintf("r%d", i))
		r.Turbidity = float64(i)
		readings = append(readings, r)
	}

	m, err := Calibrate(readings, nil, UnsafePercentileDefault)
	require.NoError(t, err)

	// pH band stays fixed regardless of the data.
	assert.Equal(t, 6.5, m.Thresholds.PHLow)
	assert.Equal(t, 8.5, m.Thresholds.PHHigh)

	// Turbidity ceiling is the 95th percentile of 1..10.
	assert.InDelta(t, 9.55, m.Thresholds.TurbidityMax, 1e-9)

	// Constant features give degenerate bands with low == high.
	assert.Equal(t, m.Thresholds.DOLow, m.Thresholds.DOHigh)

	// Default weights when no override is given.
	assert.Equal(t, DefaultWeights(), m.Weights)
}

func TestCalibrateDegenerateCeilingSubstitutesOne(t *testing.T) {
	readings := make([]Reading, 0, 5)
	for i := 0; i < 5; i++ {
		r := testReading(fmt.Sprintf("r%d", i))
		r.Salinity = 0
		readings = append(readings, r)
	}

	m, err := Calibrate(readings, nil, UnsafePercentileDefault)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Thresholds.SalinityMax)
}

func TestCalibrateWeightOverride(t *testing.T) {
	readings := []Reading{testReading("r1"), testReading("r2")}

	w := Weights{PH: 1, Turbidity: 1, Conductivity: 1, Chlorophyll: 1, DissolvedOxygen: 1, Salinity: 1, Temperature: 1}
	m, err := Calibrate(readings, &w, UnsafePercentileDefault)
	require.NoError(t, err)
	assert.Equal(t, w, m.Weights)
}

func TestCalibrateFlagsWorstDecile(t *testing.T) {
	// Ten readings differing only in turbidity 1..10: calibrating at the
	// 90th percentile should flag at most the worst one or two.
	readings := make([]Reading, 0, 10)
	for i := 1; i <= 10; i++ {
		r := testReading(fmt.Sprintf("r%d", i))
		r.Turbidity = float64(i)
		readings = append(readings, r)
	}

	m, err := Calibrate(readings, nil, 90)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.UnsafeCutoff, 0.0)
	assert.LessOrEqual(t, m.UnsafeCutoff, 1.0)

	results, err := m.Evaluate(readings)
	require.NoError(t, err)
	require.Len(t, results, 10)

	unsafe := 0
	for _, res := range results {
		if res.Label == LabelUnsafe {
			unsafe++
		}
	}
	assert.LessOrEqual(t, unsafe, 2)
	assert.GreaterOrEqual(t, unsafe, 1)

	// The flagged readings are the highest-turbidity ones.
	for _, res := range results {
		if res.Label == LabelUnsafe {
			assert.GreaterOrEqual(t, res.Reading.Turbidity, 9.0)
		}
	}
}

func TestCalibratePropagatesInvalidReading(t *testing.T) {
	bad := testReading("bad")
	bad.PH = 20

	_, err := Calibrate([]Reading{testReading("ok"), bad}, nil, UnsafePercentileDefault)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
