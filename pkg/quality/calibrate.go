package quality

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

const (
	// Calibrated pH bounds stay fixed: the safe pH band is universal,
	// not dataset-specific.
	calibratedPHLow  = 6.5
	calibratedPHHigh = 8.5

	ceilingPercentile = 95.0
	bandLowPercentile = 5.0

	// UnsafePercentileDefault anchors the cutoff so roughly the worst
	// decile of the calibration set is flagged Unsafe.
	UnsafePercentileDefault = 90.0
)

// Calibrate derives thresholds and a cutoff from the empirical distribution
// of a reference dataset. Ceiling maxes come from the 95th percentile of
// each feature, DO/temperature bands from the 5th/95th. The cutoff is the
// unsafePercentile-th percentile of the scores the provisional model
// assigns to the reference readings themselves.
//
// baseWeights may be nil to use the default reference set. Every reference
// reading must pass validation; calibrating on unvetted data is an error,
// not something to silently work around.
func Calibrate(readings []Reading, baseWeights *Weights, unsafePercentile float64) (*Model, error) {
	if len(readings) == 0 {
		return nil, &ConfigError{Reason: "calibration requires at least one reading"}
	}
	if unsafePercentile < 0 || unsafePercentile > 100 {
		return nil, &ConfigError{Reason: fmt.Sprintf("unsafe percentile=%v outside [0, 100]", unsafePercentile)}
	}

	turbidity := make([]float64, 0, len(readings))
	conductivity := make([]float64, 0, len(readings))
	chlorophyll := make([]float64, 0, len(readings))
	salinity := make([]float64, 0, len(readings))
	dissolvedOxygen := make([]float64, 0, len(readings))
	temperature := make([]float64, 0, len(readings))

	for _, r := range readings {
		turbidity = append(turbidity, r.Turbidity)
		conductivity = append(conductivity, r.Conductivity)
		chlorophyll = append(chlorophyll, r.Chlorophyll)
		salinity = append(salinity, r.Salinity)
		dissolvedOxygen = append(dissolvedOxygen, r.DissolvedOxygen)
		temperature = append(temperature, r.Temperature)
	}

	thresholds := Thresholds{
		PHLow:           calibratedPHLow,
		PHHigh:          calibratedPHHigh,
		TurbidityMax:    positiveOrOne(Percentile(turbidity, ceilingPercentile)),
		ConductivityMax: positiveOrOne(Percentile(conductivity, ceilingPercentile)),
		ChlorophyllMax:  positiveOrOne(Percentile(chlorophyll, ceilingPercentile)),
		SalinityMax:     positiveOrOne(Percentile(salinity, ceilingPercentile)),
		DOLow:           Percentile(dissolvedOxygen, bandLowPercentile),
		DOHigh:          Percentile(dissolvedOxygen, ceilingPercentile),
		TempLow:         Percentile(temperature, bandLowPercentile),
		TempHigh:        Percentile(temperature, ceilingPercentile),
	}

	weights := DefaultWeights()
	if baseWeights != nil {
		weights = *baseWeights
	}

	provisional, err := NewModel(thresholds, weights, 0)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, 0, len(readings))
	for _, r := range readings {
		score, scoreErr := provisional.RiskScore(r)
		if scoreErr != nil {
			return nil, scoreErr
		}
		scores = append(scores, score)
	}

	cutoff := Percentile(scores, unsafePercentile)
	slog.Debug("calibrated model", "readings", len(readings), "cutoff", cutoff)

	return NewModel(thresholds, weights, cutoff)
}

// Percentile computes the p-th percentile of values using linear
// interpolation between order statistics. Returns 0 for an empty slice.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi > len(sorted)-1 {
		hi = len(sorted) - 1
	}
	if lo == hi {
		return sorted[lo]
	}

	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func positiveOrOne(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}
