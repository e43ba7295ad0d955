package quality

import (
	"fmt"
	"log/slog"
)

// Feature names used as keys in badness maps and weight lookups.
const (
	FeaturePH              = "ph"
	FeatureTurbidity       = "turbidity"
	FeatureConductivity    = "conductivity"
	FeatureChlorophyll     = "chlorophyll"
	FeatureDissolvedOxygen = "dissolved_oxygen"
	FeatureSalinity        = "salinity"
	FeatureTemperature     = "temperature"
)

// Overshoot divisors: how many units past a band bound saturate badness to 1.
const (
	phBadnessDivisor   = 2.0
	doBadnessDivisor   = 2.0
	tempBadnessDivisor = 5.0
)

// Label is the classification outcome for a reading.
type Label string

const (
	LabelSafe   Label = "Safe"
	LabelUnsafe Label = "Unsafe"
)

// Thresholds holds the safe bounds for every feature. Band features carry a
// low and high bound, ceiling features only a max.
type Thresholds struct {
	PHLow           float64 `json:"ph_low" yaml:"ph_low"`
	PHHigh          float64 `json:"ph_high" yaml:"ph_high"`
	TurbidityMax    float64 `json:"turbidity_max" yaml:"turbidity_max"`
	ConductivityMax float64 `json:"conductivity_max" yaml:"conductivity_max"`
	ChlorophyllMax  float64 `json:"chlorophyll_max" yaml:"chlorophyll_max"`
	DOLow           float64 `json:"do_low" yaml:"do_low"`
	DOHigh          float64 `json:"do_high" yaml:"do_high"`
	SalinityMax     float64 `json:"salinity_max" yaml:"salinity_max"`
	TempLow         float64 `json:"temp_low" yaml:"temp_low"`
	TempHigh        float64 `json:"temp_high" yaml:"temp_high"`
}

// Weights holds the per-feature contribution weights for the risk score.
type Weights struct {
	PH              float64 `json:"ph" yaml:"ph"`
	Turbidity       float64 `json:"turbidity" yaml:"turbidity"`
	Conductivity    float64 `json:"conductivity" yaml:"conductivity"`
	Chlorophyll     float64 `json:"chlorophyll" yaml:"chlorophyll"`
	DissolvedOxygen float64 `json:"dissolved_oxygen" yaml:"dissolved_oxygen"`
	Salinity        float64 `json:"salinity" yaml:"salinity"`
	Temperature     float64 `json:"temperature" yaml:"temperature"`
}

func (w Weights) byFeature() map[string]float64 {
	return map[string]float64{
		FeaturePH:              w.PH,
		FeatureTurbidity:       w.Turbidity,
		FeatureConductivity:    w.Conductivity,
		FeatureChlorophyll:     w.Chlorophyll,
		FeatureDissolvedOxygen: w.DissolvedOxygen,
		FeatureSalinity:        w.Salinity,
		FeatureTemperature:     w.Temperature,
	}
}

// Model is an immutable risk scoring configuration: all of its methods are
// pure functions over the receiver and a reading.
type Model struct {
	Thresholds   Thresholds `json:"thresholds" yaml:"thresholds"`
	Weights      Weights    `json:"weights" yaml:"weights"`
	UnsafeCutoff float64    `json:"unsafe_cutoff" yaml:"unsafe_cutoff"`
}

// Result pairs a reading with its computed score and label.
type Result struct {
	Reading Reading `json:"reading" yaml:"reading"`
	Score   float64 `json:"score" yaml:"score"`
	Label   Label   `json:"label" yaml:"label"`
}

// NewModel builds a Model and validates it eagerly: inverted band bounds,
// negative weights, or a cutoff outside [0,1] fail with a ConfigError here
// rather than surfacing as odd scores later.
func NewModel(t Thresholds, w Weights, unsafeCutoff float64) (*Model, error) {
	bands := []struct {
		name      string
		low, high float64
	}{
		{"ph", t.PHLow, t.PHHigh},
		{"do", t.DOLow, t.DOHigh},
		{"temp", t.TempLow, t.TempHigh},
	}
	for _, b := range bands {
		if b.low > b.high {
			return nil, &ConfigError{Reason: fmt.Sprintf("%s_low=%v greater than %s_high=%v", b.name, b.low, b.name, b.high)}
		}
	}

	for name, wv := range w.byFeature() {
		if wv < 0 {
			return nil, &ConfigError{Reason: fmt.Sprintf("weight %s=%v must be >= 0", name, wv)}
		}
	}

	if unsafeCutoff < 0 || unsafeCutoff > 1 {
		return nil, &ConfigError{Reason: fmt.Sprintf("unsafe_cutoff=%v outside [0, 1]", unsafeCutoff)}
	}

	return &Model{Thresholds: t, Weights: w, UnsafeCutoff: unsafeCutoff}, nil
}

// DefaultModel returns the generic starter configuration.
func DefaultModel() *Model {
	return &Model{
		Thresholds: Thresholds{
			PHLow:           6.5,
			PHHigh:          8.5,
			TurbidityMax:    10.0,
			ConductivityMax: 3000.0,
			ChlorophyllMax:  50.0,
			DOLow:           4.0,
			DOHigh:          12.0,
			SalinityMax:     40.0,
			TempLow:         10.0,
			TempHigh:        30.0,
		},
		Weights:      DefaultWeights(),
		UnsafeCutoff: 0.60,
	}
}

// DefaultWeights returns the reference weight set. It sums to 1.0, though
// nothing downstream depends on that.
func DefaultWeights() Weights {
	return Weights{
		PH:              0.10,
		Turbidity:       0.20,
		Conductivity:    0.10,
		Chlorophyll:     0.25,
		DissolvedOxygen: 0.20,
		Salinity:        0.10,
		Temperature:     0.05,
	}
}

// FeatureBadness validates the reading and computes a per-feature badness
// map with every value in [0,1]. Band features are 0 inside their bound
// interval and grow linearly with overshoot; ceiling features scale with
// value/max. A ceiling of <= 0 yields badness 0, never a division error.
func (m *Model) FeatureBadness(r Reading) (map[string]float64, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	t := m.Thresholds

	return map[string]float64{
		FeaturePH:              bandBadness(r.PH, t.PHLow, t.PHHigh, phBadnessDivisor),
		FeatureTurbidity:       ceilingBadness(r.Turbidity, t.TurbidityMax),
		FeatureConductivity:    ceilingBadness(r.Conductivity, t.ConductivityMax),
		FeatureChlorophyll:     ceilingBadness(r.Chlorophyll, t.ChlorophyllMax),
		FeatureDissolvedOxygen: bandBadness(r.DissolvedOxygen, t.DOLow, t.DOHigh, doBadnessDivisor),
		FeatureSalinity:        ceilingBadness(r.Salinity, t.SalinityMax),
		FeatureTemperature:     bandBadness(r.Temperature, t.TempLow, t.TempHigh, tempBadnessDivisor),
	}, nil
}

// RiskScore computes the weighted average of feature badness values,
// clamped to [0,1]. The clamp guards against pathological weight sets
// built without NewModel.
func (m *Model) RiskScore(r Reading) (float64, error) {
	badness, err := m.FeatureBadness(r)
	if err != nil {
		return 0, err
	}

	weights := m.Weights.byFeature()

	var total, sum float64
	for name, bad := range badness {
		w := weights[name]
		total += w
		sum += w * bad
	}

	if total <= 0 {
		return 0, &ConfigError{Reason: "weights must sum to a positive value"}
	}

	return clamp01(sum / total), nil
}

// Classify labels a reading Unsafe when its risk score reaches the cutoff.
func (m *Model) Classify(r Reading) (Label, error) {
	score, err := m.RiskScore(r)
	if err != nil {
		return "", err
	}
	return m.label(score), nil
}

// Evaluate scores a batch in input order. Readings that fail validation are
// silently skipped: a bad sensor row never aborts the batch. Configuration
// errors abort immediately since every subsequent score would fail the
// same way.
func (m *Model) Evaluate(readings []Reading) ([]Result, error) {
	results := make([]Result, 0, len(readings))

	for _, r := range readings {
		score, err := m.RiskScore(r)
		if err != nil {
			if IsValidation(err) {
				slog.Debug("skipping invalid reading", "id", r.ID, "error", err)
				continue
			}
			return nil, err
		}
		results = append(results, Result{Reading: r, Score: score, Label: m.label(score)})
	}

	return results, nil
}

func (m *Model) label(score float64) Label {
	if score >= m.UnsafeCutoff {
		return LabelUnsafe
	}
	return LabelSafe
}

func (m *Model) String() string {
	return fmt.Sprintf("Model(cutoff=%v)", m.UnsafeCutoff)
}

func bandBadness(val, low, high, divisor float64) float64 {
	if val >= low && val <= high {
		return 0
	}
	dist := val - high
	if val < low {
		dist = low - val
	}
	return clamp01(dist / divisor)
}

func ceilingBadness(val, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return clamp01(val / max)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
