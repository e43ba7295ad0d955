// Package config reads and writes model configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hydroscan/wqctl/pkg/quality"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ModelFileName is the default model config file in the app home dir.
	ModelFileName = "model.yaml"

	fileMode = 0600
)

// Pointer fields so a key absent from the file is distinguishable from an
// explicit zero: a model with missing keys must fail loudly, never default.
type thresholdsFile struct {
	PHLow           *float64 `yaml:"ph_low"`
	PHHigh          *float64 `yaml:"ph_high"`
	TurbidityMax    *float64 `yaml:"turbidity_max"`
	ConductivityMax *float64 `yaml:"conductivity_max"`
	ChlorophyllMax  *float64 `yaml:"chlorophyll_max"`
	DOLow           *float64 `yaml:"do_low"`
	DOHigh          *float64 `yaml:"do_high"`
	SalinityMax     *float64 `yaml:"salinity_max"`
	TempLow         *float64 `yaml:"temp_low"`
	TempHigh        *float64 `yaml:"temp_high"`
}

type weightsFile struct {
	PH              *float64 `yaml:"ph"`
	Turbidity       *float64 `yaml:"turbidity"`
	Conductivity    *float64 `yaml:"conductivity"`
	Chlorophyll     *float64 `yaml:"chlorophyll"`
	DissolvedOxygen *float64 `yaml:"dissolved_oxygen"`
	Salinity        *float64 `yaml:"salinity"`
	Temperature     *float64 `yaml:"temperature"`
}

type modelFile struct {
	Thresholds   *thresholdsFile `yaml:"thresholds"`
	Weights      *weightsFile    `yaml:"weights"`
	UnsafeCutoff *float64        `yaml:"unsafe_cutoff"`
}

// ReadModel loads a model config from a YAML file. Unknown keys, missing
// keys, and semantically invalid values all fail with an error naming the
// offending keys.
func ReadModel(path string) (*quality.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening model config: %s", path)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var mf modelFile
	if err := dec.Decode(&mf); err != nil {
		return nil, &quality.ConfigError{Reason: fmt.Sprintf("malformed model config %s: %v", path, err)}
	}

	return buildModel(&mf)
}

// SaveModel writes a model config as YAML.
func SaveModel(path string, m *quality.Model) error {
	if m == nil {
		return errors.New("model required")
	}

	b, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to marshal model config")
	}

	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write model config: %s", path)
	}
	return nil
}

// ReadOrCreateModel reads the model config from dirPath, writing the
// default model there first if none exists.
func ReadOrCreateModel(dirPath string) (*quality.Model, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	path := filepath.Join(dirPath, ModelFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := SaveModel(path, quality.DefaultModel()); err != nil {
			return nil, errors.Wrap(err, "failed to create default model config")
		}
	}

	return ReadModel(path)
}

func buildModel(mf *modelFile) (*quality.Model, error) {
	if mf.Thresholds == nil {
		return nil, &quality.ConfigError{Reason: "missing thresholds section"}
	}
	if mf.Weights == nil {
		return nil, &quality.ConfigError{Reason: "missing weights section"}
	}
	if mf.UnsafeCutoff == nil {
		return nil, &quality.ConfigError{Reason: "missing unsafe_cutoff"}
	}

	tf := mf.Thresholds
	missing := missingKeys(map[string]*float64{
		"ph_low":           tf.PHLow,
		"ph_high":          tf.PHHigh,
		"turbidity_max":    tf.TurbidityMax,
		"conductivity_max": tf.ConductivityMax,
		"chlorophyll_max":  tf.ChlorophyllMax,
		"do_low":           tf.DOLow,
		"do_high":          tf.DOHigh,
		"salinity_max":     tf.SalinityMax,
		"temp_low":         tf.TempLow,
		"temp_high":        tf.TempHigh,
	})
	if len(missing) > 0 {
		return nil, &quality.ConfigError{Reason: "missing thresholds keys: " + strings.Join(missing, ", ")}
	}

	wf := mf.Weights
	missing = missingKeys(map[string]*float64{
		"ph":               wf.PH,
		"turbidity":        wf.Turbidity,
		"conductivity":     wf.Conductivity,
		"chlorophyll":      wf.Chlorophyll,
		"dissolved_oxygen": wf.DissolvedOxygen,
		"salinity":         wf.Salinity,
		"temperature":      wf.Temperature,
	})
	if len(missing) > 0 {
		return nil, &quality.ConfigError{Reason: "missing weights keys: " + strings.Join(missing, ", ")}
	}

	thresholds := quality.Thresholds{
		PHLow:           *tf.PHLow,
		PHHigh:          *tf.PHHigh,
		TurbidityMax:    *tf.TurbidityMax,
		ConductivityMax: *tf.ConductivityMax,
		ChlorophyllMax:  *tf.ChlorophyllMax,
		DOLow:           *tf.DOLow,
		DOHigh:          *tf.DOHigh,
		SalinityMax:     *tf.SalinityMax,
		TempLow:         *tf.TempLow,
		TempHigh:        *tf.TempHigh,
	}
	weights := quality.Weights{
		PH:              *wf.PH,
		Turbidity:       *wf.Turbidity,
		Conductivity:    *wf.Conductivity,
		Chlorophyll:     *wf.Chlorophyll,
		DissolvedOxygen: *wf.DissolvedOxygen,
		Salinity:        *wf.Salinity,
		Temperature:     *wf.Temperature,
	}

	return quality.NewModel(thresholds, weights, *mf.UnsafeCutoff)
}

func missingKeys(fields map[string]*float64) []string {
	missing := make([]string, 0)
	for name, v := range fields {
		if v == nil {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
