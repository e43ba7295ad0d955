package quality

import (
	"fmt"
	"time"
)

// Reading is a single water-quality sensor snapshot. Readings are value
// objects: built once by the ingestion layer and never mutated.
type Reading struct {
	ID        string     `json:"id" yaml:"id"`
	Timestamp *time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`

	PH              float64 `json:"ph" yaml:"ph"`
	Turbidity       float64 `json:"turbidity" yaml:"turbidity"`
	Conductivity    float64 `json:"conductivity" yaml:"conductivity"`
	DissolvedOxygen float64 `json:"dissolved_oxygen" yaml:"dissolvedOxygen"`
	Temperature     float64 `json:"temperature" yaml:"temperature"`
	Salinity        float64 `json:"salinity" yaml:"salinity"`
	Chlorophyll     float64 `json:"chlorophyll" yaml:"chlorophyll"`
}

// Validate checks the reading against physical sensor ranges. Callers must
// validate before scoring: the badness functions assume in-domain values.
func (r Reading) Validate() error {
	if r.ID == "" {
		return &ValidationError{Reason: "id must be a non-empty string"}
	}

	if r.PH < 0 || r.PH > 14 {
		return &ValidationError{Reason: fmt.Sprintf("ph=%v outside [0, 14]", r.PH)}
	}

	nonNegative := []struct {
		name string
		val  float64
	}{
		{"turbidity", r.Turbidity},
		{"conductivity", r.Conductivity},
		{"dissolved_oxygen", r.DissolvedOxygen},
		{"salinity", r.Salinity},
		{"chlorophyll", r.Chlorophyll},
	}
	for _, f := range nonNegative {
		if f.val < 0 {
			return &ValidationError{Reason: fmt.Sprintf("%s=%v must be >= 0", f.name, f.val)}
		}
	}

	if r.Temperature < -5 || r.Temperature > 45 {
		return &ValidationError{Reason: fmt.Sprintf("temperature=%v outside [-5, 45]", r.Temperature)}
	}

	return nil
}

// Less orders readings by (timestamp, id) when both carry timestamps,
// falling back to id comparison otherwise. Used for stable display sorting.
func (r Reading) Less(other Reading) bool {
	if r.Timestamp != nil && other.Timestamp != nil {
		if !r.Timestamp.Equal(*other.Timestamp) {
			return r.Timestamp.Before(*other.Timestamp)
		}
		return r.ID < other.ID
	}
	return r.ID < other.ID
}

func (r Reading) String() string {
	ts := "NA"
	if r.Timestamp != nil {
		ts = r.Timestamp.Format(time.RFC3339)
	}
	return fmt.Sprintf("Reading(id=%s, ts=%s, ph=%.2f, turb=%.2f, cond=%.2f, do=%.2f, temp=%.2f, sal=%.2f, chl=%.2f)",
		r.ID, ts, r.PH, r.Turbidity, r.Conductivity, r.DissolvedOxygen, r.Temperature, r.Salinity, r.Chlorophyll)
}
