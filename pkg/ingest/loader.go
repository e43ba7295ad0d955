// Package ingest maps raw tabular sensor exports into validated readings.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hydroscan/wqctl/pkg/quality"
	"github.com/pkg/errors"
)

// Canonical column names the loader resolves raw headers against.
const (
	colID              = "sample_id"
	colTimestamp       = "timestamp"
	colPH              = "ph"
	colTurbidity       = "turbidity"
	colConductivity    = "conductivity"
	colDissolvedOxygen = "dissolved_oxygen"
	colTemperature     = "temperature"
	colSalinity        = "salinity"
	colChlorophyll     = "chlorophyll"

	qualityColSuffix = "[quality]"
)

var requiredColumns = []string{
	colID,
	colPH,
	colTurbidity,
	colConductivity,
	colDissolvedOxygen,
	colTemperature,
	colSalinity,
	colChlorophyll,
}

// timestampLayouts are tried in order; unparseable timestamps are dropped,
// never treated as errors.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
	time.RFC3339,
}

// qualityOKCodes are the sensor quality-flag values accepted as good.
var qualityOKCodes = map[string]bool{
	"0":    true,
	"1":    true,
	"good": true,
	"ok":   true,
	"true": true,
}

// Loader reads a water-quality CSV export and builds readings from it.
// The zero value is not usable; construct with NewLoader.
type Loader struct {
	// ColumnMap maps canonical column names to the raw CSV headers.
	ColumnMap map[string]string

	// UseQualityFilter drops rows flagged bad by any "*[quality]" column.
	UseQualityFilter bool

	// MaxRows caps the number of readings built; 0 means unlimited.
	MaxRows int
}

// NewLoader returns a loader with the default column map and the quality
// filter enabled.
func NewLoader() *Loader {
	return &Loader{
		ColumnMap:        DefaultColumnMap(),
		UseQualityFilter: true,
	}
}

// DefaultColumnMap matches the Brisbane water quality dataset headers.
func DefaultColumnMap() map[string]string {
	return map[string]string{
		colTimestamp:       "Timestamp",
		colID:              "Record number",
		colPH:              "pH",
		colTurbidity:       "Turbidity",
		colConductivity:    "Specific Conductance",
		colDissolvedOxygen: "Dissolved Oxygen",
		colTemperature:     "Temperature",
		colSalinity:        "Salinity",
		colChlorophyll:     "Chlorophyll",
	}
}

// LoadFile reads readings from a CSV file on disk.
func (l *Loader) LoadFile(path string) ([]quality.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset: %s", path)
	}
	defer f.Close()

	readings, err := l.Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load dataset: %s", path)
	}
	return readings, nil
}

// Read parses CSV content into readings. The first row must be a header.
// Missing required columns or non-numeric feature values fail the whole
// load: a malformed export should be fixed, not partially ingested.
func (l *Loader) Read(r io.Reader) ([]quality.Reading, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}

	cols, err := l.resolveColumns(header)
	if err != nil {
		return nil, err
	}

	qualityCols := make([]int, 0)
	if l.UseQualityFilter {
		for i, h := range header {
			if strings.HasSuffix(h, qualityColSuffix) {
				qualityCols = append(qualityCols, i)
			}
		}
	}

	readings := make([]quality.Reading, 0)
	row := 1

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read CSV row %d", row)
		}
		row++

		if !rowQualityOK(record, qualityCols) {
			continue
		}

		reading, err := l.buildReading(record, cols, row)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *reading)

		if l.MaxRows > 0 && len(readings) >= l.MaxRows {
			break
		}
	}

	return readings, nil
}

// columns holds resolved CSV field indexes, -1 when absent.
type columns struct {
	id, timestamp                                        int
	ph, turbidity, conductivity, do, temp, salinity, chl int
}

func (l *Loader) resolveColumns(header []string) (*columns, error) {
	mapping := l.ColumnMap
	if mapping == nil {
		mapping = DefaultColumnMap()
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	find := func(canonical string) int {
		raw, ok := mapping[canonical]
		if !ok {
			return -1
		}
		i, ok := index[raw]
		if !ok {
			return -1
		}
		return i
	}

	c := &columns{
		id:           find(colID),
		timestamp:    find(colTimestamp),
		ph:           find(colPH),
		turbidity:    find(colTurbidity),
		conductivity: find(colConductivity),
		do:           find(colDissolvedOxygen),
		temp:         find(colTemperature),
		salinity:     find(colSalinity),
		chl:          find(colChlorophyll),
	}

	missing := make([]string, 0)
	for canonical, idx := range map[string]int{
		colID:              c.id,
		colPH:              c.ph,
		colTurbidity:       c.turbidity,
		colConductivity:    c.conductivity,
		colDissolvedOxygen: c.do,
		colTemperature:     c.temp,
		colSalinity:        c.salinity,
		colChlorophyll:     c.chl,
	} {
		if idx < 0 {
			missing = append(missing, canonical)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &quality.ValidationError{
			Reason: fmt.Sprintf("missing required columns: %s (fix by adjusting the column map)", strings.Join(missing, ", ")),
		}
	}

	return c, nil
}

func (l *Loader) buildReading(record []string, c *columns, row int) (*quality.Reading, error) {
	num := func(idx int, name string) (float64, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &quality.ValidationError{
				Reason: fmt.Sprintf("row %d has non-numeric %s: %q", row, name, record[idx]),
			}
		}
		return v, nil
	}

	reading := &quality.Reading{ID: strings.TrimSpace(record[c.id])}

	if c.timestamp >= 0 {
		reading.Timestamp = ParseTimestamp(record[c.timestamp])
	}

	fields := []struct {
		idx  int
		name string
		dst  *float64
	}{
		{c.ph, colPH, &reading.PH},
		{c.turbidity, colTurbidity, &reading.Turbidity},
		{c.conductivity, colConductivity, &reading.Conductivity},
		{c.do, colDissolvedOxygen, &reading.DissolvedOxygen},
		{c.temp, colTemperature, &reading.Temperature},
		{c.salinity, colSalinity, &reading.Salinity},
		{c.chl, colChlorophyll, &reading.Chlorophyll},
	}
	for _, f := range fields {
		v, err := num(f.idx, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	return reading, nil
}

func rowQualityOK(record []string, qualityCols []int) bool {
	for _, idx := range qualityCols {
		if idx >= len(record) {
			continue
		}
		s := strings.ToLower(strings.TrimSpace(record[idx]))
		if s == "" || s == "na" || s == "nan" {
			continue
		}
		if !qualityOKCodes[s] {
			return false
		}
	}
	return true
}

// ParseTimestamp parses timestamps from common sensor export formats.
// Returns nil for empty, NA, or unrecognized values.
func ParseTimestamp(value string) *time.Time {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil
	}
	switch strings.ToLower(s) {
	case "na", "nan", "none":
		return nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
