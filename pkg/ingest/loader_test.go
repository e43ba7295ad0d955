package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hydroscan/wqctl/pkg/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brisbaneCSV = `Timestamp,Record number,pH,Turbidity,Specific Conductance,Dissolved Oxygen,Temperature,Salinity,Chlorophyll
2025-01-01 06:00:00,1,7.2,1.5,500,7.0,24.5,5.0,4.0
2025-01-01 07:00:00,2,7.4,2.0,520,7.2,24.8,5.1,4.2
NA,3,7.1,1.8,510,6.9,24.2,5.0,4.1
`

func TestReadDefaultColumnMap(t *testing.T) {
	l := NewLoader()

	readings, err := l.Read(strings.NewReader(brisbaneCSV))
	require.NoError(t, err)
	require.Len(t, readings, 3)

	assert.Equal(t, "1", readings[0].ID)
	assert.Equal(t, 7.2, readings[0].PH)
	assert.Equal(t, 500.0, readings[0].Conductivity)
	require.NotNil(t, readings[0].Timestamp)
	assert.Equal(t, time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC), *readings[0].Timestamp)

	// NA timestamps produce readings without one.
	assert.Nil(t, readings[2].Timestamp)

	for _, r := range readings {
		assert.NoError(t, r.Validate())
	}
}

func TestReadCustomColumnMap(t *testing.T) {
	csv := "id,acidity,turb,cond,do,temp,sal,chl\nr1,7.0,1.0,400,6.5,22.0,4.0,3.0\n"

	l := NewLoader()
	l.ColumnMap = map[string]string{
		"sample_id":        "id",
		"ph":               "acidity",
		"turbidity":        "turb",
		"conductivity":     "cond",
		"dissolved_oxygen": "do",
		"temperature":      "temp",
		"salinity":         "sal",
		"chlorophyll":      "chl",
	}

	readings, err := l.Read(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, "r1", readings[0].ID)
	assert.Nil(t, readings[0].Timestamp)
}

func TestReadMissingColumns(t *testing.T) {
	csv := "Timestamp,Record number,pH\n2025-01-01,1,7.0\n"

	_, err := NewLoader().Read(strings.NewReader(csv))
	require.Error(t, err)
	assert.True(t, quality.IsValidation(err))
	assert.Contains(t, err.Error(), "turbidity")
	assert.Contains(t, err.Error(), "salinity")
}

func TestReadNonNumericValue(t *testing.T) {
	csv := strings.Replace(brisbaneCSV, "7.4", "n/a", 1)

	_, err := NewLoader().Read(strings.NewReader(csv))
	require.Error(t, err)
	assert.True(t, quality.IsValidation(err))
	assert.Contains(t, err.Error(), "row 3")
	assert.Contains(t, err.Error(), "ph")
}

func TestReadQualityFilter(t *testing.T) {
	csv := `Timestamp,Record number,pH,pH[quality],Turbidity,Specific Conductance,Dissolved Oxygen,Temperature,Salinity,Chlorophyll
2025-01-01,1,7.2,ok,1.5,500,7.0,24.5,5.0,4.0
2025-01-02,2,7.4,bad,2.0,520,7.2,24.8,5.1,4.2
2025-01-03,3,7.1,,1.8,510,6.9,24.2,5.0,4.1
`

	readings, err := NewLoader().Read(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, "1", readings[0].ID)
	assert.Equal(t, "3", readings[1].ID)

	// Filter disabled keeps the flagged row.
	l := NewLoader()
	l.UseQualityFilter = false
	readings, err = l.Read(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, readings, 3)
}

func TestReadMaxRows(t *testing.T) {
	l := NewLoader()
	l.MaxRows = 2

	readings, err := l.Read(strings.NewReader(brisbaneCSV))
	require.NoError(t, err)
	assert.Len(t, readings, 2)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.csv")
	require.NoError(t, os.WriteFile(path, []byte(brisbaneCSV), 0600))

	readings, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, readings, 3)

	_, err = NewLoader().LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		value    string
		expected *time.Time
	}{
		{"", nil},
		{"NA", nil},
		{"nan", nil},
		{"none", nil},
		{"not a date", nil},
		{"2025-01-02 15:04:05", timePtr(time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC))},
		{"2025-01-02", timePtr(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))},
		{"02/03/2025", timePtr(time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))},
		{"02/03/2025 10:00:00", timePtr(time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC))},
		{"2025-01-02T15:04:05Z", timePtr(time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got := ParseTimestamp(tt.value)
			if tt.expected == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.True(t, tt.expected.Equal(*got))
			}
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
