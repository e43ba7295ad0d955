package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hydroscan/wqctl/pkg/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndReadModelRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ModelFileName)

	want := quality.DefaultModel()
	require.NoError(t, SaveModel(path, want))

	got, err := ReadModel(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadOrCreateModel(t *testing.T) {
	dir := t.TempDir()

	m, err := ReadOrCreateModel(dir)
	require.NoError(t, err)
	assert.Equal(t, quality.DefaultModel(), m)
	assert.FileExists(t, filepath.Join(dir, ModelFileName))

	// Second read loads the existing file.
	m2, err := ReadOrCreateModel(dir)
	require.NoError(t, err)
	assert.Equal(t, m, m2)

	_, err = ReadOrCreateModel("")
	assert.Error(t, err)
}

func TestReadModelMissingKeys(t *testing.T) {
	tests := []struct {
		name    string
		drop    string
		wantMsg string
	}{
		{"missing threshold key", "turbidity_max", "missing thresholds keys: turbidity_max"},
		{"missing weight key", "chlorophyll:", "missing weights keys: chlorophyll"},
		{"missing cutoff", "unsafe_cutoff", "missing unsafe_cutoff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ModelFileName)
			require.NoError(t, SaveModel(path, quality.DefaultModel()))

			b, err := os.ReadFile(path)
			require.NoError(t, err)

			lines := strings.Split(string(b), "\n")
			kept := make([]string, 0, len(lines))
			for _, line := range lines {
				if strings.Contains(line, tt.drop) {
					continue
				}
				kept = append(kept, line)
			}
			require.NoError(t, os.WriteFile(path, []byte(strings.Join(kept, "\n")), 0600))

			_, err = ReadModel(path)
			require.Error(t, err)
			var ce *quality.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestReadModelUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ModelFileName)
	require.NoError(t, SaveModel(path, quality.DefaultModel()))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString("bogus_key: 1\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ReadModel(path)
	require.Error(t, err)
	var ce *quality.ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestReadModelInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ModelFileName)

	m := quality.DefaultModel()
	m.UnsafeCutoff = 0.6
	m.Weights.Turbidity = -1
	require.NoError(t, SaveModel(path, m))

	_, err := ReadModel(path)
	require.Error(t, err)
	var ce *quality.ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestReadModelNotFound(t *testing.T) {
	_, err := ReadModel(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
