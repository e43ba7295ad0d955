// Package report aggregates and serializes batch evaluation results.
package report

import (
	"encoding/csv"
	"io"
	"iter"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/hydroscan/wqctl/pkg/quality"
	"github.com/pkg/errors"
)

// WorstDefault is how many worst-scoring readings a summary carries.
const WorstDefault = 5

var csvHeader = []string{
	"sample_id",
	"timestamp",
	"ph",
	"turbidity",
	"conductivity",
	"dissolved_oxygen",
	"temperature",
	"salinity",
	"chlorophyll",
	"risk_score",
	"label",
}

// Summary aggregates a batch of evaluation results.
type Summary struct {
	Total  int              `json:"total" yaml:"total"`
	Safe   int              `json:"safe" yaml:"safe"`
	Unsafe int              `json:"unsafe" yaml:"unsafe"`
	Worst  []quality.Result `json:"worst,omitempty" yaml:"worst,omitempty"`
}

// Summarize counts labels and picks the WorstDefault highest-scoring results.
func Summarize(results []quality.Result) *Summary {
	s := &Summary{Total: len(results)}
	for _, r := range results {
		if r.Label == quality.LabelUnsafe {
			s.Unsafe++
		} else {
			s.Safe++
		}
	}
	s.Worst = TopN(results, WorstDefault)
	return s
}

// TopN returns the n highest-scoring results, ties broken by input order.
func TopN(results []quality.Result, n int) []quality.Result {
	sorted := make([]quality.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	if n < 0 {
		n = 0
	}
	return sorted[:n]
}

// Alerts yields the Unsafe results lazily, in input order.
func Alerts(results []quality.Result) iter.Seq[quality.Result] {
	return func(yield func(quality.Result) bool) {
		for _, r := range results {
			if r.Label != quality.LabelUnsafe {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// WriteCSV serializes results as flattened rows with score and label.
func WriteCSV(w io.Writer, results []quality.Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}

	for _, r := range results {
		ts := ""
		if r.Reading.Timestamp != nil {
			ts = r.Reading.Timestamp.Format(time.RFC3339)
		}
		row := []string{
			r.Reading.ID,
			ts,
			formatFloat(r.Reading.PH),
			formatFloat(r.Reading.Turbidity),
			formatFloat(r.Reading.Conductivity),
			formatFloat(r.Reading.DissolvedOxygen),
			formatFloat(r.Reading.Temperature),
			formatFloat(r.Reading.Salinity),
			formatFloat(r.Reading.Chlorophyll),
			formatFloat(r.Score),
			string(r.Label),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "failed to write result row for %s", r.Reading.ID)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush CSV results")
}

// SaveCSV writes results to a CSV file.
func SaveCSV(path string, results []quality.Result) (retErr error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create results file: %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = errors.Wrap(cerr, "closing results file")
		}
	}()

	return WriteCSV(f, results)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
