package cli

import (
	"log/slog"
	"time"

	"github.com/hydroscan/wqctl/pkg/report"
	urfave "github.com/urfave/cli/v2"
)

var (
	outFlag = &urfave.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "Write evaluated results to a CSV file",
	}

	topFlag = &urfave.IntFlag{
		Name:  "top",
		Usage: "Number of worst readings to include in the summary",
		Value: report.WorstDefault,
	}

	evaluateCmd = &urfave.Command{
		Name:    "evaluate",
		Aliases: []string{"e"},
		Usage:   "Score readings and classify them Safe/Unsafe",
		UsageText: `wqctl evaluate --file readings.csv                    # summarize with the default model
   wqctl evaluate --file readings.csv --out results.csv  # also write per-reading results
   wqctl --model m.yaml evaluate -f a.csv -f b.csv       # custom model, multiple sources`,
		Action: cmdEvaluate,
		Flags: []urfave.Flag{
			fileFlag,
			outFlag,
			topFlag,
			maxRowsFlag,
			noQualityFilterFlag,
		},
	}
)

// EvaluateResult is the evaluate command output.
type EvaluateResult struct {
	Sources  []string        `json:"sources" yaml:"sources"`
	Skipped  int             `json:"skipped" yaml:"skipped"`
	Output   string          `json:"output,omitempty" yaml:"output,omitempty"`
	Duration string          `json:"duration" yaml:"duration"`
	Summary  *report.Summary `json:"summary" yaml:"summary"`
}

func cmdEvaluate(c *urfave.Context) error {
	start := time.Now()

	model, err := loadModel(c)
	if err != nil {
		return err
	}

	readings, err := loadSources(c)
	if err != nil {
		return err
	}

	results, err := model.Evaluate(readings)
	if err != nil {
		return err
	}

	skipped := len(readings) - len(results)
	if skipped > 0 {
		slog.Warn("skipped invalid readings", "count", skipped)
	}

	res := &EvaluateResult{
		Sources: c.StringSlice(fileFlag.Name),
		Skipped: skipped,
		Summary: report.Summarize(results),
	}
	if n := c.Int(topFlag.Name); n != report.WorstDefault {
		res.Summary.Worst = report.TopN(results, n)
	}

	if out := c.String(outFlag.Name); out != "" {
		if err := report.SaveCSV(out, results); err != nil {
			return err
		}
		res.Output = out
		slog.Info("results written", "path", out, "rows", len(results))
	}

	res.Duration = time.Since(start).String()
	return encode(res)
}
