package cli

import (
	"log/slog"

	"github.com/hydroscan/wqctl/pkg/config"
	"github.com/hydroscan/wqctl/pkg/quality"
	urfave "github.com/urfave/cli/v2"
)

var (
	percentileFlag = &urfave.Float64Flag{
		Name:  "percentile",
		Usage: "Score percentile used as the Unsafe cutoff",
		Value: quality.UnsafePercentileDefault,
	}

	saveFlag = &urfave.StringFlag{
		Name:  "save",
		Usage: "Write the calibrated model config to this YAML file",
	}

	weightsFromFlag = &urfave.StringFlag{
		Name:  "weights-from",
		Usage: "Model config file whose weights override the default set",
	}

	calibrateCmd = &urfave.Command{
		Name:    "calibrate",
		Aliases: []string{"c"},
		Usage:   "Derive model thresholds and cutoff from a reference dataset",
		UsageText: `wqctl calibrate --file reference.csv                      # print calibrated model
   wqctl calibrate --file reference.csv --save model.yaml    # save for later evaluate runs
   wqctl calibrate --file reference.csv --percentile 95      # flag only the worst 5%`,
		Action: cmdCalibrate,
		Flags: []urfave.Flag{
			fileFlag,
			percentileFlag,
			saveFlag,
			weightsFromFlag,
			maxRowsFlag,
			noQualityFilterFlag,
		},
	}
)

func cmdCalibrate(c *urfave.Context) error {
	readings, err := loadSources(c)
	if err != nil {
		return err
	}

	var baseWeights *quality.Weights
	if path := c.String(weightsFromFlag.Name); path != "" {
		base, err := config.ReadModel(path)
		if err != nil {
			return err
		}
		baseWeights = &base.Weights
	}

	model, err := quality.Calibrate(readings, baseWeights, c.Float64(percentileFlag.Name))
	if err != nil {
		return err
	}

	slog.Info("model calibrated", "readings", len(readings), "cutoff", model.UnsafeCutoff)

	if out := c.String(saveFlag.Name); out != "" {
		if err := config.SaveModel(out, model); err != nil {
			return err
		}
		slog.Info("model config written", "path", out)
	}

	return encode(model)
}
