package cli

import (
	"sort"

	"github.com/hydroscan/wqctl/pkg/quality"
	"github.com/hydroscan/wqctl/pkg/report"
	urfave "github.com/urfave/cli/v2"
)

var (
	limitFlag = &urfave.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of alerts to print (0 = all)",
	}

	alertsCmd = &urfave.Command{
		Name:    "alerts",
		Aliases: []string{"a"},
		Usage:   "List the Unsafe readings in a dataset, worst first",
		UsageText: `wqctl alerts --file readings.csv
   wqctl --model m.yaml alerts --file readings.csv --limit 10`,
		Action: cmdAlerts,
		Flags: []urfave.Flag{
			fileFlag,
			limitFlag,
			maxRowsFlag,
			noQualityFilterFlag,
		},
	}
)

// Alert is a single Unsafe reading in the alerts command output.
type Alert struct {
	Reading quality.Reading `json:"reading" yaml:"reading"`
	Score   float64         `json:"score" yaml:"score"`
}

// AlertList is the alerts command output.
type AlertList struct {
	Total  int     `json:"total" yaml:"total"`
	Unsafe int     `json:"unsafe" yaml:"unsafe"`
	Alerts []Alert `json:"alerts" yaml:"alerts"`
}

func cmdAlerts(c *urfave.Context) error {
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

	alerts := make([]Alert, 0)
	for r := range report.Alerts(results) {
		alerts = append(alerts, Alert{Reading: r.Reading, Score: r.Score})
	}

	out := &AlertList{
		Total:  len(results),
		Unsafe: len(alerts),
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Score > alerts[j].Score
	})
	if limit := c.Int(limitFlag.Name); limit > 0 && limit < len(alerts) {
		alerts = alerts[:limit]
	}
	out.Alerts = alerts

	return encode(out)
}
