package cli

import (
	"log/slog"
	"os"

	"github.com/hydroscan/wqctl/pkg/ingest"
	"github.com/hydroscan/wqctl/pkg/net"
	"github.com/hydroscan/wqctl/pkg/quality"
	"github.com/pkg/errors"
	urfave "github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var (
	fileFlag = &urfave.StringSliceFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Path or URL of a readings CSV (can be specified multiple times)",
		Required: true,
	}

	maxRowsFlag = &urfave.IntFlag{
		Name:  "max-rows",
		Usage: "Cap the number of rows ingested per source (0 = unlimited)",
	}

	noQualityFilterFlag = &urfave.BoolFlag{
		Name:  "no-quality-filter",
		Usage: "Keep rows flagged bad by *[quality] columns",
	}
)

// loadSources ingests every --file source, fetching remote ones first.
// Sources load concurrently but readings keep source order.
func loadSources(c *urfave.Context) ([]quality.Reading, error) {
	sources := c.StringSlice(fileFlag.Name)

	loader := ingest.NewLoader()
	loader.MaxRows = c.Int(maxRowsFlag.Name)
	loader.UseQualityFilter = !c.Bool(noQualityFilterFlag.Name)

	batches := make([][]quality.Reading, len(sources))

	g := new(errgroup.Group)
	for i, src := range sources {
		g.Go(func() error {
			readings, err := loadSource(loader, src)
			if err != nil {
				return err
			}
			batches[i] = readings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, b := range batches {
		total += len(b)
	}

	readings := make([]quality.Reading, 0, total)
	for _, b := range batches {
		readings = append(readings, b...)
	}

	slog.Debug("ingested readings", "sources", len(sources), "readings", total)
	return readings, nil
}

func loadSource(loader *ingest.Loader, src string) ([]quality.Reading, error) {
	path := src

	if net.IsURL(src) {
		tmp, err := os.CreateTemp("", "wqctl-*.csv")
		if err != nil {
			return nil, errors.Wrap(err, "failed to create temp file for download")
		}
		tmp.Close()
		defer os.Remove(tmp.Name())

		slog.Info("downloading dataset", "url", src)
		if err := net.Download(src, tmp.Name()); err != nil {
			return nil, err
		}
		path = tmp.Name()
	}

	return loader.LoadFile(path)
}
