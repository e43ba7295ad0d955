// Package cli implements the wqctl command line application.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hydroscan/wqctl/pkg/config"
	"github.com/hydroscan/wqctl/pkg/logging"
	"github.com/hydroscan/wqctl/pkg/quality"
	"github.com/pkg/errors"
	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	name    = "wqctl"
	dirMode = 0700

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	outputFormat = formatJSON

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	modelPathFlag = &urfave.StringFlag{
		Name:  "model",
		Usage: fmt.Sprintf("Path to the model config file (optional, defaults to $HOME/.%s/%s)", name, config.ModelFileName),
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	app := newApp()
	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newApp() *urfave.App {
	return &urfave.App{
		Name:                 name,
		Version:              fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:             time.Now(),
		EnableBashCompletion: true,
		HideHelpCommand:      true,
		Usage:                "Score and classify water quality sensor readings",
		Flags: []urfave.Flag{
			debugFlag,
			modelPathFlag,
			formatFlag,
		},
		Commands: []*urfave.Command{
			evaluateCmd,
			calibrateCmd,
			alertsCmd,
		},
		Before: func(c *urfave.Context) error {
			if c.Bool(debugFlag.Name) {
				logging.SetDefaultCLILogger("debug")
			}

			f := c.String(formatFlag.Name)
			if f == formatYAML || f == "yml" {
				outputFormat = formatYAML
			}
			return nil
		},
	}
}

// loadModel resolves the scoring model for a command: an explicit --model
// path when given, otherwise the (created-on-first-use) default config in
// the app home dir.
func loadModel(c *urfave.Context) (*quality.Model, error) {
	if path := c.String(modelPathFlag.Name); path != "" {
		m, err := config.ReadModel(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load model from %s", path)
		}
		return m, nil
	}

	m, err := config.ReadOrCreateModel(getHomeDir())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load default model config")
	}
	return m, nil
}

func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}

	dirPath := filepath.Join(home, "."+name)
	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dirPath)
		if err := os.Mkdir(dirPath, dirMode); err != nil {
			slog.Debug("error creating dir, using home", "path", dirPath, "error", err)
			return home
		}
	}
	return dirPath
}

func encode(v any) error {
	if outputFormat == formatYAML {
		return yaml.NewEncoder(os.Stdout).Encode(v)
	}
	e := json.NewEncoder(os.Stdout)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
