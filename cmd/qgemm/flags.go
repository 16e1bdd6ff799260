// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ajroetker/go-qgemm/logger"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (text, json)",
			Value:       "text",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "write machine-readable JSON instead of text",
	}
}

// workloadOptions are the flags shared by verify and bench.
type workloadOptions struct {
	shapes  []string
	combos  []string
	workers int64
	seed    int64
}

func (o *workloadOptions) flags(defaultShapes []string) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "shape",
			Aliases:     []string{"s"},
			Usage:       "problem size MxNxK (or a single number for a cube); repeatable",
			Value:       defaultShapes,
			Destination: &o.shapes,
		},
		&cli.StringSliceFlag{
			Name:        "combo",
			Usage:       "operand combination such as u8xs8->i32; repeatable",
			Value:       defaultCombos,
			Destination: &o.combos,
		},
		&cli.Int64Flag{
			Name:        "workers",
			Aliases:     []string{"w"},
			Usage:       "worker pool size (0 = GOMAXPROCS, 1 = sequential)",
			Destination: &o.workers,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "random seed for generated operands",
			Value:       1,
			Destination: &o.seed,
		},
	}
}

// apply fills options the user did not set on the command line from cfg.
func (o *workloadOptions) apply(cmd *cli.Command, cfg Config) {
	if len(cfg.Shapes) > 0 && !cmd.IsSet("shape") {
		o.shapes = cfg.Shapes
	}
	if len(cfg.Combos) > 0 && !cmd.IsSet("combo") {
		o.combos = cfg.Combos
	}
	if cfg.Workers != nil && !cmd.IsSet("workers") {
		o.workers = *cfg.Workers
	}
	if cfg.Seed != nil && !cmd.IsSet("seed") {
		o.seed = *cfg.Seed
	}
}

// setup loads the config file and installs the logger and config into the
// command context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := configFile
	if path == "" {
		path = configPath()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	if cfg.LogLevel != "" && !cmd.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !cmd.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if debug {
		logLevel = "debug"
	}

	log := logger.ForFormat(logFormat, cmd.Root().ErrWriter, logger.ParseLevel(logLevel))
	ctx = logger.WithContext(ctx, log)
	ctx = withConfig(ctx, cfg)
	log.Debug("configuration loaded", "path", path, "log_level", logLevel)
	return ctx, nil
}
