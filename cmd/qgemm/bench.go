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
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/ajroetker/go-qgemm/internal/benchstore"
	"github.com/ajroetker/go-qgemm/logger"
	"github.com/ajroetker/go-qgemm/qgemm"
	"github.com/ajroetker/go-qgemm/qgemm/contrib/workerpool"
	"github.com/ajroetker/go-qgemm/qgemm/dispatch"
)

type benchOptions struct {
	workloadOptions
	iterations int64
	warmup     int64
	strategy   string
	storePath  string
}

func (o *benchOptions) apply(cmd *cli.Command, cfg Config) {
	o.workloadOptions.apply(cmd, cfg)
	if cfg.Iterations != nil && !cmd.IsSet("iterations") {
		o.iterations = *cfg.Iterations
	}
	if cfg.Warmup != nil && !cmd.IsSet("warmup") {
		o.warmup = *cfg.Warmup
	}
	if cfg.Strategy != "" && !cmd.IsSet("strategy") {
		o.strategy = cfg.Strategy
	}
	if cfg.StorePath != "" && !cmd.IsSet("store") {
		o.storePath = cfg.StorePath
	}
}

func benchCmd() *cli.Command {
	var opts benchOptions
	flags := opts.flags([]string{"256x256x256"})
	flags = append(flags,
		&cli.Int64Flag{
			Name:        "iterations",
			Aliases:     []string{"n"},
			Usage:       "timed runs per measurement",
			Value:       10,
			Destination: &opts.iterations,
		},
		&cli.Int64Flag{
			Name:        "warmup",
			Usage:       "untimed runs before each measurement",
			Value:       2,
			Destination: &opts.warmup,
		},
		&cli.StringFlag{
			Name:        "strategy",
			Usage:       "strategy to time: empty for the selected one, \"all\" for every candidate, or a name",
			Destination: &opts.strategy,
		},
		&cli.StringFlag{
			Name:        "store",
			Usage:       "BadgerDB directory to record results in",
			Destination: &opts.storePath,
		},
		jsonFlag(),
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Time GEMM strategies and optionally record the results",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			opts.apply(cmd, configFromContext(ctx))
			if opts.iterations < 1 {
				return cli.Exit("error: --iterations must be at least 1", 1)
			}

			shapes, err := parseShapes(opts.shapes)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			combos, err := parseCombos(opts.combos)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			var store *benchstore.Store
			if opts.storePath != "" {
				store, err = benchstore.Open(opts.storePath, log)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				defer func() { _ = store.Close() }()
			}

			exec, release := newPool(opts.workers)
			defer release()

			caps := dispatch.Detect()
			rng := rand.New(rand.NewSource(opts.seed))
			var records []benchstore.Record
			for _, name := range combos {
				for _, s := range shapes {
					w := workloads[name](rng, s)
					strategies, err := benchStrategies(caps, opts.strategy, w.Combo())
					if err != nil {
						return cli.Exit(fmt.Sprintf("error: %s %s: %v", name, s, err), 1)
					}
					for _, st := range strategies {
						rec, err := benchOne(ctx, caps, exec, w, st, opts)
						if err != nil {
							return cli.Exit(fmt.Sprintf("error: %s %s %s: %v", name, s, st, err), 1)
						}
						if store != nil {
							if rec, err = store.Put(rec); err != nil {
								return cli.Exit(fmt.Sprintf("error: %v", err), 1)
							}
						}
						records = append(records, rec)
					}
				}
			}
			return writeBenchReport(cmd, records)
		},
	}
}

// benchStrategies resolves the --strategy value for one combo.
func benchStrategies(caps dispatch.Capabilities, choice string, combo qgemm.Combo) ([]string, error) {
	sel := qgemm.NewSelector(caps)
	switch choice {
	case "":
		s, err := sel.Select(combo)
		if err != nil {
			return nil, err
		}
		return []string{s.Name}, nil
	case "all":
		var names []string
		for _, s := range sel.Candidates(combo) {
			names = append(names, s.Name)
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("no strategy supports %s", combo)
		}
		return names, nil
	default:
		s, err := sel.Force(choice, combo)
		if err != nil {
			return nil, err
		}
		return []string{s.Name}, nil
	}
}

func benchOne(ctx context.Context, caps dispatch.Capabilities, exec workerpool.Executor, w workload, strategy string, opts benchOptions) (benchstore.Record, error) {
	log := logger.FromContext(ctx)
	e := qgemm.NewEngine(qgemm.WithCapabilities(caps), qgemm.WithStrategy(strategy), qgemm.WithLogger(log))

	for range opts.warmup {
		if err := w.Run(e, exec); err != nil {
			return benchstore.Record{}, err
		}
	}
	start := time.Now()
	for range opts.iterations {
		if err := w.Run(e, exec); err != nil {
			return benchstore.Record{}, err
		}
	}
	elapsed := time.Since(start)

	s := w.Shape()
	nsPerOp := elapsed.Nanoseconds() / opts.iterations
	var gops float64
	if nsPerOp > 0 {
		gops = s.ops() / float64(nsPerOp)
	}
	log.Debug("benchmark done", "strategy", strategy, "combo", w.Combo().String(), "shape", s.String(), "ns_per_op", nsPerOp)

	return benchstore.Record{
		Time:         start,
		Strategy:     strategy,
		Combo:        w.Combo().String(),
		M:            s.M,
		N:            s.N,
		K:            s.K,
		Workers:      workerpool.Parallelism(exec),
		Iterations:   int(opts.iterations),
		NsPerOp:      nsPerOp,
		GOPS:         gops,
		Checksum:     w.Checksum(),
		Capabilities: caps.String(),
	}, nil
}

func writeBenchReport(cmd *cli.Command, records []benchstore.Record) error {
	w := cmd.Root().Writer
	if cmd.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	fmt.Fprintf(w, "%-14s %-14s %-12s %8s %16s %14s\n", "COMBO", "SHAPE", "STRATEGY", "WORKERS", "NS/OP", "THROUGHPUT")
	for _, r := range records {
		fmt.Fprintf(w, "%-14s %-14s %-12s %8d %16s %14s\n",
			r.Combo, r.Shape(), r.Strategy, r.Workers,
			humanize.Comma(r.NsPerOp),
			humanize.SIWithDigits(r.GOPS*1e9, 2, "OP/s"),
		)
	}
	return nil
}
