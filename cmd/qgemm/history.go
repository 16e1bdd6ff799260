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

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/ajroetker/go-qgemm/internal/benchstore"
	"github.com/ajroetker/go-qgemm/logger"
)

func historyCmd() *cli.Command {
	var (
		storePath string
		filter    benchstore.Filter
		limit     int64
		summary   bool
	)
	return &cli.Command{
		Name:  "history",
		Usage: "List benchmark results recorded with bench --store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "store",
				Usage:       "BadgerDB directory written by bench",
				Destination: &storePath,
			},
			&cli.StringFlag{
				Name:        "strategy",
				Usage:       "only show this strategy",
				Destination: &filter.Strategy,
			},
			&cli.StringFlag{
				Name:        "combo",
				Usage:       "only show this operand combination",
				Destination: &filter.Combo,
			},
			&cli.Int64Flag{
				Name:        "limit",
				Usage:       "show at most this many of the most recent records (0 = all)",
				Value:       20,
				Destination: &limit,
			},
			&cli.BoolFlag{
				Name:        "summary",
				Usage:       "group records by strategy, combo and shape",
				Destination: &summary,
			},
			jsonFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := configFromContext(ctx)
			if storePath == "" {
				storePath = cfg.StorePath
			}
			if storePath == "" {
				return cli.Exit("error: no store configured (use --store or store_path in the config file)", 1)
			}

			store, err := benchstore.Open(storePath, logger.FromContext(ctx))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = store.Close() }()

			if !summary {
				filter.Limit = int(limit)
			}
			records, err := store.List(filter)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			w := cmd.Root().Writer
			if summary {
				groups := benchstore.Summarize(records)
				if cmd.Bool("json") {
					return json.NewEncoder(w).Encode(groups)
				}
				fmt.Fprintf(w, "%-12s %-14s %-14s %6s %14s  %s\n", "STRATEGY", "COMBO", "SHAPE", "RUNS", "BEST", "LAST RUN")
				for _, g := range groups {
					fmt.Fprintf(w, "%-12s %-14s %-14s %6d %14s  %s\n",
						g.Strategy, g.Combo, g.Shape, g.Runs,
						humanize.SIWithDigits(g.BestGOPS*1e9, 2, "OP/s"),
						humanize.Time(g.Last),
					)
				}
				return nil
			}

			if cmd.Bool("json") {
				return json.NewEncoder(w).Encode(records)
			}
			if len(records) == 0 {
				fmt.Fprintln(w, "no records")
				return nil
			}
			fmt.Fprintf(w, "%-20s %-12s %-14s %-14s %14s  %s\n", "WHEN", "STRATEGY", "COMBO", "SHAPE", "THROUGHPUT", "ID")
			for _, r := range records {
				fmt.Fprintf(w, "%-20s %-12s %-14s %-14s %14s  %s\n",
					humanize.Time(r.Time), r.Strategy, r.Combo, r.Shape(),
					humanize.SIWithDigits(r.GOPS*1e9, 2, "OP/s"), r.ID,
				)
			}
			return nil
		},
	}
}
