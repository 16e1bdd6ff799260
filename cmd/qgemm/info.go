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
	"runtime"
	"strings"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"

	"github.com/ajroetker/go-qgemm/qgemm"
	"github.com/ajroetker/go-qgemm/qgemm/dispatch"
)

type comboInfo struct {
	Combo      string   `json:"combo"`
	MaxK       int      `json:"max_k"`
	Selected   string   `json:"selected"`
	Candidates []string `json:"candidates"`
}

type infoReport struct {
	Arch         string      `json:"arch"`
	NumCPU       int         `json:"num_cpu"`
	GOMAXPROCS   int         `json:"gomaxprocs"`
	Level        string      `json:"level"`
	Width        int         `json:"width"`
	Features     []string    `json:"features"`
	NoSimd       bool        `json:"no_simd"`
	Capabilities string      `json:"capabilities"`
	Combos       []comboInfo `json:"combos"`
}

func buildInfo(caps dispatch.Capabilities) infoReport {
	sel := qgemm.NewSelector(caps)
	report := infoReport{
		Arch:         caps.Arch,
		NumCPU:       runtime.NumCPU(),
		GOMAXPROCS:   runtime.GOMAXPROCS(0),
		Level:        caps.Level.String(),
		Width:        caps.Width,
		Features:     caps.Features(),
		NoSimd:       dispatch.NoSimdEnv(),
		Capabilities: caps.String(),
	}
	for _, name := range knownCombos() {
		combo := comboOf(name)
		ci := comboInfo{
			Combo: name,
			MaxK:  qgemm.MaxK(combo),
			Candidates: lo.Map(sel.Candidates(combo), func(s qgemm.Strategy, _ int) string {
				return s.Name
			}),
		}
		if s, err := sel.Select(combo); err == nil {
			ci.Selected = s.Name
		}
		report.Combos = append(report.Combos, ci)
	}
	return report
}

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show detected CPU capabilities and the strategy chosen per operand combination",
		Flags: []cli.Flag{jsonFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			report := buildInfo(dispatch.Detect())
			w := cmd.Root().Writer

			if cmd.Bool("json") {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintf(w, "Architecture:  %s\n", report.Arch)
			fmt.Fprintf(w, "CPUs:          %d (GOMAXPROCS %d)\n", report.NumCPU, report.GOMAXPROCS)
			fmt.Fprintf(w, "SIMD level:    %s (%d-byte vectors)\n", report.Level, report.Width)
			features := "none"
			if len(report.Features) > 0 {
				features = strings.Join(report.Features, ", ")
			}
			fmt.Fprintf(w, "Features:      %s\n", features)
			if report.NoSimd {
				fmt.Fprintln(w, "QGEMM_NO_SIMD: set, vectorized strategies disabled")
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "%-14s %-12s %-12s %s\n", "COMBO", "MAX K", "SELECTED", "CANDIDATES")
			for _, c := range report.Combos {
				fmt.Fprintf(w, "%-14s %-12d %-12s %s\n", c.Combo, c.MaxK, c.Selected, strings.Join(c.Candidates, ","))
			}
			return nil
		},
	}
}
