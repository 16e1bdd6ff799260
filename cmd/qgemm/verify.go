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
	"math"
	"math/rand"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/ajroetker/go-qgemm/logger"
	"github.com/ajroetker/go-qgemm/qgemm"
	"github.com/ajroetker/go-qgemm/qgemm/contrib/quantize"
	"github.com/ajroetker/go-qgemm/qgemm/contrib/workerpool"
	"github.com/ajroetker/go-qgemm/qgemm/dispatch"
)

type verifyResult struct {
	Combo     string `json:"combo"`
	Shape     string `json:"shape"`
	Strategy  string `json:"strategy"`
	Checksum  uint64 `json:"checksum"`
	Reference uint64 `json:"reference"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

type accuracyResult struct {
	Shape    string  `json:"shape"`
	MaxError float64 `json:"max_error"`
	Bound    float64 `json:"bound"`
	OK       bool    `json:"ok"`
}

type verifyReport struct {
	Capabilities string           `json:"capabilities"`
	Results      []verifyResult   `json:"results"`
	Accuracy     []accuracyResult `json:"accuracy,omitempty"`
	Failures     int              `json:"failures"`
}

func verifyCmd() *cli.Command {
	var (
		opts     workloadOptions
		accuracy bool
	)
	flags := opts.flags([]string{"1x1x1", "7x13x5", "64x64x64", "33x100x257"})
	flags = append(flags,
		&cli.BoolFlag{
			Name:        "accuracy",
			Usage:       "also check float32 -> u8xs8 quantized products against float arithmetic",
			Value:       true,
			Destination: &accuracy,
		},
		jsonFlag(),
	)

	return &cli.Command{
		Name:  "verify",
		Usage: "Check every strategy usable on this CPU against the reference kernel",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			opts.apply(cmd, configFromContext(ctx))

			shapes, err := parseShapes(opts.shapes)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			combos, err := parseCombos(opts.combos)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			exec, release := newPool(opts.workers)
			defer release()

			caps := dispatch.Detect()
			report := verifyReport{Capabilities: caps.String()}
			rng := rand.New(rand.NewSource(opts.seed))
			for _, name := range combos {
				for _, s := range shapes {
					log.Debug("verifying", "combo", name, "shape", s.String())
					report.Results = append(report.Results, verifyOne(ctx, caps, exec, workloads[name](rng, s))...)
				}
			}
			if accuracy {
				pool, _ := exec.(*workerpool.Pool)
				for _, s := range shapes {
					res, err := quantizedAccuracy(rng, s, pool)
					if err != nil {
						log.Warn("accuracy check skipped", "shape", s.String(), "error", err)
						continue
					}
					report.Accuracy = append(report.Accuracy, res)
				}
			}

			for _, r := range report.Results {
				if !r.OK {
					report.Failures++
				}
			}
			for _, a := range report.Accuracy {
				if !a.OK {
					report.Failures++
				}
			}

			if err := writeVerifyReport(cmd, report); err != nil {
				return err
			}
			if report.Failures > 0 {
				return cli.Exit(fmt.Sprintf("verify: %d failure(s)", report.Failures), 1)
			}
			log.Info("all strategies agree with the reference kernel", "checks", len(report.Results))
			return nil
		},
	}
}

// verifyOne runs w on the reference kernel and on every other candidate,
// comparing result checksums.
func verifyOne(ctx context.Context, caps dispatch.Capabilities, exec workerpool.Executor, w workload) []verifyResult {
	log := logger.FromContext(ctx)
	combo := w.Combo()
	base := verifyResult{Combo: combo.String(), Shape: w.Shape().String()}

	ref := qgemm.NewEngine(qgemm.WithCapabilities(caps), qgemm.WithStrategy("reference"), qgemm.WithLogger(log))
	w.Clear()
	if err := w.Run(ref, exec); err != nil {
		r := base
		r.Strategy = "reference"
		r.Error = err.Error()
		return []verifyResult{r}
	}
	want := w.Checksum()

	var results []verifyResult
	for _, s := range qgemm.NewSelector(caps).Candidates(combo) {
		r := base
		r.Strategy = s.Name
		r.Reference = want

		e := qgemm.NewEngine(qgemm.WithCapabilities(caps), qgemm.WithStrategy(s.Name), qgemm.WithLogger(log))
		w.Clear()
		if err := w.Run(e, exec); err != nil {
			r.Error = err.Error()
		} else {
			r.Checksum = w.Checksum()
			r.OK = r.Checksum == want
		}
		results = append(results, r)
	}
	return results
}

// quantizedAccuracy quantizes random float32 matrices to u8 and s8, runs
// the default strategy and compares the dequantized product with float64
// arithmetic. The bound allows one quantization step of error per operand.
func quantizedAccuracy(rng *rand.Rand, s shape, pool *workerpool.Pool) (accuracyResult, error) {
	res := accuracyResult{Shape: s.String()}
	if s.K > qgemm.MaxK(qgemm.ComboOf[uint8, int8, int32]()) {
		return res, fmt.Errorf("K=%d too large for u8xs8->i32", s.K)
	}

	a := make([]float32, s.M*s.K)
	b := make([]float32, s.K*s.N)
	for i := range a {
		a[i] = rng.Float32() * 6
	}
	for i := range b {
		b[i] = rng.Float32()*2 - 1
	}
	qa := make([]uint8, len(a))
	qb := make([]int8, len(b))
	pa := quantize.QuantizeTensor(pool, a, qa)
	pb := quantize.QuantizeTensor(pool, b, qb)

	acc := make([]int32, s.M*s.N)
	err := qgemm.Gemm(pool, &qgemm.Params[uint8, int8, int32]{
		M: s.M, N: s.N, K: s.K,
		Left: qa, LeftStride: s.K, LeftOffset: qgemm.Scalar(pa.ZeroPoint),
		Right: qb, RightStride: s.N, RightOffset: qgemm.Scalar(pb.ZeroPoint),
		Result: acc, ResultStride: s.N,
	})
	if err != nil {
		return res, err
	}
	got := make([]float32, len(acc))
	quantize.Dequantize(pool, acc, got, pa.Scale*pb.Scale)

	sa, sb := float64(pa.Scale), float64(pb.Scale)
	res.OK = true
	for i := range s.M {
		for j := range s.N {
			var want, bound float64
			for k := range s.K {
				av, bv := float64(a[i*s.K+k]), float64(b[k*s.N+j])
				want += av * bv
				bound += math.Abs(av)*sb + (math.Abs(bv)+sb)*sa
			}
			bound += 1e-4 * (1 + math.Abs(want))
			diff := math.Abs(float64(got[i*s.N+j]) - want)
			res.MaxError = max(res.MaxError, diff)
			res.Bound = max(res.Bound, bound)
			if diff > bound {
				res.OK = false
			}
		}
	}
	return res, nil
}

func writeVerifyReport(cmd *cli.Command, report verifyReport) error {
	w := cmd.Root().Writer
	if cmd.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "Capabilities: %s\n\n", report.Capabilities)
	fmt.Fprintf(w, "%-14s %-12s %-12s %-18s %s\n", "COMBO", "SHAPE", "STRATEGY", "CHECKSUM", "STATUS")
	for _, r := range report.Results {
		status := "ok"
		switch {
		case r.Error != "":
			status = "error: " + r.Error
		case !r.OK:
			status = fmt.Sprintf("MISMATCH (reference %016x)", r.Reference)
		}
		fmt.Fprintf(w, "%-14s %-12s %-12s %016x   %s\n", r.Combo, r.Shape, r.Strategy, r.Checksum, status)
	}
	if len(report.Accuracy) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%-12s %-14s %-14s %s\n", "SHAPE", "MAX ERROR", "BOUND", "STATUS")
		for _, a := range report.Accuracy {
			status := "ok"
			if !a.OK {
				status = "OUT OF BOUND"
			}
			fmt.Fprintf(w, "%-12s %-14.6g %-14.6g %s\n", a.Shape, a.MaxError, a.Bound, status)
		}
	}
	return nil
}
