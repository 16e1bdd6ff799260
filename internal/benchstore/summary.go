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

package benchstore

import (
	"cmp"
	"slices"
	"time"
)

func sortByTime(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return a.Time.Compare(b.Time)
	})
}

// Summary aggregates records that share strategy, combo and shape.
type Summary struct {
	Strategy string
	Combo    string
	Shape    string
	Runs     int
	BestGOPS float64
	Last     time.Time
}

// Summarize groups records and keeps the best throughput of each group,
// ordered by strategy, combo and shape.
func Summarize(records []Record) []Summary {
	type groupKey struct{ strategy, combo, shape string }
	groups := make(map[groupKey]*Summary)
	for _, r := range records {
		k := groupKey{r.Strategy, r.Combo, r.Shape()}
		g, ok := groups[k]
		if !ok {
			g = &Summary{Strategy: k.strategy, Combo: k.combo, Shape: k.shape}
			groups[k] = g
		}
		g.Runs++
		g.BestGOPS = max(g.BestGOPS, r.GOPS)
		if r.Time.After(g.Last) {
			g.Last = r.Time
		}
	}

	out := make([]Summary, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b Summary) int {
		return cmp.Or(
			cmp.Compare(a.Strategy, b.Strategy),
			cmp.Compare(a.Combo, b.Combo),
			cmp.Compare(a.Shape, b.Shape),
		)
	})
	return out
}
