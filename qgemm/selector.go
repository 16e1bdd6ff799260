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

package qgemm

import (
	"github.com/samber/lo"

	"github.com/ajroetker/go-qgemm/qgemm/dispatch"
)

// Selector chooses an execution strategy from a capability snapshot. The
// choice depends only on the snapshot and the operand combo.
type Selector struct {
	caps dispatch.Capabilities
}

// NewSelector returns a Selector bound to caps.
func NewSelector(caps dispatch.Capabilities) *Selector {
	return &Selector{caps: caps}
}

// Capabilities returns the snapshot the selector decides on.
func (s *Selector) Capabilities() dispatch.Capabilities {
	return s.caps
}

// Candidates returns every strategy usable for c on this snapshot, in order
// of preference. The reference strategy is included whenever c is
// computable at all.
func (s *Selector) Candidates(c Combo) []Strategy {
	return lo.Filter(registry, func(st Strategy, _ int) bool {
		return st.Available(s.caps) && st.Supports(c)
	})
}

// Select returns the preferred usable strategy for c. When no vectorized
// strategy qualifies it falls back to the reference kernel; it fails only
// if even the reference kernel cannot compute c.
func (s *Selector) Select(c Combo) (Strategy, error) {
	for _, st := range registry {
		if st.Available(s.caps) && st.Supports(c) {
			return st, nil
		}
	}
	return Strategy{}, invalidArgument("select", "operand combination %s is not supported by any strategy", c)
}

// Force returns the named strategy if it is usable for c on this snapshot.
func (s *Selector) Force(name string, c Combo) (Strategy, error) {
	st, ok := StrategyByName(name)
	if !ok {
		return Strategy{}, invalidArgument("select", "unknown strategy %q", name)
	}
	if !st.Available(s.caps) {
		return Strategy{}, invalidArgument("select", "strategy %s needs CPU features missing from %s", name, s.caps)
	}
	if !st.Supports(c) {
		return Strategy{}, invalidArgument("select", "strategy %s does not support %s", name, c)
	}
	return st, nil
}
