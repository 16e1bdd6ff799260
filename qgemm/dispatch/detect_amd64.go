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

//go:build amd64

package dispatch

import "golang.org/x/sys/cpu"

// detectFeatures fills in x86-64 integer SIMD flags. Each feature is probed
// on its own; AVX-512 is never assumed from AVX2.
func detectFeatures(c *Capabilities) {
	c.HasAVX2 = cpu.X86.HasAVX2
	c.HasAVX512F = cpu.X86.HasAVX512F
	c.HasAVX512BW = cpu.X86.HasAVX512BW
	c.HasAVX512VNNI = cpu.X86.HasAVX512VNNI

	switch {
	case c.HasAVX512F && c.HasAVX512BW:
		c.Level = LevelAVX512
		c.Width = 64
	case c.HasAVX2:
		c.Level = LevelAVX2
		c.Width = 32
	}
}
