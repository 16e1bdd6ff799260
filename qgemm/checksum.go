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
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Checksum hashes the logical m x n region of a result matrix, ignoring row
// padding. Elements are hashed as little-endian int64 so int32 and int64
// results of equal values hash the same.
func Checksum[O Accumulator](data []O, m, n, stride int) uint64 {
	d := xxhash.New()
	row := make([]byte, 8*n)
	for i := range m {
		base := i * stride
		for j := range n {
			binary.LittleEndian.PutUint64(row[8*j:], uint64(int64(data[base+j])))
		}
		_, _ = d.Write(row)
	}
	return d.Sum64()
}
