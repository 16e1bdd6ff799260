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

// Tile is a half-open rectangle of the result matrix owned by one task.
type Tile struct {
	RowStart, RowEnd int
	ColStart, ColEnd int
}

// Rows returns the tile height.
func (t Tile) Rows() int { return t.RowEnd - t.RowStart }

// Cols returns the tile width.
func (t Tile) Cols() int { return t.ColEnd - t.ColStart }

// Tiling holds the partitioner's tuning parameters.
type Tiling struct {
	// MinTileOps is the minimum number of multiply-accumulates a tile
	// should carry to amortize task dispatch.
	MinTileOps int

	// TilesPerWorker oversubscribes the executor for load balancing.
	TilesPerWorker int

	// CacheLineBytes aligns column boundaries so that neighbouring tiles
	// do not write the same cache line of a result row.
	CacheLineBytes int
}

// Default tiling parameters.
const (
	DefaultMinTileOps     = 64 * 64 * 16
	DefaultTilesPerWorker = 4
	DefaultCacheLineBytes = 64
)

// DefaultTiling returns the tuning used when none is configured.
func DefaultTiling() Tiling {
	return Tiling{
		MinTileOps:     DefaultMinTileOps,
		TilesPerWorker: DefaultTilesPerWorker,
		CacheLineBytes: DefaultCacheLineBytes,
	}
}

func (t Tiling) normalized() Tiling {
	if t.MinTileOps < 1 {
		t.MinTileOps = 1
	}
	if t.TilesPerWorker < 1 {
		t.TilesPerWorker = 1
	}
	if t.CacheLineBytes < 0 {
		t.CacheLineBytes = 0
	}
	return t
}

// Partition splits an m x n result into disjoint tiles that cover it
// exactly. elemSize is the result element size in bytes.
//
// The tile count never exceeds parallelism*TilesPerWorker, nor the number
// of MinTileOps-sized chunks of work (K=0 counts as K=1), and is at least
// one whenever m and n are both positive. Rows are split first; columns
// are split only when there are fewer rows than tiles wanted, and column
// boundaries then fall on multiples of a cache line's worth of elements.
func Partition(m, n, k, parallelism int, cfg Tiling, elemSize int) []Tile {
	if m <= 0 || n <= 0 {
		return nil
	}
	cfg = cfg.normalized()
	parallelism = max(parallelism, 1)

	target := 1
	if parallelism > 1 {
		work := int64(m) * int64(n) * int64(max(k, 1))
		byWork := max(work/int64(cfg.MinTileOps), 1)
		target = int(min(int64(parallelism*cfg.TilesPerWorker), byWork))
	}

	align := 1
	if elemSize > 0 && cfg.CacheLineBytes >= elemSize && cfg.CacheLineBytes%elemSize == 0 {
		align = cfg.CacheLineBytes / elemSize
	}

	rowBlocks := min(m, target)
	colBlocks := 1
	if rowBlocks < target {
		colBlocks = min(target/rowBlocks, ceilDiv(n, align))
	}

	rowHeight := ceilDiv(m, rowBlocks)
	colWidth := roundUp(ceilDiv(n, colBlocks), align)

	tiles := make([]Tile, 0, rowBlocks*colBlocks)
	for r0 := 0; r0 < m; r0 += rowHeight {
		for c0 := 0; c0 < n; c0 += colWidth {
			tiles = append(tiles, Tile{
				RowStart: r0,
				RowEnd:   min(r0+rowHeight, m),
				ColStart: c0,
				ColEnd:   min(c0+colWidth, n),
			})
		}
	}
	return tiles
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func roundUp(v, multiple int) int {
	return ceilDiv(v, multiple) * multiple
}
