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
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sample(strategy, combo string, gops float64, at time.Time) Record {
	return Record{
		Time:     at,
		Strategy: strategy,
		Combo:    combo,
		M:        64, N: 64, K: 64,
		Workers:    4,
		Iterations: 10,
		NsPerOp:    1000,
		GOPS:       gops,
	}
}

func TestPutFillsIdentity(t *testing.T) {
	s := openTest(t)
	r, err := s.Put(Record{Strategy: "avx2", Combo: "u8xs8->i32", M: 1, N: 2, K: 3})
	require.NoError(t, err)
	require.NotEmpty(t, r.ID)
	require.False(t, r.Time.IsZero())
	require.Equal(t, "1x2x3", r.Shape())

	got, err := s.Get(r.ID)
	require.NoError(t, err)
	require.Equal(t, r.ID, got.ID)
	require.True(t, r.Time.Equal(got.Time))
	require.Equal(t, r.Combo, got.Combo)
}

func TestGetMissing(t *testing.T) {
	s := openTest(t)
	_, err := s.Get("nope")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestPutRejectsSlashInStrategy(t *testing.T) {
	s := openTest(t)
	_, err := s.Put(Record{Strategy: "a/b"})
	require.Error(t, err)
}

func TestListFiltersAndOrders(t *testing.T) {
	s := openTest(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	puts := []Record{
		sample("reference", "u8xs8->i32", 1, base.Add(3*time.Minute)),
		sample("avx2", "u8xs8->i32", 10, base.Add(1*time.Minute)),
		sample("avx2", "s8xs8->i32", 11, base.Add(2*time.Minute)),
		sample("avx2", "u8xs8->i32", 12, base.Add(4*time.Minute)),
	}
	for _, r := range puts {
		_, err := s.Put(r)
		require.NoError(t, err)
	}

	all, err := s.List(Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		require.False(t, all[i].Time.Before(all[i-1].Time), "records not in time order")
	}

	avx2, err := s.List(Filter{Strategy: "avx2"})
	require.NoError(t, err)
	require.Len(t, avx2, 3)

	combo, err := s.List(Filter{Strategy: "avx2", Combo: "u8xs8->i32"})
	require.NoError(t, err)
	require.Len(t, combo, 2)
	require.Equal(t, 12.0, combo[1].GOPS)

	latest, err := s.List(Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, "reference", latest[0].Strategy)
	require.Equal(t, 12.0, latest[1].GOPS)
}

func TestSummarize(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		sample("avx2", "u8xs8->i32", 10, base),
		sample("avx2", "u8xs8->i32", 14, base.Add(time.Hour)),
		sample("avx2", "s8xs8->i32", 9, base),
		sample("reference", "u8xs8->i32", 1, base),
	}
	got := Summarize(records)
	require.Len(t, got, 3)
	require.Equal(t, Summary{Strategy: "avx2", Combo: "s8xs8->i32", Shape: "64x64x64", Runs: 1, BestGOPS: 9, Last: base}, got[0])
	require.Equal(t, 2, got[1].Runs)
	require.Equal(t, 14.0, got[1].BestGOPS)
	require.True(t, got[1].Last.Equal(base.Add(time.Hour)))
	require.Equal(t, "reference", got[2].Strategy)
}

func TestOpenOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bench")
	s, err := Open(dir, nil)
	require.NoError(t, err)
	r, err := s.Put(sample("neon", "u8xu8->i32", 3, time.Time{}))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(r.ID)
	require.NoError(t, err)
	require.Equal(t, "neon", got.Strategy)
}
