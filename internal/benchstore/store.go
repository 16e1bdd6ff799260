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

// Package benchstore persists GEMM benchmark results in a BadgerDB
// database so that runs can be compared across builds and machines.
package benchstore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/ajroetker/go-qgemm/logger"
)

const keyPrefix = "bench/"

// ErrNotFound is returned by Get for unknown record IDs.
var ErrNotFound = errors.New("benchstore: record not found")

// Record is one benchmark measurement.
type Record struct {
	ID           string    `json:"id"`
	Time         time.Time `json:"time"`
	Strategy     string    `json:"strategy"`
	Combo        string    `json:"combo"`
	M            int       `json:"m"`
	N            int       `json:"n"`
	K            int       `json:"k"`
	Workers      int       `json:"workers"`
	Iterations   int       `json:"iterations"`
	NsPerOp      int64     `json:"ns_per_op"`
	GOPS         float64   `json:"gops"`
	Checksum     uint64    `json:"checksum"`
	Capabilities string    `json:"capabilities"`
}

// Shape formats the problem size as "MxNxK".
func (r *Record) Shape() string {
	return fmt.Sprintf("%dx%dx%d", r.M, r.N, r.K)
}

// key orders records by strategy, then shape, then time.
func (r *Record) key() []byte {
	return fmt.Appendf(nil, "%s%s/%s/%020d-%s", keyPrefix, r.Strategy, r.Shape(), r.Time.UnixNano(), r.ID)
}

// Store wraps BadgerDB for benchmark records.
type Store struct {
	db *badger.DB
}

// Open opens or creates a store in dir.
func Open(dir string, log logger.Logger) (*Store, error) {
	return open(badger.DefaultOptions(dir), log)
}

// OpenInMemory returns a store that is discarded on Close.
func OpenInMemory(log logger.Logger) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), log)
}

func open(opts badger.Options, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Discard()
	}
	opts = opts.WithLogger(badgerLogger{log.With("component", "badger")})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("benchstore: open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores r, filling in ID and Time when they are empty, and returns the
// stored record.
func (s *Store) Put(r Record) (Record, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	r.Time = r.Time.UTC()
	if strings.Contains(r.Strategy, "/") {
		return Record{}, fmt.Errorf("benchstore: strategy name %q contains '/'", r.Strategy)
	}

	data, err := json.Marshal(&r)
	if err != nil {
		return Record{}, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(r.key(), data)
	})
	if err != nil {
		return Record{}, fmt.Errorf("benchstore: put %s: %w", r.ID, err)
	}
	return r, nil
}

// Filter selects records in List. Zero fields match everything.
type Filter struct {
	Strategy string
	Combo    string
	Limit    int // Most recent records to keep; 0 keeps all
}

// List returns matching records, oldest first.
func (s *Store) List(f Filter) ([]Record, error) {
	prefix := []byte(keyPrefix)
	if f.Strategy != "" {
		prefix = fmt.Appendf(nil, "%s%s/", keyPrefix, f.Strategy)
	}

	var records []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var r Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if f.Combo != "" && r.Combo != f.Combo {
				continue
			}
			records = append(records, r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("benchstore: list: %w", err)
	}

	// Keys sort by strategy and shape before time.
	sortByTime(records)
	if f.Limit > 0 && len(records) > f.Limit {
		records = records[len(records)-f.Limit:]
	}
	return records, nil
}

// Get returns the record with the given ID.
func (s *Store) Get(id string) (Record, error) {
	records, err := s.List(Filter{})
	if err != nil {
		return Record{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// badgerLogger routes BadgerDB's printf-style logging into a Logger.
type badgerLogger struct {
	log logger.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.log.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
