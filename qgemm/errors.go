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
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports malformed shapes, strides, slices or
	// offsets, and operand combinations no strategy can compute. It is
	// always returned before any tile task is submitted.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStrategyUnavailable reports a selected strategy that turned out to
	// be unable to run a tile. It is surfaced through the executor join.
	ErrStrategyUnavailable = errors.New("strategy unavailable")
)

// Error carries the operation and detail behind a sentinel error.
type Error struct {
	Op      string // Operation or argument that failed
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("qgemm %s: %s: %v", e.Op, e.Message, e.Err)
}

// Unwrap allows errors.Is(err, ErrInvalidArgument).
func (e *Error) Unwrap() error {
	return e.Err
}

func invalidArgument(op, format string, args ...any) error {
	return &Error{
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Err:     ErrInvalidArgument,
	}
}
