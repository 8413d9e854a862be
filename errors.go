// Copyright 2024 The Cockroach Authors
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

package hopscotch

import "github.com/cockroachdb/errors"

// ErrKeyNotFound is returned by At when the requested key is absent.
var ErrKeyNotFound = errors.New("hopscotch: key not found")

// ErrExcessiveCapacity is returned when a growth policy is asked to grow
// past the capacity it can represent.
var ErrExcessiveCapacity = errors.New("hopscotch: excessive capacity")

// ErrAllocationFailure marks the error the table panics with when the
// configured Allocator cannot satisfy a request for bucket storage.
var ErrAllocationFailure = errors.New("hopscotch: allocation failure")

// ErrUserCallbackFailure wraps a panic recovered from a caller-supplied
// hash, equality, or value-construction callback. The table does not
// suppress these; they propagate to the caller of the operation that
// triggered them unless explicitly recovered, exactly as an ordinary Go
// panic would. The sentinel exists so that code which does choose to
// recover can mark what it caught.
var ErrUserCallbackFailure = errors.New("hopscotch: user callback failure")

// keyNotFoundf wraps ErrKeyNotFound with context about the failed lookup.
func keyNotFoundf(format string, args ...interface{}) error {
	return errors.WithDetailf(errors.Mark(errors.Newf(format, args...), ErrKeyNotFound), "lookup miss")
}

// excessiveCapacityf wraps ErrExcessiveCapacity with context about the
// capacity that could not be represented.
func excessiveCapacityf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrExcessiveCapacity)
}
