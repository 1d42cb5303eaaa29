// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writebuffer

import "errors"

// Error classifications exposed across the write buffer's interface
// boundary (distilled spec §6/§7). Callers compare against these with
// errors.Is; ErrBackendUnavailable is the only classification the core
// marks as retryable.
var (
	// ErrUnknownPartition is returned when a caller names a partition id
	// that is not in the bus's current registry. Deterministic and fatal
	// per call.
	ErrUnknownPartition = errors.New("writebuffer: unknown partition")

	// ErrBackendUnavailable signals a transient transport failure. It is
	// the only retryable classification.
	ErrBackendUnavailable = errors.New("writebuffer: backend unavailable")

	// ErrBackendError signals an unexpected, non-retryable backend error.
	ErrBackendError = errors.New("writebuffer: backend error")

	// ErrParseError is returned by StoreLineProtocol when the given text
	// is not valid line protocol.
	ErrParseError = errors.New("writebuffer: parse error")

	// ErrNotFound is returned by delete-path operations when the named
	// database does not exist.
	ErrNotFound = errors.New("writebuffer: not found")

	// ErrEmptyResponse is returned when a backend responds with no body
	// where one was expected.
	ErrEmptyResponse = errors.New("writebuffer: empty response")

	// ErrStreamInProgress is returned by StreamHandler.Seek when called
	// while a live sequence from the same handler still exists.
	ErrStreamInProgress = errors.New("writebuffer: seek called while a stream is in progress")
)
