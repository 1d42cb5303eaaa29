// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writebuffer

import "time"

// Config holds the options recognized by a bus instance (distilled spec
// §6), independent of which backend realizes it. Backend-specific
// configuration (e.g. broker addresses) lives alongside each backend's
// constructor instead, following this corpus's functional-options idiom
// for a single component rather than a full config-file/env-var loader.
type Config struct {
	// Partitions is the number of partitions to provision when
	// auto-creating.
	Partitions uint32

	// AutoCreate creates partitions if they are absent from the backend.
	AutoCreate bool

	// Linger bounds how long the producer waits to coalesce operations
	// destined for the same partition into a single backend commit. Zero
	// disables batching: every StoreOperation submits immediately.
	Linger time.Duration

	// MaxBatchBytes is the approximate size threshold, in bytes, that
	// triggers an early batch submission. Zero disables the size trigger.
	MaxBatchBytes int
}

// DefaultConfig returns sane defaults for a single-partition, unbatched
// bus, suitable for tests.
func DefaultConfig() Config {
	return Config{
		Partitions: 1,
		AutoCreate: true,
	}
}
