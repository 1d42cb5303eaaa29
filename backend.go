// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writebuffer

import (
	"context"
	"time"

	"github.com/z5labs/writebuffer/dml"
)

// PendingRecord is a single operation waiting to be committed to a
// partition, along with the metadata the caller attached before it was
// sequenced (typically just a trace context).
type PendingRecord struct {
	Op   dml.Operation
	Meta dml.Meta
}

// Registry is the partition-set half of the backend abstraction
// (distilled spec §4.5): an authoritative, enumerable set of partitions
// with creation-on-demand semantics.
type Registry interface {
	// PartitionIDs returns the current authoritative partition set. Never
	// empty once EnsurePartitions has succeeded at least once.
	PartitionIDs() PartitionSet

	// EnsurePartitions creates up to count partitions (ids 0..count-1) if
	// they do not already exist. Called only when a bus side is opened
	// with auto-create enabled.
	EnsurePartitions(ctx context.Context, count uint32) error
}

// BackendWriter is the producer-facing half of the backend abstraction.
// mock.Backend and kafka.Backend each implement it.
type BackendWriter interface {
	Registry

	// AppendBatch durably records batch to partition in the given order,
	// assigning each record the next sequence numbers for that partition
	// and stamping it with producerTime (the producer's clock at commit
	// time, not the backend's own wall clock). Either every record in the
	// batch commits, or none do.
	AppendBatch(ctx context.Context, partition uint32, producerTime time.Time, batch []PendingRecord) ([]dml.Sequence, error)

	// TypeName identifies the backend implementation (e.g. "mock", "kafka").
	TypeName() string
}

// BackendReader is the consumer-facing half of the backend abstraction.
type BackendReader interface {
	Registry

	// ReadNext blocks until a record with sequence >= from is available on
	// partition, or ctx is done. It never returns the same sequence twice
	// for increasing values of from.
	ReadNext(ctx context.Context, partition uint32, from uint64) (dml.Operation, uint64, error)

	// HighWatermark returns the sequence number the next successfully
	// committed message on partition would receive. 0 for an empty
	// partition.
	HighWatermark(ctx context.Context, partition uint32) (uint64, error)

	// TypeName identifies the backend implementation (e.g. "mock", "kafka").
	TypeName() string
}
