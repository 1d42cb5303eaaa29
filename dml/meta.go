// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package dml provides the DML (data manipulation language) value types
// exchanged through the write buffer: writes, deletes, and the metadata
// envelope that carries producer timestamps, sequence numbers, and trace
// context end-to-end.
package dml

import (
	"time"

	"github.com/z5labs/writebuffer/tracing"
)

// PartitionID identifies a partition (sequencer) within a write buffer
// instance. The set of valid partition ids is finite, small, and stable
// for the lifetime of the bus.
type PartitionID = uint32

// Sequence identifies a single committed operation within its partition.
// Sequence numbers are strictly increasing per partition but are not
// comparable across partitions, and may contain gaps.
type Sequence struct {
	Partition PartitionID
	Number    uint64
}

// Meta is the metadata envelope attached to every DML operation.
//
// A Meta with a nil Sequence is "unsequenced": the operation has not yet
// been committed by a write buffer backend. Sequence is set exactly once,
// at commit time, and is never rewritten afterwards.
type Meta struct {
	// ProducerTime is the wall-clock instant, to millisecond precision, at
	// which the producer accepted the operation. It is the ingestion time,
	// not the time a consumer happens to read the operation.
	ProducerTime time.Time

	// Sequence is nil until the operation is committed.
	Sequence *Sequence

	// Span is the distributed tracing context the caller attached to the
	// operation, carried verbatim from producer to consumer. It is nil when
	// the caller supplied none.
	Span *tracing.Context

	// SizeBytes is an optional hint of the operation's encoded size.
	SizeBytes *int
}

// Unsequenced returns a Meta carrying only the caller-supplied span, with
// no producer timestamp or sequence yet assigned. This is the state of a
// Meta before it reaches a producer.
func Unsequenced(span *tracing.Context) Meta {
	return Meta{Span: span}
}

// Sequenced reports whether this Meta has been committed to a partition.
func (m Meta) Sequenced() bool {
	return m.Sequence != nil
}

// WithSequence returns a copy of m with ProducerTime and Sequence set,
// leaving the caller's span context untouched. It is used by producers at
// commit time and must never be called again once Sequence is non-nil.
func (m Meta) WithSequence(producerTime time.Time, seq Sequence) Meta {
	m.ProducerTime = producerTime
	m.Sequence = &seq
	return m
}

// Equal reports whether two Meta envelopes are bit-exact: same producer
// timestamp (to millisecond precision), same sequence, and the same trace
// context. Used by round-trip assertions in the conformance suite.
func (m Meta) Equal(other Meta) bool {
	if !m.ProducerTime.Truncate(time.Millisecond).Equal(other.ProducerTime.Truncate(time.Millisecond)) {
		return false
	}
	if (m.Sequence == nil) != (other.Sequence == nil) {
		return false
	}
	if m.Sequence != nil && *m.Sequence != *other.Sequence {
		return false
	}
	if (m.Span == nil) != (other.Span == nil) {
		return false
	}
	if m.Span != nil && !m.Span.Equal(*other.Span) {
		return false
	}
	return true
}
