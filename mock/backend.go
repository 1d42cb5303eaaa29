// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package mock provides an in-memory write buffer backend. It is
// deterministic and has no external dependencies, making it the backend the
// conformance suite (writebuffer/wbtest) drives by default and the
// reference every other backend is checked against.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/z5labs/writebuffer"
	"github.com/z5labs/writebuffer/dml"
	"github.com/z5labs/writebuffer/health"
)

type record struct {
	op  dml.Operation
	seq uint64
}

// partitionLog is a single partition's append-only record log. Appends are
// serialized by mu; readers blocked past the tail wake via notify, which is
// closed and replaced on every append (a broadcast, not a single wakeup).
type partitionLog struct {
	mu     sync.Mutex
	notify chan struct{}
	recs   []record
}

func newPartitionLog() *partitionLog {
	return &partitionLog{notify: make(chan struct{})}
}

// appendBatch allocates the next len(batch) sequence numbers for partition
// and appends the stamped operations, all under a single lock acquisition
// so that two concurrent callers (e.g. two Writer instances sharing this
// Backend) can never be handed colliding sequence numbers.
func (p *partitionLog) appendBatch(partition uint32, producerTime time.Time, batch []writebuffer.PendingRecord) []dml.Sequence {
	p.mu.Lock()

	next := uint64(len(p.recs))
	seqs := make([]dml.Sequence, len(batch))
	for i, rec := range batch {
		seq := dml.Sequence{Partition: partition, Number: next + uint64(i)}
		seqs[i] = seq

		op := rec.Op
		op.SetMeta(rec.Meta.WithSequence(producerTime, seq))
		p.recs = append(p.recs, record{op: op, seq: seq.Number})
	}

	closed := p.notify
	p.notify = make(chan struct{})
	p.mu.Unlock()
	close(closed)

	return seqs
}

func (p *partitionLog) highWatermark() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint64(len(p.recs))
}

// waitFor blocks until a record at index from exists, returning it, or ctx
// is done.
func (p *partitionLog) waitFor(ctx context.Context, from uint64) (record, error) {
	for {
		p.mu.Lock()
		if from < uint64(len(p.recs)) {
			rec := p.recs[from]
			p.mu.Unlock()
			return rec, nil
		}
		wake := p.notify
		p.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return record{}, ctx.Err()
		}
	}
}

// Backend is an in-memory writebuffer.BackendWriter and
// writebuffer.BackendReader. Its zero value is not usable; construct with
// New.
type Backend struct {
	mu         sync.Mutex
	partitions map[uint32]*partitionLog
}

var (
	_ writebuffer.BackendWriter = (*Backend)(nil)
	_ writebuffer.BackendReader = (*Backend)(nil)
)

// New constructs an empty Backend with no partitions. Call EnsurePartitions,
// or rely on a writebuffer.Writer/Reader's AutoCreate config, to provision
// them.
func New() *Backend {
	return &Backend{partitions: make(map[uint32]*partitionLog)}
}

// TypeName implements writebuffer.BackendWriter and writebuffer.BackendReader.
func (b *Backend) TypeName() string {
	return "mock"
}

// Healthy implements health.Monitor. An in-memory Backend is always healthy
// once constructed; it exists so callers can exercise the same
// health.Monitor wiring they'd use against a real backend.
func (b *Backend) Healthy(ctx context.Context) (bool, error) {
	return true, nil
}

var _ health.Monitor = (*Backend)(nil)

// PartitionIDs implements writebuffer.Registry.
func (b *Backend) PartitionIDs() writebuffer.PartitionSet {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]uint32, 0, len(b.partitions))
	for id := range b.partitions {
		ids = append(ids, id)
	}
	return writebuffer.NewPartitionSet(ids...)
}

// EnsurePartitions implements writebuffer.Registry, creating partitions
// 0..count-1 that do not already exist.
func (b *Backend) EnsurePartitions(ctx context.Context, count uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id := uint32(0); id < count; id++ {
		if _, ok := b.partitions[id]; ok {
			continue
		}
		b.partitions[id] = newPartitionLog()
	}
	return nil
}

func (b *Backend) partition(id uint32) (*partitionLog, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.partitions[id]
	return p, ok
}

// AppendBatch implements writebuffer.BackendWriter. Every record in batch is
// assigned the next sequence numbers for partition, in order, stamped with
// producerTime, and the whole batch becomes visible to readers atomically
// with respect to any single append call.
func (b *Backend) AppendBatch(ctx context.Context, partition uint32, producerTime time.Time, batch []writebuffer.PendingRecord) ([]dml.Sequence, error) {
	p, ok := b.partition(partition)
	if !ok {
		return nil, fmt.Errorf("mock: append batch: %w", writebuffer.ErrUnknownPartition)
	}

	return p.appendBatch(partition, producerTime, batch), nil
}

// ReadNext implements writebuffer.BackendReader, blocking until a record at
// index from has been appended or ctx is done.
func (b *Backend) ReadNext(ctx context.Context, partition uint32, from uint64) (dml.Operation, uint64, error) {
	p, ok := b.partition(partition)
	if !ok {
		return nil, 0, fmt.Errorf("mock: read next: %w", writebuffer.ErrUnknownPartition)
	}

	rec, err := p.waitFor(ctx, from)
	if err != nil {
		return nil, 0, err
	}
	return rec.op, rec.seq + 1, nil
}

// HighWatermark implements writebuffer.BackendReader.
func (b *Backend) HighWatermark(ctx context.Context, partition uint32) (uint64, error) {
	p, ok := b.partition(partition)
	if !ok {
		return 0, fmt.Errorf("mock: high watermark: %w", writebuffer.ErrUnknownPartition)
	}
	return p.highWatermark(), nil
}
