// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writebuffer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/z5labs/writebuffer/health"
)

var _ health.Monitor = (*Reader)(nil)

// Reader is the write buffer's consumer side (distilled spec §4.2/§4.3): it
// owns one StreamHandler per partition and reports watermarks.
type Reader struct {
	backend BackendReader
	log     *slog.Logger

	mu       sync.Mutex
	handlers map[uint32]*StreamHandler
}

// NewReader constructs a Reader over backend, mirroring NewWriter's
// auto-create/validate behavior so that a Writer and Reader opened against
// the same backend and Config always agree on the partition set.
func NewReader(ctx context.Context, backend BackendReader, cfg Config) (*Reader, error) {
	if cfg.AutoCreate {
		if err := backend.EnsurePartitions(ctx, cfg.Partitions); err != nil {
			return nil, fmt.Errorf("writebuffer: ensure partitions: %w", err)
		}
	}
	ids := backend.PartitionIDs()
	if len(ids) == 0 {
		return nil, fmt.Errorf("writebuffer: %w: no partitions provisioned", ErrUnknownPartition)
	}

	log := logger().With(slog.String("backend", backend.TypeName()))

	r := &Reader{
		backend:  backend,
		log:      log,
		handlers: make(map[uint32]*StreamHandler, len(ids)),
	}
	for id := range ids {
		r.handlers[id] = newStreamHandler(id, backend, log)
	}
	return r, nil
}

// PartitionIDs implements the Reader capability set of distilled spec §4.3.
func (r *Reader) PartitionIDs() PartitionSet {
	return r.backend.PartitionIDs()
}

// TypeName implements the Reader capability set.
func (r *Reader) TypeName() string {
	return r.backend.TypeName()
}

// Healthy implements health.Monitor by delegating to the backend if it
// implements health.Monitor itself, and otherwise reporting healthy as long
// as at least one partition is provisioned.
func (r *Reader) Healthy(ctx context.Context) (bool, error) {
	if hm, ok := r.backend.(health.Monitor); ok {
		return hm.Healthy(ctx)
	}
	return len(r.backend.PartitionIDs()) > 0, nil
}

// StreamHandler returns the handler for partition, or ErrUnknownPartition
// if no such partition exists.
func (r *Reader) StreamHandler(partition uint32) (*StreamHandler, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handlers[partition]
	if !ok {
		return nil, fmt.Errorf("writebuffer: stream handler: %w", ErrUnknownPartition)
	}
	return h, nil
}

// StreamHandlers returns every partition's handler, keyed by partition id.
func (r *Reader) StreamHandlers() map[uint32]*StreamHandler {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[uint32]*StreamHandler, len(r.handlers))
	for id, h := range r.handlers {
		out[id] = h
	}
	return out
}

// FetchHighWatermark returns the sequence number the next successfully
// committed message on partition would receive (distilled spec §4.3).
func (r *Reader) FetchHighWatermark(ctx context.Context, partition uint32) (uint64, error) {
	if !r.backend.PartitionIDs().Contains(partition) {
		return 0, fmt.Errorf("writebuffer: fetch high watermark: %w", ErrUnknownPartition)
	}
	return r.backend.HighWatermark(ctx, partition)
}
