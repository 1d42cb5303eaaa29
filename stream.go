// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writebuffer

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"github.com/z5labs/writebuffer/dml"
)

// StreamHandler is a single partition's consumption cursor (distilled spec
// §4.2). It is not safe for concurrent use by multiple goroutines, but a
// Reader may hold one StreamHandler per partition simultaneously.
type StreamHandler struct {
	partition uint32
	backend   BackendReader
	log       *slog.Logger

	mu         sync.Mutex
	cursor     uint64
	streaming  bool
	generation uint64
}

func newStreamHandler(partition uint32, backend BackendReader, log *slog.Logger) *StreamHandler {
	return &StreamHandler{
		partition: partition,
		backend:   backend,
		log:       log.With(PartitionAttr(partition)),
	}
}

// Partition reports which partition this handler reads from.
func (h *StreamHandler) Partition() uint32 {
	return h.partition
}

// Seek repositions the handler's cursor to seq, the sequence number the
// next Stream call will start returning operations from. Seek fails with
// ErrStreamInProgress while a sequence obtained from a prior Stream call is
// still being consumed (distilled spec §4.2's "at most one live sequence
// per handler" rule): stop ranging over the previous iterator, or let it
// run to completion, before calling Seek again.
func (h *StreamHandler) Seek(ctx context.Context, seq uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.streaming {
		return fmt.Errorf("writebuffer: seek partition %d: %w", h.partition, ErrStreamInProgress)
	}
	h.cursor = seq
	return nil
}

// Stream returns a lazy sequence of (operation, error) pairs starting at
// the handler's current cursor. Ranging over the sequence blocks between
// elements until a new operation is committed to the partition or ctx is
// done; this is how "pending" is represented, rather than as an explicit
// state (distilled spec §4.2).
//
// Calling Stream again implicitly ends any sequence returned by a previous
// Stream call: the previous iterator's range loop will simply stop yielding
// further elements. Seek does not end a live sequence; it fails with
// ErrStreamInProgress instead.
func (h *StreamHandler) Stream(ctx context.Context) iter.Seq2[dml.Operation, error] {
	h.mu.Lock()
	h.generation++
	gen := h.generation
	h.streaming = true
	h.mu.Unlock()

	return func(yield func(dml.Operation, error) bool) {
		defer func() {
			h.mu.Lock()
			if h.generation == gen {
				h.streaming = false
			}
			h.mu.Unlock()
		}()

		for {
			h.mu.Lock()
			if h.generation != gen {
				h.mu.Unlock()
				return
			}
			from := h.cursor
			h.mu.Unlock()

			op, next, err := h.backend.ReadNext(ctx, h.partition, from)

			h.mu.Lock()
			stale := h.generation != gen
			h.mu.Unlock()
			if stale {
				return
			}

			if err != nil {
				yield(nil, err)
				return
			}

			h.mu.Lock()
			h.cursor = next
			h.mu.Unlock()

			if !yield(op, nil) {
				return
			}
		}
	}
}
