// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writebuffer

import (
	"context"
	"log/slog"
	"time"

	"github.com/z5labs/writebuffer/clock"
	"github.com/z5labs/writebuffer/dml"
)

// pendingReq is a single caller's enqueued StoreOperation call, waiting for
// its partition's worker to assemble and commit a batch.
type pendingReq struct {
	meta  dml.Meta
	op    dml.Operation
	reply chan storeResult
}

type storeResult struct {
	meta dml.Meta
	err  error
}

// partitionWorker is the per-partition single-consumer actor design note §9
// describes: it owns the pending batch for one partition exclusively, so
// concurrent producers linearize through its enqueue channel rather than
// through a lock held across the backend call.
type partitionWorker struct {
	partition     uint32
	backend       BackendWriter
	clock         clock.Provider
	linger        time.Duration
	maxBatchBytes int
	log           *slog.Logger

	enqueue chan pendingReq
	flush   chan chan struct{}
}

func newPartitionWorker(partition uint32, backend BackendWriter, c clock.Provider, linger time.Duration, maxBatchBytes int, log *slog.Logger) *partitionWorker {
	return &partitionWorker{
		partition:     partition,
		backend:       backend,
		clock:         c,
		linger:        linger,
		maxBatchBytes: maxBatchBytes,
		log:           log.With(PartitionAttr(partition)),
		enqueue:       make(chan pendingReq),
		flush:         make(chan chan struct{}),
	}
}

func (pw *partitionWorker) run(ctx context.Context) {
	var batch []pendingReq
	var size int
	var timer *time.Timer
	var timerC <-chan time.Time

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	submit := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}

		records := make([]PendingRecord, len(batch))
		for i, req := range batch {
			records[i] = PendingRecord{Op: req.op, Meta: req.meta}
		}

		now := pw.clock.Now()
		seqs, err := pw.backend.AppendBatch(ctx, pw.partition, now, records)
		for i, req := range batch {
			if err != nil {
				req.reply <- storeResult{err: err}
				continue
			}
			req.reply <- storeResult{meta: req.meta.WithSequence(now, seqs[i])}
		}

		if err != nil {
			pw.log.ErrorContext(ctx, "failed to commit write buffer batch", slog.Any("error", err), slog.Int("batch_size", len(batch)))
		}

		batch = batch[:0]
		size = 0
	}

	shutdownCtx := context.Background()
	defer func() {
		submit(shutdownCtx)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case req := <-pw.enqueue:
			batch = append(batch, req)
			size += approxRecordSize(req.op)

			if timer == nil && pw.linger > 0 {
				timer = time.NewTimer(pw.linger)
				timerC = timer.C
			}
			if pw.linger <= 0 || (pw.maxBatchBytes > 0 && size >= pw.maxBatchBytes) {
				stopTimer()
				submit(ctx)
			}

		case done := <-pw.flush:
			stopTimer()
			submit(ctx)
			close(done)

		case <-timerC:
			timer = nil
			timerC = nil
			submit(ctx)
		}
	}
}

// approxRecordSize is a coarse byte-size estimate used only to decide when
// a batch has crossed MaxBatchBytes; it need not be exact.
func approxRecordSize(op dml.Operation) int {
	w, ok := op.(*dml.Write)
	if !ok {
		return 64
	}

	n := len(w.Namespace)
	for name, batch := range w.Tables {
		n += len(name)
		for _, row := range batch.Rows {
			for k, v := range row.Tags {
				n += len(k) + len(v)
			}
			for k := range row.Fields {
				n += len(k) + 8
			}
		}
	}
	return n
}
