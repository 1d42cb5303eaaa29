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
	"time"

	"github.com/z5labs/writebuffer/clock"
	"github.com/z5labs/writebuffer/dml"
	"github.com/z5labs/writebuffer/health"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WriterOption configures a Writer constructed by NewWriter.
type WriterOption func(*Writer)

var _ health.Monitor = (*Writer)(nil)

// WithClock overrides the time source used to stamp producer timestamps.
// Defaults to clock.System{}.
func WithClock(c clock.Provider) WriterOption {
	return func(w *Writer) { w.clock = c }
}

// WithTracerProvider overrides the OTel TracerProvider used for the
// producer's own observability spans (the trace_collector capability,
// distilled spec §6). Defaults to otel.GetTracerProvider(); tests typically
// pass a TracerProvider wired to a tracing.RingBufferRecorder.
func WithTracerProvider(tp trace.TracerProvider) WriterOption {
	return func(w *Writer) { w.tracer = tp.Tracer("github.com/z5labs/writebuffer") }
}

// WithLinger overrides the batching linger duration. Defaults to 0 (no
// batching: every operation submits as its own batch of one).
func WithLinger(d time.Duration) WriterOption {
	return func(w *Writer) { w.linger = d }
}

// WithMaxBatchBytes overrides the batch size threshold. Defaults to 0 (no
// size-triggered submission; only linger and Flush submit).
func WithMaxBatchBytes(n int) WriterOption {
	return func(w *Writer) { w.maxBatchBytes = n }
}

// WithLogger overrides the Writer's structured logger. Pass
// slog.New(noop.LogHandler{}) to silence it entirely, e.g. in tests that
// assert on other log output and would otherwise be drowned out.
func WithLogger(l *slog.Logger) WriterOption {
	return func(w *Writer) { w.log = l }
}

// Writer is the write buffer's producer (distilled spec §4.1): it accepts
// operations, assigns them to partitions, batches them per the configured
// linger/size thresholds, and commits batches to a Backend.
type Writer struct {
	backend BackendWriter
	clock   clock.Provider
	tracer  trace.Tracer

	linger        time.Duration
	maxBatchBytes int

	log *slog.Logger

	mu      sync.Mutex
	workers map[uint32]*partitionWorker
	cancel  context.CancelFunc
}

// NewWriter constructs a Writer over backend. If cfg.AutoCreate is set, the
// backend's partitions are created before the Writer is returned; if not
// and the backend's registry is missing partitions, NewWriter fails
// (distilled spec §4.4).
func NewWriter(ctx context.Context, backend BackendWriter, cfg Config, opts ...WriterOption) (*Writer, error) {
	if cfg.AutoCreate {
		if err := backend.EnsurePartitions(ctx, cfg.Partitions); err != nil {
			return nil, fmt.Errorf("writebuffer: ensure partitions: %w", err)
		}
	}
	if len(backend.PartitionIDs()) == 0 {
		return nil, fmt.Errorf("writebuffer: %w: no partitions provisioned", ErrUnknownPartition)
	}

	runCtx, cancel := context.WithCancel(context.Background())

	w := &Writer{
		backend:       backend,
		clock:         clock.System{},
		tracer:        otel.Tracer("github.com/z5labs/writebuffer"),
		linger:        cfg.Linger,
		maxBatchBytes: cfg.MaxBatchBytes,
		log:           logger().With(slog.String("backend", backend.TypeName())),
		workers:       make(map[uint32]*partitionWorker),
		cancel:        cancel,
	}
	for _, opt := range opts {
		opt(w)
	}

	for id := range backend.PartitionIDs() {
		pw := newPartitionWorker(id, w.backend, w.clock, w.linger, w.maxBatchBytes, w.log)
		w.workers[id] = pw
		go pw.run(runCtx)
	}

	return w, nil
}

// PartitionIDs implements the Writer capability set of distilled spec §4.1.
func (w *Writer) PartitionIDs() PartitionSet {
	return w.backend.PartitionIDs()
}

// TypeName implements the Writer capability set.
func (w *Writer) TypeName() string {
	return w.backend.TypeName()
}

// Healthy implements health.Monitor by delegating to the backend if it
// implements health.Monitor itself, and otherwise reporting healthy as long
// as the backend still reports at least one provisioned partition.
func (w *Writer) Healthy(ctx context.Context) (bool, error) {
	if hm, ok := w.backend.(health.Monitor); ok {
		return hm.Healthy(ctx)
	}
	return len(w.backend.PartitionIDs()) > 0, nil
}

// StoreOperation commits a single operation to partition, suspending until
// the owning batch has actually been written (distilled spec §9's open
// question: the future never resolves before durability).
func (w *Writer) StoreOperation(ctx context.Context, partition uint32, op dml.Operation) (dml.Meta, error) {
	w.mu.Lock()
	pw, ok := w.workers[partition]
	w.mu.Unlock()
	if !ok {
		return dml.Meta{}, fmt.Errorf("writebuffer: store operation: %w", ErrUnknownPartition)
	}

	spanOpts := []trace.SpanStartOption{
		trace.WithAttributes(attribute.Int64("messaging.destination.partition.id", int64(partition))),
	}
	if caller := op.Meta().Span; caller != nil {
		spanOpts = append(spanOpts, trace.WithLinks(trace.Link{SpanContext: caller.SpanContext}))
	}
	spanCtx, span := w.tracer.Start(ctx, "writebuffer.StoreOperation", spanOpts...)
	defer span.End()

	reply := make(chan storeResult, 1)
	req := pendingReq{meta: op.Meta(), op: op, reply: reply}

	select {
	case pw.enqueue <- req:
	case <-spanCtx.Done():
		return dml.Meta{}, spanCtx.Err()
	}

	select {
	case res := <-reply:
		return res.meta, res.err
	case <-spanCtx.Done():
		// Best-effort cancellation: the request is already enqueued and
		// owned by the partition worker, so it may still commit even
		// though this call returns early.
		return dml.Meta{}, spanCtx.Err()
	}
}

// StoreLineProtocol parses lp as line protocol and stores the resulting
// write. Primarily intended for testing (distilled spec §4.1).
func (w *Writer) StoreLineProtocol(ctx context.Context, partition uint32, lp string, defaultTime time.Time) (dml.Meta, error) {
	write, err := dml.ParseLineProtocol("test_db", lp, defaultTime)
	if err != nil {
		return dml.Meta{}, fmt.Errorf("writebuffer: store line protocol: %w: %v", ErrParseError, err)
	}
	return w.StoreOperation(ctx, partition, write)
}

// Flush forces immediate submission of every partition's pending batch and
// waits for the backend to acknowledge them. It does not wait for
// operations enqueued after Flush was called (distilled spec §4.1).
// Partitions are flushed concurrently, so a slow backend commit on one
// partition does not delay the request to every other partition.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	workers := make([]*partitionWorker, 0, len(w.workers))
	for _, pw := range w.workers {
		workers = append(workers, pw)
	}
	w.mu.Unlock()

	p := pool.New().WithContext(ctx).WithCancelOnError()
	for _, pw := range workers {
		pw := pw
		p.Go(func(ctx context.Context) error {
			done := make(chan struct{})
			select {
			case pw.flush <- done:
			case <-ctx.Done():
				return ctx.Err()
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return p.Wait()
}

// Close stops every partition worker. It is not part of the distilled
// spec's interface but is the idiomatic Go way to release the goroutines
// NewWriter starts; callers that never tear down a Writer may ignore it.
func (w *Writer) Close() error {
	w.cancel()
	return nil
}
