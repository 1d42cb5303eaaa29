// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package wbtest is the write buffer conformance suite (distilled spec §8,
// the Go rendering of the original perform_generic_tests): the ten seed
// scenarios every backend must satisfy, expressed once and run against
// whichever Backend an Adapter supplies.
package wbtest

import (
	"context"
	"testing"
	"time"

	"github.com/z5labs/writebuffer"
	"github.com/z5labs/writebuffer/clock"
	"github.com/z5labs/writebuffer/dml"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Backend is the combined capability a conformance-tested backend must
// provide: both halves of the writebuffer.Backend plug-in contract over the
// same underlying partitions.
type Backend interface {
	writebuffer.BackendWriter
	writebuffer.BackendReader
}

// Adapter constructs a fresh, empty Backend for a single test. Backends
// that need external resources (e.g. writebuffer/kafka against a live
// broker) use RandomTopicName to avoid collisions between scenarios.
type Adapter interface {
	// NewBackend returns a Backend with no partitions yet provisioned.
	NewBackend(t *testing.T) Backend
}

// RandomTopicName returns a collision-resistant identifier, suitable for a
// Kafka adapter to use as a topic name per scenario.
func RandomTopicName(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Run executes every conformance scenario against adapter, as subtests of t.
func Run(t *testing.T, adapter Adapter) {
	t.Run("single partition ordering", func(t *testing.T) { testSinglePartitionOrdering(t, adapter) })
	t.Run("cursor survives stream drop", func(t *testing.T) { testCursorSurvivesStreamDrop(t, adapter) })
	t.Run("multi partition isolation", func(t *testing.T) { testMultiPartitionIsolation(t, adapter) })
	t.Run("seek forward backward and past tail", func(t *testing.T) { testSeek(t, adapter) })
	t.Run("watermark tracking", func(t *testing.T) { testWatermarkTracking(t, adapter) })
	t.Run("unknown partition rejected", func(t *testing.T) { testUnknownPartitionRejected(t, adapter) })
	t.Run("flush empties the buffer", func(t *testing.T) { testFlushEmptiesBuffer(t, adapter) })
	t.Run("timestamp is ingestion time", func(t *testing.T) { testTimestampIsIngestionTime(t, adapter) })
	t.Run("trace context propagation", func(t *testing.T) { testTraceContextPropagation(t, adapter) })
	t.Run("auto create gating", func(t *testing.T) { testAutoCreateGating(t, adapter) })
}

func newBus(ctx context.Context, t *testing.T, adapter Adapter, partitions uint32, opts ...writebuffer.WriterOption) (*writebuffer.Writer, *writebuffer.Reader, Backend) {
	t.Helper()

	backend := adapter.NewBackend(t)
	cfg := writebuffer.Config{Partitions: partitions, AutoCreate: true}

	w, err := writebuffer.NewWriter(ctx, backend, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	r, err := writebuffer.NewReader(ctx, backend, cfg)
	require.NoError(t, err)

	return w, r, backend
}

func writeLP(ctx context.Context, t *testing.T, w *writebuffer.Writer, partition uint32, lp string, at time.Time) dml.Meta {
	t.Helper()
	meta, err := w.StoreLineProtocol(ctx, partition, lp, at)
	require.NoError(t, err)
	return meta
}

func pull(ctx context.Context, t *testing.T, h *writebuffer.StreamHandler) dml.Operation {
	t.Helper()
	for op, err := range h.Stream(ctx) {
		require.NoError(t, err)
		return op
	}
	t.Fatal("stream ended without yielding an operation")
	return nil
}

func pending(t *testing.T, h *writebuffer.StreamHandler, timeout time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, err := range h.Stream(ctx) {
		require.ErrorIs(t, err, context.DeadlineExceeded)
		return
	}
}

func testSinglePartitionOrdering(t *testing.T, adapter Adapter) {
	ctx := context.Background()
	w, r, _ := newBus(ctx, t, adapter, 1)

	writeLP(ctx, t, w, 0, "upc user=1i 100", time.Unix(0, 0))
	writeLP(ctx, t, w, 0, "upc user=2i 200", time.Unix(0, 0))
	writeLP(ctx, t, w, 0, "upc user=3i 300", time.Unix(0, 0))

	h, err := r.StreamHandler(0)
	require.NoError(t, err)

	var got []int64
	n := 0
	for op, err := range h.Stream(ctx) {
		require.NoError(t, err)
		write := op.(*dml.Write)
		got = append(got, write.Tables["upc"].Rows[0].Fields["user"].(int64))
		n++
		if n == 3 {
			break
		}
	}
	require.Equal(t, []int64{1, 2, 3}, got)

	pending(t, h, 100*time.Millisecond)
}

func testCursorSurvivesStreamDrop(t *testing.T, adapter Adapter) {
	ctx := context.Background()
	w, r, _ := newBus(ctx, t, adapter, 1)

	writeLP(ctx, t, w, 0, "upc user=1i 100", time.Unix(0, 0))
	writeLP(ctx, t, w, 0, "upc user=2i 200", time.Unix(0, 0))
	writeLP(ctx, t, w, 0, "upc user=3i 300", time.Unix(0, 0))

	h, err := r.StreamHandler(0)
	require.NoError(t, err)

	first := pull(ctx, t, h)
	require.Equal(t, int64(1), first.(*dml.Write).Tables["upc"].Rows[0].Fields["user"].(int64))

	// Dropping the first range loop (pull only consumed one element) and
	// starting a new Stream should resume from the cursor, not from zero.
	second := pull(ctx, t, h)
	require.Equal(t, int64(2), second.(*dml.Write).Tables["upc"].Rows[0].Fields["user"].(int64))

	third := pull(ctx, t, h)
	require.Equal(t, int64(3), third.(*dml.Write).Tables["upc"].Rows[0].Fields["user"].(int64))
}

func testMultiPartitionIsolation(t *testing.T, adapter Adapter) {
	ctx := context.Background()
	w, r, _ := newBus(ctx, t, adapter, 2)

	writeLP(ctx, t, w, 0, "upc user=1i 100", time.Unix(0, 0))
	writeLP(ctx, t, w, 1, "upc user=2i 200", time.Unix(0, 0))
	writeLP(ctx, t, w, 0, "upc user=3i 300", time.Unix(0, 0))

	h0, err := r.StreamHandler(0)
	require.NoError(t, err)
	h1, err := r.StreamHandler(1)
	require.NoError(t, err)

	require.Equal(t, int64(1), pull(ctx, t, h0).(*dml.Write).Tables["upc"].Rows[0].Fields["user"].(int64))
	require.Equal(t, int64(3), pull(ctx, t, h0).(*dml.Write).Tables["upc"].Rows[0].Fields["user"].(int64))
	require.Equal(t, int64(2), pull(ctx, t, h1).(*dml.Write).Tables["upc"].Rows[0].Fields["user"].(int64))
}

func testSeek(t *testing.T, adapter Adapter) {
	ctx := context.Background()
	w, r, _ := newBus(ctx, t, adapter, 1)

	writeLP(ctx, t, w, 0, "upc user=1i 100", time.Unix(0, 0))
	writeLP(ctx, t, w, 0, "upc user=2i 200", time.Unix(0, 0))

	h, err := r.StreamHandler(0)
	require.NoError(t, err)

	require.NoError(t, h.Seek(ctx, 1))
	require.Equal(t, int64(2), pull(ctx, t, h).(*dml.Write).Tables["upc"].Rows[0].Fields["user"].(int64))

	require.NoError(t, h.Seek(ctx, 0))
	require.Equal(t, int64(1), pull(ctx, t, h).(*dml.Write).Tables["upc"].Rows[0].Fields["user"].(int64))
	require.Equal(t, int64(2), pull(ctx, t, h).(*dml.Write).Tables["upc"].Rows[0].Fields["user"].(int64))

	require.NoError(t, h.Seek(ctx, 1_000_000))
	pending(t, h, 100*time.Millisecond)

	writeLP(ctx, t, w, 0, "upc user=3i 300", time.Unix(0, 0))
	require.Equal(t, int64(3), pull(ctx, t, h).(*dml.Write).Tables["upc"].Rows[0].Fields["user"].(int64))
}

func testWatermarkTracking(t *testing.T, adapter Adapter) {
	ctx := context.Background()
	w, r, _ := newBus(ctx, t, adapter, 2)

	wm0, err := r.FetchHighWatermark(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), wm0)
	wm1, err := r.FetchHighWatermark(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), wm1)

	writeLP(ctx, t, w, 0, "upc user=1i 100", time.Unix(0, 0))
	writeLP(ctx, t, w, 0, "upc user=2i 200", time.Unix(0, 0))
	writeLP(ctx, t, w, 1, "upc user=3i 300", time.Unix(0, 0))

	wm0, err = r.FetchHighWatermark(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(2), wm0)
	wm1, err = r.FetchHighWatermark(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), wm1)
}

func testUnknownPartitionRejected(t *testing.T, adapter Adapter) {
	ctx := context.Background()
	w, _, _ := newBus(ctx, t, adapter, 1)

	_, err := w.StoreLineProtocol(ctx, 99, "upc user=1i 100", time.Unix(0, 0))
	require.ErrorIs(t, err, writebuffer.ErrUnknownPartition)
}

func testFlushEmptiesBuffer(t *testing.T, adapter Adapter) {
	ctx := context.Background()
	w, r, _ := newBus(ctx, t, adapter, 1, writebuffer.WithLinger(time.Hour))

	const n = 20
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			_, err := w.StoreLineProtocol(ctx, 0, "upc user=1i 100", time.Unix(0, 0))
			results <- err
		}(i)
	}

	// Give every goroutine a chance to enqueue with the worker before the
	// linger-hour timer would ever fire on its own.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, w.Flush(ctx))

	for i := 0; i < n; i++ {
		require.NoError(t, <-results)
	}

	wm, err := r.FetchHighWatermark(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(n), wm)
}

func testTimestampIsIngestionTime(t *testing.T, adapter Adapter) {
	ctx := context.Background()
	mockClock := clock.NewMock(time.Unix(1_700_000_000, 0))
	w, r, _ := newBus(ctx, t, adapter, 1, writebuffer.WithClock(mockClock))

	meta := writeLP(ctx, t, w, 0, "upc user=1i 100", time.Unix(0, 0))
	mockClock.Advance(10 * time.Second)

	h, err := r.StreamHandler(0)
	require.NoError(t, err)
	op := pull(ctx, t, h)

	require.True(t, op.Meta().ProducerTime.Equal(meta.ProducerTime))
	require.True(t, op.Meta().ProducerTime.Equal(mockClock.Now().Add(-10*time.Second)))
}

func testTraceContextPropagation(t *testing.T, adapter Adapter) {
	ctx := context.Background()
	w, r, _ := newBus(ctx, t, adapter, 1)

	write := dml.NewWrite(
		"test_db",
		map[string]dml.TableBatch{
			"upc": {Rows: []dml.Row{{Fields: map[string]any{"user": int64(1)}, Time: time.Unix(0, 0)}}},
		},
		dml.Unsequenced(sampleSpanContext()),
	)

	_, err := w.StoreOperation(ctx, 0, write)
	require.NoError(t, err)

	h, err := r.StreamHandler(0)
	require.NoError(t, err)
	op := pull(ctx, t, h)

	require.NotNil(t, op.Meta().Span)
	require.True(t, op.Meta().Span.Equal(*sampleSpanContext()))
}

func testAutoCreateGating(t *testing.T, adapter Adapter) {
	ctx := context.Background()
	backend := adapter.NewBackend(t)

	_, err := writebuffer.NewWriter(ctx, backend, writebuffer.Config{Partitions: 1, AutoCreate: false})
	require.ErrorIs(t, err, writebuffer.ErrUnknownPartition)

	w, err := writebuffer.NewWriter(ctx, backend, writebuffer.Config{Partitions: 1, AutoCreate: true})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w2, err := writebuffer.NewWriter(ctx, backend, writebuffer.Config{Partitions: 1, AutoCreate: false})
	require.NoError(t, err)
	require.NoError(t, w2.Close())
}
