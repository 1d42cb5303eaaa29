// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tracing

import (
	"context"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Span is a captured, exported span, reduced to the fields the write
// buffer's conformance suite asserts against.
type Span struct {
	Name string
	Ctx  Context
}

// Recorder is the "trace_collector" capability from the write buffer
// configuration surface: a sink a producer's emitted spans are recorded
// into for observability.
type Recorder interface {
	Spans() []Span
}

// RingBufferRecorder is an in-memory, bounded span recorder. It implements
// sdktrace.SpanExporter so it can be wired into an OTel SDK TracerProvider
// via sdktrace.WithSyncer, making it a drop-in trace_collector for tests.
//
// A size of 0 means unbounded.
type RingBufferRecorder struct {
	mu    sync.Mutex
	size  int
	spans []Span
}

// NewRingBufferRecorder creates a recorder that retains at most size spans,
// dropping the oldest once full. size <= 0 means unbounded.
func NewRingBufferRecorder(size int) *RingBufferRecorder {
	return &RingBufferRecorder{size: size}
}

// ExportSpans implements sdktrace.SpanExporter.
func (r *RingBufferRecorder) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range spans {
		var parentID trace.SpanID
		if p := s.Parent(); p.IsValid() {
			parentID = p.SpanID()
		}

		sdkLinks := s.Links()
		links := make([]trace.Link, len(sdkLinks))
		for i, l := range sdkLinks {
			links[i] = trace.Link{SpanContext: l.SpanContext, Attributes: l.Attributes}
		}

		r.spans = append(r.spans, Span{
			Name: s.Name(),
			Ctx:  FromSpan(s.SpanContext(), parentID, links...),
		})
	}

	if r.size > 0 && len(r.spans) > r.size {
		r.spans = r.spans[len(r.spans)-r.size:]
	}

	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (r *RingBufferRecorder) Shutdown(context.Context) error {
	return nil
}

// Spans returns a snapshot of every span recorded so far, oldest first.
func (r *RingBufferRecorder) Spans() []Span {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Span, len(r.spans))
	copy(out, r.spans)
	return out
}
