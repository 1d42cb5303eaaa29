// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package tracing provides the explicit, ambient-state-free distributed
// tracing value type carried through the write buffer's metadata envelope,
// plus an in-memory span recorder for use in tests.
//
// Trace context is threaded as a plain value (see Context) rather than
// through context.Context, so it survives being written to a backend,
// serialized over the wire, and read back by an unrelated goroutine.
package tracing

import (
	"go.opentelemetry.io/otel/trace"
)

// Context is a distributed tracing span context: trace id, span id, parent
// span id, and any links recorded when the span was created. It wraps
// go.opentelemetry.io/otel/trace.SpanContext, the wire type used throughout
// this module, rather than a bespoke struct.
type Context struct {
	trace.SpanContext

	// ParentSpanID is the span id of the span that created this context, if
	// any. The zero value means this context has no parent.
	ParentSpanID trace.SpanID

	// Links records span contexts this one is linked to, in addition to any
	// parent relationship.
	Links []trace.Link
}

// FromSpan builds a Context from a live span's context and its parent.
func FromSpan(sc trace.SpanContext, parent trace.SpanID, links ...trace.Link) Context {
	return Context{
		SpanContext:  sc,
		ParentSpanID: parent,
		Links:        links,
	}
}

// Equal reports whether two contexts refer to the same trace id, span id,
// and parent span id. Links are not compared: a consumer-side context that
// links back to a producer-side context is considered equivalent by
// callers that care about link relations (see Recorder).
func (c Context) Equal(other Context) bool {
	return c.TraceID() == other.TraceID() &&
		c.SpanID() == other.SpanID() &&
		c.ParentSpanID == other.ParentSpanID
}

// LinksTo reports whether c carries a link back to other's (trace id, span
// id) pair.
func (c Context) LinksTo(other Context) bool {
	for _, link := range c.Links {
		if link.SpanContext.TraceID() == other.TraceID() && link.SpanContext.SpanID() == other.SpanID() {
			return true
		}
	}
	return false
}
