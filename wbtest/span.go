// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package wbtest

import (
	"github.com/z5labs/writebuffer/tracing"

	"go.opentelemetry.io/otel/trace"
)

var (
	sampleTraceID = trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	sampleSpanID  = trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
)

// sampleSpanContext returns a fixed, valid tracing.Context used as the
// caller-supplied trace context in the trace-propagation scenario.
func sampleSpanContext() *tracing.Context {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    sampleTraceID,
		SpanID:     sampleSpanID,
		TraceFlags: trace.FlagsSampled,
	})
	c := tracing.FromSpan(sc, trace.SpanID{})
	return &c
}
