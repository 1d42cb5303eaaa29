// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tracing_test

import (
	"testing"

	"github.com/z5labs/writebuffer/tracing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func newSpanContext(traceID byte, spanID byte) trace.SpanContext {
	tid := trace.TraceID{}
	tid[15] = traceID
	sid := trace.SpanID{}
	sid[7] = spanID
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
	})
}

func TestContextEqual(t *testing.T) {
	a := tracing.FromSpan(newSpanContext(1, 1), trace.SpanID{})
	b := tracing.FromSpan(newSpanContext(1, 1), trace.SpanID{})
	c := tracing.FromSpan(newSpanContext(2, 1), trace.SpanID{})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestContextLinksTo(t *testing.T) {
	producer := tracing.FromSpan(newSpanContext(1, 1), trace.SpanID{})
	consumer := tracing.FromSpan(
		newSpanContext(2, 2),
		trace.SpanID{},
		trace.Link{SpanContext: producer.SpanContext},
	)

	assert.True(t, consumer.LinksTo(producer))

	other := tracing.FromSpan(newSpanContext(3, 3), trace.SpanID{})
	assert.False(t, consumer.LinksTo(other))
}
