// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tracing_test

import (
	"context"
	"testing"

	"github.com/z5labs/writebuffer/tracing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestRingBufferRecorder(t *testing.T) {
	rec := tracing.NewRingBufferRecorder(2)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(rec))
	defer tp.Shutdown(context.Background())

	tracer := tp.Tracer("test")
	for _, name := range []string{"one", "two", "three"} {
		_, span := tracer.Start(context.Background(), name)
		span.End()
	}
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := rec.Spans()
	require.Len(t, spans, 2)
	assert.Equal(t, "two", spans[0].Name)
	assert.Equal(t, "three", spans[1].Name)
}
