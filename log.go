// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writebuffer

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func logger() *slog.Logger {
	return slog.Default().With(slog.String("component", "github.com/z5labs/writebuffer"))
}

func tracer() trace.Tracer {
	return otel.Tracer("github.com/z5labs/writebuffer")
}

// PartitionAttr returns a slog attribute for a write buffer partition id.
func PartitionAttr(partition uint32) slog.Attr {
	return slog.Int64("messaging.destination.partition.id", int64(partition))
}

// SequenceAttr returns a slog attribute for an assigned sequence number.
func SequenceAttr(seq uint64) slog.Attr {
	return slog.Uint64("messaging.writebuffer.sequence", seq)
}
