// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/z5labs/writebuffer/kafka"

// metricsRecorder holds the OTel instruments a Backend reports produce/
// consume activity through.
type metricsRecorder struct {
	recordsAppended metric.Int64Counter
	recordsConsumed metric.Int64Counter
	appendFailures  metric.Int64Counter
}

func newMetricsRecorder(mp metric.MeterProvider) (*metricsRecorder, error) {
	meter := mp.Meter(meterName)

	recordsAppended, err := meter.Int64Counter(
		"writebuffer.kafka.records.appended",
		metric.WithDescription("Total number of records produced to the backing topic"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	recordsConsumed, err := meter.Int64Counter(
		"writebuffer.kafka.records.consumed",
		metric.WithDescription("Total number of records read back from the backing topic"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	appendFailures, err := meter.Int64Counter(
		"writebuffer.kafka.append.failures",
		metric.WithDescription("Total number of AppendBatch calls that failed"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsRecorder{
		recordsAppended: recordsAppended,
		recordsConsumed: recordsConsumed,
		appendFailures:  appendFailures,
	}, nil
}

func (m *metricsRecorder) recordAppended(ctx context.Context, topic string, partition uint32, count int) {
	m.recordsAppended.Add(ctx, int64(count),
		metric.WithAttributes(
			attribute.String("topic", topic),
			attribute.Int64("partition", int64(partition)),
		),
	)
}

func (m *metricsRecorder) recordAppendFailure(ctx context.Context, topic string, partition uint32) {
	m.appendFailures.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("topic", topic),
			attribute.Int64("partition", int64(partition)),
		),
	)
}

func (m *metricsRecorder) recordConsumed(ctx context.Context, topic string, partition uint32) {
	m.recordsConsumed.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("topic", topic),
			attribute.Int64("partition", int64(partition)),
		),
	)
}
