// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/z5labs/writebuffer/dml"
	"github.com/z5labs/writebuffer/tracing"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/trace"
)

// Kafka record headers used to carry metadata this backend doesn't encode
// into the record value.
const (
	headerProducerTime = "writebuffer-producer-time"
	headerTraceParent  = "traceparent"
	headerKind         = "writebuffer-kind"
)

const (
	kindWrite  = "write"
	kindDelete = "delete"
)

type wireRow struct {
	Tags   map[string]string `json:"tags,omitempty"`
	Fields map[string]any    `json:"fields,omitempty"`
	Time   time.Time         `json:"time"`
}

type wireTableBatch struct {
	Rows []wireRow `json:"rows"`
}

type wireWrite struct {
	Namespace string                    `json:"namespace"`
	Tables    map[string]wireTableBatch `json:"tables"`
}

type wireDelete struct {
	Database  string `json:"database"`
	Table     string `json:"table"`
	Predicate string `json:"predicate"`
}

// encodeRecord renders a single pending operation as a Kafka record bound
// for topic/partition, stamped with producerTime (the producer's own clock
// at commit time). Sequence number is filled in by the broker after a
// successful produce; everything else the decoded operation needs travels
// in the record value/headers.
func encodeRecord(topic string, partition int32, producerTime time.Time, op dml.Operation) (*kgo.Record, error) {
	rec := &kgo.Record{Topic: topic, Partition: partition}
	rec.Headers = append(rec.Headers, kgo.RecordHeader{
		Key:   headerProducerTime,
		Value: []byte(producerTime.Format(time.RFC3339Nano)),
	})

	switch v := op.(type) {
	case *dml.Write:
		tables := make(map[string]wireTableBatch, len(v.Tables))
		for name, batch := range v.Tables {
			rows := make([]wireRow, len(batch.Rows))
			for i, row := range batch.Rows {
				rows[i] = wireRow{Tags: row.Tags, Fields: row.Fields, Time: row.Time}
			}
			tables[name] = wireTableBatch{Rows: rows}
		}

		b, err := json.Marshal(wireWrite{Namespace: v.Namespace, Tables: tables})
		if err != nil {
			return nil, fmt.Errorf("kafka: encode write: %w", err)
		}
		rec.Value = b
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: headerKind, Value: []byte(kindWrite)})

	case *dml.Delete:
		b, err := json.Marshal(wireDelete{Database: v.Database, Table: v.Table, Predicate: v.Predicate})
		if err != nil {
			return nil, fmt.Errorf("kafka: encode delete: %w", err)
		}
		rec.Value = b
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: headerKind, Value: []byte(kindDelete)})

	default:
		return nil, fmt.Errorf("kafka: encode record: unsupported operation type %T", op)
	}

	if span := op.Meta().Span; span != nil {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{
			Key:   headerTraceParent,
			Value: []byte(encodeTraceParent(span.SpanContext)),
		})
	}

	return rec, nil
}

// decodeRecord reverses encodeRecord, reconstructing the operation and its
// producer-time/trace-context metadata from rec.
func decodeRecord(rec *kgo.Record) (dml.Operation, error) {
	var kind string
	var traceParent string
	producerTime := rec.Timestamp
	for _, h := range rec.Headers {
		switch h.Key {
		case headerKind:
			kind = string(h.Value)
		case headerTraceParent:
			traceParent = string(h.Value)
		case headerProducerTime:
			if t, err := time.Parse(time.RFC3339Nano, string(h.Value)); err == nil {
				producerTime = t
			}
		}
	}

	meta := dml.Meta{}
	if traceParent != "" {
		sc, err := decodeTraceParent(traceParent)
		if err == nil && sc.IsValid() {
			span := tracing.FromSpan(sc, trace.SpanID{})
			meta.Span = &span
		}
	}
	meta = meta.WithSequence(producerTime, dml.Sequence{Partition: uint32(rec.Partition), Number: uint64(rec.Offset)})

	switch kind {
	case kindDelete:
		var w wireDelete
		if err := json.Unmarshal(rec.Value, &w); err != nil {
			return nil, fmt.Errorf("kafka: decode delete: %w", err)
		}
		return dml.NewDelete(w.Database, w.Table, w.Predicate, meta), nil

	default:
		var w wireWrite
		if err := json.Unmarshal(rec.Value, &w); err != nil {
			return nil, fmt.Errorf("kafka: decode write: %w", err)
		}
		tables := make(map[string]dml.TableBatch, len(w.Tables))
		for name, batch := range w.Tables {
			rows := make([]dml.Row, len(batch.Rows))
			for i, row := range batch.Rows {
				rows[i] = dml.Row{Tags: row.Tags, Fields: row.Fields, Time: row.Time}
			}
			tables[name] = dml.TableBatch{Rows: rows}
		}
		return dml.NewWrite(w.Namespace, tables, meta), nil
	}
}

// encodeTraceParent renders sc as a W3C traceparent header value. This
// backend carries trace context as a plain header rather than through
// otel/propagation's context.Context-based Inject/Extract, matching the
// module's ambient-context-free design (see package tracing).
func encodeTraceParent(sc trace.SpanContext) string {
	flags := "00"
	if sc.IsSampled() {
		flags = "01"
	}
	return fmt.Sprintf("00-%s-%s-%s", sc.TraceID(), sc.SpanID(), flags)
}

func decodeTraceParent(s string) (trace.SpanContext, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return trace.SpanContext{}, fmt.Errorf("kafka: malformed traceparent %q", s)
	}

	traceID, err := trace.TraceIDFromHex(parts[1])
	if err != nil {
		return trace.SpanContext{}, fmt.Errorf("kafka: malformed traceparent trace id: %w", err)
	}
	spanID, err := trace.SpanIDFromHex(parts[2])
	if err != nil {
		return trace.SpanContext{}, fmt.Errorf("kafka: malformed traceparent span id: %w", err)
	}
	flagByte, err := hex.DecodeString(parts[3])
	if err != nil || len(flagByte) != 1 {
		return trace.SpanContext{}, fmt.Errorf("kafka: malformed traceparent flags: %q", parts[3])
	}

	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.TraceFlags(flagByte[0]),
	}), nil
}
