// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package dml

import "time"

// Operation is a DML operation carrying a metadata envelope. Write and
// Delete are the only implementations; the unexported marker method keeps
// the set closed, mirroring the "tagged value, variant of {Write,
// Delete, …}" shape of the operation without resorting to a sum-type
// workaround.
type Operation interface {
	dmlOperation()

	// Meta returns the operation's metadata envelope.
	Meta() Meta

	// SetMeta replaces the operation's metadata envelope. Write buffer
	// backends call this once, at commit, to stamp the assigned sequence
	// and producer timestamp.
	SetMeta(Meta)
}

// Row is a single line-protocol-derived row: a measurement's tag set,
// field set, and timestamp. This is a deliberately minimal stand-in for a
// full columnar mutable batch, sufficient for the write buffer's own
// round-trip and ordering guarantees; the query/storage engine that
// eventually consumes these rows owns any richer representation.
type Row struct {
	Tags   map[string]string
	Fields map[string]any
	Time   time.Time
}

// TableBatch is the set of rows destined for a single table within a
// namespace.
type TableBatch struct {
	Rows []Row
}

// Write is a DML write operation: a namespace, the table batches destined
// for it, and a metadata envelope.
type Write struct {
	Namespace string
	Tables    map[string]TableBatch
	meta      Meta
}

// NewWrite constructs an unsequenced Write.
func NewWrite(namespace string, tables map[string]TableBatch, meta Meta) *Write {
	return &Write{
		Namespace: namespace,
		Tables:    tables,
		meta:      meta,
	}
}

func (w *Write) dmlOperation() {}

// Meta implements Operation.
func (w *Write) Meta() Meta { return w.meta }

// SetMeta implements Operation.
func (w *Write) SetMeta(m Meta) { w.meta = m }

// Delete is a DML delete operation: a database, table, and predicate
// expression describing which rows to remove.
type Delete struct {
	Database  string
	Table     string
	Predicate string
	meta      Meta
}

// NewDelete constructs an unsequenced Delete.
func NewDelete(database, table, predicate string, meta Meta) *Delete {
	return &Delete{
		Database:  database,
		Table:     table,
		Predicate: predicate,
		meta:      meta,
	}
}

func (d *Delete) dmlOperation() {}

// Meta implements Operation.
func (d *Delete) Meta() Meta { return d.meta }

// SetMeta implements Operation.
func (d *Delete) SetMeta(m Meta) { d.meta = m }

// EqualWriteOp reports whether two Write operations carry the same
// namespace, the same table batches (by row content), and equal metadata.
// Used by the conformance suite's round-trip assertions in place of the
// original assert_write_op_eq helper.
func EqualWriteOp(a, b *Write) bool {
	if a.Namespace != b.Namespace {
		return false
	}
	if !a.meta.Equal(b.meta) {
		return false
	}
	if len(a.Tables) != len(b.Tables) {
		return false
	}
	for name, at := range a.Tables {
		bt, ok := b.Tables[name]
		if !ok || len(at.Rows) != len(bt.Rows) {
			return false
		}
		for i, ar := range at.Rows {
			br := bt.Rows[i]
			if !ar.Time.Equal(br.Time) || len(ar.Tags) != len(br.Tags) || len(ar.Fields) != len(br.Fields) {
				return false
			}
			for k, v := range ar.Tags {
				if br.Tags[k] != v {
					return false
				}
			}
			for k, v := range ar.Fields {
				if br.Fields[k] != v {
					return false
				}
			}
		}
	}
	return true
}
