// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package dml_test

import (
	"testing"
	"time"

	"github.com/z5labs/writebuffer/dml"

	"github.com/stretchr/testify/assert"
)

func TestEqualWriteOp(t *testing.T) {
	now := time.Unix(0, 0)
	tables := map[string]dml.TableBatch{
		"upc": {Rows: []dml.Row{{Fields: map[string]any{"user": int64(1)}, Time: now}}},
	}

	a := dml.NewWrite("test_db", tables, dml.Meta{ProducerTime: now})
	b := dml.NewWrite("test_db", tables, dml.Meta{ProducerTime: now})
	assert.True(t, dml.EqualWriteOp(a, b))

	other := dml.NewWrite("other_db", tables, dml.Meta{ProducerTime: now})
	assert.False(t, dml.EqualWriteOp(a, other))
}

func TestOperationMarker(t *testing.T) {
	w := dml.NewWrite("test_db", nil, dml.Meta{})
	var op dml.Operation = w
	op.SetMeta(dml.Meta{ProducerTime: time.Unix(1, 0)})
	assert.Equal(t, int64(1), op.Meta().ProducerTime.Unix())

	d := dml.NewDelete("db", "table", "pred", dml.Meta{})
	op = d
	assert.Equal(t, "db", d.Database)
}
