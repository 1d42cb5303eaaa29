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

func TestMetaSequenced(t *testing.T) {
	m := dml.Unsequenced(nil)
	assert.False(t, m.Sequenced())

	m = m.WithSequence(time.Now(), dml.Sequence{Partition: 0, Number: 5})
	assert.True(t, m.Sequenced())
	assert.Equal(t, uint64(5), m.Sequence.Number)
}

func TestMetaEqual(t *testing.T) {
	now := time.Now()
	a := dml.Unsequenced(nil).WithSequence(now, dml.Sequence{Partition: 0, Number: 1})
	b := dml.Unsequenced(nil).WithSequence(now, dml.Sequence{Partition: 0, Number: 1})
	assert.True(t, a.Equal(b))

	c := dml.Unsequenced(nil).WithSequence(now, dml.Sequence{Partition: 0, Number: 2})
	assert.False(t, a.Equal(c))
}
