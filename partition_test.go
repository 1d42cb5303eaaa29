// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writebuffer_test

import (
	"testing"

	"github.com/z5labs/writebuffer"

	"github.com/stretchr/testify/assert"
)

func TestPartitionSet(t *testing.T) {
	s := writebuffer.NewPartitionSet(1, 2, 3)

	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(9))
	assert.Equal(t, []uint32{1, 2, 3}, s.Sorted())

	other := writebuffer.NewPartitionSet(3, 2, 1)
	assert.True(t, s.Equal(other))

	different := writebuffer.NewPartitionSet(1, 2)
	assert.False(t, s.Equal(different))
}
