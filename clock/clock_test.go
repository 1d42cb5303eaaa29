// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package clock_test

import (
	"testing"
	"time"

	"github.com/z5labs/writebuffer/clock"

	"github.com/stretchr/testify/assert"
)

func TestMock(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	m := clock.NewMock(t0)

	assert.True(t, m.Now().Equal(t0))

	m.Advance(10 * time.Second)
	assert.True(t, m.Now().Equal(t0.Add(10*time.Second)))

	t1 := t0.Add(time.Hour)
	m.Set(t1)
	assert.True(t, m.Now().Equal(t1))
}

func TestSystem(t *testing.T) {
	before := time.Now()
	got := clock.System{}.Now()
	after := time.Now()

	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}
