// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mock_test

import (
	"testing"

	"github.com/z5labs/writebuffer/mock"
	"github.com/z5labs/writebuffer/wbtest"
)

type adapter struct{}

func (adapter) NewBackend(t *testing.T) wbtest.Backend {
	return mock.New()
}

func TestBackend(t *testing.T) {
	wbtest.Run(t, adapter{})
}
