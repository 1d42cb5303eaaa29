// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writebuffer_test

import (
	"context"
	"testing"
	"time"

	"github.com/z5labs/writebuffer"
	"github.com/z5labs/writebuffer/mock"

	"github.com/stretchr/testify/require"
)

func TestWriterBatchesOnLinger(t *testing.T) {
	ctx := context.Background()
	backend := mock.New()

	w, err := writebuffer.NewWriter(ctx, backend, writebuffer.Config{Partitions: 1, AutoCreate: true}, writebuffer.WithLinger(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	meta, err := w.StoreLineProtocol(ctx, 0, "upc user=1i 100", time.Unix(0, 0))
	require.NoError(t, err)
	require.True(t, meta.Sequenced())
	require.Equal(t, uint64(0), meta.Sequence.Number)
}

func TestWriterUnknownPartition(t *testing.T) {
	ctx := context.Background()
	backend := mock.New()

	w, err := writebuffer.NewWriter(ctx, backend, writebuffer.Config{Partitions: 1, AutoCreate: true})
	require.NoError(t, err)
	defer w.Close()

	_, err = w.StoreLineProtocol(ctx, 7, "upc user=1i 100", time.Unix(0, 0))
	require.ErrorIs(t, err, writebuffer.ErrUnknownPartition)
}

func TestNewWriterFailsWithoutAutoCreate(t *testing.T) {
	ctx := context.Background()
	backend := mock.New()

	_, err := writebuffer.NewWriter(ctx, backend, writebuffer.Config{Partitions: 1, AutoCreate: false})
	require.ErrorIs(t, err, writebuffer.ErrUnknownPartition)
}
