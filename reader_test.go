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

func TestStreamHandlerSeekWhileStreamingFails(t *testing.T) {
	ctx := context.Background()
	backend := mock.New()
	cfg := writebuffer.Config{Partitions: 1, AutoCreate: true}

	w, err := writebuffer.NewWriter(ctx, backend, cfg)
	require.NoError(t, err)
	defer w.Close()

	r, err := writebuffer.NewReader(ctx, backend, cfg)
	require.NoError(t, err)

	_, err = w.StoreLineProtocol(ctx, 0, "upc user=1i 100", time.Unix(0, 0))
	require.NoError(t, err)

	h, err := r.StreamHandler(0)
	require.NoError(t, err)

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	started := make(chan struct{})
	go func() {
		for op, err := range h.Stream(streamCtx) {
			close(started)
			_ = op
			_ = err
			<-streamCtx.Done()
			return
		}
	}()
	<-started

	err = h.Seek(ctx, 0)
	require.ErrorIs(t, err, writebuffer.ErrStreamInProgress)
}

func TestReaderUnknownPartition(t *testing.T) {
	ctx := context.Background()
	backend := mock.New()
	cfg := writebuffer.Config{Partitions: 1, AutoCreate: true}

	r, err := writebuffer.NewReader(ctx, backend, cfg)
	require.NoError(t, err)

	_, err = r.StreamHandler(5)
	require.ErrorIs(t, err, writebuffer.ErrUnknownPartition)

	_, err = r.FetchHighWatermark(ctx, 5)
	require.ErrorIs(t, err, writebuffer.ErrUnknownPartition)
}
