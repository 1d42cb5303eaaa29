// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writebuffer_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/z5labs/writebuffer"
	"github.com/z5labs/writebuffer/health"
	"github.com/z5labs/writebuffer/mock"
	"github.com/z5labs/writebuffer/noop"

	"github.com/stretchr/testify/require"
)

func TestWriterReaderHealthy(t *testing.T) {
	ctx := context.Background()
	backend := mock.New()
	cfg := writebuffer.Config{Partitions: 1, AutoCreate: true}

	w, err := writebuffer.NewWriter(ctx, backend, cfg)
	require.NoError(t, err)
	defer w.Close()

	r, err := writebuffer.NewReader(ctx, backend, cfg)
	require.NoError(t, err)

	combined := health.And(w, r, backend)

	healthy, err := combined.Healthy(ctx)
	require.NoError(t, err)
	require.True(t, healthy)
}

func TestWriterSilentLogging(t *testing.T) {
	ctx := context.Background()
	backend := mock.New()
	cfg := writebuffer.Config{Partitions: 1, AutoCreate: true}

	w, err := writebuffer.NewWriter(ctx, backend, cfg, writebuffer.WithLogger(slog.New(noop.LogHandler{})))
	require.NoError(t, err)
	defer w.Close()

	_, err = w.StoreLineProtocol(ctx, 0, "upc user=1i 100", time.Unix(0, 0))
	require.NoError(t, err)
}
