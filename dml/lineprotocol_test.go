// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package dml_test

import (
	"testing"
	"time"

	"github.com/z5labs/writebuffer/dml"

	"github.com/stretchr/testify/require"
)

func TestParseLineProtocol(t *testing.T) {
	defaultTime := time.Unix(0, 0)

	write, err := dml.ParseLineProtocol("test_db", "upc,host=a user=1i,active=true 100", defaultTime)
	require.NoError(t, err)

	require.Equal(t, "test_db", write.Namespace)
	require.Contains(t, write.Tables, "upc")

	batch := write.Tables["upc"]
	require.Len(t, batch.Rows, 1)

	row := batch.Rows[0]
	require.Equal(t, "a", row.Tags["host"])
	require.Equal(t, int64(1), row.Fields["user"])
	require.Equal(t, true, row.Fields["active"])
}

func TestParseLineProtocolMultipleMeasurements(t *testing.T) {
	defaultTime := time.Unix(0, 0)
	text := "upc user=1 100\ncpu usage=0.5 200"

	write, err := dml.ParseLineProtocol("test_db", text, defaultTime)
	require.NoError(t, err)
	require.Contains(t, write.Tables, "upc")
	require.Contains(t, write.Tables, "cpu")
}
