// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka_test

import (
	"os"
	"strings"
	"testing"

	"github.com/z5labs/writebuffer/kafka"
	"github.com/z5labs/writebuffer/wbtest"
)

// maybeSkipIntegration mirrors the distilled spec's maybe_skip_kafka_integration!
// macro: absent TEST_INTEGRATION skips the suite; present without
// KAFKA_CONNECT fails loudly instead of silently skipping, since that
// combination means the test was meant to run.
func maybeSkipIntegration(t *testing.T) []string {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("set TEST_INTEGRATION=1 to run the kafka backend against a live broker")
	}

	brokers := os.Getenv("KAFKA_CONNECT")
	if brokers == "" {
		t.Fatal("TEST_INTEGRATION is set but KAFKA_CONNECT is empty")
	}
	return strings.Split(brokers, ",")
}

type adapter struct {
	brokers []string
}

func (a adapter) NewBackend(t *testing.T) wbtest.Backend {
	t.Helper()

	topic := wbtest.RandomTopicName("writebuffer-conformance")
	backend, err := kafka.New(a.brokers, topic)
	if err != nil {
		t.Fatalf("new kafka backend: %v", err)
	}
	t.Cleanup(backend.Close)
	return backend
}

func TestBackend(t *testing.T) {
	brokers := maybeSkipIntegration(t)
	wbtest.Run(t, adapter{brokers: brokers})
}
