//go:build testcontainers

// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/z5labs/writebuffer/wbtest"
)

// setupKafkaContainer starts a single-broker Kafka container in KRaft mode,
// the same way the rest of this module's teacher does for its own Kafka
// integration tests, so this suite runs without TEST_INTEGRATION/
// KAFKA_CONNECT when built with -tags testcontainers.
func setupKafkaContainer(t *testing.T) []string {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image: "docker.io/apache/kafka-native:latest",
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.NetworkMode = "host"
		},
		User: "root",
		Env: map[string]string{
			"KAFKA_NODE_ID":                           "1",
			"KAFKA_PROCESS_ROLES":                     "broker,controller",
			"KAFKA_CONTROLLER_QUORUM_VOTERS":          "1@localhost:9093",
			"KAFKA_CONTROLLER_LISTENER_NAMES":         "CONTROLLER",
			"KAFKA_LISTENERS":                         "PLAINTEXT://0.0.0.0:9092,CONTROLLER://0.0.0.0:9093",
			"KAFKA_ADVERTISED_LISTENERS":              "PLAINTEXT://localhost:9092",
			"KAFKA_LISTENER_SECURITY_PROTOCOL_MAP":    "PLAINTEXT:PLAINTEXT,CONTROLLER:PLAINTEXT",
			"KAFKA_INTER_BROKER_LISTENER_NAME":        "PLAINTEXT",
			"KAFKA_LOG_DIRS":                          "/var/lib/kafka/data",
			"KAFKA_CLUSTER_ID":                        "WmV3pZkQR0O6n5j3x8j6bg==",
			"KAFKA_OFFSETS_TOPIC_REPLICATION_FACTOR":  "1",
			"KAFKA_GROUP_INITIAL_REBALANCE_DELAY_MS":  "0",
			"KAFKA_AUTO_CREATE_TOPICS_ENABLE":          "false",
		},
		WaitingFor: wait.ForLog("Kafka Server started").WithStartupTimeout(60 * time.Second),
	}

	kafkaContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start Kafka container")

	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	})

	time.Sleep(2 * time.Second)

	return []string{"localhost:9092"}
}

func TestBackendWithContainer(t *testing.T) {
	brokers := setupKafkaContainer(t)
	wbtest.Run(t, adapter{brokers: brokers})
}
