package testutil

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

// Kafka is a single-node broker started for one test. It is terminated by
// t.Cleanup.
type Kafka struct {
	Brokers []string
}

// StartKafka boots a KRaft broker and creates topics with one partition each,
// so tests that read partition 0 see every message.
func StartKafka(ctx context.Context, t *testing.T, topics ...string) *Kafka {
	t.Helper()

	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.6.1", kafka.WithClusterID("lending-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(stopCtx); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")

	k := &Kafka{Brokers: brokers}
	if len(topics) > 0 {
		k.CreateTopics(t, topics...)
	}
	return k
}

// CreateTopics creates topics through the cluster controller.
func (k *Kafka) CreateTopics(t *testing.T, topics ...string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", k.Brokers[0])
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	configs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		configs[i] = kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}
	}
	require.NoError(t, cc.CreateTopics(configs...), "create topics %v", topics)
}
