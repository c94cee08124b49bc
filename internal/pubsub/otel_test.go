package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingBridge(t *testing.T) {
	ctx := context.Background()
	config := TracingConfig{
		Enabled:     true,
		ServiceName: "test-service",
		ZipkinURL:   "http://localhost:9411/api/v2/spans",
	}
	tracer, cleanup, err := SetupOTel(ctx, config)
	require.NoError(t, err)
	defer cleanup()

	bridge := NewWatermillBridgeWithTracer(tracer)
	require.NotNil(t, bridge)

	received := make(chan Message, 1)
	err = bridge.Subscribe(ctx, "test.topic", func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)

	err = bridge.Publish(ctx, Message{
		Topic:    "test.topic",
		NodeID:   "node-1",
		Payload:  []byte(`{"group":"topichub:room:1"}`),
		Metadata: map[string]string{"request_id": "req-123"},
	})
	require.NoError(t, err)

	msg := <-received
	assert.Equal(t, "test.topic", msg.Topic)
	assert.Equal(t, "node-1", msg.NodeID)
	assert.Equal(t, "req-123", msg.Metadata["request_id"])

	assert.NoError(t, bridge.Close())
}

func TestSetupOTel(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled tracing", func(t *testing.T) {
		tracer, cleanup, err := SetupOTel(ctx, TracingConfig{Enabled: false})
		require.NoError(t, err)
		require.NotNil(t, tracer)
		require.NotNil(t, cleanup)

		_, span := tracer.Start(ctx, "test")
		span.End()
		cleanup()
	})

	t.Run("enabled tracing with unreachable collector", func(t *testing.T) {
		tracer, cleanup, err := SetupOTel(ctx, TracingConfig{
			Enabled:     true,
			ServiceName: "test-service",
			ZipkinURL:   "http://invalid-url:9411/api/v2/spans",
		})
		require.NoError(t, err)
		require.NotNil(t, tracer)
		require.NotNil(t, cleanup)
		cleanup()
	})
}
