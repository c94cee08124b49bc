package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type joinEvent struct {
	Group  string `json:"group"`
	Member string `json:"member"`
}

func TestWatermillBridge_FanOutToEverySubscriber(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx := context.Background()

	var mu sync.Mutex
	got := map[string]int{}
	for _, name := range []string{"a", "b"} {
		name := name
		require.NoError(t, bridge.Subscribe(ctx, "bus.events", func(ctx context.Context, msg Message) error {
			mu.Lock()
			got[name]++
			mu.Unlock()
			return nil
		}))
	}

	require.NoError(t, bridge.Publish(ctx, Message{Topic: "bus.events", Payload: []byte("x")}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got["a"] == 1 && got["b"] == 1
	}, time.Second, 10*time.Millisecond)
}

func TestWatermillBridge_HandlerErrorDoesNotStopLoop(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx := context.Background()
	calls := make(chan struct{}, 2)
	require.NoError(t, bridge.Subscribe(ctx, "bus.errors", func(ctx context.Context, msg Message) error {
		calls <- struct{}{}
		return errors.New("boom")
	}))

	require.NoError(t, bridge.Publish(ctx, Message{Topic: "bus.errors"}))
	require.NoError(t, bridge.Publish(ctx, Message{Topic: "bus.errors"}))

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatalf("handler call %d did not happen", i+1)
		}
	}
}

func TestTypedEvent(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx := context.Background()
	event := NewEvent[joinEvent]("bus.typed")

	received := make(chan joinEvent, 1)
	require.NoError(t, bridge.Subscribe(ctx, event.Name(), func(ctx context.Context, msg Message) error {
		payload, err := event.Decode(msg)
		if err != nil {
			return err
		}
		assert.Equal(t, "node-a", msg.NodeID)
		received <- payload
		return nil
	}))

	require.NoError(t, Publish(ctx, bridge, event, "node-a", joinEvent{Group: "g", Member: "m"}))

	select {
	case payload := <-received:
		assert.Equal(t, joinEvent{Group: "g", Member: "m"}, payload)
	case <-time.After(time.Second):
		t.Fatal("typed event was not delivered")
	}
}
