package pubsub

import (
	"context"
	"encoding/json"
)

// Event[T] binds a bus topic to a payload type so publishers and handlers
// agree on the JSON shape.
type Event[T any] struct {
	topicName string
}

// NewEvent creates a typed event for the given bus topic.
func NewEvent[T any](name string) Event[T] {
	return Event[T]{topicName: name}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topicName
}

// Publish sends a typed event. The compiler ensures 'payload' matches 'T'.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], nodeID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		NodeID:  nodeID,
		Payload: data,
	})
}

// Decode unmarshals a message received on the event's topic.
func (e Event[T]) Decode(msg Message) (T, error) {
	var payload T
	err := json.Unmarshal(msg.Payload, &payload)
	return payload, err
}
