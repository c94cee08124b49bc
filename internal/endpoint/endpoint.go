// Package endpoint defines subscriber endpoints: addressable destinations the
// topic registry delivers broadcast messages to.
package endpoint

import (
	"errors"
)

var (
	// ErrMailboxFull is returned by Send when the endpoint's buffer is full.
	ErrMailboxFull = errors.New("endpoint: mailbox full")

	// ErrClosed is returned by Send after the endpoint has been closed.
	ErrClosed = errors.New("endpoint: closed")
)

// Message is one broadcast as seen by a subscriber.
type Message struct {
	// Topic is the topic the message was broadcast on.
	Topic string
	// Sender is the ID of the broadcasting endpoint, empty for anonymous broadcasts.
	Sender string
	// Payload is the opaque message body.
	Payload []byte
	// Metadata carries optional key-value context.
	Metadata map[string]string
}

// Endpoint is a subscriber. ID is its identity in membership sets and the
// value compared against a broadcast's sender. Send must not block: it hands
// the message off or reports why it could not.
type Endpoint interface {
	ID() string
	Send(msg Message) error
}

// Monitored is implemented by endpoints with a lifetime. Done is closed once
// the endpoint will never accept messages again.
type Monitored interface {
	Done() <-chan struct{}
}

// Func adapts a function into an Endpoint.
type Func struct {
	id   string
	send func(Message) error
}

// NewFunc creates an endpoint that calls send for every delivery. send must
// return quickly.
func NewFunc(id string, send func(Message) error) *Func {
	return &Func{id: id, send: send}
}

// ID implements Endpoint.
func (f *Func) ID() string { return f.id }

// Send implements Endpoint.
func (f *Func) Send(msg Message) error { return f.send(msg) }
