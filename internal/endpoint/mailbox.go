package endpoint

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultMailboxSize is the buffer used when NewMailbox is given a size below 1.
const DefaultMailboxSize = 256

// Mailbox is an in-process endpoint backed by a buffered channel.
// Deliveries to a full mailbox are dropped rather than blocking the sender.
type Mailbox struct {
	id string

	mu     sync.RWMutex
	ch     chan Message
	done   chan struct{}
	closed bool
}

var (
	_ Endpoint  = (*Mailbox)(nil)
	_ Monitored = (*Mailbox)(nil)
)

// NewMailbox creates a mailbox with a random ID.
func NewMailbox(size int) *Mailbox {
	return NewMailboxWithID(uuid.NewString(), size)
}

// NewMailboxWithID creates a mailbox with a caller-chosen ID.
func NewMailboxWithID(id string, size int) *Mailbox {
	if size < 1 {
		size = DefaultMailboxSize
	}
	return &Mailbox{
		id:   id,
		ch:   make(chan Message, size),
		done: make(chan struct{}),
	}
}

// ID implements Endpoint.
func (m *Mailbox) ID() string { return m.id }

// Send implements Endpoint.
func (m *Mailbox) Send(msg Message) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}
	select {
	case m.ch <- msg:
		return nil
	default:
		return ErrMailboxFull
	}
}

// Receive returns the channel deliveries arrive on. It is closed by Close.
func (m *Mailbox) Receive() <-chan Message {
	return m.ch
}

// Done implements Monitored.
func (m *Mailbox) Done() <-chan struct{} {
	return m.done
}

// Close stops the mailbox. Buffered messages stay readable from Receive.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	close(m.ch)
	close(m.done)
}
