// Package websocket lets a WebSocket connection act as a subscriber endpoint.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/nfrund/topichub/internal/endpoint"
)

const writeTimeout = 10 * time.Second

// Frame is the JSON shape of a delivered message on the wire.
type Frame struct {
	Topic   string `json:"topic"`
	Sender  string `json:"sender,omitempty"`
	Payload string `json:"payload"`
}

// Client is one WebSocket connection registered as an endpoint. Deliveries
// are queued on a buffered channel and written by WritePump.
type Client struct {
	id   string
	conn *websocket.Conn
	// send is a buffered channel of outbound frames for this client.
	send chan []byte
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

var (
	_ endpoint.Endpoint  = (*Client)(nil)
	_ endpoint.Monitored = (*Client)(nil)
)

// NewClient wraps conn. bufferSize bounds how many frames may wait for the
// writer before deliveries are dropped.
func NewClient(id string, conn *websocket.Conn, bufferSize int) *Client {
	if bufferSize < 1 {
		bufferSize = endpoint.DefaultMailboxSize
	}
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, bufferSize),
		done: make(chan struct{}),
	}
}

// ID implements endpoint.Endpoint.
func (c *Client) ID() string { return c.id }

// Done implements endpoint.Monitored.
func (c *Client) Done() <-chan struct{} { return c.done }

// Send implements endpoint.Endpoint. It never waits on the network.
func (c *Client) Send(msg endpoint.Message) error {
	data, err := json.Marshal(Frame{Topic: msg.Topic, Sender: msg.Sender, Payload: string(msg.Payload)})
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return endpoint.ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return endpoint.ErrMailboxFull
	}
}

// Close stops the client and closes the connection. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	close(c.done)
	c.mu.Unlock()

	c.conn.Close(websocket.StatusNormalClosure, "Server-side cleanup")
}

// ReadPump reads text frames until the connection closes, passing each one
// to onMessage. It closes the client before returning.
func (c *Client) ReadPump(ctx context.Context, onMessage func([]byte)) {
	defer c.Close()

	for {
		_, message, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				slog.Info("WebSocket closed normally by client", "endpoint", c.id)
			case !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled):
				slog.Error("WebSocket read error", "endpoint", c.id, "error", err)
			}
			return
		}
		onMessage(message)
	}
}

// WritePump writes queued frames to the connection until the client is closed.
func (c *Client) WritePump() {
	for message := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "endpoint", c.id, "error", err)
			c.Close()
			return
		}
	}
}
