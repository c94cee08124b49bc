package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/topichub/internal/endpoint"
	ws "github.com/nfrund/topichub/internal/websocket"
)

func TestServer_WebSocketRequiresTopic(t *testing.T) {
	s := New(newTestRegistry(t), 8)

	rec := do(t, s, http.MethodGet, "/ws", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_WebSocketSubscriber(t *testing.T) {
	reg := newTestRegistry(t)
	s := New(reg, 8)
	ts := httptest.NewServer(s.E)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?topic=room&topic=lobby"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var clientID string
	require.Eventually(t, func() bool {
		subs, err := reg.Subscribers(ctx, "lobby")
		if err != nil || len(subs) != 1 {
			return false
		}
		clientID = subs[0]
		return true
	}, time.Second, 10*time.Millisecond)

	// Server to client.
	require.NoError(t, reg.Broadcast(ctx, "room", []byte("welcome")))
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var frame ws.Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, ws.Frame{Topic: "room", Payload: "welcome"}, frame)

	// Client to other subscribers.
	mb := endpoint.NewMailbox(4)
	require.NoError(t, reg.Subscribe(ctx, mb, "room"))
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("hi all")))

	select {
	case msg := <-mb.Receive():
		assert.Equal(t, "room", msg.Topic)
		assert.Equal(t, clientID, msg.Sender)
		assert.Equal(t, "hi all", string(msg.Payload))
	case <-time.After(time.Second):
		t.Fatal("mailbox received nothing")
	}

	// Disconnecting removes the client from every topic.
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	assert.Eventually(t, func() bool {
		active, err := reg.Active(ctx, "lobby")
		return err == nil && !active
	}, 2*time.Second, 10*time.Millisecond)

	subs, err := reg.Subscribers(ctx, "room")
	require.NoError(t, err)
	assert.Equal(t, []string{mb.ID()}, subs)
}
