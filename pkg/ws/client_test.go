package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{}

// echoServer upgrades, records the first client message as the subscription,
// then streams the given payloads.
func echoServer(t *testing.T, payloads []string, gotSubscribe chan<- []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if gotSubscribe != nil {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			gotSubscribe <- msg
		}

		for _, p := range payloads {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(p)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws://" + strings.TrimPrefix(srv.URL, "http://")
}

func TestListenSubscribesAndDeliversMessages(t *testing.T) {
	gotSubscribe := make(chan []byte, 1)
	srv := echoServer(t, []string{`{"n":1}`, `{"n":2}`}, gotSubscribe)
	defer srv.Close()

	var mu sync.Mutex
	var received []string

	c := NewClient(wsURL(srv), zap.NewNop())
	c.SetSubscribe(func() any {
		return map[string]any{"op": "subscribe", "args": []string{"trades.BTC"}}
	})
	c.SetMessageHandler(func(msg []byte) {
		mu.Lock()
		received = append(received, string(msg))
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Listen(ctx)
		close(done)
	}()

	select {
	case sub := <-gotSubscribe:
		var req map[string]any
		require.NoError(t, json.Unmarshal(sub, &req))
		assert.Equal(t, "subscribe", req["op"])
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription message received")
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`}, received)
	mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after cancellation")
	}
}

func TestListenReturnsPromptlyOnCancelDuringBlockedRead(t *testing.T) {
	srv := echoServer(t, nil, nil)
	defer srv.Close()

	c := NewClient(wsURL(srv), zap.NewNop())
	c.SetMessageHandler(func([]byte) {})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Listen(ctx)
		close(done)
	}()

	// Give the client time to connect and block in ReadMessage.
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	cancel()
	select {
	case <-done:
		assert.Less(t, time.Since(start), time.Second, "cancellation must not wait out a read timeout")
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after cancellation")
	}
}

func TestListenReturnsWhenCancelledBeforeDial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("ws://127.0.0.1:1/never", zap.NewNop())
	done := make(chan struct{})
	go func() {
		c.Listen(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen did not return for a cancelled context")
	}
}
