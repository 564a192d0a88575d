package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ReconnectDelay is the fixed wait between connection attempts. There is
// deliberately no backoff ceiling: a venue outage is survived by retrying
// forever and accumulated state is kept across reconnects.
const ReconnectDelay = 5 * time.Second

// Client maintains one streaming WebSocket connection: dial, optional
// subscribe message, read loop, reconnect. Venue adapters supply the URL,
// the subscription payload and the message handler.
type Client struct {
	url       string
	subscribe func() any // payload re-sent after every (re)connect, nil if the URL itself subscribes
	handler   func([]byte)
	logger    *zap.Logger
	dialer    *websocket.Dialer
}

// NewClient creates a client for the given stream URL.
func NewClient(url string, logger *zap.Logger) *Client {
	return &Client{
		url:    url,
		logger: logger,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// SetSubscribe sets the payload factory sent right after each connect.
func (c *Client) SetSubscribe(fn func() any) {
	c.subscribe = fn
}

// SetMessageHandler sets the function to handle incoming messages.
func (c *Client) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// Listen runs the connect/read/reconnect loop until ctx is cancelled. It
// never returns otherwise. Cancellation closes the live connection, so a
// blocked read unblocks immediately.
func (c *Client) Listen(ctx context.Context) {
	for ctx.Err() == nil {
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("websocket dial failed", zap.String("url", c.url), zap.Error(err))
			if !sleepCtx(ctx, ReconnectDelay) {
				return
			}
			continue
		}

		if c.subscribe != nil {
			if err := conn.WriteJSON(c.subscribe()); err != nil {
				c.logger.Warn("websocket subscribe failed", zap.Error(err))
				conn.Close()
				if !sleepCtx(ctx, ReconnectDelay) {
					return
				}
				continue
			}
		}

		c.logger.Info("websocket connected", zap.String("url", c.url))
		c.readAll(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		if !sleepCtx(ctx, ReconnectDelay) {
			return
		}
	}
}

// readAll pumps messages into the handler until the connection dies or ctx
// is cancelled.
func (c *Client) readAll(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close() // unblock ReadMessage
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if c.handler != nil {
			c.handler(msg)
		}
	}
}

// sleepCtx waits d or until ctx is done; reports whether the full delay
// elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
