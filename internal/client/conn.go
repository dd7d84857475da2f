package client

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"StreetEncounters/internal/protocol"
)

const (
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// wsConn wraps one live websocket session. Writes are serialized; gorilla
// allows only one concurrent writer.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *wsConn) Send(msgType string, payload any) error {
	buf, err := protocol.Encode(msgType, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, buf)
}

// Run connects to the authority and keeps the connection alive until the
// context ends, redialing with exponential backoff. Every successful dial
// replays active missions and refreshes the tracker.
func (c *Client) Run(ctx context.Context) error {
	target, err := dialURL(c.cfg.URL, c.cfg.Identity)
	if err != nil {
		return err
	}

	backoff := reconnectMin
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ws, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", backoff).Msg("dial failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > reconnectMax {
				backoff = reconnectMax
			}
			continue
		}
		backoff = reconnectMin

		conn := &wsConn{ws: ws}
		c.log.Info().Str("url", c.cfg.URL).Msg("connected")
		c.onConnected(conn)
		c.readLoop(ctx, ws)
		c.onDisconnected()
		_ = ws.Close()
	}
}

func (c *Client) readLoop(ctx context.Context, ws *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = ws.Close()
		case <-done:
		}
	}()

	for {
		var env protocol.Envelope
		if err := ws.ReadJSON(&env); err != nil {
			if ctx.Err() == nil {
				c.log.Warn().Err(err).Msg("connection lost")
			}
			return
		}
		c.handle(env)
	}
}

func dialURL(raw, identity string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("identity", identity)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
