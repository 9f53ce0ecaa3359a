package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
)

const (
	DefaultDialerTimeout = 10 * time.Second
	defaultWriteTimeout  = 10 * time.Second
)

// Dialer establishes new WebSocket connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Conn is a single established WebSocket transport.
type Conn interface {
	// Read blocks until the next data frame arrives and returns its payload.
	Read(ctx context.Context) ([]byte, error)
	// Write transmits a single frame.
	Write(msgType MessageType, payload []byte) error
	// Close sends a close frame with the given code and tears the transport down.
	Close(code CloseCode, reason string) error
}

type dialer struct {
	url         string
	dialTimeout time.Duration
}

// NewDialer builds a Dialer for the given ws:// or wss:// endpoint URL.
func NewDialer(url string) Dialer {
	return &dialer{
		url:         url,
		dialTimeout: DefaultDialerTimeout,
	}
}

func (d *dialer) Dial(ctx context.Context) (Conn, error) {
	wsDialer := gws.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.dialTimeout,
	}
	conn, resp, err := wsDialer.DialContext(ctx, d.url, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn    *gws.Conn
	writeMu sync.Mutex
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *wsConn) Write(msgType MessageType, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(defaultWriteTimeout)
	switch msgType {
	case MessagePing, MessagePong, MessageClose:
		return c.conn.WriteControl(int(msgType), payload, deadline)
	default:
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
		return c.conn.WriteMessage(int(msgType), payload)
	}
}

func (c *wsConn) Close(code CloseCode, reason string) error {
	c.writeMu.Lock()
	payload := gws.FormatCloseMessage(int(code), reason)
	_ = c.conn.WriteControl(int(MessageClose), payload, time.Now().Add(defaultWriteTimeout))
	c.writeMu.Unlock()
	return c.conn.Close()
}
