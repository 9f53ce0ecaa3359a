package websocket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"
)

var (
	ErrNilDialer    = errors.New("websocket: nil dialer")
	ErrBadConfig    = errors.New("websocket: invalid config")
	ErrNotConnected = errors.New("websocket: not connected")
)

// Writer sends frames on the currently open transport. It is handed to the
// OnConnect callback so subscription replay happens on the fresh connection.
type Writer interface {
	Send(msgType MessageType, payload []byte) error
}

// Option defines the client runtime configuration.
type Option struct {
	// Backoff defines the reconnect delay. Optional; default DefaultBackoff (flat 3s).
	Backoff Backoff
	// PingInterval enables periodic ping frames when >0. Optional; default 0 (disabled).
	PingInterval time.Duration
	// OnConnect runs after a connection is established; return error to tear it
	// down. StateConnected is published only after OnConnect returns nil, so
	// Send rejects frames until the hook has finished. Optional.
	OnConnect func(ctx context.Context, w Writer) error
	// OnDisconnect runs after a session ends with the terminal error. Optional.
	OnDisconnect func(err error)
	// OnFrame receives every inbound data frame payload. Optional.
	OnFrame func(payload []byte)
	// OnStateChange observes lifecycle transitions. Optional.
	OnStateChange func(state State)
}

func (opt *Option) init() {
	if opt.Backoff.Min == 0 && opt.Backoff.Max == 0 && opt.Backoff.Factor == 0 && opt.Backoff.Jitter == 0 {
		opt.Backoff = DefaultBackoff()
	}
}

// Client owns a single WebSocket transport lifecycle: dial, read, deliberate
// close, reconnect-with-delay. At most one live transport and one pending
// reconnect wait exist at any time.
type Client struct {
	dialer Dialer
	opt    Option

	mu      sync.Mutex
	conn    Conn
	cancel  context.CancelFunc
	done    chan struct{}
	state   atomic.Int32
	running atomic.Bool
	stopped atomic.Bool
}

// New validates config and builds a client.
func New(dialer Dialer, option ...Option) (*Client, error) {
	if dialer == nil {
		return nil, ErrNilDialer
	}

	var opt Option
	if len(option) != 0 {
		opt = option[0]
	}
	opt.init()

	return &Client{
		dialer: dialer,
		opt:    opt,
	}, nil
}

// Start establishes the transport and keeps it alive until Stop or ctx
// cancellation. Calling Start while connecting or connected is a no-op.
func (c *Client) Start(ctx context.Context) error {
	if c == nil || ctx == nil {
		return ErrBadConfig
	}
	if !c.running.CompareAndSwap(false, true) {
		return nil
	}

	c.stopped.Store(false)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go func() {
		c.run(runCtx)
		c.setState(StateDisconnected)
		cancel()
		// running must clear before done unblocks Stop, so a Start issued
		// right after Stop returns always wins its CompareAndSwap
		c.running.Store(false)
		close(done)
	}()
	return nil
}

// Stop deliberately closes the transport with a normal-closure code and
// suppresses auto-reconnect. It blocks until the run loop has exited.
func (c *Client) Stop() {
	if c == nil {
		return
	}
	c.stopped.Store(true)

	c.mu.Lock()
	conn := c.conn
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if c.running.Load() {
		c.setState(StateClosing)
	}
	if conn != nil {
		_ = conn.Close(CloseNormal, "client stop")
	}
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Send transmits a frame on the open transport. Frames sent while not
// connected are rejected with ErrNotConnected.
func (c *Client) Send(msgType MessageType, payload []byte) error {
	if c == nil {
		return ErrBadConfig
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil || c.State() != StateConnected {
		return ErrNotConnected
	}
	return conn.Write(msgType, payload)
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	if c == nil {
		return StateDisconnected
	}
	return State(c.state.Load())
}

func (c *Client) setState(state State) {
	if State(c.state.Swap(int32(state))) == state {
		return
	}
	if c.opt.OnStateChange != nil {
		c.opt.OnStateChange(state)
	}
}

func (c *Client) run(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil || c.stopped.Load() {
			return
		}

		c.setState(StateConnecting)
		conn, err := c.dialer.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil || c.stopped.Load() {
				return
			}
			logs.Errorf("websocket dial, err: %+v", err)
			c.setState(StateDisconnected)
			attempt++
			c.sleepBackoff(ctx, attempt)
			continue
		}

		attempt = 0
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		err = c.runSession(ctx, conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = conn.Close(CloseNormal, "session end")

		if c.opt.OnDisconnect != nil {
			c.opt.OnDisconnect(err)
		}
		if ctx.Err() != nil || c.stopped.Load() {
			return
		}

		c.setState(StateDisconnected)
		attempt++
		c.sleepBackoff(ctx, attempt)
	}
}

func (c *Client) runSession(ctx context.Context, conn Conn) error {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-sessionCtx.Done()
		_ = conn.Close(CloseNormal, "context done")
	}()

	if c.opt.OnConnect != nil {
		if err := c.opt.OnConnect(sessionCtx, connWriter{conn: conn}); err != nil {
			return err
		}
	}
	c.setState(StateConnected)

	if c.opt.PingInterval > 0 {
		go c.pingLoop(sessionCtx, conn)
	}

	for {
		payload, err := conn.Read(sessionCtx)
		if err != nil {
			return err
		}
		if c.opt.OnFrame != nil && len(payload) > 0 {
			c.opt.OnFrame(payload)
		}
	}
}

func (c *Client) pingLoop(ctx context.Context, conn Conn) {
	ticker := time.NewTicker(c.opt.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Write(MessagePing, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) sleepBackoff(ctx context.Context, attempt int) {
	wait := c.opt.Backoff.Next(attempt)
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

type connWriter struct {
	conn Conn
}

func (w connWriter) Send(msgType MessageType, payload []byte) error {
	return w.conn.Write(msgType, payload)
}
