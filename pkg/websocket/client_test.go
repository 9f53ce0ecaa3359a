package websocket

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConn struct {
	mu        sync.Mutex
	writes    [][]byte
	inbound   chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newStubConn() *stubConn {
	return &stubConn{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (c *stubConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, io.EOF
	case payload := <-c.inbound:
		return payload, nil
	}
}

func (c *stubConn) Write(_ MessageType, payload []byte) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	c.mu.Lock()
	c.writes = append(c.writes, append([]byte(nil), payload...))
	c.mu.Unlock()
	return nil
}

func (c *stubConn) Close(_ CloseCode, _ string) error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

type stubDialer struct {
	dialed chan *stubConn
}

func newStubDialer() *stubDialer {
	return &stubDialer{dialed: make(chan *stubConn, 8)}
}

func (d *stubDialer) Dial(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn := newStubConn()
	d.dialed <- conn
	return conn, nil
}

func (d *stubDialer) waitConn(t *testing.T) *stubConn {
	t.Helper()
	select {
	case conn := <-d.dialed:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no connection established")
		return nil
	}
}

func testBackoff() Backoff {
	return Backoff{Min: 10 * time.Millisecond, Max: 10 * time.Millisecond, Factor: 1.0}
}

func TestNewRejectsNilDialer(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrNilDialer)
}

func TestStartIsIdempotent(t *testing.T) {
	dialer := newStubDialer()
	c, err := New(dialer, Option{Backoff: testBackoff()})
	require.NoError(t, err)

	require.NoError(t, c.Start(t.Context()))
	require.NoError(t, c.Start(t.Context()))
	defer c.Stop()

	dialer.waitConn(t)
	select {
	case <-dialer.dialed:
		t.Fatal("second Start dialed a second transport")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReconnectAfterTransportDrop(t *testing.T) {
	dialer := newStubDialer()

	var mu sync.Mutex
	var states []State
	c, err := New(dialer, Option{
		Backoff: testBackoff(),
		OnStateChange: func(s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(t.Context()))
	defer c.Stop()

	first := dialer.waitConn(t)
	require.Eventually(t, func() bool { return c.State() == StateConnected }, 2*time.Second, 5*time.Millisecond)

	_ = first.Close(CloseNormal, "test drop")

	dialer.waitConn(t)
	require.Eventually(t, func() bool { return c.State() == StateConnected }, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, states, StateConnecting)
	assert.Contains(t, states, StateDisconnected)
}

func TestSendWhileDisconnected(t *testing.T) {
	dialer := newStubDialer()
	c, err := New(dialer, Option{Backoff: testBackoff()})
	require.NoError(t, err)

	err = c.Send(MessageText, []byte("hello"))
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestSendOnOpenTransport(t *testing.T) {
	dialer := newStubDialer()
	c, err := New(dialer, Option{Backoff: testBackoff()})
	require.NoError(t, err)
	require.NoError(t, c.Start(t.Context()))
	defer c.Stop()

	conn := dialer.waitConn(t)
	require.Eventually(t, func() bool { return c.State() == StateConnected }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, c.Send(MessageText, []byte("ping")))
	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.Len(t, conn.writes, 1)
	assert.Equal(t, []byte("ping"), conn.writes[0])
}

func TestStopSuppressesReconnect(t *testing.T) {
	dialer := newStubDialer()
	c, err := New(dialer, Option{Backoff: testBackoff()})
	require.NoError(t, err)
	require.NoError(t, c.Start(t.Context()))

	dialer.waitConn(t)
	c.Stop()

	select {
	case <-dialer.dialed:
		t.Fatal("reconnected after Stop")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, StateDisconnected, c.State())
}

func TestRestartAfterStop(t *testing.T) {
	dialer := newStubDialer()
	c, err := New(dialer, Option{Backoff: testBackoff()})
	require.NoError(t, err)

	require.NoError(t, c.Start(t.Context()))
	dialer.waitConn(t)
	c.Stop()

	// once Stop returns the run loop is fully retired, so a new Start must
	// always win and dial a fresh transport
	require.NoError(t, c.Start(t.Context()))
	defer c.Stop()
	dialer.waitConn(t)
	require.Eventually(t, func() bool { return c.State() == StateConnected }, 2*time.Second, 5*time.Millisecond)
}

func TestConnectedPublishedAfterOnConnectReturns(t *testing.T) {
	dialer := newStubDialer()
	entered := make(chan struct{})
	release := make(chan struct{})

	c, err := New(dialer, Option{
		Backoff: testBackoff(),
		OnConnect: func(ctx context.Context, w Writer) error {
			close(entered)
			<-release
			return nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(t.Context()))
	defer c.Stop()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("connect hook never ran")
	}
	assert.Equal(t, StateConnecting, c.State(), "connected must not be visible while the connect hook runs")
	assert.ErrorIs(t, c.Send(MessageText, []byte("early")), ErrNotConnected)

	close(release)
	require.Eventually(t, func() bool { return c.State() == StateConnected }, 2*time.Second, 5*time.Millisecond)
}

func TestOnConnectErrorTearsDownAndRetries(t *testing.T) {
	dialer := newStubDialer()

	var calls int32
	var mu sync.Mutex
	c, err := New(dialer, Option{
		Backoff: testBackoff(),
		OnConnect: func(ctx context.Context, w Writer) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				return io.ErrUnexpectedEOF
			}
			return nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(t.Context()))
	defer c.Stop()

	dialer.waitConn(t)
	dialer.waitConn(t)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestOnFrameReceivesInboundPayloads(t *testing.T) {
	dialer := newStubDialer()

	frames := make(chan []byte, 1)
	c, err := New(dialer, Option{
		Backoff: testBackoff(),
		OnFrame: func(payload []byte) { frames <- payload },
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(t.Context()))
	defer c.Stop()

	conn := dialer.waitConn(t)
	conn.inbound <- []byte(`{"type":"connected"}`)

	select {
	case payload := <-frames:
		assert.JSONEq(t, `{"type":"connected"}`, string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("frame not delivered")
	}
}

func TestPingLoopWritesPingFrames(t *testing.T) {
	dialer := newStubDialer()
	c, err := New(dialer, Option{Backoff: testBackoff(), PingInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, c.Start(t.Context()))
	defer c.Stop()

	conn := dialer.waitConn(t)
	require.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return len(conn.writes) >= 2
	}, 2*time.Second, 5*time.Millisecond)
}
