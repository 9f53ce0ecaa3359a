package stream

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"streamfolio/internal/model"
	"streamfolio/internal/quote"
	"streamfolio/pkg/exception"
	"streamfolio/pkg/websocket"
)

// Option defines the stream runtime configuration.
type Option struct {
	// Backoff defines the reconnect delay. Optional; default flat 3s.
	Backoff websocket.Backoff
	// PingInterval enables periodic pings when >0. Optional; default 0.
	PingInterval time.Duration
	// OnQuote runs after each price update has been applied to the store. Optional.
	OnQuote func(q model.Quote)
	// OnEvent receives informational events (connected, subscribed). Optional.
	OnEvent func(e Event)
	// OnStateChange observes transport lifecycle transitions. Optional.
	OnStateChange func(state websocket.State)
}

// Stream ties the transport client, the subscription registry, and the quote
// store together: it replays every tracked symbol on each (re)connect and
// routes decoded price updates into the store.
//
// Replay and user-issued control sends serialize on one mutex: a Subscribe or
// Unsubscribe that lands while replay is in flight queues behind it, so every
// replayed subscribe reaches the wire before any later membership change and
// each change yields at most one frame.
type Stream struct {
	client   *websocket.Client
	registry *Registry
	store    *quote.Store
	opt      Option

	mu     sync.Mutex
	writer websocket.Writer
}

// New builds a stream over the given dialer, writing quotes into store.
func New(dialer websocket.Dialer, store *quote.Store, option ...Option) (*Stream, error) {
	if store == nil {
		return nil, websocket.ErrBadConfig
	}

	var opt Option
	if len(option) != 0 {
		opt = option[0]
	}

	s := &Stream{
		registry: NewRegistry(),
		store:    store,
		opt:      opt,
	}

	client, err := websocket.New(dialer, websocket.Option{
		Backoff:      opt.Backoff,
		PingInterval: opt.PingInterval,
		OnConnect:    s.replayAll,
		OnDisconnect: func(err error) {
			s.mu.Lock()
			s.writer = nil
			s.mu.Unlock()
			if err != nil && !stderrors.Is(err, context.Canceled) {
				logs.Infof("stream disconnected, err: %+v", err)
			}
		},
		OnFrame:       s.dispatch,
		OnStateChange: opt.OnStateChange,
	})
	if err != nil {
		return nil, err
	}
	s.client = client
	return s, nil
}

// Start opens the transport; no-op while connecting or connected.
func (s *Stream) Start(ctx context.Context) error {
	return s.client.Start(ctx)
}

// Stop closes the transport deliberately and suppresses reconnect. Tracked
// symbols stay in the registry; a later Start replays them.
func (s *Stream) Stop() {
	s.client.Stop()
}

// State returns the transport lifecycle state.
func (s *Stream) State() websocket.State {
	return s.client.State()
}

// Registry exposes the tracked symbol set for read-only use.
func (s *Stream) Registry() *Registry {
	return s.registry
}

// Subscribe tracks a symbol and, when connected, issues the wire subscribe.
// Repeated subscribes of a tracked symbol are a no-op. While disconnected or
// mid-replay only the registry is updated; replay covers the symbol once the
// connection is usable. Send failures are dropped for the same reason: the
// registry stays authoritative and the next replay heals the wire state.
func (s *Stream) Subscribe(symbol string) error {
	sym := model.NormalizeSymbol(symbol)
	if sym == "" {
		return exception.ErrEmptySymbol
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.registry.Add(sym) {
		return nil
	}
	if s.writer == nil {
		return nil
	}
	payload, err := encodeSubscribe(sym)
	if err != nil {
		return err
	}
	if err := s.writer.Send(websocket.MessageText, payload); err != nil {
		logs.Errorf("send subscribe %s, err: %+v", sym, err)
	}
	return nil
}

// Unsubscribe untracks a symbol and, when connected, issues the wire
// unsubscribe. The quote store keeps any quote already received.
func (s *Stream) Unsubscribe(symbol string) error {
	sym := model.NormalizeSymbol(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.registry.Remove(sym) {
		return nil
	}
	if s.writer == nil {
		return nil
	}
	payload, err := encodeUnsubscribe(sym)
	if err != nil {
		return err
	}
	if err := s.writer.Send(websocket.MessageText, payload); err != nil {
		logs.Errorf("send unsubscribe %s, err: %+v", sym, err)
	}
	return nil
}

// replayAll issues one subscribe per tracked symbol on the fresh connection.
// It holds the control mutex for the whole pass and installs the writer only
// after every replayed subscribe is on the wire, so a concurrent Subscribe or
// Unsubscribe cannot overtake the replay. A failed replay tears the
// connection down so the reconnect path retries; no symbol is ever silently
// dropped.
func (s *Stream) replayAll(ctx context.Context, w websocket.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbols := s.registry.Symbols()
	for _, sym := range symbols {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		payload, err := encodeSubscribe(sym)
		if err != nil {
			return err
		}
		if err := w.Send(websocket.MessageText, payload); err != nil {
			return errors.Wrap(err, "replay subscribe")
		}
	}
	s.writer = w
	if len(symbols) > 0 {
		logs.Infof("replayed %d subscriptions", len(symbols))
	}
	return nil
}

func (s *Stream) dispatch(payload []byte) {
	event, err := Decode(payload)
	if err != nil {
		logs.Errorf("drop frame, err: %+v", err)
		return
	}

	switch e := event.(type) {
	case PriceUpdateEvent:
		stored := s.store.Update(e.Quote())
		if s.opt.OnQuote != nil {
			s.opt.OnQuote(stored)
		}
	case ConnectedEvent:
		logs.Infof("stream session established, client %s", e.ClientID)
		if s.opt.OnEvent != nil {
			s.opt.OnEvent(e)
		}
	case SubscribedEvent:
		logs.Infof("subscription acknowledged: %s", e.Ticker)
		if s.opt.OnEvent != nil {
			s.opt.OnEvent(e)
		}
	case UnknownEvent:
		// unrecognized kinds are ignored, not fatal
	}
}
