package dashboard

import (
	"context"
	"sync"

	"github.com/yanun0323/logs"

	"streamfolio/internal/model"
	"streamfolio/internal/ops"
	"streamfolio/internal/portfolio"
	"streamfolio/internal/quote"
	"streamfolio/internal/status"
	"streamfolio/internal/stream"
	"streamfolio/internal/valuation"
	"streamfolio/pkg/websocket"
)

// Option defines the session callbacks consumed by the view layer.
type Option struct {
	// OnValuation runs after every revaluation pass. Optional.
	OnValuation func(v model.Valuation)
	// OnStreamEvent receives informational stream events. Optional.
	OnStreamEvent func(e stream.Event)
	// OnStreamState observes transport lifecycle transitions. Optional.
	OnStreamState func(state websocket.State)
	// OnStatus receives streaming-mode metadata from the status poller. Optional.
	OnStatus func(st status.StreamStatus)
}

// Session is one dashboard session: the stream, quote store, snapshot
// client, status poller, and revaluation engine under a single start/stop
// lifecycle. Sessions are explicit values, not module-level state, so
// several can coexist.
type Session struct {
	cfg       ops.Loaded
	opt       Option
	store     *quote.Store
	stream    *stream.Stream
	snapshots *portfolio.Client
	poller    *status.Poller

	mu        sync.Mutex
	positions []model.Position
	account   portfolio.AccountSummary
}

// NewSession wires a session from resolved config.
func NewSession(cfg ops.Loaded, option ...Option) (*Session, error) {
	var opt Option
	if len(option) != 0 {
		opt = option[0]
	}

	s := &Session{
		cfg:       cfg,
		opt:       opt,
		store:     quote.NewStore(cfg.FlashInterval),
		snapshots: portfolio.NewClient(cfg.APIBaseURL, nil),
	}

	st, err := stream.New(websocket.NewDialer(cfg.StreamURL), s.store, stream.Option{
		Backoff:       cfg.Backoff,
		PingInterval:  cfg.PingInterval,
		OnQuote:       s.handleQuote,
		OnEvent:       opt.OnStreamEvent,
		OnStateChange: opt.OnStreamState,
	})
	if err != nil {
		return nil, err
	}
	s.stream = st
	s.poller = status.NewPoller(cfg.APIBaseURL, cfg.StatusInterval, opt.OnStatus, nil)
	return s, nil
}

// Start opens the stream, begins status polling, subscribes configured
// symbols, and attempts an initial snapshot fetch. A failed initial fetch
// degrades to an empty portfolio rather than failing the session.
func (s *Session) Start(ctx context.Context) error {
	if err := s.stream.Start(ctx); err != nil {
		return err
	}
	s.poller.Start(ctx)

	for _, sym := range s.cfg.Symbols {
		if err := s.stream.Subscribe(sym); err != nil {
			logs.Errorf("subscribe %s, err: %+v", sym, err)
		}
	}

	if _, err := s.RefreshSnapshot(ctx); err != nil {
		logs.Errorf("initial snapshot, err: %+v", err)
	}
	return nil
}

// Stop tears the session down: deliberate transport close (no reconnect),
// status polling halted, and every pending flash timer cancelled.
func (s *Session) Stop() {
	s.poller.Stop()
	s.stream.Stop()
	s.store.Close()
}

// RefreshSnapshot fetches a fresh portfolio snapshot, subscribes any new
// position symbols, and returns the revaluation over the new snapshot.
func (s *Session) RefreshSnapshot(ctx context.Context) (model.Valuation, error) {
	snapshot, err := s.snapshots.FetchSnapshot(ctx)
	if err != nil {
		return model.Valuation{}, err
	}

	s.mu.Lock()
	s.positions = snapshot.Positions
	s.account = snapshot.Account
	s.mu.Unlock()

	for _, position := range snapshot.Positions {
		if err := s.stream.Subscribe(position.Symbol); err != nil {
			logs.Errorf("subscribe %s, err: %+v", position.Symbol, err)
		}
	}

	v := s.revalue()
	if s.opt.OnValuation != nil {
		s.opt.OnValuation(v)
	}
	return v, nil
}

// Subscribe tracks an extra symbol beyond the snapshot positions.
func (s *Session) Subscribe(symbol string) error {
	return s.stream.Subscribe(symbol)
}

// Unsubscribe untracks a symbol.
func (s *Session) Unsubscribe(symbol string) error {
	return s.stream.Unsubscribe(symbol)
}

// Valuation recomputes the current valuation on demand.
func (s *Session) Valuation() model.Valuation {
	return s.revalue()
}

// Account returns the account summary from the last snapshot.
func (s *Session) Account() portfolio.AccountSummary {
	s.mu.Lock()
	account := s.account
	s.mu.Unlock()
	return account
}

// State returns the transport lifecycle state for the view's indicator.
func (s *Session) State() websocket.State {
	return s.stream.State()
}

func (s *Session) handleQuote(model.Quote) {
	v := s.revalue()
	if s.opt.OnValuation != nil {
		s.opt.OnValuation(v)
	}
}

func (s *Session) revalue() model.Valuation {
	s.mu.Lock()
	positions := append([]model.Position(nil), s.positions...)
	s.mu.Unlock()
	return valuation.Revalue(positions, s.store, s.stream.Registry())
}
