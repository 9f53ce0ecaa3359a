package quote

import (
	"sync"
	"time"

	"streamfolio/internal/model"
	"streamfolio/internal/model/enum"
)

// DefaultFlashInterval is how long a non-none direction flag survives before
// it is cleared back to none.
const DefaultFlashInterval = 500 * time.Millisecond

// Store holds the latest known quote per symbol plus the short-lived
// direction flags. Quotes are never evicted once received; staleness is a
// provenance concern, not a storage concern.
type Store struct {
	mu            sync.Mutex
	flashInterval time.Duration
	quotes        map[string]model.Quote
	flashes       map[string]*time.Timer
	closed        bool
}

// NewStore builds a store. A non-positive flashInterval falls back to
// DefaultFlashInterval.
func NewStore(flashInterval time.Duration) *Store {
	if flashInterval <= 0 {
		flashInterval = DefaultFlashInterval
	}
	return &Store{
		flashInterval: flashInterval,
		quotes:        make(map[string]model.Quote),
		flashes:       make(map[string]*time.Timer),
	}
}

// Update replaces the stored quote for the symbol. Direction is derived by
// comparing the new price to the previously stored price, never to the
// portfolio average price. A non-none direction arms a flash timer that
// clears the flag after the flash interval without touching the price.
func (s *Store) Update(q model.Quote) model.Quote {
	q.Symbol = model.NormalizeSymbol(q.Symbol)
	if q.ObservedAt.IsZero() {
		q.ObservedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return q
	}

	q.Direction = enum.DirectionNone
	if prev, ok := s.quotes[q.Symbol]; ok {
		switch q.Price.Cmp(prev.Price) {
		case 1:
			q.Direction = enum.DirectionUp
		case -1:
			q.Direction = enum.DirectionDown
		}
	}
	s.quotes[q.Symbol] = q

	if timer := s.flashes[q.Symbol]; timer != nil {
		timer.Stop()
		delete(s.flashes, q.Symbol)
	}
	if q.Direction != enum.DirectionNone {
		symbol := q.Symbol
		s.flashes[symbol] = time.AfterFunc(s.flashInterval, func() {
			s.clearDirection(symbol)
		})
	}
	return q
}

// Get returns the stored quote for the symbol.
func (s *Store) Get(symbol string) (model.Quote, bool) {
	s.mu.Lock()
	q, ok := s.quotes[model.NormalizeSymbol(symbol)]
	s.mu.Unlock()
	return q, ok
}

// Len returns the number of symbols with a stored quote.
func (s *Store) Len() int {
	s.mu.Lock()
	n := len(s.quotes)
	s.mu.Unlock()
	return n
}

// Close cancels every pending flash timer. Quotes remain readable but the
// store stops mutating, so nothing fires after teardown.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for symbol, timer := range s.flashes {
		timer.Stop()
		delete(s.flashes, symbol)
	}
}

func (s *Store) clearDirection(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	delete(s.flashes, symbol)
	q, ok := s.quotes[symbol]
	if !ok {
		return
	}
	q.Direction = enum.DirectionNone
	s.quotes[symbol] = q
}
