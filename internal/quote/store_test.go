package quote

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamfolio/internal/model"
	"streamfolio/internal/model/enum"
)

func TestDirectionFromPreviousPrice(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	first := s.Update(model.Quote{Symbol: "aapl", Price: decimal.NewFromInt(100)})
	assert.Equal(t, enum.DirectionNone, first.Direction, "first quote has no previous price")

	up := s.Update(model.Quote{Symbol: "AAPL", Price: decimal.RequireFromString("100.5")})
	assert.Equal(t, enum.DirectionUp, up.Direction)

	down := s.Update(model.Quote{Symbol: "AAPL", Price: decimal.NewFromInt(99)})
	assert.Equal(t, enum.DirectionDown, down.Direction)

	flat := s.Update(model.Quote{Symbol: "AAPL", Price: decimal.NewFromInt(99)})
	assert.Equal(t, enum.DirectionNone, flat.Direction)
}

func TestDirectionComparesStoredPriceNotAverage(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	s.Update(model.Quote{Symbol: "X", Price: decimal.NewFromInt(105)})
	q := s.Update(model.Quote{Symbol: "X", Price: decimal.NewFromInt(104)})
	assert.Equal(t, enum.DirectionDown, q.Direction, "104 < previous stored 105")
}

func TestFlashClearsDirectionWithoutTouchingPrice(t *testing.T) {
	s := NewStore(20 * time.Millisecond)
	defer s.Close()

	s.Update(model.Quote{Symbol: "MSFT", Price: decimal.NewFromInt(300)})
	s.Update(model.Quote{Symbol: "MSFT", Price: decimal.NewFromInt(301)})

	q, ok := s.Get("MSFT")
	require.True(t, ok)
	require.Equal(t, enum.DirectionUp, q.Direction)

	require.Eventually(t, func() bool {
		q, _ := s.Get("MSFT")
		return q.Direction == enum.DirectionNone
	}, time.Second, 5*time.Millisecond)

	q, _ = s.Get("MSFT")
	assert.True(t, q.Price.Equal(decimal.NewFromInt(301)), "flash clear must not alter the price")
}

func TestFlashTimersArePerSymbol(t *testing.T) {
	s := NewStore(20 * time.Millisecond)
	defer s.Close()

	s.Update(model.Quote{Symbol: "A", Price: decimal.NewFromInt(1)})
	s.Update(model.Quote{Symbol: "A", Price: decimal.NewFromInt(2)})

	require.Eventually(t, func() bool {
		q, _ := s.Get("A")
		return q.Direction == enum.DirectionNone
	}, time.Second, 5*time.Millisecond)

	// an update to another symbol must not disturb A's cleared state
	s.Update(model.Quote{Symbol: "B", Price: decimal.NewFromInt(10)})
	s.Update(model.Quote{Symbol: "B", Price: decimal.NewFromInt(11)})

	qa, _ := s.Get("A")
	assert.Equal(t, enum.DirectionNone, qa.Direction)
	qb, _ := s.Get("B")
	assert.Equal(t, enum.DirectionUp, qb.Direction)
}

func TestQuotesSurviveForSessionLifetime(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	s.Update(model.Quote{Symbol: "TSLA", Price: decimal.NewFromInt(200)})
	_, ok := s.Get("tsla")
	assert.True(t, ok, "lookup is case-insensitive")
	assert.Equal(t, 1, s.Len())
}

func TestCloseCancelsFlashTimers(t *testing.T) {
	s := NewStore(30 * time.Millisecond)

	s.Update(model.Quote{Symbol: "N", Price: decimal.NewFromInt(5)})
	s.Update(model.Quote{Symbol: "N", Price: decimal.NewFromInt(6)})
	s.Close()

	time.Sleep(60 * time.Millisecond)
	q, ok := s.Get("N")
	require.True(t, ok)
	assert.Equal(t, enum.DirectionUp, q.Direction, "nothing mutates after teardown")
}
