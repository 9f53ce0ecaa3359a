package portfolio

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamfolio/pkg/exception"
)

func TestFetchSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, snapshotPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"positions": [
				{"symbol":" aapl ","quantity":"10","average_price":"100","currency":"USD","snapshot_price":"105","snapshot_market_value":"1050"}
			],
			"account": {"currency":"USD","cash_balance":"2500.50","market_value":"1050","total_value":"3550.50"}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	snapshot, err := c.FetchSnapshot(t.Context())
	require.NoError(t, err)

	require.Len(t, snapshot.Positions, 1)
	p := snapshot.Positions[0]
	assert.Equal(t, "AAPL", p.Symbol, "symbols are normalized on ingest")
	assert.True(t, p.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, p.SnapshotPrice.Equal(decimal.NewFromInt(105)))
	assert.True(t, snapshot.Account.CashBalance.Equal(decimal.RequireFromString("2500.50")))
	assert.False(t, snapshot.FetchedAt.IsZero())
}

func TestFetchSnapshotNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.FetchSnapshot(t.Context())
	require.ErrorIs(t, err, exception.ErrSnapshotStatus)
}

func TestFetchSnapshotBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"positions": not-json`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.FetchSnapshot(t.Context())
	require.Error(t, err)
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://localhost:8080///", nil)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
}
