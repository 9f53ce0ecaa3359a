package portfolio

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"streamfolio/internal/model"
	"streamfolio/pkg/exception"
)

const snapshotPath = "/api/portfolio"

// AccountSummary is the account-level part of a snapshot.
type AccountSummary struct {
	Currency    string          `json:"currency"`
	CashBalance decimal.Decimal `json:"cash_balance"`
	MarketValue decimal.Decimal `json:"market_value"`
	TotalValue  decimal.Decimal `json:"total_value"`
}

// Snapshot is a point-in-time portfolio fetched from the brokerage-wrapping
// backend. It is read-only input here and refreshed on demand, never polled.
type Snapshot struct {
	Positions []model.Position `json:"positions"`
	Account   AccountSummary   `json:"account"`
	FetchedAt time.Time        `json:"-"`
}

// Client fetches portfolio snapshots from the collaborator endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a snapshot client. A nil httpClient gets a 15s-timeout
// default.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// FetchSnapshot retrieves the current position list and account summary.
func (c *Client) FetchSnapshot(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+snapshotPath, nil)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "build snapshot request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "fetch snapshot")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, errors.Wrap(exception.ErrSnapshotStatus, resp.Status)
	}

	var snapshot Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return Snapshot{}, errors.Wrap(err, "decode snapshot")
	}
	for i := range snapshot.Positions {
		snapshot.Positions[i].Symbol = model.NormalizeSymbol(snapshot.Positions[i].Symbol)
	}
	snapshot.FetchedAt = time.Now()
	return snapshot, nil
}
